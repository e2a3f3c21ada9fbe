//go:build unix

package linker

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

func mapFile(filename string) ([]byte, func() error, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}
	if !fi.Mode().IsRegular() {
		return nil, nil, fmt.Errorf("%s: not a regular file", filename)
	}
	if fi.Size() == 0 {
		return []byte{}, nil, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(fi.Size()), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, fmt.Errorf("mmap %s: %w", filename, err)
	}
	return data, func() error { return unix.Munmap(data) }, nil
}
