//go:build !unix

package linker

import "os"

func mapFile(filename string) ([]byte, func() error, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, nil, err
	}
	return data, nil, nil
}
