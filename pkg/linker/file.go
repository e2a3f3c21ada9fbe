package linker

import (
	"fmt"
	"os"
	"path/filepath"
)

// File is one input: a file named on the command line, a library found
// through -L, or an archive member (Parent set).
type File struct {
	Name     string
	Contents []byte

	Parent *File

	unmap func() error
}

// OpenFile maps filename into memory. The caller must Close it once
// nothing refers to its contents any more.
func OpenFile(filename string) (*File, error) {
	contents, unmap, err := mapFile(filename)
	if err != nil {
		return nil, err
	}
	return &File{Name: filename, Contents: contents, unmap: unmap}, nil
}

func (f *File) Close() error {
	if f.unmap == nil {
		return nil
	}
	err := f.unmap()
	f.unmap = nil
	f.Contents = nil
	return err
}

// DisplayName is "lib.a(member.o)" for archive members.
func (f *File) DisplayName() string {
	if f.Parent != nil {
		return fmt.Sprintf("%s(%s)", f.Parent.Name, f.Name)
	}
	return f.Name
}

func OpenLibrary(ctx *Context, path string) (*File, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, nil
	}

	file, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	if GetFileType(file.Contents) != FileTypeAr {
		_ = file.Close()
		return nil, fmt.Errorf("%s: not an archive", path)
	}
	return file, nil
}

func FindLibrary(ctx *Context, name string) (*File, error) {
	for _, dir := range ctx.Arg.LibraryPaths {
		f, err := OpenLibrary(ctx, filepath.Join(dir, "lib"+name+".a"))
		if err != nil {
			return nil, err
		}
		if f != nil {
			return f, nil
		}
	}
	return nil, fmt.Errorf("library not found: -l%s", name)
}
