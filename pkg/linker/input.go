package linker

import (
	"errors"
	"fmt"
	"io"

	"github.com/ksco/bootld/pkg/elf32"
	"github.com/ksco/bootld/pkg/utils"
)

// ReadInputFiles links every input into the image, in command-line
// order. "-lNAME" arguments are searched for in the library paths.
func ReadInputFiles(ctx *Context, args []string) error {
	for _, arg := range args {
		var file *File
		var err error
		if name, ok := utils.RemovePrefix(arg, "-l"); ok {
			file, err = FindLibrary(ctx, name)
		} else {
			file, err = OpenFile(arg)
		}
		if err != nil {
			return err
		}

		err = ReadFile(ctx, file)
		if cerr := file.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
	}

	if len(ctx.Modules) == 0 {
		return errors.New("no input files")
	}
	return nil
}

// ReadFile links one object, or every object member of an archive. An
// archive is only read once per run.
func ReadFile(ctx *Context, file *File) error {
	if ctx.Visited.Contains(file.Name) {
		return nil
	}

	switch ft := GetFileType(file.Contents); ft {
	case FileTypeObject:
		return LinkObject(ctx, file)
	case FileTypeAr:
		ctx.Visited.Add(file.Name)
		members, err := ReadArchiveMembers(file)
		if err != nil {
			return err
		}
		for _, child := range members {
			if ct := GetFileType(child.Contents); ct != FileTypeObject {
				return fmt.Errorf("%s: unsupported archive member type: %s", child.DisplayName(), FileTypeName(ct))
			}
			if err := LinkObject(ctx, child); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%s: unsupported file type: %s", file.Name, FileTypeName(ft))
	}
}

// LinkObject parses a relocatable object and appends it to the image.
func LinkObject(ctx *Context, file *File) error {
	if err := CheckFileCompatibility(ctx, file); err != nil {
		return err
	}

	obj, err := elf32.Parse(file.Contents)
	if err != nil {
		return fmt.Errorf("%s: %w", file.DisplayName(), err)
	}

	mod, err := ctx.Linker.Link(file.DisplayName(), obj)
	if err != nil {
		return err
	}
	ctx.Image.Align(ctx.Arg.Align)
	ctx.Modules = append(ctx.Modules, mod)
	return nil
}

// DumpInputFiles prints the structure of every input object instead of
// linking.
func DumpInputFiles(w io.Writer, args []string) error {
	for _, arg := range args {
		file, err := OpenFile(arg)
		if err != nil {
			return err
		}
		err = dumpFile(w, file)
		if cerr := file.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func dumpFile(w io.Writer, file *File) error {
	var objs []*File
	switch ft := GetFileType(file.Contents); ft {
	case FileTypeObject, FileTypeExec:
		objs = []*File{file}
	case FileTypeAr:
		members, err := ReadArchiveMembers(file)
		if err != nil {
			return err
		}
		objs = members
	default:
		return fmt.Errorf("%s: unsupported file type: %s", file.Name, FileTypeName(ft))
	}

	for _, obj := range objs {
		f, err := elf32.Parse(obj.Contents)
		if err != nil {
			return fmt.Errorf("%s: %w", obj.DisplayName(), err)
		}
		if _, err := fmt.Fprintf(w, "%s:\n", obj.DisplayName()); err != nil {
			return err
		}
		if err := f.Dump(w); err != nil {
			return err
		}
	}
	return nil
}
