package linker

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"fmt"

	"github.com/ksco/bootld/pkg/elf32"
)

type FileType = int8

const (
	FileTypeUnknown FileType = iota
	FileTypeEmpty
	FileTypeObject
	FileTypeExec
	FileTypeAr
	FileTypeThinAr
)

func GetFileType(contents []byte) FileType {
	if len(contents) == 0 {
		return FileTypeEmpty
	}

	if elf32.CheckMagic(contents) && len(contents) >= 18 {
		switch elf.Type(binary.LittleEndian.Uint16(contents[16:])) {
		case elf.ET_REL:
			return FileTypeObject
		case elf.ET_EXEC:
			return FileTypeExec
		}
		return FileTypeUnknown
	}

	if bytes.HasPrefix(contents, []byte(arMagic)) {
		return FileTypeAr
	}
	if bytes.HasPrefix(contents, []byte("!<thin>\n")) {
		return FileTypeThinAr
	}
	return FileTypeUnknown
}

func FileTypeName(ft FileType) string {
	switch ft {
	case FileTypeEmpty:
		return "empty"
	case FileTypeObject:
		return "object"
	case FileTypeExec:
		return "executable"
	case FileTypeAr:
		return "archive"
	case FileTypeThinAr:
		return "thin archive"
	}
	return "unknown"
}

// CheckFileCompatibility rejects ELF inputs built for another machine
// than the one being linked.
func CheckFileCompatibility(ctx *Context, file *File) error {
	mt := GetMachineTypeFromContents(file.Contents)
	if mt != ctx.Arg.Emulation {
		return fmt.Errorf("%s: incompatible file type: %s, linking %s",
			file.Name, MachineTypeStringer{mt}, MachineTypeStringer{ctx.Arg.Emulation})
	}
	return nil
}
