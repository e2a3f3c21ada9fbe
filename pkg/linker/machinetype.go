package linker

import (
	"debug/elf"
	"encoding/binary"
)

type MachineType = int8

const (
	MachineTypeNone MachineType = iota
	MachineTypeI386
	MachineTypeX86_64
)

func GetMachineTypeFromContents(contents []byte) MachineType {
	switch GetFileType(contents) {
	case FileTypeObject, FileTypeExec:
		if len(contents) < 20 {
			return MachineTypeNone
		}
		switch elf.Machine(binary.LittleEndian.Uint16(contents[18:])) {
		case elf.EM_386:
			if contents[4] == byte(elf.ELFCLASS32) {
				return MachineTypeI386
			}
		case elf.EM_X86_64:
			if contents[4] == byte(elf.ELFCLASS64) {
				return MachineTypeX86_64
			}
		}
	}
	return MachineTypeNone
}

// GetMachineTypeFromEmulation maps a -m argument to a machine type.
func GetMachineTypeFromEmulation(name string) MachineType {
	switch name {
	case "elf_i386", "i386":
		return MachineTypeI386
	case "elf_x86_64":
		return MachineTypeX86_64
	}
	return MachineTypeNone
}

type MachineTypeStringer struct {
	MachineType
}

func (mts MachineTypeStringer) String() string {
	switch mts.MachineType {
	case MachineTypeI386:
		return "i386"
	case MachineTypeX86_64:
		return "x86_64"
	}
	return "none"
}
