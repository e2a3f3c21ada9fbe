package elf32

import (
	"debug/elf"
)

const (
	EhdrSize    = 52
	EhdrSizeExt = 64
	ShdrSize    = 40
	SymSize     = 16
	RelSize     = 8
	RelaSize    = 12

	// Section bodies start on this boundary in the file.
	Align = 4
)

var Magic = [4]byte{0x7f, 'E', 'L', 'F'}

type Ehdr struct {
	Ident     [elf.EI_NIDENT]uint8
	Type      uint16
	Machine   uint16
	Version   uint32
	Entry     uint32
	PhOff     uint32
	ShOff     uint32
	Flags     uint32
	EhSize    uint16
	PhEntSize uint16
	PhNum     uint16
	ShEntSize uint16
	ShNum     uint16
	ShStrndx  uint16
}

type Shdr struct {
	Name      uint32
	Type      uint32
	Flags     uint32
	Addr      uint32
	Offset    uint32
	Size      uint32
	Link      uint32
	Info      uint32
	AddrAlign uint32
	EntSize   uint32
}

type Sym struct {
	Name  uint32
	Val   uint32
	Size  uint32
	Info  uint8
	Other uint8
	Shndx uint16
}

type Rel struct {
	Offset uint32
	Info   uint32
}

type Rela struct {
	Offset uint32
	Info   uint32
	Addend int32
}

func CheckMagic(contents []byte) bool {
	return len(contents) >= len(Magic) &&
		contents[0] == Magic[0] && contents[1] == Magic[1] &&
		contents[2] == Magic[2] && contents[3] == Magic[3]
}

func WriteMagic(contents []byte) {
	copy(contents, Magic[:])
}

type Kind uint16

const (
	KindNone Kind = Kind(elf.ET_NONE)
	KindRel  Kind = Kind(elf.ET_REL)
	KindExec Kind = Kind(elf.ET_EXEC)
)

func (k Kind) String() string {
	return elf.Type(k).String()
}

type SectionType uint32

const (
	SectionNull     SectionType = SectionType(elf.SHT_NULL)
	SectionProgBits SectionType = SectionType(elf.SHT_PROGBITS)
	SectionSymTab   SectionType = SectionType(elf.SHT_SYMTAB)
	SectionStrTab   SectionType = SectionType(elf.SHT_STRTAB)
	SectionRela     SectionType = SectionType(elf.SHT_RELA)
	SectionNoBits   SectionType = SectionType(elf.SHT_NOBITS)
	SectionRel      SectionType = SectionType(elf.SHT_REL)
)

func (t SectionType) String() string {
	return elf.SectionType(t).String()
}

const (
	FlagWrite     uint32 = uint32(elf.SHF_WRITE)
	FlagAlloc     uint32 = uint32(elf.SHF_ALLOC)
	FlagExecInstr uint32 = uint32(elf.SHF_EXECINSTR)
)

type Bind uint8

const (
	BindLocal  Bind = Bind(elf.STB_LOCAL)
	BindGlobal Bind = Bind(elf.STB_GLOBAL)
	BindWeak   Bind = Bind(elf.STB_WEAK)
)

func (b Bind) String() string {
	return elf.SymBind(b).String()
}

type SymType uint8

const (
	SymNoType  SymType = SymType(elf.STT_NOTYPE)
	SymObject  SymType = SymType(elf.STT_OBJECT)
	SymFunc    SymType = SymType(elf.STT_FUNC)
	SymSection SymType = SymType(elf.STT_SECTION)
	SymFile    SymType = SymType(elf.STT_FILE)
)

func (t SymType) String() string {
	return elf.SymType(t).String()
}

// Special section indices a symbol may carry instead of a real section.
const (
	ShnUndef  uint16 = uint16(elf.SHN_UNDEF)
	ShnAbs    uint16 = uint16(elf.SHN_ABS)
	ShnCommon uint16 = uint16(elf.SHN_COMMON)

	shnLoReserve = elf.SHN_LORESERVE
)

type RelocType uint8

const (
	RelocNone   RelocType = RelocType(elf.R_386_NONE)
	RelocAbs32  RelocType = RelocType(elf.R_386_32)
	RelocPC32   RelocType = RelocType(elf.R_386_PC32)
	RelocGOT32  RelocType = RelocType(elf.R_386_GOT32)
	RelocPLT32  RelocType = RelocType(elf.R_386_PLT32)
	RelocGOTOFF RelocType = RelocType(elf.R_386_GOTOFF)
	RelocGOTPC  RelocType = RelocType(elf.R_386_GOTPC)
)

func (t RelocType) String() string {
	return elf.R_386(t).String()
}
