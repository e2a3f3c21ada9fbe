package elf32

import (
	"debug/elf"
)

// Role names one of the sections every relocatable or executable
// container is scaffolded with.
type Role int

const (
	RoleShStrTab Role = iota
	RoleStrTab
	RoleSymTab
	RoleText
	RoleData
	RoleBss
	RoleRelText
	RoleRelData
	numRoles
)

// File is an in-memory 32-bit little-endian i386 ELF container.
type File struct {
	Ident   [elf.EI_NIDENT]uint8
	Kind    Kind
	Machine uint16
	Version uint32
	Entry   uint32
	Flags   uint32

	phoff    uint32
	shoff    uint32
	shstrndx uint16

	sections []*Section

	// Section index per role; 0 means the container has no such
	// section, since index 0 is always the null section.
	roles [numRoles]int
}

func newFile(kind Kind) *File {
	f := &File{
		Kind:    kind,
		Machine: uint16(elf.EM_386),
		Version: uint32(elf.EV_CURRENT),
	}
	WriteMagic(f.Ident[:])
	f.Ident[elf.EI_CLASS] = uint8(elf.ELFCLASS32)
	f.Ident[elf.EI_DATA] = uint8(elf.ELFDATA2LSB)
	f.Ident[elf.EI_VERSION] = uint8(elf.EV_CURRENT)

	if kind == KindNone {
		return f
	}

	f.sections = append(f.sections, newNullSection(f))

	// The section name table goes first; every later section needs it
	// to register its own name.
	f.addRole(RoleShStrTab, newStrTabSection(f))
	f.shstrndx = uint16(f.roles[RoleShStrTab])

	f.addRole(RoleStrTab, newStrTabSection(f))
	f.addRole(RoleSymTab, newSymTabSection(f))
	f.addRole(RoleText, newTextSection(f))
	f.addRole(RoleData, newDataSection(f))
	f.addRole(RoleBss, newBssSection(f))
	f.addRole(RoleRelText, newRelTabSection(f, f.SymTab(), f.Text()))
	f.addRole(RoleRelData, newRelTabSection(f, f.SymTab(), f.Data()))
	return f
}

// NewRelocatable returns an ET_REL container scaffolded with the null
// section, .shstrtab, .strtab, .symtab, .text, .data, .bss, .rel.text and
// .rel.data, in that order.
func NewRelocatable() *File {
	return newFile(KindRel)
}

func NewExecutable() *File {
	return newFile(KindExec)
}

func (f *File) addRole(role Role, s *Section) {
	f.roles[role] = f.AddSection(s)
}

// --------------------------------------------
// Header
// --------------------------------------------

func (f *File) IsRel() bool {
	return f.Kind == KindRel
}

func (f *File) IsExec() bool {
	return f.Kind == KindExec
}

func (f *File) IsClass32() bool {
	return f.Ident[elf.EI_CLASS] == uint8(elf.ELFCLASS32)
}

// --------------------------------------------
// Sections
// --------------------------------------------

func (f *File) NumSections() int {
	return len(f.sections)
}

func (f *File) Sections() []*Section {
	return f.sections
}

func (f *File) Section(idx int) *Section {
	if idx < 0 || idx >= len(f.sections) {
		return nil
	}
	return f.sections[idx]
}

// AddSection appends s and returns its index.
func (f *File) AddSection(s *Section) int {
	f.sections = append(f.sections, s)
	return len(f.sections) - 1
}

// SectionByName skips the null section and returns the first match.
func (f *File) SectionByName(name string) *Section {
	for i := 1; i < len(f.sections); i++ {
		if f.sections[i].Name() == name {
			return f.sections[i]
		}
	}
	return nil
}

func (f *File) SectionIndex(s *Section) int {
	if s == nil {
		return -1
	}
	for i, other := range f.sections {
		if other == s {
			return i
		}
	}
	return -1
}

func (f *File) RoleSection(role Role) *Section {
	if idx := f.roles[role]; idx != 0 {
		return f.sections[idx]
	}
	return nil
}

func (f *File) ShStrTab() *Section { return f.RoleSection(RoleShStrTab) }
func (f *File) StrTab() *Section   { return f.RoleSection(RoleStrTab) }
func (f *File) SymTab() *Section   { return f.RoleSection(RoleSymTab) }
func (f *File) Text() *Section     { return f.RoleSection(RoleText) }
func (f *File) Data() *Section     { return f.RoleSection(RoleData) }
func (f *File) Bss() *Section      { return f.RoleSection(RoleBss) }
func (f *File) RelText() *Section  { return f.RoleSection(RoleRelText) }
func (f *File) RelData() *Section  { return f.RoleSection(RoleRelData) }

// --------------------------------------------
// Strings
// --------------------------------------------

func (f *File) String(h uint32) string {
	if s := f.StrTab(); s != nil {
		return s.String(h)
	}
	return ""
}

func (f *File) AddString(str string) uint32 {
	return f.StrTab().AddString(str)
}

func (f *File) SHString(h uint32) string {
	if s := f.ShStrTab(); s != nil {
		return s.String(h)
	}
	return ""
}

// --------------------------------------------
// Symbols
// --------------------------------------------

func (f *File) NumSymbols() int {
	if s := f.SymTab(); s != nil {
		return s.NumSymbols()
	}
	return 0
}

func (f *File) Symbol(idx int) *Symbol {
	return f.SymTab().Symbol(idx)
}

func (f *File) SymbolByAddress(addr uint32) *Symbol {
	return f.SymTab().SymbolByAddress(addr)
}

func (f *File) AddSymbol(sym *Symbol) {
	f.SymTab().AddSymbol(sym)
}

func (f *File) IndexOfSymbol(sym *Symbol) int {
	return f.SymTab().IndexOfSymbol(sym)
}
