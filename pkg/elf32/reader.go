package elf32

import (
	"debug/elf"
	"fmt"

	"github.com/ksco/bootld/pkg/utils"
)

// Parse decodes a 32-bit little-endian i386 ELF container. Section
// bodies are copied out of data, so data may be released afterwards.
func Parse(data []byte) (*File, error) {
	if len(data) < EhdrSize {
		return nil, fmt.Errorf("%w: file too small (%d bytes)", ErrMalformed, len(data))
	}
	if !CheckMagic(data) {
		return nil, fmt.Errorf("%w: not an ELF file", ErrMalformed)
	}

	ehdr := utils.Read[Ehdr](data)
	if ehdr.Ident[elf.EI_CLASS] != uint8(elf.ELFCLASS32) {
		return nil, fmt.Errorf("%w: unsupported class %s", ErrMalformed,
			elf.Class(ehdr.Ident[elf.EI_CLASS]))
	}
	if ehdr.Ident[elf.EI_DATA] != uint8(elf.ELFDATA2LSB) {
		return nil, fmt.Errorf("%w: unsupported encoding %s", ErrMalformed,
			elf.Data(ehdr.Ident[elf.EI_DATA]))
	}
	if ehdr.Machine != uint16(elf.EM_386) {
		return nil, fmt.Errorf("%w: unsupported machine %s", ErrMalformed,
			elf.Machine(ehdr.Machine))
	}

	f := &File{
		Ident:    ehdr.Ident,
		Kind:     Kind(ehdr.Type),
		Machine:  ehdr.Machine,
		Version:  ehdr.Version,
		Entry:    ehdr.Entry,
		Flags:    ehdr.Flags,
		phoff:    ehdr.PhOff,
		shoff:    ehdr.ShOff,
		shstrndx: ehdr.ShStrndx,
	}

	if ehdr.ShNum == 0 {
		return f, nil
	}
	if ehdr.ShEntSize != ShdrSize {
		return nil, fmt.Errorf("%w: section header entry size %d", ErrMalformed, ehdr.ShEntSize)
	}
	end := uint64(ehdr.ShOff) + uint64(ehdr.ShNum)*ShdrSize
	if end > uint64(len(data)) {
		return nil, fmt.Errorf("%w: section header table is out of range: %#x", ErrMalformed, ehdr.ShOff)
	}
	if ehdr.ShStrndx >= ehdr.ShNum {
		return nil, fmt.Errorf("%w: section name table index %d out of range", ErrMalformed, ehdr.ShStrndx)
	}

	contents := data[ehdr.ShOff:]
	for i := 0; i < int(ehdr.ShNum); i++ {
		shdr := utils.Read[Shdr](contents[i*ShdrSize:])
		f.sections = append(f.sections, newSectionFromHeader(f, shdr))
	}

	// All bodies are loaded before any is interpreted: symbol and
	// relocation views look up other sections.
	for i, s := range f.sections {
		if i == 0 || s.Type() == SectionNoBits || s.shdr.Size == 0 {
			continue
		}
		end := uint64(s.shdr.Offset) + uint64(s.shdr.Size)
		if end > uint64(len(data)) {
			return nil, fmt.Errorf("%w: section %d is out of range: %#x", ErrMalformed, i, s.shdr.Offset)
		}
		s.body = append([]byte(nil), data[s.shdr.Offset:end]...)
	}
	for _, s := range f.sections {
		if err := s.interpret(); err != nil {
			return nil, err
		}
	}

	f.bindRelocSymbols()
	f.assignRoles()
	return f, nil
}

// bindRelocSymbols points every parsed relocation at the symbol its
// stored index names, so the index is recomputed when the container is
// laid out again. Out-of-range indices are left for the caller to see.
func (f *File) bindRelocSymbols() {
	for _, s := range f.sections {
		if s.Type() != SectionRel && s.Type() != SectionRela {
			continue
		}
		symtab := s.LinkedSection()
		if symtab == nil || symtab.Type() != SectionSymTab {
			continue
		}
		for _, r := range s.relocs {
			if r.sym == nil && int(r.symIdx) < len(symtab.symbols) {
				r.sym = symtab.symbols[r.symIdx]
			}
		}
	}
}

// assignRoles recovers the well-known sections of a parsed container.
func (f *File) assignRoles() {
	f.roles[RoleShStrTab] = int(f.shstrndx)

	for i := 1; i < len(f.sections); i++ {
		s := f.sections[i]
		if s.Type() == SectionSymTab && f.roles[RoleSymTab] == 0 {
			f.roles[RoleSymTab] = i
			if link := int(s.shdr.Link); link > 0 && link < len(f.sections) &&
				f.sections[link].Type() == SectionStrTab {
				f.roles[RoleStrTab] = link
			}
		}
	}

	if f.roles[RoleStrTab] == 0 {
		for i := 1; i < len(f.sections); i++ {
			if f.sections[i].Type() == SectionStrTab && i != int(f.shstrndx) {
				f.roles[RoleStrTab] = i
				break
			}
		}
	}

	byName := func(role Role, name string) {
		if s := f.SectionByName(name); s != nil {
			f.roles[role] = f.SectionIndex(s)
		}
	}
	byName(RoleText, ".text")
	byName(RoleData, ".data")
	byName(RoleBss, ".bss")

	relFor := func(role Role, target Role) {
		if f.roles[target] == 0 {
			return
		}
		for i := 1; i < len(f.sections); i++ {
			s := f.sections[i]
			if s.Type() == SectionRel && int(s.shdr.Info) == f.roles[target] {
				f.roles[role] = i
				return
			}
		}
	}
	relFor(RoleRelText, RoleText)
	relFor(RoleRelData, RoleData)
}
