package elf32

import (
	"github.com/ksco/bootld/pkg/utils"
)

// Reloc is one entry of a REL or RELA table. Offset is relative to the
// section named by the table's Info field.
type Reloc struct {
	table *Section

	Offset uint32
	Type   RelocType
	Addend int32

	// Parsed entries carry symIdx; entries built in memory carry sym,
	// which is turned into an index only when the table is laid out.
	symIdx uint32
	sym    *Symbol
}

func NewReloc(typ RelocType, sym *Symbol, offset uint32) *Reloc {
	return &Reloc{Offset: offset, Type: typ, sym: sym}
}

func newRelocFromInfo(table *Section, offset, info uint32, addend int32) *Reloc {
	return &Reloc{
		table:  table,
		Offset: offset,
		Type:   RelocType(utils.Bits(info, 7, 0)),
		Addend: addend,
		symIdx: info >> 8,
	}
}

func relocInfo(symIdx uint32, typ RelocType) uint32 {
	return symIdx<<8 | uint32(typ)
}

// Symbol returns the symbol this entry relocates against, looked up in
// the symbol table named by the owning table's Link field.
func (r *Reloc) Symbol() *Symbol {
	if r.sym != nil {
		return r.sym
	}
	if r.table == nil {
		return nil
	}
	symtab := r.table.LinkedSection()
	if symtab == nil || symtab.Type() != SectionSymTab ||
		int(r.symIdx) >= symtab.NumSymbols() {
		return nil
	}
	return symtab.Symbol(int(r.symIdx))
}

// StoredSymbolIndex is the index read from the file; it is meaningless
// for entries created in memory.
func (r *Reloc) StoredSymbolIndex() uint32 {
	return r.symIdx
}

func (r *Reloc) Table() *Section {
	return r.table
}
