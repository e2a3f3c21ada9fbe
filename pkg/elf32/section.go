package elf32

import (
	"bytes"
	"fmt"

	"github.com/ksco/bootld/pkg/utils"
)

// Section is one entry of the section header table together with its
// body. Depending on the type, the body is also held in structured form:
// symbols for SYMTAB, relocations for REL/RELA, strings for STRTAB. The
// structured form is authoritative; the body is re-derived from it when
// the container is laid out.
type Section struct {
	file *File
	shdr Shdr
	body []byte

	symbols []*Symbol
	relocs  []*Reloc
	strtab  *StrTab

	// In-memory links to other sections. When set they override the
	// Link and Info header fields at layout time.
	linkSec *Section
	infoSec *Section
}

func newSection(f *File, typ SectionType, name string, flags uint32) *Section {
	s := &Section{
		file:   f,
		shdr:   Shdr{Type: uint32(typ), Flags: flags},
		strtab: NewStrTab(),
	}
	if name != "" {
		shstr := f.ShStrTab()
		if shstr == nil {
			shstr = s
		}
		s.shdr.Name = shstr.AddString(name)
		s.shdr.AddrAlign = 1
	}
	return s
}

// NewSection creates a section for user content. It still has to be
// added to the container with AddSection.
func NewSection(f *File, typ SectionType, name string, flags uint32) *Section {
	s := newSection(f, typ, name, flags)
	switch typ {
	case SectionSymTab:
		s.shdr.EntSize = SymSize
		s.symbols = []*Symbol{NewSymbol(f, "", 0, nil)}
	case SectionRel:
		s.shdr.EntSize = RelSize
	case SectionRela:
		s.shdr.EntSize = RelaSize
	}
	return s
}

func newNullSection(f *File) *Section {
	return newSection(f, SectionNull, "", 0)
}

func newStrTabSection(f *File) *Section {
	name := ".strtab"
	if f.ShStrTab() == nil {
		name = ".shstrtab"
	}
	return newSection(f, SectionStrTab, name, FlagAlloc)
}

func newSymTabSection(f *File) *Section {
	s := NewSection(f, SectionSymTab, ".symtab", FlagAlloc)
	s.linkSec = f.SectionByName(".strtab")
	s.shdr.Link = uint32(f.SectionIndex(s.linkSec))
	return s
}

func newTextSection(f *File) *Section {
	return newSection(f, SectionProgBits, ".text", FlagAlloc|FlagExecInstr)
}

func newDataSection(f *File) *Section {
	return newSection(f, SectionProgBits, ".data", FlagWrite|FlagAlloc)
}

func newBssSection(f *File) *Section {
	return newSection(f, SectionNoBits, ".bss", FlagWrite|FlagAlloc)
}

func newRelTabSection(f *File, symtab, content *Section) *Section {
	s := NewSection(f, SectionRel, ".rel"+content.Name(), FlagAlloc)
	s.SetLinkedSection(symtab)
	s.SetInfoSection(content)
	return s
}

func newSectionFromHeader(f *File, shdr Shdr) *Section {
	return &Section{file: f, shdr: shdr}
}

func (s *Section) mustBe(types ...SectionType) {
	for _, t := range types {
		if s.Type() == t {
			return
		}
	}
	panic(fmt.Sprintf("section %q: operation not valid for %s sections", s.Name(), s.Type()))
}

func (s *Section) Header() Shdr {
	return s.shdr
}

func (s *Section) NameHandle() uint32 {
	return s.shdr.Name
}

func (s *Section) Name() string {
	return s.file.SHString(s.shdr.Name)
}

func (s *Section) Type() SectionType {
	return SectionType(s.shdr.Type)
}

func (s *Section) Flags() uint32 {
	return s.shdr.Flags
}

func (s *Section) SetFlags(flags uint32) {
	s.shdr.Flags = flags
}

func (s *Section) Addr() uint32 {
	return s.shdr.Addr
}

func (s *Section) SetAddr(addr uint32) {
	s.shdr.Addr = addr
}

func (s *Section) Offset() uint32 {
	return s.shdr.Offset
}

func (s *Section) Size() uint32 {
	return s.shdr.Size
}

// SetSize is only meaningful for NOBITS sections; every other type
// derives its size from the body.
func (s *Section) SetSize(size uint32) {
	s.mustBe(SectionNoBits)
	s.shdr.Size = size
}

func (s *Section) Link() uint32 {
	return s.shdr.Link
}

func (s *Section) Info() uint32 {
	return s.shdr.Info
}

func (s *Section) AddrAlign() uint32 {
	return s.shdr.AddrAlign
}

func (s *Section) SetAddrAlign(align uint32) {
	s.shdr.AddrAlign = align
}

func (s *Section) EntSize() uint32 {
	return s.shdr.EntSize
}

func (s *Section) LinkedSection() *Section {
	if s.linkSec != nil {
		return s.linkSec
	}
	if s.shdr.Link == 0 {
		return nil
	}
	return s.file.Section(int(s.shdr.Link))
}

func (s *Section) SetLinkedSection(link *Section) {
	s.linkSec = link
	s.shdr.Link = uint32(max(s.file.SectionIndex(link), 0))
}

func (s *Section) InfoSection() *Section {
	if s.infoSec != nil {
		return s.infoSec
	}
	if s.shdr.Info == 0 {
		return nil
	}
	return s.file.Section(int(s.shdr.Info))
}

func (s *Section) SetInfoSection(info *Section) {
	s.infoSec = info
	s.shdr.Info = uint32(max(s.file.SectionIndex(info), 0))
}

func (s *Section) Body() []byte {
	return s.body
}

func (s *Section) SetBody(body []byte) {
	s.body = append([]byte(nil), body...)
	s.shdr.Size = uint32(len(s.body))
}

// --------------------------------------------
// Symbols
// --------------------------------------------

func (s *Section) NumSymbols() int {
	s.mustBe(SectionSymTab)
	return len(s.symbols)
}

func (s *Section) Symbols() []*Symbol {
	s.mustBe(SectionSymTab)
	return s.symbols
}

func (s *Section) Symbol(idx int) *Symbol {
	s.mustBe(SectionSymTab)
	return s.symbols[idx]
}

// SymbolByAddress returns the first non-null symbol whose value equals
// addr. The scan is linear.
func (s *Section) SymbolByAddress(addr uint32) *Symbol {
	s.mustBe(SectionSymTab)
	for _, sym := range s.symbols[min(1, len(s.symbols)):] {
		if sym.Value == addr {
			return sym
		}
	}
	return nil
}

func (s *Section) AddSymbol(sym *Symbol) {
	s.mustBe(SectionSymTab)
	s.symbols = append(s.symbols, sym)
}

func (s *Section) IndexOfSymbol(sym *Symbol) int {
	s.mustBe(SectionSymTab)
	for i, other := range s.symbols {
		if other == sym {
			return i
		}
	}
	return -1
}

// --------------------------------------------
// Relocations
// --------------------------------------------

func (s *Section) NumRelocs() int {
	s.mustBe(SectionRel, SectionRela)
	return len(s.relocs)
}

func (s *Section) Relocs() []*Reloc {
	s.mustBe(SectionRel, SectionRela)
	return s.relocs
}

func (s *Section) Reloc(idx int) *Reloc {
	s.mustBe(SectionRel, SectionRela)
	return s.relocs[idx]
}

func (s *Section) AddReloc(r *Reloc) {
	s.mustBe(SectionRel, SectionRela)
	r.table = s
	s.relocs = append(s.relocs, r)
}

func (s *Section) AddAbsReloc(sym *Symbol, offset uint32) {
	s.mustBe(SectionRel)
	s.AddReloc(NewReloc(RelocAbs32, sym, offset))
}

func (s *Section) AddPCRelReloc(sym *Symbol, offset uint32) {
	s.mustBe(SectionRel)
	s.AddReloc(NewReloc(RelocPC32, sym, offset))
}

// --------------------------------------------
// Strings
// --------------------------------------------

func (s *Section) StrTab() *StrTab {
	s.mustBe(SectionStrTab)
	return s.strtab
}

func (s *Section) AddString(str string) uint32 {
	s.mustBe(SectionStrTab)
	return s.strtab.Add(str)
}

func (s *Section) FindString(str string) (uint32, bool) {
	s.mustBe(SectionStrTab)
	return s.strtab.Find(str)
}

func (s *Section) String(h uint32) string {
	s.mustBe(SectionStrTab)
	return s.strtab.Get(h)
}

// --------------------------------------------
// Body interpretation
// --------------------------------------------

func (s *Section) entryCount(minSize uint32) (int, error) {
	if s.shdr.Size == 0 {
		return 0, nil
	}
	if s.shdr.EntSize < minSize {
		return 0, fmt.Errorf("%w: section %d has entry size %d", ErrMalformed,
			s.file.SectionIndex(s), s.shdr.EntSize)
	}
	return int(s.shdr.Size / s.shdr.EntSize), nil
}

// interpret builds the structured view of a freshly loaded body.
func (s *Section) interpret() error {
	switch s.Type() {
	case SectionSymTab:
		n, err := s.entryCount(SymSize)
		if err != nil {
			return err
		}
		s.symbols = make([]*Symbol, 0, n)
		for i := 0; i < n; i++ {
			esym := utils.Read[Sym](s.body[i*int(s.shdr.EntSize):])
			s.symbols = append(s.symbols, newSymbolFromRecord(s.file, &esym))
		}
	case SectionRel:
		n, err := s.entryCount(RelSize)
		if err != nil {
			return err
		}
		s.relocs = make([]*Reloc, 0, n)
		for i := 0; i < n; i++ {
			rel := utils.Read[Rel](s.body[i*int(s.shdr.EntSize):])
			s.relocs = append(s.relocs, newRelocFromInfo(s, rel.Offset, rel.Info, 0))
		}
	case SectionRela:
		n, err := s.entryCount(RelaSize)
		if err != nil {
			return err
		}
		s.relocs = make([]*Reloc, 0, n)
		for i := 0; i < n; i++ {
			rela := utils.Read[Rela](s.body[i*int(s.shdr.EntSize):])
			s.relocs = append(s.relocs, newRelocFromInfo(s, rela.Offset, rela.Info, rela.Addend))
		}
	case SectionStrTab:
		s.strtab = ParseStrTab(s.body)
	}
	return nil
}

// prepare re-derives the body of table sections from their structured
// form, refreshes Link/Info and returns the number of body bytes the
// section occupies in the file.
func (s *Section) prepare() (int, error) {
	if s.linkSec != nil {
		s.shdr.Link = uint32(max(s.file.SectionIndex(s.linkSec), 0))
	}
	if s.infoSec != nil {
		s.shdr.Info = uint32(max(s.file.SectionIndex(s.infoSec), 0))
	}

	switch s.Type() {
	case SectionSymTab:
		s.prepareSymTab()
	case SectionStrTab:
		s.body = s.strtab.ToBytes()
		s.shdr.Size = uint32(len(s.body))
	case SectionRel, SectionRela:
		if err := s.prepareRelTab(); err != nil {
			return 0, err
		}
	case SectionNoBits:
		return 0, nil
	}
	return len(s.body), nil
}

func (s *Section) prepareSymTab() {
	s.shdr.EntSize = SymSize
	s.shdr.Size = s.shdr.EntSize * uint32(len(s.symbols))

	firstGlobal := len(s.symbols)
	buf := &bytes.Buffer{}
	rec := make([]byte, SymSize)
	for i, sym := range s.symbols {
		if i > 0 && sym.Bind() != BindLocal && firstGlobal == len(s.symbols) {
			firstGlobal = i
		}
		utils.Write(rec, sym.record())
		buf.Write(rec)
	}
	s.shdr.Info = uint32(firstGlobal)
	s.body = buf.Bytes()
}

func (s *Section) prepareRelTab() error {
	entSize := uint32(RelSize)
	if s.Type() == SectionRela {
		entSize = RelaSize
	}
	s.shdr.EntSize = entSize
	s.shdr.Size = entSize * uint32(len(s.relocs))

	symtab := s.LinkedSection()
	var index map[*Symbol]int
	if symtab != nil && symtab.Type() == SectionSymTab {
		index = make(map[*Symbol]int, len(symtab.symbols))
		for i, sym := range symtab.symbols {
			if _, ok := index[sym]; !ok {
				index[sym] = i
			}
		}
	}

	buf := &bytes.Buffer{}
	rec := make([]byte, entSize)
	for _, r := range s.relocs {
		symIdx := r.symIdx
		if r.sym != nil {
			idx, ok := index[r.sym]
			if !ok {
				return fmt.Errorf("%s: relocation at %#x refers to symbol %q outside the linked symbol table",
					s.Name(), r.Offset, r.sym.Name())
			}
			symIdx = uint32(idx)
		}

		info := relocInfo(symIdx, r.Type)
		if s.Type() == SectionRela {
			utils.Write(rec, Rela{Offset: r.Offset, Info: info, Addend: r.Addend})
		} else {
			utils.Write(rec, Rel{Offset: r.Offset, Info: info})
		}
		buf.Write(rec)
	}
	s.body = buf.Bytes()
	return nil
}
