package elf32

// Symbol is one entry of a symbol table section. It refers back to its
// container for name and section lookups.
type Symbol struct {
	file *File

	name  uint32
	Value uint32
	Size  uint32
	info  uint8
	Other uint8

	// A symbol built in memory points at its section directly; a parsed
	// one only knows the stored index. The pointer wins when both are set.
	shndx   uint16
	section *Section
}

// NewSymbol creates a NOTYPE, LOCAL symbol. A nil section leaves the
// symbol undefined.
func NewSymbol(f *File, name string, value uint32, section *Section) *Symbol {
	s := &Symbol{
		file:    f,
		Value:   value,
		shndx:   ShnUndef,
		section: section,
	}
	if name != "" {
		s.name = f.AddString(name)
	}
	return s
}

func newSymbolFromRecord(f *File, esym *Sym) *Symbol {
	return &Symbol{
		file:  f,
		name:  esym.Name,
		Value: esym.Val,
		Size:  esym.Size,
		info:  esym.Info,
		Other: esym.Other,
		shndx: esym.Shndx,
	}
}

func (s *Symbol) record() Sym {
	return Sym{
		Name:  s.name,
		Val:   s.Value,
		Size:  s.Size,
		Info:  s.info,
		Other: s.Other,
		Shndx: s.SectionIndex(),
	}
}

func (s *Symbol) NameHandle() uint32 {
	return s.name
}

func (s *Symbol) Name() string {
	if s.name == 0 {
		return ""
	}
	return s.file.String(s.name)
}

func (s *Symbol) Bind() Bind {
	return Bind(s.info >> 4)
}

func (s *Symbol) SetBind(bind Bind) {
	s.info = (s.info & 0xf) | (uint8(bind) << 4)
}

func (s *Symbol) Type() SymType {
	return SymType(s.info & 0xf)
}

func (s *Symbol) SetType(typ SymType) {
	s.info = (s.info & 0xf0) | (uint8(typ) & 0xf)
}

// SectionIndex is the value stored in the record's section field: a
// real section index or one of ShnUndef, ShnAbs, ShnCommon.
func (s *Symbol) SectionIndex() uint16 {
	if s.section != nil {
		if idx := s.file.SectionIndex(s.section); idx >= 0 {
			return uint16(idx)
		}
	}
	return s.shndx
}

// Section returns the section the symbol is defined in, or nil for
// undefined, absolute and common symbols.
func (s *Symbol) Section() *Section {
	if s.section != nil {
		return s.section
	}
	if s.shndx == ShnUndef || s.shndx >= uint16(shnLoReserve) {
		return nil
	}
	return s.file.Section(int(s.shndx))
}

func (s *Symbol) SetSection(section *Section) {
	s.section = section
	if section == nil {
		s.shndx = ShnUndef
	}
}

func (s *Symbol) SetAbsolute() {
	s.section = nil
	s.shndx = ShnAbs
}

func (s *Symbol) IsUndefined() bool {
	return s.SectionIndex() == ShnUndef
}

func (s *Symbol) IsDefined() bool {
	return !s.IsUndefined()
}

func (s *Symbol) IsAbsolute() bool {
	return s.SectionIndex() == ShnAbs
}

func (s *Symbol) IsCommon() bool {
	return s.SectionIndex() == ShnCommon
}
