package linker

import (
	"errors"
	"fmt"
	"math"

	"github.com/ksco/bootld/pkg/codebuf"
	"github.com/ksco/bootld/pkg/elf32"
	"github.com/ksco/bootld/pkg/utils"
)

// Buffer is the image being assembled. Its reference directory is
// shared by every module linked into it.
type Buffer interface {
	Len() int
	Append(p []byte)
	Word(addr int) int32
	SetWord(addr int, v int32)
	Lookup(name string) *codebuf.Ref
	Find(name string) (*codebuf.Ref, bool)
}

// Module records where one linked object landed in the image.
type Module struct {
	Name  string
	Start int
	Size  int
}

// Linker appends relocatable objects to a Buffer one at a time. Symbols
// an object leaves undefined stay pending in the buffer's directory and
// are patched as soon as a later object defines them.
type Linker struct {
	buf  Buffer
	base uint32

	// Report receives problems that do not stop the link.
	Report func(err error)
}

func NewLinker(buf Buffer, base uint32) *Linker {
	return &Linker{
		buf:  buf,
		base: base,
		Report: func(err error) {
			utils.Warn(err)
		},
	}
}

func (l *Linker) Base() uint32 {
	return l.base
}

// Link appends the .text section of f to the buffer, registers its
// symbols and applies or queues its .rel.text relocations. Linking the
// same object twice appends it twice.
func (l *Linker) Link(name string, f *elf32.File) (*Module, error) {
	if !f.IsRel() {
		return nil, fmt.Errorf("%s: %w (type %s)", name, ErrNotRelocatable, f.Kind)
	}
	text := f.Text()
	if text == nil {
		return nil, fmt.Errorf("%s: %w: .text", name, ErrMissingSection)
	}

	start := l.buf.Len()
	l.buf.Append(text.Body())
	mod := &Module{Name: name, Start: start, Size: len(text.Body())}

	var rels []*elf32.Reloc
	if relText := f.RelText(); relText != nil {
		rels = relText.Relocs()
	}

	// Reject the object before anything beyond the text append touches
	// the buffer; registering symbols may drain patches of earlier
	// modules.
	for _, r := range rels {
		if err := l.checkReloc(name, text, r); err != nil {
			return nil, err
		}
	}
	if err := l.checkSymbols(name, f, start); err != nil {
		return nil, err
	}

	if err := l.registerSymbols(name, f, start); err != nil {
		return nil, err
	}

	for _, r := range rels {
		l.applyReloc(r, start)
	}
	return mod, nil
}

func (l *Linker) checkReloc(name string, text *elf32.Section, r *elf32.Reloc) error {
	if r.Type != elf32.RelocAbs32 && r.Type != elf32.RelocPC32 {
		return fmt.Errorf("%s: %w: %s at %#x", name, ErrUnsupportedRelocation, r.Type, r.Offset)
	}
	if uint64(r.Offset)+4 > uint64(len(text.Body())) {
		return fmt.Errorf("%s: %w: relocation at %#x is outside .text", name, elf32.ErrMalformed, r.Offset)
	}

	sym := r.Symbol()
	if sym == nil {
		return fmt.Errorf("%s: %w: relocation at %#x has bad symbol index %d",
			name, elf32.ErrMalformed, r.Offset, r.StoredSymbolIndex())
	}
	if r.Type == elf32.RelocPC32 && sym.Name() == "" && sym.Section() != text {
		return fmt.Errorf("%s: %w: %s at %#x against an unnamed symbol outside .text",
			name, ErrUnsupportedRelocation, r.Type, r.Offset)
	}
	return nil
}

// linkedSymbols returns the symbols that take part in linking: named
// ones, without file and section symbols or the null entry.
func linkedSymbols(f *elf32.File) []*elf32.Symbol {
	symtab := f.SymTab()
	if symtab == nil || symtab.NumSymbols() == 0 {
		return nil
	}
	var syms []*elf32.Symbol
	for _, sym := range symtab.Symbols()[1:] {
		if sym.Name() == "" || sym.Type() == elf32.SymFile || sym.Type() == elf32.SymSection {
			continue
		}
		syms = append(syms, sym)
	}
	return syms
}

// checkSymbols rejects text definitions that cannot be registered:
// values past the end of .text, offsets beyond the image range and names
// that are already defined.
func (l *Linker) checkSymbols(name string, f *elf32.File, start int) error {
	text := f.Text()
	seen := utils.NewMapSet[string]()

	for _, sym := range linkedSymbols(f) {
		if sym.IsUndefined() || sym.Section() != text {
			continue
		}

		symName := sym.Name()
		if uint64(sym.Value) > uint64(len(text.Body())) {
			return fmt.Errorf("%s: %w: %q at %#x is outside .text", name, elf32.ErrMalformed, symName, sym.Value)
		}
		if int64(start)+int64(sym.Value) > math.MaxInt32 {
			return fmt.Errorf("%s: %w: %q at %#x is beyond the image range", name, elf32.ErrMalformed, symName, sym.Value)
		}

		ref, ok := l.buf.Find(symName)
		if seen.Contains(symName) || (ok && ref.IsResolved()) {
			return fmt.Errorf("%s: %w: %w: %q", name, ErrDuplicateSymbol, codebuf.ErrDuplicate, symName)
		}
		seen.Add(symName)
	}
	return nil
}

func (l *Linker) registerSymbols(name string, f *elf32.File, start int) error {
	text := f.Text()

	for _, sym := range linkedSymbols(f) {
		symName := sym.Name()
		if sym.IsUndefined() {
			l.buf.Lookup(symName)
			continue
		}

		if sym.Section() != text {
			where := "absolute"
			if sym.IsCommon() {
				where = "common"
			} else if sec := sym.Section(); sec != nil {
				where = sec.Name()
			}
			l.Report(fmt.Errorf("%s: %w: %q in %s", name, ErrUnsupportedSymbolSection, symName, where))
			continue
		}

		ref := l.buf.Lookup(symName)
		if sym.Bind() == elf32.BindGlobal {
			ref.MarkPublic()
		}
		if err := ref.SetOffset(int32(sym.Value) + int32(start)); err != nil {
			if errors.Is(err, codebuf.ErrDuplicate) {
				return fmt.Errorf("%s: %w: %w", name, ErrDuplicateSymbol, err)
			}
			return fmt.Errorf("%s: %w: %w", name, elf32.ErrMalformed, err)
		}
	}
	return nil
}

func (l *Linker) applyReloc(r *elf32.Reloc, start int) {
	addr := start + int(r.Offset)
	sym := r.Symbol()
	utils.Assert(sym != nil)
	base := int32(l.base)

	if sym.Name() == "" {
		if r.Type == elf32.RelocAbs32 {
			// The field holds an offset relative to this module.
			l.buf.SetWord(addr, l.buf.Word(addr)+int32(start)+base)
		} else {
			// S + A - P with S inside this module's own text.
			l.buf.SetWord(addr, l.buf.Word(addr)+int32(start)+int32(sym.Value)-int32(addr))
		}
		return
	}

	ref := l.buf.Lookup(sym.Name())
	if ref.IsResolved() {
		if r.Type == elf32.RelocPC32 {
			l.buf.SetWord(addr, ref.Offset()-int32(addr+4))
		} else {
			l.buf.SetWord(addr, ref.Offset()+base)
		}
		return
	}

	if r.Type == elf32.RelocPC32 {
		ref.AddPendingPatch(addr, codebuf.PatchPC32)
	} else {
		// Resolution stores offset minus this value.
		l.buf.SetWord(addr, -base)
		ref.AddPendingPatch(addr, codebuf.PatchAbs32)
	}
}
