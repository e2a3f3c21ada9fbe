package elf32

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// Dump writes a readable listing of the header, sections, symbols and
// relocations.
func (f *File) Dump(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "----- Elf Header -----")
	fmt.Fprintf(tw, "type\t%s\n", f.Kind)
	fmt.Fprintf(tw, "machine\t%#x\n", f.Machine)
	fmt.Fprintf(tw, "version\t%#x\n", f.Version)
	fmt.Fprintf(tw, "entry\t%#x\n", f.Entry)
	fmt.Fprintf(tw, "shnum\t%d\n", len(f.sections))
	fmt.Fprintf(tw, "shoff\t%#x\n", f.shoff)
	fmt.Fprintf(tw, "shstrndx\t%d\n", f.shstrndx)

	fmt.Fprintln(tw, "\n----- Sections -----")
	fmt.Fprintln(tw, "idx\tname\ttype\tflags\taddr\toffset\tsize\tlink\tinfo\talign\tentsize")
	for i := 1; i < len(f.sections); i++ {
		s := f.sections[i]
		h := s.shdr
		fmt.Fprintf(tw, "%d\t%s\t%s\t%#x\t%#x\t%#x\t%#x\t%d\t%d\t%d\t%d\n",
			i, s.Name(), s.Type(), h.Flags, h.Addr, h.Offset, h.Size,
			h.Link, h.Info, h.AddrAlign, h.EntSize)
	}

	if symtab := f.SymTab(); symtab != nil {
		fmt.Fprintln(tw, "\n----- Symbols -----")
		fmt.Fprintln(tw, "idx\tvalue\tsize\tbind\ttype\tshndx\tname")
		for i, sym := range symtab.symbols {
			fmt.Fprintf(tw, "%d\t%#x\t%d\t%s\t%s\t%s\t%s\n",
				i, sym.Value, sym.Size, sym.Bind(), sym.Type(),
				shndxName(sym.SectionIndex()), sym.Name())
		}
	}

	for i := 1; i < len(f.sections); i++ {
		s := f.sections[i]
		if s.Type() != SectionRel && s.Type() != SectionRela {
			continue
		}
		fmt.Fprintf(tw, "\n----- Relocations (%s) -----\n", s.Name())
		fmt.Fprintln(tw, "offset\ttype\taddend\tsymbol")
		for _, r := range s.relocs {
			name := "?"
			if sym := r.Symbol(); sym != nil {
				name = sym.Name()
			}
			fmt.Fprintf(tw, "%#x\t%s\t%d\t%s\n", r.Offset, r.Type, r.Addend, name)
		}
	}

	return tw.Flush()
}

func shndxName(shndx uint16) string {
	switch shndx {
	case ShnUndef:
		return "UND"
	case ShnAbs:
		return "ABS"
	case ShnCommon:
		return "COM"
	}
	return fmt.Sprint(shndx)
}
