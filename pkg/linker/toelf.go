package linker

import (
	"github.com/ksco/bootld/pkg/codebuf"
	"github.com/ksco/bootld/pkg/elf32"
)

// Stream is generated code together with the references it uses.
type Stream interface {
	Bytes() []byte
	Refs() []*codebuf.Ref
}

// ToElf turns generated code into a relocatable object. Resolved
// references become symbols defined in .text; unresolved ones become
// undefined symbols with one relocation per waiting field. Streams meant
// for ToElf are normally built with load base 0, since resolved
// absolute fields carry no relocation.
func ToElf(stream Stream) *elf32.File {
	f := elf32.NewRelocatable()
	text := f.Text()
	text.SetBody(stream.Bytes())
	relText := f.RelText()

	var locals, globals []*elf32.Symbol
	for _, ref := range stream.Refs() {
		var sym *elf32.Symbol
		if ref.IsResolved() {
			sym = elf32.NewSymbol(f, ref.Name(), uint32(ref.Offset()), text)
		} else {
			sym = elf32.NewSymbol(f, ref.Name(), 0, nil)
			for _, p := range ref.Pending() {
				if p.Kind == codebuf.PatchPC32 {
					relText.AddPCRelReloc(sym, uint32(p.Addr))
				} else {
					relText.AddAbsReloc(sym, uint32(p.Addr))
				}
			}
		}

		if ref.IsPublic() {
			sym.SetBind(elf32.BindGlobal)
			globals = append(globals, sym)
		} else {
			locals = append(locals, sym)
		}
	}

	for _, sym := range locals {
		f.AddSymbol(sym)
	}
	for _, sym := range globals {
		f.AddSymbol(sym)
	}
	return f
}
