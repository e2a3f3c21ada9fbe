package linker

import (
	"fmt"
	"testing"

	"github.com/ksco/bootld/pkg/elf32"
	"github.com/stretchr/testify/require"
)

type def struct {
	name   string
	value  uint32
	global bool
}

type rel struct {
	typ    elf32.RelocType
	name   string
	offset uint32
}

// buildObject serializes a relocatable object whose .text is text. Names
// referenced by relocs but not defined become undefined globals; the
// empty name stands for the module-relative sentinel symbol.
func buildObject(t *testing.T, text []byte, defs []def, rels ...rel) []byte {
	t.Helper()

	f := elf32.NewRelocatable()
	f.Text().SetBody(text)

	syms := make(map[string]*elf32.Symbol)
	for _, d := range defs {
		sym := elf32.NewSymbol(f, d.name, d.value, f.Text())
		if d.global {
			sym.SetBind(elf32.BindGlobal)
		}
		syms[d.name] = sym
		f.AddSymbol(sym)
	}
	for _, r := range rels {
		if _, ok := syms[r.name]; ok {
			continue
		}
		var sym *elf32.Symbol
		if r.name == "" {
			sym = elf32.NewSymbol(f, "", 0, f.Text())
			sym.SetType(elf32.SymSection)
		} else {
			sym = elf32.NewSymbol(f, r.name, 0, nil)
			sym.SetBind(elf32.BindGlobal)
		}
		syms[r.name] = sym
		f.AddSymbol(sym)
	}
	for _, r := range rels {
		f.RelText().AddReloc(elf32.NewReloc(r.typ, syms[r.name], r.offset))
	}

	data, err := f.Bytes()
	require.NoError(t, err)
	return data
}

func parseObject(t *testing.T, data []byte) *elf32.File {
	t.Helper()
	f, err := elf32.Parse(data)
	require.NoError(t, err)
	return f
}

func filler(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = 0x90
	}
	return b
}

// arMember encodes one SysV archive member, padded to an even length.
func arMember(name string, body []byte) []byte {
	hdr := fmt.Sprintf("%-16s%-12s%-6s%-6s%-8s%-10d`\n", name, "0", "0", "0", "644", len(body))
	out := append([]byte(hdr), body...)
	if len(out)%2 == 1 {
		out = append(out, '\n')
	}
	return out
}

func archive(members ...[]byte) []byte {
	out := []byte(arMagic)
	for _, m := range members {
		out = append(out, m...)
	}
	return out
}
