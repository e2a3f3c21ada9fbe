package elf32

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSampleObject(t *testing.T) *File {
	t.Helper()

	f := NewRelocatable()
	f.Text().SetBody([]byte{0xe8, 0, 0, 0, 0, 0xb8, 0, 0, 0, 0, 0xc3})

	start := NewSymbol(f, "start", 0, f.Text())
	start.SetBind(BindGlobal)
	start.SetType(SymFunc)
	helper := NewSymbol(f, "helper", 0, nil)
	helper.SetBind(BindGlobal)
	local := NewSymbol(f, "loop", 5, f.Text())

	f.AddSymbol(local)
	f.AddSymbol(start)
	f.AddSymbol(helper)

	f.RelText().AddPCRelReloc(helper, 1)
	f.RelText().AddAbsReloc(local, 6)
	return f
}

func TestRoundTrip(t *testing.T) {
	f := newSampleObject(t)
	first, err := f.Bytes()
	require.NoError(t, err)

	parsed, err := Parse(first)
	require.NoError(t, err)
	second, err := parsed.Bytes()
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRoundTripEmpty(t *testing.T) {
	first, err := NewRelocatable().Bytes()
	require.NoError(t, err)

	parsed, err := Parse(first)
	require.NoError(t, err)
	second, err := parsed.Bytes()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 9, parsed.NumSections())
	assert.Equal(t, 1, parsed.NumSymbols())
}

func TestParsedStructure(t *testing.T) {
	data, err := newSampleObject(t).Bytes()
	require.NoError(t, err)

	f, err := Parse(data)
	require.NoError(t, err)

	assert.True(t, f.IsRel())
	require.NotNil(t, f.Text())
	require.NotNil(t, f.RelText())
	assert.Equal(t, ".text", f.Text().Name())
	assert.Equal(t, 11, len(f.Text().Body()))
	assert.Equal(t, uint32(11), f.Text().Size())

	require.Equal(t, 4, f.NumSymbols())
	null := f.Symbol(0)
	assert.Equal(t, "", null.Name())
	assert.True(t, null.IsUndefined())

	loop := f.Symbol(1)
	assert.Equal(t, "loop", loop.Name())
	assert.Equal(t, uint32(5), loop.Value)
	assert.Same(t, f.Text(), loop.Section())
	assert.Equal(t, BindLocal, loop.Bind())

	start := f.Symbol(2)
	assert.Equal(t, "start", start.Name())
	assert.Equal(t, BindGlobal, start.Bind())
	assert.Equal(t, SymFunc, start.Type())

	helper := f.Symbol(3)
	assert.Equal(t, "helper", helper.Name())
	assert.True(t, helper.IsUndefined())

	assert.Equal(t, uint32(2), f.SymTab().Info(), "first non-local symbol")

	relocs := f.RelText().Relocs()
	require.Len(t, relocs, 2)
	assert.Equal(t, uint32(1), relocs[0].Offset)
	assert.Equal(t, RelocPC32, relocs[0].Type)
	assert.Equal(t, uint32(3), relocs[0].StoredSymbolIndex())
	assert.Same(t, helper, relocs[0].Symbol())
	assert.Equal(t, RelocAbs32, relocs[1].Type)
	assert.Same(t, loop, relocs[1].Symbol())
}

func TestLayoutAlignment(t *testing.T) {
	f := newSampleObject(t)
	l, err := f.Layout()
	require.NoError(t, err)

	for i := 1; i < f.NumSections(); i++ {
		assert.Zero(t, f.Section(i).Offset()%Align, "section %d", i)
	}
	assert.Equal(t, uint32(EhdrSizeExt), f.Section(1).Offset())
	assert.Zero(t, l.shoff%Align)

	text := f.Text()
	data := f.Data()
	assert.Equal(t, uint32(11), text.Size(), "padding is not counted in size")
	assert.Equal(t, text.Offset()+12, data.Offset())

	var buf bytes.Buffer
	n, err := l.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, l.Size(), n)
	assert.Equal(t, int64(buf.Len()), n)
}

func TestLayoutInconsistency(t *testing.T) {
	f := newSampleObject(t)
	l, err := f.Layout()
	require.NoError(t, err)

	l.offsets[4] += Align
	_, err = l.WriteTo(&bytes.Buffer{})
	assert.True(t, errors.Is(err, ErrLayoutInconsistency))
}

func TestRelocIndexFollowsSymbolOrder(t *testing.T) {
	f := newSampleObject(t)

	data, err := f.Bytes()
	require.NoError(t, err)
	parsed, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), parsed.RelText().Reloc(0).StoredSymbolIndex())

	syms := f.SymTab().Symbols()
	syms[1], syms[3] = syms[3], syms[1]

	data, err = f.Bytes()
	require.NoError(t, err)
	parsed, err = Parse(data)
	require.NoError(t, err)

	r := parsed.RelText().Reloc(0)
	assert.Equal(t, uint32(1), r.StoredSymbolIndex())
	assert.Equal(t, "helper", r.Symbol().Name())
	assert.Equal(t, "loop", parsed.RelText().Reloc(1).Symbol().Name())

	// The same holds for a container read from bytes.
	syms = parsed.SymTab().Symbols()
	syms[1], syms[3] = syms[3], syms[1]

	data, err = parsed.Bytes()
	require.NoError(t, err)
	reparsed, err := Parse(data)
	require.NoError(t, err)

	r = reparsed.RelText().Reloc(0)
	assert.Equal(t, uint32(3), r.StoredSymbolIndex())
	assert.Equal(t, "helper", r.Symbol().Name())
	r = reparsed.RelText().Reloc(1)
	assert.Equal(t, uint32(1), r.StoredSymbolIndex())
	assert.Equal(t, "loop", r.Symbol().Name())
}

func TestRelocAgainstForeignSymbol(t *testing.T) {
	f := NewRelocatable()
	f.RelText().AddAbsReloc(NewSymbol(f, "stray", 0, nil), 0)
	_, err := f.Bytes()
	assert.Error(t, err)
}

func TestRelaRoundTrip(t *testing.T) {
	f := NewRelocatable()
	f.Data().SetBody(make([]byte, 8))
	sym := NewSymbol(f, "table", 0, nil)
	f.AddSymbol(sym)

	rela := NewSection(f, SectionRela, ".rela.data", FlagAlloc)
	rela.SetLinkedSection(f.SymTab())
	rela.SetInfoSection(f.Data())
	f.AddSection(rela)
	r := NewReloc(RelocAbs32, sym, 4)
	r.Addend = -4
	rela.AddReloc(r)

	data, err := f.Bytes()
	require.NoError(t, err)
	parsed, err := Parse(data)
	require.NoError(t, err)

	got := parsed.SectionByName(".rela.data")
	require.NotNil(t, got)
	assert.Equal(t, uint32(RelaSize), got.EntSize())
	assert.Equal(t, uint32(5), got.Info())
	require.Equal(t, 1, got.NumRelocs())
	assert.Equal(t, int32(-4), got.Reloc(0).Addend)
	assert.Equal(t, "table", got.Reloc(0).Symbol().Name())

	again, err := parsed.Bytes()
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestReadableByDebugElf(t *testing.T) {
	data, err := newSampleObject(t).Bytes()
	require.NoError(t, err)

	ef, err := elf.NewFile(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, elf.ELFCLASS32, ef.Class)
	assert.Equal(t, elf.ELFDATA2LSB, ef.Data)
	assert.Equal(t, elf.EM_386, ef.Machine)
	assert.Equal(t, elf.ET_REL, ef.Type)

	text := ef.Section(".text")
	require.NotNil(t, text)
	body, err := text.Data()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xe8, 0, 0, 0, 0, 0xb8, 0, 0, 0, 0, 0xc3}, body)

	syms, err := ef.Symbols()
	require.NoError(t, err)
	require.Len(t, syms, 3)
	assert.Equal(t, "loop", syms[0].Name)
	assert.Equal(t, "start", syms[1].Name)
	assert.Equal(t, elf.STB_GLOBAL, elf.ST_BIND(syms[1].Info))
	assert.Equal(t, "helper", syms[2].Name)
	assert.Equal(t, elf.SHN_UNDEF, syms[2].Section)

	rel := ef.Section(".rel.text")
	require.NotNil(t, rel)
	relData, err := rel.Data()
	require.NoError(t, err)
	require.Len(t, relData, 2*RelSize)
	info := binary.LittleEndian.Uint32(relData[4:])
	assert.Equal(t, elf.R_386_PC32, elf.R_386(elf.R_TYPE32(info)))
	assert.Equal(t, uint32(3), elf.R_SYM32(info))
}

func TestParseRejects(t *testing.T) {
	good, err := NewRelocatable().Bytes()
	require.NoError(t, err)

	mutate := func(fn func(b []byte)) []byte {
		b := append([]byte(nil), good...)
		fn(b)
		return b
	}

	cases := map[string][]byte{
		"too small": good[:20],
		"bad magic": mutate(func(b []byte) { b[1] = 'X' }),
		"64-bit":    mutate(func(b []byte) { b[elf.EI_CLASS] = byte(elf.ELFCLASS64) }),
		"big endian": mutate(func(b []byte) {
			b[elf.EI_DATA] = byte(elf.ELFDATA2MSB)
		}),
		"x86-64 machine": mutate(func(b []byte) {
			binary.LittleEndian.PutUint16(b[18:], uint16(elf.EM_X86_64))
		}),
		"section headers out of range": mutate(func(b []byte) {
			binary.LittleEndian.PutUint32(b[32:], uint32(len(b)))
		}),
	}

	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(data)
			assert.True(t, errors.Is(err, ErrMalformed), "got %v", err)
		})
	}
}

func TestDump(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newSampleObject(t).Dump(&buf))
	out := buf.String()
	assert.Contains(t, out, ".rel.text")
	assert.Contains(t, out, "helper")
	assert.Contains(t, out, "R_386_PC32")
}

func TestSectionAttributesRoundTrip(t *testing.T) {
	f := newSampleObject(t)
	data := f.Data()
	data.SetBody([]byte{1, 2, 3, 4})
	data.SetAddr(0x8000)
	data.SetAddrAlign(16)
	data.SetFlags(FlagAlloc)

	out, err := f.Bytes()
	require.NoError(t, err)

	parsed, err := Parse(out)
	require.NoError(t, err)
	pd := parsed.Data()
	assert.Equal(t, uint32(0x8000), pd.Addr())
	assert.Equal(t, uint32(16), pd.AddrAlign())
	assert.Equal(t, FlagAlloc, pd.Flags())

	ef, err := elf.NewFile(bytes.NewReader(out))
	require.NoError(t, err)
	sec := ef.Section(".data")
	require.NotNil(t, sec)
	assert.Equal(t, uint64(0x8000), sec.Addr)
	assert.Equal(t, uint64(16), sec.Addralign)
	assert.Equal(t, elf.SHF_ALLOC, sec.Flags)
}

func TestNameHandles(t *testing.T) {
	f := newSampleObject(t)

	h, ok := f.StrTab().FindString("start")
	require.True(t, ok)
	start := f.SymTab().Symbol(2)
	assert.Equal(t, h, start.NameHandle())
	assert.Equal(t, "start", f.String(start.NameHandle()))

	_, ok = f.StrTab().FindString("nowhere")
	assert.False(t, ok)

	text := f.Text()
	assert.Equal(t, ".text", f.SHString(text.NameHandle()))
	h, ok = f.ShStrTab().FindString(".text")
	require.True(t, ok)
	assert.Equal(t, h, text.NameHandle())
}
