package codebuf

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndWords(t *testing.T) {
	b := New(0x100000)
	b.Append([]byte{1, 2, 3, 4, 5, 6, 7, 8})
	assert.Equal(t, 8, b.Len())
	assert.Equal(t, int32(0x04030201), b.Word(0))

	b.SetWord(4, -2)
	assert.Equal(t, []byte{1, 2, 3, 4, 0xfe, 0xff, 0xff, 0xff}, b.Bytes())
	assert.Equal(t, int32(-2), b.Word(4))
}

func TestAlign(t *testing.T) {
	b := New(0)
	b.Write8(0x90)
	b.Align(16)
	assert.Equal(t, 16, b.Len())
	b.Align(16)
	assert.Equal(t, 16, b.Len())
	b.Align(0)
	assert.Equal(t, 16, b.Len())
}

func TestForwardPC32(t *testing.T) {
	b := New(0x400000)
	b.Write8(0xe8)
	b.EmitRef("target", PatchPC32)
	ref, ok := b.Find("target")
	require.True(t, ok)
	assert.False(t, ref.IsResolved())
	assert.True(t, ref.IsRelJump())
	assert.Equal(t, []Patch{{Addr: 1, Kind: PatchPC32}}, ref.Pending())

	b.Append(make([]byte, 11))
	require.NoError(t, b.Define("target"))
	assert.True(t, ref.IsResolved())
	assert.Equal(t, int32(16), ref.Offset())
	assert.Equal(t, int32(16-(1+4)), b.Word(1))
	assert.Empty(t, ref.Pending())
}

func TestForwardAbs32(t *testing.T) {
	b := New(0x400000)
	b.EmitRef("data", PatchAbs32)
	assert.Equal(t, int32(-0x400000), b.Word(0))

	b.Append(make([]byte, 4))
	require.NoError(t, b.Define("data"))
	assert.Equal(t, int32(8+0x400000), b.Word(0))
}

func TestBackwardRefs(t *testing.T) {
	b := New(0x1000)
	b.Append(make([]byte, 8))
	require.NoError(t, b.Define("here"))
	b.Append(make([]byte, 4))

	b.EmitRef("here", PatchPC32)
	assert.Equal(t, int32(8-(12+4)), b.Word(12))
	b.EmitRef("here", PatchAbs32)
	assert.Equal(t, int32(8+0x1000), b.Word(16))
}

func TestDuplicateDefinition(t *testing.T) {
	b := New(0)
	require.NoError(t, b.Lookup("foo").SetOffset(4))
	err := b.Lookup("foo").SetOffset(8)
	assert.True(t, errors.Is(err, ErrDuplicate))
	assert.Equal(t, int32(4), b.Lookup("foo").Offset())

	require.NoError(t, b.Lookup("").SetOffset(0))
	assert.NoError(t, b.Lookup("").SetOffset(16), "the unnamed reference keeps its first offset")
	assert.Equal(t, int32(0), b.Lookup("").Offset())

	assert.Error(t, b.Lookup("neg").SetOffset(-1))
}

func TestDirectory(t *testing.T) {
	b := New(0)
	b.Lookup("zeta")
	b.Lookup("alpha").MarkPublic()
	require.NoError(t, b.Lookup("mid").SetOffset(0))

	assert.Same(t, b.Lookup("alpha"), b.Lookup("alpha"))
	assert.True(t, b.Lookup("alpha").IsPublic())
	assert.False(t, b.Lookup("zeta").IsPublic())
	assert.Equal(t, []string{"alpha", "zeta"}, b.Unresolved())

	names := []string{}
	for _, ref := range b.Refs() {
		names = append(names, ref.Name())
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, names, "creation order")

	_, ok := b.Find("missing")
	assert.False(t, ok)
}
