package elf32

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStrTabAdd(t *testing.T) {
	st := NewStrTab()
	assert.Equal(t, uint32(0), st.Add(""), "empty string is handle 0")

	foo := st.Add("foo")
	assert.Equal(t, uint32(1), foo)
	assert.Equal(t, foo, st.Add("foo"), "duplicate returns existing handle")

	bar := st.Add("bar")
	assert.Equal(t, uint32(5), bar)
	assert.Equal(t, "foo", st.Get(foo))
	assert.Equal(t, "bar", st.Get(bar))
	assert.Equal(t, []byte("\x00foo\x00bar\x00"), st.ToBytes())

	h, ok := st.Find("bar")
	assert.True(t, ok)
	assert.Equal(t, bar, h)
	_, ok = st.Find("baz")
	assert.False(t, ok)
}

func TestStrTabGetAfterAdd(t *testing.T) {
	st := NewStrTab()
	for _, s := range []string{"a", "main", ".text", "", "main", "vm_start", "a"} {
		h := st.Add(s)
		assert.Equal(t, s, st.Get(h))
		assert.Equal(t, h, st.Add(s))
	}
}

func TestParseStrTab(t *testing.T) {
	blob := []byte("\x00.text\x00.rel.text\x00")
	st := ParseStrTab(blob)

	h, ok := st.Find(".text")
	assert.True(t, ok)
	assert.Equal(t, uint32(1), h)

	h, ok = st.Find(".rel.text")
	assert.True(t, ok)
	assert.Equal(t, uint32(7), h)

	assert.Equal(t, ".text", st.Get(11), "handles may point into a longer string")
	assert.Equal(t, "", st.Get(0))
	assert.Equal(t, uint32(1), st.Add(".text"))
	assert.Equal(t, blob, st.ToBytes())

	assert.Equal(t, uint32(len(blob)), st.Add(".data"), "new strings go past the current extent")
	assert.Equal(t, ".data", st.Get(uint32(len(blob))))
}

func TestParseStrTabUnterminated(t *testing.T) {
	st := ParseStrTab([]byte("\x00abc"))
	assert.Equal(t, "abc", st.Get(1))
	assert.Equal(t, []byte("\x00abc\x00"), st.ToBytes())
}

func TestParseStrTabEmpty(t *testing.T) {
	st := ParseStrTab(nil)
	assert.Equal(t, 0, st.Len())
	assert.Equal(t, uint32(1), st.Add("x"))
	assert.Equal(t, []byte("\x00x\x00"), st.ToBytes())
}
