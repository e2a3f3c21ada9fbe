package elf32

import "bytes"

// StrTab interns NUL-terminated strings. A handle is the byte offset of
// the string in the table body; handle 0 is the empty string.
type StrTab struct {
	data  []byte
	index map[string]uint32
}

func NewStrTab() *StrTab {
	return &StrTab{
		data:  []byte{0},
		index: map[string]uint32{"": 0},
	}
}

// ParseStrTab records every NUL-terminated run of data under its
// starting offset. A trailing run without a terminator is kept and
// terminated on the next ToBytes.
func ParseStrTab(data []byte) *StrTab {
	t := &StrTab{
		data:  append([]byte(nil), data...),
		index: make(map[string]uint32),
	}

	offset := 0
	for offset < len(t.data) {
		end := bytes.IndexByte(t.data[offset:], 0)
		if end == -1 {
			t.data = append(t.data, 0)
			end = len(t.data) - 1 - offset
		}
		s := string(t.data[offset : offset+end])
		if _, ok := t.index[s]; !ok {
			t.index[s] = uint32(offset)
		}
		offset += end + 1
	}
	return t
}

func (t *StrTab) Add(s string) uint32 {
	if h, ok := t.index[s]; ok {
		return h
	}
	if len(t.data) == 0 {
		t.data = append(t.data, 0)
		t.index[""] = 0
		if s == "" {
			return 0
		}
	}

	h := uint32(len(t.data))
	t.data = append(t.data, s...)
	t.data = append(t.data, 0)
	t.index[s] = h
	return h
}

func (t *StrTab) Find(s string) (uint32, bool) {
	h, ok := t.index[s]
	return h, ok
}

// Get returns the string starting at handle h. Handles that point into
// the middle of a stored string yield its suffix.
func (t *StrTab) Get(h uint32) string {
	if int(h) >= len(t.data) {
		return ""
	}
	end := bytes.IndexByte(t.data[h:], 0)
	if end == -1 {
		return string(t.data[h:])
	}
	return string(t.data[h : int(h)+end])
}

func (t *StrTab) Len() int {
	return len(t.data)
}

func (t *StrTab) ToBytes() []byte {
	return append([]byte(nil), t.data...)
}
