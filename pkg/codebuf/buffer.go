// Package codebuf holds the growable native code stream an image is
// assembled into, together with its directory of named references.
package codebuf

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// Buffer is a growing little-endian code stream. It is not safe for
// concurrent use.
type Buffer struct {
	data []byte
	base uint32

	refs  map[string]*Ref
	order []*Ref
}

// New returns an empty buffer whose contents will execute at base.
func New(base uint32) *Buffer {
	return &Buffer{
		base: base,
		refs: make(map[string]*Ref),
	}
}

func (b *Buffer) Base() uint32 {
	return b.base
}

func (b *Buffer) Len() int {
	return len(b.data)
}

func (b *Buffer) Bytes() []byte {
	return b.data
}

func (b *Buffer) Append(p []byte) {
	b.data = append(b.data, p...)
}

// Write implements io.Writer.
func (b *Buffer) Write(p []byte) (int, error) {
	b.Append(p)
	return len(p), nil
}

func (b *Buffer) Write8(v uint8) {
	b.data = append(b.data, v)
}

func (b *Buffer) Write32(v int32) {
	b.data = binary.LittleEndian.AppendUint32(b.data, uint32(v))
}

// Align pads the stream with zero bytes up to a multiple of n.
func (b *Buffer) Align(n int) {
	if n <= 1 {
		return
	}
	for len(b.data)%n != 0 {
		b.data = append(b.data, 0)
	}
}

func (b *Buffer) Word(addr int) int32 {
	return int32(binary.LittleEndian.Uint32(b.data[addr:]))
}

func (b *Buffer) SetWord(addr int, v int32) {
	binary.LittleEndian.PutUint32(b.data[addr:], uint32(v))
}

// Lookup returns the reference called name, creating an unresolved one
// on first use.
func (b *Buffer) Lookup(name string) *Ref {
	if ref, ok := b.refs[name]; ok {
		return ref
	}
	ref := &Ref{buf: b, name: name}
	b.refs[name] = ref
	b.order = append(b.order, ref)
	return ref
}

// Find returns the reference called name without creating it.
func (b *Buffer) Find(name string) (*Ref, bool) {
	ref, ok := b.refs[name]
	return ref, ok
}

// Refs returns every reference in creation order.
func (b *Buffer) Refs() []*Ref {
	return b.order
}

// Unresolved returns the names of references that still have no offset,
// sorted.
func (b *Buffer) Unresolved() []string {
	var names []string
	for _, ref := range b.order {
		if !ref.IsResolved() {
			names = append(names, ref.name)
		}
	}
	sort.Strings(names)
	return names
}

// EmitRef writes a 32-bit field referring to name at the end of the
// stream. A resolved reference is written out directly; otherwise a
// placeholder is written and the field is queued on the reference.
func (b *Buffer) EmitRef(name string, kind PatchKind) {
	ref := b.Lookup(name)
	addr := len(b.data)

	switch {
	case ref.IsResolved() && kind == PatchPC32:
		b.Write32(ref.offset - int32(addr+4))
	case ref.IsResolved():
		b.Write32(ref.offset + int32(b.base))
	case kind == PatchPC32:
		b.Write32(0)
		ref.AddPendingPatch(addr, kind)
	default:
		b.Write32(-int32(b.base))
		ref.AddPendingPatch(addr, kind)
	}
}

// Define resolves name to the current end of the stream.
func (b *Buffer) Define(name string) error {
	return b.Lookup(name).SetOffset(int32(len(b.data)))
}

func (b *Buffer) String() string {
	return fmt.Sprintf("codebuf(len=%d, base=%#x, refs=%d)", len(b.data), b.base, len(b.order))
}
