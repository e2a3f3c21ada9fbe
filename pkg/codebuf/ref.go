package codebuf

import (
	"errors"
	"fmt"
)

var ErrDuplicate = errors.New("offset is already set")

type PatchKind uint8

const (
	// PatchAbs32 fields hold the negated bias to apply; resolving
	// stores offset minus the current field value.
	PatchAbs32 PatchKind = iota
	// PatchPC32 fields become offset - (addr + 4).
	PatchPC32
)

func (k PatchKind) String() string {
	switch k {
	case PatchAbs32:
		return "abs32"
	case PatchPC32:
		return "pc32"
	}
	return fmt.Sprintf("PatchKind(%d)", uint8(k))
}

type Patch struct {
	Addr int
	Kind PatchKind
}

// Ref is a named location in a Buffer. Until it gets an offset, every
// field that refers to it is recorded as a pending patch.
type Ref struct {
	buf  *Buffer
	name string

	offset   int32
	resolved bool
	public   bool

	pending []Patch
}

func (r *Ref) Name() string {
	return r.name
}

func (r *Ref) IsResolved() bool {
	return r.resolved
}

// Offset is only meaningful once IsResolved reports true.
func (r *Ref) Offset() int32 {
	return r.offset
}

func (r *Ref) IsPublic() bool {
	return r.public
}

func (r *Ref) MarkPublic() {
	r.public = true
}

// Pending returns the fields still waiting for this reference.
func (r *Ref) Pending() []Patch {
	return r.pending
}

// IsRelJump reports whether any waiting field is PC-relative.
func (r *Ref) IsRelJump() bool {
	for _, p := range r.pending {
		if p.Kind == PatchPC32 {
			return true
		}
	}
	return false
}

func (r *Ref) AddPendingPatch(addr int, kind PatchKind) {
	r.pending = append(r.pending, Patch{Addr: addr, Kind: kind})
}

// SetOffset resolves the reference and completes every pending patch.
// The unnamed reference stands for "this module" and silently keeps its
// first offset; any other reference may only be resolved once.
func (r *Ref) SetOffset(offset int32) error {
	if r.resolved {
		if r.name == "" {
			return nil
		}
		return fmt.Errorf("%w: %q (at %#x, now %#x)", ErrDuplicate, r.name, r.offset, offset)
	}
	if offset < 0 {
		return fmt.Errorf("negative offset %d for %q", offset, r.name)
	}

	r.offset = offset
	r.resolved = true
	for _, p := range r.pending {
		switch p.Kind {
		case PatchPC32:
			r.buf.SetWord(p.Addr, offset-int32(p.Addr+4))
		default:
			r.buf.SetWord(p.Addr, offset-r.buf.Word(p.Addr))
		}
	}
	r.pending = nil
	return nil
}

func (r *Ref) String() string {
	if r.resolved {
		return fmt.Sprintf("%s@%#x", r.name, r.offset)
	}
	return fmt.Sprintf("%s(unresolved, %d pending)", r.name, len(r.pending))
}
