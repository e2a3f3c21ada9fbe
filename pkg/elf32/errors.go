package elf32

import "errors"

var (
	// ErrMalformed is returned when input bytes are not a 32-bit
	// little-endian i386 ELF container, or are structurally broken.
	ErrMalformed = errors.New("malformed container")

	// ErrLayoutInconsistency means the emit phase disagreed with the
	// offsets the layout phase assigned. It is always an internal bug.
	ErrLayoutInconsistency = errors.New("layout inconsistency")
)
