package linker

import "errors"

var (
	ErrNotRelocatable           = errors.New("not a relocatable object")
	ErrMissingSection           = errors.New("missing required section")
	ErrUnsupportedRelocation    = errors.New("unsupported relocation type")
	ErrUnsupportedSymbolSection = errors.New("symbol defined outside .text is not supported")
	ErrDuplicateSymbol          = errors.New("duplicate symbol")
	ErrUnresolved               = errors.New("unresolved symbols")
)
