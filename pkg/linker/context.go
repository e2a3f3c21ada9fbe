package linker

import (
	"github.com/ksco/bootld/pkg/codebuf"
	"github.com/ksco/bootld/pkg/utils"
)

const DefaultBaseAddr = 0x100000

type ContextArg struct {
	Output       string
	ObjectOutput string
	Emulation    MachineType
	BaseAddr     uint32

	// Align pads the image to a multiple of Align after every module.
	Align int

	Dump           bool
	PrintMap       bool
	AllowUndefined bool

	LibraryPaths []string
}

// Context carries one link run: the image being built, the linker
// writing into it and the modules placed so far.
type Context struct {
	Arg ContextArg

	Image  *codebuf.Buffer
	Linker *Linker

	Modules []*Module
	Visited utils.MapSet[string]
}

func NewContext() *Context {
	return &Context{
		Arg: ContextArg{
			Emulation: MachineTypeI386,
			Output:    "a.img",
			BaseAddr:  DefaultBaseAddr,
		},
		Visited: utils.NewMapSet[string](),
	}
}
