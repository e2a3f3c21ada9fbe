package linker

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ksco/bootld/pkg/codebuf"
	"github.com/ksco/bootld/pkg/utils"
)

// CreateImage sets up an empty image at the configured load base.
func CreateImage(ctx *Context) {
	ctx.Image = codebuf.New(ctx.Arg.BaseAddr)
	ctx.Linker = NewLinker(ctx.Image, ctx.Arg.BaseAddr)
}

// CheckUnresolved fails if any referenced symbol was never defined by
// the linked modules.
func CheckUnresolved(ctx *Context) error {
	names := ctx.Image.Unresolved()
	if len(names) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnresolved, strings.Join(names, ", "))
}

// WriteImage stores the flat image, ready to be loaded at BaseAddr.
func WriteImage(ctx *Context) error {
	return os.WriteFile(ctx.Arg.Output, ctx.Image.Bytes(), 0644)
}

// WriteObject stores the image as a relocatable object, keeping
// unresolved references as relocations.
func WriteObject(ctx *Context) error {
	return ToElf(ctx.Image).Store(ctx.Arg.ObjectOutput)
}

func PrintMap(ctx *Context, w io.Writer) {
	base := ctx.Arg.BaseAddr
	fmt.Fprintf(w, "image %s: %#x bytes at %#x\n", ctx.Arg.Output, ctx.Image.Len(), base)
	for _, mod := range ctx.Modules {
		fmt.Fprintf(w, "  %08x %8x  %s\n", base+uint32(mod.Start), mod.Size, mod.Name)
	}

	refs := append([]*codebuf.Ref(nil), ctx.Image.Refs()...)
	refs = utils.RemoveIf(refs, func(ref *codebuf.Ref) bool {
		return ref.Name() == ""
	})

	fmt.Fprintln(w, "symbols:")
	for _, ref := range refs {
		switch {
		case !ref.IsResolved():
			fmt.Fprintf(w, "  %8s  %s (%d pending)\n", "UNDEF", ref.Name(), len(ref.Pending()))
		case ref.IsPublic():
			fmt.Fprintf(w, "  %08x  %s\n", base+uint32(ref.Offset()), ref.Name())
		default:
			fmt.Fprintf(w, "  %08x  %s (local)\n", base+uint32(ref.Offset()), ref.Name())
		}
	}
}
