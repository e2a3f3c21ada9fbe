package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ksco/bootld/pkg/linker"
	"github.com/ksco/bootld/pkg/utils"
	"github.com/xyproto/env/v2"
)

var version string

func main() {
	ctx := linker.NewContext()
	applyEnvironment(ctx)
	remaining := parseNonpositionalArgs(ctx)

	if ctx.Arg.Dump {
		utils.MustNo(linker.DumpInputFiles(os.Stdout, remaining))
		return
	}

	linker.CreateImage(ctx)
	utils.MustNo(linker.ReadInputFiles(ctx, remaining))

	if ctx.Arg.ObjectOutput != "" {
		utils.MustNo(linker.WriteObject(ctx))
	}

	if err := linker.CheckUnresolved(ctx); err != nil {
		if !ctx.Arg.AllowUndefined || !errors.Is(err, linker.ErrUnresolved) {
			utils.Fatal(err)
		}
		utils.Warn(err)
	}

	utils.MustNo(linker.WriteImage(ctx))

	if ctx.Arg.PrintMap {
		linker.PrintMap(ctx, os.Stdout)
	}
}

func applyEnvironment(ctx *linker.Context) {
	ctx.Arg.Output = env.Str("BOOTLD_OUTPUT", ctx.Arg.Output)
	if s := env.Str("BOOTLD_BASE"); s != "" {
		ctx.Arg.BaseAddr = parseAddr("BOOTLD_BASE", s)
	}
	ctx.Arg.PrintMap = env.Bool("BOOTLD_VERBOSE")
}

func parseAddr(name, s string) uint32 {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		utils.Fatal(fmt.Sprintf("%s: bad address %q", name, s))
	}
	return uint32(v)
}

func parseNonpositionalArgs(ctx *linker.Context) []string {
	dashes := func(name string) []string {
		if len(name) == 1 {
			return []string{"-" + name}
		}
		if name[0] == 'o' {
			return []string{"--" + name}
		}
		return []string{"-" + name, "--" + name}
	}

	args := os.Args[1:]
	remaining := make([]string, 0)
	var arg string

	readArg := func(name string) bool {
		for _, opt := range dashes(name) {
			if args[0] == opt {
				if len(args) == 1 {
					utils.Fatal(fmt.Sprintf("option -%s: argument missing", name))
					return false
				}
				arg = args[1]
				args = args[2:]
				return true
			}

			prefix := opt
			if len(name) > 1 {
				prefix += "="
			}

			if strings.HasPrefix(args[0], prefix) {
				arg = args[0][len(prefix):]
				args = args[1:]
				return true
			}
		}
		return false
	}

	readFlag := func(name string) bool {
		for _, opt := range dashes(name) {
			if args[0] == opt {
				args = args[1:]
				return true
			}
		}
		return false
	}

	for len(args) > 0 {
		if readFlag("help") {
			fmt.Printf("Usage: %s [options] file...\n", os.Args[0])
			fmt.Println("  -o, --output FILE      flat image to write (default a.img)")
			fmt.Println("  --base ADDR            load address of the image (default 0x100000)")
			fmt.Println("  --align N              pad the image to N bytes after every module")
			fmt.Println("  --emit-object FILE     also write the image as a relocatable object")
			fmt.Println("  --allow-undefined      warn about unresolved symbols instead of failing")
			fmt.Println("  --map                  print module placement and symbols")
			fmt.Println("  --dump                 print the structure of the inputs and exit")
			fmt.Println("  -L DIR, -lNAME         search DIR for libNAME.a")
			os.Exit(0)
		}

		if readArg("o") || readArg("output") {
			ctx.Arg.Output = arg
		} else if readFlag("v") || readFlag("version") {
			fmt.Printf("bootld %s\n", version)
			os.Exit(0)
		} else if readArg("m") {
			ctx.Arg.Emulation = linker.GetMachineTypeFromEmulation(arg)
			if ctx.Arg.Emulation != linker.MachineTypeI386 {
				utils.Fatal(fmt.Sprintf("unknown -m argument: %s", arg))
			}
		} else if readArg("base") || readArg("Ttext") {
			ctx.Arg.BaseAddr = parseAddr("--base", arg)
		} else if readArg("align") {
			n, err := strconv.ParseUint(arg, 0, 31)
			if err != nil || n&(n-1) != 0 {
				utils.Fatal(fmt.Sprintf("--align: not a power of two: %s", arg))
			}
			ctx.Arg.Align = int(n)
		} else if readArg("emit-object") {
			ctx.Arg.ObjectOutput = arg
		} else if readFlag("allow-undefined") {
			ctx.Arg.AllowUndefined = true
		} else if readFlag("map") {
			ctx.Arg.PrintMap = true
		} else if readFlag("dump") {
			ctx.Arg.Dump = true
		} else if readArg("L") || readArg("library-path") {
			ctx.Arg.LibraryPaths = append(ctx.Arg.LibraryPaths, arg)
		} else if readArg("l") {
			remaining = append(remaining, "-l"+arg)
		} else if readFlag("static") || readFlag("nostdlib") || readFlag("s") {
			// Ignored
		} else {
			if args[0][0] == '-' {
				utils.Fatal(fmt.Sprintf("unknown command line option: %s", args[0]))
			}
			remaining = append(remaining, args[0])
			args = args[1:]
		}
	}

	for i, path := range ctx.Arg.LibraryPaths {
		ctx.Arg.LibraryPaths[i] = filepath.Clean(path)
	}

	return remaining
}
