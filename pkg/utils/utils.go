package utils

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
)

type Uint interface {
	uint8 | uint16 | uint32 | uint64
}

func MustNo(err error) {
	if err != nil {
		Fatal(err)
	}
}

func Fatal(v any) {
	fmt.Fprintln(os.Stderr, "bootld: "+"\033[0;1;31mfatal:\033[0m", fmt.Sprintf("%s", v))
	if os.Getenv("BOOTLD_TRACE") != "" {
		debug.PrintStack()
	}
	os.Exit(1)
}

func Warn(v any) {
	fmt.Fprintln(os.Stderr, "bootld: "+"\033[0;1;35mwarning:\033[0m", fmt.Sprintf("%s", v))
}

func Assert(condition bool) {
	if !condition {
		panic("assert failed")
	}
}

func AlignTo[T Uint](val, align T) T {
	if align == 0 {
		return val
	}
	return (val + align - 1) & ^(align - 1)
}

func Read[T any](data []byte) (val T) {
	reader := bytes.NewReader(data)
	err := binary.Read(reader, binary.LittleEndian, &val)
	if err != nil {
		panic(err)
	}
	return
}

func Write[T any](data []byte, e T) {
	buf := &bytes.Buffer{}
	err := binary.Write(buf, binary.LittleEndian, e)
	if err != nil {
		panic(err)
	}
	copy(data, buf.Bytes())
}

func Bits[T Uint](val T, hi T, lo T) T {
	return (val >> lo) & ((1 << (hi - lo + 1)) - 1)
}

func RemoveIf[T any](elems []T, condition func(T) bool) []T {
	i := 0

	for _, elem := range elems {
		if condition(elem) {
			continue
		}
		elems[i] = elem
		i++
	}
	return elems[:i]
}

func RemovePrefix(s, prefix string) (string, bool) {
	if strings.HasPrefix(s, prefix) {
		s = strings.TrimPrefix(s, prefix)
		return s, true
	}
	return s, false
}
