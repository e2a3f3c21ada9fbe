package linker

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

const (
	arMagic   = "!<arch>\n"
	arHdrSize = 60
)

// ArHdr is the fixed 60-byte header in front of every archive member.
type ArHdr struct {
	Name [16]byte
	Date [12]byte
	Uid  [6]byte
	Gid  [6]byte
	Mode [8]byte
	Size [10]byte
	Fmag [2]byte
}

func (a *ArHdr) HasPrefix(s string) bool {
	return bytes.HasPrefix(a.Name[:], []byte(s))
}

func (a *ArHdr) IsStrtab() bool {
	return a.HasPrefix("// ")
}

func (a *ArHdr) IsSymtab() bool {
	return a.HasPrefix("/ ") || a.HasPrefix("/SYM64/ ")
}

// NameLen is the number of body bytes taken by a BSD long name.
func (a *ArHdr) NameLen() (int, error) {
	if !a.HasPrefix("#1/") {
		return 0, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(a.Name[3:])))
	if err != nil {
		return 0, fmt.Errorf("bad BSD member name %q: %w", a.Name[:], err)
	}
	return n, nil
}

// ReadName decodes the member name. body is the member body, which holds
// BSD long names; strTab is the archive's "//" member, if any.
func (a *ArHdr) ReadName(strTab, body []byte) (string, error) {
	if a.HasPrefix("#1/") {
		n, err := a.NameLen()
		if err != nil {
			return "", err
		}
		if n > len(body) {
			return "", fmt.Errorf("BSD member name runs past the member")
		}
		name := body[:n]
		if end := bytes.IndexByte(name, 0); end != -1 {
			name = name[:end]
		}
		return string(name), nil
	}

	// SysV long name: "/offset" into the string table.
	if a.HasPrefix("/") {
		start, err := strconv.Atoi(strings.TrimSpace(string(a.Name[1:])))
		if err != nil || start < 0 || start >= len(strTab) {
			return "", fmt.Errorf("bad long member name %q", a.Name[:])
		}
		end := bytes.Index(strTab[start:], []byte("/\n"))
		if end == -1 {
			return "", fmt.Errorf("unterminated long member name at %d", start)
		}
		return string(strTab[start : start+end]), nil
	}

	if end := bytes.IndexByte(a.Name[:], '/'); end != -1 {
		return string(a.Name[:end]), nil
	}
	return strings.TrimRight(string(a.Name[:]), " "), nil
}

func (a *ArHdr) GetSize() (int, error) {
	sz, err := strconv.Atoi(strings.TrimSpace(string(a.Size[:])))
	if err != nil || sz < 0 {
		return 0, fmt.Errorf("bad member size %q", a.Size[:])
	}
	return sz, nil
}
