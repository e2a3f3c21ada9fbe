package elf32

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/ksco/bootld/pkg/utils"
)

// Layout is a container whose section offsets have been fixed. It is
// only produced by (*File).Layout and only consumed by WriteTo; the
// container must not be modified in between.
type Layout struct {
	file    *File
	offsets []uint32
	shoff   uint32
}

// Layout assigns every section after the null section a file offset,
// starting right after the padded header. Table sections re-derive their
// bodies here, so symbol and relocation indices reflect the current
// in-memory order.
func (f *File) Layout() (*Layout, error) {
	l := &Layout{
		file:    f,
		offsets: make([]uint32, len(f.sections)),
	}

	ofs := uint32(EhdrSizeExt)
	for i := 1; i < len(f.sections); i++ {
		s := f.sections[i]
		s.shdr.Offset = ofs
		l.offsets[i] = ofs

		n, err := s.prepare()
		if err != nil {
			return nil, err
		}
		ofs = utils.AlignTo(ofs+uint32(n), Align)
	}
	l.shoff = ofs
	f.shoff = ofs
	return l, nil
}

// Size is the number of bytes WriteTo emits.
func (l *Layout) Size() int64 {
	return int64(l.shoff) + int64(len(l.file.sections))*ShdrSize
}

func (l *Layout) header() Ehdr {
	f := l.file
	return Ehdr{
		Ident:     f.Ident,
		Type:      uint16(f.Kind),
		Machine:   f.Machine,
		Version:   f.Version,
		Entry:     f.Entry,
		PhOff:     0,
		ShOff:     l.shoff,
		Flags:     f.Flags,
		EhSize:    EhdrSize,
		PhEntSize: 0,
		PhNum:     0,
		ShEntSize: ShdrSize,
		ShNum:     uint16(len(f.sections)),
		ShStrndx:  f.shstrndx,
	}
}

// WriteTo emits the header, the section bodies at their assigned offsets
// and the section header table.
func (l *Layout) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	ofs := int64(0)

	write := func(b []byte) error {
		n, err := bw.Write(b)
		ofs += int64(n)
		return err
	}
	pad := func() error {
		for ofs%Align != 0 {
			if err := bw.WriteByte(0); err != nil {
				return err
			}
			ofs++
		}
		return nil
	}

	hdr := make([]byte, EhdrSizeExt)
	utils.Write(hdr, l.header())
	if err := write(hdr); err != nil {
		return ofs, err
	}

	f := l.file
	for i := 1; i < len(f.sections); i++ {
		s := f.sections[i]
		if ofs != int64(l.offsets[i]) || s.shdr.Offset != l.offsets[i] {
			return ofs, fmt.Errorf("%w: section %d (%s) at %#x, expected %#x",
				ErrLayoutInconsistency, i, s.Name(), ofs, l.offsets[i])
		}
		if s.Type() != SectionNoBits {
			if err := write(s.body); err != nil {
				return ofs, err
			}
		}
		if err := pad(); err != nil {
			return ofs, err
		}
	}

	if ofs != int64(l.shoff) {
		return ofs, fmt.Errorf("%w: section headers at %#x, expected %#x",
			ErrLayoutInconsistency, ofs, l.shoff)
	}

	rec := make([]byte, ShdrSize)
	for _, s := range f.sections {
		utils.Write(rec, s.shdr)
		if err := write(rec); err != nil {
			return ofs, err
		}
	}

	return ofs, bw.Flush()
}

// Bytes lays the container out and serializes it.
func (f *File) Bytes() ([]byte, error) {
	l, err := f.Layout()
	if err != nil {
		return nil, err
	}
	buf := bytes.NewBuffer(make([]byte, 0, l.Size()))
	if _, err := l.WriteTo(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (f *File) Store(path string) error {
	data, err := f.Bytes()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
