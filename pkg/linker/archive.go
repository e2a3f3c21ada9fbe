package linker

import (
	"fmt"

	"github.com/ksco/bootld/pkg/utils"
)

// ReadArchiveMembers splits a SysV or BSD "ar" archive into its members,
// in archive order. Symbol index members are skipped.
func ReadArchiveMembers(file *File) ([]*File, error) {
	if GetFileType(file.Contents) != FileTypeAr {
		return nil, fmt.Errorf("%s: not an archive", file.Name)
	}

	contents := file.Contents
	data := len(arMagic)
	var strTab []byte
	var files []*File

	for len(contents)-data >= 2 {
		// Members start on even offsets.
		if data%2 == 1 {
			data++
			if len(contents)-data < 2 {
				break
			}
		}
		if len(contents)-data < arHdrSize {
			return nil, fmt.Errorf("%s: truncated member header at %d", file.Name, data)
		}

		hdr := utils.Read[ArHdr](contents[data:])
		size, err := hdr.GetSize()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file.Name, err)
		}
		body := data + arHdrSize
		if body+size > len(contents) {
			return nil, fmt.Errorf("%s: member at %d runs past the archive", file.Name, data)
		}
		data = body + size

		if hdr.IsStrtab() {
			strTab = contents[body:data]
			continue
		}
		if hdr.IsSymtab() {
			continue
		}

		name, err := hdr.ReadName(strTab, contents[body:data])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file.Name, err)
		}
		if name == "__.SYMDEF" || name == "__.SYMDEF SORTED" {
			continue
		}

		skip, _ := hdr.NameLen()
		files = append(files, &File{
			Name:     name,
			Contents: contents[body+skip : data],
			Parent:   file,
		})
	}

	return files, nil
}
