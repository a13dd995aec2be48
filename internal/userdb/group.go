package userdb

import (
	"bytes"
	"os"
	"strings"
)

type GroupFile struct {
	pf parsedFile[GroupEntry]
}

func LoadGroup(path string) (*GroupFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lines, err := readLines(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}

	var pf parsedFile[GroupEntry]
	for _, line := range lines {
		trim := strings.TrimSpace(line)
		if trim == "" || strings.HasPrefix(trim, "#") {
			pf.lines = append(pf.lines, rawLine[GroupEntry]{raw: line})
			continue
		}
		parts := parseColonLine(line)
		if len(parts) < 4 {
			pf.lines = append(pf.lines, rawLine[GroupEntry]{raw: line})
			continue
		}
		gid, err := parseID(parts[2], "group.gid")
		if err != nil {
			return nil, err
		}
		members := []string{}
		if parts[3] != "" {
			members = strings.Split(parts[3], ",")
		}
		e := GroupEntry{Name: parts[0], Passwd: parts[1], GID: GID(gid), Members: members}
		pf.lines = append(pf.lines, rawLine[GroupEntry]{raw: line, entry: &e})
	}
	return &GroupFile{pf: pf}, nil
}

func (f *GroupFile) Entries() []*GroupEntry {
	return f.pf.entries()
}

func (f *GroupFile) Find(name string) *GroupEntry {
	for _, e := range f.pf.entries() {
		if e.Name == name {
			return e
		}
	}
	return nil
}

func (f *GroupFile) Append(e GroupEntry) {
	f.pf.lines = append(f.pf.lines, rawLine[GroupEntry]{entry: &e})
}

func (f *GroupFile) Bytes() []byte {
	var buf strings.Builder
	for _, ln := range f.pf.lines {
		if ln.raw != "" || ln.entry == nil {
			buf.WriteString(ln.raw)
			buf.WriteString("\n")
			continue
		}
		buf.WriteString(ln.entry.String())
		buf.WriteString("\n")
	}
	return []byte(buf.String())
}
