package userdb

import (
	"bytes"
	"os"
	"strings"
)

type PasswdFile struct {
	pf parsedFile[PasswdEntry]
}

// LoadPasswd parses a passwd file. Lines that are blank, comments, or do not
// have the seven colon-separated fields are preserved as raw text. A numeric
// field that does not parse is an error.
func LoadPasswd(path string) (*PasswdFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lines, err := readLines(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}

	var pf parsedFile[PasswdEntry]
	for _, line := range lines {
		trim := strings.TrimSpace(line)
		if trim == "" || strings.HasPrefix(trim, "#") {
			pf.lines = append(pf.lines, rawLine[PasswdEntry]{raw: line})
			continue
		}
		parts := parseColonLine(line)
		if len(parts) < 7 {
			pf.lines = append(pf.lines, rawLine[PasswdEntry]{raw: line})
			continue
		}
		uid, err := parseID(parts[2], "passwd.uid")
		if err != nil {
			return nil, err
		}
		gid, err := parseID(parts[3], "passwd.gid")
		if err != nil {
			return nil, err
		}
		e := PasswdEntry{
			Name:   parts[0],
			Passwd: parts[1],
			UID:    UID(uid),
			GID:    GID(gid),
			Gecos:  parts[4],
			Home:   parts[5],
			Shell:  parts[6],
		}
		pf.lines = append(pf.lines, rawLine[PasswdEntry]{raw: line, entry: &e})
	}

	return &PasswdFile{pf: pf}, nil
}

func (f *PasswdFile) Entries() []*PasswdEntry {
	return f.pf.entries()
}

func (f *PasswdFile) Find(name string) *PasswdEntry {
	for _, e := range f.pf.entries() {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// Append adds a fresh entry at the end of the file.
func (f *PasswdFile) Append(e PasswdEntry) {
	f.pf.lines = append(f.pf.lines, rawLine[PasswdEntry]{entry: &e})
}

// Bytes serializes the file. Lines read from disk are emitted verbatim;
// appended entries are formatted.
func (f *PasswdFile) Bytes() []byte {
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
