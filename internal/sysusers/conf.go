package sysusers

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Directories searched for .conf files, most specific first. A base name in
// an earlier directory masks the same name in later ones.
var confDirs = []string{
	"/usr/local/lib/sysusers.d",
	"/usr/lib/sysusers.d",
	"/lib/sysusers.d",
}

// ConfigFiles enumerates the installed configuration files under the
// alternate root, deduplicated by base name and sorted by it.
func (s *Session) ConfigFiles() ([]string, error) {
	seen := make(map[string]string)
	for _, d := range confDirs {
		entries, err := os.ReadDir(s.Root.Join(d))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		for _, de := range entries {
			if de.IsDir() || !strings.HasSuffix(de.Name(), ".conf") {
				continue
			}
			if _, ok := seen[de.Name()]; !ok {
				seen[de.Name()] = filepath.Join(s.Root.Join(d), de.Name())
			}
		}
	}

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)

	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, seen[n])
	}
	return out, nil
}
