package hostfs

import (
	"path/filepath"
	"strings"
)

// Root is a directory prefix prepended to every path the tool touches.
// The empty Root is the live filesystem.
type Root string

// Join maps an absolute path into the root.
// Example: Root("/mnt/target").Join("/etc/passwd") -> /mnt/target/etc/passwd
func (r Root) Join(abs string) string {
	clean := filepath.Clean(abs)
	if r == "" {
		return clean
	}
	return filepath.Join(string(r), strings.TrimPrefix(clean, "/"))
}

// IsSet reports whether an alternate root is in effect.
func (r Root) IsSet() bool {
	return r != ""
}
