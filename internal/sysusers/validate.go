package sysusers

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Name length cap mirrors the glibc LOGIN_NAME_MAX value.
const loginNameMax = 256

var nameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

func validName(s string) bool {
	return len(s) <= loginNameMax && nameRe.MatchString(s)
}

// validGecos rejects text that cannot live in a colon-separated passwd line.
func validGecos(s string) bool {
	return utf8.ValidString(s) && !strings.ContainsAny(s, ":\n")
}
