package userdb

// Package userdb parses the colon-separated account database files (passwd,
// group, shadow) and serializes passwd and group; shadow is only read.
//
// Parsing preserves every input line verbatim, including comments and lines
// that do not look like entries, so a file can be rewritten without losing
// anything that was already there. Only appended entries are formatted fresh.
