package userdb

import "strings"

// UID and GID are kept as distinct types so a user ID cannot silently be
// used where a group ID is expected.
type UID uint32

type GID uint32

type PasswdEntry struct {
	Name   string
	Passwd string
	UID    UID
	GID    GID
	Gecos  string
	Home   string
	Shell  string
}

func (e PasswdEntry) String() string {
	var b strings.Builder
	b.WriteString(e.Name)
	b.WriteByte(':')
	b.WriteString(e.Passwd)
	b.WriteByte(':')
	b.WriteString(utoa(uint32(e.UID)))
	b.WriteByte(':')
	b.WriteString(utoa(uint32(e.GID)))
	b.WriteByte(':')
	b.WriteString(e.Gecos)
	b.WriteByte(':')
	b.WriteString(e.Home)
	b.WriteByte(':')
	b.WriteString(e.Shell)
	return b.String()
}

type GroupEntry struct {
	Name    string
	Passwd  string
	GID     GID
	Members []string
}

func (e GroupEntry) String() string {
	var b strings.Builder
	b.WriteString(e.Name)
	b.WriteByte(':')
	b.WriteString(e.Passwd)
	b.WriteByte(':')
	b.WriteString(utoa(uint32(e.GID)))
	b.WriteByte(':')
	b.WriteString(strings.Join(e.Members, ","))
	return b.String()
}

type ShadowEntry struct {
	Name       string
	Hash       string
	LastChange string
	Min        string
	Max        string
	Warn       string
	Inactive   string
	Expire     string
	Reserved   string
}

// Small helper to avoid strconv in hot formatting.
func utoa(n uint32) string {
	if n == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + (n % 10))
		n /= 10
	}
	return string(buf[i:])
}
