package sysusers

import (
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// expandSpecifiers replaces %m (machine ID), %b (boot ID), %H (host name),
// %v (kernel release) and %% in the input. Unknown specifiers are copied
// through unchanged.
func expandSpecifiers(s string) (string, error) {
	if !strings.ContainsRune(s, '%') {
		return s, nil
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '%' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++

		var v string
		var err error
		switch s[i] {
		case '%':
			v = "%"
		case 'm':
			v, err = machineID()
		case 'b':
			v, err = bootID()
		case 'H':
			v, err = os.Hostname()
		case 'v':
			v, err = kernelRelease()
		default:
			b.WriteByte('%')
			b.WriteByte(s[i])
			continue
		}
		if err != nil {
			return "", err
		}
		b.WriteString(v)
	}
	return b.String(), nil
}

func machineID() (string, error) {
	b, err := os.ReadFile("/etc/machine-id")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func bootID() (string, error) {
	b, err := os.ReadFile("/proc/sys/kernel/random/boot_id")
	if err != nil {
		return "", err
	}
	// The kernel formats the boot ID with dashes; the specifier value is
	// the plain 32 character form.
	return strings.ReplaceAll(strings.TrimSpace(string(b)), "-", ""), nil
}

func kernelRelease() (string, error) {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return "", err
	}
	return unix.ByteSliceToString(u.Release[:]), nil
}
