package hostfs

import (
	"io"
	"os"
	"path/filepath"
	"syscall"

	"golang.org/x/sys/unix"
)

// CreateTemp creates a temp file next to target so the final rename stays on
// the same filesystem. The caller owns the returned file and path.
func CreateTemp(target string) (*os.File, string, error) {
	f, err := os.CreateTemp(filepath.Dir(target), filepath.Base(target)+".")
	if err != nil {
		return nil, "", err
	}
	return f, f.Name(), nil
}

// Backup copies target to "<target>-", carrying over the file mode, owner,
// and access/modification times. A missing target needs no backup.
func Backup(target string) error {
	src, err := os.Open(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer src.Close()

	st, err := src.Stat()
	if err != nil {
		return err
	}

	dst, temp, err := CreateTemp(target)
	if err != nil {
		return err
	}

	if err := copyBackup(src, dst, st); err != nil {
		dst.Close()
		os.Remove(temp)
		return err
	}
	if err := dst.Close(); err != nil {
		os.Remove(temp)
		return err
	}
	if err := os.Rename(temp, target+"-"); err != nil {
		os.Remove(temp)
		return err
	}
	return nil
}

func copyBackup(src *os.File, dst *os.File, st os.FileInfo) error {
	if _, err := io.Copy(dst, src); err != nil {
		return err
	}
	if err := dst.Chmod(st.Mode().Perm()); err != nil {
		return err
	}
	// Ownership and timestamps are carried over best effort; a backup that
	// stays owned by us is still a usable backup.
	if sys, ok := st.Sys().(*syscall.Stat_t); ok {
		_ = dst.Chown(int(sys.Uid), int(sys.Gid))
		ts := []unix.Timespec{
			{Sec: sys.Atim.Sec, Nsec: sys.Atim.Nsec},
			{Sec: sys.Mtim.Sec, Nsec: sys.Mtim.Nsec},
		}
		_ = unix.UtimesNanoAt(int(dst.Fd()), "", ts, unix.AT_EMPTY_PATH)
	}
	return nil
}
