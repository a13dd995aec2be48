package hostfs

import (
	"io"
	"os"

	"golang.org/x/sys/unix"
)

const pwdLockPath = "/etc/.pwd.lock"

// PwdLock is the advisory write lock on /etc/.pwd.lock, the same sentinel
// file lckpwdf() and the shadow tool suite use, so standard tools
// interoperate. Per-database locks are deliberately not taken on top of it.
type PwdLock struct {
	f *os.File
}

// TakePwdLock acquires the lock, creating the sentinel with mode 0600 if
// missing, and blocks until it is granted.
func TakePwdLock(root Root) (*PwdLock, error) {
	f, err := os.OpenFile(root.Join(pwdLockPath),
		os.O_WRONLY|os.O_CREATE|unix.O_NOCTTY|unix.O_NOFOLLOW, 0600)
	if err != nil {
		return nil, err
	}

	fl := unix.Flock_t{
		Type:   unix.F_WRLCK,
		Whence: io.SeekStart,
	}
	if err := unix.FcntlFlock(f.Fd(), unix.F_SETLKW, &fl); err != nil {
		f.Close()
		return nil, err
	}
	return &PwdLock{f: f}, nil
}

// Release drops the lock. The fcntl lock dies with the descriptor.
func (l *PwdLock) Release() error {
	return l.f.Close()
}
