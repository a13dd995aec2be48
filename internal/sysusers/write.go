package sysusers

import (
	"bufio"
	"fmt"
	"os"
	"sort"

	"github.com/hnrobert/sysusers/internal/hostfs"
	"github.com/hnrobert/sysusers/internal/userdb"
)

// writeFiles commits the pending sets. Shadow and gshadow are never
// patched; the accounts are created without passwords. A table with no
// pending work is not touched at all.
//
// Order matters for crash safety: both temp files are fully written first,
// then the backups are made, then the temps are renamed over the targets. A
// crash in between leaves the originals either untouched or recoverable
// from the "<name>-" backup.
func (s *Session) writeFiles() error {
	var passwdTmp, groupTmp string
	defer func() {
		if groupTmp != "" {
			os.Remove(groupTmp)
		}
		if passwdTmp != "" {
			os.Remove(passwdTmp)
		}
	}()

	groupPath := s.Root.Join(etcGroup)
	if len(s.pendingGIDs) > 0 {
		tmp, err := s.writeGroupTemp(groupPath)
		if err != nil {
			return err
		}
		groupTmp = tmp
	}

	passwdPath := s.Root.Join(etcPasswd)
	if len(s.pendingUIDs) > 0 {
		tmp, err := s.writePasswdTemp(passwdPath)
		if err != nil {
			return err
		}
		passwdTmp = tmp
	}

	// Back up the old files.
	if groupTmp != "" {
		if err := hostfs.Backup(groupPath); err != nil {
			return fmt.Errorf("back up %s: %w", groupPath, err)
		}
	}
	if passwdTmp != "" {
		if err := hostfs.Backup(passwdPath); err != nil {
			return fmt.Errorf("back up %s: %w", passwdPath, err)
		}
	}

	// And make the new files count.
	if groupTmp != "" {
		if err := os.Rename(groupTmp, groupPath); err != nil {
			return err
		}
		groupTmp = ""
	}
	if passwdTmp != "" {
		if err := os.Rename(passwdTmp, passwdPath); err != nil {
			return err
		}
		passwdTmp = ""
	}

	return nil
}

func (s *Session) writeGroupTemp(path string) (string, error) {
	f, tmp, err := hostfs.CreateTemp(path)
	if err != nil {
		return "", err
	}
	fail := func(err error) (string, error) {
		f.Close()
		os.Remove(tmp)
		return "", err
	}

	if err := f.Chmod(0644); err != nil {
		return fail(err)
	}

	gf, err := userdb.LoadGroup(path)
	if err != nil && !os.IsNotExist(err) {
		return fail(err)
	}

	w := bufio.NewWriter(f)
	if gf != nil {
		// Verify we are not generating duplicate entries before the
		// existing contents are carried over verbatim.
		for _, e := range gf.Entries() {
			if s.pendingGroupNamed(e.Name) != nil {
				return fail(fmt.Errorf("%s: group %q: %w", path, e.Name, ErrEntryCollision))
			}
			if _, ok := s.pendingGIDs[e.GID]; ok {
				return fail(fmt.Errorf("%s: gid %d: %w", path, e.GID, ErrEntryCollision))
			}
		}
		if _, err := w.Write(gf.Bytes()); err != nil {
			return fail(err)
		}
	}

	for _, it := range s.sortedPendingGroups() {
		e := userdb.GroupEntry{Name: it.Name, Passwd: "x", GID: it.GID}
		if _, err := w.WriteString(e.String() + "\n"); err != nil {
			return fail(err)
		}
	}

	if err := w.Flush(); err != nil {
		return fail(err)
	}
	if err := f.Sync(); err != nil {
		return fail(err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", err
	}
	return tmp, nil
}

func (s *Session) writePasswdTemp(path string) (string, error) {
	f, tmp, err := hostfs.CreateTemp(path)
	if err != nil {
		return "", err
	}
	fail := func(err error) (string, error) {
		f.Close()
		os.Remove(tmp)
		return "", err
	}

	if err := f.Chmod(0644); err != nil {
		return fail(err)
	}

	pf, err := userdb.LoadPasswd(path)
	if err != nil && !os.IsNotExist(err) {
		return fail(err)
	}

	w := bufio.NewWriter(f)
	if pf != nil {
		for _, e := range pf.Entries() {
			if s.pendingUserNamed(e.Name) != nil {
				return fail(fmt.Errorf("%s: user %q: %w", path, e.Name, ErrEntryCollision))
			}
			if _, ok := s.pendingUIDs[e.UID]; ok {
				return fail(fmt.Errorf("%s: uid %d: %w", path, e.UID, ErrEntryCollision))
			}
		}
		if _, err := w.Write(pf.Bytes()); err != nil {
			return fail(err)
		}
	}

	for _, it := range s.sortedPendingUsers() {
		e := userdb.PasswdEntry{
			Name:   it.Name,
			Passwd: "x",
			UID:    it.UID,
			GID:    it.GID,
			Gecos:  it.Description,
			Home:   "/",
			Shell:  "/sbin/nologin",
		}
		// Root gets a usable shell and home.
		if it.UID == 0 {
			e.Home = "/root"
			e.Shell = "/bin/sh"
		}
		if _, err := w.WriteString(e.String() + "\n"); err != nil {
			return fail(err)
		}
	}

	if err := w.Flush(); err != nil {
		return fail(err)
	}
	if err := f.Sync(); err != nil {
		return fail(err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", err
	}
	return tmp, nil
}

func (s *Session) pendingGroupNamed(name string) *Item {
	for _, it := range s.pendingGIDs {
		if it.Name == name {
			return it
		}
	}
	return nil
}

func (s *Session) pendingUserNamed(name string) *Item {
	for _, it := range s.pendingUIDs {
		if it.Name == name {
			return it
		}
	}
	return nil
}

func (s *Session) sortedPendingGroups() []*Item {
	out := make([]*Item, 0, len(s.pendingGIDs))
	for _, it := range s.pendingGIDs {
		out = append(out, it)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].GID < out[b].GID })
	return out
}

func (s *Session) sortedPendingUsers() []*Item {
	out := make([]*Item, 0, len(s.pendingUIDs))
	for _, it := range s.pendingUIDs {
		out = append(out, it)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].UID < out[b].UID })
	return out
}
