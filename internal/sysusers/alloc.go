package sysusers

import (
	"fmt"

	"github.com/hnrobert/sysusers/internal/userdb"
)

// uidIsOK reports whether uid is free to assign to a new user named name.
// The numeric value must be unused as a UID everywhere; as a GID it may
// already belong to a group with the same name, since users and groups are
// normally created as a matched pair sharing an ID.
func (s *Session) uidIsOK(uid userdb.UID, name string) (bool, error) {
	if _, ok := s.pendingUIDs[uid]; ok {
		return false, nil
	}
	if it, ok := s.pendingGIDs[userdb.GID(uid)]; ok && it.Name != name {
		return false, nil
	}
	if _, ok := s.dbUserID[uid]; ok {
		return false, nil
	}
	if n, ok := s.dbGroupID[userdb.GID(uid)]; ok && n != name {
		return false, nil
	}

	if s.NSS != nil {
		u, err := s.NSS.UserByID(uid)
		if err != nil {
			return false, err
		}
		if u != nil {
			return false, nil
		}
		g, err := s.NSS.GroupByID(userdb.GID(uid))
		if err != nil {
			return false, err
		}
		if g != nil && g.Name != name {
			return false, nil
		}
	}

	return true, nil
}

// gidIsOK is stricter than uidIsOK: the value must be absent from all four
// namespaces in both the user and group role, with no name exception.
func (s *Session) gidIsOK(gid userdb.GID) (bool, error) {
	if _, ok := s.pendingGIDs[gid]; ok {
		return false, nil
	}
	if _, ok := s.pendingUIDs[userdb.UID(gid)]; ok {
		return false, nil
	}
	if _, ok := s.dbGroupID[gid]; ok {
		return false, nil
	}
	if _, ok := s.dbUserID[userdb.UID(gid)]; ok {
		return false, nil
	}

	if s.NSS != nil {
		g, err := s.NSS.GroupByID(gid)
		if err != nil {
			return false, err
		}
		if g != nil {
			return false, nil
		}
		u, err := s.NSS.UserByID(userdb.UID(gid))
		if err != nil {
			return false, err
		}
		if u != nil {
			return false, nil
		}
	}

	return true, nil
}

// scanFree walks the shared cursor downward to the first acceptable ID and
// then moves the cursor past it, so the value is never offered twice within
// a run. Reaching the bottom of the range is fatal for the item.
func scanFree[T ~uint32](cursor *T, isOK func(T) (bool, error)) (T, error) {
	for ; *cursor > 0; *cursor = *cursor - 1 {
		ok, err := isOK(*cursor)
		if err != nil {
			return 0, err
		}
		if ok {
			break
		}
	}
	if *cursor == 0 {
		return 0, ErrIDExhausted
	}
	id := *cursor
	*cursor = *cursor - 1
	return id, nil
}

func verifyErr(kind string, id uint32, err error) error {
	return fmt.Errorf("verify %s ID %d: %w", kind, id, err)
}
