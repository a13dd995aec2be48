package sysusers

import (
	"fmt"

	"github.com/mordilloSan/go-logger/logger"
	"golang.org/x/sys/unix"

	"github.com/hnrobert/sysusers/internal/userdb"
)

// statPath is swappable so ID inheritance from file ownership can be tested
// without chown privileges.
var statPath = func(path string) (*unix.Stat_t, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// processItem runs the per-item state machine. A user declaration always
// creates its matched group first; a group declaration whose name matches a
// declared user folds its ID hints into the user item instead of standing
// alone.
func (s *Session) processItem(i *Item) error {
	switch i.Kind {
	case AddUser:
		if err := s.addGroup(i); err != nil {
			return err
		}
		return s.addUser(i)

	case AddGroup:
		if j, ok := s.users[i.Name]; ok {
			if i.GIDSet {
				j.GID = i.GID
				j.GIDSet = true
			}
			if i.GIDPath != "" {
				j.GIDPath = i.GIDPath
			}
			return nil
		}
		return s.addGroup(i)
	}

	return fmt.Errorf("unknown item kind %d", i.Kind)
}

func (s *Session) addGroup(i *Item) error {
	// Check the database directly.
	if gid, ok := s.dbGroupName[i.Name]; ok {
		logger.Debugf("Group %s already exists.", i.Name)
		i.GID = gid
		i.GIDSet = true
		return nil
	}

	// Also check NSS.
	if s.NSS != nil {
		g, err := s.NSS.GroupByName(i.Name)
		if err != nil {
			return fmt.Errorf("check if group %s already exists: %w", i.Name, err)
		}
		if g != nil {
			logger.Debugf("Group %s already exists.", i.Name)
			i.GID = g.GID
			i.GIDSet = true
			return nil
		}
	}

	// Try the suggested numeric gid.
	if i.GIDSet {
		ok, err := s.gidIsOK(i.GID)
		if err != nil {
			return verifyErr("group", uint32(i.GID), err)
		}
		if !ok {
			logger.Debugf("Suggested group ID %d for %s already used.", i.GID, i.Name)
			i.GIDSet = false
		}
	}

	// Try to reuse the numeric uid, if there is one.
	if !i.GIDSet && i.UIDSet {
		ok, err := s.gidIsOK(userdb.GID(i.UID))
		if err != nil {
			return verifyErr("group", uint32(i.UID), err)
		}
		if ok {
			i.GID = userdb.GID(i.UID)
			i.GIDSet = true
		}
	}

	// If that did not work, derive it from the hint path.
	if !i.GIDSet {
		if c, found := s.gidFromPath(i); found {
			if c == 0 || c > s.GIDMax {
				logger.Debugf("Group ID %d of file not suitable for %s.", c, i.Name)
			} else {
				ok, err := s.gidIsOK(c)
				if err != nil {
					return verifyErr("group", uint32(c), err)
				}
				if ok {
					i.GID = c
					i.GIDSet = true
				} else {
					logger.Debugf("Group ID %d of file for %s already used.", c, i.Name)
				}
			}
		}
	}

	// And if that did not work either, find a free one.
	if !i.GIDSet {
		gid, err := scanFree(&s.searchGID, s.gidIsOK)
		if err != nil {
			logger.Errorf("No free group ID available for %s.", i.Name)
			return fmt.Errorf("group %s: %w", i.Name, err)
		}
		i.GID = gid
		i.GIDSet = true
	}

	s.pendingGIDs[i.GID] = i
	i.Pending = true
	logger.Infof("Creating group %s with gid %d.", i.Name, i.GID)

	return nil
}

func (s *Session) addUser(i *Item) error {
	// Check the database directly.
	if uid, ok := s.dbUserName[i.Name]; ok {
		logger.Debugf("User %s already exists.", i.Name)
		i.UID = uid
		i.UIDSet = true
		return nil
	}

	if s.NSS != nil {
		// Also check NSS.
		u, err := s.NSS.UserByName(i.Name)
		if err != nil {
			return fmt.Errorf("check if user %s already exists: %w", i.Name, err)
		}
		if u != nil {
			logger.Debugf("User %s already exists.", i.Name)
			i.UID = u.UID
			i.UIDSet = true
			i.Description = u.Gecos
			return nil
		}

		// And shadow too, just to be sure.
		inShadow, err := s.NSS.ShadowByName(i.Name)
		if err != nil {
			return fmt.Errorf("check if user %s already exists in shadow database: %w", i.Name, err)
		}
		if inShadow {
			logger.Errorf("User %s already exists in shadow database, but not in user database.", i.Name)
			return fmt.Errorf("user %s: %w", i.Name, ErrShadowOnly)
		}
	}

	// Try the suggested numeric uid.
	if i.UIDSet {
		ok, err := s.uidIsOK(i.UID, i.Name)
		if err != nil {
			return verifyErr("user", uint32(i.UID), err)
		}
		if !ok {
			logger.Debugf("Suggested user ID %d for %s already used.", i.UID, i.Name)
			i.UIDSet = false
		}
	}

	// If that did not work, derive it from the hint path.
	if !i.UIDSet {
		if c, found := s.uidFromPath(i); found {
			if c == 0 || c > s.UIDMax {
				logger.Debugf("User ID %d of file not suitable for %s.", c, i.Name)
			} else {
				ok, err := s.uidIsOK(c, i.Name)
				if err != nil {
					return verifyErr("user", uint32(c), err)
				}
				if ok {
					i.UID = c
					i.UIDSet = true
				} else {
					logger.Debugf("User ID %d of file for %s is already used.", c, i.Name)
				}
			}
		}
	}

	// Otherwise reuse the group ID.
	if !i.UIDSet && i.GIDSet {
		ok, err := s.uidIsOK(userdb.UID(i.GID), i.Name)
		if err != nil {
			return verifyErr("user", uint32(i.GID), err)
		}
		if ok {
			i.UID = userdb.UID(i.GID)
			i.UIDSet = true
		}
	}

	// And if that did not work either, find a free one.
	if !i.UIDSet {
		uid, err := scanFree(&s.searchUID, func(u userdb.UID) (bool, error) {
			return s.uidIsOK(u, i.Name)
		})
		if err != nil {
			logger.Errorf("No free user ID available for %s.", i.Name)
			return fmt.Errorf("user %s: %w", i.Name, err)
		}
		i.UID = uid
		i.UIDSet = true
	}

	s.pendingUIDs[i.UID] = i
	i.Pending = true
	logger.Infof("Creating user %s (%s) with uid %d and gid %d.", i.Name, i.Description, i.UID, i.GID)

	return nil
}

// uidFromPath derives a candidate UID from the item's hint paths: the owner
// of the UID path, or failing that the group of the GID path reused as a
// UID. Stat failures just mean no candidate.
func (s *Session) uidFromPath(i *Item) (userdb.UID, bool) {
	if i.UIDPath != "" {
		if st, err := statPath(s.Root.Join(i.UIDPath)); err == nil {
			return userdb.UID(st.Uid), true
		}
	}
	if i.GIDPath != "" {
		if st, err := statPath(s.Root.Join(i.GIDPath)); err == nil {
			return userdb.UID(st.Gid), true
		}
	}
	return 0, false
}

// gidFromPath derives a candidate GID from the group of the GID path, or
// failing that the group of the UID path.
func (s *Session) gidFromPath(i *Item) (userdb.GID, bool) {
	if i.GIDPath != "" {
		if st, err := statPath(s.Root.Join(i.GIDPath)); err == nil {
			return userdb.GID(st.Gid), true
		}
	}
	if i.UIDPath != "" {
		if st, err := statPath(s.Root.Join(i.UIDPath)); err == nil {
			return userdb.GID(st.Gid), true
		}
	}
	return 0, false
}
