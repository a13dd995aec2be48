package sysusers

import (
	"fmt"
	"os"

	"github.com/hnrobert/sysusers/internal/userdb"
)

// loadDatabases reads the on-disk tables into the four name and ID
// mappings. A missing file is an empty database. Duplicate entries within a
// file are tolerated, first one wins.
func (s *Session) loadDatabases() error {
	s.dbUserName = make(map[string]userdb.UID)
	s.dbUserID = make(map[userdb.UID]string)
	s.dbGroupName = make(map[string]userdb.GID)
	s.dbGroupID = make(map[userdb.GID]string)

	pf, err := userdb.LoadPasswd(s.Root.Join(etcPasswd))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load user database: %w", err)
	}
	if pf != nil {
		for _, e := range pf.Entries() {
			if _, ok := s.dbUserName[e.Name]; !ok {
				s.dbUserName[e.Name] = e.UID
			}
			if _, ok := s.dbUserID[e.UID]; !ok {
				s.dbUserID[e.UID] = e.Name
			}
		}
	}

	gf, err := userdb.LoadGroup(s.Root.Join(etcGroup))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load group database: %w", err)
	}
	if gf != nil {
		for _, e := range gf.Entries() {
			if _, ok := s.dbGroupName[e.Name]; !ok {
				s.dbGroupName[e.Name] = e.GID
			}
			if _, ok := s.dbGroupID[e.GID]; !ok {
				s.dbGroupID[e.GID] = e.Name
			}
		}
	}

	return nil
}
