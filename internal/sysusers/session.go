// Package sysusers reconciles declared system users and groups against the
// account databases and appends the missing entries in one atomic commit.
package sysusers

import (
	"fmt"
	"sort"

	"github.com/hnrobert/sysusers/internal/hostfs"
	"github.com/hnrobert/sysusers/internal/nss"
	"github.com/hnrobert/sysusers/internal/userdb"
)

// Upper bounds of the numeric range reserved for system accounts.
const (
	SystemUIDMax userdb.UID = 999
	SystemGIDMax userdb.GID = 999
)

const (
	etcPasswd = "/etc/passwd"
	etcGroup  = "/etc/group"
)

// Session owns all mutable state of one provisioning run: the declared
// items, the pending creations, the loaded databases, and the allocator
// cursors. It is built, run once, and dropped.
type Session struct {
	Root hostfs.Root

	// NSS is nil when an alternate root is in effect; the host resolver
	// only reflects the real root.
	NSS nss.Probe

	UIDMax userdb.UID
	GIDMax userdb.GID

	users  map[string]*Item
	groups map[string]*Item

	pendingUIDs map[userdb.UID]*Item
	pendingGIDs map[userdb.GID]*Item

	dbUserName  map[string]userdb.UID
	dbUserID    map[userdb.UID]string
	dbGroupName map[string]userdb.GID
	dbGroupID   map[userdb.GID]string

	searchUID userdb.UID
	searchGID userdb.GID
}

func NewSession(root string) *Session {
	s := &Session{
		Root:        hostfs.Root(root),
		UIDMax:      SystemUIDMax,
		GIDMax:      SystemGIDMax,
		users:       make(map[string]*Item),
		groups:      make(map[string]*Item),
		pendingUIDs: make(map[userdb.UID]*Item),
		pendingGIDs: make(map[userdb.GID]*Item),
	}
	s.searchUID = s.UIDMax
	s.searchGID = s.GIDMax
	if !s.Root.IsSet() {
		s.NSS = nss.System{}
	}
	return s
}

// Run executes everything from lock acquisition to the final rename. The
// declared sets must already be populated via ReadConfig. Past this point
// the first error aborts the run; the databases are left untouched.
func (s *Session) Run() error {
	lock, err := hostfs.TakePwdLock(s.Root)
	if err != nil {
		return fmt.Errorf("take lock: %w", err)
	}
	defer lock.Release()

	if err := s.loadDatabases(); err != nil {
		return err
	}
	if err := s.reconcile(); err != nil {
		return err
	}
	return s.writeFiles()
}

// reconcile decides an ID for every declared item. Groups go first so that
// a group declaration can fold into its matching user declaration.
func (s *Session) reconcile() error {
	for _, name := range sortedKeys(s.groups) {
		if err := s.processItem(s.groups[name]); err != nil {
			return err
		}
	}
	for _, name := range sortedKeys(s.users) {
		if err := s.processItem(s.users[name]); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
