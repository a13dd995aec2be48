package sysusers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/hnrobert/sysusers/internal/nss"
	"github.com/hnrobert/sysusers/internal/userdb"
)

// fakeStat routes path hint lookups to canned ownership, keyed by the
// root-joined path.
func fakeStat(t *testing.T, owners map[string][2]uint32) {
	t.Helper()
	old := statPath
	statPath = func(path string) (*unix.Stat_t, error) {
		if o, ok := owners[path]; ok {
			return &unix.Stat_t{Uid: o[0], Gid: o[1]}, nil
		}
		return nil, unix.ENOENT
	}
	t.Cleanup(func() { statPath = old })
}

func TestAddGroupAlreadyInDatabase(t *testing.T) {
	s := newTestSession(t)
	writeEtc(t, s, "group", "input:x:104:\n")
	loadTestDatabases(t, s)

	i := &Item{Kind: AddGroup, Name: "input"}
	require.NoError(t, s.addGroup(i))

	assert.True(t, i.GIDSet)
	assert.Equal(t, userdb.GID(104), i.GID)
	assert.False(t, i.Pending)
	assert.Empty(t, s.pendingGIDs)
}

func TestAddGroupObservedViaNSS(t *testing.T) {
	s := newTestSession(t)
	loadTestDatabases(t, s)
	s.NSS = &fakeNSS{groups: map[string]*nss.Group{"render": {Name: "render", GID: 105}}}

	i := &Item{Kind: AddGroup, Name: "render"}
	require.NoError(t, s.addGroup(i))

	assert.Equal(t, userdb.GID(105), i.GID)
	assert.False(t, i.Pending)
}

func TestAddGroupLiteralHint(t *testing.T) {
	s := newTestSession(t)
	writeEtc(t, s, "group", "taken:x:500:\n")
	loadTestDatabases(t, s)

	free := &Item{Kind: AddGroup, Name: "fresh", GID: 400, GIDSet: true}
	require.NoError(t, s.addGroup(free))
	assert.Equal(t, userdb.GID(400), free.GID)
	assert.True(t, free.Pending)

	// A taken hint is cleared and the allocator takes over.
	clash := &Item{Kind: AddGroup, Name: "clash", GID: 500, GIDSet: true}
	require.NoError(t, s.addGroup(clash))
	assert.True(t, clash.Pending)
	assert.Equal(t, s.GIDMax, clash.GID, "falls back to the top of the range")
}

func TestAddGroupReusesPairedUID(t *testing.T) {
	s := newTestSession(t)
	loadTestDatabases(t, s)

	i := &Item{Kind: AddUser, Name: "svc", UID: 321, UIDSet: true}
	require.NoError(t, s.addGroup(i))
	assert.Equal(t, userdb.GID(321), i.GID)
}

func TestAddGroupPathHint(t *testing.T) {
	s := newTestSession(t)
	loadTestDatabases(t, s)
	fakeStat(t, map[string][2]uint32{
		s.Root.Join("/var/lib/foo"): {61, 61},
	})

	i := &Item{Kind: AddGroup, Name: "foo", GIDPath: "/var/lib/foo"}
	require.NoError(t, s.addGroup(i))
	assert.Equal(t, userdb.GID(61), i.GID)
	assert.True(t, i.Pending)
}

func TestAddGroupPathHintOutOfRange(t *testing.T) {
	s := newTestSession(t)
	loadTestDatabases(t, s)
	fakeStat(t, map[string][2]uint32{
		s.Root.Join("/var/lib/foo"): {0, 5000},
	})

	i := &Item{Kind: AddGroup, Name: "foo", GIDPath: "/var/lib/foo"}
	require.NoError(t, s.addGroup(i))
	assert.Equal(t, s.GIDMax, i.GID, "out of range hint falls through to the scan")
}

func TestAddUserAlreadyInDatabase(t *testing.T) {
	s := newTestSession(t)
	writeEtc(t, s, "passwd", "httpd:x:123:123::/:/sbin/nologin\n")
	loadTestDatabases(t, s)

	i := &Item{Kind: AddUser, Name: "httpd"}
	require.NoError(t, s.addUser(i))

	assert.True(t, i.UIDSet)
	assert.Equal(t, userdb.UID(123), i.UID)
	assert.False(t, i.Pending)
	assert.Empty(t, s.pendingUIDs)
}

func TestAddUserNSSAdoptsGecos(t *testing.T) {
	s := newTestSession(t)
	loadTestDatabases(t, s)
	s.NSS = &fakeNSS{users: map[string]*nss.User{
		"ldapsvc": {Name: "ldapsvc", UID: 77, GID: 77, Gecos: "Directory Service"},
	}}

	i := &Item{Kind: AddUser, Name: "ldapsvc", Description: "from config"}
	require.NoError(t, s.addUser(i))

	assert.Equal(t, userdb.UID(77), i.UID)
	assert.Equal(t, "Directory Service", i.Description)
	assert.False(t, i.Pending)
}

func TestAddUserShadowInconsistency(t *testing.T) {
	s := newTestSession(t)
	loadTestDatabases(t, s)
	s.NSS = &fakeNSS{shadow: map[string]bool{"ghost": true}}

	i := &Item{Kind: AddUser, Name: "ghost"}
	err := s.addUser(i)
	assert.True(t, errors.Is(err, ErrShadowOnly))
}

func TestAddUserGIDPathReusedAsUID(t *testing.T) {
	// A user item that only carries a GID path (folded in from a group
	// declaration) still derives a UID candidate: the path's group is
	// reused as the UID. This happens inside the path step, before the
	// resolved-GID reuse step.
	s := newTestSession(t)
	loadTestDatabases(t, s)
	fakeStat(t, map[string][2]uint32{
		s.Root.Join("/var/lib/bar"): {0, 61},
	})

	i := &Item{Kind: AddUser, Name: "bar", GIDPath: "/var/lib/bar"}
	require.NoError(t, s.addUser(i))
	assert.Equal(t, userdb.UID(61), i.UID)
}

func TestAddUserPathStepBeatsResolvedGID(t *testing.T) {
	// With both a usable path hint and a resolved GID, the path wins.
	s := newTestSession(t)
	loadTestDatabases(t, s)
	fakeStat(t, map[string][2]uint32{
		s.Root.Join("/var/lib/svc"): {88, 88},
	})

	i := &Item{Kind: AddUser, Name: "svc", UIDPath: "/var/lib/svc", GID: 300, GIDSet: true}
	require.NoError(t, s.addUser(i))
	assert.Equal(t, userdb.UID(88), i.UID)
}

func TestAddUserReusesResolvedGID(t *testing.T) {
	s := newTestSession(t)
	loadTestDatabases(t, s)

	i := &Item{Kind: AddUser, Name: "svc", GID: 300, GIDSet: true}
	require.NoError(t, s.addUser(i))
	assert.Equal(t, userdb.UID(300), i.UID)
}

func TestProcessItemFoldsGroupIntoUser(t *testing.T) {
	s := newTestSession(t)
	loadTestDatabases(t, s)

	u := &Item{Kind: AddUser, Name: "svc"}
	s.users["svc"] = u
	g := &Item{Kind: AddGroup, Name: "svc", GID: 42, GIDSet: true, GIDPath: "/var/lib/svc"}
	s.groups["svc"] = g

	require.NoError(t, s.processItem(g))

	assert.True(t, u.GIDSet)
	assert.Equal(t, userdb.GID(42), u.GID)
	assert.Equal(t, "/var/lib/svc", u.GIDPath)
	assert.Empty(t, s.pendingGIDs, "the standalone group is not created")
}

func TestProcessItemUserCreatesMatchedPair(t *testing.T) {
	s := newTestSession(t)
	loadTestDatabases(t, s)

	i := &Item{Kind: AddUser, Name: "httpd", Description: "HTTP server"}
	s.users["httpd"] = i
	require.NoError(t, s.processItem(i))

	require.True(t, i.Pending)
	assert.Equal(t, userdb.UID(i.GID), i.UID, "pair shares one numeric ID")
	assert.Same(t, i, s.pendingUIDs[i.UID])
	assert.Same(t, i, s.pendingGIDs[i.GID])
}

func TestReconcileOrderGroupsFirst(t *testing.T) {
	s := newTestSession(t)
	loadTestDatabases(t, s)

	s.users["svc"] = &Item{Kind: AddUser, Name: "svc"}
	s.groups["svc"] = &Item{Kind: AddGroup, Name: "svc", GID: 200, GIDSet: true}
	require.NoError(t, s.reconcile())

	u := s.users["svc"]
	assert.Equal(t, userdb.GID(200), u.GID, "folded hint survives into the pair")
	assert.Equal(t, userdb.UID(200), u.UID)
}
