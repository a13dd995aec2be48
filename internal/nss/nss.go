// Package nss queries the host's account resolver for users and groups.
//
// Results are advisory: absence means "not observed here", not "absent
// globally". The probe is only consulted when operating on the live root,
// since the resolver cannot see an alternate filesystem root.
package nss

import (
	"errors"
	"os"
	"os/user"
	"strconv"

	"github.com/hnrobert/sysusers/internal/userdb"
)

type User struct {
	Name  string
	UID   userdb.UID
	GID   userdb.GID
	Gecos string
}

type Group struct {
	Name string
	GID  userdb.GID
}

// Probe resolves account records by name and numeric ID. A nil record with a
// nil error means the resolver has no such entry.
type Probe interface {
	UserByName(name string) (*User, error)
	UserByID(uid userdb.UID) (*User, error)
	GroupByName(name string) (*Group, error)
	GroupByID(gid userdb.GID) (*Group, error)
	// ShadowByName reports whether a shadow record exists for name.
	ShadowByName(name string) (bool, error)
}

// System resolves through the standard library's user database lookups,
// which go through the platform resolver, and through /etc/shadow for the
// shadow database.
type System struct{}

func (System) UserByName(name string) (*User, error) {
	u, err := user.Lookup(name)
	if err != nil {
		var unknown user.UnknownUserError
		if errors.As(err, &unknown) {
			return nil, nil
		}
		return nil, err
	}
	return convertUser(u)
}

func (System) UserByID(uid userdb.UID) (*User, error) {
	u, err := user.LookupId(strconv.FormatUint(uint64(uid), 10))
	if err != nil {
		var unknown user.UnknownUserIdError
		if errors.As(err, &unknown) {
			return nil, nil
		}
		return nil, err
	}
	return convertUser(u)
}

func (System) GroupByName(name string) (*Group, error) {
	g, err := user.LookupGroup(name)
	if err != nil {
		var unknown user.UnknownGroupError
		if errors.As(err, &unknown) {
			return nil, nil
		}
		return nil, err
	}
	return convertGroup(g)
}

func (System) GroupByID(gid userdb.GID) (*Group, error) {
	g, err := user.LookupGroupId(strconv.FormatUint(uint64(gid), 10))
	if err != nil {
		var unknown user.UnknownGroupIdError
		if errors.As(err, &unknown) {
			return nil, nil
		}
		return nil, err
	}
	return convertGroup(g)
}

func (System) ShadowByName(name string) (bool, error) {
	sf, err := userdb.LoadShadow("/etc/shadow")
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return sf.Find(name) != nil, nil
}

func convertUser(u *user.User) (*User, error) {
	uid, err := strconv.ParseUint(u.Uid, 10, 32)
	if err != nil {
		return nil, err
	}
	gid, err := strconv.ParseUint(u.Gid, 10, 32)
	if err != nil {
		return nil, err
	}
	return &User{
		Name:  u.Username,
		UID:   userdb.UID(uid),
		GID:   userdb.GID(gid),
		Gecos: u.Name,
	}, nil
}

func convertGroup(g *user.Group) (*Group, error) {
	gid, err := strconv.ParseUint(g.Gid, 10, 32)
	if err != nil {
		return nil, err
	}
	return &Group{Name: g.Name, GID: userdb.GID(gid)}, nil
}
