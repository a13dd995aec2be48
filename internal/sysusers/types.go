package sysusers

import (
	"errors"

	"github.com/hnrobert/sysusers/internal/userdb"
)

var (
	// ErrIDExhausted means no free ID is left in the system range.
	ErrIDExhausted = errors.New("no free ID available in system range")
	// ErrShadowOnly means the shadow database has an entry the user
	// database lacks; the databases are already inconsistent.
	ErrShadowOnly = errors.New("shadow entry exists without user database entry")
	// ErrEntryCollision means an existing database entry clashes with a
	// pending creation at commit time.
	ErrEntryCollision = errors.New("existing entry collides with pending entry")
)

type ItemKind int

const (
	AddUser ItemKind = iota
	AddGroup
)

func (k ItemKind) String() string {
	if k == AddUser {
		return "user"
	}
	return "group"
}

// Item is one declared user or group. Identity is kind + name; insertion
// order of the configuration is irrelevant.
type Item struct {
	Kind ItemKind
	Name string

	// UIDPath and GIDPath are filesystem paths whose owner and group
	// supply ID candidates.
	UIDPath string
	GIDPath string

	Description string

	UID    userdb.UID
	GID    userdb.GID
	UIDSet bool
	GIDSet bool

	// Pending is set once the reconciler decides the item requires
	// creation at commit time.
	Pending bool
}

func (i *Item) equal(o *Item) bool {
	if i.Kind != o.Kind || i.Name != o.Name {
		return false
	}
	if i.UIDPath != o.UIDPath || i.GIDPath != o.GIDPath {
		return false
	}
	if i.Description != o.Description {
		return false
	}
	if i.UIDSet != o.UIDSet || (i.UIDSet && i.UID != o.UID) {
		return false
	}
	if i.GIDSet != o.GIDSet || (i.GIDSet && i.GID != o.GID) {
		return false
	}
	return true
}
