// Package domain contains core concepts of the fences system.
// This file defines Member entities and the Directory aggregate.
// No runtime, storage, or UI logic should be added here.
package domain

import (
	"time"

	"github.com/samber/lo"
)

// Role filters directory listings.
type Role string

const (
	RoleAll    Role = "all"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// NoDeliveryAddress marks a member that never interacted with the bot
// and therefore cannot be reached by a broadcast.
const NoDeliveryAddress int64 = 0

// Member is an invited participant. Username is the stable external
// identity; Label is the unique display alias shown to other members.
type Member struct {
	Username        string `cbor:"username" validate:"required,excludesall=@"`
	Label           string `cbor:"label" validate:"required"`
	DeliveryAddress int64  `cbor:"delivery_address,omitempty"`
	IsAdmin         bool   `cbor:"is_admin"`
}

// Reachable reports whether the member has a known delivery address.
func (m Member) Reachable() bool {
	return m.DeliveryAddress != NoDeliveryAddress
}

// Directory is the singleton record of all members plus the global
// expiration timestamp. Zero value is a valid empty directory.
type Directory struct {
	Members      []Member   `cbor:"members"`
	ExpirationAt *time.Time `cbor:"expiration_at,omitempty"`
}

// FindByUsername returns the member with the given username, if any.
func (d Directory) FindByUsername(username string) (Member, bool) {
	return lo.Find(d.Members, func(m Member) bool { return m.Username == username })
}

// FindByLabel returns the member with the given label, if any.
func (d Directory) FindByLabel(label string) (Member, bool) {
	return lo.Find(d.Members, func(m Member) bool { return m.Label == label })
}

// Resolve accepts either a username or a label and returns the matching
// member. Labels are tried first since that is what the keyboards carry.
func (d Directory) Resolve(identifier string) (Member, bool) {
	if m, ok := d.FindByLabel(identifier); ok {
		return m, true
	}
	return d.FindByUsername(identifier)
}

// WithRole filters the member list by role.
func (d Directory) WithRole(role Role) []Member {
	switch role {
	case RoleAdmin:
		return lo.Filter(d.Members, func(m Member, _ int) bool { return m.IsAdmin })
	case RoleMember:
		return lo.Filter(d.Members, func(m Member, _ int) bool { return !m.IsAdmin })
	default:
		return d.Members
	}
}

// Expired reports whether the directory's expiration timestamp has
// passed at the given instant. An unset timestamp never expires.
func (d Directory) Expired(now time.Time) bool {
	return d.ExpirationAt != nil && d.ExpirationAt.Before(now)
}
