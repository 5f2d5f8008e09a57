package types

import "strings"

// ClubRole is a tier of a user's relation to a club.
type ClubRole uint8

const (
	RoleMember ClubRole = 1 << iota
	RoleAdmin
	RoleOwner
)

func (r ClubRole) String() string {
	switch r {
	case RoleMember:
		return "member"
	case RoleAdmin:
		return "admin"
	case RoleOwner:
		return "owner"
	default:
		return "unknown"
	}
}

// RoleSet is a set of club roles.
type RoleSet uint8

// NewRoleSet builds a set holding the given roles.
func NewRoleSet(roles ...ClubRole) RoleSet {
	var s RoleSet
	for _, role := range roles {
		s = s.With(role)
	}
	return s
}

// With returns the set with role added.
func (s RoleSet) With(role ClubRole) RoleSet {
	return s | RoleSet(role)
}

// Has reports whether role is in the set.
func (s RoleSet) Has(role ClubRole) bool {
	return s&RoleSet(role) != 0
}

// Intersects reports whether the two sets share at least one role.
func (s RoleSet) Intersects(other RoleSet) bool {
	return s&other != 0
}

// Empty reports whether the set holds no role.
func (s RoleSet) Empty() bool {
	return s == 0
}

// Roles lists the roles in the set from lowest to highest tier.
func (s RoleSet) Roles() []ClubRole {
	var roles []ClubRole
	for _, role := range []ClubRole{RoleMember, RoleAdmin, RoleOwner} {
		if s.Has(role) {
			roles = append(roles, role)
		}
	}
	return roles
}

func (s RoleSet) String() string {
	roles := s.Roles()
	if len(roles) == 0 {
		return "none"
	}
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, role.String())
	}
	return strings.Join(names, "|")
}

var (
	// AnyMember admits members, admins and owners.
	AnyMember = NewRoleSet(RoleMember, RoleAdmin, RoleOwner)
	// AdminOrOwner admits admins and owners.
	AdminOrOwner = NewRoleSet(RoleAdmin, RoleOwner)
	// OwnerOnly admits the owner.
	OwnerOnly = NewRoleSet(RoleOwner)
)
