package entities

import (
	"fmt"
	"strings"
)

// Role is a member's privilege level within a team. Roles are totally
// ordered: owner > admin > member.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// ParseRole converts a raw role string into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleOwner:
		return RoleOwner, nil
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleMember:
		return RoleMember, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Valid reports whether r is exactly one of the known roles. Use ParseRole
// for raw input.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

// Priority returns the sort rank of the role; lower sorts first.
// Unknown roles sort last.
func (r Role) Priority() int {
	switch r {
	case RoleOwner:
		return 0
	case RoleAdmin:
		return 1
	case RoleMember:
		return 2
	}
	return 3
}

// Outranks reports whether r is strictly more privileged than other.
func (r Role) Outranks(other Role) bool {
	return r.Priority() < other.Priority()
}

// CanManage reports whether the role may manage a team's members, sites and
// resources.
func (r Role) CanManage() bool {
	return r == RoleOwner || r == RoleAdmin
}

// IsOwner reports whether the role is the team owner.
func (r Role) IsOwner() bool {
	return r == RoleOwner
}
