// Package rbac maps the closed set of roles onto capabilities.
package rbac

import (
	"fmt"
	"strings"
)

type Role string

const (
	RoleOwner     Role = "owner"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleUser      Role = "user"
)

// ElevatedRoles are the roles stored in user_roles, highest first.
var ElevatedRoles = []Role{RoleOwner, RoleAdmin, RoleModerator}

type Capability int

const (
	ViewDashboard Capability = iota
	ManageInviteKeys
	ManageRoles
	BanUsers
	AdjustBalances
	ManageBadges
	ModerateConfigs
	UseAnimatedAvatar
)

var capabilities = map[Role][]Capability{
	RoleOwner: {
		ViewDashboard, ManageInviteKeys, ManageRoles, BanUsers, AdjustBalances,
		ManageBadges, ModerateConfigs, UseAnimatedAvatar,
	},
	RoleAdmin: {
		ViewDashboard, ManageInviteKeys, ManageRoles, BanUsers, AdjustBalances,
		ManageBadges, ModerateConfigs, UseAnimatedAvatar,
	},
	RoleModerator: {ModerateConfigs, UseAnimatedAvatar},
	RoleUser:      nil,
}

// ParseRole accepts any casing and surrounding whitespace.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := capabilities[r]; !ok {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Can reports whether any of roles grants cap.
func Can(roles []Role, cap Capability) bool {
	for _, r := range roles {
		for _, c := range capabilities[r] {
			if c == cap {
				return true
			}
		}
	}
	return false
}

// Has reports whether role is among roles.
func Has(roles []Role, role Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsStaff is true for any elevated role.
func IsStaff(roles []Role) bool {
	for _, r := range roles {
		if r != RoleUser {
			return true
		}
	}
	return false
}

// CanGrant reports whether an actor holding actorRoles may grant or revoke
// target. Only owners manage the owner role.
func CanGrant(actorRoles []Role, target Role) bool {
	if !Can(actorRoles, ManageRoles) {
		return false
	}
	if target == RoleOwner {
		return Has(actorRoles, RoleOwner)
	}
	return target != RoleUser
}
