package session

// Role is a user's access tier on the platform.
type Role = string

const (
	// RoleDonor is the default tier for individual contributors.
	RoleDonor Role = "donor"
	// RoleBusiness covers registered business accounts.
	RoleBusiness Role = "business"
	// RoleCommunityHead coordinates a locality's donations and workshops.
	RoleCommunityHead Role = "community_head"
	// RoleMainAdmin is the first admin tier.
	RoleMainAdmin Role = "main_admin"
	// RoleMasterAdmin is the second admin tier.
	RoleMasterAdmin Role = "master_admin"
	// RoleSuperAdmin is the highest tier, reserved for one fixed identity.
	RoleSuperAdmin Role = "super_admin"
)

// RoleTheme is the presentation category derived from a role. Admin tiers
// and unknown roles carry no theme.
type RoleTheme = string

const (
	ThemeBusiness      RoleTheme = "business"
	ThemeCommunityHead RoleTheme = "community_head"
	ThemeDonor         RoleTheme = "donor"
	ThemeNone          RoleTheme = ""
)

// AllRoles returns the closed role set in escalating order.
func AllRoles() []Role {
	return []Role{
		RoleDonor,
		RoleBusiness,
		RoleCommunityHead,
		RoleMainAdmin,
		RoleMasterAdmin,
		RoleSuperAdmin,
	}
}

// AdminRoles returns the three escalating admin tiers.
func AdminRoles() []Role {
	return []Role{RoleMainAdmin, RoleMasterAdmin, RoleSuperAdmin}
}

// ParseRole safely parses a string into a Role.
func ParseRole(roleStr string) (Role, bool) {
	role := Role(roleStr)
	return role, IsValidRole(role)
}

// IsValidRole checks the role against the closed enumeration.
func IsValidRole(r Role) bool {
	switch r {
	case RoleDonor, RoleBusiness, RoleCommunityHead, RoleMainAdmin, RoleMasterAdmin, RoleSuperAdmin:
		return true
	default:
		return false
	}
}

// IsAdminRole reports whether the role sits in an admin tier.
func IsAdminRole(r Role) bool {
	switch r {
	case RoleMainAdmin, RoleMasterAdmin, RoleSuperAdmin:
		return true
	default:
		return false
	}
}

// ThemeForRole projects a role onto its presentation theme. Total and pure:
// every input maps to exactly one theme, admin and unknown roles to none.
func ThemeForRole(r Role) RoleTheme {
	switch r {
	case RoleBusiness:
		return ThemeBusiness
	case RoleCommunityHead:
		return ThemeCommunityHead
	case RoleDonor:
		return ThemeDonor
	default:
		return ThemeNone
	}
}

// roleAllowed checks membership in a guard's allowed set.
func roleAllowed(r Role, allowed []Role) bool {
	for _, a := range allowed {
		if a == r {
			return true
		}
	}
	return false
}
