package auth

// Permission represents a named capability.
type Permission string

// Permission constants.
const (
	PermStateRead      Permission = "state:read"
	PermDeviceOperate  Permission = "device:operate"
	PermVoiceDispatch  Permission = "voice:dispatch"
	PermHistoryRead    Permission = "history:read"
	PermPlatformAccess Permission = "platform:access"
	PermSystemAdmin    Permission = "system:admin"
)

// rolePermissions is the single source of truth for the authorisation
// model.
var rolePermissions = map[Role][]Permission{
	RolePlatform: {
		PermStateRead,
		PermDeviceOperate,
		PermVoiceDispatch,
		PermPlatformAccess,
	},
	RoleOperator: {
		PermStateRead,
		PermDeviceOperate,
		PermVoiceDispatch,
		PermHistoryRead,
	},
	RoleAdmin: {
		PermStateRead,
		PermDeviceOperate,
		PermVoiceDispatch,
		PermHistoryRead,
		PermPlatformAccess,
		PermSystemAdmin,
	},
}

// HasPermission returns true if role has perm.
func HasPermission(role Role, perm Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}

// PermissionsForRole returns a copy of the permissions granted to role,
// or nil for unknown roles.
func PermissionsForRole(role Role) []Permission {
	perms := rolePermissions[role]
	if perms == nil {
		return nil
	}
	result := make([]Permission, len(perms))
	copy(result, perms)
	return result
}

// CanAccessPlatform reports whether the token may call the endpoint of
// platform. Platform tokens are bound to the platform they were issued
// for; admins may call any.
func (c *Claims) CanAccessPlatform(platform string) bool {
	if !HasPermission(c.Role, PermPlatformAccess) {
		return false
	}
	return c.Role == RoleAdmin || c.Platform == platform
}

// Can reports whether the token's role has perm.
func (c *Claims) Can(perm Permission) bool {
	return HasPermission(c.Role, perm)
}
