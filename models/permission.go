package models

// Permission represents a single named capability in the system
type Permission string

const (
	// Document permissions
	PermReadDocument   Permission = "read_document"
	PermWriteDocument  Permission = "write_document"
	PermDeleteDocument Permission = "delete_document"
	PermIngestDocument Permission = "ingest_document"

	// Chat permissions
	PermChat            Permission = "chat"
	PermChatWithContext Permission = "chat_with_context"

	// Administrative permissions
	PermManageUsers    Permission = "manage_users"
	PermManageModels   Permission = "manage_models"
	PermViewSystemLogs Permission = "view_system_logs"

	// Superadmin permissions
	PermManageSystem      Permission = "manage_system"
	PermManagePermissions Permission = "manage_permissions"
)

// AllPermissions lists every permission defined in the system
var AllPermissions = []Permission{
	PermReadDocument,
	PermWriteDocument,
	PermDeleteDocument,
	PermIngestDocument,
	PermChat,
	PermChatWithContext,
	PermManageUsers,
	PermManageModels,
	PermViewSystemLogs,
	PermManageSystem,
	PermManagePermissions,
}

// rolePermissions is the fixed role -> permission table. It is initialized
// once and never mutated; authorization relies only on set membership here,
// never on role ordering. Each role's set is a superset of the one below it
// by construction.
var rolePermissions = map[UserRole][]Permission{
	RoleSuperAdmin: {
		PermReadDocument,
		PermWriteDocument,
		PermDeleteDocument,
		PermIngestDocument,
		PermChat,
		PermChatWithContext,
		PermManageUsers,
		PermManageModels,
		PermViewSystemLogs,
		PermManageSystem,
		PermManagePermissions,
	},
	RoleAdmin: {
		PermReadDocument,
		PermWriteDocument,
		PermDeleteDocument,
		PermIngestDocument,
		PermChat,
		PermChatWithContext,
		PermManageUsers,
		PermViewSystemLogs,
	},
	RoleUser: {
		PermReadDocument,
		PermChat,
		PermChatWithContext,
	},
}

// PermissionsOf returns the permission set carried by a role. The returned
// slice is a copy; callers may not mutate the catalog through it.
func PermissionsOf(role UserRole) []Permission {
	perms, ok := rolePermissions[role]
	if !ok {
		return nil
	}
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

// RoleHasPermission reports whether the role's permission set contains perm
func RoleHasPermission(role UserRole, perm Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}

// PermissionStrings converts a permission slice to plain strings, for token
// claims and API responses
func PermissionStrings(perms []Permission) []string {
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = string(p)
	}
	return out
}

// ParsePermission validates a raw string against the defined permissions
func ParsePermission(s string) (Permission, bool) {
	for _, p := range AllPermissions {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}
