package rbac

// Permissions gating the fund-tracking surface.
const (
	PermissionCreateProject   = "project:create"
	PermissionAllocateFunds   = "funds:allocate"
	PermissionClearLedger     = "ledger:clear"
	PermissionSubmitMilestone = "milestone:submit"
	PermissionApprovePayment  = "payment:approve"
	PermissionReadProject     = "project:read"
)

// Roles. These are the only roles the system knows; visibility filtering
// on top of them lives in the ledger package.
const (
	RoleGovernment     = "government"
	RoleLocalAuthority = "local_authority"
	RoleContractor     = "contractor"
	RolePublic         = "public"
)

var rolePermissions = map[string][]string{
	RoleGovernment: {
		PermissionReadProject,
		PermissionCreateProject,
		PermissionAllocateFunds,
		PermissionClearLedger,
		PermissionApprovePayment,
	},
	RoleLocalAuthority: {
		PermissionReadProject,
		PermissionApprovePayment,
	},
	RoleContractor: {
		PermissionReadProject,
		PermissionSubmitMilestone,
	},
	RolePublic: {
		PermissionReadProject,
	},
}

// IsValidRole reports whether s is one of the known roles.
func IsValidRole(s string) bool {
	_, ok := rolePermissions[s]
	return ok
}

// HasPermission checks whether a role carries the given permission.
func HasPermission(role string, permission string) bool {
	permissions, ok := rolePermissions[role]
	if !ok {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// CheckPermission returns an error instead of a boolean, for handler use.
func CheckPermission(role string, permission string) error {
	if !HasPermission(role, permission) {
		return &PermissionDeniedError{
			Role:       role,
			Permission: permission,
		}
	}
	return nil
}

// PermissionDeniedError indicates the role lacks the permission.
type PermissionDeniedError struct {
	Role       string
	Permission string
}

func (e *PermissionDeniedError) Error() string {
	return "insufficient permissions"
}
