package rbac

// Role constants
const (
	RoleOperator = "operator"
	RoleViewer   = "viewer"
)

// Permission constants
const (
	PermStartCampaign = "start_campaign"
	PermStopCampaign  = "stop_campaign"
	PermViewStatus    = "view_status"
	PermViewReport    = "view_report"
	PermRunProbe      = "run_probe"
)

// RolePermissions defines what each role can do.
var RolePermissions = map[string][]string{
	RoleOperator: {
		PermStartCampaign, PermStopCampaign, PermViewStatus, PermViewReport, PermRunProbe,
	},
	RoleViewer: {
		PermViewStatus, PermViewReport,
		// Viewer CANNOT: PermStartCampaign, PermStopCampaign, PermRunProbe
	},
}

// HasPermission checks if a role has a specific permission.
func HasPermission(role, permission string) bool {
	perms, ok := RolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == permission {
			return true
		}
	}
	return false
}

// IsControlOperation checks if a permission drives the live browser
// (operator-only).
func IsControlOperation(permission string) bool {
	return permission == PermStartCampaign || permission == PermStopCampaign
}
