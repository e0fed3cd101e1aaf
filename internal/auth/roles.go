package auth

import "strings"

// Role grants access to a class of commands. Each role includes the ones
// ranked below it.
type Role string

const (
	// RoleViewer reads reports and records.
	RoleViewer Role = "viewer"
	// RoleAccountant records operations and settles schedules.
	RoleAccountant Role = "accountant"
	// RoleOwner edits settings, closes months and exports.
	RoleOwner Role = "owner"
)

var roleRanks = map[Role]int{
	RoleViewer:     1,
	RoleAccountant: 2,
	RoleOwner:      3,
}

// NormalizeRole lowercases value and reports whether it names a known role.
func NormalizeRole(value string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := roleRanks[role]; !ok {
		return "", false
	}
	return role, true
}

// Satisfies reports whether r may run commands requiring required.
// Unknown roles satisfy nothing.
func (r Role) Satisfies(required Role) bool {
	rank, ok := roleRanks[r]
	return ok && rank >= roleRanks[required]
}
