package auth

// Role is the role claim carried by access tokens of the external auth service.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleHR    Role = "hr"
)

// CanReadReports reports whether the role may read attendance reports.
func (r Role) CanReadReports() bool {
	return r == RoleAdmin || r == RoleHR
}
