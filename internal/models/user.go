package models

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleSuperAdmin  UserRole = "SUPERADMIN"
	RoleAdmin       UserRole = "ADMIN"
	RoleMentor      UserRole = "MENTOR"
	RoleParticipant UserRole = "PARTICIPANT"
)

// Valid reports whether the role is known.
func (r UserRole) Valid() bool {
	return r.IsStaff() || r == RoleParticipant
}

// IsStaff reports whether the role acts on behalf of the institution.
func (r UserRole) IsStaff() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleMentor:
		return true
	}
	return false
}

// IsAdmin reports whether the role may take administrative decisions.
func (r UserRole) IsAdmin() bool {
	return r == RoleSuperAdmin || r == RoleAdmin
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// Actor identifies the caller of a service operation.
type Actor struct {
	ID   string
	Role UserRole
}
