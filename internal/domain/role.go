package domain

// Role identifies an account's permission level.
type Role string

// Role constants define the allowed user roles.
const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ValidRoles returns the set of valid user roles.
func ValidRoles() []Role {
	return []Role{RoleUser, RoleAdmin}
}

// IsValidRole checks whether the given role string is a valid user role.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles() {
		if string(r) == role {
			return true
		}
	}
	return false
}
