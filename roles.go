package auth

// UserRole is the user's platform role
type UserRole string

const (
	// RoleUser is the default role assigned at registration
	RoleUser UserRole = "user"
	// RoleAdmin can manage users and tenant configuration
	RoleAdmin UserRole = "admin"
	// RoleService identifies machine-to-machine credentials
	RoleService UserRole = "service"
)

// IsValid checks if the role is one of the predefined valid roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleService:
		return true
	default:
		return false
	}
}

// IsAtLeast checks if this role meets the minimum required level
func (r UserRole) IsAtLeast(minRole UserRole) bool {
	roleHierarchy := map[UserRole]int{
		RoleService: 0,
		RoleUser:    1,
		RoleAdmin:   2,
	}

	currentLevel, exists := roleHierarchy[r]
	if !exists {
		return false
	}

	minLevel, exists := roleHierarchy[minRole]
	if !exists {
		return false
	}

	return currentLevel >= minLevel
}

// Authorities derives the authority set granted by a role. It is a pure
// function of the role, higher roles inherit the authorities below them.
func Authorities(r UserRole) []string {
	switch r {
	case RoleAdmin:
		return []string{"ROLE_ADMIN", "ROLE_USER"}
	case RoleUser:
		return []string{"ROLE_USER"}
	case RoleService:
		return []string{"ROLE_SERVICE"}
	default:
		return nil
	}
}

// GetAllRoles returns all predefined roles in hierarchical order
func GetAllRoles() []UserRole {
	return []UserRole{
		RoleService,
		RoleUser,
		RoleAdmin,
	}
}

// ParseRole safely parses a string into a UserRole type
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, role.IsValid()
}
