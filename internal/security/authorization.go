package security

import (
	"fmt"
	"log/slog"

	"github.com/ShadowCodeSoftware/E-sante/internal/domain"
)

// Permission represents an action permission
type Permission string

const (
	PermReadClinical  Permission = "read_clinical"
	PermWriteClinical Permission = "write_clinical"
	PermViewDashboard Permission = "view_dashboard"
	PermManageProfile Permission = "manage_profile"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[domain.Role][]Permission{
	domain.RoleDoctor: {
		PermReadClinical,
		PermWriteClinical,
		PermViewDashboard,
		PermManageProfile,
	},
	domain.RolePatient: {
		PermReadClinical,
		PermViewDashboard,
		PermManageProfile,
	},
}

// AuthorizationService handles authorization checks
type AuthorizationService struct {
	logger *slog.Logger
}

// NewAuthorizationService creates a new authorization service
func NewAuthorizationService(logger *slog.Logger) *AuthorizationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthorizationService{
		logger: logger,
	}
}

// HasPermission checks if a role has a specific permission
func (as *AuthorizationService) HasPermission(role domain.Role, permission Permission) bool {
	for _, p := range RolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

// ValidatePermission validates that a role has a specific permission
func (as *AuthorizationService) ValidatePermission(role domain.Role, permission Permission) error {
	if !as.HasPermission(role, permission) {
		as.logger.Warn("permission denied",
			slog.String("role", string(role)),
			slog.String("permission", string(permission)),
		)
		return fmt.Errorf("permission denied: %s role cannot %s", role, permission)
	}
	return nil
}

// GetRolePermissions returns all permissions for a role
func (as *AuthorizationService) GetRolePermissions(role domain.Role) []Permission {
	return RolePermissions[role]
}
