package authz

import (
	"fmt"

	"artemis/internal/config"
	"artemis/internal/domain/models"
)

// Built-in policy names.
const (
	PolicyAnonymous  = "Anonymous"
	PolicyToken      = "Token"
	PolicyAdmin      = "Admin"
	PolicyActionName = "ActionName"
	PolicyRoutePath  = "RoutePath"
)

// Registry binds policy names to requirement instances. One name maps to
// exactly one requirement; multi-value sets live inside Roles/Claims
// requirements, never across them.
type Registry struct {
	policies map[string]Requirement
}

// NewRegistry builds the built-in policies plus the extension policies from
// configuration. An extension entry must set exactly one of roles/claims.
func NewRegistry(extensions []config.PolicyConfig) (*Registry, error) {
	policies := map[string]Requirement{
		PolicyAnonymous:  AnonymousRequirement{},
		PolicyToken:      TokenOnlyRequirement{},
		PolicyAdmin:      RolesRequirement{Roles: []string{"Admin"}},
		PolicyActionName: ActionNameRequirement{},
		PolicyRoutePath:  RoutePathRequirement{},
	}

	for _, ext := range extensions {
		if ext.Name == "" {
			return nil, fmt.Errorf("extension policy with empty name")
		}
		if _, exists := policies[ext.Name]; exists {
			return nil, fmt.Errorf("policy %q already registered", ext.Name)
		}

		switch {
		case len(ext.Roles) > 0 && len(ext.Claims) > 0:
			return nil, fmt.Errorf("policy %q sets both roles and claims", ext.Name)
		case len(ext.Roles) > 0:
			policies[ext.Name] = RolesRequirement{Roles: ext.Roles}
		case len(ext.Claims) > 0:
			claims := make([]models.Claim, 0, len(ext.Claims))
			for _, c := range ext.Claims {
				claims = append(claims, models.Claim{Type: c.Type, Value: c.Value})
			}
			policies[ext.Name] = ClaimsRequirement{Claims: claims}
		default:
			return nil, fmt.Errorf("policy %q sets neither roles nor claims", ext.Name)
		}
	}

	return &Registry{policies: policies}, nil
}

func (r *Registry) Policy(name string) (Requirement, bool) {
	req, ok := r.policies[name]
	return req, ok
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.policies))
	for name := range r.policies {
		names = append(names, name)
	}
	return names
}
