package authz

import "artemis/internal/domain/models"

// Requirement is the closed set of authorization checks a policy can bind.
// The unexported marker keeps the variant set sealed so Evaluate's switch
// stays exhaustive.
type Requirement interface {
	requirement()
}

// AnonymousRequirement is always satisfied.
type AnonymousRequirement struct{}

// TokenOnlyRequirement is satisfied by any authenticated principal.
type TokenOnlyRequirement struct{}

// RolesRequirement is satisfied when the principal holds at least one of
// the named roles, compared case-insensitively.
type RolesRequirement struct {
	Roles []string
}

// ClaimsRequirement is satisfied when the check-stamps of the required
// claim tuples intersect the principal's user or role claim stamps.
type ClaimsRequirement struct {
	Claims []models.Claim
}

// ActionNameRequirement is satisfied when the principal holds an
// "ActionName" claim equal to the resolved action name of the request.
type ActionNameRequirement struct{}

// RoutePathRequirement is satisfied when the principal holds a "RoutePath"
// claim equal to the raw route pattern of the request.
type RoutePathRequirement struct{}

func (AnonymousRequirement) requirement()  {}
func (TokenOnlyRequirement) requirement()  {}
func (RolesRequirement) requirement()      {}
func (ClaimsRequirement) requirement()     {}
func (ActionNameRequirement) requirement() {}
func (RoutePathRequirement) requirement()  {}
