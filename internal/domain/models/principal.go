package models

import (
	"strings"

	"github.com/google/uuid"
)

// Claim type vocabulary surfaced on an authenticated principal.
const (
	ClaimAuthorization  = "Authorization"
	ClaimUserID         = "UserId"
	ClaimUserName       = "UserName"
	ClaimEndType        = "EndType"
	ClaimRole           = "Role"
	ClaimActionName     = "ActionName"
	ClaimRoutePath      = "RoutePath"
	ClaimMateActionName = "MateActionName"
	ClaimMateRoutePath  = "MateRoutePath"
)

type Claim struct {
	Type  string
	Value string
}

// RouteInfo is the resolved endpoint metadata of the current request.
// Either field may be empty when the transport cannot resolve it.
type RouteInfo struct {
	ActionName string
	RoutePath  string
}

// Principal is the claims identity materialized from a TokenRecord for the
// lifetime of one request.
type Principal struct {
	Token         string
	UserID        uuid.UUID
	UserName      string
	EndType       EndType
	Authenticated bool
	Claims        []Claim
}

// Anonymous returns the unauthenticated principal.
func Anonymous() *Principal {
	return &Principal{}
}

func (p *Principal) IsAuthenticated() bool {
	return p != nil && p.Authenticated
}

// HasRole reports whether the principal holds a role claim matching name,
// compared case-insensitively.
func (p *Principal) HasRole(name string) bool {
	if p == nil {
		return false
	}
	for _, c := range p.Claims {
		if c.Type == ClaimRole && strings.EqualFold(c.Value, name) {
			return true
		}
	}
	return false
}

// ClaimValues returns every claim value of the given type, in claim order.
func (p *Principal) ClaimValues(claimType string) []string {
	if p == nil {
		return nil
	}
	var values []string
	for _, c := range p.Claims {
		if c.Type == claimType {
			values = append(values, c.Value)
		}
	}
	return values
}

func (p *Principal) HasClaim(claimType, value string) bool {
	if p == nil {
		return false
	}
	for _, c := range p.Claims {
		if c.Type == claimType && c.Value == value {
			return true
		}
	}
	return false
}

// reservedClaimTypes are the identity and request-metadata claims the
// authenticator itself attaches; they never participate in check-stamp
// intersections.
var reservedClaimTypes = map[string]struct{}{
	ClaimAuthorization:  {},
	ClaimUserID:         {},
	ClaimUserName:       {},
	ClaimEndType:        {},
	ClaimRole:           {},
	ClaimMateActionName: {},
	ClaimMateRoutePath:  {},
}

// DomainClaims returns the user and role claims carried over from the
// TokenRecord, excluding the reserved vocabulary above.
func (p *Principal) DomainClaims() []Claim {
	if p == nil {
		return nil
	}
	var claims []Claim
	for _, c := range p.Claims {
		if _, reserved := reservedClaimTypes[c.Type]; reserved {
			continue
		}
		claims = append(claims, c)
	}
	return claims
}
