package authz

import (
	"log/slog"
	"strings"

	"artemis/internal/domain/models"
	"artemis/internal/lib/secret"
)

// Failure messages surfaced to clients. These are part of the contract:
// callers distinguish failure modes by message.
const (
	MsgUnauthorized      = "unauthorized"
	MsgNotAuthenticated  = "authentication failed, please sign in again"
	MsgNoMatchingRole    = "user has no matching role"
	MsgNoMatchingClaim   = "user has no matching claim"
	MsgNoActionName      = "cannot resolve action name"
	MsgNoActionNameClaim = "no matching action-name claim"
	MsgNoRoutePath       = "cannot resolve route path"
	MsgNoRoutePathClaim  = "no matching route-path claim"
)

type Decision struct {
	Allowed bool
	Message string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(message string) Decision {
	return Decision{Message: message}
}

// EventProducer receives authorization-denial audit events. May be nil.
type EventProducer interface {
	SendEvent(event map[string]interface{}, topic models.Topic)
}

// Handler evaluates one requirement per call. Evaluation is stateless and
// succeeds on the first matching branch; requirement types are never
// AND-composed inside one policy. That branch-taking order is load-bearing:
// changing it silently changes which requests are authorized.
type Handler struct {
	log    *slog.Logger
	events EventProducer
}

func NewHandler(log *slog.Logger, events EventProducer) *Handler {
	return &Handler{log: log, events: events}
}

func (h *Handler) Evaluate(p *models.Principal, req Requirement, route models.RouteInfo) Decision {
	d := evaluate(p, req, route)
	if !d.Allowed {
		h.log.Warn("authorization denied",
			slog.String("reason", d.Message),
			slog.String("action", route.ActionName),
			slog.String("route", route.RoutePath),
		)
		if h.events != nil {
			event := map[string]interface{}{
				"reason": d.Message,
				"action": route.ActionName,
				"route":  route.RoutePath,
			}
			if p.IsAuthenticated() {
				event["user_id"] = p.UserID.String()
				event["username"] = p.UserName
			}
			h.events.SendEvent(event, models.AuthDeniedTopic)
		}
	}
	return d
}

func evaluate(p *models.Principal, req Requirement, route models.RouteInfo) Decision {
	if _, ok := req.(AnonymousRequirement); ok {
		return allow()
	}

	if !p.IsAuthenticated() {
		return deny(MsgNotAuthenticated)
	}

	switch r := req.(type) {
	case TokenOnlyRequirement:
		return allow()

	case RolesRequirement:
		for _, required := range r.Roles {
			if p.HasRole(required) {
				return allow()
			}
		}
		return deny(MsgNoMatchingRole)

	case ClaimsRequirement:
		held := make(map[string]struct{})
		for _, c := range p.DomainClaims() {
			held[secret.CheckStamp(c.Type, c.Value)] = struct{}{}
		}
		for _, c := range r.Claims {
			if _, ok := held[secret.CheckStamp(c.Type, c.Value)]; ok {
				return allow()
			}
		}
		return deny(MsgNoMatchingClaim)

	case ActionNameRequirement:
		name := strings.TrimSpace(route.ActionName)
		if name == "" {
			return deny(MsgNoActionName)
		}
		if p.HasClaim(models.ClaimActionName, name) {
			return allow()
		}
		return deny(MsgNoActionNameClaim)

	case RoutePathRequirement:
		path := strings.TrimSpace(route.RoutePath)
		if path == "" {
			return deny(MsgNoRoutePath)
		}
		if p.HasClaim(models.ClaimRoutePath, path) {
			return allow()
		}
		return deny(MsgNoRoutePathClaim)
	}

	return deny(MsgUnauthorized)
}
