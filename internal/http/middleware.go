package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"artemis/internal/config"
	"artemis/internal/domain/models"
	"artemis/internal/services/auth"
	"artemis/internal/services/authz"

	"github.com/gin-gonic/gin"
)

const principalCtxKey = "artemis.principal"

// PrincipalOf returns the principal the guard middleware attached, or the
// anonymous principal.
func PrincipalOf(c *gin.Context) *models.Principal {
	if v, ok := c.Get(principalCtxKey); ok {
		if p, ok := v.(*models.Principal); ok {
			return p
		}
	}
	return models.Anonymous()
}

// RouteInfoOf derives endpoint metadata from the matched gin route. The
// action name joins the static path segments with "." (parameters and
// wildcards are skipped); the route path is the raw route pattern.
func RouteInfoOf(c *gin.Context) models.RouteInfo {
	pattern := c.FullPath()

	var segments []string
	for _, seg := range strings.Split(pattern, "/") {
		if seg == "" || strings.HasPrefix(seg, ":") || strings.HasPrefix(seg, "*") {
			continue
		}
		segments = append(segments, seg)
	}

	return models.RouteInfo{
		ActionName: strings.Join(segments, "."),
		RoutePath:  pattern,
	}
}

// Guard authenticates the request and enforces the named policy. Failures
// are transformed per transport: a JSON envelope for plain HTTP callers,
// grpc-web style status trailers for RPC-framed requests.
type Guard struct {
	log      *slog.Logger
	cfg      *config.Config
	authn    *auth.Authenticator
	engine   *authz.Handler
	registry *authz.Registry
}

func NewGuard(log *slog.Logger, cfg *config.Config, authn *auth.Authenticator, engine *authz.Handler, registry *authz.Registry) *Guard {
	return &Guard{log: log, cfg: cfg, authn: authn, engine: engine, registry: registry}
}

func (g *Guard) Require(policyName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		requirement, ok := g.registry.Policy(policyName)
		if !ok {
			g.deny(c, authz.MsgUnauthorized)
			return
		}

		route := RouteInfoOf(c)

		principal, authErr := g.authn.Authenticate(
			c.Request.Context(),
			c.GetHeader(g.cfg.Token.HeaderKey),
			route,
		)
		if principal == nil {
			principal = models.Anonymous()
		}
		c.Set(principalCtxKey, principal)

		if _, anonymous := requirement.(authz.AnonymousRequirement); !anonymous {
			if authErr != nil {
				g.log.Warn("authentication failed",
					slog.String("route", route.RoutePath),
					slog.String("reason", authErr.Error()),
				)
				g.deny(c, authErr.Error())
				return
			}
			if d := g.engine.Evaluate(principal, requirement, route); !d.Allowed {
				g.deny(c, d.Message)
				return
			}
		}

		c.Next()
	}
}

func (g *Guard) deny(c *gin.Context, message string) {
	if authz.IsGRPCContent(c.ContentType()) {
		// trailers-only permission-denied response for RPC-framed callers
		c.Header("Content-Type", "application/grpc")
		c.Header("Grpc-Status", strconv.Itoa(grpcPermissionDenied))
		c.Header("Grpc-Message", message)
		c.AbortWithStatus(http.StatusOK)
		return
	}

	c.AbortWithStatusJSON(http.StatusOK, authz.Denied(message))
}

const grpcPermissionDenied = 7
