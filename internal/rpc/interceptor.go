package rpc

import (
	"context"
	"log/slog"
	"strings"

	"artemis/internal/config"
	"artemis/internal/domain/models"
	"artemis/internal/services/auth"
	"artemis/internal/services/authz"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

type principalKey struct{}

// PrincipalFromContext returns the principal attached by AuthInterceptor,
// or the anonymous principal when the method ran under the Anonymous policy.
func PrincipalFromContext(ctx context.Context) *models.Principal {
	if p, ok := ctx.Value(principalKey{}).(*models.Principal); ok {
		return p
	}
	return models.Anonymous()
}

// RouteInfoOf derives endpoint metadata from a gRPC full method name:
// "/artemis.Auth/SignIn" resolves to action name "artemis.Auth.SignIn",
// the route path is the full method itself.
func RouteInfoOf(fullMethod string) models.RouteInfo {
	action := strings.ReplaceAll(strings.TrimPrefix(fullMethod, "/"), "/", ".")
	return models.RouteInfo{
		ActionName: action,
		RoutePath:  fullMethod,
	}
}

// AuthInterceptor authenticates every unary call and evaluates the policy
// bound to the method. Methods absent from policyByMethod run under the
// Token policy; bind them to Anonymous explicitly to opt out.
func AuthInterceptor(
	log *slog.Logger,
	cfg *config.Config,
	authn *auth.Authenticator,
	engine *authz.Handler,
	registry *authz.Registry,
	policyByMethod map[string]string,
) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		policyName, ok := policyByMethod[info.FullMethod]
		if !ok {
			policyName = authz.PolicyToken
		}
		requirement, ok := registry.Policy(policyName)
		if !ok {
			return nil, authz.DeniedStatus(authz.MsgUnauthorized)
		}

		route := RouteInfoOf(info.FullMethod)

		principal, authErr := authn.Authenticate(ctx, headerValue(ctx, cfg.Token.HeaderKey), route)
		if principal == nil {
			principal = models.Anonymous()
		}

		if _, anonymous := requirement.(authz.AnonymousRequirement); !anonymous {
			if authErr != nil {
				log.Warn("authentication failed",
					slog.String("method", info.FullMethod),
					slog.String("reason", authErr.Error()),
				)
				return nil, authz.DeniedStatus(authErr.Error())
			}
			if d := engine.Evaluate(principal, requirement, route); !d.Allowed {
				return nil, authz.DeniedStatus(d.Message)
			}
		}

		return handler(context.WithValue(ctx, principalKey{}, principal), req)
	}
}

func headerValue(ctx context.Context, headerKey string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(strings.ToLower(headerKey))
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
