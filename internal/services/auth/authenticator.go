package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"artemis/internal/config"
	"artemis/internal/domain/models"
	"artemis/internal/lib/logger/sl"
	"artemis/internal/repository"
)

var (
	ErrNoToken       = errors.New("no token supplied")
	ErrInvalidToken  = errors.New("invalid token")
	ErrMultiEndLogin = errors.New("multi-end login not permitted")
)

// Authenticator classifies every inbound request as unauthenticated,
// authenticated-but-invalid, or authenticated-with-principal. It never
// panics past its boundary: any unexpected failure becomes an
// authentication error carrying the underlying message.
type Authenticator struct {
	log    *slog.Logger
	cfg    *config.Config
	tokens TokenStore
}

func NewAuthenticator(log *slog.Logger, cfg *config.Config, tokens TokenStore) *Authenticator {
	return &Authenticator{log: log, cfg: cfg, tokens: tokens}
}

// Authenticate resolves the raw header value into a principal. Route
// metadata is attached as claims so route-based requirements can evaluate
// against the snapshot that authenticated the request.
func (a *Authenticator) Authenticate(ctx context.Context, headerValue string, route models.RouteInfo) (principal *models.Principal, err error) {
	const op = "auth.Authenticate"

	defer func() {
		if rec := recover(); rec != nil {
			principal = nil
			err = fmt.Errorf("%s: %v", op, rec)
		}
	}()

	symbol, err := a.stripScheme(headerValue)
	if err != nil {
		return nil, err
	}

	record, err := a.tokens.FindToken(ctx, symbol, true)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil, ErrInvalidToken
		}
		a.log.Warn("token lookup failed", slog.String("op", op), sl.Err(err))
		return nil, err
	}
	if record == nil {
		return nil, ErrInvalidToken
	}

	if !a.cfg.Token.EnableMultiEnd {
		active, err := a.tokens.FindUserToken(ctx, record.EndType, record.UserID, true)
		if err != nil && !errors.Is(err, repository.ErrTokenNotFound) {
			a.log.Warn("user map lookup failed", slog.String("op", op), sl.Err(err))
			return nil, err
		}
		if active != symbol {
			return nil, ErrMultiEndLogin
		}
	}

	return buildPrincipal(symbol, record, route), nil
}

// stripScheme trims the optional scheme prefix, case-insensitively, and
// validates that a non-empty token remains.
func (a *Authenticator) stripScheme(headerValue string) (string, error) {
	token := strings.TrimSpace(headerValue)
	if token == "" {
		return "", ErrNoToken
	}

	prefix := a.cfg.Token.Scheme + " "
	if len(token) > len(prefix) && strings.EqualFold(token[:len(prefix)], prefix) {
		token = strings.TrimSpace(token[len(prefix):])
	}
	if token == "" {
		return "", ErrNoToken
	}

	return token, nil
}

func buildPrincipal(symbol string, record *models.TokenRecord, route models.RouteInfo) *models.Principal {
	claims := make([]models.Claim, 0,
		6+len(record.Roles)+len(record.UserClaims)+len(record.RoleClaims))

	claims = append(claims,
		models.Claim{Type: models.ClaimAuthorization, Value: symbol},
		models.Claim{Type: models.ClaimUserID, Value: record.UserID.String()},
		models.Claim{Type: models.ClaimUserName, Value: record.UserName},
		models.Claim{Type: models.ClaimEndType, Value: string(record.EndType)},
	)

	for _, role := range record.Roles {
		claims = append(claims, models.Claim{Type: models.ClaimRole, Value: role.Name})
	}
	for _, c := range record.UserClaims {
		claims = append(claims, models.Claim{Type: c.ClaimType, Value: c.ClaimValue})
	}
	for _, c := range record.RoleClaims {
		claims = append(claims, models.Claim{Type: c.ClaimType, Value: c.ClaimValue})
	}

	claims = append(claims,
		models.Claim{Type: models.ClaimMateActionName, Value: route.ActionName},
		models.Claim{Type: models.ClaimMateRoutePath, Value: route.RoutePath},
	)

	return &models.Principal{
		Token:         symbol,
		UserID:        record.UserID,
		UserName:      record.UserName,
		EndType:       record.EndType,
		Authenticated: true,
		Claims:        claims,
	}
}
