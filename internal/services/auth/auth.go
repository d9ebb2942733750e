package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"artemis/internal/config"
	"artemis/internal/domain/models"
	"artemis/internal/lib/logger/sl"
	"artemis/internal/lib/secret"
	"artemis/internal/storage"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
)

type UserSaver interface {
	SaveUser(ctx context.Context, userName, email, passHash string) (uuid.UUID, error)
	UpdatePassHash(ctx context.Context, id uuid.UUID, passHash string) error
}

type UserProvider interface {
	User(ctx context.Context, userName string) (*models.User, error)
	UserRoles(ctx context.Context, userID uuid.UUID) ([]models.RoleInfo, error)
	UserClaims(ctx context.Context, userID uuid.UUID) ([]models.UserClaim, error)
	RoleClaims(ctx context.Context, roleIDs []uuid.UUID) ([]models.UserClaim, error)
}

// TokenStore is the cache holding token records and the user→active-token
// map. Implemented by repository/redis; tests substitute an in-memory fake.
type TokenStore interface {
	CacheToken(ctx context.Context, symbol string, record *models.TokenRecord) error
	FindToken(ctx context.Context, symbol string, refresh bool) (*models.TokenRecord, error)
	RemoveToken(ctx context.Context, symbol string) error
	BindUserToken(ctx context.Context, endType models.EndType, userID uuid.UUID, symbol string, expireSeconds int64) error
	FindUserToken(ctx context.Context, endType models.EndType, userID uuid.UUID, refresh bool) (string, error)
	UnbindUserToken(ctx context.Context, endType models.EndType, userID uuid.UUID) error
}

type EventProducer interface {
	SendEvent(event map[string]interface{}, topic models.Topic)
}

type Auth struct {
	log         *slog.Logger
	cfg         *config.Config
	hasher      *secret.Hasher
	usrSaver    UserSaver
	usrProvider UserProvider
	tokens      TokenStore
	events      EventProducer
	now         func() time.Time
}

func New(
	log *slog.Logger,
	cfg *config.Config,
	hasher *secret.Hasher,
	userSaver UserSaver, userProvider UserProvider,
	tokens TokenStore, events EventProducer,
) *Auth {
	return &Auth{
		log:         log,
		cfg:         cfg,
		hasher:      hasher,
		usrSaver:    userSaver,
		usrProvider: userProvider,
		tokens:      tokens,
		events:      events,
		now:         time.Now,
	}
}

// SignIn verifies credentials and issues an opaque token for the given end
// type. The previous token for the same (user, end type) is disowned by the
// user-map overwrite; its record stays in the cache until TTL expiry.
func (a *Auth) SignIn(ctx context.Context, userName, password string, endType models.EndType) (string, error) {
	const op = "auth.SignIn"

	log := a.log.With(
		slog.String("op", op),
		slog.String("username", userName),
		slog.String("end_type", string(endType)),
	)
	log.Info("attempting to sign in user")

	user, err := a.usrProvider.User(ctx, userName)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user not found", sl.Err(err))
			return "", ErrUserNotFound
		}
		log.Error("failed to get user", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	ok, needsRehash := a.hasher.VerifyHash(user.PassHash, password)
	if !ok {
		log.Warn("invalid credentials")
		return "", ErrInvalidCredentials
	}

	if needsRehash {
		// upgrade-on-verify: re-hash with current parameters while the
		// plaintext is at hand; a failed write keeps the old hash working
		if upgraded, err := a.hasher.ComputeHash(password); err == nil {
			if err := a.usrSaver.UpdatePassHash(ctx, user.ID, upgraded); err != nil {
				log.Warn("failed to upgrade pass hash", sl.Err(err))
			} else {
				log.Info("pass hash upgraded")
			}
		}
	}

	symbol, err := a.issueToken(ctx, user, endType)
	if err != nil {
		log.Error("failed to issue token", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if a.events != nil {
		a.events.SendEvent(map[string]interface{}{
			"user_id":  user.ID.String(),
			"username": user.UserName,
			"end_type": string(endType),
		}, models.SignInTopic)
	}

	log.Info("user signed in")

	return symbol, nil
}

// SignUp creates the user and signs it in on the initial end type.
func (a *Auth) SignUp(ctx context.Context, userName, email, password string) (string, error) {
	const op = "auth.SignUp"

	log := a.log.With(
		slog.String("op", op),
		slog.String("username", userName),
		slog.String("email", email),
	)
	log.Info("registering user")

	passHash, err := a.hasher.ComputeHash(password)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	id, err := a.usrSaver.SaveUser(ctx, userName, email, passHash)
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			log.Warn("user already exists", sl.Err(err))
			return "", fmt.Errorf("%s: %w", op, ErrUserExists)
		}
		log.Error("failed to save user", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	user := &models.User{
		ID:       id,
		UserName: userName,
		Email:    email,
		PassHash: passHash,
	}

	symbol, err := a.issueToken(ctx, user, models.EndTypeSignInitial)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if a.events != nil {
		a.events.SendEvent(map[string]interface{}{
			"user_id":  user.ID.String(),
			"username": user.UserName,
		}, models.SignUpTopic)
	}

	log.Info("user registered")

	return symbol, nil
}

// SignOut removes the token record and clears the user-map entry if it
// still points at the presented token. A newer session's mapping is left
// untouched.
func (a *Auth) SignOut(ctx context.Context, symbol string) (bool, error) {
	const op = "auth.SignOut"

	log := a.log.With(slog.String("op", op))

	record, err := a.tokens.FindToken(ctx, symbol, false)
	if err != nil || record == nil {
		log.Warn("sign-out for unknown token")
		return false, ErrInvalidToken
	}

	if err := a.tokens.RemoveToken(ctx, symbol); err != nil {
		log.Error("failed to remove token", sl.Err(err))
		return false, fmt.Errorf("%s: %w", op, err)
	}

	active, err := a.tokens.FindUserToken(ctx, record.EndType, record.UserID, false)
	if err == nil && active == symbol {
		if err := a.tokens.UnbindUserToken(ctx, record.EndType, record.UserID); err != nil {
			log.Warn("failed to unbind user token", sl.Err(err))
		}
	}

	if a.events != nil {
		a.events.SendEvent(map[string]interface{}{
			"user_id":  record.UserID.String(),
			"username": record.UserName,
			"end_type": string(record.EndType),
		}, models.SignOutTopic)
	}

	log.Info("user signed out", slog.String("username", record.UserName))

	return true, nil
}

func (a *Auth) issueToken(ctx context.Context, user *models.User, endType models.EndType) (string, error) {
	record, err := a.buildRecord(ctx, user, endType)
	if err != nil {
		return "", err
	}

	symbol := secret.TokenSymbol(user.UserName, a.now())

	if err := a.tokens.CacheToken(ctx, symbol, record); err != nil {
		return "", err
	}
	if err := a.tokens.BindUserToken(ctx, endType, user.ID, symbol, record.Expire); err != nil {
		return "", err
	}

	return symbol, nil
}

// buildRecord snapshots the user's roles and claims. The record never
// changes after this point; permission edits take effect at next sign-in.
func (a *Auth) buildRecord(ctx context.Context, user *models.User, endType models.EndType) (*models.TokenRecord, error) {
	roles, err := a.usrProvider.UserRoles(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	userClaims, err := a.usrProvider.UserClaims(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	roleIDs := make([]uuid.UUID, 0, len(roles))
	for _, role := range roles {
		roleIDs = append(roleIDs, role.ID)
	}
	roleClaims, err := a.usrProvider.RoleClaims(ctx, roleIDs)
	if err != nil {
		return nil, err
	}

	return &models.TokenRecord{
		UserID:     user.ID,
		UserName:   user.UserName,
		EndType:    endType,
		Expire:     a.cfg.Token.ExpireSeconds,
		UserClaims: stampClaims(userClaims),
		RoleClaims: stampClaims(roleClaims),
		Roles:      roles,
	}, nil
}

func stampClaims(claims []models.UserClaim) []models.ClaimPackage {
	packages := make([]models.ClaimPackage, 0, len(claims))
	for _, c := range claims {
		packages = append(packages, models.ClaimPackage{
			ClaimType:  c.ClaimType,
			ClaimValue: c.ClaimValue,
			CheckStamp: secret.CheckStamp(c.ClaimType, c.ClaimValue),
		})
	}
	return packages
}
