package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"artemis/internal/config"
	"artemis/internal/domain/models"
	"artemis/internal/lib/secret"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Token: config.TokenConfig{
			HeaderKey:      "Token",
			Scheme:         "Artemis",
			CachePrefix:    "artemis:token",
			UserMapPrefix:  "artemis:umap",
			ExpireSeconds:  3600,
			EnableMultiEnd: false,
		},
	}
}

type testEnv struct {
	cfg    *config.Config
	store  *fakeStore
	users  *fakeUsers
	events *recorder
	auth   *Auth
	authn  *Authenticator
	clock  time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testConfig()
	store := newFakeStore()
	users := newFakeUsers()
	events := &recorder{}

	hasher, err := secret.NewHasher(1_000) // keep tests fast
	require.NoError(t, err)

	env := &testEnv{
		cfg:    cfg,
		store:  store,
		users:  users,
		events: events,
		auth:   New(log, cfg, hasher, users, users, store, events),
		authn:  NewAuthenticator(log, cfg, store),
		clock:  time.Unix(1_700_000_000, 0),
	}

	// deterministic clock; tick to get distinct token symbols per sign-in
	env.auth.now = func() time.Time { return env.clock }

	return env
}

func (e *testEnv) tick() {
	e.clock = e.clock.Add(time.Second)
}

func (e *testEnv) register(t *testing.T, userName, password string) uuid.UUID {
	t.Helper()
	_, err := e.auth.SignUp(context.Background(), userName, userName+"@example.com", password)
	require.NoError(t, err)
	return e.users.byName[userName].ID
}

func TestSignUp_SignIn_HappyPath(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	userName := gofakeit.Username()
	password := gofakeit.Password(true, true, true, true, false, 12)

	initial, err := env.auth.SignUp(ctx, userName, gofakeit.Email(), password)
	require.NoError(t, err)
	require.NotEmpty(t, initial)

	// sign-up issues the token on the initial end type
	record, err := env.store.FindToken(ctx, initial, false)
	require.NoError(t, err)
	assert.Equal(t, models.EndTypeSignInitial, record.EndType)

	env.tick()
	token, err := env.auth.SignIn(ctx, userName, password, models.EndTypeWeb)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	record, err = env.store.FindToken(ctx, token, false)
	require.NoError(t, err)
	assert.Equal(t, userName, record.UserName)
	assert.Equal(t, models.EndTypeWeb, record.EndType)
	assert.Equal(t, env.cfg.Token.ExpireSeconds, record.Expire)

	assert.Equal(t, []models.Topic{models.SignUpTopic, models.SignInTopic}, env.events.topics)
}

func TestSignUp_DuplicateUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "carol", "super-secret-pw")

	_, err := env.auth.SignUp(ctx, "carol", "other@example.com", "super-secret-pw")
	require.ErrorIs(t, err, ErrUserExists)
}

func TestSignIn_InvalidCredentials(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "dave", "correct-password")

	_, err := env.auth.SignIn(ctx, "dave", "wrong-password", models.EndTypeWeb)
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.auth.SignIn(ctx, "nobody", "whatever-pw", models.EndTypeWeb)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestSignIn_UpgradesWeakHash(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id := env.register(t, "erin", "some-password")

	// plant a hash computed with fewer iterations than configured
	weak, err := secret.NewHasher(1)
	require.NoError(t, err)
	oldHash, err := weak.ComputeHash("some-password")
	require.NoError(t, err)
	require.NoError(t, env.users.UpdatePassHash(ctx, id, oldHash))

	env.tick()
	_, err = env.auth.SignIn(ctx, "erin", "some-password", models.EndTypeApp)
	require.NoError(t, err)

	assert.NotEqual(t, oldHash, env.users.byName["erin"].PassHash, "hash should be upgraded on verify")
}

func TestAuthenticate_HeaderHandling(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	route := models.RouteInfo{}

	env.register(t, "frank", "frank-password")
	env.tick()
	token, err := env.auth.SignIn(ctx, "frank", "frank-password", models.EndTypeWeb)
	require.NoError(t, err)

	// bare token
	p, err := env.authn.Authenticate(ctx, token, route)
	require.NoError(t, err)
	assert.True(t, p.IsAuthenticated())

	// scheme prefix, case-insensitive
	for _, header := range []string{
		"Artemis " + token,
		"artemis " + token,
		"ARTEMIS  " + token,
		"  Artemis " + token + "  ",
	} {
		p, err := env.authn.Authenticate(ctx, header, route)
		require.NoError(t, err, header)
		assert.Equal(t, token, p.Token)
	}

	// missing or blank header
	for _, header := range []string{"", "   ", "Artemis ", "Artemis   "} {
		_, err := env.authn.Authenticate(ctx, header, route)
		assert.ErrorIs(t, err, ErrNoToken, "header %q", header)
	}

	_, err = env.authn.Authenticate(ctx, "Artemis no-such-token", route)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticate_PrincipalClaims(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id := env.register(t, "grace", "grace-password")

	roleID := uuid.New()
	env.users.roles[id] = []models.RoleInfo{{ID: roleID, Name: "Admin"}}
	env.users.userClaims[id] = []models.UserClaim{{ClaimType: "dept", ClaimValue: "eng"}}
	env.users.roleClaims[roleID] = []models.UserClaim{{ClaimType: "ActionName", ClaimValue: "api.admin.policies"}}

	env.tick()
	token, err := env.auth.SignIn(ctx, "grace", "grace-password", models.EndTypeWeb)
	require.NoError(t, err)

	route := models.RouteInfo{ActionName: "api.admin.policies", RoutePath: "/api/admin/policies"}
	p, err := env.authn.Authenticate(ctx, "Artemis "+token, route)
	require.NoError(t, err)

	assert.Equal(t, "grace", p.UserName)
	assert.Equal(t, models.EndTypeWeb, p.EndType)
	assert.True(t, p.HasClaim(models.ClaimAuthorization, token))
	assert.True(t, p.HasClaim(models.ClaimUserID, id.String()))
	assert.True(t, p.HasClaim(models.ClaimUserName, "grace"))
	assert.True(t, p.HasClaim(models.ClaimEndType, string(models.EndTypeWeb)))
	assert.True(t, p.HasRole("admin"))
	assert.True(t, p.HasClaim("dept", "eng"))
	assert.True(t, p.HasClaim(models.ClaimActionName, "api.admin.policies"))
	assert.True(t, p.HasClaim(models.ClaimMateActionName, "api.admin.policies"))
	assert.True(t, p.HasClaim(models.ClaimMateRoutePath, "/api/admin/policies"))

	// role/user claims survive as domain claims for stamp intersection
	domain := p.DomainClaims()
	assert.Contains(t, domain, models.Claim{Type: "dept", Value: "eng"})
}

func TestAuthenticate_SingleSessionEnforcement(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	route := models.RouteInfo{}

	env.register(t, "alice", "alice-password")

	env.tick()
	t1, err := env.auth.SignIn(ctx, "alice", "alice-password", models.EndTypeWeb)
	require.NoError(t, err)

	p, err := env.authn.Authenticate(ctx, "Artemis "+t1, route)
	require.NoError(t, err)
	assert.Equal(t, "alice", p.UserName)

	env.tick()
	t2, err := env.auth.SignIn(ctx, "alice", "alice-password", models.EndTypeWeb)
	require.NoError(t, err)
	require.NotEqual(t, t1, t2)

	// the first token is disowned, not deleted: record is still cached
	// but the user map now points at the second token
	_, err = env.authn.Authenticate(ctx, "Artemis "+t1, route)
	assert.ErrorIs(t, err, ErrMultiEndLogin)

	record, err := env.store.FindToken(ctx, t1, false)
	require.NoError(t, err)
	assert.Equal(t, "alice", record.UserName)

	p, err = env.authn.Authenticate(ctx, "Artemis "+t2, route)
	require.NoError(t, err)
	assert.Equal(t, "alice", p.UserName)

	// a different end type keeps its own session
	env.tick()
	t3, err := env.auth.SignIn(ctx, "alice", "alice-password", models.EndTypeApp)
	require.NoError(t, err)

	_, err = env.authn.Authenticate(ctx, "Artemis "+t2, route)
	assert.NoError(t, err, "web session must survive an app sign-in")
	_, err = env.authn.Authenticate(ctx, "Artemis "+t3, route)
	assert.NoError(t, err)
}

func TestAuthenticate_MultiEndAllowed(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.Token.EnableMultiEnd = true
	ctx := context.Background()
	route := models.RouteInfo{}

	env.register(t, "heidi", "heidi-password")

	env.tick()
	t1, err := env.auth.SignIn(ctx, "heidi", "heidi-password", models.EndTypeWeb)
	require.NoError(t, err)
	env.tick()
	t2, err := env.auth.SignIn(ctx, "heidi", "heidi-password", models.EndTypeWeb)
	require.NoError(t, err)

	// with multi-end enabled both tokens stay valid
	_, err = env.authn.Authenticate(ctx, "Artemis "+t1, route)
	assert.NoError(t, err)
	_, err = env.authn.Authenticate(ctx, "Artemis "+t2, route)
	assert.NoError(t, err)
}

func TestSignOut_InvalidatesSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	route := models.RouteInfo{}

	env.register(t, "ivan", "ivan-password")
	env.tick()
	token, err := env.auth.SignIn(ctx, "ivan", "ivan-password", models.EndTypeWeb)
	require.NoError(t, err)

	done, err := env.auth.SignOut(ctx, token)
	require.NoError(t, err)
	assert.True(t, done)

	_, err = env.authn.Authenticate(ctx, "Artemis "+token, route)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// the user-map entry is cleared as well
	_, err = env.store.FindUserToken(ctx, models.EndTypeWeb, env.users.byName["ivan"].ID, false)
	assert.Error(t, err)

	_, err = env.auth.SignOut(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSignOut_DoesNotUnbindNewerSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "judy", "judy-password")
	env.tick()
	t1, err := env.auth.SignIn(ctx, "judy", "judy-password", models.EndTypeWeb)
	require.NoError(t, err)
	env.tick()
	t2, err := env.auth.SignIn(ctx, "judy", "judy-password", models.EndTypeWeb)
	require.NoError(t, err)

	// signing out the disowned token must not tear down the active session
	done, err := env.auth.SignOut(ctx, t1)
	require.NoError(t, err)
	assert.True(t, done)

	p, err := env.authn.Authenticate(ctx, "Artemis "+t2, models.RouteInfo{})
	require.NoError(t, err)
	assert.True(t, p.IsAuthenticated())
}
