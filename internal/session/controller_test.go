package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/jonathan/apply-assistant/internal/types"
)

type fakeAuth struct {
	mu         sync.Mutex
	validToken string
	user       *types.User
	loginErr   error
	meCalls    int
	tokenOf    func() string
}

func (f *fakeAuth) Register(_ context.Context, req *types.RegisterRequest) (*types.User, error) {
	return &types.User{ID: "new", Email: req.Email}, nil
}

func (f *fakeAuth) Login(_ context.Context, _ *types.LoginRequest) (*types.TokenResponse, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &types.TokenResponse{AccessToken: f.validToken, TokenType: "bearer"}, nil
}

func (f *fakeAuth) CurrentUser(_ context.Context) (*types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meCalls++
	if f.tokenOf() != f.validToken {
		return nil, errors.New("401 unauthorized")
	}
	return f.user, nil
}

type recordingNav struct {
	routes []Route
}

func (n *recordingNav) Navigate(r Route) { n.routes = append(n.routes, r) }

func setup(t *testing.T) (*Controller, *fakeAuth, *KeyringStore, *recordingNav) {
	t.Helper()
	keyring.MockInit()

	auth := &fakeAuth{validToken: "good-token", user: &types.User{ID: "u1", Email: "jane@example.com"}}
	store := NewKeyringStore("apply-assistant-test")
	nav := &recordingNav{}
	c := NewController(auth, store, nav)
	auth.tokenOf = c.Token
	return c, auth, store, nav
}

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestInitialize_NoCredential(t *testing.T) {
	c, auth, _, _ := setup(t)

	s := c.Initialize(context.Background())
	assert.True(t, s.AuthChecked)
	assert.False(t, s.Authenticated)
	assert.Nil(t, s.Identity)
	assert.Equal(t, 0, auth.meCalls)
}

func TestInitialize_OrphanTokenIsCleared(t *testing.T) {
	c, auth, store, _ := setup(t)
	require.NoError(t, keyring.Set(store.Service, tokenAccount, "good-token"))

	s := c.Initialize(context.Background())
	assert.True(t, s.AuthChecked)
	assert.False(t, s.Authenticated)
	assert.Equal(t, 0, auth.meCalls)

	_, err := keyring.Get(store.Service, tokenAccount)
	assert.ErrorIs(t, err, keyring.ErrNotFound)
}

func TestInitialize_ValidCredential(t *testing.T) {
	c, _, store, _ := setup(t)
	require.NoError(t, store.Save("good-token", &types.User{ID: "u1", Email: "old@example.com"}))

	s := c.Initialize(context.Background())
	assert.True(t, s.AuthChecked)
	assert.True(t, s.Authenticated)
	assert.Equal(t, "jane@example.com", s.Identity.Email)
	assert.Equal(t, "good-token", c.Token())
}

func TestInitialize_RejectedCredentialClearsBoth(t *testing.T) {
	c, _, store, _ := setup(t)
	require.NoError(t, store.Save("stale-token", &types.User{ID: "u1"}))

	s := c.Initialize(context.Background())
	assert.True(t, s.AuthChecked)
	assert.False(t, s.Authenticated)
	assert.Empty(t, c.Token())

	_, _, err := store.Load()
	assert.ErrorIs(t, err, ErrNoCredential)
	_, err = keyring.Get(store.Service, identityAccount)
	assert.ErrorIs(t, err, keyring.ErrNotFound)
}

func TestInitialize_ExpiredJWTSkipsNetwork(t *testing.T) {
	c, auth, store, _ := setup(t)
	expiredToken := signed(t, time.Now().Add(-time.Hour))
	auth.validToken = expiredToken
	require.NoError(t, store.Save(expiredToken, &types.User{ID: "u1"}))

	s := c.Initialize(context.Background())
	assert.False(t, s.Authenticated)
	assert.Equal(t, 0, auth.meCalls)

	_, _, err := store.Load()
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestInitialize_UnexpiredJWTIsChecked(t *testing.T) {
	c, auth, store, _ := setup(t)
	tok := signed(t, time.Now().Add(time.Hour))
	auth.validToken = tok
	require.NoError(t, store.Save(tok, &types.User{ID: "u1"}))

	s := c.Initialize(context.Background())
	assert.True(t, s.Authenticated)
	assert.Equal(t, 1, auth.meCalls)
}

func TestGuard_WaitsForAuthChecked(t *testing.T) {
	c, _, store, _ := setup(t)
	require.NoError(t, store.Save("good-token", &types.User{ID: "u1"}))

	// A reloaded, still-valid session must not be bounced before initialization.
	assert.Equal(t, Wait, c.Guard(RouteHome))
	assert.Equal(t, Wait, c.Guard(RouteLogin))

	c.Initialize(context.Background())
	assert.Equal(t, Allow, c.Guard(RouteHome))
	assert.Equal(t, RedirectHome, c.Guard(RouteLogin))
}

func TestGuard_Unauthenticated(t *testing.T) {
	c, _, _, _ := setup(t)
	c.Initialize(context.Background())

	assert.Equal(t, RedirectLogin, c.Guard(RouteHome))
	assert.Equal(t, RedirectLogin, c.Guard(RouteApplications))
	assert.Equal(t, Allow, c.Guard(RouteLogin))
}

func TestLogin(t *testing.T) {
	c, _, store, _ := setup(t)
	c.Initialize(context.Background())

	user, err := c.Login(context.Background(), "jane@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	s := c.State()
	assert.True(t, s.Authenticated)
	assert.True(t, s.AuthChecked)

	token, identity, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "good-token", token)
	assert.Equal(t, "jane@example.com", identity.Email)
}

func TestLogin_Failure(t *testing.T) {
	c, auth, store, _ := setup(t)
	auth.loginErr = errors.New("Incorrect email or password")

	_, err := c.Login(context.Background(), "jane@example.com", "wrong")
	require.Error(t, err)
	assert.False(t, c.State().Authenticated)

	_, _, err = store.Load()
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestLogin_InvalidInput(t *testing.T) {
	c, _, _, _ := setup(t)
	_, err := c.Login(context.Background(), "not-an-email", "x")
	assert.Error(t, err)
}

func TestRegister_Validates(t *testing.T) {
	c, _, _, _ := setup(t)

	_, err := c.Register(context.Background(), "jane@example.com", "short")
	assert.Error(t, err)

	user, err := c.Register(context.Background(), "jane@example.com", "longenough")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.False(t, c.State().Authenticated)
}

func TestLogout_ClearsTogetherAndNavigates(t *testing.T) {
	c, _, store, nav := setup(t)
	_, err := c.Login(context.Background(), "jane@example.com", "secret123")
	require.NoError(t, err)

	c.Logout()

	s := c.State()
	assert.False(t, s.Authenticated)
	assert.Nil(t, s.Identity)
	assert.Empty(t, c.Token())
	_, _, err = store.Load()
	assert.ErrorIs(t, err, ErrNoCredential)
	assert.Equal(t, []Route{RouteLogin}, nav.routes)
}

func TestHandleUnauthorized_SameAsLogout(t *testing.T) {
	c, _, store, nav := setup(t)
	_, err := c.Login(context.Background(), "jane@example.com", "secret123")
	require.NoError(t, err)

	c.HandleUnauthorized()

	assert.False(t, c.State().Authenticated)
	_, _, err = store.Load()
	assert.ErrorIs(t, err, ErrNoCredential)
	assert.Equal(t, []Route{RouteLogin}, nav.routes)
	assert.Equal(t, RedirectLogin, c.Guard(RouteHome))
}

func TestDecision_String(t *testing.T) {
	assert.Equal(t, "wait", Wait.String())
	assert.Equal(t, "allow", Allow.String())
	assert.Equal(t, "redirect-login", RedirectLogin.String())
	assert.Equal(t, "redirect-home", RedirectHome.String())
}
