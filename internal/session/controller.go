// Package session owns the authentication lifecycle: restoring a persisted
// credential, login and logout, the global unauthorized rule, and route guarding.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/jonathan/apply-assistant/internal/types"
)

// AuthClient is the subset of the backend client the controller calls.
type AuthClient interface {
	Register(ctx context.Context, req *types.RegisterRequest) (*types.User, error)
	Login(ctx context.Context, req *types.LoginRequest) (*types.TokenResponse, error)
	CurrentUser(ctx context.Context) (*types.User, error)
}

// Route is a navigable entry point.
type Route string

// Known routes
const (
	RouteLogin        Route = "/login"
	RouteHome         Route = "/"
	RouteApplications Route = "/applications"
	RouteProfile      Route = "/profile"
)

// Navigator moves the user to a route. The CLI prints a hint; tests record calls.
type Navigator interface {
	Navigate(route Route)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(Route)

// Navigate calls f(route).
func (f NavigatorFunc) Navigate(route Route) { f(route) }

// State is a read-only view of the session.
type State struct {
	Authenticated bool
	Identity      *types.User
	AuthChecked   bool
}

// Controller is the single writer of session state. It is safe for concurrent use.
type Controller struct {
	client AuthClient
	store  CredentialStore
	nav    Navigator
	now    func() time.Time
	log    *zap.SugaredLogger

	mu    sync.RWMutex
	token string
	state State
}

// NewController creates a controller. nav may be nil.
func NewController(client AuthClient, store CredentialStore, nav Navigator) *Controller {
	if nav == nil {
		nav = NavigatorFunc(func(Route) {})
	}
	return &Controller{
		client: client,
		store:  store,
		nav:    nav,
		now:    time.Now,
		log:    zap.S().Named("session"),
	}
}

// Token returns the current bearer credential, or "" when logged out.
// The controller is installed as the API client's token source.
func (c *Controller) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// State returns a copy of the session state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.state
	if s.Identity != nil {
		id := *s.Identity
		s.Identity = &id
	}
	return s
}

// Initialize restores a persisted credential and confirms it with the backend.
// It always completes: any failure leaves the session unauthenticated.
// AuthChecked is set once it returns.
func (c *Controller) Initialize(ctx context.Context) State {
	defer c.markChecked()

	token, _, err := c.store.Load()
	if errors.Is(err, ErrNoCredential) {
		// Drops a half-written credential such as a token without its identity.
		c.clear()
		return c.State()
	}
	if err != nil {
		c.log.Warnw("failed to load credential", "error", err)
		c.reset()
		return c.State()
	}

	if expired(token, c.now()) {
		c.log.Infow("persisted token expired, clearing")
		c.clear()
		return c.State()
	}

	c.mu.Lock()
	c.token = token
	c.mu.Unlock()

	user, err := c.client.CurrentUser(ctx)
	if err != nil {
		c.log.Infow("persisted token rejected, clearing", "error", err)
		c.clear()
		return c.State()
	}

	if err := c.store.Save(token, user); err != nil {
		c.log.Warnw("failed to refresh cached identity", "error", err)
	}
	c.mu.Lock()
	if c.token == token {
		c.state.Authenticated = true
		c.state.Identity = user
	}
	c.mu.Unlock()
	return c.State()
}

// Login exchanges credentials for a token, resolves the identity and persists both.
func (c *Controller) Login(ctx context.Context, email, password string) (*types.User, error) {
	req := &types.LoginRequest{Email: email, Password: password}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid login: %w", err)
	}

	tok, err := c.client.Login(ctx, req)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.token = tok.AccessToken
	c.mu.Unlock()

	user, err := c.client.CurrentUser(ctx)
	if err != nil {
		c.clear()
		return nil, fmt.Errorf("failed to resolve identity: %w", err)
	}

	if err := c.store.Save(tok.AccessToken, user); err != nil {
		c.clear()
		return nil, fmt.Errorf("failed to persist credential: %w", err)
	}

	c.mu.Lock()
	c.state = State{Authenticated: true, Identity: user, AuthChecked: true}
	c.mu.Unlock()
	c.log.Infow("logged in", "email", user.Email)
	return user, nil
}

// Register creates an account. It does not log in.
func (c *Controller) Register(ctx context.Context, email, password string) (*types.User, error) {
	req := &types.RegisterRequest{Email: email, Password: password}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid registration: %w", err)
	}
	return c.client.Register(ctx, req)
}

// Logout clears the credential and identity together and navigates to login.
func (c *Controller) Logout() {
	c.clear()
	c.nav.Navigate(RouteLogin)
}

// HandleUnauthorized is the global hook for a 401 on any authorized call.
// It behaves exactly like Logout.
func (c *Controller) HandleUnauthorized() {
	c.log.Infow("credential rejected by backend, logging out")
	c.Logout()
}

// Decision is the outcome of a route guard check.
type Decision int

// Decision values
const (
	// Wait means initialization has not finished; do not redirect yet.
	Wait Decision = iota
	Allow
	RedirectLogin
	RedirectHome
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect-login"
	case RedirectHome:
		return "redirect-home"
	default:
		return "wait"
	}
}

// Guard decides whether route may be shown.
func (c *Controller) Guard(route Route) Decision {
	s := c.State()
	switch {
	case !s.AuthChecked:
		return Wait
	case route == RouteLogin && s.Authenticated:
		return RedirectHome
	case route != RouteLogin && !s.Authenticated:
		return RedirectLogin
	default:
		return Allow
	}
}

func (c *Controller) markChecked() {
	c.mu.Lock()
	c.state.AuthChecked = true
	c.mu.Unlock()
}

// reset drops in-memory state without touching the store.
func (c *Controller) reset() {
	c.mu.Lock()
	c.token = ""
	c.state.Authenticated = false
	c.state.Identity = nil
	c.mu.Unlock()
}

// clear drops in-memory state and the persisted credential.
func (c *Controller) clear() {
	c.reset()
	if err := c.store.Clear(); err != nil {
		c.log.Warnw("failed to clear persisted credential", "error", err)
	}
}

// expired reports whether token is a JWT whose exp claim is before now.
// Opaque tokens cannot be checked locally and are never reported as expired.
func expired(token string, now time.Time) bool {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && claims.ExpiresAt.Before(now)
}
