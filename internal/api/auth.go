package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jonathan/apply-assistant/internal/types"
)

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, req *types.RegisterRequest) (*types.User, error) {
	var user types.User
	if err := c.doJSON(ctx, "register", http.MethodPost, "/api/auth/register", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges credentials for a bearer token.
// The backend expects an OAuth2 password form with the email as username.
func (c *Client) Login(ctx context.Context, req *types.LoginRequest) (*types.TokenResponse, error) {
	form := url.Values{
		"username": {req.Email},
		"password": {req.Password},
	}
	var tok types.TokenResponse
	if err := c.postForm(ctx, "login", "/api/auth/login", form, &tok); err != nil {
		return nil, err
	}
	if tok.AccessToken == "" {
		return nil, &PayloadError{Op: "login", Cause: errMissingToken}
	}
	return &tok, nil
}

// CurrentUser resolves the identity behind the current token.
func (c *Client) CurrentUser(ctx context.Context) (*types.User, error) {
	var user types.User
	if err := c.doJSON(ctx, "current user", http.MethodGet, "/api/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
