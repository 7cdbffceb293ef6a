package api

import (
	"context"
	"io"
	"net/http"

	"github.com/jonathan/apply-assistant/internal/types"
)

// GetProfile returns the caller's profile. A missing profile is an APIError matching ErrNotFound.
func (c *Client) GetProfile(ctx context.Context) (*types.Profile, error) {
	var p types.Profile
	if err := c.doJSON(ctx, "get profile", http.MethodGet, "/api/profiles/me", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProfile creates the caller's profile.
func (c *Client) CreateProfile(ctx context.Context, in *types.ProfileInput) (*types.Profile, error) {
	var p types.Profile
	if err := c.doJSON(ctx, "create profile", http.MethodPost, "/api/profiles", in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile replaces the caller's profile fields.
func (c *Client) UpdateProfile(ctx context.Context, in *types.ProfileInput) (*types.Profile, error) {
	var p types.Profile
	if err := c.doJSON(ctx, "update profile", http.MethodPut, "/api/profiles/me", in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteProfile removes the caller's profile.
func (c *Client) DeleteProfile(ctx context.Context) error {
	return c.doJSON(ctx, "delete profile", http.MethodDelete, "/api/profiles/me", nil, nil)
}

// UploadResume attaches a resume file to the caller's profile and returns the updated profile.
func (c *Client) UploadResume(ctx context.Context, filename string, content io.Reader) (*types.Profile, error) {
	var p types.Profile
	file := &filePart{field: "file", filename: filename, content: content}
	if err := c.postMultipart(ctx, "upload resume", "/api/profiles/me/resume", nil, file, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
