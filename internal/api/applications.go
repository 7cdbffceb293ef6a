package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jonathan/apply-assistant/internal/types"
)

func applicationPath(id string) string {
	return "/api/applications/" + url.PathEscape(id)
}

// ListApplications returns every application of the caller.
func (c *Client) ListApplications(ctx context.Context) ([]types.Application, error) {
	apps := []types.Application{}
	if err := c.doJSON(ctx, "list applications", http.MethodGet, "/api/applications", nil, &apps); err != nil {
		return nil, err
	}
	if apps == nil {
		apps = []types.Application{}
	}
	return apps, nil
}

// GetApplication returns one application.
func (c *Client) GetApplication(ctx context.Context, id string) (*types.Application, error) {
	var app types.Application
	if err := c.doJSON(ctx, "get application", http.MethodGet, applicationPath(id), nil, &app); err != nil {
		return nil, err
	}
	return &app, nil
}

// CreateApplication records a new application.
func (c *Client) CreateApplication(ctx context.Context, req *types.CreateApplicationRequest) (*types.Application, error) {
	var app types.Application
	if err := c.doJSON(ctx, "create application", http.MethodPost, "/api/applications", req, &app); err != nil {
		return nil, err
	}
	return &app, nil
}

// UpdateApplication changes an application's mutable fields.
func (c *Client) UpdateApplication(ctx context.Context, id string, req *types.UpdateApplicationRequest) (*types.Application, error) {
	var app types.Application
	if err := c.doJSON(ctx, "update application", http.MethodPut, applicationPath(id), req, &app); err != nil {
		return nil, err
	}
	return &app, nil
}

// DeleteApplication removes an application.
func (c *Client) DeleteApplication(ctx context.Context, id string) error {
	return c.doJSON(ctx, "delete application", http.MethodDelete, applicationPath(id), nil, nil)
}
