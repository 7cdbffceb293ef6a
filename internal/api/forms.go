package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/jonathan/apply-assistant/internal/schemas"
	"github.com/jonathan/apply-assistant/internal/types"
	embedded "github.com/jonathan/apply-assistant/schemas"
)

// Health is the backend liveness report.
type Health struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// Health checks that the backend is reachable.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.doJSON(ctx, "health", http.MethodGet, "/api/health", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// ATSScore scores the stored resume against the job posting at jobURL.
// A response that does not match the score schema is a PayloadError.
func (c *Client) ATSScore(ctx context.Context, jobURL string) (*types.AtsScore, error) {
	var raw json.RawMessage
	if err := c.postMultipart(ctx, "ats score", "/api/ats-score", map[string]string{"url": jobURL}, nil, &raw); err != nil {
		return nil, err
	}
	if err := schemas.ValidateEmbedded(embedded.AtsScore, raw); err != nil {
		return nil, &PayloadError{Op: "ats score", Cause: err}
	}

	var score types.AtsScore
	if err := json.Unmarshal(raw, &score); err != nil {
		return nil, &PayloadError{Op: "ats score", Cause: err}
	}
	return &score, nil
}

// Analyze asks the backend to detect the form on the page at formURL.
// The payload is returned undecoded; it comes in either of two layouts.
func (c *Client) Analyze(ctx context.Context, formURL string) (json.RawMessage, error) {
	var raw json.RawMessage
	path := "/api/analyze?" + url.Values{"url": {formURL}}.Encode()
	if err := c.postMultipart(ctx, "analyze", path, map[string]string{"url": formURL}, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// CheckFillable asks whether the page at formURL can be filled automatically.
func (c *Client) CheckFillable(ctx context.Context, formURL string) (*types.FillabilityAssessment, error) {
	var a types.FillabilityAssessment
	if err := c.postMultipart(ctx, "check fillable", "/api/check-fillable", map[string]string{"url": formURL}, nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Fill asks the backend to fill the form described by req.
func (c *Client) Fill(ctx context.Context, req *types.FillRequest) (*types.FillResult, error) {
	var result types.FillResult
	if err := c.doJSON(ctx, "fill", http.MethodPost, "/api/fill", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Preview asks which actions a fill with req would perform.
func (c *Client) Preview(ctx context.Context, req *types.PreviewRequest) (*types.FillPreview, error) {
	var preview types.FillPreview
	if err := c.doJSON(ctx, "preview", http.MethodPost, "/api/preview", previewBody(req), &preview); err != nil {
		return nil, err
	}
	return &preview, nil
}

// DryRun detects the form again and previews a fill with req, without filling anything.
// A dry run the backend could not complete comes back with Success false, not as an error.
func (c *Client) DryRun(ctx context.Context, req *types.PreviewRequest) (*types.DryRunResult, error) {
	var result types.DryRunResult
	if err := c.doJSON(ctx, "dry run", http.MethodPost, "/api/dry-run", previewBody(req), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// previewBody keeps form_data an object; the backend rejects a null.
func previewBody(req *types.PreviewRequest) *types.PreviewRequest {
	if req.FormData != nil {
		return req
	}
	return &types.PreviewRequest{URL: req.URL, FormData: map[string]string{}}
}
