// Package ledger keeps the local view of tracked applications in sync with
// the remote system of record.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/apply-assistant/internal/types"
)

// Client is the subset of the backend client the ledger calls.
type Client interface {
	ListApplications(ctx context.Context) ([]types.Application, error)
	GetApplication(ctx context.Context, id string) (*types.Application, error)
	CreateApplication(ctx context.Context, req *types.CreateApplicationRequest) (*types.Application, error)
	UpdateApplication(ctx context.Context, id string, req *types.UpdateApplicationRequest) (*types.Application, error)
	DeleteApplication(ctx context.Context, id string) error
}

// Confirmer asks the user before a destructive action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

// Confirm calls f(prompt).
func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// ErrDeclined is returned when the user does not confirm a delete.
var ErrDeclined = errors.New("delete not confirmed")

// InvalidStatusError is returned for a status outside pending, submitted and completed.
type InvalidStatusError struct {
	Status types.ApplicationStatus
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("invalid status %q (expected pending, submitted or completed)", e.Status)
}

// Sync performs ledger mutations and refreshes the full list after each one.
// Server-computed fields may change independently, so the list is never patched locally.
type Sync struct {
	client Client
	now    func() time.Time
	log    *zap.SugaredLogger
}

// New creates a Sync over client.
func New(client Client) *Sync {
	return &Sync{client: client, now: time.Now, log: zap.S().Named("ledger")}
}

// List fetches all applications of the session.
func (s *Sync) List(ctx context.Context) ([]types.Application, error) {
	apps, err := s.client.ListApplications(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return apps, nil
}

// Get fetches one application.
func (s *Sync) Get(ctx context.Context, id string) (*types.Application, error) {
	return s.client.GetApplication(ctx, id)
}

// Create records a new application.
func (s *Sync) Create(ctx context.Context, req *types.CreateApplicationRequest) (*types.Application, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid application: %w", err)
	}
	app, err := s.client.CreateApplication(ctx, req)
	if err != nil {
		return nil, err
	}
	s.log.Infow("application recorded", "id", app.ID, "status", app.Status)
	return app, nil
}

// UpdateStatus sets the status of id and returns the refreshed list.
// Moving to submitted stamps submitted_at.
func (s *Sync) UpdateStatus(ctx context.Context, id string, status types.ApplicationStatus) ([]types.Application, error) {
	if !status.Valid() {
		return nil, &InvalidStatusError{Status: status}
	}

	req := &types.UpdateApplicationRequest{Status: status}
	if status == types.StatusSubmitted {
		now := types.NewTimestamp(s.now().UTC())
		req.SubmittedAt = &now
	}
	if _, err := s.client.UpdateApplication(ctx, id, req); err != nil {
		return nil, err
	}
	s.log.Infow("application status updated", "id", id, "status", status)
	return s.List(ctx)
}

// Delete removes id after confirm agrees, then returns the refreshed list.
// A nil confirm is treated as a refusal.
func (s *Sync) Delete(ctx context.Context, id string, confirm Confirmer) ([]types.Application, error) {
	if confirm == nil || !confirm.Confirm(fmt.Sprintf("Delete application %s?", id)) {
		return nil, ErrDeclined
	}
	if err := s.client.DeleteApplication(ctx, id); err != nil {
		return nil, err
	}
	s.log.Infow("application deleted", "id", id)
	return s.List(ctx)
}

// Counts tallies applications per status.
func Counts(apps []types.Application) map[types.ApplicationStatus]int {
	counts := map[types.ApplicationStatus]int{
		types.StatusPending:   0,
		types.StatusSubmitted: 0,
		types.StatusCompleted: 0,
	}
	for _, a := range apps {
		counts[a.Status]++
	}
	return counts
}
