// Package profile resolves the values sent to the fill collaborator, either
// from the stored applicant profile or from an editable per-label map.
package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/apply-assistant/internal/api"
	"github.com/jonathan/apply-assistant/internal/types"
)

// Mode selects where fill values come from.
type Mode string

// Mode values
const (
	ModeProfile Mode = "profile"
	ModeCustom  Mode = "custom"
)

// ParseMode parses a mode name. Empty selects ModeProfile.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeProfile:
		return ModeProfile, nil
	case ModeCustom:
		return ModeCustom, nil
	default:
		return "", fmt.Errorf("unknown fill mode %q (expected profile or custom)", s)
	}
}

var (
	// ErrNoProfile is returned in profile mode when the session has no stored profile.
	ErrNoProfile = errors.New("no profile found; create one before filling from profile")
	// ErrUnknownLabel is returned when an override names a label the form does not have.
	ErrUnknownLabel = errors.New("no field with that label")
	// ErrInvalidOption is returned when a select field is given a value it does not offer.
	ErrInvalidOption = errors.New("value is not one of the field's options")
)

// Client is the subset of the backend client the provider calls.
type Client interface {
	GetProfile(ctx context.Context) (*types.Profile, error)
	CreateProfile(ctx context.Context, in *types.ProfileInput) (*types.Profile, error)
	UpdateProfile(ctx context.Context, in *types.ProfileInput) (*types.Profile, error)
	DeleteProfile(ctx context.Context) error
	UploadResume(ctx context.Context, filename string, content io.Reader) (*types.Profile, error)
}

// FillPayload is what the fill request carries for one mode.
// FormData is nil in profile mode so the backend uses the stored profile.
type FillPayload struct {
	Mode     Mode
	FormData map[string]string
	Profile  *types.Profile
}

// Provider supplies fill values and wraps profile management.
type Provider struct {
	client Client
	log    *zap.SugaredLogger
}

// NewProvider creates a provider backed by client.
func NewProvider(client Client) *Provider {
	return &Provider{client: client, log: zap.S().Named("profile")}
}

// Resolve decides what is sent for a fill of fs in mode.
// In custom mode overrides are applied on top of the seeded field values.
func (p *Provider) Resolve(ctx context.Context, mode Mode, fs types.FormStructure, overrides map[string]string) (*FillPayload, error) {
	switch mode {
	case ModeProfile:
		prof, err := p.Get(ctx)
		if err != nil {
			return nil, err
		}
		return &FillPayload{Mode: ModeProfile, Profile: prof}, nil

	case ModeCustom:
		data := Seed(fs)
		byLabel := fieldsByLabel(fs)
		for label, value := range overrides {
			f, ok := byLabel[label]
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrUnknownLabel, label)
			}
			if err := CheckOption(f, value); err != nil {
				return nil, err
			}
			data[label] = value
		}
		return &FillPayload{Mode: ModeCustom, FormData: data}, nil

	default:
		return nil, fmt.Errorf("unknown fill mode %q", mode)
	}
}

// PreviewValues returns the values a preview of a fill in mode should be given.
// Profile mode offers the stored contact details under their plain names,
// which the backend matches to similar field labels.
func (p *Provider) PreviewValues(ctx context.Context, mode Mode, fs types.FormStructure, overrides map[string]string) (map[string]string, error) {
	payload, err := p.Resolve(ctx, mode, fs, overrides)
	if err != nil {
		return nil, err
	}
	if payload.Mode == ModeCustom {
		return payload.FormData, nil
	}

	values := map[string]string{}
	for key, value := range map[string]string{
		"Name":  payload.Profile.Name,
		"Email": payload.Profile.Email,
		"Phone": payload.Profile.Phone,
	} {
		if value != "" {
			values[key] = value
		}
	}
	return values, nil
}

// Seed builds the editable label-keyed map from each field's current value.
// Unlabeled fields are skipped. When two fields share a label the later one wins.
func Seed(fs types.FormStructure) map[string]string {
	data := make(map[string]string, len(fs.Fields))
	for _, f := range fs.Fields {
		if f.Label == "" {
			continue
		}
		data[f.Label] = f.Value
	}
	return data
}

func fieldsByLabel(fs types.FormStructure) map[string]types.Field {
	out := make(map[string]types.Field, len(fs.Fields))
	for _, f := range fs.Fields {
		if f.Label != "" {
			out[f.Label] = f
		}
	}
	return out
}

// CanFill reports whether the fill affordance is enabled.
// Profile mode needs a stored profile; both modes need a URL.
func CanFill(mode Mode, prof *types.Profile, url string) bool {
	if strings.TrimSpace(url) == "" {
		return false
	}
	return mode != ModeProfile || prof != nil
}

// Get returns the stored profile, or ErrNoProfile when there is none.
func (p *Provider) Get(ctx context.Context) (*types.Profile, error) {
	prof, err := p.client.GetProfile(ctx)
	if errors.Is(err, api.ErrNotFound) {
		return nil, ErrNoProfile
	}
	if err != nil {
		return nil, err
	}
	return prof, nil
}

// Create validates in and creates the profile.
func (p *Provider) Create(ctx context.Context, in *types.ProfileInput) (*types.Profile, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profile: %w", err)
	}
	return p.client.CreateProfile(ctx, in)
}

// Update validates in and updates the profile.
func (p *Provider) Update(ctx context.Context, in *types.ProfileInput) (*types.Profile, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profile: %w", err)
	}
	prof, err := p.client.UpdateProfile(ctx, in)
	if errors.Is(err, api.ErrNotFound) {
		return nil, ErrNoProfile
	}
	return prof, err
}

// Delete removes the profile.
func (p *Provider) Delete(ctx context.Context) error {
	err := p.client.DeleteProfile(ctx)
	if errors.Is(err, api.ErrNotFound) {
		return ErrNoProfile
	}
	return err
}
