package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/jonathan/apply-assistant/internal/types"
)

// DefaultKeyringService groups the client's secrets in the OS keychain.
const DefaultKeyringService = "apply-assistant"

const (
	tokenAccount    = "bearer-token"
	identityAccount = "identity"
)

// ErrNoCredential is returned by Load when nothing is persisted.
var ErrNoCredential = errors.New("no persisted credential")

// CredentialStore persists exactly one bearer credential and one cached identity.
// Implementations must save and clear both together.
type CredentialStore interface {
	Load() (token string, identity *types.User, err error)
	Save(token string, identity *types.User) error
	Clear() error
}

// KeyringStore keeps the credential in the OS keychain.
type KeyringStore struct {
	Service string
}

// NewKeyringStore returns a store under service, or the default service when empty.
func NewKeyringStore(service string) *KeyringStore {
	if service == "" {
		service = DefaultKeyringService
	}
	return &KeyringStore{Service: service}
}

// Load returns the persisted token and identity. A token without a readable
// identity is reported as ErrNoCredential so callers never see one half.
func (s *KeyringStore) Load() (string, *types.User, error) {
	token, err := keyring.Get(s.Service, tokenAccount)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil, ErrNoCredential
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to read token from keyring: %w", err)
	}

	raw, err := keyring.Get(s.Service, identityAccount)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil, ErrNoCredential
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to read identity from keyring: %w", err)
	}

	var user types.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return "", nil, ErrNoCredential
	}
	return token, &user, nil
}

// Save writes token and identity. If the identity write fails the token is removed again.
func (s *KeyringStore) Save(token string, identity *types.User) error {
	if token == "" || identity == nil {
		return errors.New("token and identity are both required")
	}
	raw, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("failed to marshal identity: %w", err)
	}

	if err := keyring.Set(s.Service, tokenAccount, token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	if err := keyring.Set(s.Service, identityAccount, string(raw)); err != nil {
		_ = s.Clear()
		return fmt.Errorf("failed to store identity: %w", err)
	}
	return nil
}

// Clear deletes both entries. Missing entries are not an error.
func (s *KeyringStore) Clear() error {
	var errs []error
	for _, account := range []string{tokenAccount, identityAccount} {
		if err := keyring.Delete(s.Service, account); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			errs = append(errs, fmt.Errorf("failed to delete %s: %w", account, err))
		}
	}
	return errors.Join(errs...)
}
