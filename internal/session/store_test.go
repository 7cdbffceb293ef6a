package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/jonathan/apply-assistant/internal/types"
)

func TestKeyringStore_RoundTrip(t *testing.T) {
	keyring.MockInit()
	store := NewKeyringStore("")
	assert.Equal(t, DefaultKeyringService, store.Service)

	_, _, err := store.Load()
	assert.ErrorIs(t, err, ErrNoCredential)

	require.NoError(t, store.Save("tok", &types.User{ID: "u1", Email: "a@b.co"}))
	token, user, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
	assert.Equal(t, "u1", user.ID)

	require.NoError(t, store.Clear())
	_, _, err = store.Load()
	assert.ErrorIs(t, err, ErrNoCredential)

	// Clearing twice is fine.
	assert.NoError(t, store.Clear())
}

func TestKeyringStore_SaveRequiresBoth(t *testing.T) {
	keyring.MockInit()
	store := NewKeyringStore("svc")

	assert.Error(t, store.Save("", &types.User{ID: "u1"}))
	assert.Error(t, store.Save("tok", nil))

	_, _, err := store.Load()
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestKeyringStore_TokenWithoutIdentityIsIgnored(t *testing.T) {
	keyring.MockInit()
	store := NewKeyringStore("svc")
	require.NoError(t, keyring.Set("svc", tokenAccount, "orphan"))

	_, _, err := store.Load()
	assert.ErrorIs(t, err, ErrNoCredential)
}
