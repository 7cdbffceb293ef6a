package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRequest_Validation(t *testing.T) {
	tests := []struct {
		name    string
		request RegisterRequest
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid request",
			request: RegisterRequest{Email: "jane@example.com", Password: "password123"},
		},
		{
			name:    "missing email",
			request: RegisterRequest{Password: "password123"},
			wantErr: true,
			errMsg:  "required",
		},
		{
			name:    "invalid email",
			request: RegisterRequest{Email: "not-an-email", Password: "password123"},
			wantErr: true,
			errMsg:  "email",
		},
		{
			name:    "short password",
			request: RegisterRequest{Email: "jane@example.com", Password: "short"},
			wantErr: true,
			errMsg:  "min",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLoginRequest_Validation(t *testing.T) {
	valid := LoginRequest{Email: "jane@example.com", Password: "x"}
	assert.NoError(t, valid.Validate())

	missing := LoginRequest{Email: "jane@example.com"}
	err := missing.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Password")
}

func TestUser_JSONDecoding(t *testing.T) {
	raw := `{"id":"u-1","email":"jane@example.com","created_at":"2024-05-01T10:00:00Z"}`

	var u User
	require.NoError(t, json.Unmarshal([]byte(raw), &u))
	assert.Equal(t, "u-1", u.ID)
	assert.Equal(t, "jane@example.com", u.Email)
	assert.Equal(t, 2024, u.CreatedAt.Year())
}

func TestTokenResponse_JSONDecoding(t *testing.T) {
	var tok TokenResponse
	require.NoError(t, json.Unmarshal([]byte(`{"access_token":"abc","token_type":"bearer"}`), &tok))
	assert.Equal(t, "abc", tok.AccessToken)
	assert.Equal(t, "bearer", tok.TokenType)
}
