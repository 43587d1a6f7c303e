package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qsome/rpa-relay/pkg/models"
)

func TestJWTValidatorRoundTrip(t *testing.T) {
	validator := NewJWTValidator("test-secret")

	token, err := validator.GenerateToken(&models.Principal{
		ID:       "orch-1",
		Name:     "orchestrator",
		Provider: "local",
	}, *jwt.NewNumericDate(time.Now().Add(time.Hour)))
	require.NoError(t, err)

	principal, err := validator.VerifyToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "orch-1", principal.ID)
	assert.Equal(t, "orchestrator", principal.Name)
	assert.Equal(t, "local", principal.Provider)
}

func TestJWTValidatorRejections(t *testing.T) {
	validator := NewJWTValidator("test-secret")

	expired, err := validator.GenerateToken(&models.Principal{ID: "orch-1"},
		*jwt.NewNumericDate(time.Now().Add(-time.Hour)))
	require.NoError(t, err)

	other := NewJWTValidator("other-secret")

	wrongKey, err := other.GenerateToken(&models.Principal{ID: "orch-1"},
		*jwt.NewNumericDate(time.Now().Add(time.Hour)))
	require.NoError(t, err)

	tests := []struct {
		name     string
		token    string
		expected error
	}{
		{name: "empty token", token: "", expected: ErrMissingToken},
		{name: "garbage token", token: "not-a-jwt", expected: ErrInvalidToken},
		{name: "expired token", token: expired, expected: ErrInvalidToken},
		{name: "wrong signing key", token: wrongKey, expected: ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validator.VerifyToken(context.Background(), tt.token)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestStaticValidator(t *testing.T) {
	validator := NewStaticValidator(map[string]string{
		"node-token-1": "agent-1",
	})

	principal, err := validator.VerifyToken(context.Background(), "node-token-1")
	require.NoError(t, err)
	assert.Equal(t, "agent-1", principal.Name)
	assert.Equal(t, "static", principal.Provider)

	_, err = validator.VerifyToken(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = validator.VerifyToken(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestNewValidatorSelection(t *testing.T) {
	jwtValidator := NewJWTValidator("chain-secret")

	jwtToken, err := jwtValidator.GenerateToken(&models.Principal{ID: "orch-1"},
		*jwt.NewNumericDate(time.Now().Add(time.Hour)))
	require.NoError(t, err)

	tests := []struct {
		name    string
		cfg     *models.AuthConfig
		token   string
		wantErr bool
	}{
		{
			name:    "nil config rejects everything",
			cfg:     nil,
			token:   "anything",
			wantErr: true,
		},
		{
			name:    "empty config rejects everything",
			cfg:     &models.AuthConfig{},
			token:   "anything",
			wantErr: true,
		},
		{
			name:    "static only",
			cfg:     &models.AuthConfig{StaticTokens: map[string]string{"tok": "agent"}},
			token:   "tok",
			wantErr: false,
		},
		{
			name: "chain accepts jwt",
			cfg: &models.AuthConfig{
				JWTSecret:    "chain-secret",
				StaticTokens: map[string]string{"tok": "agent"},
			},
			token:   jwtToken,
			wantErr: false,
		},
		{
			name: "chain accepts static",
			cfg: &models.AuthConfig{
				JWTSecret:    "chain-secret",
				StaticTokens: map[string]string{"tok": "agent"},
			},
			token:   "tok",
			wantErr: false,
		},
		{
			name: "chain rejects unknown",
			cfg: &models.AuthConfig{
				JWTSecret:    "chain-secret",
				StaticTokens: map[string]string{"tok": "agent"},
			},
			token:   "bogus",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewValidator(tt.cfg).VerifyToken(context.Background(), tt.token)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
