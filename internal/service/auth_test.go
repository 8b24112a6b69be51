package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/yabaapp/yaba-server/internal/errors"
)

func TestAuthService_Register(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	u, err := env.auth.Register(ctx, RegisterRequest{Email: "  Ada@Example.com ", Password: "correct horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "Ada@Example.com", u.Email)
	assert.NotEqual(t, "correct horse", u.PasswordHash)

	t.Run("duplicate email ignoring case", func(t *testing.T) {
		_, err := env.auth.Register(ctx, RegisterRequest{Email: "ada@example.com", Password: "another password"})
		assert.ErrorIs(t, err, domainerrors.ErrAlreadyExists)
	})
}

func TestAuthService_Register_Validation(t *testing.T) {
	env := setupServices(t)

	tests := []struct {
		name  string
		req   RegisterRequest
		field string
	}{
		{"missing email", RegisterRequest{Password: "correct horse"}, "email"},
		{"malformed email", RegisterRequest{Email: "nope", Password: "correct horse"}, "email"},
		{"short password", RegisterRequest{Email: "a@example.com", Password: "short"}, "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(context.Background(), tt.req)
			require.Error(t, err)

			var de *domainerrors.Error
			require.ErrorAs(t, err, &de)
			assert.Equal(t, domainerrors.CodeValidation, de.Code)
			assert.Contains(t, de.Details, tt.field)
		})
	}
}

func TestAuthService_LoginAndVerify(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	u := env.user(t, "a@example.com")

	resp, err := env.auth.Login(ctx, LoginRequest{Email: "A@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, resp.User.ID)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.NotEmpty(t, resp.AccessToken)
	assert.False(t, resp.ExpiresAt.IsZero())

	got, err := env.auth.VerifyAccessToken(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestAuthService_LoginFailures(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	env.user(t, "a@example.com")

	_, err := env.auth.Login(ctx, LoginRequest{Email: "a@example.com", Password: "wrong horse"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	_, unknownErr := env.auth.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "correct horse"})
	assert.ErrorIs(t, unknownErr, domainerrors.ErrInvalidCredentials)
	assert.Equal(t, err.Error(), unknownErr.Error(), "unknown email and wrong password look the same")
}

func TestAuthService_VerifyRejectsGarbage(t *testing.T) {
	env := setupServices(t)

	_, err := env.auth.VerifyAccessToken(context.Background(), "v4.local.not-a-token")
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}
