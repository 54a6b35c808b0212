package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/agent-market-be/internal/apperr"
	"github.com/hongminglow/agent-market-be/internal/auth"
	"github.com/hongminglow/agent-market-be/internal/models/dto"
)

func TestUserService_Signup(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	user, err := env.users.Signup(ctx, dto.SignupRequest{Email: " A@X.com ", Password: "longenough1", FullName: strPtr("Ada")})
	require.NoError(t, err)

	assert.NotZero(t, user.ID)
	assert.Equal(t, "a@x.com", user.Email)
	assert.True(t, user.IsActive)
	assert.False(t, user.IsSuperuser)
	assert.NotEqual(t, "longenough1", user.PasswordHash)

	body, err := json.Marshal(user)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "password")
	assert.NotContains(t, string(body), user.PasswordHash)
}

func TestUserService_Signup_Duplicate(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	first, err := env.users.Signup(ctx, dto.SignupRequest{Email: "a@x.com", Password: "longenough1"})
	require.NoError(t, err)

	_, err = env.users.Signup(ctx, dto.SignupRequest{Email: "A@x.com", Password: "different-pass"})
	assert.ErrorIs(t, err, ErrEmailRegistered)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = env.users.Login(ctx, dto.LoginRequest{Username: "a@x.com", Password: "longenough1"})
	require.NoError(t, err, "first account must keep its password")

	again, err := env.users.GetProfile(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.PasswordHash, again.PasswordHash)
}

func TestUserService_Signup_Validation(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  dto.SignupRequest
	}{
		{"short password", dto.SignupRequest{Email: "a@x.com", Password: "short"}},
		{"bad email", dto.SignupRequest{Email: "nope", Password: "longenough1"}},
		{"password over bcrypt limit", dto.SignupRequest{Email: "b@x.com", Password: strings.Repeat("p", 80)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.users.Signup(ctx, tt.req)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}

func TestUserService_Login(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, err := env.users.Signup(ctx, dto.SignupRequest{Email: "a@x.com", Password: "longenough1"})
	require.NoError(t, err)

	resp, err := env.users.Login(ctx, dto.LoginRequest{Username: "A@X.COM", Password: "longenough1"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", resp.TokenType)

	subject, ok := env.tokens.Verify(resp.AccessToken)
	require.True(t, ok)
	assert.Equal(t, "a@x.com", subject)

	_, wrongPassword := env.users.Login(ctx, dto.LoginRequest{Username: "a@x.com", Password: "wrong"})
	_, unknownEmail := env.users.Login(ctx, dto.LoginRequest{Username: "ghost@x.com", Password: "anything"})

	assert.ErrorIs(t, wrongPassword, ErrIncorrectCredentials)
	assert.ErrorIs(t, unknownEmail, ErrIncorrectCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestUserService_Login_Inactive(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	user, err := env.users.Signup(ctx, dto.SignupRequest{Email: "a@x.com", Password: "longenough1"})
	require.NoError(t, err)
	_, err = env.users.Deactivate(ctx, user.ID)
	require.NoError(t, err)

	_, err = env.users.Login(ctx, dto.LoginRequest{Username: "a@x.com", Password: "longenough1"})
	assert.ErrorIs(t, err, auth.ErrInactiveUser)

	_, err = env.users.Login(ctx, dto.LoginRequest{Username: "a@x.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrIncorrectCredentials, "bad password on an inactive account must not reveal its state")
}

func TestUserService_UpdateProfile(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	user, err := env.users.Signup(ctx, dto.SignupRequest{Email: "a@x.com", Password: "longenough1"})
	require.NoError(t, err)
	_, err = env.users.Signup(ctx, dto.SignupRequest{Email: "taken@x.com", Password: "longenough1"})
	require.NoError(t, err)

	updated, err := env.users.UpdateProfile(ctx, user.ID, dto.UpdateProfileRequest{FullName: strPtr("Ada Lovelace")})
	require.NoError(t, err)
	require.NotNil(t, updated.FullName)
	assert.Equal(t, "Ada Lovelace", *updated.FullName)
	assert.Equal(t, "a@x.com", updated.Email)

	_, err = env.users.UpdateProfile(ctx, user.ID, dto.UpdateProfileRequest{Email: strPtr("Taken@x.com")})
	assert.ErrorIs(t, err, ErrEmailRegistered)

	same, err := env.users.UpdateProfile(ctx, user.ID, dto.UpdateProfileRequest{Email: strPtr("A@x.com")})
	require.NoError(t, err, "re-submitting the current email is not a conflict")
	assert.Equal(t, "a@x.com", same.Email)

	moved, err := env.users.UpdateProfile(ctx, user.ID, dto.UpdateProfileRequest{Email: strPtr("new@x.com")})
	require.NoError(t, err)
	assert.Equal(t, "new@x.com", moved.Email)

	_, err = env.users.Login(ctx, dto.LoginRequest{Username: "new@x.com", Password: "longenough1"})
	assert.NoError(t, err)

	spaced, err := env.users.UpdateProfile(ctx, user.ID, dto.UpdateProfileRequest{Email: strPtr("  Spaced@X.com ")})
	require.NoError(t, err)
	assert.Equal(t, "spaced@x.com", spaced.Email)

	_, err = env.users.UpdateProfile(ctx, 9999, dto.UpdateProfileRequest{FullName: strPtr("x")})
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = env.users.UpdateProfile(ctx, user.ID, dto.UpdateProfileRequest{Email: strPtr("bad")})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestUserService_ActivationAndSuperuser(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	user, err := env.users.Signup(ctx, dto.SignupRequest{Email: "a@x.com", Password: "longenough1"})
	require.NoError(t, err)

	off, err := env.users.Deactivate(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, off.IsActive)

	on, err := env.users.Activate(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, on.IsActive)

	admin, err := env.users.SetSuperuser(ctx, user.ID, true)
	require.NoError(t, err)
	assert.True(t, admin.IsSuperuser)

	found, err := env.users.Lookup(ctx, "A@X.COM")
	require.NoError(t, err)
	assert.True(t, found.IsSuperuser)

	_, err = env.users.Deactivate(ctx, 9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = env.users.Lookup(ctx, "ghost@x.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
