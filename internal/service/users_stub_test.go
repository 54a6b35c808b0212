package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/agent-market-be/internal/apperr"
	"github.com/hongminglow/agent-market-be/internal/auth"
	"github.com/hongminglow/agent-market-be/internal/models"
	"github.com/hongminglow/agent-market-be/internal/models/dto"
	"github.com/hongminglow/agent-market-be/internal/storage"
)

// racingUsers passes every email pre-check and then loses on the unique
// index, as when another request inserts the same email in between.
type racingUsers struct {
	storage.UserStore
	current models.User
	calls   []string
}

func (s *racingUsers) FindByEmail(context.Context, string) (models.User, error) {
	return models.User{}, storage.ErrNotFound
}

func (s *racingUsers) FindByID(context.Context, int64) (models.User, error) {
	return s.current, nil
}

func (s *racingUsers) CreateUser(context.Context, models.User) (models.User, error) {
	s.calls = append(s.calls, "CreateUser")
	return models.User{}, storage.ErrAlreadyExists
}

func (s *racingUsers) UpdateUser(context.Context, int64, storage.UserChanges) (models.User, error) {
	s.calls = append(s.calls, "UpdateUser")
	return models.User{}, storage.ErrAlreadyExists
}

func (s *racingUsers) UpdateEmail(context.Context, int64, string) (models.User, error) {
	s.calls = append(s.calls, "UpdateEmail")
	return models.User{}, storage.ErrAlreadyExists
}

func (s *racingUsers) UpdateName(_ context.Context, _ int64, name string) (models.User, error) {
	s.calls = append(s.calls, "UpdateName")
	u := s.current
	u.FullName = &name
	return u, nil
}

func newStubbedUsers(t *testing.T, store storage.UserStore, hasher PasswordHasher) *UserService {
	t.Helper()
	tokens, err := auth.NewTokenManager("test-secret", "agent-market", "HS256", 0)
	require.NoError(t, err)
	return NewUserService(store, hasher, tokens, zap.NewNop())
}

func TestUserService_UniqueIndexConflict(t *testing.T) {
	store := &racingUsers{current: models.User{ID: 7, Email: "me@x.com", IsActive: true}}
	users := newStubbedUsers(t, store, auth.NewHasher(bcrypt.MinCost))
	ctx := context.Background()

	_, err := users.Signup(ctx, dto.SignupRequest{Email: "race@x.com", Password: "longenough1"})
	assert.ErrorIs(t, err, ErrEmailRegistered)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = users.UpdateProfile(ctx, 7, dto.UpdateProfileRequest{Email: strPtr("race@x.com")})
	assert.ErrorIs(t, err, ErrEmailRegistered)

	_, err = users.UpdateProfile(ctx, 7, dto.UpdateProfileRequest{Email: strPtr("race@x.com"), FullName: strPtr("Ada")})
	assert.ErrorIs(t, err, ErrEmailRegistered)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	renamed, err := users.UpdateProfile(ctx, 7, dto.UpdateProfileRequest{FullName: strPtr("Ada")})
	require.NoError(t, err)
	assert.Equal(t, "Ada", *renamed.FullName)

	assert.Equal(t, []string{"CreateUser", "UpdateEmail", "UpdateUser", "UpdateName"}, store.calls)
}

// flakyHasher fails its first Hash call.
type flakyHasher struct {
	inner    *auth.Hasher
	hashes   int
	verified []string
}

func (h *flakyHasher) Hash(plaintext string) (string, error) {
	h.hashes++
	if h.hashes == 1 {
		return "", errors.New("entropy unavailable")
	}
	return h.inner.Hash(plaintext)
}

func (h *flakyHasher) Verify(plaintext, digest string) bool {
	h.verified = append(h.verified, digest)
	return h.inner.Verify(plaintext, digest)
}

func TestUserService_DecoyDigestRetriesAfterFailure(t *testing.T) {
	hasher := &flakyHasher{inner: auth.NewHasher(bcrypt.MinCost)}
	users := newStubbedUsers(t, &racingUsers{}, hasher)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := users.Login(ctx, dto.LoginRequest{Username: "ghost@x.com", Password: "anything"})
		assert.ErrorIs(t, err, ErrIncorrectCredentials)
	}

	require.Len(t, hasher.verified, 3)
	assert.Empty(t, hasher.verified[0])
	assert.NotEmpty(t, hasher.verified[1])
	assert.Equal(t, hasher.verified[1], hasher.verified[2])
	assert.Equal(t, 2, hasher.hashes)
}
