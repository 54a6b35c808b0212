// Package service holds the signup/login/profile flows and agent management.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/hongminglow/agent-market-be/internal/apperr"
	"github.com/hongminglow/agent-market-be/internal/auth"
	"github.com/hongminglow/agent-market-be/internal/models"
	"github.com/hongminglow/agent-market-be/internal/models/dto"
	"github.com/hongminglow/agent-market-be/internal/storage"
)

// TokenTypeBearer is the token_type reported by Login.
const TokenTypeBearer = "bearer"

var (
	ErrEmailRegistered      = apperr.Conflict("Email already registered")
	ErrIncorrectCredentials = apperr.Authentication("Incorrect email or password")
	ErrUserNotFound         = apperr.NotFound("User not found")
)

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// TokenIssuer mints access tokens for a subject.
type TokenIssuer interface {
	Generate(subject string) (string, error)
}

// UserService orchestrates the user directory, hasher and token codec.
type UserService struct {
	users  storage.UserStore
	hasher PasswordHasher
	tokens TokenIssuer
	logger *zap.Logger

	decoyMu sync.Mutex
	decoy   string
}

func NewUserService(users storage.UserStore, hasher PasswordHasher, tokens TokenIssuer, logger *zap.Logger) *UserService {
	return &UserService{users: users, hasher: hasher, tokens: tokens, logger: logger}
}

// Signup registers an active, non-superuser account.
func (s *UserService) Signup(ctx context.Context, req dto.SignupRequest) (models.User, error) {
	req.Email = models.NormalizeEmail(req.Email)
	if err := req.Validate(); err != nil {
		return models.User{}, apperr.Validation(err.Error(), err)
	}
	email := req.Email

	if err := s.ensureEmailFree(ctx, email); err != nil {
		return models.User{}, err
	}

	digest, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return models.User{}, apperr.Validation(err.Error(), err)
		}
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.users.CreateUser(ctx, models.User{
		Email:        email,
		PasswordHash: digest,
		FullName:     req.FullName,
		IsActive:     true,
		IsSuperuser:  false,
	})
	if err != nil {
		// The unique index catches signups that raced past ensureEmailFree.
		if errors.Is(err, storage.ErrAlreadyExists) {
			return models.User{}, ErrEmailRegistered
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user signed up", zap.Int64("user_id", created.ID))
	return created, nil
}

// Login checks credentials and returns a bearer token. Unknown emails and
// wrong passwords fail identically.
func (s *UserService) Login(ctx context.Context, req dto.LoginRequest) (dto.TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return dto.TokenResponse{}, apperr.Validation(err.Error(), err)
	}

	user, err := s.users.FindByEmail(ctx, models.NormalizeEmail(req.Identifier()))
	switch {
	case errors.Is(err, storage.ErrNotFound):
		// Burn a comparable amount of time so response latency does not reveal the miss.
		s.hasher.Verify(req.Password, s.decoyDigest())
		return dto.TokenResponse{}, ErrIncorrectCredentials
	case err != nil:
		return dto.TokenResponse{}, fmt.Errorf("find user: %w", err)
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		return dto.TokenResponse{}, ErrIncorrectCredentials
	}
	if !user.IsActive {
		return dto.TokenResponse{}, auth.ErrInactiveUser
	}

	token, err := s.tokens.Generate(user.Email)
	if err != nil {
		return dto.TokenResponse{}, fmt.Errorf("generate token: %w", err)
	}

	s.logger.Debug("user logged in", zap.Int64("user_id", user.ID))
	return dto.TokenResponse{AccessToken: token, TokenType: TokenTypeBearer}, nil
}

// GetProfile loads a user by id.
func (s *UserService) GetProfile(ctx context.Context, userID int64) (models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return models.User{}, s.lookupError(err)
	}
	return user, nil
}

// Lookup loads a user by email.
func (s *UserService) Lookup(ctx context.Context, email string) (models.User, error) {
	user, err := s.users.FindByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		return models.User{}, s.lookupError(err)
	}
	return user, nil
}

// UpdateProfile applies name and email changes. A new email must not belong
// to another account.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, req dto.UpdateProfileRequest) (models.User, error) {
	if req.Email != nil {
		email := models.NormalizeEmail(*req.Email)
		req.Email = &email
	}
	if err := req.Validate(); err != nil {
		return models.User{}, apperr.Validation(err.Error(), err)
	}
	current, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return models.User{}, s.lookupError(err)
	}

	var changes storage.UserChanges
	if req.Email != nil && *req.Email != current.Email {
		if err := s.ensureEmailFree(ctx, *req.Email); err != nil {
			return models.User{}, err
		}
		changes.Email = req.Email
	}
	changes.FullName = req.FullName

	var updated models.User
	switch {
	case changes.Email == nil && changes.FullName == nil:
		return current, nil
	case changes.FullName == nil:
		updated, err = s.users.UpdateEmail(ctx, userID, *changes.Email)
	case changes.Email == nil:
		updated, err = s.users.UpdateName(ctx, userID, *changes.FullName)
	default:
		updated, err = s.users.UpdateUser(ctx, userID, changes)
	}
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return models.User{}, ErrEmailRegistered
		}
		return models.User{}, s.lookupError(err)
	}
	return updated, nil
}

// Deactivate marks a user inactive. Outstanding tokens stay valid but the
// guard rejects them on the active check.
func (s *UserService) Deactivate(ctx context.Context, userID int64) (models.User, error) {
	return s.setActive(ctx, userID, false)
}

// Activate re-enables a deactivated user.
func (s *UserService) Activate(ctx context.Context, userID int64) (models.User, error) {
	return s.setActive(ctx, userID, true)
}

// SetSuperuser grants or revokes superuser rights.
func (s *UserService) SetSuperuser(ctx context.Context, userID int64, superuser bool) (models.User, error) {
	user, err := s.users.SetSuperuser(ctx, userID, superuser)
	if err != nil {
		return models.User{}, s.lookupError(err)
	}
	s.logger.Info("superuser flag changed", zap.Int64("user_id", userID), zap.Bool("superuser", superuser))
	return user, nil
}

func (s *UserService) setActive(ctx context.Context, userID int64, active bool) (models.User, error) {
	user, err := s.users.SetActive(ctx, userID, active)
	if err != nil {
		return models.User{}, s.lookupError(err)
	}
	s.logger.Info("active flag changed", zap.Int64("user_id", userID), zap.Bool("active", active))
	return user, nil
}

func (s *UserService) ensureEmailFree(ctx context.Context, email string) error {
	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return ErrEmailRegistered
	case errors.Is(err, storage.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("check email: %w", err)
	}
}

func (s *UserService) lookupError(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return ErrUserNotFound
	}
	return fmt.Errorf("user store: %w", err)
}

// decoyDigest lazily hashes a throwaway password. A failed attempt is retried
// on the next call instead of leaving the digest empty.
func (s *UserService) decoyDigest() string {
	s.decoyMu.Lock()
	defer s.decoyMu.Unlock()
	if s.decoy != "" {
		return s.decoy
	}
	digest, err := s.hasher.Hash("decoy-password-for-missing-users")
	if err != nil {
		s.logger.Warn("decoy hash failed", zap.Error(err))
		return ""
	}
	s.decoy = digest
	return s.decoy
}
