package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hongminglow/agent-market-be/internal/apperr"
	"github.com/hongminglow/agent-market-be/internal/models"
	"github.com/hongminglow/agent-market-be/internal/storage"
)

// Guard rejections. Token and lookup failures share one message so callers
// cannot tell a forged token from a deleted account.
var (
	ErrMissingCredentials = apperr.Authentication("Not authenticated")
	ErrInvalidCredentials = apperr.Authentication("Could not validate credentials")
	ErrInactiveUser       = apperr.Authorization("Inactive user")
	ErrNotSuperuser       = apperr.Forbidden("Not enough permissions")
)

// UserFinder resolves a token subject to a stored user.
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (models.User, error)
}

// TokenVerifier checks a bearer token and yields its subject.
type TokenVerifier interface {
	Verify(token string) (subject string, ok bool)
}

// Guard turns an Authorization header into an authenticated user.
type Guard struct {
	users  UserFinder
	tokens TokenVerifier
}

func NewGuard(users UserFinder, tokens TokenVerifier) *Guard {
	return &Guard{users: users, tokens: tokens}
}

// Authenticate runs extract, verify, resolve and the active check.
func (g *Guard) Authenticate(ctx context.Context, authorization string) (models.User, error) {
	token, ok := BearerToken(authorization)
	if !ok {
		return models.User{}, ErrMissingCredentials
	}
	subject, ok := g.tokens.Verify(token)
	if !ok {
		return models.User{}, ErrInvalidCredentials
	}
	user, err := g.users.FindByEmail(ctx, subject)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, fmt.Errorf("resolve token subject: %w", err)
	}
	if !user.IsActive {
		return models.User{}, ErrInactiveUser
	}
	return user, nil
}

// AuthenticateSuperuser adds the superuser gate on top of Authenticate.
func (g *Guard) AuthenticateSuperuser(ctx context.Context, authorization string) (models.User, error) {
	user, err := g.Authenticate(ctx, authorization)
	if err != nil {
		return models.User{}, err
	}
	if !user.IsSuperuser {
		return models.User{}, ErrNotSuperuser
	}
	return user, nil
}

// Optional returns the caller when the header carries a usable token for an
// active user and nil otherwise. It never rejects.
func (g *Guard) Optional(ctx context.Context, authorization string) *models.User {
	if authorization == "" {
		return nil
	}
	user, err := g.Authenticate(ctx, authorization)
	if err != nil {
		return nil
	}
	return &user
}

// BearerToken extracts the credential from an "Authorization: Bearer <token>" value.
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
