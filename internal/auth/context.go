package auth

import (
	"context"

	"github.com/hongminglow/agent-market-be/internal/models"
)

type contextKey struct{}

// WithUser stores a copy of the authenticated user on ctx.
func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// UserFromContext returns the user placed by WithUser.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(contextKey{}).(models.User)
	return user, ok
}
