package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/hongminglow/agent-market-be/internal/auth"
	"github.com/hongminglow/agent-market-be/internal/http/respond"
)

// RequireUser admits requests carrying a valid token for an active user and
// places that user on the request context.
func RequireUser(guard *auth.Guard, logger *zap.Logger, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := guard.Authenticate(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			respond.FromError(w, r, logger, err)
			return
		}
		next(w, r.WithContext(auth.WithUser(r.Context(), user)))
	}
}

// RequireSuperuser is RequireUser plus the superuser gate.
func RequireSuperuser(guard *auth.Guard, logger *zap.Logger, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := guard.AuthenticateSuperuser(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			respond.FromError(w, r, logger, err)
			return
		}
		next(w, r.WithContext(auth.WithUser(r.Context(), user)))
	}
}

// OptionalUser attaches the caller when a usable token is present and passes
// anonymous requests through untouched.
func OptionalUser(guard *auth.Guard, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if user := guard.Optional(r.Context(), r.Header.Get("Authorization")); user != nil {
			r = r.WithContext(auth.WithUser(r.Context(), *user))
		}
		next(w, r)
	}
}
