package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenManager issues and verifies signed, expiring access tokens whose
// subject is the user's email.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	method jwt.SigningMethod
	now    func() time.Time
}

// NewTokenManager creates a manager with the provided secret, issuer, HMAC
// algorithm name and lifetime.
func NewTokenManager(secret, issuer, algorithm string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, errors.New("token secret must not be empty")
	}
	method, ok := jwt.GetSigningMethod(strings.ToUpper(algorithm)).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		method: method,
		now:    time.Now,
	}, nil
}

// WithClock replaces the time source used for issuing and verifying.
func (t *TokenManager) WithClock(now func() time.Time) *TokenManager {
	t.now = now
	return t
}

// TTL returns the configured token lifetime.
func (t *TokenManager) TTL() time.Duration {
	return t.ttl
}

// Generate issues a token for subject with the configured lifetime.
func (t *TokenManager) Generate(subject string) (string, error) {
	return t.Issue(subject, t.ttl)
}

// Issue signs a token for subject that expires ttl from now.
func (t *TokenManager) Issue(subject string, ttl time.Duration) (string, error) {
	now := t.now()
	claims := jwt.RegisteredClaims{
		Issuer:    t.issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(t.method, claims)
	return token.SignedString(t.secret)
}

// Verify returns the token's subject. ok is false for a bad signature, a
// foreign algorithm, a malformed payload, a missing subject, or once the
// current time reaches the expiry.
func (t *TokenManager) Verify(token string) (subject string, ok bool) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{t.method.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(t.issuer),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}
