package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Supported HMAC signing algorithms for access tokens.
var supportedAlgorithms = map[string]bool{
	"HS256": true,
	"HS384": true,
	"HS512": true,
}

const defaultCORSOrigins = "http://localhost,http://localhost:8000,http://localhost:3000"

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port         string
	DatabaseURL  string
	JWTSecret    string
	JWTAlgorithm string
	JWTIssuer    string
	JWTTTL       time.Duration
	CORSOrigins  []string
	Debug        bool
	Environment  string
	APIPrefix    string
	APITitle     string
	APIVersion   string
	BcryptCost   int
	LogFile      string
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		Port:         fallback(os.Getenv("PORT"), "8080"),
		DatabaseURL:  fallback(os.Getenv("DATABASE_URL"), "sqlite://app.db"),
		JWTSecret:    strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTAlgorithm: strings.ToUpper(fallback(os.Getenv("JWT_ALGORITHM"), "HS256")),
		JWTIssuer:    fallback(os.Getenv("JWT_ISSUER"), "agent-market"),
		CORSOrigins:  parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), defaultCORSOrigins)),
		Debug:        parseBool(os.Getenv("DEBUG")),
		Environment:  fallback(os.Getenv("ENVIRONMENT"), "development"),
		APIPrefix:    normalizePrefix(fallback(os.Getenv("API_PREFIX"), "/api")),
		APITitle:     "AI Agent Marketplace Backend",
		APIVersion:   "0.1.0",
		LogFile:      strings.TrimSpace(os.Getenv("LOG_FILE")),
	}

	minutes := fallback(os.Getenv("JWT_TTL_MINUTES"), fallback(os.Getenv("ACCESS_TOKEN_EXPIRE_MINUTES"), "30"))
	if ttlMinutes, err := strconv.Atoi(minutes); err == nil && ttlMinutes > 0 {
		cfg.JWTTTL = time.Duration(ttlMinutes) * time.Minute
	} else {
		cfg.JWTTTL = 30 * time.Minute
	}

	if raw := strings.TrimSpace(os.Getenv("BCRYPT_COST")); raw != "" {
		cost, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("BCRYPT_COST must be an integer: %w", err)
		}
		cfg.BcryptCost = cost
	}

	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	if !supportedAlgorithms[cfg.JWTAlgorithm] {
		return Config{}, fmt.Errorf("unsupported JWT_ALGORITHM %q", cfg.JWTAlgorithm)
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func parseBool(value string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	return err == nil && b
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimRight(prefix, "/")
	if prefix != "" && !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return prefix
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
