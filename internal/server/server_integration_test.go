package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hongminglow/agent-market-be/internal/auth"
	"github.com/hongminglow/agent-market-be/internal/config"
	"github.com/hongminglow/agent-market-be/internal/models"
	"github.com/hongminglow/agent-market-be/internal/models/dto"
	"github.com/hongminglow/agent-market-be/internal/storage/database"
)

// TestAuthIntegration exercises signup, login and /auth/me over a real
// listener against the database named by DATABASE_URL.
func TestAuthIntegration(t *testing.T) {
	if os.Getenv("RUN_AUTH_INTEGRATION") != "true" {
		t.Skip("set RUN_AUTH_INTEGRATION=true to run this integration test")
	}

	loadDotEnv()
	cfg, err := config.Load()
	require.NoError(t, err)

	ctx := context.Background()
	store, err := database.Open(ctx, cfg.DatabaseURL)
	require.NoError(t, err)
	defer store.Close()

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAlgorithm, cfg.JWTTTL)
	require.NoError(t, err)

	ts := httptest.NewServer(New(cfg, store, tokens, zap.NewNop()).Handler())
	defer ts.Close()
	base := ts.URL + cfg.APIPrefix

	email := fmt.Sprintf("apitest_%d@example.com", time.Now().UnixNano())
	password := fmt.Sprintf("Pass!%d", time.Now().UnixNano())

	user := requestSignup(t, base, email, password)
	assert.Equal(t, email, user.Email)
	assert.True(t, user.IsActive)

	token := requestLogin(t, base, email, password)
	assert.Equal(t, "bearer", token.TokenType)
	require.NotEmpty(t, strings.TrimSpace(token.AccessToken))

	req, err := http.NewRequest(http.MethodGet, base+"/auth/me", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var me models.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&me))
	assert.Equal(t, user.ID, me.ID)

	t.Logf("created user %s (id=%d) and resolved it via /auth/me", email, user.ID)
}

func requestSignup(t *testing.T, baseURL, email, password string) models.User {
	t.Helper()
	body, err := json.Marshal(dto.SignupRequest{Email: email, Password: password})
	require.NoError(t, err)

	resp, err := http.Post(baseURL+"/auth/signup", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out models.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func requestLogin(t *testing.T, baseURL, email, password string) dto.TokenResponse {
	t.Helper()
	resp, err := http.PostForm(baseURL+"/auth/login", url.Values{"username": {email}, "password": {password}})
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out dto.TokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func loadDotEnv() {
	paths := []string{
		".env",
		"../.env",
		"../../.env",
	}
	for _, path := range paths {
		_ = godotenv.Overload(path)
	}
}
