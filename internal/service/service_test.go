package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/agent-market-be/internal/auth"
	"github.com/hongminglow/agent-market-be/internal/storage/sqlite"
)

type testEnv struct {
	store  *sqlite.Store
	users  *UserService
	agents *AgentService
	tokens *auth.TokenManager
}

func setupTestEnv(t *testing.T) testEnv {
	t.Helper()
	store, err := sqlite.NewStore(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(store.Close)

	tokens, err := auth.NewTokenManager("test-secret", "agent-market", "HS256", 30*time.Minute)
	require.NoError(t, err)

	logger := zap.NewNop()
	return testEnv{
		store:  store,
		users:  NewUserService(store, auth.NewHasher(bcrypt.MinCost), tokens, logger),
		agents: NewAgentService(store, logger),
		tokens: tokens,
	}
}

func strPtr(s string) *string { return &s }
