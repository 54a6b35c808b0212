package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hongminglow/agent-market-be/internal/auth"
	"github.com/hongminglow/agent-market-be/internal/config"
	"github.com/hongminglow/agent-market-be/internal/logging"
	"github.com/hongminglow/agent-market-be/internal/server"
	"github.com/hongminglow/agent-market-be/internal/storage/database"
)

func main() {
	loadLocalEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.New(logging.Options{Debug: cfg.Debug, LogFile: cfg.LogFile})
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	store, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("init database", zap.Error(err))
	}
	defer store.Close()

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAlgorithm, cfg.JWTTTL)
	if err != nil {
		logger.Fatal("init token manager", zap.Error(err))
	}

	srv := server.New(cfg, store, tokens, logger)

	go func() {
		logger.Info("agent marketplace backend listening",
			zap.String("addr", srv.Addr()),
			zap.String("environment", cfg.Environment),
			zap.String("api_prefix", cfg.APIPrefix),
		)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error("graceful shutdown error", zap.Error(err))
	}
}

func loadLocalEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found; relying on existing environment")
	}
}
