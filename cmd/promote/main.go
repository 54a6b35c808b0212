// Command promote changes the superuser and active flags of an existing
// account. It is the only way to mint a superuser.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hongminglow/agent-market-be/internal/auth"
	"github.com/hongminglow/agent-market-be/internal/logging"
	"github.com/hongminglow/agent-market-be/internal/models"
	"github.com/hongminglow/agent-market-be/internal/service"
	"github.com/hongminglow/agent-market-be/internal/storage/database"
)

func main() {
	_ = godotenv.Load()

	defaultURL := os.Getenv("DATABASE_URL")
	if defaultURL == "" {
		defaultURL = "sqlite://app.db"
	}

	email := flag.String("email", "", "email of the account to change (required)")
	superuser := flag.Bool("superuser", true, "grant (true) or revoke (false) superuser rights")
	active := flag.Bool("active", true, "activate (true) or deactivate (false) the account")
	dbURL := flag.String("database", defaultURL, "database URL")
	flag.Parse()

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if *email == "" {
		fmt.Fprintln(os.Stderr, "promote: -email is required")
		flag.Usage()
		os.Exit(2)
	}
	// With neither flag given, promote grants superuser.
	if !set["superuser"] && !set["active"] {
		set["superuser"] = true
	}

	logger := logging.New(logging.Options{Debug: true})
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, logger, *dbURL, *email, set, *superuser, *active); err != nil {
		logger.Error("promote failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *zap.Logger, dbURL, email string, set map[string]bool, superuser, active bool) error {
	store, err := database.Open(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	users := service.NewUserService(store, auth.NewHasher(0), nil, logger)
	user, err := users.Lookup(ctx, email)
	if err != nil {
		return err
	}

	if set["superuser"] {
		if user, err = users.SetSuperuser(ctx, user.ID, superuser); err != nil {
			return err
		}
	}
	if set["active"] {
		update := users.Activate
		if !active {
			update = users.Deactivate
		}
		if user, err = update(ctx, user.ID); err != nil {
			return err
		}
	}

	report(user)
	return nil
}

func report(user models.User) {
	fmt.Printf("user %d <%s>: superuser=%t active=%t\n", user.ID, user.Email, user.IsSuperuser, user.IsActive)
}
