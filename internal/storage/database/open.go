// Package database selects a storage backend from a connection URL.
package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/hongminglow/agent-market-be/internal/storage"
	"github.com/hongminglow/agent-market-be/internal/storage/postgres"
	"github.com/hongminglow/agent-market-be/internal/storage/sqlite"
)

// Driver names a supported backend.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

// Parse splits a DATABASE_URL into a driver and the DSN that driver expects.
// postgres:// and postgresql:// URLs are passed through untouched; sqlite://
// and sqlite: prefixes are stripped to leave a file path or ":memory:".
func Parse(url string) (Driver, string, error) {
	url = strings.TrimSpace(url)
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DriverPostgres, url, nil
	case strings.HasPrefix(url, "sqlite://"):
		return sqlitePath(strings.TrimPrefix(url, "sqlite://"))
	case strings.HasPrefix(url, "sqlite:"):
		return sqlitePath(strings.TrimPrefix(url, "sqlite:"))
	default:
		return "", "", fmt.Errorf("unsupported database url scheme in %q", redact(url))
	}
}

// Open connects to the backend named by url and applies migrations.
func Open(ctx context.Context, url string) (storage.Store, error) {
	driver, dsn, err := Parse(url)
	if err != nil {
		return nil, err
	}
	switch driver {
	case DriverPostgres:
		store, err := postgres.NewStore(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		store, err := sqlite.NewStore(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

func sqlitePath(path string) (Driver, string, error) {
	// sqlite:///./app.db keeps the leading slash of a relative path.
	if strings.HasPrefix(path, "/./") {
		path = strings.TrimPrefix(path, "/")
	}
	if path == "" {
		return "", "", fmt.Errorf("sqlite url is missing a path")
	}
	return DriverSQLite, path, nil
}

// redact hides credentials embedded in a URL before it is logged or returned.
func redact(url string) string {
	at := strings.LastIndex(url, "@")
	scheme := strings.Index(url, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return url
	}
	return url[:scheme+3] + "***" + url[at:]
}
