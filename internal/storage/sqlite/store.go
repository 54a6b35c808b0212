package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/hongminglow/agent-market-be/internal/models"
	"github.com/hongminglow/agent-market-be/internal/storage"
	"github.com/hongminglow/agent-market-be/internal/storage/migrations"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

const userColumns = `id, email, hashed_password, full_name, is_active, is_superuser, created_at, updated_at`

const agentColumns = `id, name, description, version, author, is_active, rating, download_count, owner_id, created_at, updated_at`

// Store provides SQLite-backed persistence for users and agents.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore opens the database at path, applies pragmas and runs migrations.
// Use ":memory:" for a throwaway database.
func NewStore(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One writer at a time; an in-memory database also lives on a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	if err := migrations.Up(ctx, db, goose.DialectSQLite3); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// DB returns the underlying connection for tests.
func (s *Store) DB() *sql.DB {
	return s.db
}

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	now := s.now()
	query := `
		INSERT INTO users (email, hashed_password, full_name, is_active, is_superuser, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING ` + userColumns
	row := s.db.QueryRowContext(ctx, query, user.Email, user.PasswordHash, user.FullName,
		user.IsActive, user.IsSuperuser, now, now)
	return scanUser(row)
}

// FindByEmail fetches a user by email address.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return scanUser(s.db.QueryRowContext(ctx, query, email))
}

// FindByID fetches a user by primary key.
func (s *Store) FindByID(ctx context.Context, id int64) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return scanUser(s.db.QueryRowContext(ctx, query, id))
}

// UpdateUser rewrites the non-nil profile fields in one statement.
func (s *Store) UpdateUser(ctx context.Context, id int64, changes storage.UserChanges) (models.User, error) {
	query := `
		UPDATE users
		SET email = COALESCE(?, email),
			full_name = COALESCE(?, full_name),
			updated_at = ?
		WHERE id = ?
		RETURNING ` + userColumns
	return scanUser(s.db.QueryRowContext(ctx, query, changes.Email, changes.FullName, s.now(), id))
}

// UpdateEmail changes a user's email address.
func (s *Store) UpdateEmail(ctx context.Context, id int64, email string) (models.User, error) {
	return s.UpdateUser(ctx, id, storage.UserChanges{Email: &email})
}

// UpdateName changes a user's display name.
func (s *Store) UpdateName(ctx context.Context, id int64, name string) (models.User, error) {
	return s.UpdateUser(ctx, id, storage.UserChanges{FullName: &name})
}

// SetActive toggles the active flag.
func (s *Store) SetActive(ctx context.Context, id int64, active bool) (models.User, error) {
	query := `UPDATE users SET is_active = ?, updated_at = ? WHERE id = ? RETURNING ` + userColumns
	return scanUser(s.db.QueryRowContext(ctx, query, active, s.now(), id))
}

// SetSuperuser toggles the superuser flag.
func (s *Store) SetSuperuser(ctx context.Context, id int64, superuser bool) (models.User, error) {
	query := `UPDATE users SET is_superuser = ?, updated_at = ? WHERE id = ? RETURNING ` + userColumns
	return scanUser(s.db.QueryRowContext(ctx, query, superuser, s.now(), id))
}

// CreateAgent inserts a new agent row.
func (s *Store) CreateAgent(ctx context.Context, agent models.Agent) (models.Agent, error) {
	now := s.now()
	query := `
		INSERT INTO agents (name, description, version, author, is_active, owner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING ` + agentColumns
	row := s.db.QueryRowContext(ctx, query, agent.Name, agent.Description, agent.Version, agent.Author,
		agent.IsActive, agent.OwnerID, now, now)
	return scanAgent(row)
}

// FindAgent fetches an agent by primary key.
func (s *Store) FindAgent(ctx context.Context, id int64) (models.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents WHERE id = ?`
	return scanAgent(s.db.QueryRowContext(ctx, query, id))
}

// ListAgents returns one page of agents ordered by id.
func (s *Store) ListAgents(ctx context.Context, filter storage.AgentFilter) ([]models.Agent, error) {
	query := `
		SELECT ` + agentColumns + `
		FROM agents
		WHERE (? OR is_active = 1 OR owner_id = ?)
		ORDER BY id
		LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, filter.IncludeInactive, filter.ViewerID, filter.Limit, filter.Skip)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	agents := make([]models.Agent, 0, filter.Limit)
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, agent)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	return agents, nil
}

// UpdateAgent rewrites the non-nil agent fields in one statement.
func (s *Store) UpdateAgent(ctx context.Context, id int64, changes storage.AgentChanges) (models.Agent, error) {
	query := `
		UPDATE agents
		SET name = COALESCE(?, name),
			description = COALESCE(?, description),
			version = COALESCE(?, version),
			author = COALESCE(?, author),
			is_active = COALESCE(?, is_active),
			updated_at = ?
		WHERE id = ?
		RETURNING ` + agentColumns
	row := s.db.QueryRowContext(ctx, query, changes.Name, changes.Description, changes.Version,
		changes.Author, changes.IsActive, s.now(), id)
	return scanAgent(row)
}

// DeleteAgent removes an agent row.
func (s *Store) DeleteAgent(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM agents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete agent: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete agent: %w", err)
	}
	if rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.FullName,
		&user.IsActive, &user.IsSuperuser, timestamp{&user.CreatedAt}, timestamp{&user.UpdatedAt})
	if err != nil {
		return models.User{}, translate(err)
	}
	return user, nil
}

func scanAgent(row scanner) (models.Agent, error) {
	var agent models.Agent
	err := row.Scan(&agent.ID, &agent.Name, &agent.Description, &agent.Version, &agent.Author,
		&agent.IsActive, &agent.Rating, &agent.DownloadCount, &agent.OwnerID, timestamp{&agent.CreatedAt}, timestamp{&agent.UpdatedAt})
	if err != nil {
		return models.Agent{}, translate(err)
	}
	return agent, nil
}

func translate(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return storage.ErrAlreadyExists
	}
	return err
}
