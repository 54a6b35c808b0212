package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/hongminglow/agent-market-be/internal/models"
	"github.com/hongminglow/agent-market-be/internal/storage"
	"github.com/hongminglow/agent-market-be/internal/storage/migrations"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

const uniqueViolation = "23505"

const userColumns = `id, email, hashed_password, full_name, is_active, is_superuser, created_at, updated_at`

const agentColumns = `id, name, description, version, author, is_active, rating, download_count, owner_id, created_at, updated_at`

// Store provides Postgres-backed persistence for users and agents.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store and runs migrations.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) migrate(ctx context.Context) error {
	// The sql.DB shares the pool's connections; closing the pool releases them.
	db := stdlib.OpenDBFromPool(s.pool)
	return migrations.Up(ctx, db, goose.DialectPostgres)
}

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	query := `
		INSERT INTO users (email, hashed_password, full_name, is_active, is_superuser)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns
	row := s.pool.QueryRow(ctx, query, user.Email, user.PasswordHash, user.FullName, user.IsActive, user.IsSuperuser)
	return scanUser(row)
}

// FindByEmail fetches a user by email address.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(s.pool.QueryRow(ctx, query, email))
}

// FindByID fetches a user by primary key.
func (s *Store) FindByID(ctx context.Context, id int64) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(s.pool.QueryRow(ctx, query, id))
}

// UpdateUser rewrites the non-nil profile fields in one statement.
func (s *Store) UpdateUser(ctx context.Context, id int64, changes storage.UserChanges) (models.User, error) {
	query := `
		UPDATE users
		SET email = COALESCE($2, email),
			full_name = COALESCE($3, full_name),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	return scanUser(s.pool.QueryRow(ctx, query, id, changes.Email, changes.FullName))
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
	query := `UPDATE users SET is_active = $2, updated_at = NOW() WHERE id = $1 RETURNING ` + userColumns
	return scanUser(s.pool.QueryRow(ctx, query, id, active))
}

// SetSuperuser toggles the superuser flag.
func (s *Store) SetSuperuser(ctx context.Context, id int64, superuser bool) (models.User, error) {
	query := `UPDATE users SET is_superuser = $2, updated_at = NOW() WHERE id = $1 RETURNING ` + userColumns
	return scanUser(s.pool.QueryRow(ctx, query, id, superuser))
}

// CreateAgent inserts a new agent row.
func (s *Store) CreateAgent(ctx context.Context, agent models.Agent) (models.Agent, error) {
	query := `
		INSERT INTO agents (name, description, version, author, is_active, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + agentColumns
	row := s.pool.QueryRow(ctx, query, agent.Name, agent.Description, agent.Version, agent.Author, agent.IsActive, agent.OwnerID)
	return scanAgent(row)
}

// FindAgent fetches an agent by primary key.
func (s *Store) FindAgent(ctx context.Context, id int64) (models.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents WHERE id = $1`
	return scanAgent(s.pool.QueryRow(ctx, query, id))
}

// ListAgents returns one page of agents ordered by id.
func (s *Store) ListAgents(ctx context.Context, filter storage.AgentFilter) ([]models.Agent, error) {
	query := `
		SELECT ` + agentColumns + `
		FROM agents
		WHERE ($1::boolean OR is_active OR owner_id = $2)
		ORDER BY id
		LIMIT $3 OFFSET $4`
	rows, err := s.pool.Query(ctx, query, filter.IncludeInactive, filter.ViewerID, filter.Limit, filter.Skip)
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
		SET name = COALESCE($2, name),
			description = COALESCE($3, description),
			version = COALESCE($4, version),
			author = COALESCE($5, author),
			is_active = COALESCE($6, is_active),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + agentColumns
	row := s.pool.QueryRow(ctx, query, id, changes.Name, changes.Description, changes.Version, changes.Author, changes.IsActive)
	return scanAgent(row)
}

// DeleteAgent removes an agent row.
func (s *Store) DeleteAgent(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM agents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete agent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.FullName,
		&user.IsActive, &user.IsSuperuser, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return models.User{}, translate(err)
	}
	return user, nil
}

func scanAgent(row pgx.Row) (models.Agent, error) {
	var agent models.Agent
	err := row.Scan(&agent.ID, &agent.Name, &agent.Description, &agent.Version, &agent.Author,
		&agent.IsActive, &agent.Rating, &agent.DownloadCount, &agent.OwnerID, &agent.CreatedAt, &agent.UpdatedAt)
	if err != nil {
		return models.Agent{}, translate(err)
	}
	return agent, nil
}

func translate(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return storage.ErrAlreadyExists
	}
	return err
}
