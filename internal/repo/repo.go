package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

var ErrNotFound = errors.New("not found")

type UserRepository interface {
	CreateUser(ctx context.Context, login, email, password string) (int, error)
	GetBylogin(ctx context.Context, login string) (int, string, error)
}

type SavedConfig struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Payload   []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

type ConfigRepository interface {
	SaveConfig(ctx context.Context, userID int, name string, payload []byte) (SavedConfig, error)
	ListConfigs(ctx context.Context, userID int) ([]SavedConfig, error)
	GetConfig(ctx context.Context, userID int, id uuid.UUID) (SavedConfig, error)
	DeleteConfig(ctx context.Context, userID int, id uuid.UUID) error
}

type HistoryEntry struct {
	RecordedAt time.Time
	Ratio      float64
}

type HistoryRepository interface {
	AppendHistory(ctx context.Context, userID int, entries ...HistoryEntry) error
	// ListHistory returns the latest limit entries, oldest first. A limit of
	// 0 returns everything.
	ListHistory(ctx context.Context, userID int, limit int) ([]HistoryEntry, error)
}

type Repository interface {
	UserRepository
	ConfigRepository
	HistoryRepository
}

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Open connects to Postgres, requiring TLS unless the DSN says otherwise.
func Open(connStr string) (*sql.DB, error) {
	if connStr == "" {
		return nil, errors.New("empty database connection string")
	}
	if !strings.Contains(connStr, "sslmode=") {
		if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
			sep := "?"
			if strings.Contains(connStr, "?") {
				sep = "&"
			}
			connStr = connStr + sep + "sslmode=require"
		} else {
			connStr = connStr + " sslmode=require"
		}
	}
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("configure db: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		login TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL,
		password TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS airship_configs (
		id UUID PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		payload JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS lift_history (
		id BIGSERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		recorded_at TIMESTAMPTZ NOT NULL,
		ratio DOUBLE PRECISION NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS lift_history_user_idx ON lift_history (user_id, id)`,
}

func (r *PostgresRepository) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) CreateUser(ctx context.Context, login, email, password string) (int, error) {
	var id int
	query := "INSERT INTO users (login, email, password) VALUES ($1, $2, $3) RETURNING id"
	err := r.db.QueryRowContext(ctx, query, login, email, password).Scan(&id)
	return id, err
}

// GetBylogin returns id 0 and an empty hash when the login is unknown.
func (r *PostgresRepository) GetBylogin(ctx context.Context, login string) (int, string, error) {
	var id int
	var hash string

	query := "SELECT id, password FROM users WHERE login=$1"

	err := r.db.QueryRowContext(ctx, query, login).Scan(&id, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, "", nil
		}
		return 0, "", err
	}
	return id, hash, nil
}

func (r *PostgresRepository) SaveConfig(ctx context.Context, userID int, name string, payload []byte) (SavedConfig, error) {
	sc := SavedConfig{ID: uuid.New(), Name: name, Payload: payload}
	query := "INSERT INTO airship_configs (id, user_id, name, payload) VALUES ($1, $2, $3, $4) RETURNING created_at"
	if err := r.db.QueryRowContext(ctx, query, sc.ID, userID, name, payload).Scan(&sc.CreatedAt); err != nil {
		return SavedConfig{}, err
	}
	return sc, nil
}

func (r *PostgresRepository) ListConfigs(ctx context.Context, userID int) ([]SavedConfig, error) {
	query := "SELECT id, name, payload, created_at FROM airship_configs WHERE user_id=$1 ORDER BY created_at DESC, id"
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SavedConfig
	for rows.Next() {
		var sc SavedConfig
		if err := rows.Scan(&sc.ID, &sc.Name, &sc.Payload, &sc.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetConfig(ctx context.Context, userID int, id uuid.UUID) (SavedConfig, error) {
	var sc SavedConfig
	query := "SELECT id, name, payload, created_at FROM airship_configs WHERE user_id=$1 AND id=$2"
	err := r.db.QueryRowContext(ctx, query, userID, id).Scan(&sc.ID, &sc.Name, &sc.Payload, &sc.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return SavedConfig{}, ErrNotFound
	}
	return sc, err
}

func (r *PostgresRepository) DeleteConfig(ctx context.Context, userID int, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM airship_configs WHERE user_id=$1 AND id=$2", userID, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) AppendHistory(ctx context.Context, userID int, entries ...HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO lift_history (user_id, recorded_at, ratio) VALUES ($1, $2, $3)")
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, userID, e.RecordedAt, e.Ratio); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *PostgresRepository) ListHistory(ctx context.Context, userID int, limit int) ([]HistoryEntry, error) {
	query := `SELECT recorded_at, ratio FROM (
		SELECT id, recorded_at, ratio FROM lift_history WHERE user_id=$1 ORDER BY id DESC LIMIT NULLIF($2, 0)
	) latest ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.RecordedAt, &e.Ratio); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
