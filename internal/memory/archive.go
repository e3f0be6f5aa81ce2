package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Exchange is one archived (input, response) pair.
type Exchange struct {
	ID         string
	Identity   string
	UserInput  string
	AIResponse string
	CreatedAt  time.Time
}

// Archiver mirrors recorded exchanges into durable storage. The in-process
// store stays authoritative; archive failures are logged and never surfaced
// to callers.
type Archiver interface {
	SaveExchange(ctx context.Context, ex Exchange) error
	Close() error
}

// NewArchive returns a Postgres-backed archiver when configured, otherwise
// nil (archiving disabled).
func NewArchive(ctx context.Context, databaseURL string) (Archiver, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, nil
	}
	return NewPostgresArchive(ctx, databaseURL)
}

// PostgresArchive persists conversation exchanges in PostgreSQL.
type PostgresArchive struct {
	pool *pgxpool.Pool
}

func NewPostgresArchive(ctx context.Context, databaseURL string) (*PostgresArchive, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresArchive{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS conversation_exchanges (
			id TEXT PRIMARY KEY,
			identity TEXT NOT NULL,
			user_input TEXT NOT NULL,
			ai_response TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_conversation_exchanges_identity_created
			ON conversation_exchanges (identity, created_at);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (a *PostgresArchive) SaveExchange(ctx context.Context, ex Exchange) error {
	if ex.ID == "" {
		ex.ID = uuid.NewString()
	}
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = time.Now().UTC()
	}

	_, err := a.pool.Exec(ctx,
		`INSERT INTO conversation_exchanges (id, identity, user_input, ai_response, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		ex.ID,
		ex.Identity,
		ex.UserInput,
		ex.AIResponse,
		ex.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save exchange: %w", err)
	}
	return nil
}

func (a *PostgresArchive) Close() error {
	a.pool.Close()
	return nil
}
