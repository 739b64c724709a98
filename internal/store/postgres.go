package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres backs the store with a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS interview_sessions (
	session_id TEXT PRIMARY KEY,
	status     TEXT NOT NULL DEFAULT 'created',
	section    TEXT NOT NULL DEFAULT 'intro',
	snapshot   JSONB,
	final      JSONB,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// ConnectPostgres establishes a connection pool and ensures the session
// table exists.
func ConnectPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Patch(ctx context.Context, sessionID string, partial map[string]any) error {
	cols := []string{"session_id"}
	args := []any{sessionID}
	updates := make([]string, 0, len(patchColumns))

	for _, col := range patchColumns {
		value, present := partial[col]
		if !present {
			continue
		}
		encoded, err := encodeValue(col, value)
		if err != nil {
			return err
		}
		cols = append(cols, col)
		args = append(args, encoded)
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}
	if len(updates) == 0 {
		return nil
	}

	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf(
		`INSERT INTO interview_sessions (%s) VALUES (%s)
		 ON CONFLICT (session_id) DO UPDATE SET %s`,
		strings.Join(cols, ", "), strings.Join(placeholders, ", "), strings.Join(updates, ", "))

	if _, err := p.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to patch session %s: %w", sessionID, err)
	}
	return nil
}

func (p *Postgres) Load(ctx context.Context, sessionID string) (*SessionRow, error) {
	row := SessionRow{SessionID: sessionID}
	err := p.pool.QueryRow(ctx,
		`SELECT status, section, snapshot, final, updated_at
		 FROM interview_sessions WHERE session_id = $1`,
		sessionID,
	).Scan(&row.Status, &row.Section, &row.Snapshot, &row.Final, &row.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, &NotFoundError{SessionID: sessionID}
		}
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	return &row, nil
}

func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}
