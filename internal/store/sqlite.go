package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite backs the store with an embedded database file, used for local
// development and the console runner.
type SQLite struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS interview_sessions (
	session_id TEXT PRIMARY KEY,
	status     TEXT NOT NULL DEFAULT 'created',
	section    TEXT NOT NULL DEFAULT 'intro',
	snapshot   BLOB,
	final      BLOB,
	updated_at TEXT NOT NULL DEFAULT ''
)`

// OpenSQLite opens (creating if needed) the database file and ensures the
// session table exists.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// The driver serializes access; a single connection avoids SQLITE_BUSY
	// on concurrent writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Patch(ctx context.Context, sessionID string, partial map[string]any) error {
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
		if t, ok := encoded.(time.Time); ok {
			encoded = t.UTC().Format(time.RFC3339Nano)
		}
		cols = append(cols, col)
		args = append(args, encoded)
		updates = append(updates, fmt.Sprintf("%s = excluded.%s", col, col))
	}
	if len(updates) == 0 {
		return nil
	}

	query := fmt.Sprintf(
		`INSERT INTO interview_sessions (%s) VALUES (%s)
		 ON CONFLICT (session_id) DO UPDATE SET %s`,
		strings.Join(cols, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "),
		strings.Join(updates, ", "))

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to patch session %s: %w", sessionID, err)
	}
	return nil
}

func (s *SQLite) Load(ctx context.Context, sessionID string) (*SessionRow, error) {
	row := SessionRow{SessionID: sessionID}
	var updatedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT status, section, snapshot, final, updated_at
		 FROM interview_sessions WHERE session_id = ?`,
		sessionID,
	).Scan(&row.Status, &row.Section, &row.Snapshot, &row.Final, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &NotFoundError{SessionID: sessionID}
		}
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	if updatedAt != "" {
		t, err := time.Parse(time.RFC3339Nano, updatedAt)
		if err != nil {
			log.Printf("[store] unparseable updated_at for session %s: %v", sessionID, err)
		} else {
			row.UpdatedAt = t
		}
	}
	return &row, nil
}

func (s *SQLite) Close() {
	if s.db != nil {
		s.db.Close()
	}
}
