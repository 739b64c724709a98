// Package store persists interview session snapshots. Sessions are written
// as opaque JSON documents keyed by session id; the engine never reads its
// own writes mid-session, so the store only has to support patch-style
// upserts and point lookups for resume.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Columns a patch may touch. Anything else in the partial update is dropped.
var patchColumns = []string{"status", "section", "snapshot", "final", "updated_at"}

// SessionRow is one persisted session.
type SessionRow struct {
	SessionID string    `json:"session_id"`
	Status    string    `json:"status"`
	Section   string    `json:"section"`
	Snapshot  []byte    `json:"snapshot,omitempty"`
	Final     []byte    `json:"final,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is the persistence surface for interview sessions.
type Store interface {
	// Patch upserts the provided fields for a session, leaving absent
	// fields untouched.
	Patch(ctx context.Context, sessionID string, partial map[string]any) error
	// Load returns the persisted row, or nil when the session is unknown.
	Load(ctx context.Context, sessionID string) (*SessionRow, error)
	Close()
}

// NotFoundError reports a lookup for a session the store has never seen.
type NotFoundError struct {
	SessionID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("session %s not found", e.SessionID)
}

// encodeValue normalizes a patch value for storage: byte slices pass
// through, times pass through, everything else is marshaled to JSON.
func encodeValue(key string, value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return v, nil
	case time.Time:
		return v, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}
		return data, nil
	}
}

// Memory is an in-process Store used by the console runner and tests.
type Memory struct {
	mu   sync.Mutex
	rows map[string]*SessionRow
}

// NewMemory builds an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{rows: make(map[string]*SessionRow)}
}

func (m *Memory) Patch(_ context.Context, sessionID string, partial map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.rows[sessionID]
	if !ok {
		row = &SessionRow{SessionID: sessionID}
		m.rows[sessionID] = row
	}
	for _, col := range patchColumns {
		value, present := partial[col]
		if !present {
			continue
		}
		encoded, err := encodeValue(col, value)
		if err != nil {
			return err
		}
		switch col {
		case "status":
			row.Status, _ = encoded.(string)
		case "section":
			row.Section, _ = encoded.(string)
		case "snapshot":
			row.Snapshot = asBytes(encoded)
		case "final":
			row.Final = asBytes(encoded)
		case "updated_at":
			if t, ok := encoded.(time.Time); ok {
				row.UpdatedAt = t
			}
		}
	}
	return nil
}

func (m *Memory) Load(_ context.Context, sessionID string) (*SessionRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.rows[sessionID]
	if !ok {
		return nil, &NotFoundError{SessionID: sessionID}
	}
	clone := *row
	return &clone, nil
}

// SessionIDs returns the known session ids, sorted.
func (m *Memory) SessionIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.rows))
	for id := range m.rows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m *Memory) Close() {}

func asBytes(v any) []byte {
	switch b := v.(type) {
	case []byte:
		return b
	case string:
		return []byte(b)
	default:
		return nil
	}
}
