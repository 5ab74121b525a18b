// ABOUTME: SQLite-backed session store using modernc.org/sqlite
// ABOUTME: Persists conversation sessions and messages under the XDG data dir
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite"

	"github.com/carebridge/clinrag/internal/models"
	"github.com/carebridge/clinrag/internal/session"
)

// SQLiteStore implements session.Store on a local SQLite database
type SQLiteStore struct {
	conn *sql.DB
	path string
}

var _ session.Store = (*SQLiteStore)(nil)

// DefaultDBPath returns the default database location following XDG
func DefaultDBPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = xdg.DataHome
	}
	return filepath.Join(dataHome, "clinrag", "sessions.db")
}

// Open opens or creates the session database at the given path
func Open(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("opening session database: %w", err)
	}

	store := &SQLiteStore{conn: conn, path: path}
	if err := store.migrate(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	turn_count INTEGER NOT NULL DEFAULT 0,
	summary    TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS messages (
	session_id TEXT NOT NULL REFERENCES sessions(id),
	seq        INTEGER NOT NULL,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	timestamp  TEXT NOT NULL,
	metadata   TEXT NOT NULL DEFAULT '{}',
	PRIMARY KEY (session_id, seq)
);`
	if _, err := s.conn.Exec(schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

// UpsertSession writes the session's metadata row
func (s *SQLiteStore) UpsertSession(sess *session.Session) error {
	_, err := s.conn.Exec(`
INSERT INTO sessions (id, created_at, updated_at, turn_count, summary)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	updated_at = excluded.updated_at,
	turn_count = excluded.turn_count,
	summary    = excluded.summary`,
		sess.ID,
		sess.CreatedAt.Format(time.RFC3339Nano),
		sess.UpdatedAt.Format(time.RFC3339Nano),
		sess.TurnCount,
		sess.Summary,
	)
	if err != nil {
		return fmt.Errorf("upserting session %s: %w", sess.ID, err)
	}
	return nil
}

// AppendMessage writes one message row at the given sequence position
func (s *SQLiteStore) AppendMessage(sessionID string, seq int, msg models.Message) error {
	metadata := "{}"
	if len(msg.Metadata) > 0 {
		raw, err := json.Marshal(msg.Metadata)
		if err != nil {
			return fmt.Errorf("encoding message metadata: %w", err)
		}
		metadata = string(raw)
	}

	_, err := s.conn.Exec(`
INSERT INTO messages (session_id, seq, role, content, timestamp, metadata)
VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, seq, string(msg.Role), msg.Content,
		msg.Timestamp.Format(time.RFC3339Nano), metadata,
	)
	if err != nil {
		return fmt.Errorf("appending message to %s: %w", sessionID, err)
	}
	return nil
}

// LoadSession reads a session and its messages; nil when absent
func (s *SQLiteStore) LoadSession(id string) (*session.Session, error) {
	row := s.conn.QueryRow(`SELECT id, created_at, updated_at, turn_count, summary FROM sessions WHERE id = ?`, id)

	var sess session.Session
	var createdAt, updatedAt string
	err := row.Scan(&sess.ID, &createdAt, &updatedAt, &sess.TurnCount, &sess.Summary)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}

	if sess.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at for %s: %w", id, err)
	}
	if sess.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at for %s: %w", id, err)
	}

	rows, err := s.conn.Query(`SELECT role, content, timestamp, metadata FROM messages WHERE session_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("loading messages for %s: %w", id, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var role, content, ts, metadata string
		if err := rows.Scan(&role, &content, &ts, &metadata); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}

		msg := models.Message{Role: models.Role(role), Content: content}
		if msg.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("parsing message timestamp: %w", err)
		}
		if metadata != "" && metadata != "{}" {
			if err := json.Unmarshal([]byte(metadata), &msg.Metadata); err != nil {
				return nil, fmt.Errorf("decoding message metadata: %w", err)
			}
		}
		sess.Messages = append(sess.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}

	return &sess, nil
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}
