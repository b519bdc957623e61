package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SchemaVersion is the current database schema version.
const SchemaVersion = "1"

// SQLite is a SQLite-backed store.
type SQLite struct {
	mu sync.Mutex
	db *sql.DB
}

// NewSQLite opens (or creates) a SQLite store at path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			name TEXT PRIMARY KEY,
			body TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS turns (
			id TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS turns_conversation
			ON turns (conversation_id, created_at);
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLite{db: db}

	version, err := s.metadata("schema_version")
	if err != nil {
		db.Close()
		return nil, err
	}
	switch version {
	case "":
		if err := s.setMetadata("schema_version", SchemaVersion); err != nil {
			db.Close()
			return nil, err
		}
	case SchemaVersion:
	default:
		db.Close()
		return nil, fmt.Errorf("store: unsupported schema version %s (expected %s)", version, SchemaVersion)
	}

	return s, nil
}

// SaveDocument stores a document body under name.
func (s *SQLite) SaveDocument(name, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`
		INSERT INTO documents (name, body) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET body = excluded.body
	`, name, body)
	return err
}

// Document retrieves a document body.
func (s *SQLite) Document(name string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var body string
	err := s.db.QueryRow("SELECT body FROM documents WHERE name = ?", name).Scan(&body)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return body, true, nil
}

// Documents lists stored document names.
func (s *SQLite) Documents() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.Query("SELECT name FROM documents ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// DeleteDocument removes a document.
func (s *SQLite) DeleteDocument(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec("DELETE FROM documents WHERE name = ?", name)
	return err
}

// AppendTurn appends a message to a conversation.
func (s *SQLite) AppendTurn(conversationID, role, content string) (Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	turn := Turn{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
	_, err := s.db.Exec(`
		INSERT INTO turns (id, conversation_id, role, content, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, turn.ID, turn.ConversationID, turn.Role, turn.Content, turn.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return Turn{}, err
	}
	return turn, nil
}

// Turns returns a conversation's messages in insertion order.
func (s *SQLite) Turns(conversationID string) ([]Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.Query(`
		SELECT id, role, content, created_at FROM turns
		WHERE conversation_id = ? ORDER BY created_at, id
	`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var turns []Turn
	for rows.Next() {
		turn := Turn{ConversationID: conversationID}
		var created string
		if err := rows.Scan(&turn.ID, &turn.Role, &turn.Content, &created); err != nil {
			return nil, err
		}
		if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
			turn.CreatedAt = ts
		}
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) metadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *SQLite) setMetadata(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}
