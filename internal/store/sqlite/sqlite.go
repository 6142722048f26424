package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vovakirdan/roomrelay/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	seq            INTEGER PRIMARY KEY AUTOINCREMENT,
	id             TEXT NOT NULL,
	room           TEXT NOT NULL,
	kind           TEXT NOT NULL,
	content        TEXT NOT NULL,
	image_ref      TEXT NOT NULL DEFAULT '',
	sender         TEXT NOT NULL,
	sender_profile BLOB,
	timestamp      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_room ON messages(room, seq);
`

// SQLiteStore implements store.Log as an append-only table.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store, creating the file and schema if needed.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	return NewWithSetup(dbPath, migrate)
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply schema without migrations.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Set connection pool limits before setup
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load returns all messages ordered by insertion.
func (s *SQLiteStore) Load(ctx context.Context) ([]store.Record, error) {
	query := `
		SELECT id, room, kind, content, image_ref, sender, sender_profile, timestamp
		FROM messages
		ORDER BY seq ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	records := make([]store.Record, 0)
	for rows.Next() {
		var (
			rec     store.Record
			kind    string
			profile []byte
		)
		if err := rows.Scan(&rec.ID, &rec.Room, &kind, &rec.Content, &rec.ImageRef, &rec.Sender, &profile, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		rec.Kind = store.Kind(kind)
		if len(profile) > 0 {
			rec.SenderProfile = profile
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return records, nil
}

// Append inserts one message after all existing rows.
func (s *SQLiteStore) Append(ctx context.Context, rec store.Record) error {
	query := `
		INSERT INTO messages (id, room, kind, content, image_ref, sender, sender_profile, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	var profile any
	if len(rec.SenderProfile) > 0 {
		profile = []byte(rec.SenderProfile)
	}
	if _, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.Room, string(rec.Kind), rec.Content, rec.ImageRef, rec.Sender, profile, rec.Timestamp,
	); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}
