package out

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"medtrack/internal/modules/schedule/domain"
	"medtrack/internal/platform/clock"

	_ "modernc.org/sqlite"
)

// SQLiteDocumentStore keeps documents as JSON rows in a key/value table.
type SQLiteDocumentStore struct {
	db    *sql.DB
	clock clock.Clock
}

func NewSQLiteDocumentStore(dbPath string, clock clock.Clock) (*SQLiteDocumentStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	store := &SQLiteDocumentStore{db: db, clock: clock}
	if err := store.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteDocumentStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS documents (
  key TEXT PRIMARY KEY,
  body TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create documents table: %w", err)
	}
	return nil
}

func (s *SQLiteDocumentStore) Load(ctx context.Context, key string) ([]domain.Medication, bool, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE key = ?`, key).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("query document: %w", err)
	}
	meds := []domain.Medication{}
	if err := json.Unmarshal([]byte(body), &meds); err != nil {
		return nil, false, fmt.Errorf("decode document %s: %w", key, err)
	}
	return meds, true, nil
}

func (s *SQLiteDocumentStore) Save(ctx context.Context, key string, meds []domain.Medication) error {
	payload, err := json.Marshal(meds)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	const stmt = `
INSERT INTO documents (key, body, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
  body=excluded.body,
  updated_at=excluded.updated_at;
`
	if _, err := s.db.ExecContext(ctx, stmt, key, string(payload), s.clock.Now().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return nil
}

func (s *SQLiteDocumentStore) Close() error {
	return s.db.Close()
}
