package out

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"medtrack/internal/modules/schedule/domain"
	scheduleout "medtrack/internal/modules/schedule/port/out"
)

// FileDocumentStore keeps one JSON file per key under dir. Writes go through
// a temp file and a rename so a crash never leaves a torn document.
type FileDocumentStore struct {
	dir string
}

func NewFileDocumentStore(dir string) scheduleout.DocumentStore {
	return &FileDocumentStore{dir: dir}
}

func (s *FileDocumentStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *FileDocumentStore) Load(_ context.Context, key string) ([]domain.Medication, bool, error) {
	payload, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read document: %w", err)
	}
	meds := []domain.Medication{}
	if err := json.Unmarshal(payload, &meds); err != nil {
		return nil, false, fmt.Errorf("decode document %s: %w", key, err)
	}
	return meds, true, nil
}

func (s *FileDocumentStore) Save(_ context.Context, key string, meds []domain.Medication) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	payload, err := json.MarshalIndent(meds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp document: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close document: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		return fmt.Errorf("replace document: %w", err)
	}
	return nil
}
