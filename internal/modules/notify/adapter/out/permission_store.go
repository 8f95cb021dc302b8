package out

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"medtrack/internal/modules/notify/domain"
	notifyout "medtrack/internal/modules/notify/port/out"
	"medtrack/internal/platform/clock"
)

type permissionRecord struct {
	Permission string    `json:"permission"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type FilePermissionStore struct {
	path  string
	clock clock.Clock
}

func NewFilePermissionStore(dataDir string, clock clock.Clock) notifyout.PermissionStore {
	return &FilePermissionStore{path: filepath.Join(dataDir, "notify-permission.json"), clock: clock}
}

func (s *FilePermissionStore) Load(_ context.Context) (domain.Permission, error) {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.PermissionDefault, nil
		}
		return "", fmt.Errorf("read permission: %w", err)
	}
	record := permissionRecord{}
	if err := json.Unmarshal(payload, &record); err != nil {
		return "", fmt.Errorf("decode permission: %w", err)
	}
	return domain.ParsePermission(record.Permission)
}

func (s *FilePermissionStore) Save(_ context.Context, permission domain.Permission) error {
	if _, err := domain.ParsePermission(string(permission)); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create permission dir: %w", err)
	}
	payload, err := json.MarshalIndent(permissionRecord{Permission: string(permission), UpdatedAt: s.clock.Now()}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal permission: %w", err)
	}
	if err := os.WriteFile(s.path, payload, 0o644); err != nil {
		return fmt.Errorf("write permission: %w", err)
	}
	return nil
}
