package out

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"medtrack/internal/modules/notify/domain"
	notifyout "medtrack/internal/modules/notify/port/out"
)

type FileManifestStore struct {
	basePath string
	path     string
}

// NewFileManifestStore reads <basePath>/notifiers/notifiers.json. Relative
// binaries resolve against basePath.
func NewFileManifestStore(basePath string) notifyout.ManifestStore {
	return &FileManifestStore{basePath: basePath, path: filepath.Join(basePath, "notifiers", "notifiers.json")}
}

func (s *FileManifestStore) Load(_ context.Context) ([]domain.Manifest, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.Manifest{}, nil
		}
		return nil, fmt.Errorf("read notifier manifest store: %w", err)
	}
	var manifests []domain.Manifest
	decoder := json.NewDecoder(bytes.NewReader(b))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&manifests); err != nil {
		return nil, fmt.Errorf("decode notifier manifests: %w", err)
	}
	seen := make(map[string]int, len(manifests))
	for i := range manifests {
		m := &manifests[i]
		m.Name = strings.TrimSpace(m.Name)
		m.Version = strings.TrimSpace(m.Version)
		m.SHA256 = normalizeChecksum(m.SHA256)
		if m.Binary != "" && !filepath.IsAbs(m.Binary) {
			m.Binary = filepath.Clean(filepath.Join(s.basePath, m.Binary))
		}
		if m.Name == "" {
			continue
		}
		// Names identify notifiers in status and doctor output.
		if first, ok := seen[m.Name]; ok {
			return nil, fmt.Errorf("notifier manifests: %q declared at entries %d and %d", m.Name, first+1, i+1)
		}
		seen[m.Name] = i
	}
	return manifests, nil
}

// normalizeChecksum accepts a pasted sha256sum line ("<hex>  <file>") and
// upper-case hex.
func normalizeChecksum(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}
