package out

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pomotrack/internal/modules/notify/domain"
	notifyout "pomotrack/internal/modules/notify/port/out"
)

// FileManifestStore reads the notifier list from <data>/plugins/plugins.json.
type FileManifestStore struct {
	dataDir string
	path    string
}

func NewFileManifestStore(dataDir string) notifyout.ManifestStore {
	return &FileManifestStore{dataDir: dataDir, path: filepath.Join(dataDir, "plugins", "plugins.json")}
}

// Load returns no notifiers when the file is absent. Event names are
// trimmed and lowercased and must name a timer event; notifier names must be
// unique. Binaries may use $VARS and ~, and relative paths resolve against
// the data directory.
func (s *FileManifestStore) Load(_ context.Context) ([]domain.Manifest, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []domain.Manifest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read notifier manifests: %w", err)
	}

	manifests := []domain.Manifest{}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&manifests); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}

	names := make(map[string]int, len(manifests))
	for i := range manifests {
		m := &manifests[i]
		m.Name = strings.TrimSpace(m.Name)
		if first, dup := names[m.Name]; dup && m.Name != "" {
			return nil, fmt.Errorf("notifier %q listed twice (entries %d and %d)", m.Name, first+1, i+1)
		}
		names[m.Name] = i

		for j, event := range m.Events {
			kind := domain.EventKind(strings.ToLower(strings.TrimSpace(string(event))))
			if err := kind.Validate(); err != nil {
				return nil, fmt.Errorf("notifier %q: %w", m.Name, err)
			}
			m.Events[j] = kind
		}
		m.Binary = s.resolveBinary(m.Binary)
	}
	return manifests, nil
}

func (s *FileManifestStore) resolveBinary(binary string) string {
	binary = os.ExpandEnv(strings.TrimSpace(binary))
	if binary == "" {
		return ""
	}
	if binary == "~" || strings.HasPrefix(binary, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			binary = filepath.Join(home, strings.TrimPrefix(binary, "~"))
		}
	}
	if !filepath.IsAbs(binary) {
		binary = filepath.Join(s.dataDir, binary)
	}
	return filepath.Clean(binary)
}
