package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/FrostIris6/pub-ledger/pkg/apperror"
	"github.com/FrostIris6/pub-ledger/pkg/logger"
)

// firstProductID is the lowest id the mapper ever assigns.
const firstProductID = 100

// FileProductIDMap persists the legacy-key to internal-id table as a JSON
// object. The next id is always recomputed from the persisted contents, so a
// restart never collides with previously assigned ids.
type FileProductIDMap struct {
	path    string
	mu      sync.Mutex
	mapping map[string]int
	nextID  int
	loaded  bool
	logger  *logger.Logger
}

// NewFileProductIDMap creates a file-backed identifier map.
func NewFileProductIDMap(path string, log *logger.Logger) *FileProductIDMap {
	return &FileProductIDMap{
		path:   path,
		logger: log.WithComponent("product_id_map"),
	}
}

func (m *FileProductIDMap) load() error {
	if m.loaded {
		return nil
	}
	m.mapping = make(map[string]int)
	m.nextID = firstProductID

	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			m.loaded = true
			return nil
		}
		return apperror.NewPersistenceError("failed to read product id mapping", err)
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &m.mapping); err != nil {
			m.logger.Warn("unable to load existing product id mapping", "path", m.path, "error", err)
			m.mapping = make(map[string]int)
		}
	}

	for _, id := range m.mapping {
		if id >= m.nextID {
			m.nextID = id + 1
		}
	}
	m.loaded = true
	m.logger.Debug("loaded product id mapping", "entries", len(m.mapping), "next_id", m.nextID)
	return nil
}

func (m *FileProductIDMap) save() error {
	data, err := json.MarshalIndent(m.mapping, "", "    ")
	if err != nil {
		return apperror.NewPersistenceError("failed to marshal product id mapping", err)
	}
	if dir := filepath.Dir(m.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperror.NewPersistenceError("failed to create data directory", err)
		}
	}
	tempFile := m.path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0o644); err != nil {
		return apperror.NewPersistenceError("failed to write product id mapping", err)
	}
	if err := os.Rename(tempFile, m.path); err != nil {
		return apperror.NewPersistenceError("failed to replace product id mapping", err)
	}
	return nil
}

// Resolve returns the internal id for a legacy key, allocating the next
// monotonic id and persisting the whole map when the key is new.
func (m *FileProductIDMap) Resolve(ctx context.Context, legacyKey string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.load(); err != nil {
		return 0, err
	}

	if id, ok := m.mapping[legacyKey]; ok {
		return id, nil
	}

	id := m.nextID
	m.mapping[legacyKey] = id
	m.nextID++

	if err := m.save(); err != nil {
		return 0, err
	}
	m.logger.Info("assigned product id", "legacy_key", legacyKey, "product_id", id)
	return id, nil
}

// Save persists the full map.
func (m *FileProductIDMap) Save(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.load(); err != nil {
		return err
	}
	return m.save()
}
