package download

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// manifestName is the file under the data dir that records past fetches.
const manifestName = "manifest.json"

type manifestEntry struct {
	URL         string `json:"url"`
	Path        string `json:"path"`
	RetrievedAt int64  `json:"retrieved_at"`
}

// manifest is a JSON file cache of retrieval times keyed by dataset key.
type manifest struct {
	mu      sync.RWMutex
	path    string
	entries map[string]manifestEntry
	loaded  bool
}

func (m *manifest) load() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loaded {
		return nil
	}
	m.entries = make(map[string]manifestEntry)
	data, err := os.ReadFile(m.path)
	if errors.Is(err, fs.ErrNotExist) {
		m.loaded = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}
	// a corrupt manifest only costs a re-download
	_ = json.Unmarshal(data, &m.entries)
	m.loaded = true
	return nil
}

func (m *manifest) save() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, err := json.MarshalIndent(m.entries, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(m.path, b, 0o644)
}

// fresh returns the stored path for key when it was fetched from url less
// than ttl ago and is still on disk. A zero ttl never expires.
func (m *manifest) fresh(key, url string, ttl time.Duration, now time.Time) (string, bool) {
	if err := m.load(); err != nil {
		return "", false
	}
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok || e.URL != url {
		return "", false
	}
	if ttl > 0 && now.Sub(time.Unix(e.RetrievedAt, 0)) > ttl {
		return "", false
	}
	if _, err := os.Stat(e.Path); err != nil {
		return "", false
	}
	return e.Path, true
}

func (m *manifest) record(key string, e manifestEntry) error {
	if err := m.load(); err != nil {
		return err
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return m.save()
}
