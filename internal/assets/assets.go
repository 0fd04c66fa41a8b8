// Package assets resolves game file names against a base directory and PAK archives.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/blackbloc/internal/logger"
	"github.com/Faultbox/blackbloc/pkg/encoding"
	"github.com/Faultbox/blackbloc/pkg/pak"
)

// ErrNotFound is returned when no source holds the requested file.
var ErrNotFound = fmt.Errorf("asset not found: %w", fs.ErrNotExist)

// Manager handles file lookups. A plain directory is searched first, then
// PAK archives from the most recently added to the oldest.
type Manager struct {
	dir      string
	archives []*pak.Archive
	cache    *Cache
	mu       sync.RWMutex
}

// NewManager creates a manager with no sources.
func NewManager() *Manager {
	return &Manager{
		cache: NewCache(DefaultCacheBytes),
	}
}

// SetDirectory sets the loose-file directory searched before any archive.
func (m *Manager) SetDirectory(dir string) {
	m.mu.Lock()
	m.dir = dir
	m.mu.Unlock()
	m.cache.Clear()
}

// AddArchive adds a PAK archive to the manager.
// Archives are searched in reverse order (last added = highest priority).
func (m *Manager) AddArchive(path string) error {
	archive, err := pak.Open(path)
	if err != nil {
		return fmt.Errorf("opening archive %s: %w", path, err)
	}

	if n := archive.Skipped(); n > 0 {
		logger.Named("assets").Warn("archive entries outside file skipped",
			zap.String("pak", path), zap.Int("skipped", n))
	}

	m.mu.Lock()
	m.archives = append(m.archives, archive)
	m.mu.Unlock()
	m.cache.Clear()

	return nil
}

// AddDefaultArchives opens pak0.pak, pak1.pak, ... from dir until one is missing.
// It returns how many were added.
func (m *Manager) AddDefaultArchives(dir string) (int, error) {
	n := 0
	for ; ; n++ {
		path := filepath.Join(dir, fmt.Sprintf("pak%d.pak", n))
		if _, err := os.Stat(path); err != nil {
			return n, nil
		}
		if err := m.AddArchive(path); err != nil {
			return n, err
		}
	}
}

// OpenGameDir creates a manager over a game directory: loose files in
// baseDir, then paks. Relative pak paths are resolved against baseDir; with no
// paks listed the numbered pak files of baseDir are used.
func OpenGameDir(baseDir string, paks []string) (*Manager, error) {
	m := NewManager()
	m.SetDirectory(baseDir)

	if len(paks) == 0 {
		n, err := m.AddDefaultArchives(baseDir)
		if err != nil {
			m.Close()
			return nil, err
		}
		logger.Named("assets").Info("game directory opened", zap.String("dir", baseDir), zap.Int("paks", n))
		return m, nil
	}

	for _, p := range paks {
		if !filepath.IsAbs(p) {
			p = filepath.Join(baseDir, p)
		}
		if err := m.AddArchive(p); err != nil {
			m.Close()
			return nil, err
		}
	}
	logger.Named("assets").Info("game directory opened", zap.String("dir", baseDir), zap.Int("paks", len(paks)))
	return m, nil
}

// Open loads a whole file. It satisfies bsp.FileSystem.
func (m *Manager) Open(name string) ([]byte, error) {
	name = encoding.NormalizePath(name)

	if data, ok := m.cache.Get(name); ok {
		return data, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.dir != "" {
		data, err := os.ReadFile(filepath.Join(m.dir, filepath.FromSlash(name)))
		if err == nil {
			m.cache.Set(name, data)
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
	}

	for i := len(m.archives) - 1; i >= 0; i-- {
		data, err := m.archives[i].Read(name)
		if err == nil {
			m.cache.Set(name, data)
			return data, nil
		}
		if !errors.Is(err, pak.ErrFileNotFound) {
			return nil, fmt.Errorf("%s: %w", m.archives[i].Path(), err)
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Forget drops a file from the cache.
func (m *Manager) Forget(name string) {
	m.cache.Delete(encoding.NormalizePath(name))
}

// CacheStats returns the file cache counters.
func (m *Manager) CacheStats() CacheStats {
	return m.cache.Stats()
}

// Close closes all archives.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, archive := range m.archives {
		archive.Close()
	}
	m.archives = nil
	m.cache.Clear()
}
