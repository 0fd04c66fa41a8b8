// Package world owns the currently loaded map and map changes.
package world

import (
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/blackbloc/internal/engine/bsp"
	"github.com/Faultbox/blackbloc/internal/logger"
)

// forgetter is implemented by file systems that cache whole files.
type forgetter interface {
	Forget(name string)
}

// Manager holds the current map. Only one map is live at a time.
type Manager struct {
	fsys     bsp.FileSystem
	textures bsp.TextureResolver
	gpu      bsp.Backend

	current *bsp.Map
	loading bool
	log     *zap.Logger
}

// NewManager creates a manager that loads maps through fsys.
func NewManager(fsys bsp.FileSystem, textures bsp.TextureResolver, gpu bsp.Backend) *Manager {
	return &Manager{
		fsys:     fsys,
		textures: textures,
		gpu:      gpu,
		log:      logger.Named("world"),
	}
}

// Current returns the current map, nil before the first successful load.
func (m *Manager) Current() *bsp.Map {
	return m.current
}

// MapPath expands a short map name: "base1" -> "maps/base1.bsp".
func MapPath(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	if path.Ext(name) == "" {
		name += ".bsp"
	}
	if !strings.Contains(name, "/") {
		name = "maps/" + name
	}
	return name
}

// LoadMap builds the named map and makes it current, freeing the previous
// one. On failure the previous map stays current.
func (m *Manager) LoadMap(name string) (*bsp.Map, error) {
	m.loading = true
	defer func() { m.loading = false }()

	name = MapPath(name)
	next, err := bsp.Load(name, m.fsys, m.textures, m.gpu)
	if f, ok := m.fsys.(forgetter); ok {
		f.Forget(name)
	}
	if err != nil {
		return nil, err
	}

	if prev := m.current; prev != nil {
		m.log.Debug("freeing map", zap.String("map", prev.Name))
		prev.Free()
	}
	m.current = next
	return next, nil
}

// Unload frees the current map.
func (m *Manager) Unload() {
	if m.current == nil {
		return
	}
	m.current.Free()
	m.current = nil
}

// IsLoading returns whether a map is currently loading.
func (m *Manager) IsLoading() bool {
	return m.loading
}
