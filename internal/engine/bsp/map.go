package bsp

import (
	"errors"
	"fmt"
	"io/fs"

	"go.uber.org/zap"

	"github.com/Faultbox/blackbloc/internal/logger"
	"github.com/Faultbox/blackbloc/pkg/formats"
	"github.com/Faultbox/blackbloc/pkg/math"
)

// Map is a loaded BSP world. All arrays are immutable after Load except the
// VisFrame stamps, which the renderer updates every frame.
type Map struct {
	Name string

	Planes       []Plane
	Vertices     []math.Vec3
	Edges        []Edge
	SurfEdges    []int32
	TexInfos     []TexInfo
	Surfaces     []Surface
	MarkSurfaces []int
	Leaves       []Leaf
	Nodes        []Node
	Models       []Model
	Entities     []formats.Entity

	root NodeRef
	vis  visibility

	gpu       Backend
	textures  TextureResolver
	lightmaps []TextureID

	frustum   *math.Frustum
	animFrame int

	surfacesDrawn int
	leavesDrawn   int

	freed bool
}

// Stats is a snapshot of a map's sizes and last-frame rendering counters.
type Stats struct {
	Planes        int
	Vertices      int
	Edges         int
	Surfaces      int
	MarkSurfaces  int
	Leaves        int
	Nodes         int
	Models        int
	Clusters      int
	TexInfos      int
	LightmapPages int

	VisFrame      int
	ViewCluster   int
	LeavesDrawn   int
	SurfacesDrawn int
}

// Load reads a BSP map through fsys and builds it. Textures are acquired from
// textures and lightmap pages are created on gpu only once the whole map has
// parsed, so a failed load leaves no GPU allocations behind.
func Load(name string, fsys FileSystem, textures TextureResolver, gpu Backend) (*Map, error) {
	data, err := fsys.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s: %w", ErrNotFound, name, err)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return LoadBytes(name, data, textures, gpu)
}

// LoadBytes builds a map from an in-memory BSP file.
func LoadBytes(name string, data []byte, textures TextureResolver, gpu Backend) (*Map, error) {
	log := logger.Named("bsp")

	hdr, err := formats.ParseBSPHeader(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptHeader, name, err)
	}

	m := &Map{
		Name:     name,
		gpu:      gpu,
		textures: textures,
		vis:      visibility{viewCluster: -1},
	}
	l := &loader{
		hdr:      hdr,
		data:     data,
		m:        m,
		textures: textures,
		atlas:    newAtlasBuilder(),
	}

	if err := l.load(); err != nil {
		l.releaseTextures()
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	ents, err := formats.ParseEntities(hdr.LumpData(data, formats.LumpEntities))
	if err != nil {
		log.Warn("ignoring entity lump", zap.String("map", name), zap.Error(err))
	}
	m.Entities = ents

	pages := l.atlas.finish()
	m.lightmaps = make([]TextureID, 0, len(pages))
	for i, page := range pages {
		id, err := gpu.CreateTexture(LightmapBlockWidth, LightmapBlockHeight, page)
		if err != nil {
			m.deleteLightmaps()
			l.releaseTextures()
			return nil, fmt.Errorf("%w: %s: lightmap page %d: %w", ErrOutOfMemory, name, i, err)
		}
		m.lightmaps = append(m.lightmaps, id)
	}

	log.Info("map loaded",
		zap.String("map", name),
		zap.Int("surfaces", len(m.Surfaces)),
		zap.Int("leafs", len(m.Leaves)),
		zap.Int("nodes", len(m.Nodes)),
		zap.Int("clusters", m.vis.numClusters),
		zap.Int("lightmap_pages", len(m.lightmaps)),
		zap.Int("entities", len(m.Entities)))

	return m, nil
}

func (m *Map) deleteLightmaps() {
	for _, id := range m.lightmaps {
		m.gpu.DeleteTexture(id)
	}
	m.lightmaps = nil
}

// Free releases the lightmap pages and texture references. It is safe to call twice.
func (m *Map) Free() {
	if m == nil || m.freed {
		return
	}
	m.freed = true

	m.deleteLightmaps()
	for i := range m.TexInfos {
		if tex := m.TexInfos[i].Texture; tex != nil {
			m.textures.Put(tex)
			m.TexInfos[i].Texture = nil
		}
	}
	m.Leaves = nil
	m.Nodes = nil
	m.Surfaces = nil
}

// Root returns the top of the BSP tree.
func (m *Map) Root() NodeRef {
	return m.root
}

// NumClusters returns the number of PVS clusters; zero means no visibility data.
func (m *Map) NumClusters() int {
	return m.vis.numClusters
}

// VisFrame returns the current visibility frame stamp.
func (m *Map) VisFrame() int {
	return m.vis.frame
}

// ViewCluster returns the cluster the viewer was in at the last Render.
func (m *Map) ViewCluster() int {
	return m.vis.viewCluster
}

// LightmapPages returns the GPU textures of the lightmap atlas pages.
func (m *Map) LightmapPages() []TextureID {
	return m.lightmaps
}

// Stats returns counts for diagnostics.
func (m *Map) Stats() Stats {
	return Stats{
		Planes:        len(m.Planes),
		Vertices:      len(m.Vertices),
		Edges:         len(m.Edges),
		Surfaces:      len(m.Surfaces),
		MarkSurfaces:  len(m.MarkSurfaces),
		Leaves:        len(m.Leaves),
		Nodes:         len(m.Nodes),
		Models:        len(m.Models),
		Clusters:      m.vis.numClusters,
		TexInfos:      len(m.TexInfos),
		LightmapPages: len(m.lightmaps),
		VisFrame:      m.vis.frame,
		ViewCluster:   m.vis.viewCluster,
		LeavesDrawn:   m.leavesDrawn,
		SurfacesDrawn: m.surfacesDrawn,
	}
}
