package bsp

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/blackbloc/pkg/math"
)

// surfaceVertex returns the i-th vertex of a surface's edge loop. A zero or
// negative surfedge walks its edge backwards.
func (m *Map) surfaceVertex(s *Surface, i int) math.Vec3 {
	e := m.SurfEdges[s.FirstEdge+i]
	if e > 0 {
		return m.Vertices[m.Edges[e][0]]
	}
	return m.Vertices[m.Edges[-e][1]]
}

// calcSurfaceExtents computes the surface's texture-space bounds, snapped
// outwards to the 16 unit light grid.
func (m *Map) calcSurfaceExtents(s *Surface) {
	ti := &m.TexInfos[s.TexInfo]
	mins := [2]float32{999999, 999999}
	maxs := [2]float32{-99999, -99999}

	for i := 0; i < s.NumEdges; i++ {
		v := m.surfaceVertex(s, i)
		for j := 0; j < 2; j++ {
			val := ti.project(v, j)
			mins[j] = math32.Min(mins[j], val)
			maxs[j] = math32.Max(maxs[j], val)
		}
	}

	for i := 0; i < 2; i++ {
		bmin := int(math32.Floor(mins[i] / 16))
		bmax := int(math32.Ceil(maxs[i] / 16))
		s.TextureMins[i] = bmin * 16
		s.Extents[i] = (bmax - bmin) * 16
	}
}

// buildPolygon builds the surface's vertex loop with decal and lightmap
// coordinates. Square textures are mapped against a 64x64 reference size.
func (m *Map) buildPolygon(s *Surface) {
	ti := &m.TexInfos[s.TexInfo]

	w, h := float32(ti.Texture.Width()), float32(ti.Texture.Height())
	if ti.Texture.Width() == ti.Texture.Height() {
		w, h = 64, 64
	}

	s.Poly = make([]PolyVertex, s.NumEdges)
	for i := range s.Poly {
		v := m.surfaceVertex(s, i)
		ps, pt := ti.project(v, 0), ti.project(v, 1)

		s.Poly[i] = PolyVertex{
			Pos: v,
			S:   ps / w,
			T:   pt / h,
			LS:  (ps - float32(s.TextureMins[0]) + float32(s.LightS*16) + 8) / (LightmapBlockWidth * 16),
			LT:  (pt - float32(s.TextureMins[1]) + float32(s.LightT*16) + 8) / (LightmapBlockHeight * 16),
		}
	}
}
