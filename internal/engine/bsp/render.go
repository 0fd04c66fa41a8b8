package bsp

import (
	"time"

	"github.com/Faultbox/blackbloc/pkg/math"
)

// animationRate is the number of texture animation frames per second.
const animationRate = 2

// SetFrustum enables bounding-box culling against f. Nil disables it.
func (m *Map) SetFrustum(f *math.Frustum) {
	m.frustum = f
}

// SetTime selects texture animation frames for the given map time.
func (m *Map) SetTime(t time.Duration) {
	m.animFrame = int(t * animationRate / time.Second)
}

// Render updates visibility for the eye position and draws the world front to back.
func (m *Map) Render(eye math.Vec3) {
	if m.gpu == nil || len(m.Leaves) == 0 {
		return
	}

	frame := m.UpdateVisibility(eye)
	m.surfacesDrawn = 0
	m.leavesDrawn = 0

	m.gpu.CullFace(CullFront)
	m.gpu.BlendFunc(BlendModulate)
	m.gpu.SetBlend(false)

	m.recursiveWorldNode(m.root, eye, frame)

	m.gpu.BlendFunc(BlendAlpha)
	m.gpu.SetBlend(true)
}

// culled reports whether a box lies entirely outside the frustum.
func (m *Map) culled(mins, maxs math.Vec3) bool {
	return m.frustum != nil && !m.frustum.IntersectsBox(math.AABB{Min: mins, Max: maxs})
}

func (m *Map) recursiveWorldNode(ref NodeRef, eye math.Vec3, frame int) {
	if ref.Leaf {
		leaf := &m.Leaves[ref.Index]
		if leaf.Contents == ContentsSolid || leaf.VisFrame != frame {
			return
		}
		if m.culled(leaf.Mins, leaf.Maxs) {
			return
		}

		// Leaves draw nothing themselves; their surfaces are drawn by the
		// node that owns them once stamped. A map without nodes has no
		// owner, so its only leaf draws them.
		marks := m.MarkSurfaces[leaf.FirstMarkSurface : leaf.FirstMarkSurface+leaf.NumMarkSurfaces]
		for _, si := range marks {
			m.Surfaces[si].VisFrame = frame
		}
		if ref == m.root {
			for _, si := range marks {
				m.renderSurface(&m.Surfaces[si])
			}
		}
		m.leavesDrawn++
		return
	}

	node := &m.Nodes[ref.Index]
	if node.VisFrame != frame || m.culled(node.Mins, node.Maxs) {
		return
	}

	plane := &m.Planes[node.Plane]
	var dot float32
	if plane.Type < PlaneAnyX {
		dot = eye.Index(plane.Type) - plane.Dist
	} else {
		dot = plane.Distance(eye)
	}

	side, sidebit := 0, 0
	if dot < 0 {
		side, sidebit = 1, SurfPlaneBack
	}

	m.recursiveWorldNode(node.Children[side], eye, frame)

	for i := node.FirstSurface; i < node.FirstSurface+node.NumSurfaces; i++ {
		s := &m.Surfaces[i]
		if s.VisFrame != frame || s.Flags&SurfPlaneBack != sidebit {
			continue
		}
		m.renderSurface(s)
	}

	m.recursiveWorldNode(node.Children[side^1], eye, frame)
}

// renderSurface draws the lightmap pass, when the surface has one, and then
// the base texture multiplied over it.
func (m *Map) renderSurface(s *Surface) {
	if s.HasLightmap() {
		m.gpu.BindTexture(m.lightmaps[s.LightmapPage])
		m.gpu.DrawPolygon(s.Poly, UVLightmap)

		m.gpu.SetBlend(true)
		m.gpu.BlendFunc(BlendModulate)
	}

	if tex := m.animatedTexture(s.TexInfo); tex != nil {
		tex.Bind()
	}
	m.gpu.DrawPolygon(s.Poly, UVDecal)

	m.gpu.SetBlend(false)
	m.gpu.DepthMask(true)
	m.surfacesDrawn++
}

// animatedTexture follows the texinfo's animation chain to the current frame.
func (m *Map) animatedTexture(ti int) Texture {
	t := &m.TexInfos[ti]
	if t.NumFrames <= 1 {
		return t.Texture
	}
	for c := m.animFrame % t.NumFrames; c > 0 && t.Next >= 0; c-- {
		t = &m.TexInfos[t.Next]
	}
	return t.Texture
}
