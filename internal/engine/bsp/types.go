// Package bsp loads QuakeII BSP maps and renders them front to back with
// PVS visibility and packed lightmaps.
//
// All vectors are in the engine's Y-up convention: an on-disk (x, y, z)
// becomes (y, z, x) at load time.
package bsp

import (
	"github.com/Faultbox/blackbloc/pkg/math"
)

// Plane axis classifications after the axis permutation. Types 0-2 are
// axial planes whose normal is the unit vector of that engine axis.
const (
	PlaneX = iota
	PlaneY
	PlaneZ
	PlaneAnyX
	PlaneAnyY
	PlaneAnyZ
)

// Texinfo surface flags.
const (
	SurfLight   = 0x1
	SurfSlick   = 0x2
	SurfSky     = 0x4
	SurfWarp    = 0x8
	SurfTrans33 = 0x10
	SurfTrans66 = 0x20
	SurfFlowing = 0x40
	SurfNoDraw  = 0x80

	// surfaces with any of these never receive a lightmap
	surfNoLightmap = SurfSky | SurfWarp | SurfTrans33 | SurfTrans66
)

// SurfPlaneBack marks a surface that faces away from its plane's normal.
const SurfPlaneBack = 0x2

// Leaf contents.
const (
	ContentsEmpty = 0
	ContentsSolid = 1
)

// MaxLightStyles is the number of light style slots per surface; style 255 ends the list.
const MaxLightStyles = 4

const lightStyleNone = 255

// Plane is a splitting plane.
type Plane struct {
	Normal math.Vec3
	Dist   float32
	Type   int
}

// Distance returns the signed distance of p from the plane.
func (pl *Plane) Distance(p math.Vec3) float32 {
	return p.Dot(pl.Normal) - pl.Dist
}

// Edge is a pair of vertex indices.
type Edge [2]uint16

// TexInfo is a texture projection shared by many surfaces.
type TexInfo struct {
	// Vecs are the S and T projection axes; [3] is the offset.
	Vecs  [2][4]float32
	Flags int32
	Value int32
	Name  string

	// Next is the following frame of an animation chain, or -1.
	Next      int
	NumFrames int

	Texture Texture
}

// project returns the texture-space coordinate of p along axis 0 (S) or 1 (T).
func (ti *TexInfo) project(p math.Vec3, axis int) float32 {
	v := &ti.Vecs[axis]
	return p.X*v[0] + p.Y*v[1] + p.Z*v[2] + v[3]
}

// PolyVertex is one vertex of a surface polygon: position, decal UV, lightmap UV.
// The layout is contiguous so a polygon can be streamed to the GPU as-is.
type PolyVertex struct {
	Pos    math.Vec3
	S, T   float32
	LS, LT float32
}

// Surface is a face of the world.
type Surface struct {
	Plane     int
	Flags     int
	FirstEdge int
	NumEdges  int
	TexInfo   int

	Styles [MaxLightStyles]uint8
	// LightOfs is the offset of the first style's samples in the lighting lump, or -1.
	LightOfs int

	TextureMins [2]int
	Extents     [2]int

	// LightmapPage is the atlas page holding this surface's lightmap, or -1.
	LightmapPage   int
	LightS, LightT int

	Poly []PolyVertex

	VisFrame int
}

// HasLightmap reports whether the surface was packed into an atlas page.
func (s *Surface) HasLightmap() bool {
	return s.LightmapPage >= 0
}

// NodeRef points at either an interior node or a leaf.
type NodeRef struct {
	Leaf  bool
	Index int
}

// InteriorRef returns a reference to node i.
func InteriorRef(i int) NodeRef { return NodeRef{Index: i} }

// LeafRef returns a reference to leaf i.
func LeafRef(i int) NodeRef { return NodeRef{Leaf: true, Index: i} }

// childRef decodes an on-disk child number: negative values are leaves.
func childRef(c int32) NodeRef {
	if c < 0 {
		return LeafRef(int(-1 - c))
	}
	return InteriorRef(int(c))
}

// Node is an interior node of the BSP tree.
type Node struct {
	Plane    int
	Children [2]NodeRef
	Mins     math.Vec3
	Maxs     math.Vec3

	// Parent is the index of the parent node, or -1 for the root.
	Parent int

	FirstSurface int
	NumSurfaces  int

	VisFrame int
}

// Leaf is a convex region at the bottom of the tree.
type Leaf struct {
	Contents int32
	// Cluster is the PVS cluster, or -1 when the leaf is outside the world.
	Cluster int
	Area    int
	Mins    math.Vec3
	Maxs    math.Vec3

	// Parent is the index of the parent node, or -1 when the leaf is the root.
	Parent int

	FirstMarkSurface int
	NumMarkSurfaces  int

	VisFrame int
}

// Model is an inline brush model. Model 0 is the world.
type Model struct {
	Mins      math.Vec3
	Maxs      math.Vec3
	Origin    math.Vec3
	HeadNode  int
	FirstFace int
	NumFaces  int
}
