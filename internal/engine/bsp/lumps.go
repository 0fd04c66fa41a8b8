package bsp

import (
	"fmt"

	"github.com/Faultbox/blackbloc/pkg/formats"
	"github.com/Faultbox/blackbloc/pkg/math"
)

// maxMapElements caps the element count of each lump. Anything larger is
// refused as ErrOutOfMemory before allocation.
var maxMapElements = map[int]int{
	formats.LumpEntities:   0x40000,
	formats.LumpPlanes:     65536,
	formats.LumpVertexes:   65536,
	formats.LumpVisibility: 0x100000,
	formats.LumpNodes:      65536,
	formats.LumpTexInfo:    8192,
	formats.LumpFaces:      65536,
	formats.LumpLighting:   0x200000,
	formats.LumpLeafs:      65536,
	formats.LumpLeafFaces:  65536,
	formats.LumpEdges:      128000,
	formats.LumpSurfEdges:  256000,
	formats.LumpModels:     1024,
}

// loader is the per-load build context. Nothing in it outlives Load except
// what it moves into the Map.
type loader struct {
	hdr  *formats.BSPHeader
	data []byte
	m    *Map

	textures TextureResolver
	acquired []Texture

	lighting []byte
	atlas    *atlasBuilder
}

// swizzle converts an on-disk Z-up vector to the engine's Y-up convention.
func swizzle(v [3]float32) math.Vec3 {
	return math.Vec3{X: v[1], Y: v[2], Z: v[0]}
}

func swizzle16(v [3]int16) math.Vec3 {
	return math.Vec3{X: float32(v[1]), Y: float32(v[2]), Z: float32(v[0])}
}

// planeTypeRemap maps on-disk axial plane types onto the permuted axes.
var planeTypeRemap = [3]int{PlaneZ, PlaneX, PlaneY}

func lumpError(lump int, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrCorruptLump, formats.LumpName(lump), fmt.Sprintf(format, args...))
}

// readLump checks a lump's size and element count, then decodes it.
// Optional lumps may be empty.
func readLump[T any](l *loader, lump int, optional bool) ([]T, error) {
	data := l.hdr.LumpData(l.data, lump)
	size := formats.RecordSize[T]()

	if len(data)%size != 0 {
		return nil, lumpError(lump, "funny lump size %d", len(data))
	}
	count := len(data) / size
	if count == 0 && !optional {
		return nil, lumpError(lump, "bad count 0")
	}
	if limit, ok := maxMapElements[lump]; ok && count > limit {
		return nil, fmt.Errorf("%w: %s: %d elements, limit %d", ErrOutOfMemory, formats.LumpName(lump), count, limit)
	}

	out, err := formats.ReadLump[T](data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptLump, formats.LumpName(lump), err)
	}
	return out, nil
}

// load parses every lump in dependency order.
func (l *loader) load() error {
	steps := []func() error{
		l.loadVertexes,
		l.loadEdges,
		l.loadSurfEdges,
		l.loadLighting,
		l.loadPlanes,
		l.loadTexInfo,
		l.loadFaces,
		l.loadMarkSurfaces,
		l.loadVisibility,
		l.loadLeafs,
		l.loadNodes,
		l.loadModels,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func (l *loader) loadVertexes() error {
	in, err := readLump[formats.BSPVertex](l, formats.LumpVertexes, false)
	if err != nil {
		return err
	}
	l.m.Vertices = make([]math.Vec3, len(in))
	for i, v := range in {
		l.m.Vertices[i] = swizzle(v.Point)
	}
	return nil
}

func (l *loader) loadEdges() error {
	in, err := readLump[formats.BSPEdge](l, formats.LumpEdges, false)
	if err != nil {
		return err
	}
	l.m.Edges = make([]Edge, len(in))
	for i, e := range in {
		for _, v := range e.V {
			if int(v) >= len(l.m.Vertices) {
				return lumpError(formats.LumpEdges, "edge %d: bad vertex %d", i, v)
			}
		}
		l.m.Edges[i] = Edge(e.V)
	}
	return nil
}

func (l *loader) loadSurfEdges() error {
	in, err := readLump[int32](l, formats.LumpSurfEdges, false)
	if err != nil {
		return err
	}
	for i, e := range in {
		n := int64(e)
		if n < 0 {
			n = -n
		}
		if n >= int64(len(l.m.Edges)) {
			return lumpError(formats.LumpSurfEdges, "surfedge %d: bad edge %d", i, e)
		}
	}
	l.m.SurfEdges = in
	return nil
}

func (l *loader) loadLighting() error {
	data := l.hdr.LumpData(l.data, formats.LumpLighting)
	if len(data) > maxMapElements[formats.LumpLighting] {
		return fmt.Errorf("%w: lighting: %d bytes", ErrOutOfMemory, len(data))
	}
	l.lighting = data
	return nil
}

func (l *loader) loadPlanes() error {
	in, err := readLump[formats.BSPPlane](l, formats.LumpPlanes, false)
	if err != nil {
		return err
	}
	l.m.Planes = make([]Plane, len(in))
	for i, p := range in {
		t := int(p.Type)
		if t >= 0 && t < len(planeTypeRemap) {
			t = planeTypeRemap[t]
		}
		l.m.Planes[i] = Plane{
			Normal: swizzle(p.Normal),
			Dist:   p.Dist,
			Type:   t,
		}
	}
	return nil
}

func (l *loader) loadTexInfo() error {
	in, err := readLump[formats.BSPTexInfo](l, formats.LumpTexInfo, false)
	if err != nil {
		return err
	}

	l.m.TexInfos = make([]TexInfo, len(in))
	for i := range in {
		src := &in[i]
		out := &l.m.TexInfos[i]

		for j := 0; j < 2; j++ {
			out.Vecs[j] = [4]float32{src.Vecs[j][1], src.Vecs[j][2], src.Vecs[j][0], src.Vecs[j][3]}
		}
		out.Flags = src.Flags
		out.Value = src.Value
		out.Name = src.TextureName()

		out.Next = -1
		if next := int(src.NextTexInfo); next > 0 {
			if next >= len(in) {
				return lumpError(formats.LumpTexInfo, "texinfo %d: bad next %d", i, next)
			}
			out.Next = next
		}

		tex, err := l.textures.Get(out.Name)
		if err != nil {
			return fmt.Errorf("%w: texinfo %d: %s: %w", ErrMissingTexture, i, out.Name, err)
		}
		l.acquired = append(l.acquired, tex)
		if tex.Width() <= 0 || tex.Height() <= 0 {
			return fmt.Errorf("%w: texinfo %d: %s has no size", ErrMissingTexture, i, out.Name)
		}
		out.Texture = tex
	}

	// Animation chains loop back on themselves; a chain that never does
	// is cut off after visiting every texinfo once.
	for i := range l.m.TexInfos {
		ti := &l.m.TexInfos[i]
		ti.NumFrames = 1
		for step := ti.Next; step >= 0 && step != i && ti.NumFrames <= len(l.m.TexInfos); step = l.m.TexInfos[step].Next {
			ti.NumFrames++
		}
	}
	return nil
}

func (l *loader) loadFaces() error {
	in, err := readLump[formats.BSPFace](l, formats.LumpFaces, false)
	if err != nil {
		return err
	}

	m := l.m
	m.Surfaces = make([]Surface, len(in))
	for i := range in {
		src := &in[i]
		s := &m.Surfaces[i]

		s.Plane = int(src.PlaneNum)
		if s.Plane >= len(m.Planes) {
			return lumpError(formats.LumpFaces, "face %d: bad plane %d", i, s.Plane)
		}
		if src.Side != 0 {
			s.Flags |= SurfPlaneBack
		}

		s.TexInfo = int(src.TexInfo)
		if s.TexInfo < 0 || s.TexInfo >= len(m.TexInfos) {
			return lumpError(formats.LumpFaces, "face %d: bad texinfo %d", i, s.TexInfo)
		}

		s.FirstEdge = int(src.FirstEdge)
		s.NumEdges = int(src.NumEdges)
		if s.NumEdges < 3 || s.FirstEdge < 0 || s.FirstEdge+s.NumEdges > len(m.SurfEdges) {
			return lumpError(formats.LumpFaces, "face %d: bad edge range %d+%d", i, s.FirstEdge, s.NumEdges)
		}

		s.Styles = src.Styles
		m.calcSurfaceExtents(s)

		samples, err := l.surfaceSamples(i, s, int(src.LightOfs))
		if err != nil {
			return err
		}

		if m.TexInfos[s.TexInfo].Flags&surfNoLightmap == 0 {
			l.atlas.place(s, samples)
		} else {
			s.LightmapPage = -1
		}

		m.buildPolygon(s)
	}
	return nil
}

// surfaceSamples returns the stored light samples of a face, or nil when it
// has none (the lightmap is then full-bright).
func (l *loader) surfaceSamples(face int, s *Surface, ofs int) ([]byte, error) {
	s.LightOfs = -1
	if ofs == -1 || len(l.lighting) == 0 {
		return nil, nil
	}

	smax, tmax := s.lightGrid()
	maps := 0
	for maps < MaxLightStyles && s.Styles[maps] != lightStyleNone {
		maps++
	}
	end := ofs + smax*tmax*3*maps
	if ofs < 0 || end > len(l.lighting) {
		return nil, lumpError(formats.LumpFaces, "face %d: light offset %d+%d outside lighting", face, ofs, end-ofs)
	}
	s.LightOfs = ofs
	return l.lighting[ofs:end], nil
}

func (l *loader) loadMarkSurfaces() error {
	in, err := readLump[int16](l, formats.LumpLeafFaces, false)
	if err != nil {
		return err
	}
	l.m.MarkSurfaces = make([]int, len(in))
	for i, j := range in {
		if j < 0 || int(j) >= len(l.m.Surfaces) {
			return lumpError(formats.LumpLeafFaces, "bad leaf face surface number %d", j)
		}
		l.m.MarkSurfaces[i] = int(j)
	}
	return nil
}

func (l *loader) loadVisibility() error {
	data := l.hdr.LumpData(l.data, formats.LumpVisibility)
	if len(data) > maxMapElements[formats.LumpVisibility] {
		return fmt.Errorf("%w: visibility: %d bytes", ErrOutOfMemory, len(data))
	}

	vis, err := formats.ParseVisibility(data)
	if err != nil {
		return fmt.Errorf("%w: visibility: %w", ErrCorruptLump, err)
	}
	for c, ofs := range vis.Offsets {
		for _, o := range ofs {
			if int64(o) >= int64(len(data)) {
				return lumpError(formats.LumpVisibility, "cluster %d: offset %d outside lump", c, o)
			}
		}
	}

	l.m.vis = visibility{
		numClusters: vis.NumClusters,
		offsets:     vis.Offsets,
		data:        vis.Data,
		bits:        make([]byte, (vis.NumClusters+7)>>3),
		viewCluster: -1,
	}
	return nil
}

func (l *loader) loadLeafs() error {
	in, err := readLump[formats.BSPLeaf](l, formats.LumpLeafs, false)
	if err != nil {
		return err
	}

	m := l.m
	m.Leaves = make([]Leaf, len(in))
	for i := range in {
		src := &in[i]
		leaf := &m.Leaves[i]

		leaf.Contents = src.Contents
		leaf.Cluster = int(src.Cluster)
		leaf.Area = int(src.Area)
		leaf.Mins = swizzle16(src.Mins)
		leaf.Maxs = swizzle16(src.Maxs)
		leaf.Parent = -1

		if leaf.Cluster < -1 || (m.vis.numClusters > 0 && leaf.Cluster >= m.vis.numClusters) {
			return lumpError(formats.LumpLeafs, "leaf %d: bad cluster %d", i, leaf.Cluster)
		}

		leaf.FirstMarkSurface = int(src.FirstLeafFace)
		leaf.NumMarkSurfaces = int(src.NumLeafFaces)
		if leaf.FirstMarkSurface+leaf.NumMarkSurfaces > len(m.MarkSurfaces) {
			return lumpError(formats.LumpLeafs, "leaf %d: bad leaf face range %d+%d", i, leaf.FirstMarkSurface, leaf.NumMarkSurfaces)
		}
	}
	return nil
}

func (l *loader) loadNodes() error {
	in, err := readLump[formats.BSPNode](l, formats.LumpNodes, true)
	if err != nil {
		return err
	}

	m := l.m
	m.Nodes = make([]Node, len(in))
	for i := range in {
		src := &in[i]
		n := &m.Nodes[i]

		n.Mins = swizzle16(src.Mins)
		n.Maxs = swizzle16(src.Maxs)
		n.Parent = -1

		n.Plane = int(src.PlaneNum)
		if n.Plane < 0 || n.Plane >= len(m.Planes) {
			return lumpError(formats.LumpNodes, "node %d: bad plane %d", i, n.Plane)
		}

		n.FirstSurface = int(src.FirstFace)
		n.NumSurfaces = int(src.NumFaces)
		if n.FirstSurface+n.NumSurfaces > len(m.Surfaces) {
			return lumpError(formats.LumpNodes, "node %d: bad face range %d+%d", i, n.FirstSurface, n.NumSurfaces)
		}

		for j, c := range src.Children {
			ref := childRef(c)
			if err := m.checkRef(ref); err != nil {
				return lumpError(formats.LumpNodes, "node %d: child %d: %v", i, j, err)
			}
			n.Children[j] = ref
		}
	}

	if len(m.Nodes) == 0 {
		m.root = LeafRef(0)
		return nil
	}
	m.root = InteriorRef(0)
	return l.setParents()
}

func (m *Map) checkRef(ref NodeRef) error {
	if ref.Leaf {
		if ref.Index >= len(m.Leaves) {
			return fmt.Errorf("bad leaf %d", ref.Index)
		}
		return nil
	}
	if ref.Index >= len(m.Nodes) {
		return fmt.Errorf("bad node %d", ref.Index)
	}
	return nil
}

// setParents links every node and leaf reachable from the root to its parent
// in one top-down pass. A node reached twice means the lump is not a tree.
func (l *loader) setParents() error {
	m := l.m
	seen := make([]bool, len(m.Nodes))
	seen[0] = true
	stack := []int{0}

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, c := range m.Nodes[n].Children {
			if c.Leaf {
				m.Leaves[c.Index].Parent = n
				continue
			}
			if seen[c.Index] {
				return lumpError(formats.LumpNodes, "node %d reached twice", c.Index)
			}
			seen[c.Index] = true
			m.Nodes[c.Index].Parent = n
			stack = append(stack, c.Index)
		}
	}
	return nil
}

func (l *loader) loadModels() error {
	in, err := readLump[formats.BSPModel](l, formats.LumpModels, true)
	if err != nil {
		return err
	}

	m := l.m
	m.Models = make([]Model, len(in))
	for i := range in {
		src := &in[i]
		md := &m.Models[i]

		// spread by one unit on every side
		md.Mins = swizzle(src.Mins).Sub(math.Vec3{X: 1, Y: 1, Z: 1})
		md.Maxs = swizzle(src.Maxs).Add(math.Vec3{X: 1, Y: 1, Z: 1})
		md.Origin = swizzle(src.Origin)
		md.HeadNode = int(src.HeadNode)
		md.FirstFace = int(src.FirstFace)
		md.NumFaces = int(src.NumFaces)

		if md.FirstFace < 0 || md.NumFaces < 0 || md.FirstFace+md.NumFaces > len(m.Surfaces) {
			return lumpError(formats.LumpModels, "model %d: bad face range %d+%d", i, md.FirstFace, md.NumFaces)
		}
		if len(m.Nodes) == 0 {
			continue
		}
		if err := m.checkRef(childRef(src.HeadNode)); err != nil {
			return lumpError(formats.LumpModels, "model %d: head node: %v", i, err)
		}
	}
	return nil
}

// releaseTextures returns every texture acquired so far.
func (l *loader) releaseTextures() {
	for _, tex := range l.acquired {
		l.textures.Put(tex)
	}
	l.acquired = nil
}
