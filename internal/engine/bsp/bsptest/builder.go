// Package bsptest builds synthetic QuakeII BSP files for tests.
package bsptest

import (
	"bytes"
	"encoding/binary"

	"github.com/Faultbox/blackbloc/pkg/formats"
)

// Builder assembles a BSP file in on-disk (Z-up) coordinates. Fields may be
// edited directly to produce corrupt files.
type Builder struct {
	Entities   string
	Planes     []formats.BSPPlane
	Vertices   []formats.BSPVertex
	Edges      []formats.BSPEdge
	SurfEdges  []int32
	TexInfos   []formats.BSPTexInfo
	Faces      []formats.BSPFace
	LeafFaces  []int16
	Leafs      []formats.BSPLeaf
	Nodes      []formats.BSPNode
	Models     []formats.BSPModel
	Lighting   []byte
	Visibility []byte

	// Override replaces a lump's encoded bytes.
	Override map[int][]byte
}

// NewBuilder returns an empty map.
func NewBuilder() *Builder {
	return &Builder{
		// edge 0 is never referenced by faces
		Edges:    []formats.BSPEdge{{}},
		Override: make(map[int][]byte),
	}
}

func (b *Builder) AddPlane(normal [3]float32, dist float32, typ int32) int {
	b.Planes = append(b.Planes, formats.BSPPlane{Normal: normal, Dist: dist, Type: typ})
	return len(b.Planes) - 1
}

// AddTexInfo adds a texinfo projecting on-disk x to s and y to t.
func (b *Builder) AddTexInfo(name string, flags int32, next int32) int {
	ti := formats.BSPTexInfo{
		Vecs: [2][4]float32{
			{1, 0, 0, 0},
			{0, 1, 0, 0},
		},
		Flags:       flags,
		NextTexInfo: next,
	}
	copy(ti.Texture[:], name)
	b.TexInfos = append(b.TexInfos, ti)
	return len(b.TexInfos) - 1
}

// AddFace appends a face whose edge loop visits verts in order. Every other
// edge is stored reversed and referenced by a negative surfedge.
func (b *Builder) AddFace(plane int, back bool, texinfo int, verts [][3]float32, styles [4]uint8, lightOfs int32) int {
	first := len(b.Vertices)
	for _, v := range verts {
		b.Vertices = append(b.Vertices, formats.BSPVertex{Point: v})
	}

	firstEdge := len(b.SurfEdges)
	for i := range verts {
		a := uint16(first + i)
		c := uint16(first + (i+1)%len(verts))
		if i%2 == 0 {
			b.Edges = append(b.Edges, formats.BSPEdge{V: [2]uint16{a, c}})
			b.SurfEdges = append(b.SurfEdges, int32(len(b.Edges)-1))
		} else {
			b.Edges = append(b.Edges, formats.BSPEdge{V: [2]uint16{c, a}})
			b.SurfEdges = append(b.SurfEdges, -int32(len(b.Edges)-1))
		}
	}

	var side int16
	if back {
		side = 1
	}
	b.Faces = append(b.Faces, formats.BSPFace{
		PlaneNum:  uint16(plane),
		Side:      side,
		FirstEdge: int32(firstEdge),
		NumEdges:  int16(len(verts)),
		TexInfo:   int16(texinfo),
		Styles:    styles,
		LightOfs:  lightOfs,
	})
	return len(b.Faces) - 1
}

func (b *Builder) AddLeaf(contents int32, cluster int16, mins, maxs [3]int16, marks ...int16) int {
	b.Leafs = append(b.Leafs, formats.BSPLeaf{
		Contents:      contents,
		Cluster:       cluster,
		Mins:          mins,
		Maxs:          maxs,
		FirstLeafFace: uint16(len(b.LeafFaces)),
		NumLeafFaces:  uint16(len(marks)),
	})
	b.LeafFaces = append(b.LeafFaces, marks...)
	return len(b.Leafs) - 1
}

func (b *Builder) AddNode(plane int, front, back int32, mins, maxs [3]int16, firstFace, numFaces int) int {
	b.Nodes = append(b.Nodes, formats.BSPNode{
		PlaneNum:  int32(plane),
		Children:  [2]int32{front, back},
		Mins:      mins,
		Maxs:      maxs,
		FirstFace: uint16(firstFace),
		NumFaces:  uint16(numFaces),
	})
	return len(b.Nodes) - 1
}

// LeafChild encodes leaf i as a node child number.
func LeafChild(i int) int32 {
	return int32(-1 - i)
}

// SetVisibility writes a visibility lump where cluster c uses rows[c] for
// both its PVS and PHS.
func (b *Builder) SetVisibility(rows ...[]byte) {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, uint32(len(rows)))

	offset := 4 + 8*len(rows)
	var data []byte
	for _, row := range rows {
		binary.Write(buf, binary.LittleEndian, [2]uint32{uint32(offset), uint32(offset)})
		data = append(data, row...)
		offset += len(row)
	}
	buf.Write(data)
	b.Visibility = buf.Bytes()
}

// EncodeLump serializes fixed-size records little-endian.
func EncodeLump(records any) []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, records)
	return buf.Bytes()
}

// Bytes returns the complete file.
func (b *Builder) Bytes() []byte {
	lumps := map[int][]byte{
		formats.LumpEntities:   []byte(b.Entities + "\x00"),
		formats.LumpPlanes:     EncodeLump(b.Planes),
		formats.LumpVertexes:   EncodeLump(b.Vertices),
		formats.LumpVisibility: b.Visibility,
		formats.LumpNodes:      EncodeLump(b.Nodes),
		formats.LumpTexInfo:    EncodeLump(b.TexInfos),
		formats.LumpFaces:      EncodeLump(b.Faces),
		formats.LumpLighting:   b.Lighting,
		formats.LumpLeafs:      EncodeLump(b.Leafs),
		formats.LumpLeafFaces:  EncodeLump(b.LeafFaces),
		formats.LumpEdges:      EncodeLump(b.Edges),
		formats.LumpSurfEdges:  EncodeLump(b.SurfEdges),
		formats.LumpModels:     EncodeLump(b.Models),
	}
	for lump, data := range b.Override {
		lumps[lump] = data
	}

	var hdr formats.BSPHeader
	copy(hdr.Magic[:], formats.BSPMagic)
	hdr.Version = formats.BSPVersion

	body := new(bytes.Buffer)
	offset := int32(formats.RecordSize[formats.BSPHeader]())
	for i := 0; i < formats.BSPLumpCount; i++ {
		data := lumps[i]
		hdr.Lumps[i] = formats.BSPLump{Offset: offset, Length: int32(len(data))}
		body.Write(data)
		offset += int32(len(data))
	}

	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, &hdr)
	buf.Write(body.Bytes())
	return buf.Bytes()
}

// Room extents and a 64x64 floor quad on the on-disk plane z = 0.
var (
	NoStyles  = [4]uint8{255, 255, 255, 255}
	OneStyle  = [4]uint8{0, 255, 255, 255}
	RoomMins  = [3]int16{-128, -128, -128}
	RoomMaxs  = [3]int16{128, 128, 128}
	FloorQuad = [][3]float32{{0, 0, 0}, {64, 0, 0}, {64, 64, 0}, {0, 64, 0}}
)

// WallQuad returns a 64x64 quad on the on-disk plane x = x.
func WallQuad(x float32) [][3]float32 {
	return [][3]float32{{x, 0, 0}, {x, 64, 0}, {x, 64, 64}, {x, 0, 64}}
}

// Leaf contents used by the sample maps.
const (
	contentsEmpty = 0
	contentsSolid = 1
)

// SingleRoom builds a map with no nodes, one leaf in cluster 0 and one lit
// floor quad textured texture. The lighting lump holds one grey sample per
// lightmap cell.
func SingleRoom(texture string, entities string) *Builder {
	b := NewBuilder()
	b.Entities = entities
	plane := b.AddPlane([3]float32{0, 0, 1}, 0, 2)
	ti := b.AddTexInfo(texture, 0, 0)
	face := b.AddFace(plane, false, ti, FloorQuad, OneStyle, 0)
	// 64 units at 16 per cell: 5x5 samples
	b.Lighting = bytes.Repeat([]byte{128}, 5*5*3)
	b.AddLeaf(contentsEmpty, 0, RoomMins, RoomMaxs, int16(face))
	b.SetVisibility([]byte{0x01})
	return b
}

// SplitRooms builds one node splitting two rooms at on-disk x = 0; each side
// owns a wall facing into its room. Leaf 0 is solid, leaf 1 (x > 0) is
// cluster 0 and leaf 2 (x < 0) is cluster 1.
func SplitRooms(texture string) *Builder {
	b := NewBuilder()
	plane := b.AddPlane([3]float32{1, 0, 0}, 0, 0)
	ti := b.AddTexInfo(texture, 0, 0)

	front := b.AddFace(plane, false, ti, WallQuad(0), NoStyles, -1)
	backVerts := WallQuad(0)
	for i, j := 0, len(backVerts)-1; i < j; i, j = i+1, j-1 {
		backVerts[i], backVerts[j] = backVerts[j], backVerts[i]
	}
	back := b.AddFace(plane, true, ti, backVerts, NoStyles, -1)

	b.AddLeaf(contentsSolid, -1, [3]int16{}, [3]int16{})
	b.AddLeaf(contentsEmpty, 0, [3]int16{0, -128, -128}, [3]int16{128, 128, 128}, int16(front))
	b.AddLeaf(contentsEmpty, 1, [3]int16{-128, -128, -128}, [3]int16{0, 128, 128}, int16(back))
	b.AddNode(plane, LeafChild(1), LeafChild(2), RoomMins, RoomMaxs, front, 2)

	b.SetVisibility([]byte{0x03}, []byte{0x03})
	return b
}
