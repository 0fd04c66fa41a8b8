package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Faultbox/blackbloc/pkg/encoding"
)

// BSP format errors.
var (
	ErrInvalidBSPMagic       = errors.New("invalid BSP magic: expected 'IBSP'")
	ErrUnsupportedBSPVersion = errors.New("unsupported BSP version")
	ErrTruncatedBSPData      = errors.New("truncated BSP data")
	ErrBadLumpSize           = errors.New("lump size is not a multiple of its record size")
)

const (
	// BSPMagic is the QuakeII BSP identifier.
	BSPMagic = "IBSP"
	// BSPVersion is the only supported BSP version.
	BSPVersion = 38
	// BSPLumpCount is the number of lump descriptors in the header.
	BSPLumpCount = 19

	bspHeaderSize = 8 + BSPLumpCount*8
)

// Lump indices.
const (
	LumpEntities = iota
	LumpPlanes
	LumpVertexes
	LumpVisibility
	LumpNodes
	LumpTexInfo
	LumpFaces
	LumpLighting
	LumpLeafs
	LumpLeafFaces
	LumpLeafBrushes
	LumpEdges
	LumpSurfEdges
	LumpModels
	LumpBrushes
	LumpBrushSides
	LumpPop
	LumpAreas
	LumpAreaPortals
)

var lumpNames = [BSPLumpCount]string{
	"entities", "planes", "vertexes", "visibility", "nodes", "texinfo", "faces",
	"lighting", "leafs", "leaffaces", "leafbrushes", "edges", "surfedges", "models",
	"brushes", "brushsides", "pop", "areas", "areaportals",
}

// LumpName returns a human-readable name for a lump index.
func LumpName(lump int) string {
	if lump < 0 || lump >= BSPLumpCount {
		return fmt.Sprintf("lump%d", lump)
	}
	return lumpNames[lump]
}

// BSPLump locates one lump inside the file.
type BSPLump struct {
	Offset int32
	Length int32
}

// BSPHeader is the fixed file header.
type BSPHeader struct {
	Magic   [4]byte
	Version int32
	Lumps   [BSPLumpCount]BSPLump
}

// On-disk records. Vectors are in the file's Z-up convention; callers that
// need another convention convert after decoding.

// BSPPlane is a splitting plane (20 bytes).
type BSPPlane struct {
	Normal [3]float32
	Dist   float32
	Type   int32
}

// BSPVertex is a vertex position (12 bytes).
type BSPVertex struct {
	Point [3]float32
}

// BSPNode is an interior tree node (28 bytes). A negative child c refers to leaf -1-c.
type BSPNode struct {
	PlaneNum  int32
	Children  [2]int32
	Mins      [3]int16
	Maxs      [3]int16
	FirstFace uint16
	NumFaces  uint16
}

// BSPTexInfo is a texture projection (76 bytes).
type BSPTexInfo struct {
	Vecs        [2][4]float32
	Flags       int32
	Value       int32
	Texture     [32]byte
	NextTexInfo int32
}

// TextureName returns the texture name without NUL padding.
func (t *BSPTexInfo) TextureName() string {
	return encoding.FixedString(t.Texture[:])
}

// BSPEdge is a pair of vertex indices (4 bytes).
type BSPEdge struct {
	V [2]uint16
}

// BSPFace is a polygon face (20 bytes).
type BSPFace struct {
	PlaneNum  uint16
	Side      int16
	FirstEdge int32
	NumEdges  int16
	TexInfo   int16
	Styles    [4]uint8
	LightOfs  int32
}

// BSPLeaf is a convex leaf volume (28 bytes).
type BSPLeaf struct {
	Contents       int32
	Cluster        int16
	Area           int16
	Mins           [3]int16
	Maxs           [3]int16
	FirstLeafFace  uint16
	NumLeafFaces   uint16
	FirstLeafBrush uint16
	NumLeafBrushes uint16
}

// BSPModel is an inline model; model 0 is the world (48 bytes).
type BSPModel struct {
	Mins      [3]float32
	Maxs      [3]float32
	Origin    [3]float32
	HeadNode  int32
	FirstFace int32
	NumFaces  int32
}

// BSPVisibility is the decoded visibility lump header.
// Offsets index into the lump itself; [0] is the PVS row, [1] the PHS row.
type BSPVisibility struct {
	NumClusters int
	Offsets     [][2]uint32
	Data        []byte
}

// Visibility row selectors.
const (
	VisPVS = 0
	VisPHS = 1
)

// ParseBSPHeader parses and validates the BSP header. Every lump must lie inside data.
func ParseBSPHeader(data []byte) (*BSPHeader, error) {
	if len(data) < bspHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is too small for header", ErrTruncatedBSPData, len(data))
	}

	var hdr BSPHeader
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: reading header", ErrTruncatedBSPData)
	}

	if string(hdr.Magic[:]) != BSPMagic {
		return nil, ErrInvalidBSPMagic
	}
	if hdr.Version != BSPVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBSPVersion, hdr.Version)
	}

	for i, l := range hdr.Lumps {
		if l.Offset < 0 || l.Length < 0 || int64(l.Offset)+int64(l.Length) > int64(len(data)) {
			return nil, fmt.Errorf("%w: %s lump at %d+%d exceeds %d bytes",
				ErrTruncatedBSPData, LumpName(i), l.Offset, l.Length, len(data))
		}
	}

	return &hdr, nil
}

// LumpData returns the bytes of one lump. The header must come from ParseBSPHeader(data).
func (h *BSPHeader) LumpData(data []byte, lump int) []byte {
	l := h.Lumps[lump]
	return data[l.Offset : l.Offset+l.Length]
}

// RecordSize returns the on-disk size of one T record.
func RecordSize[T any]() int {
	var zero T
	return binary.Size(zero)
}

// ReadLump decodes a lump into fixed-size little-endian records.
// The lump length must be a whole number of records.
func ReadLump[T any](data []byte) ([]T, error) {
	size := RecordSize[T]()
	if size <= 0 {
		return nil, fmt.Errorf("record type has no fixed size")
	}
	if len(data)%size != 0 {
		return nil, fmt.Errorf("%w: %d bytes, record %d", ErrBadLumpSize, len(data), size)
	}

	out := make([]T, len(data)/size)
	if len(out) == 0 {
		return out, nil
	}
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncatedBSPData, err)
	}
	return out, nil
}

// ParseVisibility decodes the visibility lump header: a cluster count followed by
// one PVS/PHS offset pair per cluster. An empty lump yields zero clusters.
func ParseVisibility(data []byte) (*BSPVisibility, error) {
	vis := &BSPVisibility{Data: data}
	if len(data) == 0 {
		return vis, nil
	}
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: reading cluster count", ErrTruncatedBSPData)
	}

	n := binary.LittleEndian.Uint32(data)
	if uint64(n)*8+4 > uint64(len(data)) {
		return nil, fmt.Errorf("%w: %d cluster offsets do not fit in %d bytes", ErrTruncatedBSPData, n, len(data))
	}

	vis.NumClusters = int(n)
	vis.Offsets = make([][2]uint32, n)
	for i := range vis.Offsets {
		base := 4 + i*8
		vis.Offsets[i][VisPVS] = binary.LittleEndian.Uint32(data[base:])
		vis.Offsets[i][VisPHS] = binary.LittleEndian.Uint32(data[base+4:])
	}
	return vis, nil
}
