package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// createTestBSP assembles a BSP file from raw lump payloads.
func createTestBSP(lumps map[int][]byte) []byte {
	var hdr BSPHeader
	copy(hdr.Magic[:], BSPMagic)
	hdr.Version = BSPVersion

	body := new(bytes.Buffer)
	offset := int32(bspHeaderSize)
	for i := 0; i < BSPLumpCount; i++ {
		data := lumps[i]
		hdr.Lumps[i] = BSPLump{Offset: offset, Length: int32(len(data))}
		body.Write(data)
		offset += int32(len(data))
	}

	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, &hdr)
	buf.Write(body.Bytes())
	return buf.Bytes()
}

func encodeRecords(records any) []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, records)
	return buf.Bytes()
}

func TestRecordSizes(t *testing.T) {
	tests := []struct {
		name string
		got  int
		want int
	}{
		{"plane", RecordSize[BSPPlane](), 20},
		{"vertex", RecordSize[BSPVertex](), 12},
		{"node", RecordSize[BSPNode](), 28},
		{"texinfo", RecordSize[BSPTexInfo](), 76},
		{"edge", RecordSize[BSPEdge](), 4},
		{"face", RecordSize[BSPFace](), 20},
		{"leaf", RecordSize[BSPLeaf](), 28},
		{"leafface", RecordSize[int16](), 2},
		{"surfedge", RecordSize[int32](), 4},
		{"model", RecordSize[BSPModel](), 48},
		{"header", RecordSize[BSPHeader](), bspHeaderSize},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: expected record size %d, got %d", tt.name, tt.want, tt.got)
		}
	}
}

func TestParseBSPHeader_ValidFile(t *testing.T) {
	planes := []BSPPlane{{Normal: [3]float32{0, 0, 1}, Dist: 64, Type: 2}}
	data := createTestBSP(map[int][]byte{
		LumpEntities: []byte("{\n\"classname\" \"worldspawn\"\n}\n\x00"),
		LumpPlanes:   encodeRecords(planes),
	})

	hdr, err := ParseBSPHeader(data)
	if err != nil {
		t.Fatalf("ParseBSPHeader failed: %v", err)
	}

	if hdr.Version != BSPVersion {
		t.Errorf("expected version %d, got %d", BSPVersion, hdr.Version)
	}

	got, err := ReadLump[BSPPlane](hdr.LumpData(data, LumpPlanes))
	if err != nil {
		t.Fatalf("ReadLump failed: %v", err)
	}
	if len(got) != 1 || got[0].Dist != 64 || got[0].Normal[2] != 1 || got[0].Type != 2 {
		t.Errorf("unexpected plane %+v", got)
	}
}

func TestParseBSPHeader_Errors(t *testing.T) {
	valid := createTestBSP(nil)

	badMagic := append([]byte(nil), valid...)
	copy(badMagic, "VBSP")

	badVersion := append([]byte(nil), valid...)
	binary.LittleEndian.PutUint32(badVersion[4:], 46)

	badLump := append([]byte(nil), valid...)
	// planes lump length runs past the end of the file
	binary.LittleEndian.PutUint32(badLump[8+LumpPlanes*8+4:], 1000)

	negLump := append([]byte(nil), valid...)
	binary.LittleEndian.PutUint32(negLump[8+LumpFaces*8:], 0xffffff00)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"too short", valid[:20], ErrTruncatedBSPData},
		{"bad magic", badMagic, ErrInvalidBSPMagic},
		{"bad version", badVersion, ErrUnsupportedBSPVersion},
		{"lump past end", badLump, ErrTruncatedBSPData},
		{"negative offset", negLump, ErrTruncatedBSPData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBSPHeader(tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestReadLump_BadSize(t *testing.T) {
	_, err := ReadLump[BSPPlane](make([]byte, 21))
	if !errors.Is(err, ErrBadLumpSize) {
		t.Errorf("expected ErrBadLumpSize, got %v", err)
	}

	out, err := ReadLump[BSPEdge](nil)
	if err != nil {
		t.Fatalf("empty lump should decode, got %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected 0 records, got %d", len(out))
	}
}

func TestReadLump_SignedRecords(t *testing.T) {
	data := encodeRecords([]int32{1, -2, 3})
	got, err := ReadLump[int32](data)
	if err != nil {
		t.Fatalf("ReadLump failed: %v", err)
	}
	if len(got) != 3 || got[1] != -2 {
		t.Errorf("expected [1 -2 3], got %v", got)
	}
}

func TestParseVisibility(t *testing.T) {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, uint32(2))
	binary.Write(buf, binary.LittleEndian, [2]uint32{20, 21})
	binary.Write(buf, binary.LittleEndian, [2]uint32{22, 23})
	buf.Write([]byte{0x03, 0x01, 0x03, 0x02})

	vis, err := ParseVisibility(buf.Bytes())
	if err != nil {
		t.Fatalf("ParseVisibility failed: %v", err)
	}
	if vis.NumClusters != 2 {
		t.Errorf("expected 2 clusters, got %d", vis.NumClusters)
	}
	if vis.Offsets[1][VisPVS] != 22 || vis.Offsets[1][VisPHS] != 23 {
		t.Errorf("unexpected offsets for cluster 1: %v", vis.Offsets[1])
	}

	empty, err := ParseVisibility(nil)
	if err != nil || empty.NumClusters != 0 {
		t.Errorf("expected empty visibility, got %+v, %v", empty, err)
	}

	truncated := make([]byte, 8)
	binary.LittleEndian.PutUint32(truncated, 5)
	if _, err := ParseVisibility(truncated); !errors.Is(err, ErrTruncatedBSPData) {
		t.Errorf("expected ErrTruncatedBSPData, got %v", err)
	}
}

func TestLumpName(t *testing.T) {
	if LumpName(LumpLeafFaces) != "leaffaces" {
		t.Errorf("expected leaffaces, got %s", LumpName(LumpLeafFaces))
	}
	if LumpName(42) != "lump42" {
		t.Errorf("expected lump42, got %s", LumpName(42))
	}
}
