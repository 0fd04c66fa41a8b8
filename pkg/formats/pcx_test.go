package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// createTestPCX encodes an 8-bit PCX with the given pre-encoded scanline data.
func createTestPCX(width, height int, rle []byte, palette [768]byte) []byte {
	hdr := pcxHeader{
		Manufacturer: 0x0a,
		Version:      5,
		Encoding:     1,
		BitsPerPixel: 8,
		XMax:         uint16(width - 1),
		YMax:         uint16(height - 1),
		ColorPlanes:  1,
		BytesPerLine: uint16(width),
	}

	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, &hdr)
	buf.Write(rle)
	buf.WriteByte(0x0c)
	buf.Write(palette[:])
	return buf.Bytes()
}

func TestParsePCX_ValidFile(t *testing.T) {
	var pal [768]byte
	pal[3*3+0] = 200
	pal[7*3+1] = 100

	// Row 0: run of three 3s. Row 1: literal 7, run of two 0xc1 values.
	rle := []byte{0xc3, 3, 7, 0xc2, 0xc1}
	data := createTestPCX(3, 2, rle, pal)

	img, err := ParsePCX(data)
	if err != nil {
		t.Fatalf("ParsePCX failed: %v", err)
	}

	if img.Width != 3 || img.Height != 2 {
		t.Fatalf("expected 3x2, got %dx%d", img.Width, img.Height)
	}

	want := []byte{3, 3, 3, 7, 0xc1, 0xc1}
	if !bytes.Equal(img.Pixels, want) {
		t.Errorf("expected pixels %v, got %v", want, img.Pixels)
	}

	rgba := img.RGBA()
	if rgba[0] != 200 || rgba[3] != 255 {
		t.Errorf("expected first texel red 200 opaque, got %v", rgba[:4])
	}
	if rgba[3*4+1] != 100 {
		t.Errorf("expected texel 3 green 100, got %d", rgba[3*4+1])
	}
}

func TestParsePCX_Errors(t *testing.T) {
	var pal [768]byte
	valid := createTestPCX(2, 2, []byte{0xc4, 1}, pal)

	badManufacturer := append([]byte(nil), valid...)
	badManufacturer[0] = 0x0b

	truncatedRLE := createTestPCX(4, 4, []byte{0xc2, 1}, pal)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"too short", valid[:200], ErrTruncatedPCXData},
		{"bad manufacturer", badManufacturer, ErrInvalidPCXHeader},
		{"truncated scanlines", truncatedRLE, ErrTruncatedPCXData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePCX(tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestParsePCXPalette(t *testing.T) {
	var pal [768]byte
	pal[765] = 42
	data := createTestPCX(1, 1, []byte{0}, pal)

	got, err := ParsePCXPalette(data)
	if err != nil {
		t.Fatalf("ParsePCXPalette failed: %v", err)
	}
	if got[765] != 42 {
		t.Errorf("expected last palette byte 42, got %d", got[765])
	}
}
