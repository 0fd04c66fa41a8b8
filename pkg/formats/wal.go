package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Faultbox/blackbloc/pkg/encoding"
)

// WAL format errors.
var (
	ErrTruncatedWALData = errors.New("truncated WAL data")
	ErrInvalidWALSize   = errors.New("invalid WAL dimensions")
)

const walHeaderSize = 100

// WALTransparentIndex is the palette index QuakeII treats as a hole.
const WALTransparentIndex = 255

// walHeader is the on-disk miptex header.
type walHeader struct {
	Name     [32]byte
	Width    uint32
	Height   uint32
	Offsets  [4]uint32
	AnimName [32]byte
	Flags    int32
	Contents int32
	Value    int32
}

// WAL is a palettized QuakeII wall texture. Only the full-size mip level is kept;
// smaller levels are regenerated on upload.
type WAL struct {
	Name     string
	Width    int
	Height   int
	AnimName string
	Flags    int32
	Contents int32
	Value    int32
	Pixels   []byte // Width*Height palette indices
}

// ParseWAL parses a WAL texture from raw bytes.
func ParseWAL(data []byte) (*WAL, error) {
	if len(data) < walHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is too small for header", ErrTruncatedWALData, len(data))
	}

	var hdr walHeader
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: reading header", ErrTruncatedWALData)
	}

	if hdr.Width == 0 || hdr.Height == 0 || hdr.Width > 4096 || hdr.Height > 4096 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidWALSize, hdr.Width, hdr.Height)
	}

	size := uint64(hdr.Width) * uint64(hdr.Height)
	if uint64(hdr.Offsets[0])+size > uint64(len(data)) {
		return nil, fmt.Errorf("%w: mip 0 at %d+%d exceeds %d bytes", ErrTruncatedWALData, hdr.Offsets[0], size, len(data))
	}

	pixels := make([]byte, size)
	copy(pixels, data[hdr.Offsets[0]:])

	return &WAL{
		Name:     encoding.FixedString(hdr.Name[:]),
		Width:    int(hdr.Width),
		Height:   int(hdr.Height),
		AnimName: encoding.FixedString(hdr.AnimName[:]),
		Flags:    hdr.Flags,
		Contents: hdr.Contents,
		Value:    hdr.Value,
		Pixels:   pixels,
	}, nil
}

// RGBA expands the texture through a 256-entry RGB palette. Transparent texels take
// the colour of the first opaque neighbour above, below, left or right, so filtering
// does not bleed the palette's hole colour into the wall.
func (w *WAL) RGBA(palette *[768]byte) []byte {
	n := w.Width * w.Height
	out := make([]byte, n*4)

	for i := 0; i < n; i++ {
		p := int(w.Pixels[i])
		if p == WALTransparentIndex {
			switch {
			case i >= w.Width && w.Pixels[i-w.Width] != WALTransparentIndex:
				p = int(w.Pixels[i-w.Width])
			case i < n-w.Width && w.Pixels[i+w.Width] != WALTransparentIndex:
				p = int(w.Pixels[i+w.Width])
			case i > 0 && w.Pixels[i-1] != WALTransparentIndex:
				p = int(w.Pixels[i-1])
			case i < n-1 && w.Pixels[i+1] != WALTransparentIndex:
				p = int(w.Pixels[i+1])
			default:
				p = 0
			}
		}

		out[i*4+0] = palette[p*3+0]
		out[i*4+1] = palette[p*3+1]
		out[i*4+2] = palette[p*3+2]
		out[i*4+3] = 255
	}

	return out
}
