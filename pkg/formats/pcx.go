package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// PCX format errors.
var (
	ErrInvalidPCXHeader = errors.New("invalid PCX header")
	ErrTruncatedPCXData = errors.New("truncated PCX data")
)

const (
	pcxHeaderSize  = 128
	pcxPaletteSize = 768
)

// pcxHeader is the on-disk PCX header.
type pcxHeader struct {
	Manufacturer uint8
	Version      uint8
	Encoding     uint8
	BitsPerPixel uint8
	XMin, YMin   uint16
	XMax, YMax   uint16
	HRes, VRes   uint16
	EGAPalette   [48]byte
	Reserved     uint8
	ColorPlanes  uint8
	BytesPerLine uint16
	PaletteType  uint16
	Filler       [58]byte
}

// PCX is a decoded 8-bit palettized PCX image.
type PCX struct {
	Width   int
	Height  int
	Pixels  []byte // Width*Height palette indices
	Palette [pcxPaletteSize]byte
}

// ParsePCX decodes an 8-bit, RLE encoded PCX image with a trailing 256 colour palette,
// the only flavour QuakeII ships.
func ParsePCX(data []byte) (*PCX, error) {
	if len(data) < pcxHeaderSize+pcxPaletteSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncatedPCXData, len(data))
	}

	var hdr pcxHeader
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: reading header", ErrTruncatedPCXData)
	}

	if hdr.Manufacturer != 0x0a || hdr.Version != 5 || hdr.Encoding != 1 || hdr.BitsPerPixel != 8 {
		return nil, fmt.Errorf("%w: manufacturer %#x version %d encoding %d bpp %d",
			ErrInvalidPCXHeader, hdr.Manufacturer, hdr.Version, hdr.Encoding, hdr.BitsPerPixel)
	}
	if hdr.XMax < hdr.XMin || hdr.YMax < hdr.YMin || hdr.XMax >= 640 || hdr.YMax >= 480 {
		return nil, fmt.Errorf("%w: bounds %d,%d-%d,%d", ErrInvalidPCXHeader, hdr.XMin, hdr.YMin, hdr.XMax, hdr.YMax)
	}

	img := &PCX{
		Width:  int(hdr.XMax-hdr.XMin) + 1,
		Height: int(hdr.YMax-hdr.YMin) + 1,
	}
	copy(img.Palette[:], data[len(data)-pcxPaletteSize:])

	stride := int(hdr.BytesPerLine)
	if stride < img.Width {
		stride = img.Width
	}

	in := data[pcxHeaderSize : len(data)-pcxPaletteSize]
	img.Pixels = make([]byte, img.Width*img.Height)
	pos := 0
	for y := 0; y < img.Height; y++ {
		row := img.Pixels[y*img.Width : (y+1)*img.Width]
		for x := 0; x < stride; {
			if pos >= len(in) {
				return nil, fmt.Errorf("%w: row %d", ErrTruncatedPCXData, y)
			}
			cur := in[pos]
			pos++

			run := 1
			if cur&0xc0 == 0xc0 {
				run = int(cur & 0x3f)
				if pos >= len(in) {
					return nil, fmt.Errorf("%w: row %d", ErrTruncatedPCXData, y)
				}
				cur = in[pos]
				pos++
			}

			for ; run > 0 && x < stride; run-- {
				if x < img.Width {
					row[x] = cur
				}
				x++
			}
		}
	}

	return img, nil
}

// ParsePCXPalette extracts only the trailing palette, as used for pics/colormap.pcx.
func ParsePCXPalette(data []byte) (*[pcxPaletteSize]byte, error) {
	if len(data) < pcxHeaderSize+pcxPaletteSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncatedPCXData, len(data))
	}
	if data[0] != 0x0a {
		return nil, fmt.Errorf("%w: manufacturer %#x", ErrInvalidPCXHeader, data[0])
	}

	var pal [pcxPaletteSize]byte
	copy(pal[:], data[len(data)-pcxPaletteSize:])
	return &pal, nil
}

// RGBA expands the image through its own palette; index 255 becomes fully transparent.
func (p *PCX) RGBA() []byte {
	out := make([]byte, len(p.Pixels)*4)
	for i, c := range p.Pixels {
		if c == 0xff {
			continue
		}
		out[i*4+0] = p.Palette[int(c)*3+0]
		out[i*4+1] = p.Palette[int(c)*3+1]
		out[i*4+2] = p.Palette[int(c)*3+2]
		out[i*4+3] = 0xff
	}
	return out
}
