package texture

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// TGA image types handled by DecodeTGA.
const (
	TGATypeUncompressed = 2
	TGATypeRLE          = 10
)

const tgaHeaderSize = 18

// ErrUnsupportedTGA is returned for TGA variants other than 24/32-bit true-color.
var ErrUnsupportedTGA = errors.New("unsupported TGA image")

// DecodeTGA decodes an uncompressed or RLE compressed true-color TGA file.
// Replacement wall textures are usually shipped this way.
func DecodeTGA(data []byte) (*image.RGBA, error) {
	if len(data) < tgaHeaderSize {
		return nil, fmt.Errorf("TGA data too short: %d bytes", len(data))
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	descriptor := data[17]

	if colorMapType != 0 {
		return nil, fmt.Errorf("%w: color-mapped", ErrUnsupportedTGA)
	}
	if imageType != TGATypeUncompressed && imageType != TGATypeRLE {
		return nil, fmt.Errorf("%w: type %d", ErrUnsupportedTGA, imageType)
	}
	if bpp != 24 && bpp != 32 {
		return nil, fmt.Errorf("%w: %d bits per pixel", ErrUnsupportedTGA, bpp)
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrUnsupportedTGA, width, height)
	}

	offset := tgaHeaderSize + idLength
	if offset > len(data) {
		return nil, fmt.Errorf("TGA data truncated")
	}

	d := tgaDecoder{
		img:         image.NewRGBA(image.Rect(0, 0, width, height)),
		data:        data[offset:],
		bpp:         bpp / 8,
		topToBottom: descriptor&0x20 != 0,
	}

	if imageType == TGATypeUncompressed {
		if len(d.data) < width*height*d.bpp {
			return nil, fmt.Errorf("TGA pixel data truncated")
		}
		for i := 0; i < width*height; i++ {
			d.put(i, d.read())
		}
		return d.img, nil
	}

	d.decodeRLE()
	return d.img, nil
}

type tgaDecoder struct {
	img         *image.RGBA
	data        []byte
	pos         int
	bpp         int
	topToBottom bool
}

// read consumes one BGR(A) pixel.
func (d *tgaDecoder) read() color.RGBA {
	p := d.data[d.pos:]
	c := color.RGBA{R: p[2], G: p[1], B: p[0], A: 255}
	if d.bpp == 4 {
		c.A = p[3]
	}
	d.pos += d.bpp
	return c
}

func (d *tgaDecoder) remaining() bool {
	return d.pos+d.bpp <= len(d.data)
}

// put stores pixel i in file order, flipping bottom-up images.
func (d *tgaDecoder) put(i int, c color.RGBA) {
	w, h := d.img.Rect.Dx(), d.img.Rect.Dy()
	x, y := i%w, i/w
	if !d.topToBottom {
		y = h - 1 - y
	}
	d.img.SetRGBA(x, y, c)
}

// decodeRLE expands run-length packets until the image is full or data runs out.
func (d *tgaDecoder) decodeRLE() {
	count := d.img.Rect.Dx() * d.img.Rect.Dy()
	i := 0

	for i < count && d.pos < len(d.data) {
		packet := d.data[d.pos]
		d.pos++
		n := int(packet&0x7f) + 1

		if packet&0x80 != 0 {
			if !d.remaining() {
				return
			}
			c := d.read()
			for j := 0; j < n && i < count; j++ {
				d.put(i, c)
				i++
			}
			continue
		}

		for j := 0; j < n && i < count; j++ {
			if !d.remaining() {
				return
			}
			d.put(i, d.read())
			i++
		}
	}
}
