package texture

import (
	"errors"
	"image/color"
	"testing"
)

func TestDecodeTGA_BottomUp24(t *testing.T) {
	data := createTestTGA(1, 2, nil)
	data[16] = 24
	data[17] = 0
	// bottom row first: blue, then red
	data = append(data, 255, 0, 0, 0, 0, 255)

	img, err := DecodeTGA(data)
	if err != nil {
		t.Fatalf("DecodeTGA failed: %v", err)
	}
	if got := img.RGBAAt(0, 0); got != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("expected red top pixel, got %v", got)
	}
	if got := img.RGBAAt(0, 1); got != (color.RGBA{B: 255, A: 255}) {
		t.Errorf("expected blue bottom pixel, got %v", got)
	}
}

func TestDecodeTGA_RLE(t *testing.T) {
	data := createTestTGA(3, 1, nil)
	data[2] = TGATypeRLE
	// run of two green, then one raw white
	data = append(data, 0x81, 0, 255, 0, 128, 0x00, 255, 255, 255, 255)

	img, err := DecodeTGA(data)
	if err != nil {
		t.Fatalf("DecodeTGA failed: %v", err)
	}
	want := []color.RGBA{
		{G: 255, A: 128},
		{G: 255, A: 128},
		{R: 255, G: 255, B: 255, A: 255},
	}
	for x, w := range want {
		if got := img.RGBAAt(x, 0); got != w {
			t.Errorf("pixel %d: expected %v, got %v", x, w, got)
		}
	}
}

func TestDecodeTGA_Errors(t *testing.T) {
	colorMapped := createTestTGA(1, 1, []byte{0, 0, 0, 0})
	colorMapped[1] = 1

	grey := createTestTGA(1, 1, []byte{0})
	grey[2] = 3

	paletted := createTestTGA(1, 1, []byte{0})
	paletted[16] = 8

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"color mapped", colorMapped, ErrUnsupportedTGA},
		{"greyscale", grey, ErrUnsupportedTGA},
		{"8 bit", paletted, ErrUnsupportedTGA},
		{"zero size", createTestTGA(0, 4, nil), ErrUnsupportedTGA},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeTGA(tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if _, err := DecodeTGA([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for short header")
	}
	if _, err := DecodeTGA(createTestTGA(2, 2, []byte{1, 2, 3})); err == nil {
		t.Error("expected error for truncated pixels")
	}
}
