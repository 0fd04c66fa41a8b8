// Package screenshot saves the rendered frame as numbered PNG files.
package screenshot

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
)

// MaxShots is how many numbered files a directory can hold.
const MaxShots = 100

// ErrNoFreeName is returned when every numbered file already exists.
var ErrNoFreeName = errors.New("no free screenshot name")

// Writer picks file names and encodes frames.
type Writer struct {
	dir    string
	prefix string
}

// NewWriter creates a writer for dir/prefixNN.png.
func NewWriter(dir, prefix string) *Writer {
	return &Writer{dir: dir, prefix: prefix}
}

// Dir returns the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// NextPath returns the lowest numbered name that does not exist yet.
func (w *Writer) NextPath() (string, error) {
	for i := 0; i < MaxShots; i++ {
		path := filepath.Join(w.dir, fmt.Sprintf("%s%02d.png", w.prefix, i))
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w in %s", ErrNoFreeName, w.dir)
}

// Save writes bottom-up RGBA pixels, as read back from the framebuffer, and
// returns the file name used.
func (w *Writer) Save(pixels []byte, width, height int) (string, error) {
	if len(pixels) != width*height*4 {
		return "", fmt.Errorf("pixel data size mismatch: expected %d, got %d", width*height*4, len(pixels))
	}

	if w.dir != "" {
		if err := os.MkdirAll(w.dir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}
	path, err := w.NextPath()
	if err != nil {
		return "", err
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	rowSize := width * 4
	for y := 0; y < height; y++ {
		src := (height - 1 - y) * rowSize
		copy(img.Pix[y*img.Stride:y*img.Stride+rowSize], pixels[src:src+rowSize])
		// the framebuffer alpha is meaningless here
		for x := 3; x < rowSize; x += 4 {
			img.Pix[y*img.Stride+x] = 255
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return "", fmt.Errorf("encoding PNG: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}
