package screenshot

import (
	"errors"
	"fmt"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestNextPath(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, "shot")

	path, err := w.NextPath()
	if err != nil {
		t.Fatalf("NextPath failed: %v", err)
	}
	if want := filepath.Join(dir, "shot00.png"); path != want {
		t.Errorf("expected %s, got %s", want, path)
	}

	os.WriteFile(filepath.Join(dir, "shot00.png"), nil, 0644)
	os.WriteFile(filepath.Join(dir, "shot01.png"), nil, 0644)
	path, _ = w.NextPath()
	if want := filepath.Join(dir, "shot02.png"); path != want {
		t.Errorf("expected %s, got %s", want, path)
	}
}

func TestNextPath_Full(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < MaxShots; i++ {
		os.WriteFile(filepath.Join(dir, fmt.Sprintf("shot%02d.png", i)), nil, 0644)
	}

	_, err := NewWriter(dir, "shot").NextPath()
	if !errors.Is(err, ErrNoFreeName) {
		t.Errorf("expected ErrNoFreeName, got %v", err)
	}
}

func TestSave_FlipsRows(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	w := NewWriter(dir, "shot")

	// bottom row red, top row blue; alpha zero as glReadPixels may return
	pixels := []byte{
		255, 0, 0, 0,
		0, 0, 255, 0,
	}
	path, err := w.Save(pixels, 1, 2)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("png.Decode failed: %v", err)
	}

	top := color.RGBAModel.Convert(img.At(0, 0)).(color.RGBA)
	bottom := color.RGBAModel.Convert(img.At(0, 1)).(color.RGBA)
	if top != (color.RGBA{B: 255, A: 255}) {
		t.Errorf("expected opaque blue top pixel, got %v", top)
	}
	if bottom != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("expected opaque red bottom pixel, got %v", bottom)
	}

	next, _ := w.NextPath()
	if filepath.Base(next) != "shot01.png" {
		t.Errorf("expected shot01.png next, got %s", next)
	}
}

func TestSave_SizeMismatch(t *testing.T) {
	if _, err := NewWriter(t.TempDir(), "shot").Save(make([]byte, 7), 1, 2); err == nil {
		t.Error("expected error for short pixel data")
	}
}
