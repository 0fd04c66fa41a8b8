package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io/fs"
	"testing"

	"github.com/Faultbox/blackbloc/internal/engine/bsp"
)

type memFS map[string][]byte

func (f memFS) Open(name string) ([]byte, error) {
	data, ok := f[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, fs.ErrNotExist)
	}
	return data, nil
}

// createTestWAV builds a mono 16-bit PCM WAV holding samples.
func createTestWAV(rate int, samples []int16) []byte {
	buf := new(bytes.Buffer)
	dataLen := len(samples) * 2
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1))
	binary.Write(buf, binary.LittleEndian, uint16(1))
	binary.Write(buf, binary.LittleEndian, uint32(rate))
	binary.Write(buf, binary.LittleEndian, uint32(rate*2))
	binary.Write(buf, binary.LittleEndian, uint16(2))
	binary.Write(buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataLen))
	binary.Write(buf, binary.LittleEndian, samples)
	return buf.Bytes()
}

func TestVolumeConversion(t *testing.T) {
	tests := []struct {
		vol  float64
		want float64
	}{
		{1.0, 0},
		{0.5, -1},
		{0.25, -2},
		{0.0, -100},
	}

	for _, tt := range tests {
		if got := volumeToDb(tt.vol); got != tt.want {
			t.Errorf("volumeToDb(%v): expected %v, got %v", tt.vol, tt.want, got)
		}
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		v, min, max, want float64
	}{
		{0.5, 0, 1, 0.5},
		{-1, 0, 1, 0},
		{2, 0, 1, 1},
		{0, 0, 1, 0},
		{1, 0, 1, 1},
	}

	for _, tt := range tests {
		got := clamp(tt.v, tt.min, tt.max)
		if got != tt.want {
			t.Errorf("clamp(%v, %v, %v): expected %v, got %v", tt.v, tt.min, tt.max, tt.want, got)
		}
	}
}

func TestSetVolume(t *testing.T) {
	m := New(memFS{})

	m.SetMasterVolume(0.5)
	if m.GetMasterVolume() != 0.5 {
		t.Errorf("expected master volume 0.5, got %v", m.GetMasterVolume())
	}
	m.SetMasterVolume(2.0)
	if m.GetMasterVolume() != 1.0 {
		t.Errorf("expected master volume clamped to 1, got %v", m.GetMasterVolume())
	}

	m.SetSFXVolume(0)
	if !m.volume.Silent {
		t.Error("expected silence at zero volume")
	}
	m.SetSFXVolume(0.5)
	if m.volume.Silent || m.volume.Volume != -1 {
		t.Errorf("expected volume -1, got %v (silent %v)", m.volume.Volume, m.volume.Silent)
	}

	m.SetMuted(true)
	if !m.volume.Silent {
		t.Error("expected silence when muted")
	}
}

func TestSoundPath(t *testing.T) {
	tests := []struct{ noise, want string }{
		{"world/amb10", "sound/world/amb10.wav"},
		{"world/amb10.wav", "sound/world/amb10.wav"},
		{"world\\drip1", "sound/world/drip1.wav"},
	}
	for _, tt := range tests {
		if got := SoundPath(tt.noise); got != tt.want {
			t.Errorf("SoundPath(%q): expected %q, got %q", tt.noise, tt.want, got)
		}
	}
}

func TestPlaySpeakers_NotInitialized(t *testing.T) {
	m := New(memFS{})
	if _, err := m.PlaySpeakers(nil); err != ErrNotInitialized {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
}

func TestPlaySpeakers(t *testing.T) {
	m := New(memFS{
		"sound/world/amb10.wav": createTestWAV(44100, []int16{1000, -1000, 500}),
		"sound/world/bad.wav":   []byte("not a wav"),
	})
	m.initialized = true

	n, err := m.PlaySpeakers([]bsp.Speaker{
		{Noise: "world/amb10", Looped: true},
		{Noise: "world/amb10", Looped: true},
		{Noise: "world/once", Looped: false},
		{Noise: "world/missing", Looped: true},
		{Noise: "world/bad", Looped: true},
	})
	if err != nil {
		t.Fatalf("PlaySpeakers failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 loops, got %d", n)
	}
	if m.ambient.Len() != 2 || m.Playing() != 2 {
		t.Errorf("expected 2 mixed streams, got %d (%d playing)", m.ambient.Len(), m.Playing())
	}

	m.StopAmbient()
	if m.ambient.Len() != 0 || m.Playing() != 0 {
		t.Errorf("expected ambient stopped, got %d streams", m.ambient.Len())
	}
}

func TestLoopStreamer_Wraps(t *testing.T) {
	m := New(memFS{})
	loop, err := m.decodeLoop(createTestWAV(44100, []int16{16384, -16384}))
	if err != nil {
		t.Fatalf("decodeLoop failed: %v", err)
	}

	samples := make([][2]float64, 5)
	n, ok := loop.Stream(samples)
	if n != 5 || !ok {
		t.Fatalf("expected 5 samples, got %d (ok %v)", n, ok)
	}
	want := []float64{0.5, -0.5, 0.5, -0.5, 0.5}
	for i, w := range want {
		if samples[i][0] != w || samples[i][1] != w {
			t.Errorf("sample %d: expected %v, got %v", i, w, samples[i])
		}
	}
}

func TestDecodeLoop_Errors(t *testing.T) {
	m := New(memFS{})
	if _, err := m.decodeLoop([]byte("RIFF")); err == nil {
		t.Error("expected error for truncated wav")
	}
	if _, err := m.decodeLoop(createTestWAV(44100, nil)); err == nil {
		t.Error("expected error for empty wav")
	}
}
