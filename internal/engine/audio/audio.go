// Package audio plays the ambient sounds placed in a map.
package audio

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
	"go.uber.org/zap"

	"github.com/Faultbox/blackbloc/internal/engine/bsp"
	"github.com/Faultbox/blackbloc/internal/logger"
)

// DefaultSampleRate is the default sample rate for audio playback.
const DefaultSampleRate = beep.SampleRate(44100)

// ErrNotInitialized is returned when playback is requested before Init.
var ErrNotInitialized = errors.New("audio not initialized")

// Manager mixes the looping speakers of the current map.
type Manager struct {
	mu sync.RWMutex

	fsys        bsp.FileSystem
	initialized bool
	sampleRate  beep.SampleRate

	masterVolume float64
	sfxVolLevel  float64
	muted        bool

	ambient *beep.Mixer
	volume  *effects.Volume
	loops   []*loopStreamer

	log *zap.Logger
}

// New creates a new audio manager reading sounds from fsys.
func New(fsys bsp.FileSystem) *Manager {
	m := &Manager{
		fsys:         fsys,
		masterVolume: 1.0,
		sfxVolLevel:  1.0,
		sampleRate:   DefaultSampleRate,
		ambient:      &beep.Mixer{},
		log:          logger.Named("audio"),
	}
	m.volume = &effects.Volume{Streamer: m.ambient, Base: 2}
	m.updateVolume()
	return m
}

// Init opens the output device.
func (m *Manager) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}

	err := speaker.Init(m.sampleRate, m.sampleRate.N(time.Second/30))
	if err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}
	speaker.Play(m.volume)

	m.initialized = true
	return nil
}

// Close stops all sounds and releases the device.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopAmbientLocked()
	if m.initialized {
		speaker.Clear()
		speaker.Close()
	}
	m.initialized = false
}

// SetMasterVolume sets the master volume (0.0 to 1.0).
func (m *Manager) SetMasterVolume(vol float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.masterVolume = clamp(vol, 0, 1)
	m.updateVolume()
}

// SetSFXVolume sets the sound effect volume (0.0 to 1.0).
func (m *Manager) SetSFXVolume(vol float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sfxVolLevel = clamp(vol, 0, 1)
	m.updateVolume()
}

// SetMuted silences output without stopping the loops.
func (m *Manager) SetMuted(muted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.muted = muted
	m.updateVolume()
}

// GetMasterVolume returns the master volume.
func (m *Manager) GetMasterVolume() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.masterVolume
}

func (m *Manager) updateVolume() {
	withSpeaker(m.initialized, func() {
		vol := m.masterVolume * m.sfxVolLevel
		m.volume.Silent = m.muted || vol <= 0
		m.volume.Volume = volumeToDb(vol)
	})
}

// withSpeaker runs fn while holding the speaker lock if the device is open.
func withSpeaker(initialized bool, fn func()) {
	if initialized {
		speaker.Lock()
		defer speaker.Unlock()
	}
	fn()
}

// volumeToDb converts a 0-1 volume to the base-2 scale of effects.Volume.
func volumeToDb(vol float64) float64 {
	if vol <= 0 {
		return -100
	}
	return math.Log2(vol)
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// SoundPath maps a speaker noise to its file: "world/amb10" -> "sound/world/amb10.wav".
func SoundPath(noise string) string {
	name := strings.ReplaceAll(noise, "\\", "/")
	if path.Ext(name) == "" {
		name += ".wav"
	}
	return path.Join("sound", name)
}

// PlaySpeakers replaces the ambient loops with the map's looping speakers.
// Speakers whose sound cannot be read are skipped with a warning. It returns
// the number of loops started.
func (m *Manager) PlaySpeakers(speakers []bsp.Speaker) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return 0, ErrNotInitialized
	}
	m.stopAmbientLocked()

	sounds := make(map[string][]byte)
	var loops []*loopStreamer
	for _, s := range speakers {
		if !s.Looped {
			continue
		}
		name := SoundPath(s.Noise)
		data, ok := sounds[name]
		if !ok {
			var err error
			data, err = m.fsys.Open(name)
			if err != nil {
				m.log.Warn("speaker sound missing", zap.String("sound", name), zap.Error(err))
				sounds[name] = nil
				continue
			}
			sounds[name] = data
		}
		if data == nil {
			continue
		}

		loop, err := m.decodeLoop(data)
		if err != nil {
			m.log.Warn("speaker sound unreadable", zap.String("sound", name), zap.Error(err))
			sounds[name] = nil
			continue
		}
		loops = append(loops, loop)
	}

	withSpeaker(true, func() {
		for _, l := range loops {
			m.ambient.Add(l)
		}
	})
	m.loops = loops

	m.log.Info("ambient sounds started", zap.Int("loops", len(loops)), zap.Int("speakers", len(speakers)))
	return len(loops), nil
}

// StopAmbient silences every ambient loop.
func (m *Manager) StopAmbient() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopAmbientLocked()
}

// Playing returns the number of active ambient loops.
func (m *Manager) Playing() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.loops)
}

func (m *Manager) stopAmbientLocked() {
	withSpeaker(m.initialized, func() {
		m.ambient.Clear()
	})
	for _, l := range m.loops {
		l.streamer.Close()
	}
	m.loops = nil
}

func (m *Manager) decodeLoop(data []byte) (*loopStreamer, error) {
	streamer, format, err := wav.Decode(nopSeekCloser{bytes.NewReader(data)})
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	if streamer.Len() == 0 {
		streamer.Close()
		return nil, errors.New("decode wav: no samples")
	}

	var resampled beep.Streamer = streamer
	if format.SampleRate != m.sampleRate {
		resampled = beep.Resample(4, format.SampleRate, m.sampleRate, streamer)
	}
	return &loopStreamer{streamer: streamer, resampled: resampled}, nil
}

// nopSeekCloser lets the decoder seek back to the start of an in-memory file.
type nopSeekCloser struct {
	*bytes.Reader
}

func (nopSeekCloser) Close() error { return nil }

// loopStreamer rewinds its source whenever it runs dry.
type loopStreamer struct {
	streamer  beep.StreamSeekCloser
	resampled beep.Streamer
}

func (l *loopStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	filled := 0
	rewound := false
	for filled < len(samples) {
		n, ok := l.resampled.Stream(samples[filled:])
		filled += n
		if ok {
			rewound = false
			continue
		}
		// a source that yields nothing right after a rewind never will
		if rewound && n == 0 {
			return filled, filled > 0
		}
		if err := l.streamer.Seek(0); err != nil {
			return filled, filled > 0
		}
		rewound = true
	}
	return filled, true
}

func (l *loopStreamer) Err() error {
	return l.streamer.Err()
}
