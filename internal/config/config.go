// Package config handles client configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds all client settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Audio    AudioConfig    `yaml:"audio"`
	Game     GameConfig     `yaml:"game"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GraphicsConfig holds display and projection settings.
type GraphicsConfig struct {
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	Fullscreen  bool    `yaml:"fullscreen"`
	VSync       bool    `yaml:"vsync"`
	FOV         float32 `yaml:"fov"` // vertical, degrees
	Near        float32 `yaml:"near"`
	Far         float32 `yaml:"far"`
	FrustumCull bool    `yaml:"frustum_cull"`
}

// AudioConfig holds audio settings.
type AudioConfig struct {
	MasterVolume float64 `yaml:"master_volume"`
	SFXVolume    float64 `yaml:"sfx_volume"`
	Muted        bool    `yaml:"muted"`
}

// GameConfig holds data location, start map and movement settings.
type GameConfig struct {
	BaseDir  string   `yaml:"base_dir"`
	PakFiles []string `yaml:"pak_files"` // empty: pak0.pak, pak1.pak, ... from BaseDir
	StartMap string   `yaml:"start_map"`

	ViewHeight       float32 `yaml:"view_height"`
	ForwardSpeed     float32 `yaml:"forward_speed"`
	StrafeSpeed      float32 `yaml:"strafe_speed"`
	ClimbSpeed       float32 `yaml:"climb_speed"`
	MouseSensitivity float32 `yaml:"mouse_sensitivity"`
	FrameMS          int     `yaml:"frame_ms"`
	ShowStats        bool    `yaml:"show_stats"`
	ScreenshotDir    string  `yaml:"screenshot_dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:       1280,
			Height:      720,
			Fullscreen:  false,
			VSync:       true,
			FOV:         90,
			Near:        4,
			Far:         4069,
			FrustumCull: true,
		},
		Audio: AudioConfig{
			MasterVolume: 0.8,
			SFXVolume:    0.8,
			Muted:        false,
		},
		Game: GameConfig{
			BaseDir:          "baseq2",
			StartMap:         "maps/q2dm1.bsp",
			ViewHeight:       40,
			ForwardSpeed:     20,
			StrafeSpeed:      17,
			ClimbSpeed:       10,
			MouseSensitivity: 0.2,
			FrameMS:          100,
			ShowStats:        false,
			ScreenshotDir:    "scrnshot",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// FrameDuration is the length of one client movement frame.
func (g GameConfig) FrameDuration() time.Duration {
	return time.Duration(g.FrameMS) * time.Millisecond
}

// Validate reports settings the client cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Graphics.Width <= 0 || c.Graphics.Height <= 0 {
		errs = append(errs, fmt.Errorf("graphics: invalid size %dx%d", c.Graphics.Width, c.Graphics.Height))
	}
	if c.Graphics.FOV <= 0 || c.Graphics.FOV >= 180 {
		errs = append(errs, fmt.Errorf("graphics: fov %v out of range (0, 180)", c.Graphics.FOV))
	}
	if c.Graphics.Near <= 0 || c.Graphics.Far <= c.Graphics.Near {
		errs = append(errs, fmt.Errorf("graphics: invalid depth range %v..%v", c.Graphics.Near, c.Graphics.Far))
	}
	if c.Game.FrameMS <= 0 {
		errs = append(errs, fmt.Errorf("game: frame_ms must be positive, got %d", c.Game.FrameMS))
	}
	if c.Game.StartMap == "" {
		errs = append(errs, errors.New("game: start_map is empty"))
	}
	return errors.Join(errs...)
}
