package config

import (
	"flag"
	"os"
	"strings"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Graphics.Width != 1280 {
		t.Errorf("expected width 1280, got %d", cfg.Graphics.Width)
	}
	if cfg.Graphics.Height != 720 {
		t.Errorf("expected height 720, got %d", cfg.Graphics.Height)
	}
	if cfg.Graphics.Fullscreen {
		t.Error("expected fullscreen to be false by default")
	}
	if cfg.Graphics.FOV != 90 || cfg.Graphics.Near != 4 || cfg.Graphics.Far != 4069 {
		t.Errorf("expected projection 90/4/4069, got %v/%v/%v", cfg.Graphics.FOV, cfg.Graphics.Near, cfg.Graphics.Far)
	}
	if !cfg.Graphics.FrustumCull {
		t.Error("expected frustum culling on by default")
	}

	if cfg.Audio.MasterVolume != 0.8 {
		t.Errorf("expected master volume 0.8, got %f", cfg.Audio.MasterVolume)
	}

	if cfg.Game.StartMap != "maps/q2dm1.bsp" {
		t.Errorf("expected start map maps/q2dm1.bsp, got %s", cfg.Game.StartMap)
	}
	if cfg.Game.ViewHeight != 40 {
		t.Errorf("expected view height 40, got %v", cfg.Game.ViewHeight)
	}
	if cfg.Game.ForwardSpeed != 20 || cfg.Game.StrafeSpeed != 17 || cfg.Game.ClimbSpeed != 10 {
		t.Errorf("expected speeds 20/17/10, got %v/%v/%v", cfg.Game.ForwardSpeed, cfg.Game.StrafeSpeed, cfg.Game.ClimbSpeed)
	}
	if cfg.Game.FrameDuration() != 100*time.Millisecond {
		t.Errorf("expected 100ms frames, got %v", cfg.Game.FrameDuration())
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
graphics:
  width: 1920
  height: 1080
  fullscreen: true
  vsync: false
  fov: 110
  frustum_cull: false

audio:
  master_volume: 0.5
  sfx_volume: 0.7
  muted: true

game:
  base_dir: "/opt/quake2/baseq2"
  pak_files: ["pak0.pak", "mods/pak9.pak"]
  start_map: "maps/base1.bsp"
  forward_speed: 30
  frame_ms: 50
  show_stats: true

logging:
  level: "debug"
  log_file: "client.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Graphics.Width != 1920 {
		t.Errorf("expected width 1920, got %d", cfg.Graphics.Width)
	}
	if !cfg.Graphics.Fullscreen {
		t.Error("expected fullscreen to be true")
	}
	if cfg.Graphics.FOV != 110 {
		t.Errorf("expected fov 110, got %v", cfg.Graphics.FOV)
	}
	if cfg.Graphics.FrustumCull {
		t.Error("expected frustum culling off")
	}
	if cfg.Graphics.Near != 4 {
		t.Errorf("expected near kept from defaults, got %v", cfg.Graphics.Near)
	}

	if !cfg.Audio.Muted {
		t.Error("expected muted to be true")
	}

	if cfg.Game.BaseDir != "/opt/quake2/baseq2" {
		t.Errorf("expected base dir /opt/quake2/baseq2, got %s", cfg.Game.BaseDir)
	}
	if len(cfg.Game.PakFiles) != 2 || cfg.Game.PakFiles[1] != "mods/pak9.pak" {
		t.Errorf("expected 2 pak files, got %v", cfg.Game.PakFiles)
	}
	if cfg.Game.StartMap != "maps/base1.bsp" {
		t.Errorf("expected start map maps/base1.bsp, got %s", cfg.Game.StartMap)
	}
	if cfg.Game.ForwardSpeed != 30 {
		t.Errorf("expected forward speed 30, got %v", cfg.Game.ForwardSpeed)
	}
	if cfg.Game.StrafeSpeed != 17 {
		t.Errorf("expected strafe speed kept from defaults, got %v", cfg.Game.StrafeSpeed)
	}
	if cfg.Game.FrameDuration() != 50*time.Millisecond {
		t.Errorf("expected 50ms frames, got %v", cfg.Game.FrameDuration())
	}

	if cfg.Logging.LogFile != "client.log" {
		t.Errorf("expected log file 'client.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
graphics:
  width: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Graphics.Width = 0 }},
		{"flat fov", func(c *Config) { c.Graphics.FOV = 180 }},
		{"far before near", func(c *Config) { c.Graphics.Far = 2 }},
		{"zero near", func(c *Config) { c.Graphics.Near = 0 }},
		{"zero frame", func(c *Config) { c.Game.FrameMS = 0 }},
		{"no map", func(c *Config) { c.Game.StartMap = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	t.Setenv("HOME", tmpDir)

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("graphics:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find config.yaml in current directory")
	}
}

// parseFlags builds a Flags from a private flag set.
func parseFlags(t *testing.T, args ...string) *Flags {
	t.Helper()
	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	flags := NewFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse %v: %v", args, err)
	}
	return flags
}

func TestFlagsApply(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		verify func(*testing.T, *Config)
	}{
		{
			name: "debug flag",
			args: []string{"-debug"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
				if !cfg.Game.ShowStats {
					t.Error("expected show_stats to be enabled with debug flag")
				}
			},
		},
		{
			name: "fullscreen flag",
			args: []string{"-fullscreen"},
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Graphics.Fullscreen {
					t.Error("expected fullscreen to be true with fullscreen flag")
				}
			},
		},
		{
			name: "width and height flags",
			args: []string{"-width", "2560", "-height", "1440"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Graphics.Width != 2560 || cfg.Graphics.Height != 1440 {
					t.Errorf("expected 2560x1440, got %dx%d", cfg.Graphics.Width, cfg.Graphics.Height)
				}
			},
		},
		{
			name: "map and basedir flags",
			args: []string{"-map", "maps/base2.bsp", "-basedir", "/data/baseq2"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Game.StartMap != "maps/base2.bsp" {
					t.Errorf("expected map maps/base2.bsp, got %s", cfg.Game.StartMap)
				}
				if cfg.Game.BaseDir != "/data/baseq2" {
					t.Errorf("expected base dir /data/baseq2, got %s", cfg.Game.BaseDir)
				}
			},
		},
		{
			name: "console commands",
			args: []string{"+set", "fov", "110", "+map", "maps/fact1.bsp", "+set", "vid_fullscreen", "1"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Graphics.FOV != 110 {
					t.Errorf("expected fov 110, got %v", cfg.Graphics.FOV)
				}
				if cfg.Game.StartMap != "maps/fact1.bsp" {
					t.Errorf("expected map maps/fact1.bsp, got %s", cfg.Game.StartMap)
				}
				if !cfg.Graphics.Fullscreen {
					t.Error("expected vid_fullscreen 1 to enable fullscreen")
				}
			},
		},
		{
			name: "console map overrides flag",
			args: []string{"-map", "maps/base1.bsp", "+map", "maps/base2.bsp"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Game.StartMap != "maps/base2.bsp" {
					t.Errorf("expected map maps/base2.bsp, got %s", cfg.Game.StartMap)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			if err := parseFlags(t, tt.args...).Apply(cfg); err != nil {
				t.Fatalf("Apply failed: %v", err)
			}
			tt.verify(t, cfg)
		})
	}
}

func TestFlagsApply_BadCommands(t *testing.T) {
	tests := [][]string{
		{"base1"},
		{"+map"},
		{"+set", "fov"},
		{"+set", "gl_mode", "3"},
		{"+set", "fov", "wide"},
		{"+connect", "localhost"},
	}

	for _, args := range tests {
		if err := parseFlags(t, args...).Apply(Default()); err == nil {
			t.Errorf("expected error for %v", args)
		}
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
graphics:
  width: 1600
  height: 900
game:
  start_map: maps/base1.bsp
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadWith(parseFlags(t, "-config", configPath, "-width", "1920", "-map", "maps/base3.bsp"))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Graphics.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Graphics.Width)
	}
	if cfg.Graphics.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Graphics.Height)
	}
	if cfg.Game.StartMap != "maps/base3.bsp" {
		t.Errorf("expected map from flag, got %s", cfg.Game.StartMap)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"negative frame_ms", "game:\n  frame_ms: -5\n"},
		{"unknown key", "graphics:\n  widht: 800\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(configPath, []byte(tt.yaml), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}
			if _, err := LoadWith(parseFlags(t, "-config", configPath)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadEmptyFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, nil, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadWith(parseFlags(t, "-config", configPath))
	if err != nil {
		t.Fatalf("expected empty file to load, got %v", err)
	}
	if cfg.Graphics.Width != 1280 {
		t.Errorf("expected default width, got %d", cfg.Graphics.Width)
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Game.StartMap = "maps/fact1.bsp"

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if loaded.Game.StartMap != "maps/fact1.bsp" {
		t.Errorf("expected saved start map, got %s", loaded.Game.StartMap)
	}

	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), fileHeader) {
		t.Errorf("expected header comment, got %q", data)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected no temp files left, got %d entries", len(entries))
	}
}
