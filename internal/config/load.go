package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Load loads configuration with priority: defaults < file < flags, using the
// process command line.
func Load() (*Config, error) {
	return LoadWith(CommandLine)
}

// LoadWith is Load with an explicit flag set.
func LoadWith(flags *Flags) (*Config, error) {
	cfg := Default()

	path := *flags.Config
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
	}

	if err := flags.Apply(cfg); err != nil {
		return nil, fmt.Errorf("command line: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// WriteConfigRequested reports whether -writeconfig was given.
func WriteConfigRequested() bool {
	return *CommandLine.WriteConfig
}

// findConfigFile returns the first existing config.yaml: the working
// directory, then ConfigDir.
func findConfigFile() string {
	for _, path := range []string{
		"config.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "blackbloc")
	}
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		return filepath.Join(dir, "Blackbloc")
	}
	return filepath.Join(dir, "blackbloc")
}

// loadFromFile merges a YAML file over cfg. Unknown keys are errors so a
// misspelt setting does not silently keep its default.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
