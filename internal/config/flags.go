package config

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
)

// Flags are the client's command-line overrides. Arguments left after the
// flags are console commands in the classic form: "+map base1" and
// "+set <cvar> <value>".
type Flags struct {
	Config     *string
	Debug      *bool
	Windowed   *bool
	Fullscreen *bool
	Width      *int
	Height     *int
	Map        *string
	BaseDir    *string

	// WriteConfig asks the client to save the merged config and exit.
	WriteConfig *bool

	fs *flag.FlagSet
}

// NewFlags registers the client flags on fs.
func NewFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		Config:      fs.String("config", "", "Path to config file"),
		Debug:       fs.Bool("debug", false, "Enable debug logging and the stats title"),
		Windowed:    fs.Bool("windowed", false, "Run in windowed mode"),
		Fullscreen:  fs.Bool("fullscreen", false, "Run in fullscreen mode"),
		Width:       fs.Int("width", 0, "Window width"),
		Height:      fs.Int("height", 0, "Window height"),
		Map:         fs.String("map", "", "Map to load, e.g. maps/base1.bsp"),
		BaseDir:     fs.String("basedir", "", "Game data directory holding pak files"),
		WriteConfig: fs.Bool("writeconfig", false, "Save the effective config to the config directory and exit"),
		fs:          fs,
	}
}

// CommandLine holds the flags of the process command line.
var CommandLine = NewFlags(flag.CommandLine)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via -config.
func ConfigPath() string {
	return *CommandLine.Config
}

// cvars are the settings "+set" can change.
var cvars = map[string]func(*Config, string) error{
	"basedir": func(c *Config, v string) error {
		c.Game.BaseDir = v
		return nil
	},
	"fov": func(c *Config, v string) error {
		return parseFloat32(v, &c.Graphics.FOV)
	},
	"sensitivity": func(c *Config, v string) error {
		return parseFloat32(v, &c.Game.MouseSensitivity)
	},
	"vid_fullscreen": func(c *Config, v string) error {
		c.Graphics.Fullscreen = v != "0"
		return nil
	},
	"s_volume": func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		c.Audio.MasterVolume = f
		return nil
	},
}

func parseFloat32(v string, dst *float32) error {
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return err
	}
	*dst = float32(f)
	return nil
}

// Apply applies flag overrides, then console commands, to cfg.
func (f *Flags) Apply(cfg *Config) error {
	if *f.Debug {
		cfg.Logging.Level = "debug"
		cfg.Game.ShowStats = true
	}
	if *f.Windowed {
		cfg.Graphics.Fullscreen = false
	}
	if *f.Fullscreen {
		cfg.Graphics.Fullscreen = true
	}
	if *f.Width > 0 {
		cfg.Graphics.Width = *f.Width
	}
	if *f.Height > 0 {
		cfg.Graphics.Height = *f.Height
	}
	if *f.Map != "" {
		cfg.Game.StartMap = *f.Map
	}
	if *f.BaseDir != "" {
		cfg.Game.BaseDir = *f.BaseDir
	}
	return applyCommands(cfg, f.fs.Args())
}

// applyCommands runs "+map" and "+set" commands from the trailing arguments.
func applyCommands(cfg *Config, args []string) error {
	for i := 0; i < len(args); i++ {
		cmd := args[i]
		if !strings.HasPrefix(cmd, "+") {
			return fmt.Errorf("unexpected argument %q", cmd)
		}

		switch cmd {
		case "+map":
			if i+1 >= len(args) {
				return fmt.Errorf("+map needs a map name")
			}
			cfg.Game.StartMap = args[i+1]
			i++
		case "+set":
			if i+2 >= len(args) {
				return fmt.Errorf("+set needs a cvar and a value")
			}
			name, value := args[i+1], args[i+2]
			set, ok := cvars[name]
			if !ok {
				return fmt.Errorf("+set: unknown cvar %q", name)
			}
			if err := set(cfg, value); err != nil {
				return fmt.Errorf("+set %s: %w", name, err)
			}
			i += 2
		default:
			return fmt.Errorf("unknown command %q", cmd)
		}
	}
	return nil
}
