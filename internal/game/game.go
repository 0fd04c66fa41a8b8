// Package game implements the client main loop.
package game

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/blackbloc/internal/assets"
	"github.com/Faultbox/blackbloc/internal/config"
	"github.com/Faultbox/blackbloc/internal/engine/audio"
	"github.com/Faultbox/blackbloc/internal/engine/camera"
	"github.com/Faultbox/blackbloc/internal/engine/input"
	"github.com/Faultbox/blackbloc/internal/engine/renderer"
	"github.com/Faultbox/blackbloc/internal/engine/screenshot"
	"github.com/Faultbox/blackbloc/internal/engine/texture"
	"github.com/Faultbox/blackbloc/internal/engine/window"
	"github.com/Faultbox/blackbloc/internal/game/states"
	"github.com/Faultbox/blackbloc/internal/game/world"
	"github.com/Faultbox/blackbloc/internal/logger"
)

const title = "blackbloc"

// Game is the main client instance.
type Game struct {
	cfg     *config.Config
	running bool

	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	assets   *assets.Manager
	textures *texture.Registry
	audio    *audio.Manager
	shots    *screenshot.Writer
	world    *world.Manager
	states   *states.Manager
	session  *states.Session
}

// New opens the window, the game data and the start map.
func New(cfg *config.Config) (*Game, error) {
	logger.Info("initializing game",
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
		zap.String("base_dir", cfg.Game.BaseDir),
		zap.String("map", cfg.Game.StartMap),
	)

	g := &Game{cfg: cfg}

	var err error
	g.assets, err = assets.OpenGameDir(cfg.Game.BaseDir, cfg.Game.PakFiles)
	if err != nil {
		return nil, fmt.Errorf("failed to open game data: %w", err)
	}

	g.window, err = window.New(window.Config{
		Title:      title,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		g.Close()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// the renderer needs the GL context the window created
	width, height := g.window.DrawableSize()
	g.renderer, err = renderer.New(renderer.Config{Width: width, Height: height})
	if err != nil {
		g.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	g.textures = texture.NewRegistry(g.assets, g.renderer)
	if err := g.textures.LoadPalette(); err != nil {
		g.Close()
		return nil, fmt.Errorf("failed to load palette: %w", err)
	}

	g.input = input.New()
	if err := g.input.SetRelativeMouse(true); err != nil {
		logger.Warn("relative mouse mode unavailable", zap.Error(err))
	}

	g.audio = audio.New(g.assets)
	g.audio.SetMasterVolume(cfg.Audio.MasterVolume)
	g.audio.SetSFXVolume(cfg.Audio.SFXVolume)
	g.audio.SetMuted(cfg.Audio.Muted)
	if !cfg.Audio.Muted {
		if err := g.audio.Init(); err != nil {
			logger.Warn("audio disabled", zap.Error(err))
		}
	}

	g.shots = screenshot.NewWriter(cfg.Game.ScreenshotDir, "blackbloc")

	g.world = world.NewManager(g.assets, g.textures, g.renderer)
	g.states = states.NewManager()
	g.session = &states.Session{
		World: g.world,
		Camera: camera.NewFirstPerson(camera.Config{
			ViewHeight:   cfg.Game.ViewHeight,
			ForwardSpeed: cfg.Game.ForwardSpeed,
			StrafeSpeed:  cfg.Game.StrafeSpeed,
			ClimbSpeed:   cfg.Game.ClimbSpeed,
			Sensitivity:  cfg.Game.MouseSensitivity,
		}),
		Bindings:  input.DefaultBindings(),
		Frame:     g.renderer,
		Audio:     g.audio,
		Shots:     g,
		Graphics:  cfg.Graphics,
		FrameTime: cfg.Game.FrameDuration(),
	}

	g.states.Change(states.NewLoadingState(g.session, g.states, cfg.Game.StartMap))
	if err := g.states.Update(0); err != nil {
		g.Close()
		return nil, err
	}
	if igs, ok := g.states.Current().(*states.InGameState); ok {
		igs.ShowStats = cfg.Game.ShowStats
	}

	logger.Info("game initialized successfully")
	return g, nil
}

// Run starts the main loop and returns when the player quits.
func (g *Game) Run() error {
	g.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	logger.Info("starting game loop")

	for g.running {
		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		if g.input.Update() {
			g.running = false
			break
		}

		for _, event := range g.input.Events() {
			if event.Type == input.EventWindowResize {
				g.renderer.Resize(g.window.DrawableSize())
				continue
			}
			if err := g.states.HandleInput(event); err != nil {
				if errors.Is(err, states.ErrQuit) {
					g.running = false
					break
				}
				return fmt.Errorf("input error: %w", err)
			}
		}
		if !g.running {
			break
		}

		if err := g.states.Update(dt); err != nil {
			return fmt.Errorf("update error: %w", err)
		}

		if err := g.states.Render(); err != nil {
			return fmt.Errorf("render error: %w", err)
		}

		g.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			g.reportFrame(frameCount)
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

// Screenshot saves the back buffer before it is swapped.
func (g *Game) Screenshot() (string, error) {
	pixels, width, height := g.renderer.ReadPixels()
	return g.shots.Save(pixels, width, height)
}

// reportFrame logs the frame rate and, when enabled, shows the view stats in the title.
func (g *Game) reportFrame(fps int) {
	igs, ok := g.states.Current().(*states.InGameState)
	if !ok {
		return
	}

	rs := g.renderer.Stats()
	cs := g.assets.CacheStats()
	logger.Debug("fps",
		zap.Int("count", fps),
		zap.Int("draw_calls", rs.DrawCalls),
		zap.Int("vertices", rs.Vertices),
		zap.Int("cache_files", cs.Entries),
		zap.Int64("cache_bytes", cs.Bytes),
		zap.Int("cache_misses", cs.Misses))

	if igs.ShowStats {
		g.window.SetTitle(fmt.Sprintf("%s | %d fps | %s", title, fps, igs.StatusLine()))
	} else {
		g.window.SetTitle(title)
	}
}

// Close releases everything New acquired, in reverse order.
func (g *Game) Close() {
	logger.Info("closing game")

	if g.states != nil {
		if err := g.states.Shutdown(); err != nil {
			logger.Warn("leaving state", zap.Error(err))
		}
	}
	if g.world != nil {
		g.world.Unload()
	}
	if g.audio != nil {
		g.audio.Close()
	}
	if g.renderer != nil {
		g.renderer.Close()
	}
	if g.window != nil {
		g.window.Close()
	}
	if g.assets != nil {
		g.assets.Close()
	}
}
