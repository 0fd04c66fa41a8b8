// Command client walks a QuakeII map in first person.
//
// Usage:
//
//	client [-basedir dir] [-map maps/base1.bsp] [+map base1] [+set cvar value]
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/blackbloc/internal/config"
	"github.com/Faultbox/blackbloc/internal/game"
	"github.com/Faultbox/blackbloc/internal/logger"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if config.WriteConfigRequested() {
		if err := cfg.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "Writing config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(filepath.Join(config.ConfigDir(), "config.yaml"))
		return
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(run(cfg))
}

// run owns the game so its deferred cleanup happens before os.Exit.
func run(cfg *config.Config) int {
	defer logger.Sync()

	logger.Info("blackbloc starting", zap.String("map", cfg.Game.StartMap), zap.String("base_dir", cfg.Game.BaseDir))
	logger.Sugar.Debugf("config: %+v", cfg)

	g, err := game.New(cfg)
	if err != nil {
		logger.Error("failed to start", zap.Error(err))
		return 1
	}
	defer g.Close()

	if err := g.Run(); err != nil {
		logger.Error("game error", zap.Error(err))
		return 1
	}
	logger.Info("game closed normally")
	return 0
}
