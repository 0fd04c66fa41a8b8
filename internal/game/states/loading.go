package states

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/blackbloc/internal/engine/audio"
	"github.com/Faultbox/blackbloc/internal/engine/input"
	"github.com/Faultbox/blackbloc/internal/logger"
	"github.com/Faultbox/blackbloc/pkg/math"
)

// LoadingState loads a map, places the viewer at its spawn point and hands
// over to InGameState.
type LoadingState struct {
	session *Session
	manager *Manager
	mapName string

	// Err is the last load failure.
	Err error
}

// NewLoadingState creates a state that loads mapName.
func NewLoadingState(session *Session, manager *Manager, mapName string) *LoadingState {
	return &LoadingState{
		session: session,
		manager: manager,
		mapName: mapName,
	}
}

// Enter loads the map. A failure is fatal only when no earlier map is
// available to fall back to.
func (s *LoadingState) Enter() error {
	logger.Info("loading map", zap.String("map", s.mapName))

	m, err := s.session.World.LoadMap(s.mapName)
	if err != nil {
		s.Err = err
		if s.session.World.Current() == nil {
			return fmt.Errorf("loading %s: %w", s.mapName, err)
		}
		logger.Error("map load failed, keeping current map",
			zap.String("map", s.mapName),
			zap.String("current", s.session.World.Current().Name),
			zap.Error(err))
		s.manager.Change(NewInGameState(s.session, s.manager))
		return nil
	}

	cam := s.session.Camera
	if sp, ok := m.SpawnPoint(); ok {
		cam.Teleport(sp.Origin, sp.Yaw)
	} else {
		logger.Warn("map has no spawn point", zap.String("map", m.Name))
		cam.Teleport(math.Vec3{}, 0)
	}

	if s.session.Audio != nil {
		s.session.Audio.StopAmbient()
		if _, err := s.session.Audio.PlaySpeakers(m.Speakers()); err != nil && !errors.Is(err, audio.ErrNotInitialized) {
			logger.Warn("ambient sounds failed", zap.Error(err))
		}
	}

	s.manager.Change(NewInGameState(s.session, s.manager))
	return nil
}

// Exit, Update, Render and HandleInput do nothing: the state never stays
// current past its Enter.
func (s *LoadingState) Exit() error                   { return nil }
func (s *LoadingState) Update(float64) error          { return nil }
func (s *LoadingState) Render() error                 { return nil }
func (s *LoadingState) HandleInput(input.Event) error { return nil }
