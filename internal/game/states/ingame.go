package states

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/blackbloc/internal/engine/bsp"
	"github.com/Faultbox/blackbloc/internal/engine/camera"
	"github.com/Faultbox/blackbloc/internal/engine/input"
	"github.com/Faultbox/blackbloc/internal/logger"
	"github.com/Faultbox/blackbloc/pkg/math"
)

// maxCatchUp bounds the movement frames run by one Update after a stall.
const maxCatchUp = 5

var moveCommands = map[string]camera.Move{
	input.CmdForward:   camera.MoveForward,
	input.CmdBack:      camera.MoveBack,
	input.CmdMoveLeft:  camera.MoveLeft,
	input.CmdMoveRight: camera.MoveRight,
	input.CmdMoveUp:    camera.MoveUp,
	input.CmdMoveDown:  camera.MoveDown,
}

// InGameState walks the viewer through the current map.
type InGameState struct {
	session *Session
	manager *Manager

	clock  time.Duration
	accum  time.Duration
	frames int

	shotPending bool

	ShowStats bool
}

// NewInGameState creates the in-game state.
func NewInGameState(session *Session, manager *Manager) *InGameState {
	return &InGameState{
		session: session,
		manager: manager,
	}
}

// Enter is called when entering this state.
func (s *InGameState) Enter() error {
	if m := s.session.World.Current(); m != nil {
		cam := s.session.Camera
		logger.Info("entering InGameState",
			zap.String("map", m.Name),
			zap.Float32("x", cam.Origin.X),
			zap.Float32("y", cam.Origin.Y),
			zap.Float32("z", cam.Origin.Z))
	}
	return nil
}

// Exit releases held movement so it does not carry into the next state.
func (s *InGameState) Exit() error {
	s.releaseMoves()
	return nil
}

func (s *InGameState) releaseMoves() {
	for _, mv := range moveCommands {
		s.session.Camera.SetMove(mv, false)
	}
}

// HandleInput turns key and mouse events into viewer commands.
func (s *InGameState) HandleInput(event input.Event) error {
	switch event.Type {
	case input.EventMouseMove:
		s.session.Camera.Look(float32(event.XRel), float32(event.YRel))

	case input.EventFocusLost:
		// key releases go to whichever window has focus now
		s.releaseMoves()

	case input.EventKeyDown, input.EventKeyUp:
		action, ok := s.session.Bindings.Dispatch(event.Key, event.Type == input.EventKeyDown)
		if !ok {
			return nil
		}
		return s.execute(action)
	}
	return nil
}

func (s *InGameState) execute(action input.Action) error {
	if mv, ok := moveCommands[action.Command]; ok {
		s.session.Camera.SetMove(mv, action.State == 1)
		return nil
	}

	switch action.Command {
	case input.CmdQuit:
		return ErrQuit
	case input.CmdToggleStat:
		s.ShowStats = !s.ShowStats
	case input.CmdScreenshot:
		s.shotPending = s.session.Shots != nil
	}
	return nil
}

// Update advances the clock and runs whole movement frames.
func (s *InGameState) Update(dt float64) error {
	d := time.Duration(dt * float64(time.Second))
	s.clock += d
	s.accum += d

	step := s.session.FrameTime
	if step <= 0 {
		return nil
	}
	if s.accum > maxCatchUp*step {
		s.accum = maxCatchUp * step
	}
	for s.accum >= step {
		s.session.Camera.Move()
		s.accum -= step
		s.frames++
	}
	return nil
}

// lerp is the fraction of the current movement frame already elapsed.
func (s *InGameState) lerp() float32 {
	if s.session.FrameTime <= 0 {
		return 1
	}
	return float32(s.accum) / float32(s.session.FrameTime)
}

// ViewProjection returns the matrix the next Render will use.
func (s *InGameState) ViewProjection() math.Mat4 {
	g := s.session.Graphics
	proj := math.Perspective(math.Radians(g.FOV), s.session.Frame.Aspect(), g.Near, g.Far)
	return proj.Mul(s.session.Camera.ViewMatrix(s.lerp()))
}

// Render draws the world from the interpolated eye position.
func (s *InGameState) Render() error {
	vp := s.ViewProjection()

	s.session.Frame.Begin(vp)
	defer s.session.Frame.End()

	m := s.session.World.Current()
	if m == nil {
		return nil
	}

	if s.session.Graphics.FrustumCull {
		f := math.FrustumFromMatrix(vp)
		m.SetFrustum(&f)
	} else {
		m.SetFrustum(nil)
	}
	m.SetTime(s.clock)
	m.Render(s.session.Camera.Eye(s.lerp()))

	if s.shotPending {
		s.shotPending = false
		s.screenshot()
	}
	return nil
}

// screenshot saves the frame just drawn. Failures are logged, not fatal.
func (s *InGameState) screenshot() {
	path, err := s.session.Shots.Screenshot()
	if err != nil {
		logger.Warn("screenshot failed", zap.Error(err))
		return
	}
	logger.Info("wrote screenshot", zap.String("path", path))
}

// Frames returns the number of movement frames run.
func (s *InGameState) Frames() int {
	return s.frames
}

// MapStats returns the current map's counters.
func (s *InGameState) MapStats() (bsp.Stats, bool) {
	m := s.session.World.Current()
	if m == nil {
		return bsp.Stats{}, false
	}
	return m.Stats(), true
}

// StatusLine summarizes the view for the window title.
func (s *InGameState) StatusLine() string {
	st, ok := s.MapStats()
	if !ok {
		return "no map"
	}
	eye := s.session.Camera.Eye(s.lerp())
	return fmt.Sprintf("%s | cluster %d | leaves %d | surfaces %d | pos %.0f %.0f %.0f",
		s.session.World.Current().Name, st.ViewCluster, st.LeavesDrawn, st.SurfacesDrawn, eye.X, eye.Y, eye.Z)
}
