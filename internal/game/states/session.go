package states

import (
	"time"

	"github.com/Faultbox/blackbloc/internal/config"
	"github.com/Faultbox/blackbloc/internal/engine/bsp"
	"github.com/Faultbox/blackbloc/internal/engine/camera"
	"github.com/Faultbox/blackbloc/internal/engine/input"
	"github.com/Faultbox/blackbloc/internal/game/world"
	"github.com/Faultbox/blackbloc/pkg/math"
)

// Frame brackets the drawing of one rendered frame.
type Frame interface {
	Begin(viewProj math.Mat4)
	End()
	Aspect() float32
}

// Ambience plays a map's ambient speakers.
type Ambience interface {
	PlaySpeakers(speakers []bsp.Speaker) (int, error)
	StopAmbient()
}

// Screenshotter saves the frame just drawn and returns the file name.
type Screenshotter interface {
	Screenshot() (string, error)
}

// Session is what the client states share.
type Session struct {
	World    *world.Manager
	Camera   *camera.FirstPerson
	Bindings *input.Bindings
	Frame    Frame
	// Audio may be nil.
	Audio Ambience
	// Shots may be nil.
	Shots Screenshotter

	Graphics config.GraphicsConfig
	// FrameTime is the length of one movement frame.
	FrameTime time.Duration
}
