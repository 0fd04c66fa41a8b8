// Package camera provides the first-person viewer that walks the map.
package camera

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/blackbloc/pkg/math"
)

// Move is a movement command that stays active while its key is held.
type Move int

const (
	MoveForward Move = iota
	MoveBack
	MoveLeft
	MoveRight
	MoveUp
	MoveDown
	numMoves
)

// Angle indices into FirstPerson.Angles.
const (
	Pitch = 0
	Yaw   = 1
	Roll  = 2
)

// Config holds per-frame movement distances and look sensitivity.
type Config struct {
	ViewHeight   float32
	ForwardSpeed float32
	StrafeSpeed  float32
	ClimbSpeed   float32
	Sensitivity  float32
}

// DefaultConfig returns the classic walk speeds: 20 units forward, 17 sideways
// and 10 vertically per client frame.
func DefaultConfig() Config {
	return Config{
		ViewHeight:   40,
		ForwardSpeed: 20,
		StrafeSpeed:  17,
		ClimbSpeed:   10,
		Sensitivity:  1,
	}
}

// FirstPerson is a free-flying viewer. Origin advances once per client frame;
// rendering interpolates between OldOrigin and Origin.
type FirstPerson struct {
	Origin     math.Vec3
	OldOrigin  math.Vec3
	ViewOffset math.Vec3

	// Angles are pitch, yaw and roll in degrees.
	Angles [3]float32

	cfg    Config
	moving [numMoves]bool
}

// NewFirstPerson creates a viewer at the origin.
func NewFirstPerson(cfg Config) *FirstPerson {
	return &FirstPerson{
		ViewOffset: math.Vec3{Y: cfg.ViewHeight},
		cfg:        cfg,
	}
}

// SetMove starts or stops a movement command.
func (c *FirstPerson) SetMove(m Move, active bool) {
	if m >= 0 && m < numMoves {
		c.moving[m] = active
	}
}

// Moving reports whether a movement command is active.
func (c *FirstPerson) Moving(m Move) bool {
	return m >= 0 && m < numMoves && c.moving[m]
}

// Teleport places the viewer without interpolating from the old position.
func (c *FirstPerson) Teleport(origin math.Vec3, yaw float32) {
	c.Origin = origin
	c.OldOrigin = origin
	c.Angles = [3]float32{0, yaw, 0}
}

// Move advances one client frame.
func (c *FirstPerson) Move() {
	c.OldOrigin = c.Origin

	forward := yawVector(c.Angles[Yaw]).Scale(c.cfg.ForwardSpeed)
	if c.moving[MoveForward] {
		c.Origin = c.Origin.Sub(forward)
	}
	if c.moving[MoveBack] {
		c.Origin = c.Origin.Add(forward)
	}

	strafe := yawVector(c.Angles[Yaw] + 90).Scale(c.cfg.StrafeSpeed)
	if c.moving[MoveLeft] {
		c.Origin = c.Origin.Sub(strafe)
	}
	if c.moving[MoveRight] {
		c.Origin = c.Origin.Add(strafe)
	}

	if c.moving[MoveUp] {
		c.Origin.Y += c.cfg.ClimbSpeed
	}
	if c.moving[MoveDown] {
		c.Origin.Y -= c.cfg.ClimbSpeed
	}
}

// yawVector is the horizontal unit vector for a yaw in degrees.
// Yaw 0 points along +Z, which is behind a viewer looking down -Z.
func yawVector(yaw float32) math.Vec3 {
	s, c := math32.Sincos(math.Radians(yaw))
	return math.Vec3{X: s, Z: c}
}

// Look applies a mouse delta in pixels.
func (c *FirstPerson) Look(dx, dy float32) {
	c.Angles[Pitch] -= dy * c.cfg.Sensitivity
	c.Angles[Yaw] -= dx * c.cfg.Sensitivity
}

// Eye returns the interpolated view position; lerp is the fraction of the
// current client frame that has elapsed.
func (c *FirstPerson) Eye(lerp float32) math.Vec3 {
	return c.OldOrigin.Lerp(c.Origin, lerp).Add(c.ViewOffset)
}

// ViewMatrix rotates by the inverted view angles, then moves the eye to the origin.
func (c *FirstPerson) ViewMatrix(lerp float32) math.Mat4 {
	eye := c.Eye(lerp)
	return math.RotateX(math.Radians(-c.Angles[Pitch])).
		Mul(math.RotateY(math.Radians(-c.Angles[Yaw]))).
		Mul(math.RotateZ(math.Radians(-c.Angles[Roll]))).
		Mul(math.Translate(-eye.X, -eye.Y, -eye.Z))
}
