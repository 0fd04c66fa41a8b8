// Package input turns SDL2 events into client events and maps keys to
// console commands.
package input

import (
	"github.com/veandco/go-sdl2/sdl"
)

// EventType classifies an Event.
type EventType int

const (
	EventQuit EventType = iota + 1
	EventWindowResize
	EventFocusLost
	EventKeyDown
	EventKeyUp
	EventMouseMove
)

// Event is one input event for the client states.
type Event struct {
	Type EventType
	Key  sdl.Scancode
	// Width and Height are the new window size for EventWindowResize.
	Width  int
	Height int
	// XRel and YRel are relative mouse motion in pixels.
	XRel int
	YRel int
}

// Input collects the events of one frame.
type Input struct {
	events []Event
	mx, my int
}

// New creates a new input handler.
func New() *Input {
	return &Input{events: make([]Event, 0, 16)}
}

// SetRelativeMouse hides the cursor and reports unbounded motion deltas.
func (i *Input) SetRelativeMouse(enabled bool) error {
	_, err := sdl.SetRelativeMouseMode(enabled)
	return err
}

// Update polls SDL and reports whether the window was closed.
func (i *Input) Update() bool {
	i.events = i.events[:0]
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		i.add(event)
	}
	return i.flush()
}

// add queues one SDL event. Mouse motion is summed into a single event per
// frame so the view turns once however many motion events arrived.
func (i *Input) add(event sdl.Event) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		i.events = append(i.events, Event{Type: EventQuit})

	case *sdl.WindowEvent:
		switch e.Event {
		case sdl.WINDOWEVENT_RESIZED:
			i.events = append(i.events, Event{Type: EventWindowResize, Width: int(e.Data1), Height: int(e.Data2)})
		case sdl.WINDOWEVENT_FOCUS_LOST:
			i.events = append(i.events, Event{Type: EventFocusLost})
		}

	case *sdl.KeyboardEvent:
		// auto-repeat would re-fire held commands
		if e.Repeat != 0 {
			return
		}
		typ := EventKeyDown
		if e.Type == sdl.KEYUP {
			typ = EventKeyUp
		}
		i.events = append(i.events, Event{Type: typ, Key: e.Keysym.Scancode})

	case *sdl.MouseMotionEvent:
		i.mx += int(e.XRel)
		i.my += int(e.YRel)
	}
}

// flush appends the accumulated motion and reports whether a quit was seen.
func (i *Input) flush() bool {
	if i.mx != 0 || i.my != 0 {
		i.events = append(i.events, Event{Type: EventMouseMove, XRel: i.mx, YRel: i.my})
		i.mx, i.my = 0, 0
	}
	for _, e := range i.events {
		if e.Type == EventQuit {
			return true
		}
	}
	return false
}

// Events returns the events from the last Update.
func (i *Input) Events() []Event {
	return i.events
}
