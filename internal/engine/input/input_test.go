package input

import (
	"testing"

	"github.com/veandco/go-sdl2/sdl"
)

func TestInput_TranslatesEvents(t *testing.T) {
	in := New()
	in.add(&sdl.KeyboardEvent{Type: sdl.KEYDOWN, Keysym: sdl.Keysym{Scancode: sdl.SCANCODE_W}})
	in.add(&sdl.KeyboardEvent{Type: sdl.KEYDOWN, Repeat: 1, Keysym: sdl.Keysym{Scancode: sdl.SCANCODE_W}})
	in.add(&sdl.KeyboardEvent{Type: sdl.KEYUP, Keysym: sdl.Keysym{Scancode: sdl.SCANCODE_W}})
	in.add(&sdl.WindowEvent{Event: sdl.WINDOWEVENT_RESIZED, Data1: 800, Data2: 600})
	in.add(&sdl.WindowEvent{Event: sdl.WINDOWEVENT_FOCUS_LOST})
	in.add(&sdl.WindowEvent{Event: sdl.WINDOWEVENT_MOVED})

	if in.flush() {
		t.Error("expected no quit")
	}

	want := []Event{
		{Type: EventKeyDown, Key: sdl.SCANCODE_W},
		{Type: EventKeyUp, Key: sdl.SCANCODE_W},
		{Type: EventWindowResize, Width: 800, Height: 600},
		{Type: EventFocusLost},
	}
	got := in.Events()
	if len(got) != len(want) {
		t.Fatalf("expected %d events, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestInput_SumsMouseMotion(t *testing.T) {
	in := New()
	in.add(&sdl.MouseMotionEvent{XRel: 3, YRel: -1})
	in.add(&sdl.MouseMotionEvent{XRel: 4, YRel: -2})
	in.flush()

	got := in.Events()
	if len(got) != 1 {
		t.Fatalf("expected 1 motion event, got %d", len(got))
	}
	if got[0].Type != EventMouseMove || got[0].XRel != 7 || got[0].YRel != -3 {
		t.Errorf("expected motion (7, -3), got %+v", got[0])
	}

	in.events = in.events[:0]
	in.flush()
	if len(in.Events()) != 0 {
		t.Error("expected motion reset after flush")
	}
}

func TestInput_Quit(t *testing.T) {
	in := New()
	in.add(&sdl.KeyboardEvent{Type: sdl.KEYDOWN, Keysym: sdl.Keysym{Scancode: sdl.SCANCODE_A}})
	in.add(&sdl.QuitEvent{})

	if !in.flush() {
		t.Error("expected quit reported")
	}
}
