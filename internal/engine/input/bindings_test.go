package input

import (
	"errors"
	"testing"

	"github.com/veandco/go-sdl2/sdl"
)

func TestBindings_Bind(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		command string
		wantErr error
	}{
		{"held command", "w", CmdForward, nil},
		{"plain command", "escape", CmdQuit, nil},
		{"upper case key", "SPACE", CmdMoveUp, nil},
		{"unknown key", "f13", CmdQuit, ErrUnknownKey},
		{"unknown command", "w", "+fly", ErrUnknownCommand},
		{"missing plus", "w", "forward", ErrUnknownCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBindings()
			err := b.Bind(tt.key, tt.command)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.wantErr != nil {
				return
			}
			if got, ok := b.Command(tt.key); !ok || got != tt.command {
				t.Errorf("expected %q bound, got %q", tt.command, got)
			}
		})
	}
}

func TestBindings_Dispatch(t *testing.T) {
	b := DefaultBindings()

	tests := []struct {
		name    string
		code    sdl.Scancode
		pressed bool
		want    Action
		fired   bool
	}{
		{"held press", sdl.SCANCODE_W, true, Action{CmdForward, 1}, true},
		{"held release", sdl.SCANCODE_W, false, Action{CmdForward, 0}, true},
		{"plain press", sdl.SCANCODE_Q, true, Action{CmdQuit, 1}, true},
		{"plain release", sdl.SCANCODE_Q, false, Action{}, false},
		{"unbound", sdl.SCANCODE_Z, true, Action{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, fired := b.Dispatch(tt.code, tt.pressed)
			if fired != tt.fired {
				t.Fatalf("expected fired %v, got %v", tt.fired, fired)
			}
			if fired && got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestBindings_Unbind(t *testing.T) {
	b := DefaultBindings()
	if err := b.Unbind("c"); err != nil {
		t.Fatalf("Unbind failed: %v", err)
	}
	if _, ok := b.Command("c"); ok {
		t.Error("expected c unbound")
	}
	if err := b.Unbind("nope"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("expected ErrUnknownKey, got %v", err)
	}
}

func TestBindings_Actions(t *testing.T) {
	b := DefaultBindings()
	events := []Event{
		{Type: EventKeyDown, Key: sdl.SCANCODE_A},
		{Type: EventMouseMove, XRel: 4},
		{Type: EventKeyUp, Key: sdl.SCANCODE_A},
		{Type: EventKeyUp, Key: sdl.SCANCODE_GRAVE},
		{Type: EventKeyDown, Key: sdl.SCANCODE_GRAVE},
	}

	got := b.Actions(events)
	want := []Action{
		{CmdMoveLeft, 1},
		{CmdMoveLeft, 0},
		{CmdToggleStat, 1},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d actions, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("action %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestDefaultBinds_CoverKeyNames(t *testing.T) {
	for key := range DefaultBinds {
		if _, ok := keyNames[key]; !ok {
			t.Errorf("default bind on unknown key %q", key)
		}
	}
	if len(KeyNames()) != len(keyNames) {
		t.Errorf("expected %d key names, got %d", len(keyNames), len(KeyNames()))
	}
}
