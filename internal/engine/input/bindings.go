package input

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/veandco/go-sdl2/sdl"
)

var (
	ErrUnknownKey     = errors.New("unknown key")
	ErrUnknownCommand = errors.New("unknown command")
)

// Commands understood by the client. A leading '+' marks a held command.
const (
	CmdForward    = "+forward"
	CmdBack       = "+back"
	CmdMoveLeft   = "+moveleft"
	CmdMoveRight  = "+moveright"
	CmdMoveUp     = "+moveup"
	CmdMoveDown   = "+movedown"
	CmdQuit       = "quit"
	CmdToggleStat = "togglestats"
	CmdScreenshot = "screenshot"
)

var commands = map[string]bool{
	CmdForward:    true,
	CmdBack:       true,
	CmdMoveLeft:   true,
	CmdMoveRight:  true,
	CmdMoveUp:     true,
	CmdMoveDown:   true,
	CmdQuit:       true,
	CmdToggleStat: true,
	CmdScreenshot: true,
}

// keyNames maps bindable key names to scancodes.
var keyNames = map[string]sdl.Scancode{
	"w":          sdl.SCANCODE_W,
	"s":          sdl.SCANCODE_S,
	"a":          sdl.SCANCODE_A,
	"d":          sdl.SCANCODE_D,
	"c":          sdl.SCANCODE_C,
	"q":          sdl.SCANCODE_Q,
	"space":      sdl.SCANCODE_SPACE,
	"backquote":  sdl.SCANCODE_GRAVE,
	"escape":     sdl.SCANCODE_ESCAPE,
	"uparrow":    sdl.SCANCODE_UP,
	"downarrow":  sdl.SCANCODE_DOWN,
	"leftarrow":  sdl.SCANCODE_LEFT,
	"rightarrow": sdl.SCANCODE_RIGHT,
	"f12":        sdl.SCANCODE_F12,
}

// DefaultBinds are the key bindings a fresh client starts with.
var DefaultBinds = map[string]string{
	"w":         CmdForward,
	"s":         CmdBack,
	"a":         CmdMoveLeft,
	"d":         CmdMoveRight,
	"space":     CmdMoveUp,
	"c":         CmdMoveDown,
	"q":         CmdQuit,
	"escape":    CmdQuit,
	"backquote": CmdToggleStat,
	"f12":       CmdScreenshot,
}

// Action is a command fired by a key. State is 1 on press and 0 on release;
// commands without '+' only fire on press.
type Action struct {
	Command string
	State   int
}

// Bindings maps keys to commands.
type Bindings struct {
	binds map[sdl.Scancode]string
}

// NewBindings returns an empty table.
func NewBindings() *Bindings {
	return &Bindings{binds: make(map[sdl.Scancode]string)}
}

// DefaultBindings returns a table holding DefaultBinds.
func DefaultBindings() *Bindings {
	b := NewBindings()
	for key, cmd := range DefaultBinds {
		if err := b.Bind(key, cmd); err != nil {
			panic(err)
		}
	}
	return b
}

// Bind attaches a command to a named key, replacing any previous binding.
func (b *Bindings) Bind(key, command string) error {
	code, ok := keyNames[strings.ToLower(key)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	if !commands[command] {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}
	b.binds[code] = command
	return nil
}

// Unbind removes a key's binding.
func (b *Bindings) Unbind(key string) error {
	code, ok := keyNames[strings.ToLower(key)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	delete(b.binds, code)
	return nil
}

// Command returns the command bound to a named key.
func (b *Bindings) Command(key string) (string, bool) {
	code, ok := keyNames[strings.ToLower(key)]
	if !ok {
		return "", false
	}
	cmd, ok := b.binds[code]
	return cmd, ok
}

// Dispatch translates a key transition into an action.
func (b *Bindings) Dispatch(code sdl.Scancode, pressed bool) (Action, bool) {
	cmd, ok := b.binds[code]
	if !ok {
		return Action{}, false
	}
	if !strings.HasPrefix(cmd, "+") {
		return Action{Command: cmd, State: 1}, pressed
	}
	if pressed {
		return Action{Command: cmd, State: 1}, true
	}
	return Action{Command: cmd, State: 0}, true
}

// Actions dispatches every key event in events.
func (b *Bindings) Actions(events []Event) []Action {
	var out []Action
	for _, e := range events {
		if e.Type != EventKeyDown && e.Type != EventKeyUp {
			continue
		}
		if a, ok := b.Dispatch(e.Key, e.Type == EventKeyDown); ok {
			out = append(out, a)
		}
	}
	return out
}

// KeyNames lists the bindable key names.
func KeyNames() []string {
	names := make([]string, 0, len(keyNames))
	for name := range keyNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
