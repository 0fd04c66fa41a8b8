// Package states implements the client's loading and in-game states.
package states

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/blackbloc/internal/engine/input"
	"github.com/Faultbox/blackbloc/internal/logger"
)

// ErrQuit is returned by a state that wants the client to exit.
var ErrQuit = errors.New("quit requested")

// State is one phase of the client. Enter and Exit bracket the time a state
// is current; Update, Render and HandleInput run every frame in between.
type State interface {
	Enter() error
	Exit() error
	// Update advances by dt seconds.
	Update(dt float64) error
	Render() error
	HandleInput(event input.Event) error
}

// Manager runs the current state and applies scheduled changes.
type Manager struct {
	current State
	next    State
}

// NewManager creates a manager with no state.
func NewManager() *Manager {
	return &Manager{}
}

// Current returns the current state.
func (m *Manager) Current() State {
	return m.current
}

// Change schedules next to replace the current state on the next Update.
func (m *Manager) Change(next State) {
	m.next = next
}

// Update applies pending changes, then updates the current state. A state
// may schedule another change from Enter; the chain is followed in order.
func (m *Manager) Update(dt float64) error {
	for m.next != nil {
		next := m.next
		m.next = nil
		if err := m.switchTo(next); err != nil {
			return err
		}
	}
	if m.current == nil {
		return nil
	}
	return m.current.Update(dt)
}

func (m *Manager) switchTo(next State) error {
	if m.current != nil {
		if err := m.current.Exit(); err != nil {
			return fmt.Errorf("leaving %T: %w", m.current, err)
		}
	}
	logger.Debug("state change", zap.String("from", stateName(m.current)), zap.String("to", stateName(next)))
	m.current = next
	return m.current.Enter()
}

// Shutdown exits the current state and drops any pending change.
func (m *Manager) Shutdown() error {
	m.next = nil
	if m.current == nil {
		return nil
	}
	err := m.current.Exit()
	m.current = nil
	return err
}

// Render draws the current state.
func (m *Manager) Render() error {
	if m.current == nil {
		return nil
	}
	return m.current.Render()
}

// HandleInput forwards an event to the current state.
func (m *Manager) HandleInput(event input.Event) error {
	if m.current == nil {
		return nil
	}
	return m.current.HandleInput(event)
}

func stateName(s State) string {
	if s == nil {
		return "none"
	}
	return fmt.Sprintf("%T", s)
}
