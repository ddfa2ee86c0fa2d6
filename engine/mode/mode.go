// Package mode tracks the high-level mode of the game shell and the play
// time accumulated while the player is actually playing.
package mode

import (
	"time"

	"go.uber.org/zap"

	"github.com/nathoo/lovecore/engine/bus"
	"github.com/nathoo/lovecore/types"
)

// Manager owns the current mode.
type Manager struct {
	bus      *bus.Bus
	log      *zap.Logger
	current  types.Mode
	playTime time.Duration
}

// New creates a manager in ModeTitle.
func New(b *bus.Bus, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{bus: b, log: log.Named("mode"), current: types.ModeTitle}
}

// Current returns the current mode.
func (m *Manager) Current() types.Mode { return m.current }

// Change switches to next and publishes ModeChanged. Changing to the
// current mode is a no-op.
func (m *Manager) Change(next types.Mode) {
	if next == m.current {
		return
	}
	prev := m.current
	m.current = next
	m.log.Debug("mode changed", zap.Stringer("from", prev), zap.Stringer("to", next))
	if m.bus != nil {
		m.bus.Publish(bus.ModeChanged{Previous: prev, New: next})
	}
}

// AddPlayTime accumulates d when the player is playing or in dialogue.
func (m *Manager) AddPlayTime(d time.Duration) {
	if d <= 0 {
		return
	}
	if m.current == types.ModePlaying || m.current == types.ModeDialogue {
		m.playTime += d
	}
}

// PlayTime returns the accumulated play time.
func (m *Manager) PlayTime() time.Duration { return m.playTime }

// SetPlayTime restores play time from a save.
func (m *Manager) SetPlayTime(d time.Duration) {
	if d < 0 {
		d = 0
	}
	m.playTime = d
}
