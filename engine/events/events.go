// Package events holds the story-event and idle-line registries: priority
// ordered candidate pools filtered by condition eligibility.
package events

import (
	"go.uber.org/zap"

	"github.com/nathoo/lovecore/engine/rules"
	"github.com/nathoo/lovecore/types"
)

// EventSource supplies story event definitions.
type EventSource interface {
	StoryEvents() ([]types.StoryEvent, error)
}

// World is the world cursor view used for eligibility.
type World interface {
	rules.World
	IsEventTriggered(id string) bool
}

// Registry is the story-event pool. It loads lazily on first query.
type Registry struct {
	src    EventSource
	log    *zap.Logger
	loaded bool
	events []types.StoryEvent
	byID   map[string]int
}

// NewRegistry creates a registry backed by src.
func NewRegistry(src EventSource, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{src: src, log: log.Named("events"), byID: map[string]int{}}
}

// Reload re-reads the source. On error the previous contents are kept.
func (r *Registry) Reload() error {
	defs, err := r.src.StoryEvents()
	if err != nil {
		r.log.Error("loading story events failed", zap.Error(err))
		return err
	}
	seen := map[string]bool{}
	events := make([]types.StoryEvent, 0, len(defs))
	for i, e := range defs {
		if e.ID == "" {
			r.log.Warn("story event without id dropped", zap.Int("index", i))
			continue
		}
		if seen[e.ID] {
			r.log.Warn("duplicate story event dropped", zap.String("event", e.ID))
			continue
		}
		seen[e.ID] = true
		e.SourceOrder = i
		events = append(events, e)
	}
	rules.Rank(events)

	r.events = events
	r.byID = make(map[string]int, len(events))
	for i, e := range events {
		r.byID[e.ID] = i
	}
	r.loaded = true
	r.log.Debug("story events loaded", zap.Int("count", len(events)))
	return nil
}

func (r *Registry) ensure() {
	if !r.loaded {
		// A failed first load leaves the registry empty until Reload succeeds.
		_ = r.Reload()
		r.loaded = true
	}
}

// Events returns every event in selection order.
func (r *Registry) Events() []types.StoryEvent {
	r.ensure()
	out := make([]types.StoryEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Event returns the event with id.
func (r *Registry) Event(id string) (types.StoryEvent, bool) {
	r.ensure()
	i, ok := r.byID[id]
	if !ok {
		return types.StoryEvent{}, false
	}
	return r.events[i], true
}

// Count returns the number of loaded events.
func (r *Registry) Count() int {
	r.ensure()
	return len(r.events)
}

// GetTriggerable returns, in selection order, every event that may fire
// now: repeatable or not yet triggered, with a condition that holds.
func (r *Registry) GetTriggerable(facts rules.Facts, w World) []types.StoryEvent {
	r.ensure()
	var out []types.StoryEvent
	for _, e := range r.events {
		if triggerable(e, facts, w) {
			out = append(out, e)
		}
	}
	return out
}

// GetTopTriggerable returns the highest-priority triggerable event, the
// first loaded among equals.
func (r *Registry) GetTopTriggerable(facts rules.Facts, w World) (types.StoryEvent, bool) {
	r.ensure()
	for _, e := range r.events {
		if triggerable(e, facts, w) {
			return e, true
		}
	}
	return types.StoryEvent{}, false
}

func triggerable(e types.StoryEvent, facts rules.Facts, w World) bool {
	if !e.Repeatable && w.IsEventTriggered(e.ID) {
		return false
	}
	return rules.Evaluate(e.Condition, facts, w)
}
