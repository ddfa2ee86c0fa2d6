// Package trigger hands control to the dialogue interpreter when a story
// event becomes eligible after a world-state change.
package trigger

import (
	"go.uber.org/zap"

	"github.com/nathoo/lovecore/engine/bus"
	"github.com/nathoo/lovecore/engine/events"
	"github.com/nathoo/lovecore/engine/rules"
	"github.com/nathoo/lovecore/types"
)

// Events is the event registry query used by the coordinator.
type Events interface {
	Event(id string) (types.StoryEvent, bool)
	GetTopTriggerable(facts rules.Facts, w events.World) (types.StoryEvent, bool)
}

// World is the world cursor as seen by the coordinator.
type World interface {
	events.World
	MarkEventTriggered(id string)
}

// Starter starts dialogues.
type Starter interface {
	IsActive() bool
	Start(id, section string) error
}

// Coordinator watches time and location changes and fires at most one
// story event at a time.
type Coordinator struct {
	bus      *bus.Bus
	log      *zap.Logger
	events   Events
	facts    rules.Facts
	world    World
	dialogue Starter

	inFlight string
	enabled  bool
	subs     []bus.Subscription
}

// New creates a coordinator and subscribes it to b. It starts enabled.
func New(b *bus.Bus, ev Events, facts rules.Facts, w World, d Starter, log *zap.Logger) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Coordinator{
		bus:      b,
		log:      log.Named("trigger"),
		events:   ev,
		facts:    facts,
		world:    w,
		dialogue: d,
		enabled:  true,
	}
	c.subs = []bus.Subscription{
		bus.On(b, func(bus.TimeOfDayChanged) { c.Check() }),
		bus.On(b, func(bus.LocationChanged) { c.Check() }),
		bus.On(b, func(m bus.DialogueEnded) { c.dialogueEnded(m.DialogueID) }),
	}
	return c
}

// SetEnabled turns automatic triggering on or off. Loading a save disables
// it so restored world changes do not fire events.
func (c *Coordinator) SetEnabled(on bool) {
	c.enabled = on
}

// InFlight returns the dialogue id started by the coordinator, or "".
func (c *Coordinator) InFlight() string { return c.inFlight }

// Close unsubscribes the coordinator.
func (c *Coordinator) Close() {
	for _, s := range c.subs {
		c.bus.Cancel(s)
	}
	c.subs = nil
}

// Check fires the top triggerable event if nothing is running. It reports
// whether a dialogue was started.
func (c *Coordinator) Check() bool {
	if !c.enabled || c.busy() {
		return false
	}
	ev, ok := c.events.GetTopTriggerable(c.facts, c.world)
	if !ok {
		return false
	}
	return c.fire(ev)
}

// TriggerByID fires the event with the given id without evaluating its
// condition. It refuses while another dialogue is running and reports
// whether a dialogue was started.
func (c *Coordinator) TriggerByID(id string) bool {
	ev, ok := c.events.Event(id)
	if !ok {
		c.log.Warn("trigger of unknown event ignored", zap.String("event", id))
		return false
	}
	if c.busy() {
		c.log.Warn("event trigger refused while a dialogue is running", zap.String("event", id))
		return false
	}
	return c.fire(ev)
}

func (c *Coordinator) busy() bool {
	return c.inFlight != "" || c.dialogue.IsActive()
}

func (c *Coordinator) fire(ev types.StoryEvent) bool {
	if !ev.Repeatable {
		c.world.MarkEventTriggered(ev.ID)
	}
	c.inFlight = ev.DialogueID
	c.log.Info("event triggered", zap.String("event", ev.ID), zap.String("dialogue", ev.DialogueID))
	c.bus.Publish(bus.EventTriggered{EventID: ev.ID, DialogueID: ev.DialogueID})

	if err := c.dialogue.Start(ev.DialogueID, ""); err != nil {
		c.inFlight = ""
		return false
	}
	return true
}

func (c *Coordinator) dialogueEnded(string) {
	c.inFlight = ""
}
