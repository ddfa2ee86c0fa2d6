// Package world tracks the calendar and location cursor of a session and
// the set of story events that have already fired.
package world

import (
	"sort"

	"go.uber.org/zap"

	"github.com/nathoo/lovecore/engine/bus"
	"github.com/nathoo/lovecore/types"
)

// Snapshot is the persisted form of a Cursor.
type Snapshot struct {
	Day             int             `json:"day"`
	TimeOfDay       types.TimeOfDay `json:"time_of_day"`
	Location        types.Location  `json:"location"`
	TriggeredEvents []string        `json:"triggered_events"`
}

// Cursor is the world state of one session.
type Cursor struct {
	bus *bus.Bus
	log *zap.Logger

	day       int
	timeOfDay types.TimeOfDay
	location  types.Location
	triggered map[string]bool
	start     types.Location
}

// New creates a cursor on day 1, morning, at home.
func New(b *bus.Bus, log *zap.Logger) *Cursor {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Cursor{bus: b, log: log.Named("world")}
	c.Reset()
	return c
}

// SetStartLocation changes the location Reset returns to.
func (c *Cursor) SetStartLocation(l types.Location) {
	c.start = l
}

// Day returns the current day (>= 1).
func (c *Cursor) Day() int { return c.day }

// TimeOfDay returns the current time of day.
func (c *Cursor) TimeOfDay() types.TimeOfDay { return c.timeOfDay }

// Location returns the current location.
func (c *Cursor) Location() types.Location { return c.location }

// AdvanceTime moves to the next time of day. Wrapping from night to
// morning starts a new day; DayChanged is published before TimeOfDayChanged.
func (c *Cursor) AdvanceTime() {
	prev := c.timeOfDay
	next := prev.Next()
	c.timeOfDay = next
	if next == types.Morning {
		prevDay := c.day
		c.day++
		c.log.Debug("day changed", zap.Int("day", c.day))
		c.publish(bus.DayChanged{Previous: prevDay, New: c.day})
	}
	c.publish(bus.TimeOfDayChanged{Previous: prev, New: next, Day: c.day})
}

// SetTimeOfDay jumps to t. Setting the current value is a no-op.
func (c *Cursor) SetTimeOfDay(t types.TimeOfDay) {
	if t < types.Morning || t > types.Night {
		c.log.Warn("invalid time of day ignored", zap.Int("time", int(t)))
		return
	}
	if t == c.timeOfDay {
		return
	}
	prev := c.timeOfDay
	c.timeOfDay = t
	c.publish(bus.TimeOfDayChanged{Previous: prev, New: t, Day: c.day})
}

// SetLocation moves the player. Setting the current value is a no-op.
func (c *Cursor) SetLocation(l types.Location) {
	if l < 0 || int(l) >= len(types.Locations()) {
		c.log.Warn("invalid location ignored", zap.Int("location", int(l)))
		return
	}
	if l == c.location {
		return
	}
	prev := c.location
	c.location = l
	c.publish(bus.LocationChanged{Previous: prev, New: l})
}

// SetDay jumps to day d. Values below 1 are rejected.
func (c *Cursor) SetDay(d int) bool {
	if d < 1 {
		c.log.Warn("invalid day ignored", zap.Int("day", d))
		return false
	}
	if d == c.day {
		return true
	}
	prev := c.day
	c.day = d
	c.publish(bus.DayChanged{Previous: prev, New: d})
	return true
}

// MarkEventTriggered records that a story event has fired.
func (c *Cursor) MarkEventTriggered(id string) {
	if id == "" {
		c.log.Warn("empty event id ignored")
		return
	}
	c.triggered[id] = true
}

// IsEventTriggered reports whether a story event has fired.
func (c *Cursor) IsEventTriggered(id string) bool {
	return c.triggered[id]
}

// TriggeredEvents returns the fired event ids in sorted order.
func (c *Cursor) TriggeredEvents() []string {
	out := make([]string, 0, len(c.triggered))
	for id := range c.triggered {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Export returns a copy of the cursor.
func (c *Cursor) Export() Snapshot {
	return Snapshot{
		Day:             c.day,
		TimeOfDay:       c.timeOfDay,
		Location:        c.location,
		TriggeredEvents: c.TriggeredEvents(),
	}
}

// Import replaces the cursor with snap without publishing. Days below 1
// are raised to 1; an undefined time of day or location falls back to
// morning or the start location.
func (c *Cursor) Import(snap Snapshot) {
	c.day = snap.Day
	if c.day < 1 {
		c.day = 1
	}
	c.timeOfDay = snap.TimeOfDay
	if !c.timeOfDay.Valid() {
		c.log.Warn("invalid time of day in snapshot, using morning", zap.Int("time_of_day", int(snap.TimeOfDay)))
		c.timeOfDay = types.Morning
	}
	c.location = snap.Location
	if !c.location.Valid() {
		c.log.Warn("invalid location in snapshot, using start location", zap.Int("location", int(snap.Location)))
		c.location = c.start
	}
	c.triggered = map[string]bool{}
	for _, id := range snap.TriggeredEvents {
		if id != "" {
			c.triggered[id] = true
		}
	}
}

// Reset returns to day 1, morning, at the start location, with no events fired.
func (c *Cursor) Reset() {
	c.day = 1
	c.timeOfDay = types.Morning
	c.location = c.start
	c.triggered = map[string]bool{}
}

func (c *Cursor) publish(m bus.Message) {
	if c.bus != nil {
		c.bus.Publish(m)
	}
}
