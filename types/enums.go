package types

import (
	"fmt"
	"strings"
)

// TimeOfDay is the cyclic calendar slot within a day.
type TimeOfDay int

const (
	Morning TimeOfDay = iota
	Afternoon
	Evening
	Night
)

// TimesPerDay is the number of TimeOfDay values in one cycle.
const TimesPerDay = 4

var timeNames = []string{"morning", "afternoon", "evening", "night"}

func (t TimeOfDay) String() string {
	if t < 0 || int(t) >= len(timeNames) {
		return fmt.Sprintf("time(%d)", int(t))
	}
	return timeNames[t]
}

// Valid reports whether t is one of the defined times of day.
func (t TimeOfDay) Valid() bool {
	return t >= Morning && int(t) < len(timeNames)
}

// Next returns the following time of day, wrapping Night to Morning.
func (t TimeOfDay) Next() TimeOfDay {
	return TimeOfDay((int(t) + 1) % TimesPerDay)
}

// ParseTimeOfDay accepts a name ("evening") case-insensitively.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	i, err := parseName(s, timeNames)
	if err != nil {
		return 0, fmt.Errorf("unknown time of day %q", s)
	}
	return TimeOfDay(i), nil
}

// Location is one of the places the player can be.
type Location int

const (
	Home Location = iota
	School
	Library
	Cafe
	Park
	Mall
)

var locationNames = []string{"home", "school", "library", "cafe", "park", "mall"}

func (l Location) String() string {
	if l < 0 || int(l) >= len(locationNames) {
		return fmt.Sprintf("location(%d)", int(l))
	}
	return locationNames[l]
}

// Valid reports whether l is one of the defined locations.
func (l Location) Valid() bool {
	return l >= Home && int(l) < len(locationNames)
}

// Locations returns every defined location in declaration order.
func Locations() []Location {
	out := make([]Location, len(locationNames))
	for i := range locationNames {
		out[i] = Location(i)
	}
	return out
}

// ParseLocation accepts a name ("cafe") case-insensitively.
func ParseLocation(s string) (Location, error) {
	i, err := parseName(s, locationNames)
	if err != nil {
		return 0, fmt.Errorf("unknown location %q", s)
	}
	return Location(i), nil
}

// Position is a sprite slot on stage.
type Position int

const (
	Left Position = iota
	Center
	Right
)

var positionNames = []string{"left", "center", "right"}

func (p Position) String() string {
	if p < 0 || int(p) >= len(positionNames) {
		return fmt.Sprintf("position(%d)", int(p))
	}
	return positionNames[p]
}

// ParsePosition accepts a name ("right") case-insensitively.
func ParsePosition(s string) (Position, error) {
	i, err := parseName(s, positionNames)
	if err != nil {
		return 0, fmt.Errorf("unknown position %q", s)
	}
	return Position(i), nil
}

// MarshalText encodes the position by name for dialogue JSON.
func (p Position) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a position name.
func (p *Position) UnmarshalText(b []byte) error {
	v, err := ParsePosition(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Mode is the high-level state of the game shell.
type Mode int

const (
	ModeTitle Mode = iota
	ModePlaying
	ModePaused
	ModeDialogue
	ModeSaving
	ModeLoading
)

var modeNames = []string{"title", "playing", "paused", "dialogue", "saving", "loading"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return modeNames[m]
}

func parseName(s string, names []string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if n == s {
			return i, nil
		}
	}
	return -1, fmt.Errorf("unknown name %q", s)
}
