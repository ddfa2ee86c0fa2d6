// Package rules evaluates conditions over the state store and world cursor
// and ranks prioritized candidates.
package rules

import "github.com/nathoo/lovecore/types"

// Facts is the read side of the state store used by conditions.
type Facts interface {
	GetAffection(id string) int
	IsFlagSet(name string) bool
}

// World is the read side of the world cursor used by conditions.
type World interface {
	Day() int
	TimeOfDay() types.TimeOfDay
	Location() types.Location
}

// Evaluate reports whether c holds. Clauses are checked in order (day min,
// day max, time of day, location, affection min, affection max, required
// flags, forbidden flags) and evaluation stops at the first that fails.
// The zero Condition always holds.
func Evaluate(c types.Condition, facts Facts, w World) bool {
	if c.MinDay > 0 && w.Day() < c.MinDay {
		return false
	}
	if c.MaxDay > 0 && w.Day() > c.MaxDay {
		return false
	}
	if c.TimeOfDay != nil && w.TimeOfDay() != *c.TimeOfDay {
		return false
	}
	if c.Location != nil && w.Location() != *c.Location {
		return false
	}
	if c.CharacterID != "" {
		a := facts.GetAffection(c.CharacterID)
		if c.MinAffection != nil && a < *c.MinAffection {
			return false
		}
		if c.MaxAffection != nil && a > *c.MaxAffection {
			return false
		}
	}
	for _, f := range c.RequiredFlags {
		if f != "" && !facts.IsFlagSet(f) {
			return false
		}
	}
	for _, f := range c.ForbiddenFlags {
		if f != "" && facts.IsFlagSet(f) {
			return false
		}
	}
	return true
}
