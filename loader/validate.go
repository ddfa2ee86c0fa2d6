package loader

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/nathoo/lovecore/types"
)

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

func (e *ValidationError) errorf(format string, args ...any) {
	e.Errors = append(e.Errors, fmt.Sprintf(format, args...))
}

func (e *ValidationError) warnf(format string, args ...any) {
	e.Warnings = append(e.Warnings, fmt.Sprintf(format, args...))
}

// Validate checks content and every dialogue in dialogues for referential
// integrity. Warnings are logged; errors are returned as *ValidationError.
func Validate(c *Content, dialogues *Dialogues, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	ve := &ValidationError{}

	if c.Game.Title == "" {
		ve.errorf("Game.title is required")
	}

	chars := map[string]bool{}
	for _, ch := range c.Characters {
		if chars[ch.ID] {
			ve.warnf("duplicate character %q (first definition wins)", ch.ID)
		}
		chars[ch.ID] = true
	}

	ids, err := dialogues.IDs()
	if err != nil {
		ve.errorf("listing dialogues: %v", err)
	}
	known := map[string]bool{}
	for _, id := range ids {
		known[id] = true
	}

	if c.Game.Opening != "" && !known[c.Game.Opening] {
		ve.errorf("opening dialogue %q not found", c.Game.Opening)
	}

	seen := map[string]bool{}
	for _, e := range c.Events {
		if seen[e.ID] {
			ve.warnf("duplicate event %q (first definition wins)", e.ID)
		}
		seen[e.ID] = true
		if !known[e.DialogueID] {
			ve.errorf("event %q references undefined dialogue %q", e.ID, e.DialogueID)
		}
		validateCondition("event "+e.ID, e.Condition, chars, ve)
	}

	for _, g := range c.Idle {
		if len(g.Lines) == 0 {
			ve.warnf("idle group %q has no lines", g.ID)
		}
		validateCondition("idle group "+g.ID, g.Condition, chars, ve)
	}

	for _, id := range ids {
		g, err := dialogues.Dialogue(id)
		if err != nil {
			ve.errorf("%v", err)
			continue
		}
		ValidateDialogue(g, chars, known, ve)
	}

	for _, w := range ve.Warnings {
		log.Warn("content warning", zap.String("detail", w))
	}
	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateCondition(owner string, c types.Condition, chars map[string]bool, ve *ValidationError) {
	if c.MinDay > 0 && c.MaxDay > 0 && c.MinDay > c.MaxDay {
		ve.errorf("%s: day range %d..%d is empty", owner, c.MinDay, c.MaxDay)
	}
	if c.CharacterID != "" && !chars[c.CharacterID] {
		ve.errorf("%s: condition references undefined character %q", owner, c.CharacterID)
	}
	if c.MinAffection != nil && c.MaxAffection != nil && *c.MinAffection > *c.MaxAffection {
		ve.errorf("%s: affection range %d..%d is empty", owner, *c.MinAffection, *c.MaxAffection)
	}
	for _, f := range append(append([]string(nil), c.RequiredFlags...), c.ForbiddenFlags...) {
		if f == "" {
			ve.warnf("%s: empty flag name is ignored", owner)
		}
	}
}

// ValidateDialogue checks one graph. chars and dialogues are the known
// character and dialogue ids; either may be nil to skip that check.
func ValidateDialogue(g types.DialogueGraph, chars, dialogues map[string]bool, ve *ValidationError) {
	id := g.ID
	if len(g.Sections) == 0 && len(g.Lines) == 0 {
		ve.errorf("dialogue %q has no lines or sections", id)
		return
	}
	if len(g.Sections) > 0 && len(g.Lines) > 0 {
		ve.warnf("dialogue %q has both lines and sections; lines are ignored", id)
	}

	sections := g.Sections
	if len(sections) == 0 {
		sections = map[string][]types.Line{"": g.Lines}
	} else {
		start := g.StartSection
		if start == "" {
			start = "start"
		}
		if _, ok := sections[start]; !ok {
			ve.errorf("dialogue %q has no start section %q", id, start)
		}
	}

	names := make([]string, 0, len(sections))
	for name := range sections {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		where := id
		if name != "" {
			where = id + "/" + name
		}
		for i, line := range sections[name] {
			if chars != nil && line.Speaker != "" && !chars[line.Speaker] {
				ve.warnf("%s line %d: speaker %q is not a defined character", where, i, line.Speaker)
			}
			for _, p := range line.Characters {
				if chars != nil && !chars[p.CharacterID] {
					ve.warnf("%s line %d: placed character %q is not defined", where, i, p.CharacterID)
				}
			}
			for j, ch := range line.Choices {
				if strings.TrimSpace(ch.Text) == "" {
					ve.errorf("%s line %d choice %d has no text", where, i, j)
				}
				if ch.Goto != "" && ch.NextDialogueID != "" {
					ve.warnf("%s line %d choice %d sets both goto and next; goto wins", where, i, j)
				}
				if ch.Goto != "" {
					if _, ok := g.Sections[ch.Goto]; !ok {
						ve.errorf("%s line %d choice %d: goto section %q not found", where, i, j, ch.Goto)
					}
				}
				if ch.NextDialogueID != "" && dialogues != nil && !dialogues[ch.NextDialogueID] {
					ve.errorf("%s line %d choice %d: next dialogue %q not found", where, i, j, ch.NextDialogueID)
				}
			}
		}
	}
}
