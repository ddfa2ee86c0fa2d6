// Package types defines the shared data structures for the lovecore runtime.
// Apart from enum helpers and ranking accessors this package holds no logic.
package types

// Tier is a named affection band. A character is in the tier with the
// highest threshold that is <= its current affection.
type Tier struct {
	Name      string
	Threshold int
}

// CharacterDef is the static definition of a romanceable character.
type CharacterDef struct {
	ID           string
	DisplayName  string
	Description  string
	MaxAffection int    // 0 means the default maximum (100)
	Tiers        []Tier // author order; not necessarily sorted
}

// Condition is a conjunctive predicate over the world cursor and the state
// store. The zero value is the empty condition and always holds.
//
// Day bounds <= 0 are unbounded. Affection bounds only apply when
// CharacterID is set; a nil bound is unbounded.
type Condition struct {
	MinDay         int
	MaxDay         int
	TimeOfDay      *TimeOfDay
	Location       *Location
	CharacterID    string
	MinAffection   *int
	MaxAffection   *int
	RequiredFlags  []string
	ForbiddenFlags []string
}

// StoryEvent hands a dialogue to the interpreter when its condition holds.
type StoryEvent struct {
	ID          string
	DialogueID  string
	Description string
	Condition   Condition
	Priority    int
	Repeatable  bool
	SourceOrder int
}

// RankPriority and RankOrder order events for selection.
func (e StoryEvent) RankPriority() int { return e.Priority }
func (e StoryEvent) RankOrder() int    { return e.SourceOrder }

// IdleGroup is a pool of ambient lines shown outside story progression.
type IdleGroup struct {
	ID          string
	Condition   Condition
	Priority    int
	Lines       []string
	SourceOrder int
}

func (g IdleGroup) RankPriority() int { return g.Priority }
func (g IdleGroup) RankOrder() int    { return g.SourceOrder }

// Choice is one option offered at the end of a line. Exactly one of Goto
// (same-graph section) or NextDialogueID (another graph) continues the story;
// with neither set the dialogue simply ends.
type Choice struct {
	Text            string `json:"text"`
	AffectionChange int    `json:"affectionChange,omitempty"`
	FlagToSet       string `json:"flagToSet,omitempty"`
	Goto            string `json:"goto,omitempty"`
	NextDialogueID  string `json:"nextDialogueId,omitempty"`
}

// Placement puts a character sprite on stage.
type Placement struct {
	CharacterID string   `json:"id"`
	Emotion     string   `json:"emotion,omitempty"`
	Position    Position `json:"position"`
}

// Line is a single beat of dialogue. An empty Speaker is narration.
type Line struct {
	Speaker             string      `json:"speaker,omitempty"`
	Text                string      `json:"text"`
	Emotion             string      `json:"emotion,omitempty"`
	Background          string      `json:"background,omitempty"`
	BackgroundFade      float64     `json:"backgroundFade,omitempty"` // seconds
	Characters          []Placement `json:"characters,omitempty"`
	TextAlign           string      `json:"textAlign,omitempty"`
	HideCharactersAfter bool        `json:"hideCharactersAfter,omitempty"`
	Choices             []Choice    `json:"choices,omitempty"`
}

// DialogueGraph is one unit of static narrative content. When Sections is
// non-empty it supersedes Lines.
type DialogueGraph struct {
	ID           string            `json:"dialogueId"`
	ChapterTitle string            `json:"chapterTitle,omitempty"`
	StartSection string            `json:"startSection,omitempty"`
	Lines        []Line            `json:"lines,omitempty"`
	Sections     map[string][]Line `json:"sections,omitempty"`
}

// GameDef holds game metadata from the content directory.
type GameDef struct {
	Title    string
	Author   string
	Version  string
	Opening  string // dialogue started by a new game, may be empty
	Location Location
}

// Intent is the parsed representation of a player command.
type Intent struct {
	Verb   string
	Object string // optional
}
