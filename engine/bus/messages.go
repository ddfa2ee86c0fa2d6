package bus

import (
	"time"

	"github.com/nathoo/lovecore/types"
)

// Message kinds.
const (
	KindDialogueStarted             Kind = "dialogue_started"
	KindDialogueEnded               Kind = "dialogue_ended"
	KindLineDisplayRequested        Kind = "line_display_requested"
	KindTypingSkipRequested         Kind = "typing_skip_requested"
	KindChoiceListRequested         Kind = "choice_list_requested"
	KindChapterTitleRequested       Kind = "chapter_title_requested"
	KindBackgroundChangeRequested   Kind = "background_change_requested"
	KindCharacterDisplayRequested   Kind = "character_display_requested"
	KindCharacterHideRequested      Kind = "character_hide_requested"
	KindCharacterHighlightRequested Kind = "character_highlight_requested"
	KindAffectionChanged            Kind = "affection_changed"
	KindAffectionTierChanged        Kind = "affection_tier_changed"
	KindCurrencyChanged             Kind = "currency_changed"
	KindFlagSet                     Kind = "flag_set"

	KindTimeOfDayChanged Kind = "time_of_day_changed"
	KindDayChanged       Kind = "day_changed"
	KindLocationChanged  Kind = "location_changed"
	KindModeChanged      Kind = "mode_changed"

	KindAdvanceRequested     Kind = "advance_requested"
	KindChoiceSelected       Kind = "choice_selected"
	KindTypingFinished       Kind = "typing_finished"
	KindChapterTitleFinished Kind = "chapter_title_finished"

	KindEventTriggered         Kind = "event_triggered"
	KindInvestigationCompleted Kind = "investigation_completed"
	KindEpisodeCompleted       Kind = "episode_completed"
	KindSaveCompleted          Kind = "save_completed"
	KindLoadCompleted          Kind = "load_completed"
)

// DefaultFade is the background crossfade used when a line gives none.
const DefaultFade = 500 * time.Millisecond

// --- Dialogue lifecycle ---

// DialogueStarted is published once a dialogue graph has been entered.
type DialogueStarted struct{ DialogueID string }

// DialogueEnded is published when the interpreter returns to idle.
type DialogueEnded struct{ DialogueID string }

// --- Presentation requests ---

// LineDisplayRequested asks the presentation layer to reveal a line.
// SpeakerName is the display name when the speaker is a known character.
type LineDisplayRequested struct {
	Speaker     string
	SpeakerName string
	Text        string
	HasChoices  bool
	TextAlign   string
}

// TypingSkipRequested asks the presentation layer to finish revealing the
// current line immediately.
type TypingSkipRequested struct{}

// ChoiceListRequested asks for the choices of the current line to be shown.
type ChoiceListRequested struct{ Choices []types.Choice }

// ChapterTitleRequested asks for the chapter title card.
type ChapterTitleRequested struct{ Title string }

// BackgroundChangeRequested asks for a background crossfade.
type BackgroundChangeRequested struct {
	BackgroundID string
	Duration     time.Duration
}

// CharacterDisplayRequested places a sprite.
type CharacterDisplayRequested struct {
	CharacterID string
	Emotion     string
	Position    types.Position
	FadeIn      bool
}

// CharacterHideRequested hides the sprite at Position, or every sprite.
type CharacterHideRequested struct {
	All      bool
	Position types.Position
}

// CharacterHighlightRequested dims every sprite except the one at Position.
// None clears the highlight.
type CharacterHighlightRequested struct {
	None     bool
	Position types.Position
}

// --- State notifications ---

// AffectionChanged reports a clamped affection change.
type AffectionChanged struct {
	CharacterID string
	Previous    int
	New         int
	Delta       int
}

// AffectionTierChanged reports a change of named tier.
type AffectionTierChanged struct {
	CharacterID  string
	PreviousTier string
	NewTier      string
}

// CurrencyChanged reports a ledger mutation.
type CurrencyChanged struct {
	Currency string
	Previous int
	New      int
	Delta    int
}

// FlagSet is published the first time a flag is set.
type FlagSet struct{ Name string }

// TimeOfDayChanged reports a time-of-day change. Day is the day after the change.
type TimeOfDayChanged struct {
	Previous types.TimeOfDay
	New      types.TimeOfDay
	Day      int
}

// DayChanged reports a calendar day change.
type DayChanged struct {
	Previous int
	New      int
}

// LocationChanged reports the player moving.
type LocationChanged struct {
	Previous types.Location
	New      types.Location
}

// ModeChanged reports a high-level mode transition.
type ModeChanged struct {
	Previous types.Mode
	New      types.Mode
}

// --- Inbound signals ---

// AdvanceRequested is the player's "continue" input.
type AdvanceRequested struct{}

// ChoiceSelected picks a choice by zero-based index.
type ChoiceSelected struct{ Index int }

// TypingFinished reports that the current line is fully revealed.
type TypingFinished struct{}

// ChapterTitleFinished reports that the title card has been dismissed.
type ChapterTitleFinished struct{}

// --- Session notifications ---

// EventTriggered is published when the trigger coordinator fires a story event.
type EventTriggered struct {
	EventID    string
	DialogueID string
}

// InvestigationCompleted reports a finished investigation and its reward.
type InvestigationCompleted struct {
	Location      types.Location
	CluesRewarded int
	Remaining     int
}

// EpisodeCompleted is published when an episode dialogue ends.
type EpisodeCompleted struct {
	DialogueID string
	Label      string
}

// SaveCompleted reports the outcome of a save.
type SaveCompleted struct {
	Slot    int
	Success bool
}

// LoadCompleted reports the outcome of a load.
type LoadCompleted struct {
	Slot    int
	Success bool
}

func (DialogueStarted) Kind() Kind             { return KindDialogueStarted }
func (DialogueEnded) Kind() Kind               { return KindDialogueEnded }
func (LineDisplayRequested) Kind() Kind        { return KindLineDisplayRequested }
func (TypingSkipRequested) Kind() Kind         { return KindTypingSkipRequested }
func (ChoiceListRequested) Kind() Kind         { return KindChoiceListRequested }
func (ChapterTitleRequested) Kind() Kind       { return KindChapterTitleRequested }
func (BackgroundChangeRequested) Kind() Kind   { return KindBackgroundChangeRequested }
func (CharacterDisplayRequested) Kind() Kind   { return KindCharacterDisplayRequested }
func (CharacterHideRequested) Kind() Kind      { return KindCharacterHideRequested }
func (CharacterHighlightRequested) Kind() Kind { return KindCharacterHighlightRequested }
func (AffectionChanged) Kind() Kind            { return KindAffectionChanged }
func (AffectionTierChanged) Kind() Kind        { return KindAffectionTierChanged }
func (CurrencyChanged) Kind() Kind             { return KindCurrencyChanged }
func (FlagSet) Kind() Kind                     { return KindFlagSet }
func (TimeOfDayChanged) Kind() Kind            { return KindTimeOfDayChanged }
func (DayChanged) Kind() Kind                  { return KindDayChanged }
func (LocationChanged) Kind() Kind             { return KindLocationChanged }
func (ModeChanged) Kind() Kind                 { return KindModeChanged }
func (AdvanceRequested) Kind() Kind            { return KindAdvanceRequested }
func (ChoiceSelected) Kind() Kind              { return KindChoiceSelected }
func (TypingFinished) Kind() Kind              { return KindTypingFinished }
func (ChapterTitleFinished) Kind() Kind        { return KindChapterTitleFinished }
func (EventTriggered) Kind() Kind              { return KindEventTriggered }
func (InvestigationCompleted) Kind() Kind      { return KindInvestigationCompleted }
func (EpisodeCompleted) Kind() Kind            { return KindEpisodeCompleted }
func (SaveCompleted) Kind() Kind               { return KindSaveCompleted }
func (LoadCompleted) Kind() Kind               { return KindLoadCompleted }

var allKinds = []Kind{
	KindDialogueStarted, KindDialogueEnded, KindLineDisplayRequested,
	KindTypingSkipRequested, KindChoiceListRequested, KindChapterTitleRequested,
	KindBackgroundChangeRequested, KindCharacterDisplayRequested,
	KindCharacterHideRequested, KindCharacterHighlightRequested,
	KindAffectionChanged, KindAffectionTierChanged, KindCurrencyChanged, KindFlagSet,
	KindTimeOfDayChanged, KindDayChanged, KindLocationChanged, KindModeChanged,
	KindAdvanceRequested, KindChoiceSelected, KindTypingFinished, KindChapterTitleFinished,
	KindEventTriggered, KindInvestigationCompleted, KindEpisodeCompleted,
	KindSaveCompleted, KindLoadCompleted,
}

// Kinds returns every message kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}
