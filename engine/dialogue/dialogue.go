// Package dialogue implements the dialogue interpreter: a message-driven
// walker over a dialogue graph's lines, choices and sections.
//
// The interpreter never blocks. It publishes a presentation request and
// returns; the matching completion, advance or choice signal arriving on
// the bus resumes it.
package dialogue

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nathoo/lovecore/engine/bus"
	"github.com/nathoo/lovecore/types"
)

// DefaultSection is the entry section of sectioned graphs that do not
// name their own.
const DefaultSection = "start"

var (
	// ErrActive is returned by Start while another dialogue is running.
	ErrActive = errors.New("dialogue already active")
	// ErrMalformed is returned for graphs with neither lines nor sections.
	ErrMalformed = errors.New("dialogue has no lines or sections")
	// ErrNoSection is returned when the requested section does not exist.
	ErrNoSection = errors.New("section not found")
)

// GraphSource fetches dialogue graphs by id.
type GraphSource interface {
	Dialogue(id string) (types.DialogueGraph, error)
}

// Effects receives the side effects of choices.
type Effects interface {
	AddAffection(id string, delta int) int
	SetFlag(name string)
}

// ModeController switches the global mode while a dialogue runs.
type ModeController interface {
	Current() types.Mode
	Change(types.Mode)
}

// Names resolves speaker ids to display names.
type Names interface {
	DisplayName(id string) string
}

// Interpreter walks one dialogue graph at a time.
type Interpreter struct {
	bus     *bus.Bus
	log     *zap.Logger
	src     GraphSource
	effects Effects
	modes   ModeController
	names   Names

	state     State
	graph     types.DialogueGraph
	section   string
	lines     []types.Line
	cursor    int
	pending   *types.Choice
	priorMode types.Mode
	stage     map[types.Position]string

	subs []bus.Subscription
}

// New creates an idle interpreter and subscribes it to the inbound
// signals on b. modes may be nil.
func New(b *bus.Bus, src GraphSource, fx Effects, modes ModeController, log *zap.Logger) *Interpreter {
	if log == nil {
		log = zap.NewNop()
	}
	in := &Interpreter{
		bus:     b,
		log:     log.Named("dialogue"),
		src:     src,
		effects: fx,
		modes:   modes,
		stage:   map[types.Position]string{},
	}
	in.subs = []bus.Subscription{
		bus.On(b, func(bus.AdvanceRequested) { in.Advance() }),
		bus.On(b, func(m bus.ChoiceSelected) { in.SelectChoice(m.Index) }),
		bus.On(b, func(bus.TypingFinished) { in.TypingFinished() }),
		bus.On(b, func(bus.ChapterTitleFinished) { in.ChapterTitleFinished() }),
	}
	return in
}

// SetNames installs the speaker display-name resolver.
func (in *Interpreter) SetNames(n Names) {
	in.names = n
}

// Close unsubscribes the interpreter from the bus.
func (in *Interpreter) Close() {
	for _, s := range in.subs {
		in.bus.Cancel(s)
	}
	in.subs = nil
}

// State returns the current state.
func (in *Interpreter) State() State { return in.state }

// IsActive reports whether a dialogue is running.
func (in *Interpreter) IsActive() bool { return in.state != Idle }

// DialogueID returns the running dialogue's id, or "".
func (in *Interpreter) DialogueID() string { return in.graph.ID }

// Section returns the current section name ("" for flat graphs).
func (in *Interpreter) Section() string { return in.section }

// LineIndex returns the cursor within the current section.
func (in *Interpreter) LineIndex() int { return in.cursor }

// CurrentLine returns the line under the cursor.
func (in *Interpreter) CurrentLine() (types.Line, bool) {
	if in.state == Idle || in.cursor < 0 || in.cursor >= len(in.lines) {
		return types.Line{}, false
	}
	return in.lines[in.cursor], true
}

// Start enters dialogue id at section ("" for the default). On failure the
// interpreter stays idle and the error is also logged.
func (in *Interpreter) Start(id, section string) error {
	if in.state != Idle {
		in.log.Warn("start rejected, dialogue active",
			zap.String("dialogue", id), zap.String("active", in.graph.ID))
		return ErrActive
	}
	g, err := in.src.Dialogue(id)
	if err != nil {
		in.log.Error("loading dialogue failed", zap.String("dialogue", id), zap.Error(err))
		return fmt.Errorf("load dialogue %q: %w", id, err)
	}
	if g.ID == "" {
		g.ID = id
	}
	lines, sec, err := entry(g, section)
	if err != nil {
		in.log.Error("dialogue rejected",
			zap.String("dialogue", id), zap.String("section", section), zap.Error(err))
		return fmt.Errorf("dialogue %q: %w", id, err)
	}

	in.graph = g
	in.section = sec
	in.lines = lines
	in.cursor = 0
	in.pending = nil
	in.stage = map[types.Position]string{}
	in.state = Typing
	if in.modes != nil {
		in.priorMode = in.modes.Current()
		in.modes.Change(types.ModeDialogue)
	}
	in.log.Info("dialogue started", zap.String("dialogue", g.ID), zap.String("section", sec))
	in.bus.Publish(bus.DialogueStarted{DialogueID: g.ID})

	// A handler of DialogueStarted may have ended us.
	if in.state == Idle || in.graph.ID != g.ID {
		return nil
	}
	if g.ChapterTitle != "" && sec == defaultSection(g) {
		in.state = ChapterTitle
		in.bus.Publish(bus.ChapterTitleRequested{Title: g.ChapterTitle})
		return nil
	}
	in.showLine()
	return nil
}

// End stops the running dialogue. It is a no-op when idle.
func (in *Interpreter) End() {
	if in.state == Idle {
		return
	}
	id := in.graph.ID
	in.state = Idle
	in.graph = types.DialogueGraph{}
	in.section = ""
	in.lines = nil
	in.cursor = 0
	in.pending = nil
	in.stage = map[types.Position]string{}
	if in.modes != nil {
		in.modes.Change(in.priorMode)
	}
	in.log.Info("dialogue ended", zap.String("dialogue", id))
	in.bus.Publish(bus.DialogueEnded{DialogueID: id})
}

// ChapterTitleFinished shows the first line after the title card.
func (in *Interpreter) ChapterTitleFinished() {
	if in.state != ChapterTitle {
		return
	}
	in.showLine()
}

// TypingFinished moves past a fully revealed line.
func (in *Interpreter) TypingFinished() {
	if in.state != Typing {
		return
	}
	line := in.lines[in.cursor]
	switch len(line.Choices) {
	case 0:
		in.state = AwaitingAdvance
	case 1:
		c := line.Choices[0]
		in.pending = &c
		in.state = AwaitingSingleChoiceConfirm
	default:
		in.state = AwaitingChoice
	}
	if line.HideCharactersAfter {
		in.stage = map[types.Position]string{}
		in.bus.Publish(bus.CharacterHideRequested{All: true})
	}
	if in.state == AwaitingChoice {
		in.bus.Publish(bus.ChoiceListRequested{Choices: append([]types.Choice(nil), line.Choices...)})
	}
}

// Advance handles the player's continue input.
func (in *Interpreter) Advance() {
	switch in.state {
	case Typing:
		in.bus.Publish(bus.TypingSkipRequested{})
	case AwaitingAdvance:
		in.cursor++
		in.showLine()
	case AwaitingSingleChoiceConfirm:
		c := *in.pending
		in.pending = nil
		in.resolve(c)
	}
}

// SelectChoice applies the choice at index of the current line.
func (in *Interpreter) SelectChoice(index int) {
	if in.state != AwaitingChoice {
		in.log.Debug("choice ignored", zap.Int("index", index), zap.Stringer("state", in.state))
		return
	}
	choices := in.lines[in.cursor].Choices
	if index < 0 || index >= len(choices) {
		in.log.Error("choice index out of range", zap.Int("index", index), zap.Int("choices", len(choices)))
		return
	}
	in.resolve(choices[index])
}

// resolve applies a choice's effects and follows its continuation.
// A goto takes precedence over a next dialogue.
func (in *Interpreter) resolve(c types.Choice) {
	if c.AffectionChange != 0 {
		if speaker := in.speaker(); speaker != "" {
			in.effects.AddAffection(speaker, c.AffectionChange)
		} else {
			in.log.Warn("affection change without speaker ignored",
				zap.String("dialogue", in.graph.ID), zap.Int("delta", c.AffectionChange))
		}
	}
	if c.FlagToSet != "" {
		in.effects.SetFlag(c.FlagToSet)
	}

	if c.Goto != "" {
		lines, ok := in.graph.Sections[c.Goto]
		if !ok {
			in.log.Error("goto target missing, ending dialogue",
				zap.String("dialogue", in.graph.ID), zap.String("section", c.Goto))
			in.End()
			return
		}
		in.section = c.Goto
		in.lines = lines
		in.cursor = 0
		in.showLine()
		return
	}

	next := c.NextDialogueID
	in.End()
	if next != "" {
		// Failures are logged by Start.
		_ = in.Start(next, "")
	}
}

// speaker returns the nearest non-empty speaker at or before the cursor
// in the current section.
func (in *Interpreter) speaker() string {
	for i := in.cursor; i >= 0; i-- {
		if s := in.lines[i].Speaker; s != "" {
			return s
		}
	}
	return ""
}

// showLine publishes the directives and text of the line under the
// cursor, or ends the dialogue when the section is exhausted.
func (in *Interpreter) showLine() {
	if in.cursor >= len(in.lines) {
		in.End()
		return
	}
	line := in.lines[in.cursor]
	in.state = Typing

	if line.Background != "" {
		in.bus.Publish(bus.BackgroundChangeRequested{BackgroundID: line.Background, Duration: fade(line.BackgroundFade)})
	}
	for _, p := range line.Characters {
		fadeIn := in.stage[p.Position] != p.CharacterID
		in.stage[p.Position] = p.CharacterID
		in.bus.Publish(bus.CharacterDisplayRequested{
			CharacterID: p.CharacterID,
			Emotion:     p.Emotion,
			Position:    p.Position,
			FadeIn:      fadeIn,
		})
	}

	pos, onStage := in.positionOf(line.Speaker)
	if onStage && line.Emotion != "" {
		in.bus.Publish(bus.CharacterDisplayRequested{CharacterID: line.Speaker, Emotion: line.Emotion, Position: pos})
	}
	if onStage {
		in.bus.Publish(bus.CharacterHighlightRequested{Position: pos})
	} else if len(in.stage) > 0 {
		in.bus.Publish(bus.CharacterHighlightRequested{None: true})
	}

	name := ""
	if line.Speaker != "" {
		name = line.Speaker
		if in.names != nil {
			name = in.names.DisplayName(line.Speaker)
		}
	}
	in.bus.Publish(bus.LineDisplayRequested{
		Speaker:     line.Speaker,
		SpeakerName: name,
		Text:        line.Text,
		HasChoices:  len(line.Choices) > 0,
		TextAlign:   line.TextAlign,
	})
}

func (in *Interpreter) positionOf(id string) (types.Position, bool) {
	if id == "" {
		return 0, false
	}
	for _, p := range []types.Position{types.Left, types.Center, types.Right} {
		if in.stage[p] == id {
			return p, true
		}
	}
	return 0, false
}

func fade(seconds float64) time.Duration {
	if seconds <= 0 {
		return bus.DefaultFade
	}
	return time.Duration(seconds * float64(time.Second))
}

func defaultSection(g types.DialogueGraph) string {
	if len(g.Sections) == 0 {
		return ""
	}
	if g.StartSection != "" {
		return g.StartSection
	}
	return DefaultSection
}

// entry resolves the lines a dialogue starts on.
func entry(g types.DialogueGraph, section string) ([]types.Line, string, error) {
	if len(g.Sections) > 0 {
		if section == "" {
			section = defaultSection(g)
		}
		lines, ok := g.Sections[section]
		if !ok {
			return nil, "", fmt.Errorf("%w: %q", ErrNoSection, section)
		}
		return lines, section, nil
	}
	if len(g.Lines) > 0 {
		if section != "" {
			return nil, "", fmt.Errorf("%w: %q (graph has no sections)", ErrNoSection, section)
		}
		return g.Lines, "", nil
	}
	return nil, "", ErrMalformed
}
