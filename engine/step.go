package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/nathoo/lovecore/engine/dialogue"
	"github.com/nathoo/lovecore/engine/parser"
	"github.com/nathoo/lovecore/types"
)

// Result is the text produced by one command.
type Result struct {
	Output []string
	Trace  []string // one line per bus message, for trace mode
}

// Begin starts a new game and returns the opening output.
func (s *Session) Begin() Result {
	n := s.narrate()
	if err := s.NewGame(); err != nil {
		s.log.Error("new game failed", zap.Error(err))
		n.say("The story could not start: %v", err)
	}
	n.settle()
	s.prompt(n)
	return n.take()
}

// Step processes one player command and returns its output. Completion
// signals for every line shown are published before Step returns.
func (s *Session) Step(input string) Result {
	n := s.narrate()
	intent := parser.Parse(input)
	s.log.Debug("step", zap.String("verb", intent.Verb), zap.String("object", intent.Object))

	s.dispatch(n, intent)
	n.settle()
	s.prompt(n)
	return n.take()
}

func (s *Session) narrate() *narrator {
	if s.narrator == nil {
		s.narrator = newNarrator(s)
	}
	return s.narrator
}

func (s *Session) dispatch(n *narrator, intent types.Intent) {
	switch intent.Verb {
	case parser.VerbAdvance:
		switch s.Dialogue.State() {
		case dialogue.Idle:
			n.say("Nothing to continue.")
		case dialogue.AwaitingChoice:
			n.say("Choose an option by number.")
		default:
			s.Advance()
		}

	case parser.VerbChoose:
		s.choose(n, intent.Object)

	case parser.VerbWait:
		s.report(n, s.Wait())

	case parser.VerbGo:
		if intent.Object == "" {
			n.say("Go where? Places: %s.", placeList())
			return
		}
		loc, err := types.ParseLocation(intent.Object)
		if err != nil {
			n.say("Unknown place %q. Places: %s.", intent.Object, placeList())
			return
		}
		if loc == s.World.Location() {
			n.say("You are already at the %s.", loc)
			return
		}
		s.report(n, s.Travel(loc))

	case parser.VerbDay:
		d, err := strconv.Atoi(intent.Object)
		if err != nil || d < 1 {
			n.say("Which day? Give a number from 1.")
			return
		}
		s.report(n, s.SkipToDay(d))

	case parser.VerbIdle:
		if s.Dialogue.IsActive() {
			s.report(n, ErrDialogueActive)
			return
		}
		if line, ok := s.IdleLine(); ok {
			n.say("%s", line)
		} else {
			n.say("Nothing much is happening here.")
		}

	case parser.VerbInvestigate:
		if s.Dialogue.IsActive() {
			s.report(n, ErrDialogueActive)
			return
		}
		if _, ok := s.Investigate(); !ok {
			n.say("You're too tired to investigate any more today.")
		}

	case parser.VerbPlay:
		err := s.PlayEpisode()
		if err != nil && !errors.Is(err, ErrDialogueActive) {
			n.say("%s is not available yet.", EpisodeLabel(s.NextEpisode()))
			return
		}
		s.report(n, err)

	case parser.VerbClaim:
		s.claim(n, intent.Object)

	case parser.VerbStatus:
		for _, line := range s.statusLines() {
			n.say("%s", line)
		}

	default:
		n.say("I don't understand that. Type /help for commands.")
	}
}

func (s *Session) choose(n *narrator, object string) {
	if s.Dialogue.State() != dialogue.AwaitingChoice {
		n.say("There is nothing to choose.")
		return
	}
	line, _ := s.Dialogue.CurrentLine()
	idx, ok := parser.Index(object)
	if !ok || idx >= len(line.Choices) {
		n.say("Choose a number from 1 to %d.", len(line.Choices))
		return
	}
	s.Choose(idx)
}

func (s *Session) claim(n *narrator, id string) {
	if id == "" {
		for i := 1; i <= s.opts.MaxEpisodes; i++ {
			ep := EpisodeID(i)
			if s.EpisodeCompleted(ep) && !s.State.IsFlagSet(ep+"_rewarded") {
				id = ep
				break
			}
		}
	}
	if id == "" || !s.ClaimEpisodeReward(id) {
		n.say("There is no reward to claim.")
	}
}

// report turns a session error into player-facing text.
func (s *Session) report(n *narrator, err error) {
	switch {
	case err == nil:
	case errors.Is(err, ErrDialogueActive):
		n.say("You're in the middle of a conversation.")
	default:
		n.say("%v", err)
	}
}

// prompt hints at what the interpreter is waiting for.
func (s *Session) prompt(n *narrator) {
	if s.Dialogue.State() != dialogue.AwaitingSingleChoiceConfirm {
		return
	}
	if line, ok := s.Dialogue.CurrentLine(); ok && len(line.Choices) == 1 {
		n.say("  > %s", line.Choices[0].Text)
	}
}

func (s *Session) statusLines() []string {
	st := s.Status()
	lines := []string{
		fmt.Sprintf("Day %d, %s, at the %s", st.Day, st.TimeOfDay, st.Location),
		fmt.Sprintf("Diamonds: %d  Clues: %d", st.Diamonds, st.Clues),
		fmt.Sprintf("Investigations left today: %d", st.InvestigationsLeft),
		fmt.Sprintf("Next: %s", EpisodeLabel(st.NextEpisode)),
	}
	for _, c := range st.Characters {
		lines = append(lines, fmt.Sprintf("%s: %d/%d (%s)", c.Name, c.Affection, c.Max, c.Tier))
	}
	return lines
}

func placeList() string {
	locs := types.Locations()
	names := make([]string, len(locs))
	for i, l := range locs {
		names[i] = l.String()
	}
	return strings.Join(names, ", ")
}
