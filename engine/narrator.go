package engine

import (
	"fmt"

	"github.com/nathoo/lovecore/engine/bus"
)

// narrator renders outbound messages as text for line-oriented shells.
// Text is shown at once, so the narrator owes the interpreter a completion
// signal for every title card and line; Step pays them after each command.
type narrator struct {
	s     *Session
	lines []string
	trace []string
	owed  []bus.Message
	subs  []bus.Subscription
}

func newNarrator(s *Session) *narrator {
	n := &narrator{s: s}
	b := s.Bus
	n.subs = []bus.Subscription{
		bus.On(b, func(m bus.ChapterTitleRequested) {
			n.say("")
			n.say("~ %s ~", m.Title)
			n.say("")
			n.owe(bus.ChapterTitleFinished{})
		}),
		bus.On(b, func(m bus.LineDisplayRequested) {
			n.say("%s", formatLine(m))
			n.owe(bus.TypingFinished{})
		}),
		bus.On(b, func(m bus.ChoiceListRequested) {
			for i, c := range m.Choices {
				n.say("  %d) %s", i+1, c.Text)
			}
		}),
		bus.On(b, func(m bus.AffectionChanged) {
			n.say("[%s %+d (%d/%d)]", s.Characters.DisplayName(m.CharacterID), m.Delta, m.New, s.State.MaxAffection(m.CharacterID))
		}),
		bus.On(b, func(m bus.AffectionTierChanged) {
			n.say("[%s: %s -> %s]", s.Characters.DisplayName(m.CharacterID), m.PreviousTier, m.NewTier)
		}),
		bus.On(b, func(m bus.CurrencyChanged) {
			n.say("[%+d %s (%d)]", m.Delta, m.Currency, m.New)
		}),
		bus.On(b, func(m bus.DayChanged) { n.say("[Day %d]", m.New) }),
		bus.On(b, func(m bus.TimeOfDayChanged) { n.say("[It is now %s.]", m.New) }),
		bus.On(b, func(m bus.LocationChanged) { n.say("[Location: %s]", m.New) }),
		bus.On(b, func(m bus.InvestigationCompleted) {
			n.say("You search the %s and find %d clue(s). %d investigation(s) left today.", m.Location, m.CluesRewarded, m.Remaining)
		}),
		bus.On(b, func(m bus.EpisodeCompleted) { n.say("[%s complete!]", m.Label) }),
	}
	for _, k := range bus.Kinds() {
		n.subs = append(n.subs, b.Subscribe(k, bus.HandlerFunc(n.record)))
	}
	return n
}

func formatLine(m bus.LineDisplayRequested) string {
	name := m.SpeakerName
	if name == "" {
		name = m.Speaker
	}
	if name == "" {
		return m.Text
	}
	return fmt.Sprintf("%s: %q", name, m.Text)
}

func (n *narrator) say(format string, args ...any) {
	n.lines = append(n.lines, fmt.Sprintf(format, args...))
}

func (n *narrator) owe(m bus.Message) {
	n.owed = append(n.owed, m)
}

func (n *narrator) record(m bus.Message) {
	n.trace = append(n.trace, fmt.Sprintf("[trace] %s %+v", m.Kind(), m))
}

// settle publishes owed completion signals until none remain. Paying one
// may show another line and owe another signal.
func (n *narrator) settle() {
	for len(n.owed) > 0 {
		m := n.owed[0]
		n.owed = n.owed[1:]
		n.s.Bus.Publish(m)
	}
}

// take returns and clears the accumulated output.
func (n *narrator) take() Result {
	r := Result{Output: n.lines, Trace: n.trace}
	n.lines = nil
	n.trace = nil
	return r
}

func (n *narrator) close() {
	for _, sub := range n.subs {
		n.s.Bus.Cancel(sub)
	}
	n.subs = nil
}
