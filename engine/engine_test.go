package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/lovecore/engine/bus"
	"github.com/nathoo/lovecore/engine/dialogue"
	"github.com/nathoo/lovecore/engine/save"
	"github.com/nathoo/lovecore/engine/state"
	"github.com/nathoo/lovecore/loader"
	"github.com/nathoo/lovecore/types"
)

func ptr[T any](v T) *T { return &v }

// testContent builds a small in-memory game: an opening, two episodes, a
// cafe event and two idle groups.
func testContent() (*loader.Content, loader.DialogueMap) {
	c := &loader.Content{
		Game: types.GameDef{Title: "Test Game", Opening: "opening", Location: types.Home},
		Characters: []types.CharacterDef{
			{ID: "aki", DisplayName: "Aki"},
		},
		Events: []types.StoryEvent{
			{
				ID:         "cafe_visit",
				DialogueID: "cafe",
				Priority:   1,
				Condition:  types.Condition{Location: ptr(types.Cafe)},
			},
		},
		Idle: []types.IdleGroup{
			{ID: "home", Priority: 1, Condition: types.Condition{Location: ptr(types.Home)}, Lines: []string{"a", "b", "c"}},
			{ID: "park", Priority: 1, Condition: types.Condition{Location: ptr(types.Park)}, Lines: []string{"only"}},
		},
	}
	d := loader.DialogueMap{
		"opening":   {Lines: []types.Line{{Text: "Hello."}}},
		"chapter01": {ChapterTitle: "Episode 01", Lines: []types.Line{{Speaker: "aki", Text: "Hi."}}},
		"chapter02": {Lines: []types.Line{{Text: "Two."}}},
		"cafe":      {Lines: []types.Line{{Text: "Coffee?"}}},
	}
	return c, d
}

func newSession(t *testing.T, c *loader.Content, d loader.DialogueMap, opts Options) *Session {
	t.Helper()
	if opts.Seed == 0 {
		opts.Seed = 1
	}
	s := New(Content{
		Game:       c.Game,
		Characters: c.Characters,
		Events:     c,
		Idle:       c,
		Dialogues:  d,
	}, opts, nil)
	t.Cleanup(s.Close)
	return s
}

// finish drives a single-line dialogue without choices to its end.
func finish(s *Session) {
	if s.Dialogue.State() == dialogue.ChapterTitle {
		s.TitleDone()
	}
	s.TypingDone()
	s.Advance()
}

func TestNew_AssignsSessionID(t *testing.T) {
	c, d := testContent()
	a := newSession(t, c, d, Options{})
	b := newSession(t, c, d, Options{})

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, types.ModeTitle, a.Modes.Current())
}

func TestNewGame_StartsOpening(t *testing.T) {
	c, d := testContent()
	s := newSession(t, c, d, Options{})

	require.NoError(t, s.NewGame())
	assert.True(t, s.Dialogue.IsActive())
	assert.Equal(t, "opening", s.Dialogue.DialogueID())
	assert.Equal(t, types.ModeDialogue, s.Modes.Current())

	finish(s)
	assert.False(t, s.Dialogue.IsActive())
	assert.Equal(t, types.ModePlaying, s.Modes.Current())

	require.NoError(t, s.NewGame())
	assert.Equal(t, "opening", s.Dialogue.DialogueID())
}

func TestNewGame_ResetsState(t *testing.T) {
	c, d := testContent()
	c.Game.Opening = ""
	s := newSession(t, c, d, Options{})

	require.NoError(t, s.NewGame())
	s.State.AddAffection("aki", 30)
	s.State.SetFlag("x")
	require.NoError(t, s.Wait())

	require.NoError(t, s.NewGame())
	assert.Equal(t, 0, s.State.GetAffection("aki"))
	assert.False(t, s.State.IsFlagSet("x"))
	assert.Equal(t, types.Morning, s.World.TimeOfDay())
	assert.Equal(t, types.Home, s.World.Location())
}

func TestSession_UndefinedCharacterGetsNoAffection(t *testing.T) {
	c, d := testContent()
	s := newSession(t, c, d, Options{})

	assert.Equal(t, 0, s.State.AddAffection("ghost", 10))
	assert.Equal(t, 0, s.State.GetAffection("ghost"))
	assert.Equal(t, 10, s.State.AddAffection("aki", 10))
}

func TestNewGame_RejectedDuringDialogue(t *testing.T) {
	c, d := testContent()
	s := newSession(t, c, d, Options{})
	require.NoError(t, s.NewGame())

	assert.ErrorIs(t, s.NewGame(), ErrDialogueActive)
	assert.ErrorIs(t, s.Wait(), ErrDialogueActive)
	assert.ErrorIs(t, s.Travel(types.Park), ErrDialogueActive)
	assert.ErrorIs(t, s.SkipToDay(3), ErrDialogueActive)
}

func TestTravel_TriggersEvent(t *testing.T) {
	c, d := testContent()
	c.Game.Opening = ""
	s := newSession(t, c, d, Options{})
	require.NoError(t, s.NewGame())

	require.NoError(t, s.Travel(types.Cafe))
	assert.True(t, s.Dialogue.IsActive())
	assert.Equal(t, "cafe", s.Dialogue.DialogueID())
	assert.True(t, s.World.IsEventTriggered("cafe_visit"))
}

func TestSkipToDay(t *testing.T) {
	c, d := testContent()
	c.Game.Opening = ""
	s := newSession(t, c, d, Options{})
	require.NoError(t, s.NewGame())

	require.NoError(t, s.SkipToDay(4))
	assert.Equal(t, 4, s.World.Day())
	assert.Error(t, s.SkipToDay(0))
}

func TestIdleLine(t *testing.T) {
	c, d := testContent()
	c.Game.Opening = ""
	s := newSession(t, c, d, Options{})
	require.NoError(t, s.NewGame())

	last := ""
	for i := 0; i < 30; i++ {
		line, ok := s.IdleLine()
		require.True(t, ok)
		assert.Contains(t, []string{"a", "b", "c"}, line)
		assert.NotEqual(t, last, line, "pick %d repeated", i)
		last = line
	}

	require.NoError(t, s.Travel(types.Park))
	for i := 0; i < 3; i++ {
		line, ok := s.IdleLine()
		require.True(t, ok)
		assert.Equal(t, "only", line)
	}

	require.NoError(t, s.Travel(types.Mall))
	_, ok := s.IdleLine()
	assert.False(t, ok)
}

func TestIdleLine_Deterministic(t *testing.T) {
	c, d := testContent()
	c.Game.Opening = ""
	a := newSession(t, c, d, Options{Seed: 99})
	b := newSession(t, c, d, Options{Seed: 99})
	require.NoError(t, a.NewGame())
	require.NoError(t, b.NewGame())

	for i := 0; i < 10; i++ {
		la, _ := a.IdleLine()
		lb, _ := b.IdleLine()
		assert.Equal(t, la, lb)
	}
}

func TestInvestigate_DailyLimit(t *testing.T) {
	c, d := testContent()
	c.Game.Opening = ""
	s := newSession(t, c, d, Options{DailyInvestigations: 2, ClueReward: 3})
	require.NoError(t, s.NewGame())

	var got []bus.InvestigationCompleted
	bus.On(s.Bus, func(m bus.InvestigationCompleted) { got = append(got, m) })

	for i := 0; i < 2; i++ {
		clues, ok := s.Investigate()
		require.True(t, ok)
		assert.Equal(t, 3, clues)
	}
	_, ok := s.Investigate()
	assert.False(t, ok)
	assert.Equal(t, 6, s.State.Currency(state.Clues))
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Remaining)
	assert.Equal(t, 0, got[1].Remaining)
	assert.Equal(t, types.Home, got[1].Location)

	for i := 0; i < types.TimesPerDay; i++ {
		require.NoError(t, s.Wait())
	}
	assert.Equal(t, 2, s.World.Day())
	assert.Equal(t, 2, s.InvestigationsLeft())
}

func TestInvestigate_DuringDialogue(t *testing.T) {
	c, d := testContent()
	s := newSession(t, c, d, Options{})
	require.NoError(t, s.NewGame())

	_, ok := s.Investigate()
	assert.False(t, ok)
	assert.Equal(t, DefaultDailyInvestigations, s.InvestigationsLeft())
}

func TestEpisodes(t *testing.T) {
	c, d := testContent()
	c.Game.Opening = ""
	s := newSession(t, c, d, Options{MaxEpisodes: 2, EpisodeReward: 7})
	require.NoError(t, s.NewGame())

	var done []bus.EpisodeCompleted
	bus.On(s.Bus, func(m bus.EpisodeCompleted) { done = append(done, m) })

	assert.Equal(t, "chapter01", s.NextEpisode())
	assert.False(t, s.ClaimEpisodeReward("chapter01"))

	require.NoError(t, s.PlayEpisode())
	assert.Equal(t, dialogue.ChapterTitle, s.Dialogue.State())
	assert.ErrorIs(t, s.PlayEpisode(), ErrDialogueActive)
	finish(s)

	require.Len(t, done, 1)
	assert.Equal(t, bus.EpisodeCompleted{DialogueID: "chapter01", Label: "Episode 01"}, done[0])
	assert.True(t, s.EpisodeCompleted("chapter01"))
	assert.Equal(t, "chapter02", s.NextEpisode())

	assert.True(t, s.ClaimEpisodeReward("chapter01"))
	assert.False(t, s.ClaimEpisodeReward("chapter01"))
	assert.Equal(t, 7, s.State.Currency(state.Diamonds))

	require.NoError(t, s.PlayEpisode())
	finish(s)
	assert.Equal(t, "chapter02", s.NextEpisode(), "last episode once all are done")
}

func TestEpisodeCompleted_IgnoresOtherDialogues(t *testing.T) {
	c, d := testContent()
	s := newSession(t, c, d, Options{})
	require.NoError(t, s.NewGame())
	finish(s)

	assert.False(t, s.State.IsFlagSet("opening_completed"))
}

func TestEpisodeLabel(t *testing.T) {
	tests := []struct {
		id    string
		label string
		n     int
		ok    bool
	}{
		{"chapter01", "Episode 01", 1, true},
		{"chapter12", "Episode 12", 12, true},
		{"chapter", "chapter", 0, false},
		{"chapter00", "chapter00", 0, false},
		{"chapterX", "chapterX", 0, false},
		{"prologue", "prologue", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := EpisodeLabel(tt.id); got != tt.label {
				t.Errorf("EpisodeLabel(%q) = %q, want %q", tt.id, got, tt.label)
			}
			n, ok := EpisodeNumber(tt.id)
			if n != tt.n || ok != tt.ok {
				t.Errorf("EpisodeNumber(%q) = %d, %v, want %d, %v", tt.id, n, ok, tt.n, tt.ok)
			}
		})
	}
	if got := EpisodeID(3); got != "chapter03" {
		t.Errorf("EpisodeID(3) = %q, want %q", got, "chapter03")
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	c, d := testContent()
	c.Game.Opening = ""
	now := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	slots := save.NewFileSlots(t.TempDir())
	s := newSession(t, c, d, Options{Slots: slots, Now: func() time.Time { return now }})
	ctx := context.Background()
	require.NoError(t, s.NewGame())

	var results []bus.Message
	bus.On(s.Bus, func(m bus.SaveCompleted) { results = append(results, m) })
	bus.On(s.Bus, func(m bus.LoadCompleted) { results = append(results, m) })

	s.State.AddAffection("aki", 25)
	s.State.AddCurrency(state.Diamonds, 4)
	s.State.SetFlag("met_aki")
	require.NoError(t, s.Wait())
	require.NoError(t, s.Travel(types.Park))
	s.Tick(90 * time.Second)
	s.IdleLine()

	require.NoError(t, s.Save(ctx, 2))
	assert.Equal(t, types.ModePlaying, s.Modes.Current())

	info, err := s.SlotInfo(ctx, 2)
	require.NoError(t, err)
	assert.False(t, info.Empty)
	assert.Equal(t, now, info.SavedAt)
	assert.Equal(t, types.Park, info.Location)
	assert.Equal(t, 90*time.Second, info.PlayTime)

	pos := s.RNG.Position()
	s.State.AddAffection("aki", 50)
	require.NoError(t, s.Travel(types.Home))
	s.IdleLine()

	require.NoError(t, s.Load(ctx, 2))
	assert.Equal(t, 25, s.State.GetAffection("aki"))
	assert.Equal(t, 4, s.State.Currency(state.Diamonds))
	assert.True(t, s.State.IsFlagSet("met_aki"))
	assert.Equal(t, types.Afternoon, s.World.TimeOfDay())
	assert.Equal(t, types.Park, s.World.Location())
	assert.Equal(t, 90*time.Second, s.Modes.PlayTime())
	assert.Equal(t, pos, s.RNG.Position())
	assert.Equal(t, types.ModePlaying, s.Modes.Current())

	assert.Equal(t, []bus.Message{
		bus.SaveCompleted{Slot: 2, Success: true},
		bus.LoadCompleted{Slot: 2, Success: true},
	}, results)

	list := s.ListSlots(ctx)
	require.Len(t, list, save.MaxSlots)
	assert.True(t, list[0].Empty)
	assert.False(t, list[1].Empty)

	require.NoError(t, s.DeleteSlot(ctx, 2))
	info, err = s.SlotInfo(ctx, 2)
	require.NoError(t, err)
	assert.True(t, info.Empty)
}

func TestLoad_DoesNotTriggerEvents(t *testing.T) {
	c, d := testContent()
	c.Game.Opening = ""
	slots := save.NewFileSlots(t.TempDir())
	s := newSession(t, c, d, Options{Slots: slots})
	ctx := context.Background()
	require.NoError(t, s.NewGame())

	sd := s.Snapshot()
	sd.World.Location = types.Cafe
	require.NoError(t, slots.Write(ctx, 1, sd))

	require.NoError(t, s.Load(ctx, 1))
	assert.Equal(t, types.Cafe, s.World.Location())
	assert.False(t, s.Dialogue.IsActive())
	assert.False(t, s.World.IsEventTriggered("cafe_visit"))
}

func TestLoad_EmptySlot(t *testing.T) {
	c, d := testContent()
	c.Game.Opening = ""
	s := newSession(t, c, d, Options{Slots: save.NewFileSlots(t.TempDir())})
	require.NoError(t, s.NewGame())

	var got []bus.LoadCompleted
	bus.On(s.Bus, func(m bus.LoadCompleted) { got = append(got, m) })

	err := s.Load(context.Background(), 3)
	assert.ErrorIs(t, err, save.ErrEmptySlot)
	assert.Equal(t, types.ModePlaying, s.Modes.Current())
	assert.Equal(t, []bus.LoadCompleted{{Slot: 3, Success: false}}, got)
}

func TestSave_Errors(t *testing.T) {
	c, d := testContent()
	ctx := context.Background()

	s := newSession(t, c, d, Options{})
	assert.ErrorIs(t, s.Save(ctx, 1), ErrNoSlots)
	assert.ErrorIs(t, s.Load(ctx, 1), ErrNoSlots)
	assert.Nil(t, s.ListSlots(ctx))

	s = newSession(t, c, d, Options{Slots: save.NewFileSlots(t.TempDir())})
	assert.ErrorIs(t, s.Save(ctx, 0), save.ErrInvalidSlot)
	assert.ErrorIs(t, s.Save(ctx, save.MaxSlots+1), save.ErrInvalidSlot)

	require.NoError(t, s.NewGame())
	assert.ErrorIs(t, s.Save(ctx, 1), ErrDialogueActive)
}

func TestStatus(t *testing.T) {
	c, d := testContent()
	c.Game.Opening = ""
	s := newSession(t, c, d, Options{})
	require.NoError(t, s.NewGame())
	s.State.AddAffection("aki", 45)
	s.State.AddCurrency(state.Diamonds, 2)

	st := s.Status()
	assert.Equal(t, 1, st.Day)
	assert.Equal(t, types.Morning, st.TimeOfDay)
	assert.Equal(t, types.Home, st.Location)
	assert.Equal(t, types.ModePlaying, st.Mode)
	assert.Equal(t, 2, st.Diamonds)
	assert.Equal(t, "chapter01", st.NextEpisode)
	require.Len(t, st.Characters, 1)
	assert.Equal(t, CharacterStatus{ID: "aki", Name: "Aki", Affection: 45, Max: 100, Tier: "Friend"}, st.Characters[0])
}

// TestSpringContent plays through the loader's sample content end to end.
func TestSpringContent(t *testing.T) {
	content, dialogues, err := loader.Load("../loader/testdata/spring", nil)
	require.NoError(t, err)

	s := New(Content{
		Game:       content.Game,
		Characters: content.Characters,
		Events:     content,
		Idle:       content,
		Dialogues:  dialogues,
	}, Options{Seed: 5}, nil)
	defer s.Close()

	var tiers []bus.AffectionTierChanged
	bus.On(s.Bus, func(m bus.AffectionTierChanged) { tiers = append(tiers, m) })

	// Prologue: two narration lines.
	require.NoError(t, s.NewGame())
	assert.Equal(t, "prologue", s.Dialogue.DialogueID())
	s.TypingDone()
	s.Advance()
	finish(s)
	require.False(t, s.Dialogue.IsActive())

	// Arriving at school on the first morning fires episode one.
	require.NoError(t, s.Travel(types.School))
	require.Equal(t, "chapter01", s.Dialogue.DialogueID())
	s.TitleDone()
	s.TypingDone()
	s.Advance()
	s.TypingDone()
	require.Equal(t, dialogue.AwaitingChoice, s.Dialogue.State())
	s.Choose(0)
	assert.Equal(t, "friendly", s.Dialogue.Section())
	s.TypingDone()
	s.Advance()
	require.False(t, s.Dialogue.IsActive())

	assert.Equal(t, 5, s.State.GetAffection("yuna"))
	assert.True(t, s.State.IsFlagSet("met_yuna"))
	assert.True(t, s.EpisodeCompleted("chapter01"))
	assert.True(t, s.ClaimEpisodeReward("chapter01"))
	assert.Equal(t, DefaultEpisodeReward, s.State.Currency(state.Diamonds))

	// Afternoon at the cafe: single choice confirmed by one advance.
	require.NoError(t, s.Wait())
	require.NoError(t, s.Travel(types.Cafe))
	require.Equal(t, "cafe_yuna", s.Dialogue.DialogueID())
	s.TypingDone()
	require.Equal(t, dialogue.AwaitingSingleChoiceConfirm, s.Dialogue.State())
	s.Advance()
	require.False(t, s.Dialogue.IsActive())
	assert.Equal(t, 8, s.State.GetAffection("yuna"))
	assert.Empty(t, tiers)

	// Evening lines outrank the home group.
	require.NoError(t, s.Wait())
	line, ok := s.IdleLine()
	require.True(t, ok)
	assert.Equal(t, "The streetlights flicker on.", line)
}
