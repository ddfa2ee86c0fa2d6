// Package engine provides the Session that owns one playthrough: it builds
// every runtime service in dependency order and layers episodes,
// investigations, idle lines and save slots on top of them.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nathoo/lovecore/engine/bus"
	"github.com/nathoo/lovecore/engine/characters"
	"github.com/nathoo/lovecore/engine/dialogue"
	"github.com/nathoo/lovecore/engine/events"
	"github.com/nathoo/lovecore/engine/mode"
	"github.com/nathoo/lovecore/engine/save"
	"github.com/nathoo/lovecore/engine/state"
	"github.com/nathoo/lovecore/engine/trigger"
	"github.com/nathoo/lovecore/engine/world"
	"github.com/nathoo/lovecore/types"
)

// EpisodePrefix marks dialogue ids that are episodes ("chapter01").
const EpisodePrefix = "chapter"

const investigationsUsed = "investigations_used"

// Defaults for Options fields left at zero.
const (
	DefaultMaxEpisodes         = 5
	DefaultDailyInvestigations = 3
	DefaultClueReward          = 1
	DefaultEpisodeReward       = 10
)

var (
	// ErrDialogueActive is returned by session operations that need the
	// interpreter to be idle.
	ErrDialogueActive = errors.New("a dialogue is active")
	// ErrNoSlots is returned by save operations when no slot store is set.
	ErrNoSlots = errors.New("no save slots configured")
)

// Content is the static data a session is built from.
type Content struct {
	Game       types.GameDef
	Characters []types.CharacterDef
	Events     events.EventSource
	Idle       events.IdleSource
	Dialogues  dialogue.GraphSource
}

// Options tunes a session. Zero values pick the defaults.
type Options struct {
	Slots               save.Slots
	Seed                int64 // 0 seeds from the clock
	MaxEpisodes         int
	DailyInvestigations int
	ClueReward          int
	EpisodeReward       int
	Now                 func() time.Time
}

func (o *Options) fillDefaults() {
	if o.MaxEpisodes <= 0 {
		o.MaxEpisodes = DefaultMaxEpisodes
	}
	if o.DailyInvestigations <= 0 {
		o.DailyInvestigations = DefaultDailyInvestigations
	}
	if o.ClueReward <= 0 {
		o.ClueReward = DefaultClueReward
	}
	if o.EpisodeReward <= 0 {
		o.EpisodeReward = DefaultEpisodeReward
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Seed == 0 {
		o.Seed = o.Now().UnixNano()
	}
}

// Session owns the services of one playthrough. All methods must be called
// from a single goroutine.
type Session struct {
	ID   string
	Game types.GameDef

	Bus        *bus.Bus
	State      *state.Store
	World      *world.Cursor
	Characters *characters.Registry
	Events     *events.Registry
	Idle       *events.IdleRegistry
	Modes      *mode.Manager
	Dialogue   *dialogue.Interpreter
	Trigger    *trigger.Coordinator
	RNG        *RNG

	opts     Options
	log      *zap.Logger
	lastIdle string
	subs     []bus.Subscription
	narrator *narrator
}

// New builds a session. Services are constructed leaves first: bus, state
// and world, characters, registries, mode, interpreter, coordinator.
func New(c Content, opts Options, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	opts.fillDefaults()
	id := uuid.NewString()
	log = log.With(zap.String("session", id))

	s := &Session{
		ID:   id,
		Game: c.Game,
		opts: opts,
		log:  log.Named("session"),
		RNG:  NewRNG(opts.Seed),
	}

	s.Bus = bus.New(log)
	s.State = state.New(s.Bus, log)
	s.World = world.New(s.Bus, log)
	s.World.SetStartLocation(c.Game.Location)

	s.Characters = characters.New(c.Characters, log)
	s.State.SetRoster(s.Characters)
	s.State.SetTierResolver(s.Characters)
	s.Characters.ApplyCaps(s.State)

	s.Events = events.NewRegistry(c.Events, log)
	s.Idle = events.NewIdleRegistry(c.Idle, log)

	s.Modes = mode.New(s.Bus, log)
	s.Dialogue = dialogue.New(s.Bus, c.Dialogues, s.State, s.Modes, log)
	s.Dialogue.SetNames(s.Characters)
	s.Trigger = trigger.New(s.Bus, s.Events, s.State, s.World, s.Dialogue, log)

	s.subs = []bus.Subscription{
		bus.On(s.Bus, func(m bus.DialogueEnded) { s.dialogueEnded(m.DialogueID) }),
		bus.On(s.Bus, func(bus.DayChanged) { s.State.SetCounter(investigationsUsed, 0) }),
	}

	s.log.Info("session created",
		zap.String("game", c.Game.Title),
		zap.Int64("seed", opts.Seed),
		zap.Int("characters", len(s.Characters.IDs())),
	)
	return s
}

// Close detaches every service from the bus.
func (s *Session) Close() {
	for _, sub := range s.subs {
		s.Bus.Cancel(sub)
	}
	s.subs = nil
	if s.narrator != nil {
		s.narrator.close()
		s.narrator = nil
	}
	s.Trigger.Close()
	s.Dialogue.Close()
}

// NewGame resets all mutable state, enters Playing and starts the opening
// dialogue. Without an opening the coordinator gets one chance to fire an
// event for the start position.
func (s *Session) NewGame() error {
	if s.Dialogue.IsActive() {
		return ErrDialogueActive
	}
	s.State.Reset()
	s.World.Reset()
	s.Modes.SetPlayTime(0)
	s.lastIdle = ""
	s.Modes.Change(types.ModePlaying)

	s.log.Info("new game")
	if s.Game.Opening == "" {
		s.Trigger.Check()
		return nil
	}
	if err := s.Dialogue.Start(s.Game.Opening, ""); err != nil {
		return fmt.Errorf("opening dialogue: %w", err)
	}
	return nil
}

// Tick adds wall-clock time to the play timer.
func (s *Session) Tick(d time.Duration) {
	s.Modes.AddPlayTime(d)
}

// --- Presentation signals ---

// Advance publishes an advance request.
func (s *Session) Advance() { s.Bus.Publish(bus.AdvanceRequested{}) }

// Choose publishes a choice selection.
func (s *Session) Choose(index int) { s.Bus.Publish(bus.ChoiceSelected{Index: index}) }

// TypingDone reports that the current line is fully revealed.
func (s *Session) TypingDone() { s.Bus.Publish(bus.TypingFinished{}) }

// TitleDone reports that the chapter title card has finished.
func (s *Session) TitleDone() { s.Bus.Publish(bus.ChapterTitleFinished{}) }

// --- World movement ---

// Wait advances the time of day.
func (s *Session) Wait() error {
	if s.Dialogue.IsActive() {
		return ErrDialogueActive
	}
	s.World.AdvanceTime()
	return nil
}

// Travel moves to l.
func (s *Session) Travel(l types.Location) error {
	if s.Dialogue.IsActive() {
		return ErrDialogueActive
	}
	s.World.SetLocation(l)
	return nil
}

// SkipToDay jumps the calendar to day d.
func (s *Session) SkipToDay(d int) error {
	if s.Dialogue.IsActive() {
		return ErrDialogueActive
	}
	if !s.World.SetDay(d) {
		return fmt.Errorf("invalid day %d", d)
	}
	return nil
}

// --- Idle lines ---

// IdleLine picks one of the currently available idle lines, never the same
// line twice in a row when there is a choice.
func (s *Session) IdleLine() (string, bool) {
	if s.Dialogue.IsActive() {
		return "", false
	}
	lines := s.Idle.GetAvailableLines(s.State, s.World)
	if len(lines) == 0 {
		return "", false
	}
	line := s.RNG.Pick(lines, s.lastIdle)
	s.lastIdle = line
	return line, true
}

// --- Investigations ---

// InvestigationsLeft is the number of investigations still allowed today.
func (s *Session) InvestigationsLeft() int {
	left := s.opts.DailyInvestigations - s.State.Counter(investigationsUsed)
	if left < 0 {
		return 0
	}
	return left
}

// Investigate searches the current location for clues. It fails once the
// daily allowance is used up or while a dialogue runs.
func (s *Session) Investigate() (int, bool) {
	if s.Dialogue.IsActive() || s.InvestigationsLeft() == 0 {
		return 0, false
	}
	s.State.IncCounter(investigationsUsed, 1)
	reward := s.opts.ClueReward
	s.State.AddCurrency(state.Clues, reward)
	s.Bus.Publish(bus.InvestigationCompleted{
		Location:      s.World.Location(),
		CluesRewarded: reward,
		Remaining:     s.InvestigationsLeft(),
	})
	return reward, true
}

// --- Episodes ---

// EpisodeID returns the dialogue id of episode n.
func EpisodeID(n int) string {
	return fmt.Sprintf("%s%02d", EpisodePrefix, n)
}

// EpisodeNumber parses an episode dialogue id.
func EpisodeNumber(id string) (int, bool) {
	rest, ok := strings.CutPrefix(id, EpisodePrefix)
	if !ok || rest == "" {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// EpisodeLabel returns the display label of an episode ("Episode 01").
// Ids that are not episodes are returned unchanged.
func EpisodeLabel(id string) string {
	n, ok := EpisodeNumber(id)
	if !ok {
		return id
	}
	return fmt.Sprintf("Episode %02d", n)
}

// EpisodeCompleted reports whether the episode dialogue has been finished.
func (s *Session) EpisodeCompleted(id string) bool {
	return s.State.IsFlagSet(id + "_completed")
}

// NextEpisode returns the first unfinished episode, or the last episode
// when all are finished.
func (s *Session) NextEpisode() string {
	for n := 1; n <= s.opts.MaxEpisodes; n++ {
		id := EpisodeID(n)
		if !s.EpisodeCompleted(id) {
			return id
		}
	}
	return EpisodeID(s.opts.MaxEpisodes)
}

// PlayEpisode starts the next episode.
func (s *Session) PlayEpisode() error {
	if s.Dialogue.IsActive() {
		return ErrDialogueActive
	}
	return s.Dialogue.Start(s.NextEpisode(), "")
}

// ClaimEpisodeReward pays the diamond reward for a finished episode once.
func (s *Session) ClaimEpisodeReward(id string) bool {
	if !s.EpisodeCompleted(id) {
		return false
	}
	rewarded := id + "_rewarded"
	if s.State.IsFlagSet(rewarded) {
		return false
	}
	s.State.AddCurrency(state.Diamonds, s.opts.EpisodeReward)
	s.State.SetFlag(rewarded)
	s.log.Info("episode reward claimed", zap.String("episode", id), zap.Int("diamonds", s.opts.EpisodeReward))
	return true
}

func (s *Session) dialogueEnded(id string) {
	if _, ok := EpisodeNumber(id); !ok {
		return
	}
	s.State.SetFlag(id + "_completed")
	s.Bus.Publish(bus.EpisodeCompleted{DialogueID: id, Label: EpisodeLabel(id)})
}

// --- Save slots ---

// Snapshot captures the session as a save record.
func (s *Session) Snapshot() *save.SaveData {
	return &save.SaveData{
		Version:   save.FormatVersion,
		Game:      s.Game.Title,
		SessionID: s.ID,
		SavedAt:   s.opts.Now().UTC(),
		PlayTime:  s.Modes.PlayTime(),
		Mode:      s.Modes.Current(),
		RNGSeed:   s.RNG.Seed(),
		RNGPos:    s.RNG.Position(),
		State:     s.State.Export(),
		World:     s.World.Export(),
	}
}

// Restore replaces the session state with sd. Nothing is published and the
// coordinator stays quiet while state is swapped.
func (s *Session) Restore(sd *save.SaveData) {
	s.Trigger.SetEnabled(false)
	defer s.Trigger.SetEnabled(true)

	if sd.Game != "" && sd.Game != s.Game.Title {
		s.log.Warn("save is from another game", zap.String("save_game", sd.Game))
	}
	s.State.Import(sd.State)
	s.World.Import(sd.World)
	s.Modes.SetPlayTime(sd.PlayTime)
	s.RNG = RestoreRNG(sd.RNGSeed, sd.RNGPos)
	s.lastIdle = ""
}

// Save writes the session to a slot.
func (s *Session) Save(ctx context.Context, slot int) error {
	if err := s.checkSlots(slot); err != nil {
		return err
	}
	if s.Dialogue.IsActive() {
		return ErrDialogueActive
	}
	sd := s.Snapshot()
	prev := s.Modes.Current()
	s.Modes.Change(types.ModeSaving)
	err := s.opts.Slots.Write(ctx, slot, sd)
	s.Modes.Change(prev)

	s.Bus.Publish(bus.SaveCompleted{Slot: slot, Success: err == nil})
	if err != nil {
		s.log.Error("save failed", zap.Int("slot", slot), zap.Error(err))
		return fmt.Errorf("save slot %d: %w", slot, err)
	}
	s.log.Info("saved", zap.Int("slot", slot))
	return nil
}

// Load restores the session from a slot and enters Playing.
func (s *Session) Load(ctx context.Context, slot int) error {
	if err := s.checkSlots(slot); err != nil {
		return err
	}
	if s.Dialogue.IsActive() {
		return ErrDialogueActive
	}
	prev := s.Modes.Current()
	s.Modes.Change(types.ModeLoading)
	sd, err := s.opts.Slots.Read(ctx, slot)
	if err != nil {
		s.Modes.Change(prev)
		s.Bus.Publish(bus.LoadCompleted{Slot: slot, Success: false})
		s.log.Warn("load failed", zap.Int("slot", slot), zap.Error(err))
		return fmt.Errorf("load slot %d: %w", slot, err)
	}
	s.Restore(sd)
	s.Modes.Change(types.ModePlaying)
	s.Bus.Publish(bus.LoadCompleted{Slot: slot, Success: true})
	s.log.Info("loaded", zap.Int("slot", slot), zap.Int("day", sd.World.Day))
	return nil
}

// SlotInfo summarizes one slot.
func (s *Session) SlotInfo(ctx context.Context, slot int) (save.SlotInfo, error) {
	if err := s.checkSlots(slot); err != nil {
		return save.SlotInfo{}, err
	}
	return save.Info(ctx, s.opts.Slots, slot)
}

// ListSlots summarizes every slot.
func (s *Session) ListSlots(ctx context.Context) []save.SlotInfo {
	if s.opts.Slots == nil {
		return nil
	}
	return save.List(ctx, s.opts.Slots)
}

// DeleteSlot empties a slot.
func (s *Session) DeleteSlot(ctx context.Context, slot int) error {
	if err := s.checkSlots(slot); err != nil {
		return err
	}
	return s.opts.Slots.Delete(ctx, slot)
}

func (s *Session) checkSlots(slot int) error {
	if s.opts.Slots == nil {
		return ErrNoSlots
	}
	return save.CheckSlot(slot)
}

// --- Status ---

// CharacterStatus is one row of the relationship summary.
type CharacterStatus struct {
	ID        string
	Name      string
	Affection int
	Max       int
	Tier      string
}

// Status is a read-only summary for the shells.
type Status struct {
	Day                int
	TimeOfDay          types.TimeOfDay
	Location           types.Location
	Mode               types.Mode
	PlayTime           time.Duration
	Diamonds           int
	Clues              int
	InvestigationsLeft int
	NextEpisode        string
	Characters         []CharacterStatus
}

// Status reports the current session state.
func (s *Session) Status() Status {
	st := Status{
		Day:                s.World.Day(),
		TimeOfDay:          s.World.TimeOfDay(),
		Location:           s.World.Location(),
		Mode:               s.Modes.Current(),
		PlayTime:           s.Modes.PlayTime(),
		Diamonds:           s.State.Currency(state.Diamonds),
		Clues:              s.State.Currency(state.Clues),
		InvestigationsLeft: s.InvestigationsLeft(),
		NextEpisode:        s.NextEpisode(),
	}
	for _, id := range s.Characters.IDs() {
		st.Characters = append(st.Characters, CharacterStatus{
			ID:        id,
			Name:      s.Characters.DisplayName(id),
			Affection: s.State.GetAffection(id),
			Max:       s.State.MaxAffection(id),
			Tier:      s.State.Tier(id),
		})
	}
	return st
}
