package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/nathoo/lovecore/engine"
	"github.com/nathoo/lovecore/engine/save"
	"github.com/nathoo/lovecore/loader"
	"github.com/nathoo/lovecore/types"
)

func ptr[T any](v T) *T { return &v }

// testSession returns a small game for CLI testing.
func testSession(t *testing.T, slots save.Slots) *engine.Session {
	t.Helper()
	content := &loader.Content{
		Game: types.GameDef{
			Title:    "Test Game",
			Author:   "Test",
			Version:  "1.0",
			Opening:  "intro",
			Location: types.Home,
		},
		Characters: []types.CharacterDef{{ID: "rin", DisplayName: "Rin"}},
		Events: []types.StoryEvent{{
			ID:         "park_walk",
			DialogueID: "walk",
			Condition:  types.Condition{Location: ptr(types.Park)},
		}},
		Idle: []types.IdleGroup{{ID: "home", Lines: []string{"The kettle hums."}}},
	}
	dialogues := loader.DialogueMap{
		"intro": {Lines: []types.Line{{Text: "Welcome to the test."}}},
		"walk": {Lines: []types.Line{{
			Speaker: "rin",
			Text:    "Nice day for a walk.",
			Choices: []types.Choice{
				{Text: "It is!", AffectionChange: 5},
				{Text: "Too sunny."},
			},
		}}},
	}
	s := engine.New(engine.Content{
		Game:       content.Game,
		Characters: content.Characters,
		Events:     content,
		Idle:       content,
		Dialogues:  dialogues,
	}, engine.Options{Seed: 1, Slots: slots}, nil)
	t.Cleanup(s.Close)
	return s
}

func newTestCLI(t *testing.T, input string) (*CLI, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	c := &CLI{
		Session: testSession(t, save.NewFileSlots(t.TempDir())),
		In:      strings.NewReader(input),
		Out:     &out,
	}
	return c, &out
}

func TestCLI_TitleAndOpening(t *testing.T) {
	c, out := newTestCLI(t, "/quit\n")
	c.Run(context.Background())

	output := out.String()
	if !strings.Contains(output, "Test Game v1.0 by Test") {
		t.Error("expected title header in output")
	}
	if !strings.Contains(output, "Welcome to the test.") {
		t.Error("expected opening line in output")
	}
}

func TestCLI_DialogueAndChoice(t *testing.T) {
	c, out := newTestCLI(t, "\npark\n1\n\n/quit\n")
	c.Run(context.Background())

	output := out.String()
	for _, want := range []string{
		"[Location: park]",
		`Rin: "Nice day for a walk."`,
		"  1) It is!",
		"  2) Too sunny.",
		"[Rin +5 (5/100)]",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
	if got := c.Session.State.GetAffection("rin"); got != 5 {
		t.Errorf("affection = %d, want 5", got)
	}
	if c.Session.Dialogue.IsActive() {
		t.Error("dialogue should have ended")
	}
}

func TestCLI_HelpCommand(t *testing.T) {
	c, out := newTestCLI(t, "/help\nhelp\n/quit\n")
	c.Run(context.Background())

	output := out.String()
	for _, want := range []string{"/save", "/load", "/slots", "/quit", "investigate"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in help output", want)
		}
	}
	if strings.Count(output, "Free time:") != 2 {
		t.Error("expected help from both /help and help")
	}
}

func TestCLI_SaveAndLoad(t *testing.T) {
	slots := save.NewFileSlots(t.TempDir())

	// Play a bit and save.
	var out bytes.Buffer
	c := &CLI{
		Session: testSession(t, slots),
		In:      strings.NewReader("\nwait\nlibrary\n/save 2\n/quit\n"),
		Out:     &out,
	}
	c.Run(context.Background())

	if !strings.Contains(out.String(), "Game saved to slot 2.") {
		t.Errorf("expected save confirmation:\n%s", out.String())
	}

	// Start fresh and load.
	var out2 bytes.Buffer
	c2 := &CLI{
		Session: testSession(t, slots),
		In:      strings.NewReader("\n/slots\n/load 2\nstatus\n/quit\n"),
		Out:     &out2,
	}
	c2.Run(context.Background())

	output := out2.String()
	if !strings.Contains(output, "[Slot 1: empty]") {
		t.Error("expected empty slot 1 in listing")
	}
	if !strings.Contains(output, "[Slot 2: day 1, afternoon, library") {
		t.Errorf("expected slot 2 summary in listing:\n%s", output)
	}
	if !strings.Contains(output, "Game loaded from slot 2 (day 1, afternoon, library).") {
		t.Errorf("expected load confirmation:\n%s", output)
	}
	if !strings.Contains(output, "Day 1, afternoon, at the library") {
		t.Error("expected restored status after loading save")
	}
}

func TestCLI_SaveDuringDialogue(t *testing.T) {
	c, out := newTestCLI(t, "/save\n/quit\n")
	c.Run(context.Background())

	if !strings.Contains(out.String(), "Save failed: a dialogue is active") {
		t.Errorf("expected save refusal:\n%s", out.String())
	}
}

func TestCLI_SlotErrors(t *testing.T) {
	c, out := newTestCLI(t, "\n/save 9\n/load x\n/load 3\n/delete\n/delete 1\n/quit\n")
	c.Run(context.Background())

	output := out.String()
	for _, want := range []string{
		"Save failed: invalid save slot",
		`Load failed: invalid save slot: "x"`,
		"Load failed: load slot 3: save slot is empty",
		"Usage: /delete <slot>",
		"Slot 1 deleted.",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestCLI_SavingDisabled(t *testing.T) {
	var out bytes.Buffer
	c := &CLI{
		Session: testSession(t, nil),
		In:      strings.NewReader("/slots\n/quit\n"),
		Out:     &out,
	}
	c.Run(context.Background())

	if !strings.Contains(out.String(), "Saving is disabled.") {
		t.Error("expected saving disabled message")
	}
}

func TestCLI_UnknownMetaCommand(t *testing.T) {
	c, out := newTestCLI(t, "/bogus\n/quit\n")
	c.Run(context.Background())

	if !strings.Contains(out.String(), "Unknown command") {
		t.Error("expected unknown command message")
	}
}

func TestCLI_TraceToggle(t *testing.T) {
	c, out := newTestCLI(t, "/trace\n\n/trace\n/quit\n")
	c.Run(context.Background())

	output := out.String()
	if !strings.Contains(output, "Trace output enabled") {
		t.Error("expected trace enabled message")
	}
	if !strings.Contains(output, "[trace] dialogue_ended") {
		t.Errorf("expected trace lines while enabled:\n%s", output)
	}
	if !strings.Contains(output, "Trace output disabled") {
		t.Error("expected trace disabled message")
	}
}

func TestCLI_StateCommand(t *testing.T) {
	c, out := newTestCLI(t, "/state\n/quit\n")
	c.Run(context.Background())

	output := out.String()
	if !strings.Contains(output, "Location: home") {
		t.Error("expected location in state output")
	}
	if !strings.Contains(output, "[Mode: dialogue]") {
		t.Error("expected mode in state output")
	}
	if !strings.Contains(output, "[Session: "+c.Session.ID+"]") {
		t.Error("expected session id in state output")
	}
}

func TestCLI_EmptyInputAdvances(t *testing.T) {
	c, out := newTestCLI(t, "\n\n/quit\n")
	c.Run(context.Background())

	if c.Session.Dialogue.IsActive() {
		t.Error("empty line should have advanced past the opening")
	}
	if !strings.Contains(out.String(), "Nothing to continue.") {
		t.Error("expected second empty line to report nothing to continue")
	}
}

func TestCLI_CommentsSkipped(t *testing.T) {
	c, out := newTestCLI(t, "# a comment\n/quit\n")
	c.EchoInput = true
	c.Run(context.Background())

	if strings.Contains(out.String(), "a comment") {
		t.Error("comment lines should not be echoed or run")
	}
}

func TestCLI_Again_RepeatsLastCommand(t *testing.T) {
	c, out := newTestCLI(t, "\nlook around\nagain\n/quit\n")
	c.Run(context.Background())

	count := strings.Count(out.String(), "The kettle hums.")
	if count != 2 {
		t.Errorf("expected idle line twice (look + again), got %d", count)
	}
}

func TestCLI_G_RepeatsLastCommand(t *testing.T) {
	c, out := newTestCLI(t, "\ninvestigate\ng\n/quit\n")
	c.Run(context.Background())

	count := strings.Count(out.String(), "You search the home")
	if count != 2 {
		t.Errorf("expected two investigations, got %d", count)
	}
}

func TestCLI_Again_NothingToRepeat(t *testing.T) {
	c, out := newTestCLI(t, "again\n/quit\n")
	c.Run(context.Background())

	if !strings.Contains(out.String(), "Nothing to repeat") {
		t.Error("expected 'Nothing to repeat' when no prior command")
	}
}

func TestCLI_CancelledContext(t *testing.T) {
	c, out := newTestCLI(t, "status\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.Run(ctx)

	if strings.Contains(out.String(), "Investigations left today") {
		t.Error("cancelled run should not process input")
	}
}
