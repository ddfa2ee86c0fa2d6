// Package cli provides terminal I/O, output formatting, and meta-command
// dispatch for the lovecore runtime.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nathoo/lovecore/engine"
	"github.com/nathoo/lovecore/engine/save"
)

// CLI handles terminal interaction with the player.
type CLI struct {
	Session   *engine.Session
	In        io.Reader
	Out       io.Writer
	Trace     bool
	EchoInput bool   // echo each input line after the prompt (for script playback)
	Now       func() time.Time
	lastCmd   string // for "again"/"g" repeat
}

// New creates a CLI wired to the given session.
func New(s *engine.Session) *CLI {
	return &CLI{
		Session: s,
		In:      os.Stdin,
		Out:     os.Stdout,
		Now:     time.Now,
	}
}

// Run starts the game loop. It shows the title, starts a new game, then
// loops: prompt → input → dispatch → output. An empty line continues the
// current dialogue.
func (c *CLI) Run(ctx context.Context) {
	g := c.Session.Game
	header := g.Title
	if g.Version != "" {
		header += " v" + g.Version
	}
	if g.Author != "" {
		header += " by " + g.Author
	}
	c.printLine(header)
	c.printLine("")

	c.printResult(c.Session.Begin())

	now := c.Now
	if now == nil {
		now = time.Now
	}
	last := now()

	scanner := bufio.NewScanner(c.In)
	for {
		if ctx.Err() != nil {
			return
		}
		c.print("> ")
		if !scanner.Scan() {
			break
		}
		t := now()
		c.Session.Tick(t.Sub(last))
		last = t

		input := strings.TrimSpace(scanner.Text())
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		// Meta-commands start with '/'.
		if strings.HasPrefix(input, "/") {
			if c.handleMeta(ctx, input) {
				return // /quit
			}
			continue
		}

		// "again" / "g" repeats the last game command.
		lower := strings.ToLower(input)
		if lower == "again" || lower == "g" {
			if c.lastCmd == "" {
				c.printLine("Nothing to repeat.")
				continue
			}
			input = c.lastCmd
		} else if input != "" {
			c.lastCmd = input
		}

		if lower == "help" {
			c.cmdHelp()
			continue
		}

		c.printResult(c.Session.Step(input))
	}
}

// handleMeta dispatches meta-commands. Returns true if the game should exit.
func (c *CLI) handleMeta(ctx context.Context, input string) bool {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		c.printSystem("Goodbye.")
		return true

	case "/save":
		c.cmdSave(ctx, arg)

	case "/load":
		c.cmdLoad(ctx, arg)

	case "/slots":
		c.cmdSlots(ctx)

	case "/delete":
		c.cmdDelete(ctx, arg)

	case "/help":
		c.cmdHelp()

	case "/state":
		c.cmdState()

	case "/trace":
		c.Trace = !c.Trace
		if c.Trace {
			c.printSystem("Trace output enabled.")
		} else {
			c.printSystem("Trace output disabled.")
		}

	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}

	return false
}

// parseSlot reads a slot argument, defaulting to slot 1.
func parseSlot(arg string) (int, error) {
	if arg == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", save.ErrInvalidSlot, arg)
	}
	return n, save.CheckSlot(n)
}

func (c *CLI) cmdSave(ctx context.Context, arg string) {
	slot, err := parseSlot(arg)
	if err == nil {
		err = c.Session.Save(ctx, slot)
	}
	if err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}
	c.printSystem(fmt.Sprintf("Game saved to slot %d.", slot))
}

func (c *CLI) cmdLoad(ctx context.Context, arg string) {
	slot, err := parseSlot(arg)
	if err == nil {
		err = c.Session.Load(ctx, slot)
	}
	if err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}
	st := c.Session.Status()
	c.printSystem(fmt.Sprintf("Game loaded from slot %d (day %d, %s, %s).", slot, st.Day, st.TimeOfDay, st.Location))
}

func (c *CLI) cmdSlots(ctx context.Context) {
	slots := c.Session.ListSlots(ctx)
	if slots == nil {
		c.printSystem("Saving is disabled.")
		return
	}
	for _, info := range slots {
		c.printSystem(FormatSlot(info))
	}
}

func (c *CLI) cmdDelete(ctx context.Context, arg string) {
	if arg == "" {
		c.printSystem("Usage: /delete <slot>")
		return
	}
	slot, err := parseSlot(arg)
	if err == nil {
		err = c.Session.DeleteSlot(ctx, slot)
	}
	if err != nil {
		c.printSystem(fmt.Sprintf("Delete failed: %v", err))
		return
	}
	c.printSystem(fmt.Sprintf("Slot %d deleted.", slot))
}

// FormatSlot renders one save slot for menus.
func FormatSlot(info save.SlotInfo) string {
	if info.Empty {
		return fmt.Sprintf("Slot %d: empty", info.Slot)
	}
	return fmt.Sprintf("Slot %d: day %d, %s, %s (played %s, saved %s)",
		info.Slot, info.Day, info.TimeOfDay, info.Location,
		info.PlayTime.Round(time.Second), info.SavedAt.Local().Format("2006-01-02 15:04"))
}

// HelpLines is the command reference shared by the shells.
var HelpLines = []string{
	"System:",
	"  /save [slot]   — Save game (slots 1-5, default 1)",
	"  /load [slot]   — Load game",
	"  /slots         — List save slots",
	"  /delete <slot> — Empty a save slot",
	"  /quit          — Exit game",
	"  /help          — Show this help",
	"  /state         — Debug: dump current state",
	"  /trace         — Toggle debug trace output",
	"",
	"Story:",
	"  (enter)               — Continue the conversation",
	"  <number>              — Pick a choice",
	"  play (episode)        — Start the next episode",
	"  claim [episode]       — Collect an episode reward",
	"",
	"Free time:",
	"  go <place> or <place> — Travel (home, school, library, cafe, park, mall)",
	"  wait (z)              — Let time pass",
	"  day <n>               — Skip ahead to day n",
	"  look around (talk)    — See what's going on",
	"  investigate (search)  — Look for clues",
	"  status (st)           — Day, currencies, relationships",
	"  again (g)             — Repeat your last command",
}

func (c *CLI) cmdHelp() {
	for _, line := range HelpLines {
		c.printLine(line)
	}
}

// StateLines dumps the session state for /state.
func StateLines(s *engine.Session) []string {
	st := s.Status()
	out := []string{
		fmt.Sprintf("Session: %s", s.ID),
		fmt.Sprintf("Mode: %s", st.Mode),
		fmt.Sprintf("Day: %d  Time: %s  Location: %s", st.Day, st.TimeOfDay, st.Location),
		fmt.Sprintf("Dialogue: %s", s.Dialogue.State()),
		fmt.Sprintf("Play time: %s", st.PlayTime.Round(time.Second)),
	}
	snap := s.State.Export()
	if len(snap.Affection) > 0 {
		out = append(out, fmt.Sprintf("Affection: %v", snap.Affection))
	}
	if len(snap.Currency) > 0 {
		out = append(out, fmt.Sprintf("Currency: %v", snap.Currency))
	}
	if len(snap.Flags) > 0 {
		out = append(out, fmt.Sprintf("Flags: %v", snap.Flags))
	}
	if len(snap.Counters) > 0 {
		out = append(out, fmt.Sprintf("Counters: %v", snap.Counters))
	}
	if ev := s.World.TriggeredEvents(); len(ev) > 0 {
		out = append(out, fmt.Sprintf("Triggered: %v", ev))
	}
	return out
}

func (c *CLI) cmdState() {
	for _, line := range StateLines(c.Session) {
		c.printSystem(line)
	}
}

func (c *CLI) printResult(result engine.Result) {
	for _, line := range result.Output {
		c.printLine(line)
	}
	if c.Trace {
		for _, line := range result.Trace {
			c.printLine(line)
		}
	}
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
