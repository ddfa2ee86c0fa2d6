package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/lovecore/cli"
	"github.com/nathoo/lovecore/engine"
	"github.com/nathoo/lovecore/engine/dialogue"
	"github.com/nathoo/lovecore/engine/save"
)

// entry is one transcript line, kept unstyled so it can be re-wrapped on
// resize.
type entry struct {
	text   string
	kind   lineKind
	echo   bool // player input
	system bool // meta-command output
}

// Model is the Bubble Tea model for the lovecore TUI.
type Model struct {
	session *engine.Session
	ctx     context.Context

	transcript []entry
	view       viewport.Model
	prompt     textinput.Model
	history    *History
	keys       keyMap

	width, height int
	ready         bool
	trace         bool
	quitting      bool

	lastCmd  string
	lastTick time.Time
	now      func() time.Time
}

// outputMsg carries session output into the Update loop.
type outputMsg struct {
	echo   string // submitted input, empty for the opening
	lines  []string
	system bool
}

type keyMap struct {
	Quit    key.Binding
	Submit  key.Binding
	Prev    key.Binding
	Next    key.Binding
	PageNav key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:    key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		Submit:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "continue / send")),
		Prev:    key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "previous command")),
		Next:    key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "next command")),
		PageNav: key.NewBinding(key.WithKeys("pgup", "pgdown"), key.WithHelp("pgup/pgdn", "scroll")),
	}
}

// New creates a TUI model wired to the given session.
func New(ctx context.Context, s *engine.Session) Model {
	prompt := textinput.New()
	prompt.Prompt = "♥ "
	prompt.PromptStyle = styleInputPrompt
	prompt.CharLimit = 256
	prompt.Focus()

	m := Model{
		session: s,
		ctx:     ctx,
		prompt:  prompt,
		history: NewHistory(100),
		keys:    defaultKeyMap(),
		now:     time.Now,
	}
	m.prompt.Placeholder = m.hint()
	return m
}

// Run starts the Bubble Tea program and blocks until the player quits or
// ctx is cancelled.
func Run(ctx context.Context, s *engine.Session) error {
	p := tea.NewProgram(New(ctx, s), tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// Init starts the opening scene on the event-loop goroutine; the returned
// command only delivers the lines already produced.
func (m Model) Init() tea.Cmd {
	msg := m.opening()
	return tea.Batch(textinput.Blink, func() tea.Msg { return msg })
}

// opening begins a new game and returns the title header and first lines.
func (m Model) opening() outputMsg {
	g := m.session.Game
	header := g.Title
	if g.Version != "" {
		header += " v" + g.Version
	}
	if g.Author != "" {
		header += " by " + g.Author
	}
	return outputMsg{lines: append([]string{header, ""}, m.session.Begin().Output...)}
}

// Update handles key presses, resizes and session output.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Submit):
			return m.submit()
		case key.Matches(msg, m.keys.Prev):
			if prev, ok := m.history.Prev(); ok {
				m.prompt.SetValue(prev)
				m.prompt.CursorEnd()
			}
			return m, nil
		case key.Matches(msg, m.keys.Next):
			next, ok := m.history.Next()
			if !ok {
				m.history.ResetCursor()
			}
			m.prompt.SetValue(next)
			m.prompt.CursorEnd()
			return m, nil
		case key.Matches(msg, m.keys.PageNav):
			var cmd tea.Cmd
			m.view, cmd = m.view.Update(msg)
			return m, cmd
		}

	case outputMsg:
		m.append(msg)
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

// resize lays out the transcript above the status bar and prompt.
func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	rows := max(height-2, 1)

	if !m.ready {
		m.view = viewport.New(width, rows)
		m.view.KeyMap = viewportKeyMap()
		m.ready = true
	} else {
		m.view.Width = width
		m.view.Height = rows
	}
	m.render()
}

// submit runs the prompt contents. A blank line continues the dialogue.
func (m Model) submit() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.prompt.Value())
	m.prompt.SetValue("")

	now := m.now()
	if !m.lastTick.IsZero() {
		m.session.Tick(now.Sub(m.lastTick))
	}
	m.lastTick = now

	m.history.Push(input)
	m.history.ResetCursor()

	lower := strings.ToLower(input)
	switch {
	case lower == "again" || lower == "g":
		if m.lastCmd == "" {
			m.append(outputMsg{echo: input, lines: []string{"Nothing to repeat."}, system: true})
			return m, nil
		}
		input = m.lastCmd
	case input != "":
		m.lastCmd = input
	}

	if strings.HasPrefix(input, "/") || lower == "help" {
		lines, quit := m.handleMeta(input)
		m.append(outputMsg{echo: input, lines: lines, system: true})
		if quit {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	res := m.session.Step(input)
	lines := res.Output
	if m.trace {
		lines = append(lines, res.Trace...)
	}
	m.append(outputMsg{echo: input, lines: lines})
	return m, nil
}

// append adds output to the transcript.
func (m *Model) append(msg outputMsg) {
	if msg.echo != "" {
		m.transcript = append(m.transcript, entry{text: "> " + msg.echo, echo: true})
	}
	for _, line := range msg.lines {
		e := entry{text: line, system: msg.system}
		if !msg.system {
			e.kind = classifyLine(line)
		}
		m.transcript = append(m.transcript, e)
	}
	// A conversation reads as one block; player turns are separated.
	if msg.echo != "" || msg.system {
		m.transcript = append(m.transcript, entry{})
	}

	m.prompt.Placeholder = m.hint()
	m.render()
}

// hint describes what the prompt expects next.
func (m Model) hint() string {
	d := m.session.Dialogue
	switch d.State() {
	case dialogue.Idle:
		return "what now? (help for commands)"
	case dialogue.AwaitingChoice:
		line, _ := d.CurrentLine()
		return fmt.Sprintf("choose 1-%d", len(line.Choices))
	default:
		return "press enter to continue"
	}
}

// render re-wraps and re-styles the transcript at the current width.
func (m *Model) render() {
	if !m.ready {
		return
	}
	width := max(m.width, 10)

	out := make([]string, 0, len(m.transcript))
	for _, e := range m.transcript {
		if e.text == "" {
			out = append(out, "")
			continue
		}
		wrapped := wordWrap(e.text, width)
		switch {
		case e.echo:
			out = append(out, stylePlayerInput.Render(wrapped))
		case e.system:
			out = append(out, styledSystemMsg(wrapped))
		default:
			out = append(out, renderLineKind(wrapped, e.kind))
		}
	}

	m.view.SetContent(strings.Join(out, "\n"))
	m.view.GotoBottom()
}

func renderLineKind(line string, kind lineKind) string {
	switch kind {
	case kindDialogue:
		return styledDialogue(line)
	case kindChoice:
		return styleChoice.Render(line)
	case kindTitle:
		return styleTitle.Render(line)
	case kindSystem:
		return styleSystem.Render(line)
	case kindError:
		return styleError.Render(line)
	case kindTrace:
		return styleTrace.Render(line)
	default:
		return styleNarration.Render(line)
	}
}

// wordWrap breaks text at word boundaries so no line is wider than width
// cells. Leading indentation is kept on the first line.
func wordWrap(text string, width int) string {
	if width <= 0 || lipgloss.Width(text) <= width {
		return text
	}

	indent := text[:len(text)-len(strings.TrimLeft(text, " "))]
	var b strings.Builder
	col := 0
	for i, word := range strings.Fields(text) {
		w := lipgloss.Width(word)
		switch {
		case i == 0:
			b.WriteString(indent)
			col = len(indent)
		case col+1+w > width:
			b.WriteByte('\n')
			col = 0
		default:
			b.WriteByte(' ')
			col++
		}
		b.WriteString(word)
		col += w
	}
	return b.String()
}

// View draws the transcript, status bar and prompt.
func (m Model) View() string {
	switch {
	case m.quitting:
		return ""
	case !m.ready:
		return "Loading..."
	}
	return m.view.View() + "\n" + m.renderStatusBar() + "\n" + m.prompt.View()
}

// handleMeta runs a slash command. It returns output lines and whether to
// quit.
func (m *Model) handleMeta(input string) ([]string, bool) {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(input), " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/quit", "/exit":
		return []string{"Goodbye."}, true
	case "/save":
		return m.cmdSave(arg), false
	case "/load":
		return m.cmdLoad(arg), false
	case "/slots":
		return m.cmdSlots(), false
	case "/delete":
		return m.cmdDelete(arg), false
	case "/help", "help":
		return m.cmdHelp(), false
	case "/state":
		return cli.StateLines(m.session), false
	case "/trace":
		m.trace = !m.trace
		if m.trace {
			return []string{"Trace output enabled."}, false
		}
		return []string{"Trace output disabled."}, false
	default:
		return []string{fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd)}, false
	}
}

func slotArg(arg string) (int, error) {
	if arg == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", save.ErrInvalidSlot, arg)
	}
	return n, nil
}

func (m *Model) cmdSave(arg string) []string {
	slot, err := slotArg(arg)
	if err == nil {
		err = m.session.Save(m.ctx, slot)
	}
	if err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}
	return []string{fmt.Sprintf("Game saved to slot %d.", slot)}
}

func (m *Model) cmdLoad(arg string) []string {
	slot, err := slotArg(arg)
	if err == nil {
		err = m.session.Load(m.ctx, slot)
	}
	if err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}
	st := m.session.Status()
	return []string{fmt.Sprintf("Game loaded from slot %d (day %d, %s, %s).", slot, st.Day, st.TimeOfDay, st.Location)}
}

func (m *Model) cmdSlots() []string {
	slots := m.session.ListSlots(m.ctx)
	if slots == nil {
		return []string{"Saving is disabled."}
	}
	out := make([]string, 0, len(slots))
	for _, info := range slots {
		out = append(out, cli.FormatSlot(info))
	}
	return out
}

func (m *Model) cmdDelete(arg string) []string {
	if arg == "" {
		return []string{"Usage: /delete <slot>"}
	}
	slot, err := slotArg(arg)
	if err == nil {
		err = m.session.DeleteSlot(m.ctx, slot)
	}
	if err != nil {
		return []string{fmt.Sprintf("Delete failed: %v", err)}
	}
	return []string{fmt.Sprintf("Slot %d deleted.", slot)}
}

func (m *Model) cmdHelp() []string {
	out := append([]string(nil), cli.HelpLines...)
	out = append(out, "", "Keys:")
	for _, b := range []key.Binding{m.keys.Submit, m.keys.Prev, m.keys.Next, m.keys.PageNav, m.keys.Quit} {
		h := b.Help()
		out = append(out, fmt.Sprintf("  %-10s %s", h.Key, h.Desc))
	}
	return out
}

// viewportKeyMap leaves Up/Down to the command history.
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}
