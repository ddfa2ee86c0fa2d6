package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("53")).
			Foreground(lipgloss.Color("225")).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("205"))

	styleNarration = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleSpeaker = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true)

	styleDialogue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228"))

	styleChoice = lipgloss.NewStyle().
			Foreground(lipgloss.Color("117"))

	styleTitle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("219")).
			Bold(true).
			Italic(true)

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	stylePlayerInput = lipgloss.NewStyle().
				Foreground(lipgloss.Color("205"))

	styleTrace = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// lineKind identifies the type of an output line for styling.
type lineKind int

const (
	kindNarration lineKind = iota
	kindDialogue
	kindChoice
	kindTitle
	kindSystem
	kindError
	kindTrace
)

// classifyLine determines what kind of output line this is.
func classifyLine(line string) lineKind {
	switch {
	case strings.HasPrefix(line, "[trace]"):
		return kindTrace
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		return kindSystem
	case strings.HasPrefix(line, "~ ") && strings.HasSuffix(line, " ~"):
		return kindTitle
	case isChoiceLine(line):
		return kindChoice
	case strings.HasPrefix(line, "You're "),
		strings.HasPrefix(line, "Unknown place"),
		strings.HasPrefix(line, "I don't understand"),
		strings.HasPrefix(line, "Choose a number"):
		return kindError
	case speakerSplit(line) > 0:
		return kindDialogue
	default:
		return kindNarration
	}
}

// isChoiceLine matches "  1) text" and the single-choice "  > text".
func isChoiceLine(line string) bool {
	rest, ok := strings.CutPrefix(line, "  ")
	if !ok || rest == "" {
		return false
	}
	if strings.HasPrefix(rest, "> ") {
		return true
	}
	i := 0
	for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
		i++
	}
	return i > 0 && strings.HasPrefix(rest[i:], ") ")
}

// speakerSplit returns the index of the ": \"" separating a speaker name
// from quoted speech, or -1.
func speakerSplit(line string) int {
	i := strings.Index(line, `: "`)
	if i <= 0 || !strings.HasSuffix(line, `"`) {
		return -1
	}
	return i
}

// styledDialogue renders `Name: "text"` with the name highlighted.
func styledDialogue(line string) string {
	i := speakerSplit(line)
	if i <= 0 {
		return styleNarration.Render(line)
	}
	return styleSpeaker.Render(line[:i]) + styleDialogue.Render(line[i:])
}

// styledSystemMsg renders a system message in gray with brackets.
func styledSystemMsg(text string) string {
	return styleSystem.Render("[" + text + "]")
}
