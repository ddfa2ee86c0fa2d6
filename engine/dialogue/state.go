package dialogue

import "fmt"

// State is the interpreter's position in its state machine.
type State int

const (
	Idle State = iota
	ChapterTitle
	Typing
	AwaitingAdvance
	AwaitingChoice
	AwaitingSingleChoiceConfirm
)

var stateNames = []string{
	"idle",
	"chapter_title",
	"typing",
	"awaiting_advance",
	"awaiting_choice",
	"awaiting_single_choice_confirm",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}
