// Package parser converts command strings into Intent structs.
// Intentionally dumb: no NLP, just pattern matching.
package parser

import (
	"strconv"
	"strings"

	"github.com/nathoo/lovecore/types"
)

// Canonical verbs produced by Parse.
const (
	VerbAdvance     = "advance"
	VerbChoose      = "choose"
	VerbWait        = "wait"
	VerbGo          = "go"
	VerbDay         = "day"
	VerbIdle        = "idle"
	VerbInvestigate = "investigate"
	VerbPlay        = "play"
	VerbClaim       = "claim"
	VerbStatus      = "status"
)

var verbAliases = map[string]string{
	// Advance
	"next":     VerbAdvance,
	"continue": VerbAdvance,
	"c":        VerbAdvance,

	// Choose
	"pick":   VerbChoose,
	"select": VerbChoose,
	"answer": VerbChoose,

	// Time
	"z":     VerbWait,
	"later": VerbWait,
	"rest":  VerbWait,
	"sleep": VerbWait,
	"time":  VerbWait,

	// Movement
	"walk":   VerbGo,
	"move":   VerbGo,
	"head":   VerbGo,
	"travel": VerbGo,
	"visit":  VerbGo,

	// Idle lines
	"look":    VerbIdle,
	"l":       VerbIdle,
	"talk":    VerbIdle,
	"chat":    VerbIdle,
	"hangout": VerbIdle,

	// Investigation
	"search":  VerbInvestigate,
	"explore": VerbInvestigate,
	"inv":     VerbInvestigate,

	// Episodes
	"episode": VerbPlay,
	"story":   VerbPlay,
	"reward":  VerbClaim,

	// Status
	"stats": VerbStatus,
	"st":    VerbStatus,
	"me":    VerbStatus,
}

var fillers = map[string]bool{
	"the": true, "a": true, "an": true,
	"to": true, "at": true, "around": true,
}

// Parse converts a raw command string into an Intent. Empty input advances
// the dialogue and a bare number selects a choice.
func Parse(input string) types.Intent {
	input = strings.TrimSpace(input)
	if input == "" {
		return types.Intent{Verb: VerbAdvance}
	}

	words := strings.Fields(strings.ToLower(input))

	if len(words) == 1 {
		// Bare number: choose that option.
		if _, err := strconv.Atoi(words[0]); err == nil {
			return types.Intent{Verb: VerbChoose, Object: words[0]}
		}
		// Bare location: go there.
		if _, err := types.ParseLocation(words[0]); err == nil {
			return types.Intent{Verb: VerbGo, Object: words[0]}
		}
	}

	// Handle multi-word verb phrases before general parsing.
	words = expandMultiWordVerbs(words)

	if alias, ok := verbAliases[words[0]]; ok {
		words[0] = alias
	}

	return types.Intent{
		Verb:   words[0],
		Object: strings.Join(stripFillers(words[1:]), " "),
	}
}

// expandMultiWordVerbs handles "go to", "look around", "talk to" etc.
func expandMultiWordVerbs(words []string) []string {
	if len(words) < 2 {
		return words
	}

	switch words[0] {
	case "look", "hang":
		if words[1] == "around" || words[1] == "out" {
			return append([]string{VerbIdle}, words[2:]...)
		}
	case "next":
		if words[1] == "episode" {
			return append([]string{VerbPlay}, words[2:]...)
		}
	case "skip":
		if words[1] == "to" && len(words) > 2 && words[2] == "day" {
			return append([]string{VerbDay}, words[3:]...)
		}
	case "claim":
		if words[1] == "reward" {
			return append([]string{VerbClaim}, words[2:]...)
		}
	}

	return words
}

// stripFillers removes articles and filler prepositions from the word list.
func stripFillers(words []string) []string {
	result := make([]string, 0, len(words))
	for _, w := range words {
		if !fillers[w] {
			result = append(result, w)
		}
	}
	return result
}

// Index parses a 1-based choice number into a 0-based index.
func Index(object string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(object))
	if err != nil || n < 1 {
		return 0, false
	}
	return n - 1, true
}
