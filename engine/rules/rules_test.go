package rules

import (
	"testing"

	"github.com/nathoo/lovecore/types"
)

func TestRank(t *testing.T) {
	events := []types.StoryEvent{
		{ID: "low", Priority: 1, SourceOrder: 0},
		{ID: "high_b", Priority: 10, SourceOrder: 2},
		{ID: "high_a", Priority: 10, SourceOrder: 1},
		{ID: "mid", Priority: 5, SourceOrder: 3},
	}
	Rank(events)

	want := []string{"high_a", "high_b", "mid", "low"}
	for i, id := range want {
		if events[i].ID != id {
			t.Errorf("events[%d] = %s, want %s", i, events[i].ID, id)
		}
	}
}
