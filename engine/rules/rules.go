package rules

import "sort"

// Ranked is implemented by prioritized candidates.
type Ranked interface {
	RankPriority() int
	RankOrder() int
}

// Rank sorts items by priority (desc) then source order (asc), in place.
func Rank[T Ranked](items []T) {
	sort.SliceStable(items, func(i, j int) bool {
		pi, pj := items[i].RankPriority(), items[j].RankPriority()
		if pi != pj {
			return pi > pj
		}
		return items[i].RankOrder() < items[j].RankOrder()
	})
}
