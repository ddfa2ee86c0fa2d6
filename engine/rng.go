package engine

import "math/rand"

// RNG wraps math/rand.Rand with deterministic position tracking.
// Position increments with every draw, enabling save/restore.
type RNG struct {
	seed int64
	src  *rand.Rand
	pos  int64
}

// NewRNG creates a new deterministic RNG from a seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		seed: seed,
		src:  rand.New(rand.NewSource(seed)),
	}
}

// Intn returns a random integer in [0, n). It consumes exactly one draw
// from the source so that Position can be replayed. n must be positive.
func (r *RNG) Intn(n int) int {
	r.pos++
	return int(r.src.Int63() % int64(n))
}

// Pick returns a random element of lines, avoiding last when there is any
// other choice. It returns "" for an empty slice.
func (r *RNG) Pick(lines []string, last string) string {
	switch len(lines) {
	case 0:
		return ""
	case 1:
		return lines[0]
	}
	candidates := lines
	if last != "" {
		candidates = make([]string, 0, len(lines))
		for _, l := range lines {
			if l != last {
				candidates = append(candidates, l)
			}
		}
		if len(candidates) == 0 {
			return last
		}
	}
	return candidates[r.Intn(len(candidates))]
}

// Seed returns the seed the RNG was created with.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Position returns the number of draws made since creation.
func (r *RNG) Position() int64 {
	return r.pos
}

// RestoreRNG creates an RNG and advances it to the given position.
// This reproduces the exact RNG state for save/load.
func RestoreRNG(seed int64, position int64) *RNG {
	rng := NewRNG(seed)
	for i := int64(0); i < position; i++ {
		rng.src.Int63()
	}
	rng.pos = position
	return rng
}
