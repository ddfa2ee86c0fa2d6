package engine

import "testing"

func TestRNG_Deterministic(t *testing.T) {
	rng1 := NewRNG(42)
	rng2 := NewRNG(42)

	for i := 0; i < 20; i++ {
		a := rng1.Intn(6)
		b := rng2.Intn(6)
		if a != b {
			t.Fatalf("draw %d: got %d and %d from same seed", i, a, b)
		}
	}
}

func TestRNG_Intn_Range(t *testing.T) {
	rng := NewRNG(99)

	for i := 0; i < 1000; i++ {
		r := rng.Intn(6)
		if r < 0 || r >= 6 {
			t.Fatalf("draw out of range [0,6): got %d", r)
		}
	}
}

func TestRNG_Pick(t *testing.T) {
	rng := NewRNG(7)

	if got := rng.Pick(nil, ""); got != "" {
		t.Errorf("Pick(nil) = %q, want empty", got)
	}
	if got := rng.Pick([]string{"only"}, "only"); got != "only" {
		t.Errorf("Pick(single) = %q, want %q", got, "only")
	}
	if got := rng.Pick([]string{"a", "a"}, "a"); got != "a" {
		t.Errorf("Pick(all same) = %q, want %q", got, "a")
	}

	lines := []string{"a", "b", "c"}
	last := ""
	for i := 0; i < 50; i++ {
		got := rng.Pick(lines, last)
		if got == last {
			t.Fatalf("pick %d repeated %q", i, got)
		}
		last = got
	}
}

func TestRNG_Pick_DoesNotDrawForSingleLine(t *testing.T) {
	rng := NewRNG(1)
	rng.Pick([]string{"x"}, "")
	if rng.Position() != 0 {
		t.Errorf("Position() = %d, want 0", rng.Position())
	}
}

func TestRNG_Position(t *testing.T) {
	rng := NewRNG(42)
	if rng.Position() != 0 {
		t.Errorf("initial position = %d, want 0", rng.Position())
	}

	rng.Intn(6)
	rng.Intn(6)
	rng.Pick([]string{"a", "b"}, "")

	if rng.Position() != 3 {
		t.Errorf("position after 3 draws = %d, want 3", rng.Position())
	}
	if rng.Seed() != 42 {
		t.Errorf("Seed() = %d, want 42", rng.Seed())
	}
}

func TestRNG_Restore(t *testing.T) {
	rng := NewRNG(42)
	for i := 0; i < 10; i++ {
		rng.Intn(7)
	}

	restored := RestoreRNG(42, rng.Position())
	for i := 0; i < 10; i++ {
		a := rng.Intn(100)
		b := restored.Intn(100)
		if a != b {
			t.Fatalf("draw %d after restore: fresh=%d, restored=%d", i, a, b)
		}
	}
	if restored.Position() != rng.Position() {
		t.Errorf("restored position = %d, want %d", restored.Position(), rng.Position())
	}
}
