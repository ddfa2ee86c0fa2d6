package state

import (
	"reflect"
	"testing"

	"github.com/nathoo/lovecore/engine/bus"
)

type fixedTiers struct{}

// Tiers at 0/20/40/60/80 named A..E.
func (fixedTiers) TierName(_ string, v int) string {
	names := []string{"A", "B", "C", "D", "E"}
	i := v / 20
	if i > 4 {
		i = 4
	}
	return names[i]
}

type captured struct {
	affection []bus.AffectionChanged
	tiers     []bus.AffectionTierChanged
	currency  []bus.CurrencyChanged
	flags     []bus.FlagSet
}

func newTestStore() (*Store, *captured) {
	b := bus.New(nil)
	c := &captured{}
	bus.On(b, func(m bus.AffectionChanged) { c.affection = append(c.affection, m) })
	bus.On(b, func(m bus.AffectionTierChanged) { c.tiers = append(c.tiers, m) })
	bus.On(b, func(m bus.CurrencyChanged) { c.currency = append(c.currency, m) })
	bus.On(b, func(m bus.FlagSet) { c.flags = append(c.flags, m) })
	s := New(b, nil)
	s.SetTierResolver(fixedTiers{})
	return s, c
}

func TestAddAffection_ClampsAndReportsActualDelta(t *testing.T) {
	s, c := newTestStore()

	got := s.AddAffection("yuna", 150)
	if got != 100 {
		t.Fatalf("AddAffection = %d, want 100", got)
	}
	if len(c.affection) != 1 {
		t.Fatalf("affection notifications = %d, want 1", len(c.affection))
	}
	if c.affection[0].Delta != 100 {
		t.Errorf("delta = %d, want 100", c.affection[0].Delta)
	}
	if c.affection[0].Previous != 0 || c.affection[0].New != 100 {
		t.Errorf("notification = %+v", c.affection[0])
	}
}

func TestAddAffection_NoChangeNoNotification(t *testing.T) {
	s, c := newTestStore()
	s.SetAffection("yuna", 100)
	c.affection = nil

	s.AddAffection("yuna", 5)
	if len(c.affection) != 0 {
		t.Errorf("notification published for clamped no-op: %+v", c.affection)
	}

	s.AddAffection("yuna", -500)
	if got := s.GetAffection("yuna"); got != 0 {
		t.Errorf("GetAffection = %d, want 0", got)
	}
}

func TestAffection_StaysInRange(t *testing.T) {
	s, _ := newTestStore()
	s.SetMaxAffection("mio", 50)
	deltas := []int{30, 30, -100, 70, -5, 999, -1}
	for _, d := range deltas {
		v := s.AddAffection("mio", d)
		if v < 0 || v > 50 {
			t.Fatalf("affection %d out of [0,50] after delta %d", v, d)
		}
	}
	if got := s.SetAffection("mio", 75); got != 50 {
		t.Errorf("SetAffection(75) = %d, want 50", got)
	}
}

func TestAffection_TierChanged(t *testing.T) {
	s, c := newTestStore()

	s.AddAffection("yuna", 10)
	if len(c.tiers) != 0 {
		t.Fatalf("tier notification within same tier: %+v", c.tiers)
	}
	s.AddAffection("yuna", 15)
	if len(c.tiers) != 1 {
		t.Fatalf("tier notifications = %d, want 1", len(c.tiers))
	}
	want := bus.AffectionTierChanged{CharacterID: "yuna", PreviousTier: "A", NewTier: "B"}
	if c.tiers[0] != want {
		t.Errorf("tier change = %+v, want %+v", c.tiers[0], want)
	}
	if got := s.Tier("yuna"); got != "B" {
		t.Errorf("Tier = %q, want B", got)
	}
}

func TestAffection_EmptyIDIgnored(t *testing.T) {
	s, c := newTestStore()
	s.AddAffection("", 10)
	s.SetAffection("", 10)
	if len(c.affection) != 0 {
		t.Errorf("notification for empty id")
	}
}

type roster map[string]bool

func (r roster) Known(id string) bool { return r[id] }

func TestAffection_UnknownCharacterIgnored(t *testing.T) {
	s, c := newTestStore()
	s.SetRoster(roster{"yuna": true})

	if got := s.AddAffection("nobody", 7); got != 0 {
		t.Errorf("AddAffection(unknown) = %d, want 0", got)
	}
	if got := s.SetAffection("nobody", 30); got != 0 {
		t.Errorf("SetAffection(unknown) = %d, want 0", got)
	}
	s.SetMaxAffection("nobody", 50)

	if got := s.GetAffection("nobody"); got != 0 {
		t.Errorf("GetAffection(unknown) = %d, want 0", got)
	}
	if got := s.MaxAffection("nobody"); got != DefaultMaxAffection {
		t.Errorf("MaxAffection(unknown) = %d, want %d", got, DefaultMaxAffection)
	}
	if len(c.affection) != 0 {
		t.Errorf("notifications for unknown character: %+v", c.affection)
	}

	if got := s.AddAffection("yuna", 7); got != 7 {
		t.Errorf("AddAffection(known) = %d, want 7", got)
	}
}

func TestSetMaxAffection_LowerCapNotifies(t *testing.T) {
	s, c := newTestStore()
	s.SetAffection("yuna", 90)
	c.affection, c.tiers = nil, nil

	s.SetMaxAffection("yuna", 30)

	wantChange := []bus.AffectionChanged{{CharacterID: "yuna", Previous: 90, New: 30, Delta: -60}}
	if !reflect.DeepEqual(c.affection, wantChange) {
		t.Errorf("affection notifications = %+v, want %+v", c.affection, wantChange)
	}
	wantTier := []bus.AffectionTierChanged{{CharacterID: "yuna", PreviousTier: "E", NewTier: "B"}}
	if !reflect.DeepEqual(c.tiers, wantTier) {
		t.Errorf("tier notifications = %+v, want %+v", c.tiers, wantTier)
	}

	c.affection = nil
	s.SetMaxAffection("yuna", 80)
	if len(c.affection) != 0 {
		t.Errorf("raising the cap published %+v", c.affection)
	}
}

func TestSetMaxAffection_LowersCurrent(t *testing.T) {
	s, _ := newTestStore()
	s.SetAffection("yuna", 90)
	s.SetMaxAffection("yuna", 60)
	if got := s.GetAffection("yuna"); got != 60 {
		t.Errorf("GetAffection = %d, want 60", got)
	}
	s.SetMaxAffection("yuna", 0)
	if got := s.MaxAffection("yuna"); got != 60 {
		t.Errorf("MaxAffection = %d, want 60 (zero rejected)", got)
	}
	if got := s.MaxAffection("unknown"); got != DefaultMaxAffection {
		t.Errorf("default MaxAffection = %d, want %d", got, DefaultMaxAffection)
	}
}

func TestCurrency(t *testing.T) {
	s, c := newTestStore()

	if s.AddCurrency(Diamonds, 0) {
		t.Error("AddCurrency(0) accepted")
	}
	if s.AddCurrency(Diamonds, -3) {
		t.Error("AddCurrency(-3) accepted")
	}
	if !s.AddCurrency(Diamonds, 10) {
		t.Fatal("AddCurrency(10) rejected")
	}
	if s.SpendCurrency(Diamonds, 11) {
		t.Error("SpendCurrency beyond balance succeeded")
	}
	if !s.SpendCurrency(Diamonds, 4) {
		t.Error("SpendCurrency(4) failed")
	}
	if got := s.Currency(Diamonds); got != 6 {
		t.Errorf("Currency = %d, want 6", got)
	}

	want := []bus.CurrencyChanged{
		{Currency: Diamonds, Previous: 0, New: 10, Delta: 10},
		{Currency: Diamonds, Previous: 10, New: 6, Delta: -4},
	}
	if !reflect.DeepEqual(c.currency, want) {
		t.Errorf("currency notifications = %+v, want %+v", c.currency, want)
	}
}

func TestFlags_Idempotent(t *testing.T) {
	s, c := newTestStore()
	s.SetFlag("met_yuna")
	s.SetFlag("met_yuna")
	if !s.IsFlagSet("met_yuna") {
		t.Error("flag not set")
	}
	if s.IsFlagSet("unknown") {
		t.Error("unknown flag reads true")
	}
	if len(c.flags) != 1 {
		t.Errorf("flag notifications = %d, want 1", len(c.flags))
	}
	s.SetFlag("")
	if len(s.Flags()) != 1 {
		t.Errorf("Flags = %v", s.Flags())
	}
}

func TestCounters(t *testing.T) {
	s, _ := newTestStore()
	if got := s.IncCounter("investigations_used", 1); got != 1 {
		t.Errorf("IncCounter = %d, want 1", got)
	}
	s.SetCounter("investigations_used", 0)
	if got := s.Counter("investigations_used"); got != 0 {
		t.Errorf("Counter = %d, want 0", got)
	}
}

func TestExportImport_RoundTrip(t *testing.T) {
	s, _ := newTestStore()
	s.SetAffection("yuna", 42)
	s.SetAffection("mio", 7)
	s.AddCurrency(Diamonds, 30)
	s.AddCurrency(Clues, 2)
	s.SetFlag("chapter01_completed")
	s.SetFlag("met_mio")
	s.SetCounter("investigations_used", 2)

	snap := s.Export()

	other, c := newTestStore()
	other.Import(snap)
	if !reflect.DeepEqual(other.Export(), snap) {
		t.Errorf("round trip = %+v, want %+v", other.Export(), snap)
	}
	if len(c.affection)+len(c.currency)+len(c.flags) != 0 {
		t.Error("Import published notifications")
	}

	// The snapshot is a copy.
	s.AddAffection("yuna", 1)
	if snap.Affection["yuna"] != 42 {
		t.Error("snapshot aliased live state")
	}
}

func TestReset(t *testing.T) {
	s, _ := newTestStore()
	s.SetMaxAffection("yuna", 80)
	s.SetAffection("yuna", 50)
	s.SetFlag("x")
	s.AddCurrency(Diamonds, 1)
	s.Reset()

	if s.GetAffection("yuna") != 0 || s.IsFlagSet("x") || s.Currency(Diamonds) != 0 {
		t.Error("Reset left values behind")
	}
	if s.MaxAffection("yuna") != 80 {
		t.Error("Reset dropped max affection")
	}
}
