// Package state holds the mutable relationship facts of a session:
// per-character affection, currency ledgers, flags and counters.
//
// Every mutation that changes a value publishes a notification on the bus.
// Bad identifiers and out-of-range inputs degrade to a logged no-op.
package state

import (
	"sort"

	"go.uber.org/zap"

	"github.com/nathoo/lovecore/engine/bus"
)

// DefaultMaxAffection is the cap used for characters without an explicit max.
const DefaultMaxAffection = 100

// Well-known currency ledgers.
const (
	Diamonds = "diamonds"
	Clues    = "clues"
)

// TierResolver maps an affection value to a tier name.
type TierResolver interface {
	TierName(characterID string, affection int) string
}

// Roster reports whether a character is defined.
type Roster interface {
	Known(characterID string) bool
}

// Snapshot is the persisted form of a Store.
type Snapshot struct {
	Affection map[string]int `json:"affection"`
	Currency  map[string]int `json:"currency"`
	Flags     []string       `json:"flags"`
	Counters  map[string]int `json:"counters"`
}

// Store is the state store for one session.
type Store struct {
	bus    *bus.Bus
	log    *zap.Logger
	tiers  TierResolver
	roster Roster

	affection    map[string]int
	maxAffection map[string]int
	currency     map[string]int
	flags        map[string]bool
	counters     map[string]int
}

// New creates an empty store publishing on b. A nil logger discards output.
func New(b *bus.Bus, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		bus:          b,
		log:          log.Named("state"),
		affection:    map[string]int{},
		maxAffection: map[string]int{},
		currency:     map[string]int{},
		flags:        map[string]bool{},
		counters:     map[string]int{},
	}
}

// SetTierResolver installs the resolver used for tier-change notifications.
func (s *Store) SetTierResolver(r TierResolver) {
	s.tiers = r
}

// SetRoster installs the character check used by affection operations.
// Without one, any non-empty id is accepted.
func (s *Store) SetRoster(r Roster) {
	s.roster = r
}

// --- Affection ---

// AddAffection adds delta to a character's affection, clamped to [0, max].
// It returns the resulting value.
func (s *Store) AddAffection(id string, delta int) int {
	if !s.character(id) {
		return 0
	}
	return s.applyAffection(id, s.affection[id]+delta)
}

// SetAffection sets a character's affection, clamped to [0, max].
// It returns the resulting value.
func (s *Store) SetAffection(id string, value int) int {
	if !s.character(id) {
		return 0
	}
	return s.applyAffection(id, value)
}

// GetAffection returns a character's affection. Unknown characters read 0.
func (s *Store) GetAffection(id string) int {
	return s.affection[id]
}

// SetMaxAffection sets the cap for a character. Non-positive values are
// rejected. A current value above the new cap is lowered to it with the
// usual notifications.
func (s *Store) SetMaxAffection(id string, max int) {
	if !s.character(id) {
		return
	}
	if max <= 0 {
		s.log.Warn("invalid max affection ignored", zap.String("character", id), zap.Int("max", max))
		return
	}
	s.maxAffection[id] = max
	if s.affection[id] > max {
		s.applyAffection(id, max)
	}
}

// MaxAffection returns the cap for a character.
func (s *Store) MaxAffection(id string) int {
	if m, ok := s.maxAffection[id]; ok {
		return m
	}
	return DefaultMaxAffection
}

// Tier returns the current tier name for a character, or "" with no resolver.
func (s *Store) Tier(id string) string {
	return s.tierName(id, s.affection[id])
}

// character reports whether id may carry affection, warning when not.
func (s *Store) character(id string) bool {
	if id == "" {
		s.log.Warn("affection change for empty character id ignored")
		return false
	}
	if s.roster != nil && !s.roster.Known(id) {
		s.log.Warn("affection change for unknown character ignored", zap.String("character", id))
		return false
	}
	return true
}

func (s *Store) applyAffection(id string, target int) int {
	prev := s.affection[id]
	next := clamp(target, 0, s.MaxAffection(id))
	if next == prev {
		return prev
	}
	prevTier := s.tierName(id, prev)
	s.affection[id] = next
	s.log.Debug("affection changed", zap.String("character", id), zap.Int("from", prev), zap.Int("to", next))
	s.publish(bus.AffectionChanged{CharacterID: id, Previous: prev, New: next, Delta: next - prev})

	if newTier := s.tierName(id, next); newTier != prevTier {
		s.publish(bus.AffectionTierChanged{CharacterID: id, PreviousTier: prevTier, NewTier: newTier})
	}
	return next
}

func (s *Store) tierName(id string, value int) string {
	if s.tiers == nil {
		return ""
	}
	return s.tiers.TierName(id, value)
}

// --- Currency ---

// AddCurrency credits amount to a ledger. Non-positive amounts are rejected.
func (s *Store) AddCurrency(name string, amount int) bool {
	if name == "" || amount <= 0 {
		s.log.Warn("invalid currency credit ignored", zap.String("currency", name), zap.Int("amount", amount))
		return false
	}
	prev := s.currency[name]
	s.currency[name] = prev + amount
	s.publish(bus.CurrencyChanged{Currency: name, Previous: prev, New: prev + amount, Delta: amount})
	return true
}

// SpendCurrency debits amount from a ledger. It returns false, changing
// nothing, when the balance is insufficient or amount is not positive.
func (s *Store) SpendCurrency(name string, amount int) bool {
	if name == "" || amount <= 0 {
		s.log.Warn("invalid currency debit ignored", zap.String("currency", name), zap.Int("amount", amount))
		return false
	}
	prev := s.currency[name]
	if prev < amount {
		return false
	}
	s.currency[name] = prev - amount
	s.publish(bus.CurrencyChanged{Currency: name, Previous: prev, New: prev - amount, Delta: -amount})
	return true
}

// Currency returns a ledger balance. Unknown ledgers read 0.
func (s *Store) Currency(name string) int {
	return s.currency[name]
}

// --- Flags ---

// SetFlag sets a flag. Setting an already-set flag is a no-op.
func (s *Store) SetFlag(name string) {
	if name == "" {
		s.log.Warn("empty flag name ignored")
		return
	}
	if s.flags[name] {
		return
	}
	s.flags[name] = true
	s.publish(bus.FlagSet{Name: name})
}

// IsFlagSet reports whether a flag is set. Unknown flags read false.
func (s *Store) IsFlagSet(name string) bool {
	return s.flags[name]
}

// Flags returns the set flags in sorted order.
func (s *Store) Flags() []string {
	out := make([]string, 0, len(s.flags))
	for f := range s.flags {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// --- Counters ---

// Counter returns a named counter. Unset counters read 0.
func (s *Store) Counter(name string) int {
	return s.counters[name]
}

// SetCounter sets a named counter.
func (s *Store) SetCounter(name string, value int) {
	if name == "" {
		s.log.Warn("empty counter name ignored")
		return
	}
	s.counters[name] = value
}

// IncCounter adds delta to a named counter and returns the result.
func (s *Store) IncCounter(name string, delta int) int {
	if name == "" {
		s.log.Warn("empty counter name ignored")
		return 0
	}
	s.counters[name] += delta
	return s.counters[name]
}

// --- Persistence ---

// Export returns a deep copy of the store's mutable values.
func (s *Store) Export() Snapshot {
	return Snapshot{
		Affection: copyMap(s.affection),
		Currency:  copyMap(s.currency),
		Flags:     s.Flags(),
		Counters:  copyMap(s.counters),
	}
}

// Import replaces the store's values with snap. No notifications are
// published; affection is re-clamped to each character's cap.
func (s *Store) Import(snap Snapshot) {
	s.affection = map[string]int{}
	for id, v := range snap.Affection {
		s.affection[id] = clamp(v, 0, s.MaxAffection(id))
	}
	s.currency = copyMap(snap.Currency)
	s.flags = map[string]bool{}
	for _, f := range snap.Flags {
		if f != "" {
			s.flags[f] = true
		}
	}
	s.counters = copyMap(snap.Counters)
}

// Reset clears affection, currency, flags and counters. Caps are kept.
func (s *Store) Reset() {
	s.affection = map[string]int{}
	s.currency = map[string]int{}
	s.flags = map[string]bool{}
	s.counters = map[string]int{}
}

func (s *Store) publish(m bus.Message) {
	if s.bus != nil {
		s.bus.Publish(m)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func copyMap(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
