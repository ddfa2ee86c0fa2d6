// Package characters is the registry of static character definitions and
// the affection-tier lookup built on it.
package characters

import (
	"go.uber.org/zap"

	"github.com/nathoo/lovecore/types"
)

// DefaultTiers applies to characters defined without their own tier list.
var DefaultTiers = []types.Tier{
	{Name: "Stranger", Threshold: 0},
	{Name: "Acquaintance", Threshold: 20},
	{Name: "Friend", Threshold: 40},
	{Name: "Close Friend", Threshold: 60},
	{Name: "Sweetheart", Threshold: 80},
}

// MaxSetter receives per-character affection caps at load time.
type MaxSetter interface {
	SetMaxAffection(id string, max int)
}

// Registry holds character definitions in load order.
type Registry struct {
	defs  map[string]types.CharacterDef
	order []string
	log   *zap.Logger
}

// New creates a registry from defs. Duplicate and empty ids are dropped
// with a warning; the first definition wins.
func New(defs []types.CharacterDef, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Registry{defs: map[string]types.CharacterDef{}, log: log.Named("characters")}
	for _, d := range defs {
		if d.ID == "" {
			r.log.Warn("character without id dropped")
			continue
		}
		if _, dup := r.defs[d.ID]; dup {
			r.log.Warn("duplicate character dropped", zap.String("character", d.ID))
			continue
		}
		if len(d.Tiers) == 0 {
			d.Tiers = DefaultTiers
		}
		r.defs[d.ID] = d
		r.order = append(r.order, d.ID)
	}
	return r
}

// ApplyCaps pushes every character's max affection into s.
func (r *Registry) ApplyCaps(s MaxSetter) {
	for _, id := range r.order {
		if m := r.defs[id].MaxAffection; m > 0 {
			s.SetMaxAffection(id, m)
		}
	}
}

// Get returns the definition for id.
func (r *Registry) Get(id string) (types.CharacterDef, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// Known reports whether id is a defined character.
func (r *Registry) Known(id string) bool {
	_, ok := r.defs[id]
	return ok
}

// IDs returns character ids in load order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// DisplayName returns the character's display name, or id itself when the
// character is unknown or has none.
func (r *Registry) DisplayName(id string) string {
	if d, ok := r.defs[id]; ok && d.DisplayName != "" {
		return d.DisplayName
	}
	return id
}

// TierName resolves the tier with the highest threshold <= affection.
// Among equal thresholds the later entry wins. Unknown characters
// and characters without tiers resolve against DefaultTiers.
func (r *Registry) TierName(id string, affection int) string {
	tiers := DefaultTiers
	if d, ok := r.defs[id]; ok && len(d.Tiers) > 0 {
		tiers = d.Tiers
	}
	return TierOf(tiers, affection)
}

// TierOf resolves affection against an unsorted tier list in a single
// forward scan. It returns "" when no threshold is <= affection.
func TierOf(tiers []types.Tier, affection int) string {
	name := ""
	best := 0
	found := false
	for _, t := range tiers {
		if t.Threshold > affection {
			continue
		}
		if !found || t.Threshold >= best {
			name, best, found = t.Name, t.Threshold, true
		}
	}
	return name
}
