package events

import (
	"go.uber.org/zap"

	"github.com/nathoo/lovecore/engine/rules"
	"github.com/nathoo/lovecore/types"
)

// IdleSource supplies idle-line groups.
type IdleSource interface {
	IdleGroups() ([]types.IdleGroup, error)
}

// IdleRegistry is the idle-line pool. It loads lazily on first query.
type IdleRegistry struct {
	src    IdleSource
	log    *zap.Logger
	loaded bool
	groups []types.IdleGroup
}

// NewIdleRegistry creates a registry backed by src.
func NewIdleRegistry(src IdleSource, log *zap.Logger) *IdleRegistry {
	if log == nil {
		log = zap.NewNop()
	}
	return &IdleRegistry{src: src, log: log.Named("idle")}
}

// Reload re-reads the source. On error the previous contents are kept.
func (r *IdleRegistry) Reload() error {
	defs, err := r.src.IdleGroups()
	if err != nil {
		r.log.Error("loading idle groups failed", zap.Error(err))
		return err
	}
	seen := map[string]bool{}
	groups := make([]types.IdleGroup, 0, len(defs))
	for i, g := range defs {
		if g.ID != "" {
			if seen[g.ID] {
				r.log.Warn("duplicate idle group dropped", zap.String("group", g.ID))
				continue
			}
			seen[g.ID] = true
		}
		g.SourceOrder = i
		groups = append(groups, g)
	}
	rules.Rank(groups)
	r.groups = groups
	r.loaded = true
	return nil
}

func (r *IdleRegistry) ensure() {
	if !r.loaded {
		_ = r.Reload()
		r.loaded = true
	}
}

// Count returns the number of loaded groups.
func (r *IdleRegistry) Count() int {
	r.ensure()
	return len(r.groups)
}

// GetAvailableLines returns every line from the eligible groups tied for
// the highest eligible priority.
func (r *IdleRegistry) GetAvailableLines(facts rules.Facts, w rules.World) []string {
	r.ensure()
	var lines []string
	found := false
	top := 0
	for _, g := range r.groups {
		if found && g.Priority < top {
			continue
		}
		if !rules.Evaluate(g.Condition, facts, w) {
			continue
		}
		if !found {
			found = true
			top = g.Priority
		}
		lines = append(lines, g.Lines...)
	}
	return lines
}
