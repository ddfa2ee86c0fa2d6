// Package loader loads Lua content definitions and JSON dialogue graphs
// into Go structs. The Lua VM is discarded after loading.
package loader

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/lovecore/types"
)

// rawDef holds a curried definition table before compilation.
type rawDef struct {
	id    string
	table *lua.LTable
	order int
}

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	if s, ok := tbl.RawGetString(key).(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getBool returns a bool field from a Lua table, or the default if missing.
func getBool(tbl *lua.LTable, key string, def bool) bool {
	if b, ok := tbl.RawGetString(key).(lua.LBool); ok {
		return bool(b)
	}
	return def
}

// getInt returns an int field from a Lua table, or 0 if missing.
func getInt(tbl *lua.LTable, key string) int {
	if n, ok := tbl.RawGetString(key).(lua.LNumber); ok {
		return int(n)
	}
	return 0
}

// getIntPtr returns an int field, or nil if missing.
func getIntPtr(tbl *lua.LTable, key string) *int {
	if n, ok := tbl.RawGetString(key).(lua.LNumber); ok {
		v := int(n)
		return &v
	}
	return nil
}

// getTable returns a table field from a Lua table, or nil if missing.
func getTable(tbl *lua.LTable, key string) *lua.LTable {
	if t, ok := tbl.RawGetString(key).(*lua.LTable); ok {
		return t
	}
	return nil
}

// stringList converts a Lua array of strings. Non-strings are skipped.
func stringList(tbl *lua.LTable) []string {
	if tbl == nil {
		return nil
	}
	var out []string
	for i := 1; i <= tbl.MaxN(); i++ {
		if s, ok := tbl.RawGetInt(i).(lua.LString); ok {
			out = append(out, string(s))
		}
	}
	return out
}

// compile converts all collected Lua data into Content.
func compile(coll *collector) (*Content, error) {
	if coll.game == nil {
		return nil, fmt.Errorf("no Game{} definition found")
	}
	game, err := compileGame(coll.game)
	if err != nil {
		return nil, fmt.Errorf("compiling game: %w", err)
	}
	c := &Content{Game: game}

	for _, raw := range coll.characters {
		ch, err := compileCharacter(raw)
		if err != nil {
			return nil, fmt.Errorf("compiling character %s: %w", raw.id, err)
		}
		c.Characters = append(c.Characters, ch)
	}
	for _, raw := range coll.events {
		ev, err := compileEvent(raw)
		if err != nil {
			return nil, fmt.Errorf("compiling event %s: %w", raw.id, err)
		}
		c.Events = append(c.Events, ev)
	}
	for _, raw := range coll.idle {
		g, err := compileIdle(raw)
		if err != nil {
			return nil, fmt.Errorf("compiling idle group %s: %w", raw.id, err)
		}
		c.Idle = append(c.Idle, g)
	}
	return c, nil
}

func compileGame(tbl *lua.LTable) (types.GameDef, error) {
	g := types.GameDef{
		Title:   getString(tbl, "title"),
		Author:  getString(tbl, "author"),
		Version: getString(tbl, "version"),
		Opening: getString(tbl, "opening"),
	}
	if loc := getString(tbl, "location"); loc != "" {
		l, err := types.ParseLocation(loc)
		if err != nil {
			return g, err
		}
		g.Location = l
	}
	return g, nil
}

// compileCharacter accepts tiers as { "Name", threshold } pairs or
// { name = "...", threshold = n } tables.
func compileCharacter(raw rawDef) (types.CharacterDef, error) {
	d := types.CharacterDef{
		ID:           raw.id,
		DisplayName:  getString(raw.table, "name"),
		Description:  getString(raw.table, "description"),
		MaxAffection: getInt(raw.table, "max_affection"),
	}
	if d.MaxAffection < 0 {
		return d, fmt.Errorf("max_affection must not be negative")
	}
	tiers := getTable(raw.table, "tiers")
	if tiers == nil {
		return d, nil
	}
	for i := 1; i <= tiers.MaxN(); i++ {
		entry, ok := tiers.RawGetInt(i).(*lua.LTable)
		if !ok {
			return d, fmt.Errorf("tier %d is not a table", i)
		}
		t := types.Tier{Name: getString(entry, "name"), Threshold: getInt(entry, "threshold")}
		if name, ok := entry.RawGetInt(1).(lua.LString); ok {
			t.Name = string(name)
			if n, ok := entry.RawGetInt(2).(lua.LNumber); ok {
				t.Threshold = int(n)
			}
		}
		if t.Name == "" {
			return d, fmt.Errorf("tier %d has no name", i)
		}
		d.Tiers = append(d.Tiers, t)
	}
	return d, nil
}

func compileEvent(raw rawDef) (types.StoryEvent, error) {
	e := types.StoryEvent{
		ID:          raw.id,
		DialogueID:  getString(raw.table, "dialogue"),
		Description: getString(raw.table, "description"),
		Priority:    getInt(raw.table, "priority"),
		Repeatable:  getBool(raw.table, "repeatable", false),
		SourceOrder: raw.order,
	}
	if e.DialogueID == "" {
		e.DialogueID = raw.id
	}
	cond, err := compileCondition(getTable(raw.table, "when"))
	if err != nil {
		return e, err
	}
	e.Condition = cond
	return e, nil
}

func compileIdle(raw rawDef) (types.IdleGroup, error) {
	g := types.IdleGroup{
		ID:          raw.id,
		Priority:    getInt(raw.table, "priority"),
		Lines:       stringList(getTable(raw.table, "lines")),
		SourceOrder: raw.order,
	}
	cond, err := compileCondition(getTable(raw.table, "when"))
	if err != nil {
		return g, err
	}
	g.Condition = cond
	return g, nil
}

// compileCondition folds a list of clause tables into one Condition. A
// single clause may be given without the enclosing list.
func compileCondition(tbl *lua.LTable) (types.Condition, error) {
	var c types.Condition
	if tbl == nil {
		return c, nil
	}
	clauses := []*lua.LTable{tbl}
	if getString(tbl, "type") == "" {
		clauses = clauses[:0]
		for i := 1; i <= tbl.MaxN(); i++ {
			cl, ok := tbl.RawGetInt(i).(*lua.LTable)
			if !ok {
				return c, fmt.Errorf("condition %d is not a table", i)
			}
			clauses = append(clauses, cl)
		}
	}

	for _, cl := range clauses {
		switch kind := getString(cl, "type"); kind {
		case "day":
			c.MinDay = getInt(cl, "min")
			c.MaxDay = getInt(cl, "max")
		case "time":
			t, err := types.ParseTimeOfDay(getString(cl, "time"))
			if err != nil {
				return c, err
			}
			c.TimeOfDay = &t
		case "location":
			l, err := types.ParseLocation(getString(cl, "location"))
			if err != nil {
				return c, err
			}
			c.Location = &l
		case "affection":
			id := getString(cl, "character")
			if c.CharacterID != "" && c.CharacterID != id {
				return c, fmt.Errorf("affection clauses for %q and %q: one character per condition", c.CharacterID, id)
			}
			c.CharacterID = id
			c.MinAffection = getIntPtr(cl, "min")
			c.MaxAffection = getIntPtr(cl, "max")
		case "flag":
			c.RequiredFlags = append(c.RequiredFlags, getString(cl, "flag"))
		case "not_flag":
			c.ForbiddenFlags = append(c.ForbiddenFlags, getString(cl, "flag"))
		default:
			return c, fmt.Errorf("unknown condition type %q", kind)
		}
	}
	return c, nil
}
