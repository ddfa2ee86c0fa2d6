package loader

import (
	lua "github.com/yuin/gopher-lua"
)

// registerAPI registers all Lua constructors and helpers as globals.
func registerAPI(L *lua.LState, coll *collector) {
	registerConstructors(L, coll)
	registerConditionHelpers(L)
}

func registerConstructors(L *lua.LState, coll *collector) {
	// Game { title = "...", ... }
	L.SetGlobal("Game", L.NewFunction(func(L *lua.LState) int {
		coll.game = L.CheckTable(1)
		return 0
	}))

	// Character "id" { ... }, Event "id" { ... }, Idle "id" { ... }
	L.SetGlobal("Character", curried(L, func(d rawDef) { coll.characters = append(coll.characters, d) }, coll))
	L.SetGlobal("Event", curried(L, func(d rawDef) { coll.events = append(coll.events, d) }, coll))
	L.SetGlobal("Idle", curried(L, func(d rawDef) { coll.idle = append(coll.idle, d) }, coll))
}

// curried builds a constructor of the form Name("id") { ... }.
func curried(L *lua.LState, add func(rawDef), coll *collector) *lua.LFunction {
	return L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			add(rawDef{id: id, table: tbl, order: coll.nextSourceOrder()})
			return 0
		}))
		return 1
	})
}

// Condition helpers return clause tables that compile into one
// types.Condition per `when` list.
func registerConditionHelpers(L *lua.LState) {
	// Day(min [, max])
	L.SetGlobal("Day", L.NewFunction(func(L *lua.LState) int {
		tbl := clause(L, "day")
		tbl.RawSetString("min", L.CheckNumber(1))
		if max, ok := L.Get(2).(lua.LNumber); ok {
			tbl.RawSetString("max", max)
		}
		L.Push(tbl)
		return 1
	}))

	// At("evening")
	L.SetGlobal("At", L.NewFunction(func(L *lua.LState) int {
		tbl := clause(L, "time")
		tbl.RawSetString("time", lua.LString(L.CheckString(1)))
		L.Push(tbl)
		return 1
	}))

	// In("cafe")
	L.SetGlobal("In", L.NewFunction(func(L *lua.LState) int {
		tbl := clause(L, "location")
		tbl.RawSetString("location", lua.LString(L.CheckString(1)))
		L.Push(tbl)
		return 1
	}))

	// Affection("yuna", min [, max])
	L.SetGlobal("Affection", L.NewFunction(func(L *lua.LState) int {
		tbl := clause(L, "affection")
		tbl.RawSetString("character", lua.LString(L.CheckString(1)))
		if min, ok := L.Get(2).(lua.LNumber); ok {
			tbl.RawSetString("min", min)
		}
		if max, ok := L.Get(3).(lua.LNumber); ok {
			tbl.RawSetString("max", max)
		}
		L.Push(tbl)
		return 1
	}))

	// Flag("met_yuna")
	L.SetGlobal("Flag", L.NewFunction(func(L *lua.LState) int {
		tbl := clause(L, "flag")
		tbl.RawSetString("flag", lua.LString(L.CheckString(1)))
		L.Push(tbl)
		return 1
	}))

	// NotFlag("met_yuna")
	L.SetGlobal("NotFlag", L.NewFunction(func(L *lua.LState) int {
		tbl := clause(L, "not_flag")
		tbl.RawSetString("flag", lua.LString(L.CheckString(1)))
		L.Push(tbl)
		return 1
	}))
}

func clause(L *lua.LState, kind string) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString("type", lua.LString(kind))
	return tbl
}
