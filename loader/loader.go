package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/nathoo/lovecore/types"
)

// ErrNotFound is returned when requested content does not exist.
var ErrNotFound = errors.New("content not found")

// Content holds the static definitions compiled from a content directory.
type Content struct {
	Game       types.GameDef
	Characters []types.CharacterDef
	Events     []types.StoryEvent
	Idle       []types.IdleGroup
}

// StoryEvents returns the story events in load order.
func (c *Content) StoryEvents() ([]types.StoryEvent, error) {
	return c.Events, nil
}

// IdleGroups returns the idle-line groups in load order.
func (c *Content) IdleGroups() ([]types.IdleGroup, error) {
	return c.Idle, nil
}

// collector accumulates Lua definitions during file execution.
type collector struct {
	game       *lua.LTable
	characters []rawDef
	events     []rawDef
	idle       []rawDef
	order      int
}

func (c *collector) nextSourceOrder() int {
	c.order++
	return c.order
}

// Load reads all .lua files from dir, compiles them into content
// definitions, and validates them against the dialogues in
// dir/dialogues. Warnings are logged; errors are returned as a
// *ValidationError. The Lua VM is discarded after loading.
func Load(dir string, log *zap.Logger) (*Content, *Dialogues, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("loader")

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("reading content directory %s: %w", dir, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".lua") {
			luaFiles = append(luaFiles, e.Name())
		}
	}
	if len(luaFiles) == 0 {
		return nil, nil, fmt.Errorf("no .lua files found in %s", dir)
	}
	luaFiles = sortedLuaFiles(luaFiles)

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	openSafeLibs(L)
	sandbox(L)

	coll := &collector{}
	registerAPI(L, coll)

	for _, f := range luaFiles {
		if err := L.DoFile(filepath.Join(dir, f)); err != nil {
			return nil, nil, fmt.Errorf("executing %s: %w", f, err)
		}
	}

	content, err := compile(coll)
	if err != nil {
		return nil, nil, fmt.Errorf("compiling content: %w", err)
	}

	dialogues := NewDialogues(os.DirFS(filepath.Join(dir, "dialogues")), log)
	if err := Validate(content, dialogues, log); err != nil {
		return nil, nil, err
	}
	log.Info("content loaded",
		zap.String("title", content.Game.Title),
		zap.Int("characters", len(content.Characters)),
		zap.Int("events", len(content.Events)),
		zap.Int("idle_groups", len(content.Idle)))
	return content, dialogues, nil
}

// sortedLuaFiles puts game.lua first, the rest alphabetically.
func sortedLuaFiles(files []string) []string {
	sort.Slice(files, func(i, j int) bool {
		if files[i] == "game.lua" {
			return true
		}
		if files[j] == "game.lua" {
			return false
		}
		return files[i] < files[j]
	})
	return files
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// sandbox removes dangerous globals and functions.
func sandbox(L *lua.LState) {
	dangerous := []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"collectgarbage",
	}
	for _, name := range dangerous {
		L.SetGlobal(name, lua.LNil)
	}
	if mathTbl, ok := L.GetGlobal("math").(*lua.LTable); ok {
		mathTbl.RawSetString("randomseed", lua.LNil)
	}
}
