package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/nathoo/lovecore/types"
)

// Dialogues reads dialogue graphs from <id>.json files and caches them
// until Reload.
type Dialogues struct {
	fsys  fs.FS
	log   *zap.Logger
	cache map[string]types.DialogueGraph
}

// NewDialogues creates a dialogue store over fsys.
func NewDialogues(fsys fs.FS, log *zap.Logger) *Dialogues {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dialogues{fsys: fsys, log: log.Named("dialogues"), cache: map[string]types.DialogueGraph{}}
}

// Dialogue returns the graph for id.
func (d *Dialogues) Dialogue(id string) (types.DialogueGraph, error) {
	if !validID(id) {
		return types.DialogueGraph{}, fmt.Errorf("dialogue %q: %w", id, ErrNotFound)
	}
	if g, ok := d.cache[id]; ok {
		return g, nil
	}
	data, err := fs.ReadFile(d.fsys, id+".json")
	if errors.Is(err, fs.ErrNotExist) {
		return types.DialogueGraph{}, fmt.Errorf("dialogue %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return types.DialogueGraph{}, fmt.Errorf("reading dialogue %q: %w", id, err)
	}
	g, err := ParseDialogue(data)
	if err != nil {
		return types.DialogueGraph{}, fmt.Errorf("dialogue %q: %w", id, err)
	}
	if g.ID == "" {
		g.ID = id
	} else if g.ID != id {
		d.log.Warn("dialogue id differs from file name", zap.String("file", id), zap.String("dialogue", g.ID))
	}
	d.cache[id] = g
	return g, nil
}

// Exists reports whether a dialogue file for id is present.
func (d *Dialogues) Exists(id string) bool {
	if !validID(id) {
		return false
	}
	if _, ok := d.cache[id]; ok {
		return true
	}
	_, err := fs.Stat(d.fsys, id+".json")
	return err == nil
}

// IDs lists every dialogue id in sorted order.
func (d *Dialogues) IDs() ([]string, error) {
	matches, err := fs.Glob(d.fsys, "*.json")
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, strings.TrimSuffix(path.Base(m), ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

// Reload drops every cached graph.
func (d *Dialogues) Reload() {
	d.cache = map[string]types.DialogueGraph{}
}

// ParseDialogue decodes one dialogue graph document.
func ParseDialogue(data []byte) (types.DialogueGraph, error) {
	var g types.DialogueGraph
	if err := json.Unmarshal(data, &g); err != nil {
		return types.DialogueGraph{}, fmt.Errorf("parse dialogue: %w", err)
	}
	return g, nil
}

func validID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\`) && id != "." && id != ".."
}

// DialogueMap is an in-memory dialogue source.
type DialogueMap map[string]types.DialogueGraph

// Dialogue returns the graph for id.
func (m DialogueMap) Dialogue(id string) (types.DialogueGraph, error) {
	g, ok := m[id]
	if !ok {
		return types.DialogueGraph{}, fmt.Errorf("dialogue %q: %w", id, ErrNotFound)
	}
	if g.ID == "" {
		g.ID = id
	}
	return g, nil
}
