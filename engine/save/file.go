package save

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileSlots stores each slot as save_<n>.json in a directory.
type FileSlots struct {
	Dir string
}

// NewFileSlots returns a file slot store rooted at dir.
func NewFileSlots(dir string) *FileSlots {
	return &FileSlots{Dir: dir}
}

// Path returns the file backing slot.
func (f *FileSlots) Path(slot int) string {
	return filepath.Join(f.Dir, fmt.Sprintf("save_%d.json", slot))
}

// Write stores sd in slot, replacing any previous save atomically.
func (f *FileSlots) Write(ctx context.Context, slot int, sd *SaveData) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := CheckSlot(slot); err != nil {
		return err
	}
	data, err := Encode(sd)
	if err != nil {
		return fmt.Errorf("encode save: %w", err)
	}
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return fmt.Errorf("create save dir: %w", err)
	}
	tmp := f.Path(slot) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write save: %w", err)
	}
	if err := os.Rename(tmp, f.Path(slot)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write save: %w", err)
	}
	return nil
}

// Read loads slot. A missing file is ErrEmptySlot.
func (f *FileSlots) Read(ctx context.Context, slot int) (*SaveData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := CheckSlot(slot); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path(slot))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrEmptySlot
	}
	if err != nil {
		return nil, fmt.Errorf("read save: %w", err)
	}
	return Decode(data)
}

// Delete removes slot. Deleting an empty slot is not an error.
func (f *FileSlots) Delete(ctx context.Context, slot int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := CheckSlot(slot); err != nil {
		return err
	}
	err := os.Remove(f.Path(slot))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete save: %w", err)
	}
	return nil
}
