// Package save implements the persisted form of a session and the slot
// stores that hold it.
package save

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nathoo/lovecore/engine/state"
	"github.com/nathoo/lovecore/engine/world"
	"github.com/nathoo/lovecore/types"
)

// FormatVersion is written into every save.
const FormatVersion = 1

// MaxSlots is the number of save slots, numbered 1..MaxSlots.
const MaxSlots = 5

var (
	// ErrInvalidSlot is returned for slot numbers outside 1..MaxSlots.
	ErrInvalidSlot = errors.New("invalid save slot")
	// ErrEmptySlot is returned when reading a slot that holds no save.
	ErrEmptySlot = errors.New("save slot is empty")
)

// SaveData is the JSON-serializable save format.
type SaveData struct {
	Version   int            `json:"version"`
	Game      string         `json:"game"`
	SessionID string         `json:"session_id"`
	SavedAt   time.Time      `json:"saved_at"`
	PlayTime  time.Duration  `json:"play_time_ns"`
	Mode      types.Mode     `json:"mode"`
	RNGSeed   int64          `json:"rng_seed"`
	RNGPos    int64          `json:"rng_position"`
	State     state.Snapshot `json:"state"`
	World     world.Snapshot `json:"world"`
}

// SlotInfo summarizes a slot for menus.
type SlotInfo struct {
	Slot      int
	Empty     bool
	SavedAt   time.Time
	PlayTime  time.Duration
	Day       int
	TimeOfDay types.TimeOfDay
	Location  types.Location
}

// Slots stores saves by slot number.
type Slots interface {
	Write(ctx context.Context, slot int, sd *SaveData) error
	Read(ctx context.Context, slot int) (*SaveData, error)
	Delete(ctx context.Context, slot int) error
}

// Encode serializes save data to JSON bytes.
func Encode(sd *SaveData) ([]byte, error) {
	return json.MarshalIndent(sd, "", "  ")
}

// Decode deserializes JSON bytes into SaveData.
func Decode(data []byte) (*SaveData, error) {
	var sd SaveData
	if err := json.Unmarshal(data, &sd); err != nil {
		return nil, fmt.Errorf("decode save: %w", err)
	}
	if sd.Version > FormatVersion {
		return nil, fmt.Errorf("decode save: unsupported version %d", sd.Version)
	}
	if !sd.World.TimeOfDay.Valid() {
		return nil, fmt.Errorf("decode save: invalid time of day %d", int(sd.World.TimeOfDay))
	}
	if !sd.World.Location.Valid() {
		return nil, fmt.Errorf("decode save: invalid location %d", int(sd.World.Location))
	}
	// Ensure maps are never nil after load.
	if sd.State.Affection == nil {
		sd.State.Affection = map[string]int{}
	}
	if sd.State.Currency == nil {
		sd.State.Currency = map[string]int{}
	}
	if sd.State.Counters == nil {
		sd.State.Counters = map[string]int{}
	}
	if sd.State.Flags == nil {
		sd.State.Flags = []string{}
	}
	if sd.World.TriggeredEvents == nil {
		sd.World.TriggeredEvents = []string{}
	}
	if sd.World.Day < 1 {
		sd.World.Day = 1
	}
	return &sd, nil
}

// CheckSlot validates a slot number.
func CheckSlot(slot int) error {
	if slot < 1 || slot > MaxSlots {
		return fmt.Errorf("%w: %d (want 1..%d)", ErrInvalidSlot, slot, MaxSlots)
	}
	return nil
}

// Info summarizes one slot. Empty slots are reported, not returned as errors.
func Info(ctx context.Context, s Slots, slot int) (SlotInfo, error) {
	if err := CheckSlot(slot); err != nil {
		return SlotInfo{}, err
	}
	sd, err := s.Read(ctx, slot)
	if errors.Is(err, ErrEmptySlot) {
		return SlotInfo{Slot: slot, Empty: true}, nil
	}
	if err != nil {
		return SlotInfo{}, err
	}
	return SlotInfo{
		Slot:      slot,
		SavedAt:   sd.SavedAt,
		PlayTime:  sd.PlayTime,
		Day:       sd.World.Day,
		TimeOfDay: sd.World.TimeOfDay,
		Location:  sd.World.Location,
	}, nil
}

// List summarizes every slot in order. Unreadable slots are reported empty.
func List(ctx context.Context, s Slots) []SlotInfo {
	out := make([]SlotInfo, 0, MaxSlots)
	for slot := 1; slot <= MaxSlots; slot++ {
		info, err := Info(ctx, s, slot)
		if err != nil {
			info = SlotInfo{Slot: slot, Empty: true}
		}
		out = append(out, info)
	}
	return out
}
