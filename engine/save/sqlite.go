package save

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS save_slots (
	slot       INTEGER PRIMARY KEY,
	saved_at   INTEGER NOT NULL,
	play_time  INTEGER NOT NULL,
	day        INTEGER NOT NULL,
	payload    BLOB NOT NULL
)`

// SQLiteSlots stores slots as rows of a SQLite database.
type SQLiteSlots struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) a SQLite slot store at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteSlots, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	clean := filepath.Clean(path)
	if dir := filepath.Dir(clean); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", clean+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteSlots{db: db}, nil
}

// Close closes the database handle.
func (s *SQLiteSlots) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Write stores sd in slot, replacing any previous save.
func (s *SQLiteSlots) Write(ctx context.Context, slot int, sd *SaveData) error {
	if err := CheckSlot(slot); err != nil {
		return err
	}
	data, err := Encode(sd)
	if err != nil {
		return fmt.Errorf("encode save: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO save_slots (slot, saved_at, play_time, day, payload)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(slot) DO UPDATE SET
		   saved_at = excluded.saved_at,
		   play_time = excluded.play_time,
		   day = excluded.day,
		   payload = excluded.payload`,
		slot,
		sd.SavedAt.UTC().UnixMilli(),
		int64(sd.PlayTime/time.Millisecond),
		sd.World.Day,
		data,
	)
	if err != nil {
		return fmt.Errorf("write save slot %d: %w", slot, err)
	}
	return nil
}

// Read loads slot. A missing row is ErrEmptySlot.
func (s *SQLiteSlots) Read(ctx context.Context, slot int) (*SaveData, error) {
	if err := CheckSlot(slot); err != nil {
		return nil, err
	}
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM save_slots WHERE slot = ?`, slot).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEmptySlot
	}
	if err != nil {
		return nil, fmt.Errorf("read save slot %d: %w", slot, err)
	}
	return Decode(data)
}

// Delete removes slot. Deleting an empty slot is not an error.
func (s *SQLiteSlots) Delete(ctx context.Context, slot int) error {
	if err := CheckSlot(slot); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM save_slots WHERE slot = ?`, slot); err != nil {
		return fmt.Errorf("delete save slot %d: %w", slot, err)
	}
	return nil
}
