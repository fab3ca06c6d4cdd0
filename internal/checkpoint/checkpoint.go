// Package checkpoint persists per-tile build progress so that a rerun worker
// resumes instead of redoing finished units. Records are versioned,
// self-describing JSON so they stay readable across implementation changes.
//
// Saves are plain overwrites with last-writer-wins semantics. That is safe
// only under the documented operating precondition that at most one worker is
// active per tile; the store adds no locking of its own.
package checkpoint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"tileforge/internal/grid"
	"tileforge/internal/layout"
	"tileforge/internal/store"
)

// SchemaVersion is the current checkpoint record version.
const SchemaVersion = 1

// ErrNotFound is returned by Load when a tile has no checkpoint yet.
var ErrNotFound = errors.New("checkpoint not found")

// Checkpoint is one tile's durable progress record. ProgressMarker is the
// last fully completed year; a restarted worker resumes at ProgressMarker+1.
type Checkpoint struct {
	SchemaVersion  int            `json:"schema_version"`
	TileID         string         `json:"tile_id"`
	ProgressMarker int            `json:"progress_marker"`
	UpdatedAt      time.Time      `json:"updated_at"`
	State          map[string]any `json:"state,omitempty"`
}

// Store reads and writes checkpoint records for one dataset destination.
// There is deliberately no Delete: removal is a manual operator action done
// jointly with removing the tile's data and metadata.
type Store struct {
	store  store.ObjectStore
	prefix string
}

// NewStore creates a checkpoint store over the dataset at prefix.
func NewStore(st store.ObjectStore, prefix string) *Store {
	return &Store{store: st, prefix: layout.Normalize(prefix)}
}

// Load reads a tile's checkpoint. Returns ErrNotFound when the tile has
// never been worked on.
func (s *Store) Load(ctx context.Context, tileID string) (*Checkpoint, error) {
	if _, err := grid.ParseID(tileID); err != nil {
		return nil, err
	}
	rc, err := s.store.Get(ctx, layout.CheckpointObject(s.prefix, tileID))
	if errors.Is(err, store.ErrNotExist) {
		return nil, fmt.Errorf("tile %s: %w", tileID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load checkpoint for %s: %w", tileID, err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read checkpoint for %s: %w", tileID, err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(raw, &cp); err != nil {
		return nil, fmt.Errorf("decode checkpoint for %s: %w", tileID, err)
	}
	if cp.SchemaVersion > SchemaVersion {
		return nil, fmt.Errorf("checkpoint for %s has schema version %d, newest supported is %d",
			tileID, cp.SchemaVersion, SchemaVersion)
	}
	if cp.TileID != tileID {
		return nil, fmt.Errorf("checkpoint for %s names tile %s", tileID, cp.TileID)
	}
	return &cp, nil
}

// Save overwrites the tile's checkpoint. The record is stamped with the
// current schema version and time.
func (s *Store) Save(ctx context.Context, cp *Checkpoint) error {
	if _, err := grid.ParseID(cp.TileID); err != nil {
		return err
	}
	out := *cp
	out.SchemaVersion = SchemaVersion
	out.UpdatedAt = time.Now().UTC()

	raw, err := json.Marshal(&out)
	if err != nil {
		return fmt.Errorf("encode checkpoint for %s: %w", cp.TileID, err)
	}
	key := layout.CheckpointObject(s.prefix, cp.TileID)
	if err := s.store.Put(ctx, key, bytes.NewReader(raw), int64(len(raw))); err != nil {
		return fmt.Errorf("save checkpoint for %s: %w", cp.TileID, err)
	}
	return nil
}
