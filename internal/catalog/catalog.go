// Package catalog inspects destination storage to determine which tiles are
// already complete. Completion is read exclusively from metadata presence:
// data partitions and checkpoints may be partially populated for in-progress
// tiles and are never consulted.
package catalog

import (
	"context"
	"fmt"

	"tileforge/internal/grid"
	"tileforge/internal/layout"
	"tileforge/internal/store"
)

// Catalog is a read-only view over one dataset destination. Safe for
// concurrent and repeated invocation.
type Catalog struct {
	store  store.ObjectStore
	prefix string
}

// New creates a catalog over the dataset at prefix.
func New(st store.ObjectStore, prefix string) *Catalog {
	return &Catalog{store: st, prefix: layout.Normalize(prefix)}
}

// Complete enumerates the tile IDs that have a metadata entry, which is
// the authoritative complete set. Keys that do not carry a valid tile
// partition are ignored.
func (c *Catalog) Complete(ctx context.Context) (map[string]struct{}, error) {
	keys, err := c.store.List(ctx, layout.MetadataPrefix(c.prefix))
	if err != nil {
		return nil, fmt.Errorf("list metadata: %w", err)
	}
	complete := make(map[string]struct{})
	for _, key := range keys {
		id, ok := layout.TileIDFromKey(key)
		if !ok {
			continue
		}
		if _, err := grid.ParseID(id); err != nil {
			continue
		}
		complete[id] = struct{}{}
	}
	return complete, nil
}

// State classifies one tile per the lifecycle: metadata present means
// complete, else a checkpoint means in progress, else not started.
func (c *Catalog) State(ctx context.Context, tileID string) (store.TileState, error) {
	if _, err := grid.ParseID(tileID); err != nil {
		return "", err
	}
	keys, err := c.store.List(ctx, layout.TileMetadataPrefix(c.prefix, tileID))
	if err != nil {
		return "", fmt.Errorf("list tile metadata: %w", err)
	}
	if len(keys) > 0 {
		return store.TileComplete, nil
	}
	ok, err := c.store.Exists(ctx, layout.CheckpointObject(c.prefix, tileID))
	if err != nil {
		return "", fmt.Errorf("stat checkpoint: %w", err)
	}
	if ok {
		return store.TileInProgress, nil
	}
	return store.TileNotStarted, nil
}
