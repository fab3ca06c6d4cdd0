// Package store contains the storage layer for the tiled dataset.
package store

// BuildJob describes one per-tile build submitted to the job-processing
// service. The system does not track job identity after submission; the
// storage layout is the only completion ledger.
type BuildJob struct {
	Bucket  string
	Prefix  string
	TileID  string
	JobCode string
	Test    bool
	Quality bool
}

// TileState is the lifecycle state of a tile as a dataset entity.
type TileState string

const (
	// TileNotStarted: no checkpoint, no metadata.
	TileNotStarted TileState = "not_started"
	// TileInProgress: checkpoint exists, metadata absent.
	TileInProgress TileState = "in_progress"
	// TileComplete: metadata present. Presence of the metadata entry is the
	// single source of truth for completion.
	TileComplete TileState = "complete"
)
