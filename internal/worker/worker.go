// Package worker contains the per-tile build logic that runs inside a
// job-service execution. One worker builds one tile: it processes calendar
// years in sequence, persists each year's partition before advancing the
// checkpoint, and flips the tile to complete by writing the metadata entry
// only after the last year.
package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/parquet-go/parquet-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"tileforge/internal/checkpoint"
	"tileforge/internal/grid"
	"tileforge/internal/layout"
	"tileforge/internal/store"
)

// DefaultStartYear is the first year of the observation archive.
const DefaultStartYear = 2019

// Observation is one georeferenced measurement. Column names match the
// dataset schema; rows are partitioned by tile_id and year on write.
type Observation struct {
	ShotNumber     uint64  `parquet:"shot_number,zstd"`
	BeamName       string  `parquet:"beam_name,zstd"`
	GranuleKey     string  `parquet:"granule,zstd"`
	LonLowestmode  float64 `parquet:"lon_lowestmode,zstd"`
	LatLowestmode  float64 `parquet:"lat_lowestmode,zstd"`
	ElevLowestmode float64 `parquet:"elev_lowestmode,zstd"`
	AbsoluteTime   int64   `parquet:"absolute_time,zstd"` // microseconds since epoch, UTC
	QualityFlag    int32   `parquet:"quality_flag,zstd"`
	Sensitivity    float64 `parquet:"sensitivity,zstd"`
	SensitivityA2  float64 `parquet:"sensitivity_a2,zstd"`
	DegradeFlag    int32   `parquet:"degrade_flag,zstd"`
	SurfaceFlag    int32   `parquet:"surface_flag,zstd"`
	TileID         string  `parquet:"tile_id,zstd"`
	Year           int32   `parquet:"year,zstd"`
}

// TileSummary is one row of a tile's metadata entry, describing one built
// year. The entry's presence, not its contents, is the completion signal.
type TileSummary struct {
	TileID      string `parquet:"tile_id,zstd"`
	Year        int32  `parquet:"year,zstd"`
	RecordCount int64  `parquet:"record_count,zstd"`
	BuiltAt     int64  `parquet:"built_at,zstd"` // unix seconds, UTC
}

// ObservationSource yields the observations falling in one tile for one
// year. Implementations need not clip precisely; the worker re-applies the
// tile bounds before writing. The returned slice stays owned by the source
// and is never modified, so cached slices are safe to return.
type ObservationSource interface {
	Observations(ctx context.Context, tile grid.Tile, year int) ([]Observation, error)
}

// qdegradeAllowed are the degrade_flag values the quality filter accepts.
var qdegradeAllowed = map[int32]bool{
	0: true, 3: true, 8: true, 10: true, 13: true, 18: true,
	20: true, 23: true, 28: true, 30: true, 33: true, 38: true,
	40: true, 43: true, 48: true, 60: true, 63: true, 68: true,
}

// passesQuality applies the standard quality filter.
func passesQuality(o Observation) bool {
	return o.QualityFlag == 1 &&
		o.Sensitivity >= 0.9 && o.Sensitivity <= 1.0 &&
		o.SensitivityA2 > 0.95 && o.SensitivityA2 <= 1.0 &&
		qdegradeAllowed[o.DegradeFlag] &&
		o.SurfaceFlag == 1
}

// Config identifies the tile a worker builds and how.
type Config struct {
	Bucket    string
	Prefix    string
	TileID    string
	Test      bool
	Quality   bool
	StartYear int
	EndYear   int
}

// Worker builds one tile's data and metadata entries with resumable
// checkpointing.
type Worker struct {
	store       store.ObjectStore
	checkpoints *checkpoint.Store
	source      ObservationSource
	cfg         Config
	log         *slog.Logger
	tracer      trace.Tracer
	unitSeconds metric.Float64Histogram
}

// New creates a worker for one tile. Defaults: StartYear 2019, EndYear the
// current UTC year.
func New(st store.ObjectStore, source ObservationSource, cfg Config, log *slog.Logger) (*Worker, error) {
	if _, err := grid.ParseID(cfg.TileID); err != nil {
		return nil, err
	}
	if cfg.StartYear == 0 {
		cfg.StartYear = DefaultStartYear
	}
	if cfg.EndYear == 0 {
		cfg.EndYear = time.Now().UTC().Year()
	}
	if cfg.EndYear < cfg.StartYear {
		return nil, fmt.Errorf("end year %d before start year %d", cfg.EndYear, cfg.StartYear)
	}
	cfg.Prefix = layout.Normalize(cfg.Prefix)

	unitSeconds, err := otel.Meter("tileforge/worker").Float64Histogram(
		"tileforge.worker.unit_seconds",
		metric.WithDescription("Wall time to build one tile-year partition"),
	)
	if err != nil {
		return nil, fmt.Errorf("create metrics: %w", err)
	}

	return &Worker{
		store:       st,
		checkpoints: checkpoint.NewStore(st, cfg.Prefix),
		source:      source,
		cfg:         cfg,
		log:         log.With("tile_id", cfg.TileID),
		tracer:      otel.Tracer("tileforge/worker"),
		unitSeconds: unitSeconds,
	}, nil
}

// Run builds the tile. Cancellation between units is clean; a crash or
// cancellation mid-unit loses at most that unit's unflushed work, and a
// rerun resumes from the checkpoint without rewriting finished years.
func (w *Worker) Run(ctx context.Context) error {
	tile, err := grid.ParseID(w.cfg.TileID)
	if err != nil {
		return err
	}

	// A tile with a metadata entry is already complete; rerunning its job
	// must be a no-op.
	done, err := w.store.Exists(ctx, layout.MetadataObject(w.cfg.Prefix, tile.ID))
	if err != nil {
		return fmt.Errorf("check completion marker: %w", err)
	}
	if done {
		w.log.Info("tile already complete, nothing to do")
		return nil
	}

	cp, err := w.checkpoints.Load(ctx, tile.ID)
	switch {
	case errors.Is(err, checkpoint.ErrNotFound):
		// First run for this tile: creating the checkpoint is what moves it
		// to in-progress.
		cp = &checkpoint.Checkpoint{
			TileID:         tile.ID,
			ProgressMarker: w.cfg.StartYear - 1,
			State:          map[string]any{},
		}
		if err := w.checkpoints.Save(ctx, cp); err != nil {
			return err
		}
		w.log.Info("starting fresh build", "start_year", w.cfg.StartYear, "end_year", w.cfg.EndYear)
	case err != nil:
		return err
	default:
		w.log.Info("resuming from checkpoint", "progress_marker", cp.ProgressMarker, "end_year", w.cfg.EndYear)
	}

	counts := recordCounts(cp)
	for year := cp.ProgressMarker + 1; year <= w.cfg.EndYear; year++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.buildYear(ctx, tile, year, counts); err != nil {
			return err
		}
		// Data is durable; only now may the marker move past it.
		cp.ProgressMarker = year
		cp.State["record_counts"] = counts
		if err := w.checkpoints.Save(ctx, cp); err != nil {
			return err
		}
	}

	if err := w.writeMetadata(ctx, tile, counts); err != nil {
		return err
	}
	w.log.Info("tile complete", "years", w.cfg.EndYear-w.cfg.StartYear+1)
	return nil
}

func (w *Worker) buildYear(ctx context.Context, tile grid.Tile, year int, counts map[string]any) error {
	ctx, span := w.tracer.Start(ctx, "worker.buildYear", trace.WithAttributes(
		attribute.String("tile_id", tile.ID),
		attribute.Int("year", year),
	))
	defer span.End()
	start := time.Now()

	obs, err := w.source.Observations(ctx, tile, year)
	if err != nil {
		return fmt.Errorf("load observations for %s year %d: %w", tile.ID, year, err)
	}

	// The source keeps ownership of its slice; filter into a fresh one.
	kept := make([]Observation, 0, len(obs))
	for _, o := range obs {
		if !tile.Contains(o.LonLowestmode, o.LatLowestmode) {
			continue
		}
		if w.cfg.Quality && !passesQuality(o) {
			continue
		}
		o.TileID = tile.ID
		o.Year = int32(year)
		kept = append(kept, o)
	}

	counts[strconv.Itoa(year)] = int64(len(kept))
	if len(kept) > 0 {
		raw, err := encodeParquet(kept)
		if err != nil {
			return fmt.Errorf("encode partition for %s year %d: %w", tile.ID, year, err)
		}
		key := layout.DataObject(w.cfg.Prefix, tile.ID, year)
		if err := w.store.Put(ctx, key, bytes.NewReader(raw), int64(len(raw))); err != nil {
			return fmt.Errorf("write partition for %s year %d: %w", tile.ID, year, err)
		}
	}

	elapsed := time.Since(start)
	w.unitSeconds.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("tile_id", tile.ID)))
	w.log.Info("year built", "year", year, "records", len(kept), "elapsed", elapsed.Round(time.Millisecond))
	return nil
}

// writeMetadata writes the completion marker: one summary row per year.
func (w *Worker) writeMetadata(ctx context.Context, tile grid.Tile, counts map[string]any) error {
	builtAt := time.Now().UTC().Unix()
	var rows []TileSummary
	for year := w.cfg.StartYear; year <= w.cfg.EndYear; year++ {
		rows = append(rows, TileSummary{
			TileID:      tile.ID,
			Year:        int32(year),
			RecordCount: countFor(counts, year),
			BuiltAt:     builtAt,
		})
	}
	raw, err := encodeParquet(rows)
	if err != nil {
		return fmt.Errorf("encode metadata for %s: %w", tile.ID, err)
	}
	key := layout.MetadataObject(w.cfg.Prefix, tile.ID)
	if err := w.store.Put(ctx, key, bytes.NewReader(raw), int64(len(raw))); err != nil {
		return fmt.Errorf("write metadata for %s: %w", tile.ID, err)
	}
	return nil
}

// recordCounts recovers per-year counts carried in the checkpoint's opaque
// state across reruns.
func recordCounts(cp *checkpoint.Checkpoint) map[string]any {
	if cp.State == nil {
		cp.State = map[string]any{}
	}
	if m, ok := cp.State["record_counts"].(map[string]any); ok {
		return m
	}
	m := map[string]any{}
	cp.State["record_counts"] = m
	return m
}

func countFor(counts map[string]any, year int) int64 {
	switch v := counts[strconv.Itoa(year)].(type) {
	case int64:
		return v
	case float64: // JSON round trip
		return int64(v)
	}
	return 0
}

func encodeParquet[T any](rows []T) ([]byte, error) {
	var buf bytes.Buffer
	pw := parquet.NewGenericWriter[T](&buf)
	if _, err := pw.Write(rows); err != nil {
		pw.Close()
		return nil, err
	}
	if err := pw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
