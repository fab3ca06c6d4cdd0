// Package main is the entry point for the per-tile build worker. The job
// service runs one of these per submitted tile: it reads staged granule
// extracts, writes the tile's yearly partitions, and flips the tile to
// complete. SIGTERM stops it cleanly between years; a rerun resumes from
// the checkpoint.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"tileforge/internal/config"
	"tileforge/internal/logger"
	"tileforge/internal/observability"
	"tileforge/internal/store"
	"tileforge/internal/store/local"
	"tileforge/internal/store/s3"
	"tileforge/internal/worker"
)

// testModeGranules caps the input for -test runs so a submission can be
// verified end to end in minutes.
const testModeGranules = 2

func main() {
	bucket := flag.String("bucket", "", "Object store bucket holding the dataset")
	prefix := flag.String("prefix", "", "Key prefix of the dataset inside the bucket")
	tileID := flag.String("tile_id", "", "Tile to build, e.g. N01_W064")
	input := flag.String("input", "", "Directory of staged granule CSV extracts")
	localDir := flag.String("local", "", "Use a local directory store instead of S3 (development)")
	test := flag.Bool("test", false, "Read only a couple of granules for a quick end-to-end pass")
	quality := flag.Bool("quality", false, "Apply the standard quality filter")
	startYear := flag.Int("start_year", 0, "First year to build (default from TILEFORGE_START_YEAR)")
	endYear := flag.Int("end_year", 0, "Last year to build (default: current year)")
	metricsAddr := flag.String("metrics_addr", "", "Serve /metrics on this address while the build runs (empty: disabled)")
	flag.Parse()

	if *tileID == "" {
		log.Fatal("-tile_id is required")
	}
	if *input == "" {
		log.Fatal("-input is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *startYear == 0 {
		*startYear = cfg.StartYear
	}
	if *endYear == 0 {
		*endYear = cfg.EndYear
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing
	shutdownTracer, err := observability.InitTracer(ctx, "tileforge-worker", cfg.OTELEndpoint)
	if err != nil {
		log.Fatalf("Failed to init tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Printf("Failed to shutdown tracer: %v", err)
		}
	}()

	// Metrics
	metricsHandler, shutdownMetrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to init metrics: %v", err)
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			log.Printf("Failed to shutdown metrics: %v", err)
		}
	}()
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metricsHandler)
			log.Printf("Worker metrics listening on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				log.Printf("Metrics server error: %v", err)
			}
		}()
	}

	var st store.ObjectStore
	if *localDir != "" {
		if st, err = local.New(*localDir); err != nil {
			log.Fatalf("Failed to open local store: %v", err)
		}
	} else {
		s3cfg, err := cfg.S3()
		if err != nil {
			log.Fatalf("Failed to configure object store: %v", err)
		}
		if *bucket == "" {
			log.Fatal("-bucket is required")
		}
		s3st, err := s3.New(s3cfg, *bucket)
		if err != nil {
			log.Fatalf("Failed to open object store: %v", err)
		}
		if err := s3st.Ping(ctx); err != nil {
			log.Fatalf("Object store unreachable: %v", err)
		}
		st = s3st
	}

	source := &worker.CSVSource{Dir: *input}
	if *test {
		source.MaxGranules = testModeGranules
	}

	ctx = logger.WithRunID(ctx, uuid.NewString())
	w, err := worker.New(st, source, worker.Config{
		Bucket:    *bucket,
		Prefix:    *prefix,
		TileID:    *tileID,
		Test:      *test,
		Quality:   *quality,
		StartYear: *startYear,
		EndYear:   *endYear,
	}, logger.FromContext(ctx, logger.New()))
	if err != nil {
		log.Fatalf("Failed to create worker: %v", err)
	}

	// Stop between units on SIGINT/SIGTERM; the checkpoint keeps the
	// finished years.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Println("Shutting down worker...")
		cancel()
	}()

	if err := w.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Println("Build interrupted; progress is checkpointed")
			os.Exit(1)
		}
		log.Fatalf("Build failed: %v", err)
	}
}
