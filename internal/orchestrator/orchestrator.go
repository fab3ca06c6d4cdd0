// Package orchestrator computes outstanding build work for a region and
// dispatches per-tile jobs to the job-processing service.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/peterstace/simplefeatures/geom"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"

	"tileforge/internal/jobs"
	"tileforge/internal/selector"
	"tileforge/pkg/api"
)

// Submitter dispatches one build job. Satisfied by *jobs.Client.
type Submitter interface {
	Submit(ctx context.Context, req api.SubmitJobRequest) (*api.SubmitJobResponse, error)
}

// CompletionSource enumerates the tiles that are already complete.
// Satisfied by *catalog.Catalog.
type CompletionSource interface {
	Complete(ctx context.Context) (map[string]struct{}, error)
}

// Config scopes one orchestration campaign.
type Config struct {
	Bucket    string
	Prefix    string
	JobCode   string
	Test      bool
	Quality   bool
	StartYear int
	EndYear   int

	// DryRun computes and reports the plan without submitting anything.
	DryRun bool

	// SubmitRate throttles calls to the job service. Zero means 5/s.
	SubmitRate  rate.Limit
	SubmitBurst int
}

// Report is what every invocation returns: how much was required, how much
// was already done, and what was newly dispatched.
type Report struct {
	// Required is the full covering tile set for the region, sorted.
	Required []string
	// Complete is the subset of Required already carrying a metadata entry.
	Complete []string
	// Missing is Required minus Complete.
	Missing []string
	// Submitted lists tiles whose jobs were accepted this run.
	Submitted []string
	// Failed lists tiles whose submission errored; they stay missing and
	// are picked up by the next invocation.
	Failed []string
}

// Orchestrator diffs required against complete and submits the difference.
type Orchestrator struct {
	jobs      Submitter
	catalog   CompletionSource
	cfg       Config
	log       *slog.Logger
	limiter   *rate.Limiter
	submitted metric.Int64Counter
	runs      metric.Int64Counter
}

// New wires an orchestrator. The job code tags every submission so that an
// operator can account for a campaign's jobs as one group.
func New(submitter Submitter, completion CompletionSource, cfg Config, log *slog.Logger) (*Orchestrator, error) {
	if cfg.JobCode == "" {
		return nil, fmt.Errorf("job code is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	if cfg.SubmitRate <= 0 {
		cfg.SubmitRate = 5
	}
	if cfg.SubmitBurst <= 0 {
		cfg.SubmitBurst = 10
	}

	meter := otel.Meter("tileforge/orchestrator")
	submitted, err := meter.Int64Counter("tileforge.orchestrator.jobs_submitted",
		metric.WithDescription("Build jobs submitted to the job service"))
	if err != nil {
		return nil, fmt.Errorf("create metrics: %w", err)
	}
	runs, err := meter.Int64Counter("tileforge.orchestrator.runs",
		metric.WithDescription("Orchestrator invocations"))
	if err != nil {
		return nil, fmt.Errorf("create metrics: %w", err)
	}

	return &Orchestrator{
		jobs:      submitter,
		catalog:   completion,
		cfg:       cfg,
		log:       log,
		limiter:   rate.NewLimiter(cfg.SubmitRate, cfg.SubmitBurst),
		submitted: submitted,
		runs:      runs,
	}, nil
}

// Run executes one orchestration pass: required = covering tiles for the
// region, complete = catalog, missing = required − complete, one job per
// missing tile. Re-running after all submitted jobs finished submits nothing.
//
// Running while jobs for the same job code are still in flight is unsafe:
// nothing here detects an in-progress tile, so it would be resubmitted and
// two workers would write the same tile concurrently. Verifying that no such
// jobs exist is an operator precondition, not something Run checks; the
// job-listing API is too unreliable to gate on.
func (o *Orchestrator) Run(ctx context.Context, region geom.Geometry) (*Report, error) {
	o.runs.Add(ctx, 1, metric.WithAttributes(attribute.String("job_code", o.cfg.JobCode)))

	required, err := selector.CoveringIDs(region)
	if err != nil {
		return nil, fmt.Errorf("select covering tiles: %w", err)
	}

	complete, err := o.catalog.Complete(ctx)
	if err != nil {
		return nil, fmt.Errorf("read completion catalog: %w", err)
	}

	report := &Report{Required: required}
	for _, id := range required {
		if _, ok := complete[id]; ok {
			report.Complete = append(report.Complete, id)
		} else {
			report.Missing = append(report.Missing, id)
		}
	}

	o.log.Info("orchestration plan",
		"job_code", o.cfg.JobCode,
		"required", len(report.Required),
		"complete", len(report.Complete),
		"missing", len(report.Missing),
		"dry_run", o.cfg.DryRun,
	)
	if o.cfg.DryRun {
		return report, nil
	}

	for _, tileID := range report.Missing {
		if err := o.limiter.Wait(ctx); err != nil {
			return report, err
		}
		resp, err := o.jobs.Submit(ctx, api.SubmitJobRequest{
			Identifier: jobs.IdentifierFor(o.cfg.JobCode, tileID),
			Tag:        jobs.TagForCode(o.cfg.JobCode),
			Queue:      jobs.QueueFor(tileID),
			Bucket:     o.cfg.Bucket,
			Prefix:     o.cfg.Prefix,
			TileID:     tileID,
			Test:       o.cfg.Test,
			Quality:    o.cfg.Quality,
			StartYear:  o.cfg.StartYear,
			EndYear:    o.cfg.EndYear,
		})
		if err != nil {
			// A failed submission leaves the tile missing; the next run
			// retries it. Keep going for the rest of the set.
			o.log.Error("job submission failed", "tile_id", tileID, "error", err)
			report.Failed = append(report.Failed, tileID)
			continue
		}
		o.log.Info("job submitted", "tile_id", tileID, "job_id", resp.JobID, "queue", jobs.QueueFor(tileID))
		report.Submitted = append(report.Submitted, tileID)
		o.submitted.Add(ctx, 1, metric.WithAttributes(attribute.String("job_code", o.cfg.JobCode)))
	}

	return report, nil
}
