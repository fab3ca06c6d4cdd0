// Package api defines the wire types exchanged with the external
// job-processing service.
package api

import "time"

// SubmitJobRequest asks the job service to run one per-tile build.
type SubmitJobRequest struct {
	// Identifier is the human-readable job name, tiler_<job_code>_<tile_id>.
	Identifier string `json:"identifier"`
	// Tag groups all jobs of one orchestration campaign, tiler_<job_code>.
	Tag   string `json:"tag"`
	Queue string `json:"queue"`

	Bucket    string `json:"bucket"`
	Prefix    string `json:"prefix"`
	TileID    string `json:"tile_id"`
	Test      bool   `json:"test,omitempty"`
	Quality   bool   `json:"quality,omitempty"`
	StartYear int    `json:"start_year,omitempty"`
	EndYear   int    `json:"end_year,omitempty"`
}

// SubmitJobResponse is the service's acknowledgement of a submission.
type SubmitJobResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// JobSummary is one entry of a job listing. Listings are best-effort and
// non-authoritative: entries may be missing, stale or duplicated.
type JobSummary struct {
	JobID     string     `json:"job_id"`
	TileID    string     `json:"tile_id"`
	Tag       string     `json:"tag"`
	Status    string     `json:"status"`
	Error     string     `json:"error,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
}

// ListJobsResponse wraps a best-effort job listing.
type ListJobsResponse struct {
	Jobs []JobSummary `json:"jobs"`
}

// Job status values reported by the service.
const (
	JobStatusAccepted  = "ACCEPTED"
	JobStatusRunning   = "RUNNING"
	JobStatusSucceeded = "SUCCEEDED"
	JobStatusFailed    = "FAILED"
	JobStatusOffline   = "OFFLINE"
	JobStatusDeleted   = "DELETED"
)
