// Package jobs is the HTTP client for the external job-processing service.
package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tileforge/pkg/api"
)

// Queue names tiles are dispatched to. High-latitude bands around 50-51
// degrees carry far denser observation coverage and need the large-memory
// queue.
const (
	DefaultQueue     = "tiler-worker-8gb"
	LargeMemoryQueue = "tiler-worker-16gb"
)

var largeMemoryBands = []string{"N50", "N51", "S50", "S51"}

// TagForCode is the job tag shared by every submission of a job code.
func TagForCode(jobCode string) string {
	return "tiler_" + jobCode
}

// IdentifierFor is the per-job name: tiler_<job_code>_<tile_id>.
func IdentifierFor(jobCode, tileID string) string {
	return fmt.Sprintf("tiler_%s_%s", jobCode, tileID)
}

// QueueFor picks the worker queue for a tile. A prefix match is exact here:
// the latitude band leads the identifier, and the three-digit longitude keeps
// a band string from ever appearing later in a well-formed ID.
func QueueFor(tileID string) string {
	for _, band := range largeMemoryBands {
		if strings.HasPrefix(tileID, band) {
			return LargeMemoryQueue
		}
	}
	return DefaultQueue
}

// Client talks to the job service API.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// NewClient creates a client with the given base URL and bearer token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError represents an error response from the job service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("job service error (%d): %s", e.StatusCode, e.Message)
}

// Submit sends POST /jobs to dispatch one per-tile build.
func (c *Client) Submit(ctx context.Context, req api.SubmitJobRequest) (*api.SubmitJobResponse, error) {
	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/jobs", c.BaseURL), bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	var result api.SubmitJobResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &result, nil
}

// List sends GET /jobs?tag=... to enumerate jobs for a job code.
//
// The listing is best-effort and non-authoritative: the service is known to
// return stale or incomplete results. Callers may display it but must never
// use it to decide whether submitting is safe.
func (c *Client) List(ctx context.Context, jobCode string) ([]api.JobSummary, error) {
	endpoint := fmt.Sprintf("%s/jobs?tag=%s", c.BaseURL, url.QueryEscape(TagForCode(jobCode)))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	var result api.ListJobsResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return result.Jobs, nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.Token != "" {
		req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", c.Token))
	}
	req.Header.Add("Content-Type", "application/json")
}
