package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"tileforge/pkg/api"
)

func TestSubmit_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/jobs" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("expected bearer token, got %q", r.Header.Get("Authorization"))
		}

		var req api.SubmitJobRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Identifier != "tiler_brazil01_N00_W064" {
			t.Errorf("unexpected identifier: %s", req.Identifier)
		}
		if req.Tag != "tiler_brazil01" {
			t.Errorf("unexpected tag: %s", req.Tag)
		}
		if req.TileID != "N00_W064" {
			t.Errorf("unexpected tile: %s", req.TileID)
		}

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(api.SubmitJobResponse{JobID: "job-1", Status: api.JobStatusAccepted})
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", "test-token")
	resp, err := client.Submit(context.Background(), api.SubmitJobRequest{
		Identifier: IdentifierFor("brazil01", "N00_W064"),
		Tag:        TagForCode("brazil01"),
		Queue:      QueueFor("N00_W064"),
		Bucket:     "bucket",
		Prefix:     "db",
		TileID:     "N00_W064",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if resp.JobID != "job-1" {
		t.Errorf("JobID = %s, want job-1", resp.JobID)
	}
}

func TestSubmit_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "queue unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token")
	_, err := client.Submit(context.Background(), api.SubmitJobRequest{TileID: "N00_W064"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d, want 503", apiErr.StatusCode)
	}
}

func TestList_FiltersByTag(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("tag"); got != "tiler_brazil01" {
			t.Errorf("tag = %q, want tiler_brazil01", got)
		}
		json.NewEncoder(w).Encode(api.ListJobsResponse{Jobs: []api.JobSummary{
			{JobID: "job-1", TileID: "N00_W064", Status: api.JobStatusSucceeded},
			{JobID: "job-2", TileID: "N01_W064", Status: api.JobStatusRunning},
		}})
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	jobs, err := client.List(context.Background(), "brazil01")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
}

func TestQueueFor(t *testing.T) {
	tests := []struct {
		tileID string
		want   string
	}{
		{"N00_W064", DefaultQueue},
		{"N50_E010", LargeMemoryQueue},
		{"S51_W073", LargeMemoryQueue},
		{"N49_E010", DefaultQueue},
		{"S49_W073", DefaultQueue},
	}
	for _, tt := range tests {
		if got := QueueFor(tt.tileID); got != tt.want {
			t.Errorf("QueueFor(%s) = %s, want %s", tt.tileID, got, tt.want)
		}
	}
}

func TestNaming(t *testing.T) {
	if got := TagForCode("brazil01"); got != "tiler_brazil01" {
		t.Errorf("TagForCode = %s", got)
	}
	if got := IdentifierFor("brazil01", "N00_W064"); got != "tiler_brazil01_N00_W064" {
		t.Errorf("IdentifierFor = %s", got)
	}
}
