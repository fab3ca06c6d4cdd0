package config

import (
	"testing"
)

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Check defaults
	if cfg.DefaultQueue != "tiler-worker-8gb" {
		t.Errorf("expected DefaultQueue tiler-worker-8gb, got %s", cfg.DefaultQueue)
	}
	if cfg.LargeMemoryQueue != "tiler-worker-16gb" {
		t.Errorf("expected LargeMemoryQueue tiler-worker-16gb, got %s", cfg.LargeMemoryQueue)
	}
	if !cfg.S3Secure {
		t.Error("expected S3Secure true by default")
	}
	if cfg.SubmitRate != 5 {
		t.Errorf("expected SubmitRate 5, got %v", cfg.SubmitRate)
	}
	if cfg.SubmitBurst != 10 {
		t.Errorf("expected SubmitBurst 10, got %d", cfg.SubmitBurst)
	}
	if cfg.StartYear != 2019 {
		t.Errorf("expected StartYear 2019, got %d", cfg.StartYear)
	}
	if cfg.EndYear != 0 {
		t.Errorf("expected EndYear 0 (current year), got %d", cfg.EndYear)
	}
	if cfg.OTELEndpoint != "localhost:4317" {
		t.Errorf("expected OTELEndpoint localhost:4317, got %s", cfg.OTELEndpoint)
	}
}

func TestLoad_EnvVarOverrides(t *testing.T) {
	t.Setenv("TILEFORGE_JOB_SERVICE_URL", "http://jobs.internal:8080")
	t.Setenv("TILEFORGE_JOB_SERVICE_TOKEN", "secret")
	t.Setenv("TILEFORGE_S3_ENDPOINT", "minio.internal:9000")
	t.Setenv("TILEFORGE_S3_ACCESS_KEY", "ak")
	t.Setenv("TILEFORGE_S3_SECRET_KEY", "sk")
	t.Setenv("TILEFORGE_S3_SECURE", "false")
	t.Setenv("TILEFORGE_QUEUE", "custom-queue")
	t.Setenv("TILEFORGE_SUBMIT_RATE", "2.5")
	t.Setenv("TILEFORGE_SUBMIT_BURST", "3")
	t.Setenv("TILEFORGE_START_YEAR", "2020")
	t.Setenv("TILEFORGE_END_YEAR", "2021")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel-collector:4317")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.JobServiceURL != "http://jobs.internal:8080" {
		t.Errorf("JobServiceURL = %s", cfg.JobServiceURL)
	}
	if cfg.JobServiceToken != "secret" {
		t.Errorf("JobServiceToken = %s", cfg.JobServiceToken)
	}
	if cfg.S3Secure {
		t.Error("expected S3Secure false")
	}
	if cfg.DefaultQueue != "custom-queue" {
		t.Errorf("DefaultQueue = %s", cfg.DefaultQueue)
	}
	if cfg.SubmitRate != 2.5 {
		t.Errorf("SubmitRate = %v", cfg.SubmitRate)
	}
	if cfg.SubmitBurst != 3 {
		t.Errorf("SubmitBurst = %d", cfg.SubmitBurst)
	}
	if cfg.StartYear != 2020 || cfg.EndYear != 2021 {
		t.Errorf("year range = %d..%d", cfg.StartYear, cfg.EndYear)
	}
	if cfg.OTELEndpoint != "otel-collector:4317" {
		t.Errorf("OTELEndpoint = %s", cfg.OTELEndpoint)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		env   string
		value string
	}{
		{"TILEFORGE_S3_SECURE", "maybe"},
		{"TILEFORGE_SUBMIT_RATE", "fast"},
		{"TILEFORGE_SUBMIT_BURST", "1.5"},
		{"TILEFORGE_START_YEAR", "twenty-nineteen"},
		{"TILEFORGE_END_YEAR", ""},
	}
	for _, tt := range tests {
		if tt.value == "" {
			continue
		}
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv(tt.env, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%s", tt.env, tt.value)
			}
		})
	}
}

func TestS3_RequiresEndpointAndCredentials(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}

	if _, err := cfg.S3(); err == nil {
		t.Error("expected error when endpoint is missing")
	}

	t.Setenv("TILEFORGE_S3_ENDPOINT", "minio.internal:9000")
	cfg, err = Load()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cfg.S3(); err == nil {
		t.Error("expected error when credentials are missing")
	}

	t.Setenv("TILEFORGE_S3_ACCESS_KEY", "ak")
	t.Setenv("TILEFORGE_S3_SECRET_KEY", "sk")
	cfg, err = Load()
	if err != nil {
		t.Fatal(err)
	}
	s3cfg, err := cfg.S3()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s3cfg.Endpoint != "minio.internal:9000" || !s3cfg.Secure {
		t.Errorf("unexpected s3 config: %+v", s3cfg)
	}
}

func TestJobsClient_RequiresURL(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cfg.JobsClient(); err == nil {
		t.Error("expected error when job service URL is missing")
	}

	t.Setenv("TILEFORGE_JOB_SERVICE_URL", "http://jobs.internal:8080")
	cfg, err = Load()
	if err != nil {
		t.Fatal(err)
	}
	client, err := cfg.JobsClient()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client == nil {
		t.Fatal("expected client")
	}
}
