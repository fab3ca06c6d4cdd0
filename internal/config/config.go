// Package config handles environment variable loading for service endpoints,
// object store credentials, and build defaults.
package config

import (
	"fmt"
	"os"
	"strconv"

	"tileforge/internal/jobs"
	"tileforge/internal/store/s3"
	"tileforge/internal/worker"
)

// Config holds all configuration values for the application.
type Config struct {
	// Job service API base URL and bearer token
	JobServiceURL   string
	JobServiceToken string

	// Object store connection
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Region    string
	S3Secure    bool

	// Queue names for submitted jobs
	DefaultQueue     string
	LargeMemoryQueue string

	// Submission throttle (requests per second, burst size)
	SubmitRate  float64
	SubmitBurst int

	// Default build year range; EndYear 0 means the current year
	StartYear int
	EndYear   int

	// OTLP collector endpoint for traces
	OTELEndpoint string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		JobServiceURL:    os.Getenv("TILEFORGE_JOB_SERVICE_URL"),
		JobServiceToken:  os.Getenv("TILEFORGE_JOB_SERVICE_TOKEN"),
		S3Endpoint:       os.Getenv("TILEFORGE_S3_ENDPOINT"),
		S3AccessKey:      os.Getenv("TILEFORGE_S3_ACCESS_KEY"),
		S3SecretKey:      os.Getenv("TILEFORGE_S3_SECRET_KEY"),
		S3Region:         os.Getenv("TILEFORGE_S3_REGION"),
		DefaultQueue:     jobs.DefaultQueue,
		LargeMemoryQueue: jobs.LargeMemoryQueue,
		S3Secure:         true,
		SubmitRate:       5,
		SubmitBurst:      10,
		StartYear:        worker.DefaultStartYear,
		OTELEndpoint:     "localhost:4317",
	}

	if v := os.Getenv("TILEFORGE_QUEUE"); v != "" {
		cfg.DefaultQueue = v
	}
	if v := os.Getenv("TILEFORGE_LARGE_QUEUE"); v != "" {
		cfg.LargeMemoryQueue = v
	}
	if v := os.Getenv("TILEFORGE_S3_SECURE"); v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid TILEFORGE_S3_SECURE: %w", err)
		}
		cfg.S3Secure = secure
	}
	if v := os.Getenv("TILEFORGE_SUBMIT_RATE"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TILEFORGE_SUBMIT_RATE: %w", err)
		}
		cfg.SubmitRate = rate
	}
	if v := os.Getenv("TILEFORGE_SUBMIT_BURST"); v != "" {
		burst, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid TILEFORGE_SUBMIT_BURST: %w", err)
		}
		cfg.SubmitBurst = burst
	}
	if v := os.Getenv("TILEFORGE_START_YEAR"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid TILEFORGE_START_YEAR: %w", err)
		}
		cfg.StartYear = year
	}
	if v := os.Getenv("TILEFORGE_END_YEAR"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid TILEFORGE_END_YEAR: %w", err)
		}
		cfg.EndYear = year
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.OTELEndpoint = v
	}

	return cfg, nil
}

// S3 returns the object store connection settings, validating that the
// required credentials are present.
func (c *Config) S3() (s3.Config, error) {
	if c.S3Endpoint == "" {
		return s3.Config{}, fmt.Errorf("s3 endpoint is required (env: TILEFORGE_S3_ENDPOINT)")
	}
	if c.S3AccessKey == "" || c.S3SecretKey == "" {
		return s3.Config{}, fmt.Errorf("s3 credentials are required (env: TILEFORGE_S3_ACCESS_KEY, TILEFORGE_S3_SECRET_KEY)")
	}
	return s3.Config{
		Endpoint:  c.S3Endpoint,
		AccessKey: c.S3AccessKey,
		SecretKey: c.S3SecretKey,
		Region:    c.S3Region,
		Secure:    c.S3Secure,
	}, nil
}

// JobsClient returns a job service client, validating that the service URL
// is configured.
func (c *Config) JobsClient() (*jobs.Client, error) {
	if c.JobServiceURL == "" {
		return nil, fmt.Errorf("job service URL is required (env: TILEFORGE_JOB_SERVICE_URL)")
	}
	return jobs.NewClient(c.JobServiceURL, c.JobServiceToken), nil
}
