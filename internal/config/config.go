// Package config holds the runtime configuration for a catalog rebuild.
// Values come from defaults, then environment variables, then command-line
// flags; the struct itself stays dependency-free so it can be passed through
// the program without glue code.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the full runtime configuration.
type Config struct {
	// Dest is the destination: a sqlite file path or a postgres DSN.
	Dest string

	// BaseURL overrides the download CDN root. Empty uses the public CDN.
	BaseURL string

	// Progress toggles per-batch progress logging.
	Progress bool

	// FetchConcurrency bounds concurrent source downloads (>= 1).
	FetchConcurrency int

	// FetchTimeout is the per-download timeout, covering the whole body.
	FetchTimeout time.Duration

	// MetricsBackend selects a metrics sink: "pushgateway" or "none".
	MetricsBackend string

	// PushgatewayURL is the Pushgateway base URL when MetricsBackend is
	// "pushgateway".
	PushgatewayURL string
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Progress:         true,
		FetchConcurrency: 2,
		FetchTimeout:     5 * time.Minute,
		MetricsBackend:   "none",
		PushgatewayURL:   "http://localhost:9091",
	}
}

// ApplyEnv overlays recognized environment variables onto c. Unset or
// malformed variables leave the current value in place.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("REBRICKABLE_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("REBRICKABLE_FETCH_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.FetchConcurrency = n
		}
	}
	if v := os.Getenv("REBRICKABLE_FETCH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.FetchTimeout = d
		}
	}
	if v := os.Getenv("METRICS_BACKEND"); v != "" {
		c.MetricsBackend = v
	}
	if v := os.Getenv("PUSHGATEWAY_URL"); v != "" {
		c.PushgatewayURL = v
	}
}

// Validate reports the first configuration problem.
func (c Config) Validate() error {
	if c.Dest == "" {
		return fmt.Errorf("config: destination path is required")
	}
	if c.FetchConcurrency < 1 {
		return fmt.Errorf("config: fetch concurrency must be >= 1, got %d", c.FetchConcurrency)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("config: fetch timeout must be positive, got %s", c.FetchTimeout)
	}
	return nil
}
