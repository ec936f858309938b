// Package fetch retrieves gzip-compressed catalog extracts over HTTP and
// yields the decompressed byte stream.
//
// Design goals:
//
//   - Keep a tiny, explicit API (Fetch).
//   - Respect context cancellation during requests and backoff waits.
//   - Be easy to test by injecting a custom RoundTripper and sleep function.
//
// The client itself performs no retries unless configured; the pipeline runs
// each entity exactly once and leaves retry policy to whoever re-invokes the
// whole run.
package fetch

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RetrievalError is a network or HTTP-level failure: the resource could not
// be fetched at all, or the server answered with a non-2xx status.
type RetrievalError struct {
	URL    string
	Status int // 0 when no response was obtained
	Err    error
}

func (e *RetrievalError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch: GET %s: status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch: GET %s: %v", e.URL, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// DecodeError reports that the response body was not a valid gzip stream.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("fetch: decode %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Config configures the fetch client.
//
// Zero values are given sensible defaults:
//   - Timeout:        5m
//   - MaxRetries:     0 (single attempt)
//   - InitialBackoff: 200ms
//   - MaxBackoff:     5s
type Config struct {
	// Timeout is the per-request timeout applied at the http.Client level.
	Timeout time.Duration

	// MaxRetries is the number of retry attempts after the initial request.
	// The default of 0 means exactly one attempt per fetch.
	MaxRetries int

	// InitialBackoff is the base backoff for the first retry; each further
	// retry doubles it up to MaxBackoff.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// Transport is an optional custom RoundTripper, mainly for tests.
	Transport http.RoundTripper
}

// Client fetches and decompresses catalog sources.
type Client struct {
	httpClient     *http.Client
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration

	// sleep is injectable to make tests fast and deterministic.
	sleep func(time.Duration)
}

// NewClient constructs a Client from Config, applying defaults for zero values.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}
	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		},
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		sleep:          time.Sleep,
	}
}

// gzipBody decompresses the response body and closes both readers.
type gzipBody struct {
	gz   *gzip.Reader
	body io.Closer
}

func (g *gzipBody) Read(p []byte) (int, error) { return g.gz.Read(p) }

func (g *gzipBody) Close() error {
	err := g.gz.Close()
	if cerr := g.body.Close(); err == nil {
		err = cerr
	}
	return err
}

// Fetch performs an HTTP GET on url (redirects are followed by the underlying
// client) and returns the decompressed byte stream. The caller must close the
// returned reader, which ends the transfer.
//
// Failures are classified: *RetrievalError for transport errors and non-2xx
// statuses, *DecodeError when the body is not valid gzip.
func (c *Client) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	attempts := c.maxRetries + 1
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		body, err := c.get(ctx, url)
		if err == nil {
			gz, gzErr := gzip.NewReader(body)
			if gzErr != nil {
				_ = body.Close()
				// A malformed payload is not transient; do not retry it.
				return nil, &DecodeError{URL: url, Err: gzErr}
			}
			return &gzipBody{gz: gz, body: body}, nil
		}
		lastErr = err

		if attempt+1 >= attempts {
			break
		}
		backoff := backoffDuration(c.initialBackoff, attempt, c.maxBackoff)
		if err := sleepWithContext(ctx, c.sleep, backoff); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &RetrievalError{URL: url, Err: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RetrievalError{URL: url, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, &RetrievalError{URL: url, Status: resp.StatusCode}
	}
	return resp.Body, nil
}

// backoffDuration computes initial<<attempt capped at max.
func backoffDuration(initial time.Duration, attempt int, max time.Duration) time.Duration {
	d := initial << uint(attempt)
	if d > max || d <= 0 {
		return max
	}
	return d
}

// sleepWithContext waits for d using the injected sleep function while
// honoring context cancellation.
func sleepWithContext(ctx context.Context, sleep func(time.Duration), d time.Duration) error {
	done := make(chan struct{})
	go func() {
		sleep(d)
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}
