// Package crawler loads course pages over HTTP or from local snapshots.
package crawler

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/andybalholm/brotli"

	"coursexport/internal/config"
	"coursexport/internal/logger"
	"coursexport/pkg/utils"
)

// Fetch errors.
var (
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrPageTooLarge         = errors.New("page exceeds buffer size")
)

// Loader returns the HTML of a page.
type Loader interface {
	Load(ctx context.Context, pageURL string) (string, error)
}

// Scraper fetches pages with config-driven retry logic.
type Scraper struct {
	client       *http.Client
	retryPolicy  *config.RetryPolicy
	bufferSizeKb int
	headers      http.Header
	log          *logger.Logger
	attempts     *AttemptLog
}

// NewScraper creates a new scraper instance with default config.
func NewScraper() *Scraper {
	cfg := config.Default()

	return NewScraperWithConfig(&cfg.Exporter.Retry, cfg.Advanced.BufferSizeKb, nil)
}

// NewScraperWithConfig creates a new scraper with custom retry policy.
func NewScraperWithConfig(retryPolicy *config.RetryPolicy, bufferSizeKb int, log *logger.Logger) *Scraper {
	return &Scraper{
		client: &http.Client{
			Timeout: retryPolicy.GetTimeout(),
		},
		retryPolicy:  retryPolicy,
		bufferSizeKb: bufferSizeKb,
		headers:      utils.NewHTTPHelper().BuildHeaders(nil),
		log:          logger.OrDiscard(log),
	}
}

// WithAttemptLog makes the scraper record every fetch attempt in log.
func (s *Scraper) WithAttemptLog(log *AttemptLog) *Scraper {
	s.attempts = log

	return s
}

// Load implements Loader.
func (s *Scraper) Load(ctx context.Context, pageURL string) (string, error) {
	content, _, _, err := s.ScrapeWithMetrics(ctx, pageURL)

	return content, err
}

// ScrapeWithMetrics returns (content, statusCode, duration, error).
func (s *Scraper) ScrapeWithMetrics(ctx context.Context, pageURL string) (string, int, time.Duration, error) {
	var lastErr error

	var lastStatusCode int

	totalDuration := time.Duration(0)

	for attempt := 1; attempt <= s.retryPolicy.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := s.sleep(ctx, s.retryPolicy.GetRetryDelay(attempt)); err != nil {
				return "", lastStatusCode, totalDuration, err
			}
		}

		startTime := time.Now()
		content, status, err := s.fetch(ctx, pageURL)
		elapsed := time.Since(startTime)
		totalDuration += elapsed
		lastStatusCode = status

		if s.attempts != nil {
			s.attempts.Record(pageURL, err, status, elapsed)
		}

		if err == nil {
			s.log.Debug("page fetched", "url", pageURL, "status", status, "attempt", attempt, "bytes", len(content))

			return content, status, totalDuration, nil
		}

		lastErr = fmt.Errorf("request failed (attempt %d/%d): %w", attempt, s.retryPolicy.MaxAttempts, err)

		if ctx.Err() != nil {
			return "", lastStatusCode, totalDuration, lastErr
		}

		// Only retry on transport failures and specific status codes
		if status != 0 && !isRetryableStatus(status) {
			break
		}

		s.log.Warn("page fetch failed", "url", pageURL, "attempt", attempt, "error", err)
	}

	return "", lastStatusCode, totalDuration, lastErr
}

func (s *Scraper) fetch(ctx context.Context, pageURL string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header = s.headers.Clone()

	resp, err := s.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", resp.StatusCode, fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, resp.StatusCode)
	}

	body, err := decodeBody(resp)
	if err != nil {
		return "", resp.StatusCode, err
	}
	defer body.Close()

	// bufferSizeKb is in KB, convert to bytes
	limit := int64(s.bufferSizeKb) * 1024

	content, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	if int64(len(content)) > limit {
		return "", resp.StatusCode, fmt.Errorf("%w: more than %d KB", ErrPageTooLarge, s.bufferSizeKb)
	}

	return string(content), resp.StatusCode, nil
}

// decodeBody unwraps the encodings advertised in Accept-Encoding. Closing the
// returned reader leaves resp.Body open.
func decodeBody(resp *http.Response) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "br":
		return io.NopCloser(brotli.NewReader(resp.Body)), nil
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip body: %w", err)
		}

		return gz, nil
	default:
		return io.NopCloser(resp.Body), nil
	}
}

func (s *Scraper) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// FileLoader serves a local HTML snapshot regardless of the requested URL.
type FileLoader struct {
	Path string
}

// Load implements Loader.
func (f FileLoader) Load(ctx context.Context, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	content, err := os.ReadFile(f.Path)
	if err != nil {
		return "", fmt.Errorf("failed to read local file %s: %w", f.Path, err)
	}

	return string(content), nil
}

// isRetryableStatus determines if we should retry based on HTTP status code.
func isRetryableStatus(statusCode int) bool {
	// Retry on temporary failures
	switch statusCode {
	case http.StatusServiceUnavailable: // 503
		return true
	case http.StatusGatewayTimeout: // 504
		return true
	case http.StatusTooManyRequests: // 429
		return true
	case http.StatusRequestTimeout: // 408
		return true
	}

	return false
}
