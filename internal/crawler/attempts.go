package crawler

import (
	"fmt"
	"sync"
	"time"

	"coursexport/internal/logger"
)

// AttemptResult records the result of one page fetch attempt.
type AttemptResult struct {
	Timestamp  time.Time
	URL        string
	Error      string
	Attempt    int
	Duration   time.Duration
	StatusCode int
	Success    bool
}

// AttemptLog collects fetch attempts per page URL. It is safe for concurrent use.
type AttemptLog struct {
	mu      sync.Mutex
	order   []string
	results map[string][]AttemptResult
}

// NewAttemptLog creates an empty attempt log.
func NewAttemptLog() *AttemptLog {
	return &AttemptLog{results: make(map[string][]AttemptResult)}
}

// Record appends the outcome of a fetch attempt for pageURL.
func (a *AttemptLog) Record(pageURL string, err error, statusCode int, duration time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, seen := a.results[pageURL]; !seen {
		a.order = append(a.order, pageURL)
	}

	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}

	a.results[pageURL] = append(a.results[pageURL], AttemptResult{
		URL:        pageURL,
		Attempt:    len(a.results[pageURL]) + 1,
		Success:    err == nil,
		Error:      errMsg,
		Timestamp:  time.Now(),
		Duration:   duration,
		StatusCode: statusCode,
	})
}

// Attempts returns the attempts recorded for pageURL.
func (a *AttemptLog) Attempts(pageURL string) []AttemptResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]AttemptResult(nil), a.results[pageURL]...)
}

// Stats summarizes all recorded attempts.
func (a *AttemptLog) Stats() AttemptStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	stats := AttemptStats{URLAttempts: make(map[string]int)}

	for pageURL, results := range a.results {
		stats.TotalURLs++
		stats.URLAttempts[pageURL] = len(results)
		stats.TotalAttempts += len(results)

		urlSuccess := false

		for _, result := range results {
			if result.Success {
				stats.SuccessfulAttempts++
				urlSuccess = true
			} else {
				stats.FailedAttempts++
			}
		}

		if urlSuccess {
			stats.SuccessfulURLs++
		} else {
			stats.FailedURLs++
		}
	}

	return stats
}

// AttemptStats contains statistics about fetch attempts.
type AttemptStats struct {
	URLAttempts        map[string]int
	TotalURLs          int
	SuccessfulURLs     int
	FailedURLs         int
	TotalAttempts      int
	SuccessfulAttempts int
	FailedAttempts     int
}

// String returns a string representation of attempt stats.
func (s AttemptStats) String() string {
	return fmt.Sprintf(
		"URLs: %d total, %d success, %d failed | Attempts: %d total, %d success, %d failed",
		s.TotalURLs,
		s.SuccessfulURLs,
		s.FailedURLs,
		s.TotalAttempts,
		s.SuccessfulAttempts,
		s.FailedAttempts,
	)
}

// LogSummary writes the attempts of every fetched page to l, in fetch order.
func (a *AttemptLog) LogSummary(l *logger.Logger) {
	a.mu.Lock()
	order := append([]string(nil), a.order...)
	a.mu.Unlock()

	l.Info("📊 Fetch Attempt Summary:")

	for i, pageURL := range order {
		results := a.Attempts(pageURL)
		last := results[len(results)-1]

		statusEmoji := "❌"
		if last.Success {
			statusEmoji = "✅"
		}

		l.Info(fmt.Sprintf("%d. %s %s (%d attempts)", i+1, pageURL, statusEmoji, len(results)))

		for _, result := range results {
			statusStr := "✅ Success"
			if !result.Success {
				statusStr = "❌ Failed: " + result.Error
			}

			l.Info(fmt.Sprintf("     Attempt %d: %s (%.2fs)", result.Attempt, statusStr, result.Duration.Seconds()))
		}
	}

	l.Info("Overall: " + a.Stats().String())
}
