package utils

import "net/http"

// HTTPHelper provides HTTP utility functions.
type HTTPHelper struct {
	userAgent string
}

// NewHTTPHelper creates a new HTTP helper that identifies as a desktop browser.
func NewHTTPHelper() *HTTPHelper {
	return &HTTPHelper{
		userAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
	}
}

// BuildHeaders creates page request headers with defaults.
// Custom headers replace defaults of the same name.
func (h *HTTPHelper) BuildHeaders(customHeaders map[string]string) http.Header {
	headers := http.Header{}

	headers.Set("User-Agent", h.userAgent)
	headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	headers.Set("Accept-Encoding", "br, gzip")

	for key, value := range customHeaders {
		headers.Set(key, value)
	}

	return headers
}
