package httputil

import (
	"net/http"
	"time"
)

const DefaultTimeout = 30 * time.Second

// UserAgent identifies the application to the public data services it
// queries. Nominatim's usage policy requires a meaningful User-Agent.
const UserAgent = "toitsol/1.0 (rooftop solar estimator)"

// NewClient returns an HTTP client with standard timeout configuration.
func NewClient() *http.Client {
	return NewClientTimeout(DefaultTimeout)
}

// NewClientTimeout returns an HTTP client with the given timeout. A slow
// external service degrades to an error or a fallback value instead of
// hanging an evaluation indefinitely.
func NewClientTimeout(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
	}
}
