// Package yahoo provides a client for the Yahoo Finance chart API.
package yahoo

import "time"

// DefaultBaseURL is the public chart API endpoint.
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// Config holds configuration for the Yahoo Finance client.
type Config struct {
	BaseURL string        // Base URL for the API; DefaultBaseURL when empty
	Timeout time.Duration // HTTP request timeout
	// MaxRetries bounds the exponential backoff retry on transient
	// failures. 0 disables retries.
	MaxRetries uint64
}
