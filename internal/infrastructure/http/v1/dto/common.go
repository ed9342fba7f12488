// Package dto holds the JSON shapes of the diagnostics API.
package dto

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code      string         `json:"code"`
	Kind      string         `json:"kind"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Retryable bool           `json:"retryable"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
	// Ledger is healthy, unhealthy or unknown, from the last full check.
	Ledger string `json:"ledger,omitempty"`
}
