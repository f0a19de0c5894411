// Package llm provides provider-neutral representations of chat requests,
// streamed responses and errors exchanged with hosted language models.
package llm

import "fmt"

// ErrorResponse represents an error returned to HTTP callers.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ProviderError is a failure reported by an upstream model provider.
type ProviderError struct {
	Provider   string
	StatusCode int    // HTTP status, 0 when the error arrived inside a stream
	Status     string // Provider status code (e.g. "INVALID_ARGUMENT")
	Message    string
}

func (e *ProviderError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Provider, e.Message)
	}

	return fmt.Sprintf("%s returned %d %s: %s", e.Provider, e.StatusCode, e.Status, e.Message)
}
