// Package llm provides internal representations of OpenAI-compatible chat
// completion requests and responses, and the Completer abstraction the rest
// of studyguide talks to.
package llm

import "fmt"

// ErrorResponse is the body of every error returned by the studyguide HTTP API.
type ErrorResponse struct {
	Error string `json:"error"`
}

// APIError is a non-2xx answer from an upstream completion endpoint.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, e.Message)
}
