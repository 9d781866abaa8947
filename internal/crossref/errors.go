package crossref

import (
	"errors"
	"fmt"
)

// Common errors returned by the Crossref client. Every one of them is
// soft from the pipeline's point of view: the caller falls back to
// locally extracted candidates.
var (
	// ErrNotFound indicates the DOI has no Crossref record.
	ErrNotFound = errors.New("DOI not found in Crossref")

	// ErrRateLimited indicates the service pushed back on request volume.
	ErrRateLimited = errors.New("Crossref rate limit exceeded")

	// ErrUnavailable indicates a network failure or server-side error.
	ErrUnavailable = errors.New("Crossref unavailable")

	// ErrInvalidResponse indicates a response that does not look like a
	// work record.
	ErrInvalidResponse = errors.New("invalid response from Crossref")
)

// APIError represents an HTTP-level error from the Crossref API.
type APIError struct {
	StatusCode int
	DOI        string
	Message    string
}

func (e *APIError) Error() string {
	if e.DOI != "" {
		return fmt.Sprintf("Crossref API error (status %d): %s (doi: %s)", e.StatusCode, e.Message, e.DOI)
	}
	return fmt.Sprintf("Crossref API error (status %d): %s", e.StatusCode, e.Message)
}

// IsNotFound returns true if the error indicates the DOI has no record.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}
	return false
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

// IsUnavailable returns true if the error indicates the service could
// not be reached or answered with a server-side failure.
func IsUnavailable(err error) bool {
	if errors.Is(err, ErrUnavailable) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}
	return false
}
