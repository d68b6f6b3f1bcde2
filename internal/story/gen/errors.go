package gen

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredentials means no API key was configured.
	ErrMissingCredentials = errors.New("gen: missing api key")

	// ErrRateLimited maps the provider's 429 response. Callers may retry
	// after a pause.
	ErrRateLimited = errors.New("gen: rate limit exceeded, try again in a few moments")

	// ErrQuotaExhausted means the account is out of credit. Retrying will
	// not help until the quota resets.
	ErrQuotaExhausted = errors.New("gen: generation temporarily unavailable")

	// ErrMalformedResponse means the provider answered with something that
	// is not the JSON we asked for.
	ErrMalformedResponse = errors.New("gen: invalid response from generation api")
)

// APIError carries a provider error that is none of the recognized cases.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("gen: api error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("gen: api error (status %d)", e.Status)
}
