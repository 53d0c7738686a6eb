package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyReply means the provider answered but produced no usable text.
	ErrEmptyReply = errors.New("provider returned no text")
	// ErrUnknownProvider is returned for provider ids outside the catalog.
	ErrUnknownProvider = errors.New("unknown provider")
)

// ProviderError is a failed chat call: a non-2xx answer or a transport failure
// (StatusCode 0).
type ProviderError struct {
	Provider   Provider
	StatusCode int
	Body       string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s error: %d - %s", e.Provider, e.StatusCode, truncate(e.Body, 400))
}

func (e *ProviderError) Unwrap() error { return e.Err }

// CredentialError means the provider rejected the credential (4xx) while
// listing models.
type CredentialError struct {
	Provider   Provider
	StatusCode int
	Body       string
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("%s rejected the API key: %d - %s", e.Provider, e.StatusCode, truncate(e.Body, 400))
}

// UnavailableError covers every other failed model listing.
type UnavailableError struct {
	Provider   Provider
	StatusCode int
	Body       string
	Err        error
}

func (e *UnavailableError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s model listing failed: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s model listing failed: %d - %s", e.Provider, e.StatusCode, truncate(e.Body, 400))
}

func (e *UnavailableError) Unwrap() error { return e.Err }

func truncate(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars])
}
