package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport covers network failures between the client and the relay
	// or provider.
	ErrTransport = errors.New("transport failure")
	// ErrShapeMismatch is returned when a response body does not have the
	// expected candidates[0].content.parts[0].text structure.
	ErrShapeMismatch = errors.New("unexpected response shape")
)

// ProviderError is a non-success status from the relay or the provider.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, e.Message)
}
