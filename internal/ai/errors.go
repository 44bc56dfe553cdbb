package ai

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrOverloaded marks a provider that stayed temporarily unavailable for every attempt.
	ErrOverloaded = errors.New("ai provider is overloaded")
	// ErrEmptyResponse is returned when the provider answers without any text.
	ErrEmptyResponse = errors.New("ai provider returned empty response")
)

// ProviderError is a non-retryable failure reported by the provider or the transport.
type ProviderError struct {
	Code    int
	Status  string
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	parts := make([]string, 0, 3)
	if e.Code != 0 {
		parts = append(parts, fmt.Sprintf("code %d", e.Code))
	}
	if s := strings.TrimSpace(e.Status); s != "" {
		parts = append(parts, s)
	}
	if m := strings.TrimSpace(e.Message); m != "" {
		parts = append(parts, m)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	if len(parts) == 0 {
		return "ai provider error"
	}
	return "ai provider error: " + strings.Join(parts, ": ")
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Detail returns the provider message suitable for a diagnostic response body.
func (e *ProviderError) Detail() string {
	if m := strings.TrimSpace(e.Message); m != "" {
		return m
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Status
}

// OverloadError is returned after the retry budget was spent on overload responses.
type OverloadError struct {
	Attempts int
	Last     error
}

func (e *OverloadError) Error() string {
	if e.Last == nil {
		return fmt.Sprintf("%s after %d attempts", ErrOverloaded, e.Attempts)
	}
	return fmt.Sprintf("%s after %d attempts: %v", ErrOverloaded, e.Attempts, e.Last)
}

// Is reports ErrOverloaded so callers can match with errors.Is.
func (e *OverloadError) Is(target error) bool { return target == ErrOverloaded }

func (e *OverloadError) Unwrap() error { return e.Last }
