package ai

import (
	"errors"
	"strings"
	"testing"
)

func TestOverloadErrorMatchesSentinel(t *testing.T) {
	last := &ProviderError{Code: 503, Status: "UNAVAILABLE", Message: "model is overloaded"}
	err := error(&OverloadError{Attempts: 3, Last: last})

	if !errors.Is(err, ErrOverloaded) {
		t.Fatalf("expected errors.Is(err, ErrOverloaded)")
	}

	var providerErr *ProviderError
	if !errors.As(err, &providerErr) || providerErr.Code != 503 {
		t.Fatalf("expected last provider error to be reachable, got %v", err)
	}

	if !strings.Contains(err.Error(), "3 attempts") {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestProviderErrorDetail(t *testing.T) {
	tests := []struct {
		name   string
		err    *ProviderError
		detail string
		text   string
	}{
		{
			name:   "message",
			err:    &ProviderError{Code: 400, Status: "INVALID_ARGUMENT", Message: "bad prompt"},
			detail: "bad prompt",
			text:   "ai provider error: code 400: INVALID_ARGUMENT: bad prompt",
		},
		{
			name:   "wrapped",
			err:    &ProviderError{Err: ErrEmptyResponse},
			detail: ErrEmptyResponse.Error(),
			text:   "ai provider error: " + ErrEmptyResponse.Error(),
		},
		{
			name: "bare",
			err:  &ProviderError{},
			text: "ai provider error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Detail(); got != tt.detail {
				t.Fatalf("expected detail %q, got %q", tt.detail, got)
			}
			if got := tt.err.Error(); got != tt.text {
				t.Fatalf("expected text %q, got %q", tt.text, got)
			}
		})
	}

	if !errors.Is(&ProviderError{Err: ErrEmptyResponse}, ErrEmptyResponse) {
		t.Fatalf("expected wrapped sentinel to match")
	}
}
