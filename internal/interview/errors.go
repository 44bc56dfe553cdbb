package interview

import (
	"errors"
	"fmt"

	"github.com/spigell/interview-coach/internal/ai"
)

var (
	// ErrValidation marks malformed or incomplete caller input.
	ErrValidation = errors.New("invalid request")
	// ErrMissingCredential is returned when no provider API key is configured.
	ErrMissingCredential = errors.New("missing provider credential")
	// ErrUnparseable means no structured payload could be recovered from the reply.
	ErrUnparseable = errors.New("unparseable response")
	// ErrInvalidShape means the payload was found but lacks required fields.
	ErrInvalidShape = errors.New("invalid response shape")
)

// ValidationError names the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ParseError carries the raw provider reply for diagnostics.
type ParseError struct {
	// Kind is ErrUnparseable or ErrInvalidShape.
	Kind error
	Raw  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.Error()
}

func (e *ParseError) Is(target error) bool { return target == e.Kind }

func (e *ParseError) Unwrap() error { return e.Err }

// FailureKind groups errors by the way they are reported to callers.
type FailureKind string

const (
	KindNone          FailureKind = ""
	KindValidation    FailureKind = "validation"
	KindConfiguration FailureKind = "configuration"
	KindOverloaded    FailureKind = "overloaded"
	KindProvider      FailureKind = "provider"
	KindParse         FailureKind = "parse"
	KindInternal      FailureKind = "internal"
)

// Classify maps an error returned by Service to its FailureKind.
func Classify(err error) FailureKind {
	var (
		parseErr    *ParseError
		providerErr *ai.ProviderError
	)

	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrMissingCredential):
		return KindConfiguration
	case errors.Is(err, ai.ErrOverloaded):
		return KindOverloaded
	case errors.As(err, &parseErr):
		return KindParse
	case errors.As(err, &providerErr):
		return KindProvider
	default:
		return KindInternal
	}
}
