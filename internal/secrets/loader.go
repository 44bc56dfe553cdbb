package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNotConfigured is returned when a source yields no usable secret.
var ErrNotConfigured = errors.New("secret is not configured")

// Source describes how to load a secret value.
type Source struct {
	// Name is used in error messages to give more context about the secret.
	Name string
	// Value is an inline secret value, usually coming from the environment.
	Value string
	// File points to a file containing the secret value. It is consulted only
	// when Value is blank.
	File string
}

// Load resolves the secret from the inline value first and the file second.
// The returned secret is always trimmed. Every failure wraps ErrNotConfigured.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	if secret := strings.TrimSpace(src.Value); secret != "" {
		return secret, nil
	}

	file := strings.TrimSpace(src.File)
	if file == "" {
		return "", fmt.Errorf("%s: %w", name, ErrNotConfigured)
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("reading %s from file %q: %w: %w", name, file, ErrNotConfigured, err)
	}

	secret := strings.TrimSpace(string(data))
	if secret == "" {
		return "", fmt.Errorf("%s file %q is empty: %w", name, file, ErrNotConfigured)
	}

	return secret, nil
}
