package ai

import "context"

// Generator turns a prompt into the provider's free-form text reply.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// GeneratorFactory builds a Generator bound to the given API key.
type GeneratorFactory func(ctx context.Context, apiKey string) (Generator, error)
