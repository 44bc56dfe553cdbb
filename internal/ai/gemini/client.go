package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/interview-coach/internal/ai"
	"github.com/spigell/interview-coach/internal/logger"
	"github.com/spigell/interview-coach/internal/utils"
)

const (
	// ProviderName identifies Gemini in logs and metrics.
	ProviderName = "gemini"

	defaultModel        = "gemini-2.0-flash"
	defaultMaxLogLength = 200

	// Overload responses are retried a fixed number of times with a fixed pause.
	maxAttempts = 3
	retryDelay  = 2000 * time.Millisecond
)

// sleep is swapped in tests to record retry pauses without waiting.
var sleep = utils.WaitFor

type modelsAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Config describes how to reach the Gemini API.
type Config struct {
	APIKey       string
	Model        string
	BaseURL      string
	MaxLogLength int
	HTTPClient   *http.Client
}

// Generator sends prompts to Gemini and returns the textual reply.
type Generator struct {
	models      modelsAPI
	model       string
	maxAttempts int
	retryDelay  time.Duration
	maxLogLen   int
	logger      *zap.Logger
}

// NewGenerator creates a Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, cfg Config, log *zap.Logger) (*Generator, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGenerator(client.Models, cfg, log), nil
}

func newGenerator(models modelsAPI, cfg Config, log *zap.Logger) *Generator {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	maxLogLen := cfg.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLength
	}

	return &Generator{
		models:      models,
		model:       model,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		maxLogLen:   maxLogLen,
		logger:      logger.WithCommonFields(log, ProviderName, model),
	}
}

// Factory returns an ai.GeneratorFactory that binds cfg to the per-request API key.
func Factory(cfg Config, log *zap.Logger) ai.GeneratorFactory {
	return func(ctx context.Context, apiKey string) (ai.Generator, error) {
		c := cfg
		c.APIKey = apiKey
		return NewGenerator(ctx, c, log)
	}
}

// Model returns the configured model name.
func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

// GenerateContent sends the prompt to Gemini and returns the joined candidate text.
// Overload responses are retried; every other failure is returned at once as *ai.ProviderError.
// When all attempts were overloaded the result is an *ai.OverloadError.
func (g *Generator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if g == nil || g.models == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	g.logger.Debug("gemini generate content request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, g.maxLogLen)),
	)

	var lastErr error
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		output, err := g.generateOnce(ctx, prompt)
		if err == nil {
			g.logger.Debug("gemini generate content response",
				zap.Int("attempt", attempt),
				zap.Int("response_length", utf8.RuneCountInString(output)),
				zap.String("response_preview", utils.TruncateForLog(output, g.maxLogLen)),
			)
			return output, nil
		}

		if !isOverloaded(err) {
			g.logger.Warn("gemini request failed", zap.Int("attempt", attempt), zap.Error(err))
			return "", toProviderError(err)
		}

		lastErr = err
		if attempt == g.maxAttempts {
			break
		}

		g.logger.Warn("gemini is overloaded, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", g.maxAttempts),
			zap.Duration("delay", g.retryDelay),
			zap.Error(err),
		)

		if err := sleep(ctx, g.retryDelay); err != nil {
			return "", fmt.Errorf("waiting before retry: %w", err)
		}
	}

	g.logger.Warn("gemini retries exhausted", zap.Int("attempts", g.maxAttempts), zap.Error(lastErr))

	return "", &ai.OverloadError{Attempts: g.maxAttempts, Last: toProviderError(lastErr)}
}

func (g *Generator) generateOnce(ctx context.Context, prompt string) (string, error) {
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", ai.ErrEmptyResponse
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", ai.ErrEmptyResponse
	}

	return output, nil
}

func asAPIError(err error) (genai.APIError, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}

	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return *apiErrPtr, true
	}

	return genai.APIError{}, false
}

// isOverloaded reports the provider's explicit temporary-unavailability signal.
func isOverloaded(err error) bool {
	apiErr, ok := asAPIError(err)
	if !ok {
		return false
	}
	return apiErr.Code == http.StatusServiceUnavailable || strings.EqualFold(apiErr.Status, "UNAVAILABLE")
}

func toProviderError(err error) *ai.ProviderError {
	var providerErr *ai.ProviderError
	if errors.As(err, &providerErr) {
		return providerErr
	}

	if apiErr, ok := asAPIError(err); ok {
		return &ai.ProviderError{
			Code:    apiErr.Code,
			Status:  apiErr.Status,
			Message: apiErr.Message,
			Err:     err,
		}
	}

	return &ai.ProviderError{Err: err}
}
