package interview

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/ai"
	"github.com/spigell/interview-coach/internal/utils"
)

const defaultMaxLogLength = 200

// Operation names used in logs and metrics.
const (
	OpQuestions = "questions"
	OpFeedback  = "feedback"
)

// KeySource resolves the provider API key for a single request.
type KeySource func() (string, error)

// Recorder observes the outcome of every generation pipeline run.
type Recorder interface {
	ObserveGeneration(operation string, kind FailureKind, duration time.Duration)
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRecorder sets the outcome recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithMaxLogLength bounds prompt and reply previews in debug logs.
func WithMaxLogLength(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxLogLen = n
		}
	}
}

// Service runs the prompt → generate → parse pipeline. It keeps no per-request state.
type Service struct {
	keys       KeySource
	generators ai.GeneratorFactory
	logger     *zap.Logger
	recorder   Recorder
	maxLogLen  int
}

// NewService creates a Service that builds a generator per request from the current key.
func NewService(keys KeySource, generators ai.GeneratorFactory, opts ...Option) *Service {
	s := &Service{
		keys:       keys,
		generators: generators,
		logger:     zap.NewNop(),
		maxLogLen:  defaultMaxLogLength,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateQuestions produces interview questions for req.
func (s *Service) GenerateQuestions(ctx context.Context, req GenerationRequest) (questions QuestionSet, err error) {
	start := time.Now()
	defer func() { s.observe(OpQuestions, err, time.Since(start)) }()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	raw, err := s.generate(ctx, OpQuestions, BuildQuestionsPrompt(req))
	if err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}

	questions, err = ParseQuestions(raw)
	if err != nil {
		return nil, fmt.Errorf("parse questions: %w", err)
	}

	if len(questions) != req.QuestionCount {
		s.logger.Debug("question count differs from requested",
			zap.Int("requested", req.QuestionCount),
			zap.Int("received", len(questions)),
		)
	}

	return questions, nil
}

// GenerateFeedback scores the answers in req.
func (s *Service) GenerateFeedback(ctx context.Context, req FeedbackRequest) (result *FeedbackResult, err error) {
	start := time.Now()
	defer func() { s.observe(OpFeedback, err, time.Since(start)) }()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	raw, err := s.generate(ctx, OpFeedback, BuildFeedbackPrompt(req))
	if err != nil {
		return nil, fmt.Errorf("generate feedback: %w", err)
	}

	result, err = ParseFeedback(raw)
	if err != nil {
		return nil, fmt.Errorf("parse feedback: %w", err)
	}

	return result, nil
}

func (s *Service) generate(ctx context.Context, op, prompt string) (string, error) {
	if s.keys == nil {
		return "", ErrMissingCredential
	}

	apiKey, err := s.keys()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMissingCredential, err)
	}

	generator, err := s.generators(ctx, apiKey)
	if err != nil {
		return "", fmt.Errorf("create generator: %w", err)
	}

	s.logger.Debug("generation request",
		zap.String("operation", op),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, s.maxLogLen)),
	)

	raw, err := generator.GenerateContent(ctx, prompt)
	if err != nil {
		return "", err
	}

	s.logger.Debug("generation response",
		zap.String("operation", op),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, s.maxLogLen)),
	)

	return raw, nil
}

func (s *Service) observe(op string, err error, d time.Duration) {
	kind := Classify(err)
	if kind != KindNone && kind != KindValidation {
		s.logger.Warn("generation failed",
			zap.String("operation", op),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	}

	if s.recorder != nil {
		s.recorder.ObserveGeneration(op, kind, d)
	}
}
