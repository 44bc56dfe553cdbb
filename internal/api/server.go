// Package api exposes the generation pipeline and interview sessions over HTTP.
package api

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/interview"
	"github.com/spigell/interview-coach/internal/metrics"
	"github.com/spigell/interview-coach/internal/store"
)

// Generator is the part of interview.Service the handlers depend on.
type Generator interface {
	GenerateQuestions(ctx context.Context, req interview.GenerationRequest) (interview.QuestionSet, error)
	GenerateFeedback(ctx context.Context, req interview.FeedbackRequest) (*interview.FeedbackResult, error)
}

var _ Generator = (*interview.Service)(nil)

// Option configures a Server.
type Option func(*Server)

// WithStore enables the interview session endpoints.
func WithStore(s store.Store) Option {
	return func(srv *Server) {
		srv.store = s
	}
}

// WithMetrics records request metrics and serves them on /metrics.
func WithMetrics(m *metrics.Manager) Option {
	return func(srv *Server) {
		srv.metrics = m
	}
}

// WithLogger sets the access and error logger.
func WithLogger(l *zap.Logger) Option {
	return func(srv *Server) {
		if l != nil {
			srv.logger = l
		}
	}
}

// Server wires HTTP routes to the generation service and the session store.
type Server struct {
	generator Generator
	store     store.Store
	metrics   *metrics.Manager
	logger    *zap.Logger
}

// NewServer creates a Server backed by generator.
func NewServer(generator Generator, opts ...Option) *Server {
	s := &Server{
		generator: generator,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the mux with every route registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return mux
}

// Register attaches all routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.instrument("healthz", s.handleHealth))
	mux.HandleFunc("POST /generate-questions", s.instrument("generate-questions", s.handleGenerateQuestions))
	mux.HandleFunc("POST /generate-feedback", s.instrument("generate-feedback", s.handleGenerateFeedback))

	if s.store != nil {
		mux.HandleFunc("POST /interviews", s.instrument("interviews-create", s.handleCreateInterview))
		mux.HandleFunc("GET /interviews", s.instrument("interviews-list", s.handleListInterviews))
		mux.HandleFunc("GET /interviews/{id}", s.instrument("interviews-get", s.handleGetInterview))
		mux.HandleFunc("PUT /interviews/{id}/answers/{index}", s.instrument("interviews-answer", s.handleSaveAnswer))
		mux.HandleFunc("POST /interviews/{id}/complete", s.instrument("interviews-complete", s.handleCompleteInterview))
		mux.HandleFunc("GET /interviews/{id}/feedback", s.instrument("interviews-feedback", s.handleGetFeedback))
	}

	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
