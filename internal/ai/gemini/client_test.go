package gemini

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/genai"

	"github.com/spigell/interview-coach/internal/ai"
)

type fakeResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

type fakeModels struct {
	mu      sync.Mutex
	queue   []fakeResponse
	models  []string
	prompts []string
}

func (f *fakeModels) enqueue(resp *genai.GenerateContentResponse, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, fakeResponse{resp: resp, err: err})
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.models = append(f.models, model)
	for _, content := range contents {
		for _, part := range content.Parts {
			f.prompts = append(f.prompts, part.Text)
		}
	}

	if len(f.queue) == 0 {
		return nil, errors.New("unexpected call")
	}
	res := f.queue[0]
	f.queue = f.queue[1:]
	return res.resp, res.err
}

func (f *fakeModels) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.models)
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

// recordSleeps replaces the retry pause with a recorder for the duration of the test.
func recordSleeps(t *testing.T) *[]time.Duration {
	t.Helper()

	var waits []time.Duration
	original := sleep
	sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	t.Cleanup(func() { sleep = original })

	return &waits
}

var overloaded = genai.APIError{Code: http.StatusServiceUnavailable, Status: "UNAVAILABLE", Message: "The model is overloaded. Please try again later."}

func TestGeneratorRetriesOnOverload(t *testing.T) {
	waits := recordSleeps(t)

	models := &fakeModels{}
	models.enqueue(nil, overloaded)
	models.enqueue(nil, overloaded)
	models.enqueue(textResponse(`["Q1", "Q2"]`), nil)

	g := newGenerator(models, Config{Model: "gemini-pro"}, zap.NewNop())

	output, err := g.GenerateContent(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if output != `["Q1", "Q2"]` {
		t.Fatalf("unexpected output: %q", output)
	}

	if models.calls() != 3 {
		t.Fatalf("expected 3 calls, got %d", models.calls())
	}

	if len(*waits) != 2 {
		t.Fatalf("expected 2 pauses between attempts, got %d", len(*waits))
	}
	for _, d := range *waits {
		if d < 2000*time.Millisecond {
			t.Fatalf("expected pause of at least 2000ms, got %s", d)
		}
	}

	for _, model := range models.models {
		if model != "gemini-pro" {
			t.Fatalf("unexpected model: %q", model)
		}
	}
}

func TestGeneratorStopsAfterRetriesExhausted(t *testing.T) {
	waits := recordSleeps(t)

	models := &fakeModels{}
	for i := 0; i < 4; i++ {
		models.enqueue(nil, overloaded)
	}

	g := newGenerator(models, Config{}, zap.NewNop())

	_, err := g.GenerateContent(context.Background(), "prompt")
	if !errors.Is(err, ai.ErrOverloaded) {
		t.Fatalf("expected overload error, got %v", err)
	}

	var overloadErr *ai.OverloadError
	if !errors.As(err, &overloadErr) || overloadErr.Attempts != 3 {
		t.Fatalf("expected OverloadError with 3 attempts, got %v", err)
	}

	var providerErr *ai.ProviderError
	if !errors.As(err, &providerErr) || providerErr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected last overload error to be kept, got %v", err)
	}

	if models.calls() != 3 {
		t.Fatalf("expected 3 calls, got %d", models.calls())
	}

	if len(*waits) != 2 {
		t.Fatalf("expected 2 pauses, got %d", len(*waits))
	}
}

func TestGeneratorDoesNotRetryPermanentErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{
			name: "bad request",
			err:  genai.APIError{Code: http.StatusBadRequest, Status: "INVALID_ARGUMENT", Message: "API key not valid"},
			code: http.StatusBadRequest,
		},
		{
			name: "quota exhausted",
			err:  genai.APIError{Code: http.StatusTooManyRequests, Status: "RESOURCE_EXHAUSTED", Message: "quota exhausted"},
			code: http.StatusTooManyRequests,
		},
		{
			name: "internal",
			err:  genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"},
			code: http.StatusInternalServerError,
		},
		{
			name: "transport",
			err:  errors.New("connection reset by peer"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			waits := recordSleeps(t)

			models := &fakeModels{}
			models.enqueue(nil, tt.err)

			g := newGenerator(models, Config{}, zap.NewNop())

			_, err := g.GenerateContent(context.Background(), "prompt")
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.Is(err, ai.ErrOverloaded) {
				t.Fatalf("permanent error reported as overload: %v", err)
			}

			var providerErr *ai.ProviderError
			if !errors.As(err, &providerErr) {
				t.Fatalf("expected ProviderError, got %T", err)
			}
			if providerErr.Code != tt.code {
				t.Fatalf("expected code %d, got %d", tt.code, providerErr.Code)
			}

			if models.calls() != 1 {
				t.Fatalf("expected single call, got %d", models.calls())
			}
			if len(*waits) != 0 {
				t.Fatalf("expected no pauses, got %d", len(*waits))
			}
		})
	}
}

func TestGeneratorRetriesOnUnavailableStatus(t *testing.T) {
	recordSleeps(t)

	models := &fakeModels{}
	models.enqueue(nil, genai.APIError{Status: "UNAVAILABLE"})
	models.enqueue(textResponse("ok"), nil)

	g := newGenerator(models, Config{}, zap.NewNop())

	if _, err := g.GenerateContent(context.Background(), "prompt"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if models.calls() != 2 {
		t.Fatalf("expected 2 calls, got %d", models.calls())
	}
}

func TestGeneratorEmptyResponse(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{{Text: "  "}}}}},
	}, nil)

	g := newGenerator(models, Config{}, zap.NewNop())

	_, err := g.GenerateContent(context.Background(), "prompt")
	if !errors.Is(err, ai.ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}

	var providerErr *ai.ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("expected ProviderError, got %T", err)
	}
}

func TestGeneratorJoinsCandidateParts(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			nil,
			{Content: &genai.Content{Parts: []*genai.Part{{Text: "Here you go:"}, nil, {Text: `["Q1"]`}}}},
		},
	}, nil)

	g := newGenerator(models, Config{}, zap.NewNop())

	output, err := g.GenerateContent(context.Background(), "  prompt  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output != "Here you go:\n[\"Q1\"]" {
		t.Fatalf("unexpected output: %q", output)
	}
	if models.prompts[0] != "prompt" {
		t.Fatalf("expected trimmed prompt, got %q", models.prompts[0])
	}
}

func TestGeneratorStopsWhenContextCancelledDuringPause(t *testing.T) {
	original := sleep
	sleep = func(context.Context, time.Duration) error { return context.Canceled }
	t.Cleanup(func() { sleep = original })

	models := &fakeModels{}
	models.enqueue(nil, overloaded)
	models.enqueue(textResponse("never"), nil)

	g := newGenerator(models, Config{}, zap.NewNop())

	_, err := g.GenerateContent(context.Background(), "prompt")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if models.calls() != 1 {
		t.Fatalf("expected 1 call, got %d", models.calls())
	}
}

func TestGeneratorLogsRetries(t *testing.T) {
	recordSleeps(t)

	core, observed := observer.New(zapcore.WarnLevel)

	models := &fakeModels{}
	models.enqueue(nil, overloaded)
	models.enqueue(textResponse("ok"), nil)

	g := newGenerator(models, Config{Model: "gemini-pro"}, zap.New(core))

	if _, err := g.GenerateContent(context.Background(), "prompt"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := observed.FilterMessage("gemini is overloaded, retrying").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 retry log entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["ai_model"]; got != "gemini-pro" {
		t.Fatalf("expected model field, got %v", got)
	}
}

func TestGeneratorRejectsEmptyPrompt(t *testing.T) {
	g := newGenerator(&fakeModels{}, Config{}, zap.NewNop())

	if _, err := g.GenerateContent(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty prompt")
	}
}

func TestNewGeneratorRequiresAPIKey(t *testing.T) {
	if _, err := NewGenerator(context.Background(), Config{APIKey: " "}, zap.NewNop()); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestGeneratorAgainstHTTPEndpoint(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
		fail  bool
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		shouldFail := fail
		mu.Unlock()

		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")

		if r.Method != http.MethodPost || !strings.Contains(r.URL.Path, ":generateContent") || !strings.Contains(string(body), "List three questions") {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":404,"message":"unexpected request","status":"NOT_FOUND"}}`))
			return
		}

		if shouldFail {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`))
			return
		}

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"[\"Q1\",\"Q2\",\"Q3\"]"}]},"finishReason":"STOP"}]}`))
	}))
	defer srv.Close()

	factory := Factory(Config{BaseURL: srv.URL, HTTPClient: srv.Client()}, zap.NewNop())

	g, err := factory(context.Background(), "test-key")
	if err != nil {
		t.Fatalf("unexpected factory error: %v", err)
	}

	output, err := g.GenerateContent(context.Background(), "List three questions")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output != `["Q1","Q2","Q3"]` {
		t.Fatalf("unexpected output: %q", output)
	}

	mu.Lock()
	fail = true
	calls = 0
	mu.Unlock()

	_, err = g.GenerateContent(context.Background(), "List three questions")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ai.ErrOverloaded) {
		t.Fatalf("bad request reported as overload: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Fatalf("expected a single request for a permanent error, got %d", calls)
	}
}
