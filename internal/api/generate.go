package api

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/ai"
	"github.com/spigell/interview-coach/internal/interview"
)

type questionsPayload struct {
	Role         string `mapstructure:"role"`
	Type         string `mapstructure:"type"`
	Years        string `mapstructure:"years"`
	NumQuestions int    `mapstructure:"numQuestions"`
}

func (p questionsPayload) request() interview.GenerationRequest {
	return interview.GenerationRequest{
		Role:          p.Role,
		Type:          interview.Type(p.Type),
		Years:         p.Years,
		QuestionCount: p.NumQuestions,
	}
}

type feedbackPayload struct {
	Role      string   `mapstructure:"role"`
	Type      string   `mapstructure:"type"`
	Questions []string `mapstructure:"questions"`
	Answers   []string `mapstructure:"answers"`
}

func (p feedbackPayload) request() interview.FeedbackRequest {
	return interview.FeedbackRequest{
		Role:      p.Role,
		Type:      interview.Type(p.Type),
		Questions: p.Questions,
		Answers:   p.Answers,
	}
}

type questionsResponse struct {
	Questions interview.QuestionSet `json:"questions"`
}

// Client facing messages per operation.
type opMessages struct {
	invalid    string
	overloaded string
	parse      string
	failed     string
}

var messages = map[string]opMessages{
	interview.OpQuestions: {
		invalid:    "Missing required fields",
		overloaded: "The AI question service is temporarily overloaded. Please try again in a few minutes.",
		parse:      "Failed to parse questions from Gemini response",
		failed:     "Failed to generate questions",
	},
	interview.OpFeedback: {
		invalid:    "Invalid questions or answers data",
		overloaded: "The AI feedback service is temporarily overloaded. Please try again in a few minutes.",
		parse:      "Failed to parse feedback from Gemini response",
		failed:     "Failed to generate feedback",
	},
}

const (
	msgMissingKey  = "Missing Gemini API key"
	msgProviderErr = "Gemini API error"
)

func (s *Server) handleGenerateQuestions(w http.ResponseWriter, r *http.Request) {
	var p questionsPayload
	if err := decodePayload(w, r, &p); err != nil {
		writeError(w, http.StatusBadRequest, messages[interview.OpQuestions].invalid, err.Error())
		return
	}

	questions, err := s.generator.GenerateQuestions(r.Context(), p.request())
	if err != nil {
		writeGenerationError(w, r, interview.OpQuestions, err)
		return
	}

	writeJSON(w, http.StatusOK, questionsResponse{Questions: questions})
}

func (s *Server) handleGenerateFeedback(w http.ResponseWriter, r *http.Request) {
	var p feedbackPayload
	if err := decodePayload(w, r, &p); err != nil {
		writeError(w, http.StatusBadRequest, messages[interview.OpFeedback].invalid, err.Error())
		return
	}

	result, err := s.generator.GenerateFeedback(r.Context(), p.request())
	if err != nil {
		writeGenerationError(w, r, interview.OpFeedback, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// writeGenerationError maps a pipeline failure to its status code and body.
func writeGenerationError(w http.ResponseWriter, r *http.Request, op string, err error) {
	msg := messages[op]
	log := loggerFrom(r.Context()).With(zap.String("operation", op))

	switch interview.Classify(err) {
	case interview.KindValidation:
		var validationErr *interview.ValidationError
		detail := err.Error()
		if errors.As(err, &validationErr) {
			detail = validationErr.Reason
		}
		writeError(w, http.StatusBadRequest, msg.invalid, detail)
	case interview.KindConfiguration:
		log.Error("provider credential is not configured", zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgMissingKey, nil)
	case interview.KindOverloaded:
		writeError(w, http.StatusServiceUnavailable, msg.overloaded, nil)
	case interview.KindProvider:
		var providerErr *ai.ProviderError
		errors.As(err, &providerErr)
		writeError(w, http.StatusInternalServerError, msgProviderErr, providerErr.Detail())
	case interview.KindParse:
		var parseErr *interview.ParseError
		errors.As(err, &parseErr)
		writeError(w, http.StatusInternalServerError, msg.parse, parseErr.Raw)
	default:
		log.Error("generation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, msg.failed, nil)
	}
}
