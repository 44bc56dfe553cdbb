package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/interview"
	"github.com/spigell/interview-coach/internal/logger"
	"github.com/spigell/interview-coach/internal/store"
)

type createInterviewPayload struct {
	UserID       string   `mapstructure:"userId"`
	Role         string   `mapstructure:"role"`
	Type         string   `mapstructure:"type"`
	Years        string   `mapstructure:"years"`
	NumQuestions int      `mapstructure:"numQuestions"`
	TechStack    []string `mapstructure:"techStack"`
}

func (p createInterviewPayload) request() interview.GenerationRequest {
	return questionsPayload{
		Role:         p.Role,
		Type:         p.Type,
		Years:        p.Years,
		NumQuestions: p.NumQuestions,
	}.request()
}

type answerPayload struct {
	Answer string `mapstructure:"answer"`
}

type interviewsResponse struct {
	Interviews []*store.Interview `json:"interviews"`
}

func (s *Server) handleCreateInterview(w http.ResponseWriter, r *http.Request) {
	var p createInterviewPayload
	if err := decodePayload(w, r, &p); err != nil {
		writeError(w, http.StatusBadRequest, messages[interview.OpQuestions].invalid, err.Error())
		return
	}

	userID := strings.TrimSpace(p.UserID)
	if userID == "" {
		writeError(w, http.StatusBadRequest, messages[interview.OpQuestions].invalid, "userId is required")
		return
	}

	// Validate normalizes role, years and type in place for the stored record.
	req := p.request()
	if err := req.Validate(); err != nil {
		writeGenerationError(w, r, interview.OpQuestions, err)
		return
	}

	questions, err := s.generator.GenerateQuestions(r.Context(), req)
	if err != nil {
		writeGenerationError(w, r, interview.OpQuestions, err)
		return
	}

	iv := &store.Interview{
		UserID:    userID,
		Role:      req.Role,
		Type:      req.Type,
		Years:     req.Years,
		TechStack: cleanList(p.TechStack),
		Questions: questions,
	}
	if err := s.store.Create(r.Context(), iv); err != nil {
		writeStoreError(w, r, err)
		return
	}

	loggerFrom(r.Context()).Info("interview created",
		zap.String(logger.FieldInterviewID, iv.ID),
		zap.Int("questions", len(iv.Questions)),
	)

	writeJSON(w, http.StatusCreated, iv)
}

func (s *Server) handleListInterviews(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields", "userId is required")
		return
	}

	interviews, err := s.store.List(r.Context(), userID)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, interviewsResponse{Interviews: interviews})
}

func (s *Server) handleGetInterview(w http.ResponseWriter, r *http.Request) {
	iv, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, iv)
}

func (s *Server) handleSaveAnswer(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid question index", r.PathValue("index"))
		return
	}

	var p answerPayload
	if err := decodePayload(w, r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid answer", err.Error())
		return
	}
	if strings.TrimSpace(p.Answer) == "" {
		writeError(w, http.StatusBadRequest, "Invalid answer", "answer must not be empty")
		return
	}

	iv, err := s.store.SaveAnswer(r.Context(), r.PathValue("id"), index, strings.TrimSpace(p.Answer))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, iv)
}

func (s *Server) handleCompleteInterview(w http.ResponseWriter, r *http.Request) {
	iv, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if iv.Status == store.StatusCompleted {
		writeStoreError(w, r, store.ErrCompleted)
		return
	}

	answers := iv.AnswerList()
	if missing := unanswered(answers); len(missing) > 0 {
		writeError(w, http.StatusBadRequest, "All questions must be answered", map[string][]int{"unanswered": missing})
		return
	}

	result, err := s.generator.GenerateFeedback(r.Context(), interview.FeedbackRequest{
		Role:      iv.Role,
		Type:      iv.Type,
		Questions: iv.Questions,
		Answers:   answers,
	})
	if err != nil {
		writeGenerationError(w, r, interview.OpFeedback, err)
		return
	}

	if _, err := s.store.Complete(r.Context(), iv.ID, result); err != nil {
		writeStoreError(w, r, err)
		return
	}

	loggerFrom(r.Context()).Info("interview completed",
		zap.String(logger.FieldInterviewID, iv.ID),
		zap.Float64("score", result.OverallScore),
	)

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetFeedback(w http.ResponseWriter, r *http.Request) {
	iv, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if iv.Feedback == nil {
		writeError(w, http.StatusNotFound, "Feedback not available", "interview is not completed")
		return
	}

	writeJSON(w, http.StatusOK, iv.Feedback)
}

func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Interview not found", nil)
	case errors.Is(err, store.ErrInvalidIndex):
		writeError(w, http.StatusBadRequest, "Invalid question index", err.Error())
	case errors.Is(err, store.ErrCompleted):
		writeError(w, http.StatusConflict, "Interview already completed", nil)
	default:
		loggerFrom(r.Context()).Error("interview store failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to access interview store", nil)
	}
}

// unanswered returns the indexes of blank answers.
func unanswered(answers []string) []int {
	var missing []int
	for i, a := range answers {
		if strings.TrimSpace(a) == "" {
			missing = append(missing, i)
		}
	}
	return missing
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
