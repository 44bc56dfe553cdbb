package interview

import (
	"fmt"
	"strings"
)

// Type is the interview flavour requested by the candidate.
type Type string

const (
	Technical  Type = "Technical"
	Behavioral Type = "Behavioral"
	Mixed      Type = "Mixed"
)

// Types lists the supported interview types in display order.
var Types = []Type{Technical, Behavioral, Mixed}

// ParseType matches s case-insensitively against the supported types.
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	for _, t := range Types {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	return "", &ValidationError{Field: "type", Reason: fmt.Sprintf("unsupported interview type %q", s)}
}

// GenerationRequest asks for a set of interview questions.
type GenerationRequest struct {
	Role          string
	Type          Type
	Years         string
	QuestionCount int
}

// Validate checks that every field is present and normalizes the interview type.
func (r *GenerationRequest) Validate() error {
	r.Role = strings.TrimSpace(r.Role)
	r.Years = strings.TrimSpace(r.Years)

	switch {
	case r.Role == "":
		return &ValidationError{Field: "role", Reason: "role is required"}
	case strings.TrimSpace(string(r.Type)) == "":
		return &ValidationError{Field: "type", Reason: "type is required"}
	case r.Years == "":
		return &ValidationError{Field: "years", Reason: "years is required"}
	case r.QuestionCount <= 0:
		return &ValidationError{Field: "numQuestions", Reason: "numQuestions must be a positive integer"}
	}

	t, err := ParseType(string(r.Type))
	if err != nil {
		return err
	}
	r.Type = t

	return nil
}

// QuestionSet is the ordered list of generated questions.
type QuestionSet []string

// FeedbackRequest asks for a scored review of question/answer pairs.
type FeedbackRequest struct {
	Role      string
	Type      Type
	Questions []string
	Answers   []string
}

// Validate checks the pairing invariant and the interview context.
func (r *FeedbackRequest) Validate() error {
	r.Role = strings.TrimSpace(r.Role)

	switch {
	case len(r.Questions) == 0:
		return &ValidationError{Field: "questions", Reason: "questions are required"}
	case len(r.Questions) != len(r.Answers):
		return &ValidationError{
			Field:  "answers",
			Reason: fmt.Sprintf("got %d answers for %d questions", len(r.Answers), len(r.Questions)),
		}
	case r.Role == "":
		return &ValidationError{Field: "role", Reason: "role is required"}
	case strings.TrimSpace(string(r.Type)) == "":
		return &ValidationError{Field: "type", Reason: "type is required"}
	}

	for i, q := range r.Questions {
		if strings.TrimSpace(q) == "" {
			return &ValidationError{Field: "questions", Reason: fmt.Sprintf("question %d is empty", i+1)}
		}
	}

	t, err := ParseType(string(r.Type))
	if err != nil {
		return err
	}
	r.Type = t

	return nil
}

// QuestionFeedback is the review of a single answer.
type QuestionFeedback struct {
	Question     string  `json:"question"`
	Answer       string  `json:"answer"`
	Score        float64 `json:"score"`
	BetterAnswer string  `json:"betterAnswer"`
	Feedback     string  `json:"feedback"`
}

// FeedbackResult is the scored review of a whole interview.
type FeedbackResult struct {
	OverallScore     float64            `json:"overallScore"`
	QuestionFeedback []QuestionFeedback `json:"questionFeedback"`
	OverallFeedback  string             `json:"overallFeedback"`
}
