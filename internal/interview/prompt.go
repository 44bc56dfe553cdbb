package interview

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"
)

//go:embed prompts/questions.md
var questionsTemplate string

//go:embed prompts/feedback.md
var feedbackTemplate string

var typeGuidance = map[Type]string{
	Technical:  "Include a mix of conceptual, practical, and scenario-based technical questions.",
	Behavioral: "Focus on soft skills, teamwork, communication, and problem-solving situations.",
	Mixed:      "Include both technical and behavioral questions.",
}

// BuildQuestionsPrompt renders the question generation instruction for req.
func BuildQuestionsPrompt(req GenerationRequest) string {
	r := strings.NewReplacer(
		"{{COUNT}}", strconv.Itoa(req.QuestionCount),
		"{{ROLE}}", req.Role,
		"{{TYPE}}", string(req.Type),
		"{{YEARS}}", req.Years,
		"{{TYPE_GUIDANCE}}", typeGuidance[req.Type],
	)
	return strings.TrimSpace(r.Replace(questionsTemplate))
}

// BuildFeedbackPrompt renders the evaluation instruction for the question/answer pairs in req.
func BuildFeedbackPrompt(req FeedbackRequest) string {
	r := strings.NewReplacer(
		"{{ROLE}}", req.Role,
		"{{TYPE}}", string(req.Type),
		"{{PAIRS}}", formatPairs(req.Questions, req.Answers),
	)
	return strings.TrimSpace(r.Replace(feedbackTemplate))
}

func formatPairs(questions, answers []string) string {
	blocks := make([]string, 0, len(questions))
	for i, q := range questions {
		answer := ""
		if i < len(answers) {
			answer = strings.TrimSpace(answers[i])
		}
		if answer == "" {
			answer = "(no answer)"
		}
		blocks = append(blocks, fmt.Sprintf("%d. Question: %s\n   Answer: %s", i+1, strings.TrimSpace(q), answer))
	}
	return strings.Join(blocks, "\n\n")
}
