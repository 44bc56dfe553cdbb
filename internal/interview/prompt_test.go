package interview

import (
	"strings"
	"testing"
)

func TestBuildQuestionsPrompt(t *testing.T) {
	req := GenerationRequest{Role: "Backend Engineer", Type: Technical, Years: "2-3", QuestionCount: 3}

	prompt := BuildQuestionsPrompt(req)

	for _, want := range []string{
		"3 high-quality",
		"Backend Engineer position",
		"Interview type: Technical",
		"Years of experience: 2-3",
		"JSON array of strings",
		typeGuidance[Technical],
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt is missing %q:\n%s", want, prompt)
		}
	}

	if strings.Contains(prompt, "{{") {
		t.Fatalf("unreplaced placeholder in prompt:\n%s", prompt)
	}

	if again := BuildQuestionsPrompt(req); again != prompt {
		t.Fatalf("prompt is not deterministic")
	}
}

func TestBuildQuestionsPromptDoesNotExpandPlaceholdersFromInput(t *testing.T) {
	req := GenerationRequest{Role: "{{YEARS}} wrangler", Type: Behavioral, Years: "5", QuestionCount: 1}

	prompt := BuildQuestionsPrompt(req)

	if !strings.Contains(prompt, "{{YEARS}} wrangler position") {
		t.Fatalf("role must be embedded literally:\n%s", prompt)
	}
}

func TestBuildFeedbackPrompt(t *testing.T) {
	req := FeedbackRequest{
		Role:      "SRE",
		Type:      Mixed,
		Questions: []string{"What is an SLO?", "Describe an outage you handled."},
		Answers:   []string{"A target for an SLI.", "  "},
	}

	prompt := BuildFeedbackPrompt(req)

	for _, want := range []string{
		"for a SRE position (Mixed interview)",
		"1. Question: What is an SLO?\n   Answer: A target for an SLI.",
		"2. Question: Describe an outage you handled.\n   Answer: (no answer)",
		`"overallScore": number`,
		`"questionFeedback": [`,
		`"overallFeedback"`,
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt is missing %q:\n%s", want, prompt)
		}
	}

	if again := BuildFeedbackPrompt(req); again != prompt {
		t.Fatalf("prompt is not deterministic")
	}
}
