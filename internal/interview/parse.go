package interview

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// listMarker matches numbering and bullet prefixes such as "1.", "2)", "Q3:", "Question 4 -", "-" or "*".
var listMarker = regexp.MustCompile(`^(?:(?:(?i:q(?:uestion)?)\s*)?\d+\s*[.):\-]|[-*•])\s*`)

// ParseQuestions extracts the question list from the provider reply.
// A JSON array embedded anywhere in the text wins; otherwise list-like lines are used.
func ParseQuestions(raw string) (QuestionSet, error) {
	cleaned := stripCodeFence(raw)

	var decodeErr error
	if items, ok, err := decodeFirst[[]any](cleaned, '['); ok {
		questions, err := questionsFromArray(items)
		if err != nil {
			return nil, &ParseError{Kind: ErrInvalidShape, Raw: raw, Err: err}
		}
		return questions, nil
	} else if err != nil {
		decodeErr = err
	}

	questions := questionsFromLines(cleaned)
	if len(questions) == 0 {
		err := errors.New("no question list found")
		if decodeErr != nil {
			err = fmt.Errorf("no question list found: %w", decodeErr)
		}
		return nil, &ParseError{Kind: ErrUnparseable, Raw: raw, Err: err}
	}

	return questions, nil
}

// ParseFeedback extracts the scored review object from the provider reply.
func ParseFeedback(raw string) (*FeedbackResult, error) {
	cleaned := stripCodeFence(raw)

	data, ok, err := decodeFirst[map[string]any](cleaned, '{')
	if !ok {
		if err == nil {
			err = errors.New("no feedback object found")
		}
		return nil, &ParseError{Kind: ErrUnparseable, Raw: raw, Err: err}
	}

	overall := coerceFloat(data["overallScore"])
	if math.IsNaN(overall) {
		return nil, &ParseError{Kind: ErrInvalidShape, Raw: raw, Err: errors.New("overallScore must be a number")}
	}

	entries, ok := data["questionFeedback"].([]any)
	if !ok {
		return nil, &ParseError{Kind: ErrInvalidShape, Raw: raw, Err: errors.New("questionFeedback must be an array")}
	}

	result := &FeedbackResult{
		OverallScore:     clampScore(overall),
		QuestionFeedback: make([]QuestionFeedback, 0, len(entries)),
		OverallFeedback:  coerceString(data["overallFeedback"]),
	}

	for i, entry := range entries {
		if entry == nil {
			continue
		}
		item, ok := entry.(map[string]any)
		if !ok {
			return nil, &ParseError{Kind: ErrInvalidShape, Raw: raw, Err: fmt.Errorf("questionFeedback[%d] must be an object", i)}
		}

		score := coerceFloat(item["score"])
		if math.IsNaN(score) {
			score = 0
		}

		result.QuestionFeedback = append(result.QuestionFeedback, QuestionFeedback{
			Question:     coerceString(item["question"]),
			Answer:       coerceString(item["answer"]),
			Score:        clampScore(score),
			BetterAnswer: coerceString(item["betterAnswer"]),
			Feedback:     coerceString(item["feedback"]),
		})
	}

	return result, nil
}

// decodeFirst decodes the first balanced value opened by open that is valid JSON for T.
// ok is false when no candidate decoded; err then holds the first decode failure, if any.
func decodeFirst[T any](s string, open byte) (T, bool, error) {
	var (
		zero     T
		firstErr error
	)

	for start := strings.IndexByte(s, open); start >= 0; {
		end := matchBracket(s, start)
		if end < 0 {
			if firstErr == nil {
				firstErr = fmt.Errorf("unbalanced %q at offset %d", open, start)
			}
		} else {
			var v T
			err := json.Unmarshal([]byte(s[start:end+1]), &v)
			if err == nil {
				return v, true, nil
			}
			if firstErr == nil {
				firstErr = err
			}
		}

		next := strings.IndexByte(s[start+1:], open)
		if next < 0 {
			break
		}
		start += next + 1
	}

	return zero, false, firstErr
}

// matchBracket returns the index closing the bracket at s[start], or -1.
// Brackets inside JSON string literals are ignored.
func matchBracket(s string, start int) int {
	stack := make([]byte, 0, 8)
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '[':
			stack = append(stack, ']')
		case '{':
			stack = append(stack, '}')
		case ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return -1
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i
			}
		}
	}

	return -1
}

func questionsFromArray(items []any) (QuestionSet, error) {
	if len(items) == 0 {
		return nil, errors.New("question list is empty")
	}

	questions := make(QuestionSet, 0, len(items))
	for i, item := range items {
		var text string
		switch v := item.(type) {
		case string:
			text = v
		case map[string]any:
			// Some replies wrap each question as {"question": "..."}.
			q, ok := v["question"].(string)
			if !ok {
				return nil, fmt.Errorf("question %d is not a string", i+1)
			}
			text = q
		default:
			return nil, fmt.Errorf("question %d is not a string", i+1)
		}

		text = strings.TrimSpace(text)
		if text == "" {
			return nil, fmt.Errorf("question %d is empty", i+1)
		}
		questions = append(questions, text)
	}

	return questions, nil
}

// questionsFromLines keeps list items and lines ending in "?". A reply with
// neither is taken line by line when it has at least two candidate lines;
// lead-ins ending in ":" and lines without letters are never questions.
func questionsFromLines(text string) QuestionSet {
	var listed, plain QuestionSet

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		marked := false
		if loc := listMarker.FindStringIndex(line); loc != nil {
			marked = true
			line = strings.TrimSpace(line[loc[1]:])
		}

		line = strings.TrimSpace(strings.Trim(line, `"',`))
		line = strings.TrimSpace(strings.Trim(line, "*"))
		if !hasLetter(line) {
			continue
		}

		switch {
		case marked || strings.HasSuffix(line, "?"):
			listed = append(listed, line)
		case strings.HasSuffix(line, ":"):
			// lead-in
		default:
			plain = append(plain, line)
		}
	}

	if len(listed) > 0 {
		return listed
	}
	if len(plain) >= 2 {
		return plain
	}
	return nil
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func stripCodeFence(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	return strings.TrimSpace(raw)
}

func clampScore(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		trimmed := strings.TrimSuffix(strings.TrimSpace(val), "%")
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(trimmed), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case nil:
		return ""
	default:
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
