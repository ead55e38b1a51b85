package generation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rbright/candor/internal/interview"
)

// CleanJSON strips a markdown code fence around model output.
func CleanJSON(input string) string {
	clean := strings.TrimSpace(input)
	if strings.HasPrefix(clean, "```") {
		clean = strings.TrimPrefix(clean, "```")
		clean = strings.TrimPrefix(clean, "json")
		clean = strings.TrimPrefix(clean, "JSON")
		clean = strings.TrimLeft(clean, "\r\n")
		if end := strings.LastIndex(clean, "```"); end >= 0 {
			clean = clean[:end]
		}
	}
	return strings.TrimSpace(clean)
}

// decodeFirst decodes the first JSON value in raw into v, ignoring any prose
// before it and anything after it.
func decodeFirst(raw string, v any) error {
	clean := CleanJSON(raw)
	start := strings.IndexAny(clean, "[{")
	if start < 0 {
		return errors.New("no JSON value in model output")
	}
	dec := json.NewDecoder(strings.NewReader(clean[start:]))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode model output: %w", err)
	}
	return nil
}

type rawQuestion struct {
	Text                    string `json:"text"`
	Question                string `json:"question"`
	Category                string `json:"category"`
	Difficulty              string `json:"difficulty"`
	ExpectedDurationSeconds int    `json:"expectedDurationSeconds"`
	ExpectedDuration        int    `json:"expectedDuration"`
}

// ParseQuestions accepts a JSON array of questions, or an object with a
// "questions" array, and returns at most n well-formed questions. Elements
// without text are dropped; unknown categories and difficulties are normalized.
func ParseQuestions(raw string, n int) ([]interview.Question, error) {
	if n <= 0 {
		return []interview.Question{}, nil
	}
	var items []rawQuestion
	clean := CleanJSON(raw)
	if first := strings.IndexAny(clean, "[{"); first >= 0 && clean[first] == '{' {
		var wrapper struct {
			Questions []rawQuestion `json:"questions"`
		}
		if err := decodeFirst(clean, &wrapper); err != nil {
			return nil, err
		}
		items = wrapper.Questions
	} else if err := decodeFirst(clean, &items); err != nil {
		return nil, err
	}

	out := make([]interview.Question, 0, min(len(items), n))
	for _, item := range items {
		if len(out) == n {
			break
		}
		text := strings.TrimSpace(item.Text)
		if text == "" {
			text = strings.TrimSpace(item.Question)
		}
		if text == "" {
			continue
		}
		category := interview.Category(strings.ToLower(strings.TrimSpace(item.Category)))
		if !category.Valid() {
			category = interview.CategoryBehavioral
		}
		difficulty := interview.Difficulty(strings.ToLower(strings.TrimSpace(item.Difficulty)))
		if !difficulty.Valid() {
			difficulty = interview.DifficultyMedium
		}
		duration := item.ExpectedDurationSeconds
		if duration <= 0 {
			duration = item.ExpectedDuration
		}
		out = append(out, interview.Question{
			ID:                      fmt.Sprintf("q%d", len(out)+1),
			Text:                    text,
			Category:                category,
			Difficulty:              difficulty,
			ExpectedDurationSeconds: max(duration, 0),
		})
	}
	if len(out) == 0 {
		return nil, errors.New("model output contained no usable questions")
	}
	return out, nil
}

type rawFeedback struct {
	Score        *float64               `json:"score"`
	FeedbackText string                 `json:"feedbackText"`
	Feedback     string                 `json:"feedback"`
	Strengths    []string               `json:"strengths"`
	Improvements []string               `json:"improvements"`
	Keywords     interview.KeywordMatch `json:"keywords"`
	Sentiment    string                 `json:"sentiment"`
	Confidence   float64                `json:"confidence"`
}

// ParseFeedback decodes a model feedback object. A missing score is an error;
// the score and confidence are clamped to 0..100.
func ParseFeedback(raw string) (interview.Feedback, error) {
	var item rawFeedback
	if err := decodeFirst(raw, &item); err != nil {
		return interview.Feedback{}, err
	}
	if item.Score == nil {
		return interview.Feedback{}, errors.New("model feedback has no score")
	}
	text := strings.TrimSpace(item.FeedbackText)
	if text == "" {
		text = strings.TrimSpace(item.Feedback)
	}
	sentiment := strings.ToLower(strings.TrimSpace(item.Sentiment))
	switch sentiment {
	case "positive", "neutral", "negative", "":
	default:
		sentiment = "neutral"
	}
	return interview.Feedback{
		Score:        roundScore(*item.Score),
		Text:         text,
		Strengths:    nonEmpty(item.Strengths),
		Improvements: nonEmpty(item.Improvements),
		Keywords:     item.Keywords,
		Sentiment:    sentiment,
		Confidence:   roundScore(item.Confidence),
		Source:       interview.SourceModel,
	}, nil
}

// roundScore clamps to 0..100 before rounding.
func roundScore(v float64) int {
	return int(max(0, min(100, v)) + 0.5)
}

func nonEmpty(items []string) []string {
	var out []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
