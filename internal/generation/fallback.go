package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/rbright/candor/internal/interview"
	"github.com/rbright/candor/internal/transcript"
)

// Fallback is the offline client. Both operations are pure functions of their inputs.
type Fallback struct {
	Bank *Bank
}

// NewFallback returns an offline client over bank, or the built-in bank when nil.
func NewFallback(bank *Bank) Fallback {
	if bank == nil {
		bank = DefaultBank()
	}
	return Fallback{Bank: bank}
}

func (f Fallback) GenerateQuestions(_ context.Context, job interview.Job, n int) ([]interview.Question, error) {
	return f.bank().Questions(job, n), nil
}

func (f Fallback) AnalyzeResponse(_ context.Context, q interview.Question, answer, expected string) (interview.Feedback, error) {
	return Score(q.Text, answer, expected), nil
}

func (f Fallback) bank() *Bank {
	if f.Bank == nil {
		return DefaultBank()
	}
	return f.Bank
}

// Questions renders min(n, len(templates)) questions in template order. Keyword
// slots take description keywords in order of appearance, cycling when a
// description has fewer keywords than slots.
func (b *Bank) Questions(job interview.Job, n int) []interview.Question {
	count := min(max(n, 0), len(b.Templates))
	keywords := b.Keywords(job.Description)
	if len(keywords) == 0 {
		keywords = b.Keywords(job.Title)
	}
	title := strings.TrimSpace(job.Title)

	out := make([]interview.Question, 0, count)
	slot := 0
	for i := range count {
		tmpl := b.Templates[i]
		text := tmpl.Text
		if strings.Contains(text, "{keyword}") {
			keyword := defaultKeyword
			if len(keywords) > 0 {
				keyword = keywords[slot%len(keywords)]
			}
			slot++
			text = strings.ReplaceAll(text, "{keyword}", keyword)
		}
		text = strings.ReplaceAll(text, "{title}", title)
		out = append(out, interview.Question{
			ID:                      fmt.Sprintf("q%d", i+1),
			Text:                    strings.Join(strings.Fields(text), " "),
			Category:                tmpl.Category,
			Difficulty:              tmpl.Difficulty,
			ExpectedDurationSeconds: tmpl.ExpectedDurationSeconds,
		})
	}
	return out
}

const (
	scoreBase          = 35
	scoreLengthCap     = 30
	scoreStructureCap  = 15
	scoreRelevanceMax  = 20
	detailWordFloor    = 50
	thoroughWordCount  = 80
	structuredSentence = 3
)

var stopwords = map[string]struct{}{
	"a": {}, "about": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "can": {}, "could": {}, "describe": {}, "did": {}, "do": {}, "does": {},
	"explain": {}, "for": {}, "from": {}, "have": {}, "how": {}, "i": {}, "in": {},
	"is": {}, "it": {}, "me": {}, "my": {}, "of": {}, "on": {}, "or": {}, "tell": {},
	"that": {}, "the": {}, "this": {}, "time": {}, "to": {}, "was": {}, "we": {},
	"what": {}, "when": {}, "where": {}, "which": {}, "who": {}, "why": {}, "with": {},
	"would": {}, "you": {}, "your": {},
}

var (
	positiveWords = wordSet("achieved", "improved", "delivered", "succeeded", "success", "enjoyed",
		"excited", "learned", "grew", "solved", "built", "led", "launched", "proud", "great", "love")
	negativeWords = wordSet("failed", "failure", "problem", "hated", "difficult", "frustrated",
		"blame", "blamed", "angry", "terrible", "bad", "worst", "quit")
	hedgeWords = wordSet("maybe", "perhaps", "probably", "guess", "think", "kinda", "sort",
		"um", "uh", "possibly", "somewhat")
)

func wordSet(words ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[w] = struct{}{}
	}
	return out
}

// ContentKeywords returns distinct non-stopword terms of text in order of appearance.
func ContentKeywords(text string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, w := range transcript.Words(text) {
		if len(w) < 3 {
			continue
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// Score is the offline response scorer. It weighs answer length, sentence
// count and overlap with the expected answer's keywords (or the question's
// when no expected answer is given). An empty answer scores the base of 35.
func Score(question, answer, expected string) interview.Feedback {
	words := transcript.Words(answer)
	sentences := transcript.Sentences(answer)

	reference := expected
	if strings.TrimSpace(reference) == "" {
		reference = question
	}
	keywords := matchKeywords(ContentKeywords(reference), words)
	relevance := 0.0
	if total := len(keywords.Matched) + len(keywords.Missed); total > 0 {
		relevance = float64(len(keywords.Matched)) / float64(total)
	}

	score := scoreBase +
		min(len(words)/4, scoreLengthCap) +
		min(len(sentences)*5, scoreStructureCap) +
		int(relevance*scoreRelevanceMax+0.5)
	score = clampScore(score)

	positive, negative, hedges := 0, 0, 0
	for _, w := range words {
		if _, ok := positiveWords[w]; ok {
			positive++
		}
		if _, ok := negativeWords[w]; ok {
			negative++
		}
		if _, ok := hedgeWords[w]; ok {
			hedges++
		}
	}
	sentiment := "neutral"
	switch {
	case positive > negative:
		sentiment = "positive"
	case negative > positive:
		sentiment = "negative"
	}
	confidence := 0
	if len(words) > 0 {
		confidence = max(0, 85-hedges*10)
	}

	var strengths, improvements []string
	if len(words) >= thoroughWordCount {
		strengths = append(strengths, "Gave a thorough, well-developed answer.")
	}
	if len(sentences) >= structuredSentence {
		strengths = append(strengths, "Organised the answer across several clear points.")
	}
	if relevance >= 0.5 {
		strengths = append(strengths, "Stayed on topic and addressed the question directly.")
	}
	if sentiment == "positive" {
		strengths = append(strengths, "Kept a positive, constructive tone.")
	}
	if len(strengths) == 0 {
		strengths = append(strengths, "Engaged with the question within the time limit.")
	}

	if len(words) < detailWordFloor {
		improvements = append(improvements, "Add more detail, such as a concrete example and the outcome you achieved.")
	}
	if relevance < 0.5 && len(keywords.Missed) > 0 {
		improvements = append(improvements, "Address the question more directly; consider mentioning "+strings.Join(first(keywords.Missed, 3), ", ")+".")
	}
	if len(sentences) < structuredSentence {
		improvements = append(improvements, "Use the STAR method to structure the answer from situation to result.")
	}
	if hedges > 2 {
		improvements = append(improvements, "Cut hedging phrases so your answer sounds more confident.")
	}
	if len(improvements) == 0 {
		improvements = append(improvements, "Quantify the impact of your work with specific metrics.")
	}

	return interview.Feedback{
		Score:        score,
		Text:         summaryText(score),
		Strengths:    strengths,
		Improvements: improvements,
		Keywords:     keywords,
		Sentiment:    sentiment,
		Confidence:   confidence,
		Source:       interview.SourceFallback,
	}
}

func matchKeywords(expected []string, answerWords []string) interview.KeywordMatch {
	present := make(map[string]struct{}, len(answerWords))
	for _, w := range answerWords {
		present[w] = struct{}{}
	}
	out := interview.KeywordMatch{Matched: []string{}, Missed: []string{}}
	for _, k := range expected {
		if _, ok := present[k]; ok {
			out.Matched = append(out.Matched, k)
		} else {
			out.Missed = append(out.Missed, k)
		}
	}
	return out
}

func summaryText(score int) string {
	switch {
	case score >= 80:
		return "Strong answer with relevant detail and a clear structure."
	case score >= 60:
		return "Solid answer with room to add specifics and sharpen the structure."
	case score >= 45:
		return "A reasonable start, but the answer needs more depth and a clearer link to the question."
	default:
		return "The answer was too brief to assess well. Expand on it with a concrete example."
	}
}

func clampScore(v int) int {
	return max(0, min(100, v))
}

func first(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
