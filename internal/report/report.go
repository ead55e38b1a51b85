// Package report synthesizes the overall interview summary from per-question
// feedback. It is a deterministic keyword heuristic and never calls a model.
package report

import (
	"fmt"
	"strings"

	"github.com/rbright/candor/internal/interview"
	"github.com/rbright/candor/internal/vision"
)

// strengthFloor is the average score below which no strongest area is named.
const strengthFloor = 50

type theme struct {
	terms    []string
	strength string
	improve  string
}

// themes are checked in order; earlier themes win ties.
var themes = []theme{
	{
		terms:    []string{"detail", "thorough", "example", "specific", "depth"},
		strength: "giving detailed, concrete answers",
		improve:  "adding concrete examples and detail to each answer",
	},
	{
		terms:    []string{"structure", "organis", "organiz", "star", "points"},
		strength: "structuring answers clearly",
		improve:  "structuring answers from situation to result",
	},
	{
		terms:    []string{"topic", "relevan", "directly", "focus"},
		strength: "staying on topic",
		improve:  "answering the question asked more directly",
	},
	{
		terms:    []string{"confiden", "hedg", "tone", "positive"},
		strength: "keeping a confident, positive tone",
		improve:  "cutting hedging language to sound more confident",
	},
	{
		terms:    []string{"metric", "quantif", "impact"},
		strength: "explaining the impact of your work",
		improve:  "quantifying the impact of your work",
	},
}

// Summary is the synthesized end-of-interview assessment.
type Summary struct {
	Text         string
	AverageScore int
	Answered     int
	Signals      interview.SignalSummary
}

// Build combines responses and session degradations into a summary. The text is never empty.
func Build(questions []interview.Question, responses []interview.Response, degradations []interview.Degradation) Summary {
	var (
		scoreSum  int
		scored    int
		strengths = make([]int, len(themes))
		improves  = make([]int, len(themes))
		signals   []interview.SignalSummary
	)
	for _, r := range responses {
		if r.Signals != nil {
			signals = append(signals, *r.Signals)
		}
		if r.Feedback == nil {
			continue
		}
		scored++
		scoreSum += r.Feedback.Score
		tallyThemes(strengths, r.Feedback.Strengths)
		tallyThemes(improves, r.Feedback.Improvements)
	}

	out := Summary{Answered: len(responses), Signals: MergeSignals(signals)}
	var parts []string
	switch {
	case len(questions) == 0:
		parts = append(parts, "The interview ended before any questions were available.")
	case scored == 0:
		parts = append(parts, fmt.Sprintf("You answered %d of %d questions, but none could be assessed automatically.", len(responses), len(questions)))
	default:
		out.AverageScore = (scoreSum + scored/2) / scored
		parts = append(parts, fmt.Sprintf("You answered %d of %d questions with an average score of %d/100. %s",
			len(responses), len(questions), out.AverageScore, band(out.AverageScore)))
		if i := top(strengths); i >= 0 && out.AverageScore >= strengthFloor {
			parts = append(parts, "Your strongest area was "+themes[i].strength+".")
		}
		if i := top(improves); i >= 0 {
			parts = append(parts, "Focus next on "+themes[i].improve+".")
		}
	}
	if out.Signals.Ticks > 0 && !visualDegraded(degradations) {
		parts = append(parts, vision.Engagement(out.Signals))
	}
	for _, d := range degradations {
		parts = append(parts, "Note: "+d.Describe()+".")
	}
	out.Text = strings.Join(parts, " ")
	return out
}

// visualDegraded reports whether the visual signals are fail-open placeholders.
func visualDegraded(degradations []interview.Degradation) bool {
	for _, d := range degradations {
		if d == interview.DegradedCamera || d == interview.DegradedVisual {
			return true
		}
	}
	return false
}

func band(score int) string {
	switch {
	case score >= 80:
		return "That is a strong performance."
	case score >= 60:
		return "That is a solid foundation to build on."
	case score >= 40:
		return "There is clear room to improve."
	default:
		return "Keep practising; short answers held the score back."
	}
}

func tallyThemes(counts []int, lines []string) {
	for _, line := range lines {
		lower := strings.ToLower(line)
		for i, th := range themes {
			for _, term := range th.terms {
				if strings.Contains(lower, term) {
					counts[i]++
					break
				}
			}
		}
	}
}

func top(counts []int) int {
	best, idx := 0, -1
	for i, n := range counts {
		if n > best {
			best, idx = n, i
		}
	}
	return idx
}

// MergeSignals sums per-question visual tallies into one interview-wide summary.
func MergeSignals(summaries []interview.SignalSummary) interview.SignalSummary {
	out := interview.SignalSummary{Counts: make(map[interview.Emotion]int, len(interview.Emotions))}
	var confidenceSum float64
	for _, s := range summaries {
		out.Ticks += s.Ticks
		out.FaceTicks += s.FaceTicks
		confidenceSum += s.AverageConfidence * float64(s.FaceTicks)
		for emotion, n := range s.Counts {
			out.Counts[emotion] += n
		}
	}
	best := 0
	for _, emotion := range interview.Emotions {
		if n := out.Counts[emotion]; n > best {
			best = n
			out.Dominant = emotion
		}
	}
	if out.Ticks > 0 {
		out.FaceRatio = float64(out.FaceTicks) / float64(out.Ticks)
	}
	if out.FaceTicks > 0 {
		out.AverageConfidence = confidenceSum / float64(out.FaceTicks)
	}
	return out
}
