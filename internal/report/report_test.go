package report

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/candor/internal/generation"
	"github.com/rbright/candor/internal/interview"
)

func questions(n int) []interview.Question {
	out := make([]interview.Question, n)
	for i := range out {
		out[i] = interview.Question{ID: string(rune('a' + i)), Text: "Describe a challenge"}
	}
	return out
}

func TestBuildNeverEmpty(t *testing.T) {
	tests := []struct {
		name      string
		questions []interview.Question
		responses []interview.Response
		want      string
	}{
		{name: "no questions", want: "before any questions"},
		{name: "no responses", questions: questions(2), want: "none could be assessed"},
		{name: "pending feedback", questions: questions(1), responses: []interview.Response{{QuestionID: "a"}}, want: "answered 1 of 1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			summary := Build(tc.questions, tc.responses, nil)
			require.NotEmpty(t, summary.Text)
			require.Contains(t, summary.Text, tc.want)
			require.Zero(t, summary.AverageScore)
		})
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	short := generation.Score("Describe a challenge", "It was hard.", "")
	long := generation.Score("Describe a challenge", "The challenge was a failing release. I coordinated the rollback with the team. We shipped the fix the next day and I learned to add canaries.", "")
	responses := []interview.Response{
		{QuestionID: "a", Feedback: &short},
		{QuestionID: "b", Feedback: &long},
	}

	first := Build(questions(2), responses, []interview.Degradation{interview.DegradedCamera})
	second := Build(questions(2), responses, []interview.Degradation{interview.DegradedCamera})
	require.Equal(t, first, second)
	require.Equal(t, (short.Score+long.Score+1)/2, first.AverageScore)
	require.Contains(t, first.Text, "average score of")
	require.Contains(t, first.Text, "Focus next on adding concrete examples")
	require.Contains(t, first.Text, "Note: camera was unavailable")
}

func TestBuildThemes(t *testing.T) {
	fb := interview.Feedback{
		Score:        85,
		Strengths:    []string{"Clear STAR structure", "Well organized"},
		Improvements: []string{"Quantify the impact with metrics"},
	}
	summary := Build(questions(1), []interview.Response{{Feedback: &fb}}, nil)
	require.Contains(t, summary.Text, "strong performance")
	require.Contains(t, summary.Text, "Your strongest area was structuring answers clearly.")
	require.Contains(t, summary.Text, "Focus next on quantifying the impact of your work.")
}

func TestBuildIncludesEngagement(t *testing.T) {
	fb := interview.Feedback{Score: 50, Strengths: []string{"x"}, Improvements: []string{"y"}}
	signals := interview.SignalSummary{
		Counts:            map[interview.Emotion]int{interview.EmotionHappy: 9},
		Ticks:             10,
		FaceTicks:         9,
		AverageConfidence: 70,
	}
	summary := Build(questions(1), []interview.Response{{Feedback: &fb, Signals: &signals}}, nil)
	require.Contains(t, summary.Text, "90%")
	require.Equal(t, interview.EmotionHappy, summary.Signals.Dominant)
}

func TestBuildOmitsEngagementWithoutCamera(t *testing.T) {
	fb := interview.Feedback{Score: 70, Strengths: []string{"x"}, Improvements: []string{"y"}}
	signals := interview.SignalSummary{
		Counts:            map[interview.Emotion]int{interview.EmotionNeutral: 10},
		Ticks:             10,
		FaceTicks:         10,
		AverageConfidence: 50,
	}
	responses := []interview.Response{{Feedback: &fb, Signals: &signals}}

	for _, d := range []interview.Degradation{interview.DegradedCamera, interview.DegradedVisual} {
		t.Run(string(d), func(t *testing.T) {
			summary := Build(questions(1), responses, []interview.Degradation{d})
			require.NotContains(t, summary.Text, "stayed on camera")
			require.Contains(t, summary.Text, "Note: "+d.Describe()+".")
			require.Equal(t, 10, summary.Signals.Ticks)
		})
	}
}

func TestBuildNamesStrengthOnlyAboveFloor(t *testing.T) {
	build := func(score int) string {
		fb := interview.Feedback{
			Score:        score,
			Strengths:    []string{"Kept a positive, constructive tone."},
			Improvements: []string{"Add more detail, such as a concrete example."},
		}
		return Build(questions(1), []interview.Response{{Feedback: &fb}}, nil).Text
	}

	low := build(44)
	require.NotContains(t, low, "strongest area")
	require.Contains(t, low, "Focus next on adding concrete examples")

	require.Contains(t, build(72), "Your strongest area was keeping a confident, positive tone.")
}

func TestMergeSignals(t *testing.T) {
	merged := MergeSignals([]interview.SignalSummary{
		{Counts: map[interview.Emotion]int{interview.EmotionNeutral: 4}, Ticks: 10, FaceTicks: 4, AverageConfidence: 50},
		{Counts: map[interview.Emotion]int{interview.EmotionHappy: 4, interview.EmotionSad: 2}, Ticks: 10, FaceTicks: 6, AverageConfidence: 100},
	})
	require.Equal(t, 20, merged.Ticks)
	require.Equal(t, 0.5, merged.FaceRatio)
	require.InDelta(t, 80.0, merged.AverageConfidence, 0.001)
	require.Equal(t, interview.EmotionHappy, merged.Dominant)

	empty := MergeSignals(nil)
	require.Zero(t, empty.Ticks)
	require.Empty(t, empty.Dominant)
}
