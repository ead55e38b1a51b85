package vision

import (
	"fmt"

	"github.com/rbright/candor/internal/interview"
)

// Tally aggregates samples for one question without keeping raw frames.
type Tally struct {
	counts        map[interview.Emotion]int
	ticks         int
	faceTicks     int
	confidenceSum int
}

// Add records one sample.
func (t *Tally) Add(s Sample) {
	t.ticks++
	if !s.FaceDetected {
		return
	}
	t.faceTicks++
	t.confidenceSum += s.Confidence
	if s.Emotion != "" {
		if t.counts == nil {
			t.counts = make(map[interview.Emotion]int, len(interview.Emotions))
		}
		t.counts[s.Emotion]++
	}
}

// Summary returns the aggregate. Ties for the dominant emotion resolve in reporting order.
func (t *Tally) Summary() interview.SignalSummary {
	out := interview.SignalSummary{
		Counts:    make(map[interview.Emotion]int, len(interview.Emotions)),
		Ticks:     t.ticks,
		FaceTicks: t.faceTicks,
	}
	best := 0
	for _, emotion := range interview.Emotions {
		n := t.counts[emotion]
		out.Counts[emotion] = n
		if n > best {
			best = n
			out.Dominant = emotion
		}
	}
	if t.ticks > 0 {
		out.FaceRatio = float64(t.faceTicks) / float64(t.ticks)
	}
	if t.faceTicks > 0 {
		out.AverageConfidence = float64(t.confidenceSum) / float64(t.faceTicks)
	}
	return out
}

// Engagement renders a one-sentence engagement note for a summary.
func Engagement(s interview.SignalSummary) string {
	if s.Ticks == 0 {
		return "No visual signal was captured."
	}
	pct := int(s.FaceRatio*100 + 0.5)
	switch {
	case s.FaceRatio >= 0.8:
		return fmt.Sprintf("You stayed on camera for %d%% of the answer, mostly looking %s.", pct, expression(s.Dominant))
	case s.FaceRatio >= 0.5:
		return fmt.Sprintf("You were on camera for %d%% of the answer; try to keep your face centered in frame.", pct)
	default:
		return fmt.Sprintf("Your face was visible for only %d%% of the answer; check your camera framing.", pct)
	}
}

func expression(e interview.Emotion) string {
	switch e {
	case interview.EmotionHappy:
		return "positive"
	case interview.EmotionSad:
		return "subdued"
	case interview.EmotionAngry:
		return "tense"
	case interview.EmotionSurprised:
		return "animated"
	default:
		return "calm"
	}
}
