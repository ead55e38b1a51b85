package vision

import (
	"context"
	"errors"
	"math"

	"github.com/rbright/candor/internal/capture"
	"github.com/rbright/candor/internal/interview"
)

// PresenceClassifier is a model-free heuristic over 8-bit luma frames. It only
// decides whether something occupies the center of the frame: a dark or flat
// center (covered lens, empty wall) counts as no face. Expression is always neutral.
type PresenceClassifier struct {
	MinMean   float64
	MinStdDev float64
}

// DefaultPresenceClassifier returns thresholds tuned for indoor webcam light.
func DefaultPresenceClassifier() PresenceClassifier {
	return PresenceClassifier{MinMean: 20, MinStdDev: 8}
}

func (c PresenceClassifier) Classify(_ context.Context, frame capture.Frame) (Detection, error) {
	if frame.Width <= 0 || frame.Height <= 0 || len(frame.Pixels) < frame.Width*frame.Height {
		return Detection{}, errors.New("frame is empty or truncated")
	}

	// Center half of the frame in each dimension.
	x0, x1 := frame.Width/4, frame.Width-frame.Width/4
	y0, y1 := frame.Height/4, frame.Height-frame.Height/4

	var sum, sumSq float64
	n := 0
	for y := y0; y < y1; y++ {
		row := frame.Pixels[y*frame.Width : (y+1)*frame.Width]
		for x := x0; x < x1; x++ {
			v := float64(row[x])
			sum += v
			sumSq += v * v
			n++
		}
	}
	if n == 0 {
		return Detection{}, errors.New("frame too small")
	}

	mean := sum / float64(n)
	stddev := math.Sqrt(math.Max(0, sumSq/float64(n)-mean*mean))
	if mean < c.MinMean || stddev < c.MinStdDev {
		return Detection{}, nil
	}
	return Detection{
		FaceDetected: true,
		Emotion:      interview.EmotionNeutral,
		Confidence:   clampPercent(int(stddev * 2)),
	}, nil
}
