// Package vision samples video frames while an answer is recorded and tallies
// coarse face and emotion signals per question.
package vision

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rbright/candor/internal/capture"
	"github.com/rbright/candor/internal/clock"
	"github.com/rbright/candor/internal/interview"
)

const (
	// DefaultInterval samples at 10Hz.
	DefaultInterval = 100 * time.Millisecond
	// FailOpenConfidence is reported when no classifier result is available.
	FailOpenConfidence = 50
)

// Sample is one analysis tick.
type Sample struct {
	FaceDetected bool              `json:"faceDetected"`
	Emotion      interview.Emotion `json:"dominantEmotion,omitempty"`
	Confidence   int               `json:"confidenceScore"`
}

// Detection is a classifier's verdict for one frame. Only the primary face is reported.
type Detection struct {
	FaceDetected bool
	Emotion      interview.Emotion
	Confidence   int
}

// FrameSource provides the current video frame.
type FrameSource interface {
	Snapshot() (capture.Frame, error)
}

// Classifier detects the primary face in a frame and classifies its expression.
type Classifier interface {
	Classify(ctx context.Context, frame capture.Frame) (Detection, error)
}

// failOpen is the sample reported when analysis cannot run.
func failOpen() Sample {
	return Sample{FaceDetected: true, Emotion: interview.EmotionNeutral, Confidence: FailOpenConfidence}
}

// Analyzer ticks on a scheduler while started. It never blocks recording.
type Analyzer struct {
	logger     *slog.Logger
	sched      clock.Scheduler
	source     FrameSource
	classifier Classifier
	interval   time.Duration

	mu      sync.Mutex
	timer   clock.Timer
	tally   Tally
	last    Sample
	warned  bool
	running bool
}

// NewAnalyzer constructs an analyzer. Nil source or classifier yields fail-open samples.
func NewAnalyzer(sched clock.Scheduler, source FrameSource, classifier Classifier, interval time.Duration, logger *slog.Logger) *Analyzer {
	if sched == nil {
		sched = clock.Real{}
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Analyzer{
		logger:     logger,
		sched:      sched,
		source:     source,
		classifier: classifier,
		interval:   interval,
	}
}

// Start clears the tally and begins sampling. Calling Start while running is a no-op.
func (a *Analyzer) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return
	}
	a.running = true
	a.tally = Tally{}
	a.last = Sample{}
	a.timer = a.sched.Every(a.interval, a.tick)
}

// Stop ends sampling and returns the per-question summary.
func (a *Analyzer) Stop() interview.SignalSummary {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.running = false
	return a.tally.Summary()
}

// Last returns the most recent sample.
func (a *Analyzer) Last() Sample {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

func (a *Analyzer) tick() {
	sample := a.sample()

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.running {
		return
	}
	a.tally.Add(sample)
	a.last = sample
}

func (a *Analyzer) sample() Sample {
	if a.source == nil || a.classifier == nil {
		return failOpen()
	}
	frame, err := a.source.Snapshot()
	if err != nil {
		a.warnOnce("frame unavailable; visual analysis failing open", err)
		return failOpen()
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.interval)
	defer cancel()
	det, err := a.classifier.Classify(ctx, frame)
	if err != nil {
		a.warnOnce("classifier failed; visual analysis failing open", err)
		return failOpen()
	}
	if !det.FaceDetected {
		return Sample{}
	}
	emotion := det.Emotion
	if emotion == "" {
		emotion = interview.EmotionNeutral
	}
	return Sample{FaceDetected: true, Emotion: emotion, Confidence: clampPercent(det.Confidence)}
}

func (a *Analyzer) warnOnce(message string, err error) {
	a.mu.Lock()
	already := a.warned
	a.warned = true
	a.mu.Unlock()
	if already || a.logger == nil {
		return
	}
	a.logger.Warn(message, "error", err.Error())
}

func clampPercent(v int) int {
	return max(0, min(100, v))
}
