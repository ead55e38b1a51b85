// Package session orchestrates one interview: question preparation, answer
// capture, transcription, feedback, and the full-screen policy.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rbright/candor/internal/capture"
	"github.com/rbright/candor/internal/clock"
	"github.com/rbright/candor/internal/events"
	"github.com/rbright/candor/internal/fsm"
	"github.com/rbright/candor/internal/generation"
	"github.com/rbright/candor/internal/identity"
	"github.com/rbright/candor/internal/interview"
	"github.com/rbright/candor/internal/transcribe"
	"github.com/rbright/candor/internal/vision"
)

// FullScreenGrace is how long full-screen may stay exited during a live question.
const FullScreenGrace = 10 * time.Second

// Transcriber is the session-facing subset of the transcription service.
type Transcriber interface {
	IsSupported() bool
	CanBatch() bool
	StartListening(ctx context.Context) error
	Feed(chunk []byte)
	StopListening(ctx context.Context) error
	Cancel()
	ResetTranscript()
	State() transcribe.TranscriptState
	Transcript() string
	TranscribeAudio(ctx context.Context, rec *interview.Recording) (string, error)
}

// Indicator is the session-facing subset of cue and notification behavior.
type Indicator interface {
	Countdown(ctx context.Context, remaining int)
	RecordingStarted(ctx context.Context)
	RecordingStopped(ctx context.Context)
	FeedbackReady(ctx context.Context, score int)
	Completed(ctx context.Context, summary string)
	Warning(ctx context.Context, message string)
}

// noopIndicator preserves session flow when no indicator is wired.
type noopIndicator struct{}

func (noopIndicator) Countdown(context.Context, int)     {}
func (noopIndicator) RecordingStarted(context.Context)   {}
func (noopIndicator) RecordingStopped(context.Context)   {}
func (noopIndicator) FeedbackReady(context.Context, int) {}
func (noopIndicator) Completed(context.Context, string)  {}
func (noopIndicator) Warning(context.Context, string)    {}

// Deps wires a controller. Every field is optional.
type Deps struct {
	Logger       *slog.Logger
	Scheduler    clock.Scheduler
	Options      interview.Options
	Capabilities interview.Capabilities

	Device     capture.Device
	Capture    capture.Config
	Classifier vision.Classifier

	Transcriber Transcriber
	Generation  generation.Client
	Indicator   Indicator
	Events      events.Publisher

	// NewID names interviews; defaults to random UUIDs.
	NewID func() string
	// OnFinish receives the result of every completed or terminated interview.
	OnFinish func(interview.Result)
}

// Snapshot is the observable orchestrator state.
type Snapshot struct {
	InterviewID          string                  `json:"interviewId,omitempty"`
	State                fsm.State               `json:"state"`
	QuestionIndex        int                     `json:"currentQuestionIndex"`
	Questions            []interview.Question    `json:"questions"`
	CurrentQuestion      *interview.Question     `json:"currentQuestion,omitempty"`
	Responses            []interview.Response    `json:"responses"`
	Transcript           string                  `json:"transcript"`
	InterimTranscript    string                  `json:"interimTranscript"`
	TranscriptConfidence int                     `json:"transcriptConfidence"`
	Listening            bool                    `json:"listening"`
	Capture              capture.State           `json:"capture"`
	Visual               vision.Sample           `json:"visual"`
	FeedbackInProgress   bool                    `json:"feedbackInProgress"`
	FullScreenExited     bool                    `json:"fullScreenExited"`
	FullScreenWarning    bool                    `json:"fullScreenWarning"`
	Error                string                  `json:"error,omitempty"`
	OverallFeedback      string                  `json:"overallFeedback,omitempty"`
	AverageScore         int                     `json:"averageScore,omitempty"`
	Degradations         []interview.Degradation `json:"degradations,omitempty"`
	Capabilities         interview.Capabilities  `json:"capabilities"`
	Terminated           bool                    `json:"terminated"`
}

// Controller is the single writer of interview state. Component calls happen
// without the lock held; a sequence number discards work that a reset made stale.
type Controller struct {
	logger    *slog.Logger
	sched     clock.Scheduler
	opts      interview.Options
	caps      interview.Capabilities
	capture   *capture.Manager
	analyzer  *vision.Analyzer
	speech    Transcriber
	gen       generation.Client
	indicator Indicator
	events    events.Publisher
	newID     func() string
	onFinish  func(interview.Result)

	lifetime context.Context
	cancel   context.CancelFunc

	mu                 sync.RWMutex
	state              fsm.State
	seq                int
	id                 string
	principal          identity.Principal
	job                interview.Job
	questions          []interview.Question
	index              int
	responses          []interview.Response
	errMsg             string
	overall            string
	averageScore       int
	degradations       []interview.Degradation
	startedAt          time.Time
	completedAt        time.Time
	terminated         bool
	feedbackInProgress bool
	streaming          bool
	analyzing          bool
	fullScreenExited   bool
	fullScreenWarned   bool
	graceTimer         clock.Timer
	result             *interview.Result
}

// New constructs a controller with safe defaults for unset dependencies.
func New(deps Deps) *Controller {
	sched := deps.Scheduler
	if sched == nil {
		sched = clock.Real{}
	}
	opts := deps.Options.Normalize()
	speech := deps.Transcriber
	if speech == nil {
		speech = transcribe.NewService(transcribe.Config{Language: opts.Language}, deps.Logger)
	}
	gen := deps.Generation
	if gen == nil {
		gen = generation.NewFallback(nil)
	}
	indicator := deps.Indicator
	if indicator == nil {
		indicator = noopIndicator{}
	}
	publisher := deps.Events
	if publisher == nil {
		publisher = events.Nop{}
	}
	newID := deps.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		logger:    deps.Logger,
		sched:     sched,
		opts:      opts,
		caps:      deps.Capabilities,
		speech:    speech,
		gen:       gen,
		indicator: indicator,
		events:    publisher,
		newID:     newID,
		onFinish:  deps.OnFinish,
		lifetime:  ctx,
		cancel:    cancel,
		state:     fsm.StateIdle,
	}

	captureCfg := deps.Capture
	captureCfg.MaxDuration = opts.MaxResponseTime
	c.capture = capture.NewManager(deps.Device, sched, captureCfg, capture.Hooks{
		OnCountdown: c.onCountdown,
		OnStarted:   c.onRecordingStarted,
		OnChunk:     c.speech.Feed,
		OnAutoStop:  c.onAutoStop,
	}, deps.Logger)

	var classifier vision.Classifier
	if deps.Capabilities.FaceAnalysis {
		classifier = deps.Classifier
	}
	c.analyzer = vision.NewAnalyzer(sched, c.capture, classifier, vision.DefaultInterval, deps.Logger)
	return c
}

// State returns the current lifecycle state.
func (c *Controller) State() fsm.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Capture exposes the capture manager for device toggles.
func (c *Controller) Capture() *capture.Manager {
	return c.capture
}

// Snapshot returns a copy of the observable state.
func (c *Controller) Snapshot() Snapshot {
	speech := c.speech.State()
	captureState := c.capture.State()
	visual := c.analyzer.Last()

	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{
		InterviewID:          c.id,
		State:                c.state,
		QuestionIndex:        c.index,
		Questions:            append([]interview.Question{}, c.questions...),
		Responses:            append([]interview.Response{}, c.responses...),
		Transcript:           speech.Final,
		InterimTranscript:    speech.Interim,
		TranscriptConfidence: speech.Confidence,
		Listening:            speech.Listening,
		Capture:              captureState,
		Visual:               visual,
		FeedbackInProgress:   c.feedbackInProgress,
		FullScreenExited:     c.fullScreenExited,
		FullScreenWarning:    c.fullScreenWarned && c.fullScreenExited,
		Error:                c.errMsg,
		OverallFeedback:      c.overall,
		AverageScore:         c.averageScore,
		Degradations:         append([]interview.Degradation(nil), c.degradations...),
		Capabilities:         c.caps,
		Terminated:           c.terminated,
	}
	if q, ok := c.currentQuestionLocked(); ok {
		snap.CurrentQuestion = &q
	}
	return snap
}

// Result returns the payload of the last finished interview.
func (c *Controller) Result() (interview.Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.result == nil {
		return interview.Result{}, false
	}
	return *c.result, true
}

// SetQuestions caches questions for the next interview so StartInterview skips generation.
func (c *Controller) SetQuestions(questions []interview.Question) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != fsm.StateIdle {
		return errNotIdle(c.state)
	}
	c.questions = append([]interview.Question(nil), questions...)
	return nil
}

// Close releases devices and stops background timers.
func (c *Controller) Close() {
	c.cancel()

	c.mu.Lock()
	c.seq++
	c.stopGraceLocked()
	c.mu.Unlock()

	c.analyzer.Stop()
	c.speech.Cancel()
	c.capture.Release()
}

func (c *Controller) currentQuestionLocked() (interview.Question, bool) {
	if c.index < 0 || c.index >= len(c.questions) {
		return interview.Question{}, false
	}
	return c.questions[c.index], true
}

func (c *Controller) resultLocked() interview.Result {
	return interview.Result{
		ID:              c.id,
		Principal:       c.principal,
		Job:             c.job,
		Questions:       append([]interview.Question(nil), c.questions...),
		Responses:       append([]interview.Response(nil), c.responses...),
		OverallFeedback: c.overall,
		AverageScore:    c.averageScore,
		Degradations:    append([]interview.Degradation(nil), c.degradations...),
		StartedAt:       c.startedAt,
		CompletedAt:     c.completedAt,
		Terminated:      c.terminated,
	}
}

func (c *Controller) publish(event events.Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = c.sched.Now().UTC()
	}
	if err := c.events.Publish(c.lifetime, event); err != nil {
		c.logWarn("event publish failed", err, "interview_id", event.InterviewID)
	}
}

func (c *Controller) logInfo(message string, attrs ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Info(message, attrs...)
}

func (c *Controller) logWarn(message string, err error, attrs ...any) {
	if c.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, "error", err.Error())
	}
	c.logger.Warn(message, attrs...)
}
