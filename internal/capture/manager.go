package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rbright/candor/internal/clock"
	"github.com/rbright/candor/internal/interview"
)

// ErrNotInitialized is returned when recording starts before a device stream exists.
var ErrNotInitialized = errors.New("capture device is not initialized")

const (
	DefaultCountdown     = 3
	DefaultFlushInterval = time.Second
)

// Config controls countdown, chunking, and the recording ceiling.
type Config struct {
	Constraints   Constraints
	Countdown     int
	FlushInterval time.Duration
	MaxDuration   time.Duration
	// DumpDir writes each finished recording to disk when set.
	DumpDir string
}

// Hooks are invoked without the manager lock held.
type Hooks struct {
	// OnCountdown receives the remaining countdown seconds, ending at zero.
	OnCountdown func(remaining int)
	// OnStarted fires when capture begins after the countdown.
	OnStarted func()
	// OnChunk receives each flushed chunk while recording.
	OnChunk func(chunk []byte)
	// OnAutoStop fires after the duration ceiling stopped the recording.
	OnAutoStop func()
}

// State is a snapshot of the live capture session.
type State struct {
	Initialized   bool `json:"initialized"`
	HasVideo      bool `json:"hasVideo"`
	HasAudio      bool `json:"hasAudio"`
	VideoEnabled  bool `json:"videoEnabled"`
	AudioEnabled  bool `json:"audioEnabled"`
	Countdown     int  `json:"countdown"`
	Recording     bool `json:"recording"`
	Paused        bool `json:"paused"`
	Elapsed       int  `json:"elapsedSeconds"`
	MaxDuration   int  `json:"maxDurationSeconds"`
	TimeRemaining int  `json:"timeRemaining"`
}

// Manager owns at most one device stream and one recording.
type Manager struct {
	logger *slog.Logger
	device Device
	sched  clock.Scheduler
	cfg    Config
	hooks  Hooks

	mu         sync.Mutex
	stream     Stream
	recorder   Recorder
	chunks     [][]byte
	countdown  int
	recording  bool
	paused     bool
	elapsed    int
	gen        int
	countTimer clock.Timer
	tickTimer  clock.Timer
	flushTimer clock.Timer
	opens      int
}

// NewManager constructs a capture manager with defaults for unset config.
func NewManager(device Device, sched clock.Scheduler, cfg Config, hooks Hooks, logger *slog.Logger) *Manager {
	if sched == nil {
		sched = clock.Real{}
	}
	if cfg.Constraints == (Constraints{}) {
		cfg.Constraints = DefaultConstraints()
	}
	if cfg.Countdown < 0 {
		cfg.Countdown = 0
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultFlushInterval
	}
	if cfg.MaxDuration <= 0 {
		cfg.MaxDuration = interview.DefaultMaxResponseTime
	}
	return &Manager{
		logger: logger,
		device: device,
		sched:  sched,
		cfg:    cfg,
		hooks:  hooks,
	}
}

// InitializeCamera acquires the device stream. A second call while a stream
// is live performs no new device request.
func (m *Manager) InitializeCamera(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stream != nil {
		return nil
	}
	if m.device == nil {
		return &interview.DeviceAccessError{Device: "camera", Err: errors.New("no capture device configured")}
	}

	m.opens++
	stream, err := m.device.Open(ctx, m.cfg.Constraints)
	if err != nil {
		return &interview.DeviceAccessError{Device: "camera", Err: err}
	}
	m.stream = stream
	return nil
}

// Opens reports how many device requests were made.
func (m *Manager) Opens() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opens
}

// Degradations lists modalities missing from the live stream.
func (m *Manager) Degradations() []interview.Degradation {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stream == nil {
		return []interview.Degradation{interview.DegradedCamera, interview.DegradedMicrophone}
	}
	var out []interview.Degradation
	if trackOf(m.stream, KindVideo) == nil {
		out = append(out, interview.DegradedCamera)
	}
	if trackOf(m.stream, KindAudio) == nil {
		out = append(out, interview.DegradedMicrophone)
	}
	return out
}

// StartRecording begins the countdown, after which capture starts.
func (m *Manager) StartRecording() error {
	m.mu.Lock()
	if m.stream == nil {
		m.mu.Unlock()
		return ErrNotInitialized
	}
	if m.recording || m.countdown > 0 {
		m.mu.Unlock()
		return nil
	}

	m.gen++
	gen := m.gen
	m.chunks = nil
	m.elapsed = 0
	m.paused = false

	if m.cfg.Countdown == 0 {
		err := m.beginLocked(gen)
		m.mu.Unlock()
		if err == nil {
			m.fireStarted()
		}
		return err
	}

	m.countdown = m.cfg.Countdown
	remaining := m.countdown
	m.countTimer = m.sched.Every(time.Second, func() { m.countdownTick(gen) })
	m.mu.Unlock()

	if m.hooks.OnCountdown != nil {
		m.hooks.OnCountdown(remaining)
	}
	return nil
}

func (m *Manager) countdownTick(gen int) {
	m.mu.Lock()
	if gen != m.gen || m.countdown == 0 {
		m.mu.Unlock()
		return
	}
	m.countdown--
	remaining := m.countdown
	var err error
	if remaining == 0 {
		stopTimer(&m.countTimer)
		err = m.beginLocked(gen)
	}
	m.mu.Unlock()

	if m.hooks.OnCountdown != nil {
		m.hooks.OnCountdown(remaining)
	}
	if remaining != 0 {
		return
	}
	if err != nil {
		m.logWarn("recording start failed", err)
		return
	}
	m.fireStarted()
}

func (m *Manager) beginLocked(gen int) error {
	recorder, err := m.stream.NewRecorder()
	if err != nil {
		return fmt.Errorf("create recorder: %w", err)
	}
	if err := recorder.Start(); err != nil {
		return fmt.Errorf("start recorder: %w", err)
	}
	m.recorder = recorder
	m.recording = true
	m.flushTimer = m.sched.Every(m.cfg.FlushInterval, func() { m.flush(gen) })
	m.tickTimer = m.sched.Every(time.Second, func() { m.tick(gen) })
	return nil
}

func (m *Manager) fireStarted() {
	if m.hooks.OnStarted != nil {
		m.hooks.OnStarted()
	}
}

func (m *Manager) flush(gen int) {
	m.mu.Lock()
	if gen != m.gen || !m.recording {
		m.mu.Unlock()
		return
	}
	chunk := m.recorder.Flush()
	if len(chunk) > 0 {
		m.chunks = append(m.chunks, chunk)
	}
	m.mu.Unlock()

	if len(chunk) > 0 && m.hooks.OnChunk != nil {
		m.hooks.OnChunk(chunk)
	}
}

func (m *Manager) tick(gen int) {
	m.mu.Lock()
	if gen != m.gen || !m.recording || m.paused {
		m.mu.Unlock()
		return
	}
	m.elapsed++
	if m.elapsed < m.maxSeconds() {
		m.mu.Unlock()
		return
	}
	tail := m.stopLocked()
	m.mu.Unlock()

	if len(tail) > 0 && m.hooks.OnChunk != nil {
		m.hooks.OnChunk(tail)
	}
	if m.logger != nil {
		m.logger.Info("recording reached duration ceiling", "elapsed_seconds", m.maxSeconds())
	}
	m.dump()
	if m.hooks.OnAutoStop != nil {
		m.hooks.OnAutoStop()
	}
}

// PauseRecording stops the duration timer while recording. No-op otherwise.
func (m *Manager) PauseRecording() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.recording || m.paused {
		return
	}
	m.paused = true
	m.recorder.Pause()
	stopTimer(&m.tickTimer)
}

// ResumeRecording restarts the duration timer while paused. No-op otherwise.
func (m *Manager) ResumeRecording() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.recording || !m.paused {
		return
	}
	m.paused = false
	m.recorder.Resume()
	gen := m.gen
	m.tickTimer = m.sched.Every(time.Second, func() { m.tick(gen) })
}

// StopRecording stops the recorder and timers. It reports whether a recording
// was stopped; calling it while idle changes nothing.
func (m *Manager) StopRecording() bool {
	m.mu.Lock()
	if m.countdown > 0 {
		m.countdown = 0
		stopTimer(&m.countTimer)
		m.gen++
		m.mu.Unlock()
		return false
	}
	if !m.recording {
		m.mu.Unlock()
		return false
	}
	tail := m.stopLocked()
	m.mu.Unlock()

	if len(tail) > 0 && m.hooks.OnChunk != nil {
		m.hooks.OnChunk(tail)
	}
	m.dump()
	return true
}

func (m *Manager) stopLocked() []byte {
	stopTimer(&m.tickTimer)
	stopTimer(&m.flushTimer)
	tail := m.recorder.Stop()
	if len(tail) > 0 {
		m.chunks = append(m.chunks, tail)
	}
	m.recorder = nil
	m.recording = false
	m.paused = false
	return tail
}

// Recording returns the packaged artifact of the last recording, or nil when nothing was captured.
func (m *Manager) Recording() *interview.Recording {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recordingLocked()
}

func (m *Manager) recordingLocked() *interview.Recording {
	if m.stream == nil || m.recording || len(m.chunks) == 0 {
		return nil
	}
	container := m.stream.Container()
	data := container.Package(m.chunks)
	if len(data) == 0 {
		return nil
	}
	return &interview.Recording{
		Data:     data,
		MIMEType: container.MIMEType(),
		Size:     len(data),
		Duration: time.Duration(m.elapsed) * time.Second,
	}
}

// ToggleVideo flips the video track and returns its new enabled state.
func (m *Manager) ToggleVideo() bool {
	return m.toggle(KindVideo)
}

// ToggleMicrophone flips the audio track and returns its new enabled state.
func (m *Manager) ToggleMicrophone() bool {
	return m.toggle(KindAudio)
}

func (m *Manager) toggle(kind Kind) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stream == nil {
		return false
	}
	track := trackOf(m.stream, kind)
	if track == nil {
		return false
	}
	track.SetEnabled(!track.Enabled())
	return track.Enabled()
}

// Snapshot samples the current video frame.
func (m *Manager) Snapshot() (Frame, error) {
	m.mu.Lock()
	stream := m.stream
	var video Track
	if stream != nil {
		video = trackOf(stream, KindVideo)
	}
	m.mu.Unlock()

	if video == nil || !video.Enabled() {
		return Frame{}, ErrNoVideo
	}
	grabber, ok := stream.(FrameGrabber)
	if !ok {
		return Frame{}, ErrNoVideo
	}
	return grabber.GrabFrame()
}

// State returns a snapshot of the capture session.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	ceiling := m.maxSeconds()
	state := State{
		Initialized:   m.stream != nil,
		Countdown:     m.countdown,
		Recording:     m.recording,
		Paused:        m.paused,
		Elapsed:       m.elapsed,
		MaxDuration:   ceiling,
		TimeRemaining: ceiling - m.elapsed,
	}
	if state.TimeRemaining < 0 {
		state.TimeRemaining = 0
	}
	if m.stream != nil {
		if track := trackOf(m.stream, KindVideo); track != nil {
			state.HasVideo = true
			state.VideoEnabled = track.Enabled()
		}
		if track := trackOf(m.stream, KindAudio); track != nil {
			state.HasAudio = true
			state.AudioEnabled = track.Enabled()
		}
	}
	return state
}

// Release stops any recording and every device track.
func (m *Manager) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gen++
	m.countdown = 0
	stopTimer(&m.countTimer)
	if m.recording {
		m.stopLocked()
	}
	if m.stream != nil {
		for _, track := range m.stream.Tracks() {
			track.Stop()
		}
	}
	m.stream = nil
	m.chunks = nil
	m.elapsed = 0
}

func (m *Manager) maxSeconds() int {
	return int(m.cfg.MaxDuration / time.Second)
}

func (m *Manager) dump() {
	if m.cfg.DumpDir == "" {
		return
	}
	rec := m.Recording()
	if rec == nil {
		return
	}
	path, err := writeDump(m.cfg.DumpDir, rec)
	if err != nil {
		m.logWarn("unable to write recording dump", err)
		return
	}
	if m.logger != nil {
		m.logger.Debug("recording dumped", "path", path, "bytes", rec.Size)
	}
}

func (m *Manager) logWarn(message string, err error) {
	if m.logger == nil {
		return
	}
	m.logger.Warn(message, "error", err.Error())
}

func trackOf(stream Stream, kind Kind) Track {
	for _, track := range stream.Tracks() {
		if track.Kind() == kind {
			return track
		}
	}
	return nil
}

func stopTimer(t *clock.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}
