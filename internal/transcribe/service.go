// Package transcribe converts answer audio to text, either streaming while the
// candidate speaks or in one batch after the recording stops.
package transcribe

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/rbright/candor/internal/interview"
	"github.com/rbright/candor/internal/transcript"
)

var (
	// ErrStreamingUnsupported indicates no streaming backend is wired or enabled.
	ErrStreamingUnsupported = errors.New("streaming transcription is not supported")
	// ErrBatchUnavailable indicates no batch backend is wired.
	ErrBatchUnavailable = errors.New("batch transcription is not available")
)

// Phrase is a recognition hint with a relative boost.
type Phrase struct {
	Text  string
	Boost float32
}

// StreamConfig parameterizes one streaming recognition session.
type StreamConfig struct {
	Language   string
	SampleRate int
	MIMEType   string
	Phrases    []Phrase
}

// AudioStream is one open streaming recognition session.
type AudioStream interface {
	Send(chunk []byte) error
	// Close ends the audio input and waits for trailing results.
	Close(ctx context.Context) error
	Cancel() error
}

// Streamer opens streaming recognition sessions. Results are delivered to onResult
// from the backend's receive loop.
type Streamer interface {
	Stream(ctx context.Context, cfg StreamConfig, onResult func(Result)) (AudioStream, error)
}

// Batcher transcribes one complete recording.
type Batcher interface {
	Transcribe(ctx context.Context, rec interview.Recording, language string) (string, error)
}

// Config selects backends for a Service.
type Config struct {
	Streamer   Streamer
	Batcher    Batcher
	Language   string
	SampleRate int
	MIMEType   string
	Phrases    []Phrase
}

// Service tracks one listening session at a time.
type Service struct {
	logger  *slog.Logger
	cfg     Config
	tracker tracker

	mu       sync.Mutex
	stream   AudioStream
	feedErr  error
	sessions int
}

// NewService constructs a transcription service. Either backend may be nil.
func NewService(cfg Config, logger *slog.Logger) *Service {
	if strings.TrimSpace(cfg.Language) == "" {
		cfg.Language = interview.DefaultLanguage
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	return &Service{logger: logger, cfg: cfg}
}

// IsSupported reports whether streaming recognition is available.
func (s *Service) IsSupported() bool {
	return s.cfg.Streamer != nil
}

// CanBatch reports whether batch transcription is available.
func (s *Service) CanBatch() bool {
	return s.cfg.Batcher != nil
}

// StartListening opens a streaming session. Calling it while listening is a no-op.
func (s *Service) StartListening(ctx context.Context) error {
	if !s.IsSupported() {
		return &interview.TranscriptionError{Strategy: "streaming", Err: ErrStreamingUnsupported}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream != nil {
		return nil
	}

	stream, err := s.cfg.Streamer.Stream(ctx, StreamConfig{
		Language:   s.cfg.Language,
		SampleRate: s.cfg.SampleRate,
		MIMEType:   s.cfg.MIMEType,
		Phrases:    s.cfg.Phrases,
	}, s.tracker.apply)
	if err != nil {
		return &interview.TranscriptionError{Strategy: "streaming", Err: err}
	}
	s.stream = stream
	s.feedErr = nil
	s.sessions++
	s.tracker.setListening(true)
	return nil
}

// Feed forwards one captured audio chunk to the open stream. Chunks arriving
// while not listening are dropped.
func (s *Service) Feed(chunk []byte) {
	s.mu.Lock()
	stream := s.stream
	failed := s.feedErr != nil
	s.mu.Unlock()
	if stream == nil || failed || len(chunk) == 0 {
		return
	}

	if err := stream.Send(chunk); err != nil {
		s.mu.Lock()
		s.feedErr = err
		s.mu.Unlock()
		if s.logger != nil {
			s.logger.Warn("streaming audio send failed", "error", err.Error())
		}
	}
}

// StopListening closes the stream, waits for trailing results, and commits any
// interim text into the final transcript.
func (s *Service) StopListening(ctx context.Context) error {
	s.mu.Lock()
	stream := s.stream
	feedErr := s.feedErr
	s.stream = nil
	s.feedErr = nil
	s.mu.Unlock()

	if stream == nil {
		return nil
	}
	defer s.tracker.setListening(false)

	err := stream.Close(ctx)
	s.tracker.commit()
	if err == nil {
		err = feedErr
	}
	if err != nil {
		return &interview.TranscriptionError{Strategy: "streaming", Err: err}
	}
	return nil
}

// Cancel aborts an open stream without waiting for results.
func (s *Service) Cancel() {
	s.mu.Lock()
	stream := s.stream
	s.stream = nil
	s.mu.Unlock()
	if stream != nil {
		_ = stream.Cancel()
	}
	s.tracker.setListening(false)
}

// ResetTranscript clears final and interim text.
func (s *Service) ResetTranscript() {
	s.tracker.reset()
}

// State returns the transcript snapshot.
func (s *Service) State() TranscriptState {
	return s.tracker.state()
}

// Transcript returns the normalized final transcript.
func (s *Service) Transcript() string {
	return transcript.Normalize(s.tracker.state().Final)
}

// Sessions reports how many streaming sessions were opened.
func (s *Service) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions
}

// TranscribeAudio runs batch transcription over a finished recording.
func (s *Service) TranscribeAudio(ctx context.Context, rec *interview.Recording) (string, error) {
	if s.cfg.Batcher == nil {
		return "", &interview.TranscriptionError{Strategy: "batch", Err: ErrBatchUnavailable}
	}
	if rec == nil || len(rec.Data) == 0 {
		return "", nil
	}
	text, err := s.cfg.Batcher.Transcribe(ctx, *rec, s.cfg.Language)
	if err != nil {
		return "", &interview.TranscriptionError{Strategy: "batch", Err: err}
	}
	return transcript.Normalize(text), nil
}
