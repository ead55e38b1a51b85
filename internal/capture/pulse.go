package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

const pulseFragmentBytes = 640 // 20ms @ 16kHz mono s16

// Source describes one Pulse input source.
type Source struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	State       string `json:"state"`
	Available   bool   `json:"available"`
	Muted       bool   `json:"muted"`
	Default     bool   `json:"default"`
}

// Selection is the resolved input source plus an optional fallback warning.
type Selection struct {
	Source   Source
	Warning  string
	Fallback bool
}

func newPulseClient() (*pulse.Client, error) {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("candor"),
		pulse.ClientApplicationIconName("camera-web"),
	)
	if err != nil {
		return nil, fmt.Errorf("connect pulse server: %w", err)
	}
	return client, nil
}

// ListSources returns Pulse input sources with default and availability metadata.
func ListSources(_ context.Context) ([]Source, error) {
	client, err := newPulseClient()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	def, err := client.DefaultSource()
	if err != nil {
		return nil, fmt.Errorf("read default source: %w", err)
	}

	var infos pulseproto.GetSourceInfoListReply
	if err := client.RawRequest(&pulseproto.GetSourceInfoList{}, &infos); err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}

	sources := make([]Source, 0, len(infos))
	for _, info := range infos {
		if info == nil {
			continue
		}
		sources = append(sources, Source{
			ID:          info.SourceName,
			Description: info.Device,
			State:       sourceState(info.State),
			Available:   portAvailable(info),
			Muted:       info.Mute,
			Default:     info.SourceName == def.ID(),
		})
	}
	return sources, nil
}

// SelectSource resolves input/fallback preferences against live sources.
func SelectSource(ctx context.Context, input string, fallback string) (Selection, error) {
	sources, err := ListSources(ctx)
	if err != nil {
		return Selection{}, err
	}
	return selectSource(sources, input, fallback)
}

// selectSource picks the preferred source, falling back when it is muted or unavailable.
func selectSource(sources []Source, input string, fallback string) (Selection, error) {
	if len(sources) == 0 {
		return Selection{}, errors.New("no audio input devices found")
	}

	primary, err := findSource(sources, input)
	if err != nil {
		return Selection{}, fmt.Errorf("audio.input: %w", err)
	}
	if usable(primary) {
		return Selection{Source: primary}, nil
	}

	reason := "unavailable"
	if primary.Muted {
		reason = "muted"
	}

	alt, err := findSource(sources, fallback)
	if err != nil {
		return Selection{}, fmt.Errorf("input %q is %s and fallback failed: %w", primary.ID, reason, err)
	}
	if !alt.Available {
		return Selection{}, fmt.Errorf("audio fallback device %q is not available", alt.ID)
	}
	if alt.Muted {
		return Selection{}, fmt.Errorf("audio fallback device %q is muted", alt.ID)
	}
	return Selection{
		Source:   alt,
		Warning:  fmt.Sprintf("audio.input %q is %s; falling back to %q", primary.ID, reason, alt.ID),
		Fallback: alt.ID != primary.ID,
	}, nil
}

// findSource resolves "default", empty, or a case-insensitive id/description term.
func findSource(sources []Source, term string) (Source, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" || term == "default" {
		for _, s := range sources {
			if s.Default {
				return s, nil
			}
		}
		return Source{}, errors.New("default audio source is unavailable")
	}
	for _, s := range sources {
		if sourceMatches(s, term) {
			return s, nil
		}
	}
	return Source{}, fmt.Errorf("%q did not match any device", term)
}

func usable(s Source) bool {
	return s.Available && !s.Muted
}

func sourceMatches(s Source, term string) bool {
	return term != "" && (strings.Contains(strings.ToLower(s.ID), term) ||
		strings.Contains(strings.ToLower(s.Description), term))
}

func sourceState(state uint32) string {
	switch state {
	case 0:
		return "running"
	case 1:
		return "idle"
	case 2:
		return "suspended"
	default:
		return fmt.Sprintf("unknown(%d)", state)
	}
}

func portAvailable(info *pulseproto.GetSourceInfoReply) bool {
	if len(info.Ports) == 0 {
		return true
	}
	for _, port := range info.Ports {
		if port.Name == info.ActivePortName {
			// PulseAudio values: unknown=0, no=1, yes=2.
			return port.Available != 1
		}
	}
	return true
}

// PulseDevice opens the microphone through PulseAudio. It has no camera, so
// every stream it returns is audio-only.
type PulseDevice struct {
	Input    string
	Fallback string
	// OnSelect receives the resolved source, including fallback warnings.
	OnSelect func(Selection)
}

func (d PulseDevice) Open(ctx context.Context, constraints Constraints) (Stream, error) {
	if !constraints.Audio {
		return nil, errors.New("pulse device only provides audio")
	}
	selection, err := SelectSource(ctx, d.Input, d.Fallback)
	if err != nil {
		return nil, err
	}
	if d.OnSelect != nil {
		d.OnSelect(selection)
	}

	client, err := newPulseClient()
	if err != nil {
		return nil, err
	}
	source, err := client.SourceByID(selection.Source.ID)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("resolve source %q: %w", selection.Source.ID, err)
	}

	stream := &pulseStream{client: client, source: source}
	stream.mic = &pulseTrack{enabled: true, release: stream.close}
	return stream, nil
}

type pulseStream struct {
	client *pulse.Client
	source *pulse.Source
	mic    *pulseTrack
	once   sync.Once
}

func (s *pulseStream) Tracks() []Track { return []Track{s.mic} }

func (s *pulseStream) Container() Container {
	return WAVContainer{SampleRate: SampleRate, Channels: Channels}
}

func (s *pulseStream) NewRecorder() (Recorder, error) {
	rec := &pulseRecorder{track: s.mic}
	stream, err := s.client.NewRecord(
		pulse.NewWriter(writerFunc(rec.onPCM), pulseproto.FormatInt16LE),
		pulse.RecordSource(s.source),
		pulse.RecordMono,
		pulse.RecordSampleRate(SampleRate),
		pulse.RecordBufferFragmentSize(pulseFragmentBytes),
		pulse.RecordMediaName("candor answer"),
	)
	if err != nil {
		return nil, fmt.Errorf("create pulse record stream: %w", err)
	}
	rec.stream = stream
	return rec, nil
}

func (s *pulseStream) close() {
	s.once.Do(func() { s.client.Close() })
}

type pulseTrack struct {
	mu      sync.Mutex
	enabled bool
	stopped bool
	release func()
}

func (t *pulseTrack) Kind() Kind { return KindAudio }

func (t *pulseTrack) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled && !t.stopped
}

func (t *pulseTrack) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
}

func (t *pulseTrack) Stop() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.stopped = true
	t.mu.Unlock()
	t.release()
}

// pulseRecorder buffers PCM between flushes. A disabled track records silence.
type pulseRecorder struct {
	track  Track
	stream *pulse.RecordStream

	mu      sync.Mutex
	pending []byte
	paused  bool
	stopped bool
}

func (r *pulseRecorder) Start() error {
	r.stream.Start()
	return nil
}

func (r *pulseRecorder) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paused = true
}

func (r *pulseRecorder) Resume() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paused = false
}

func (r *pulseRecorder) Flush() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.pending
	r.pending = nil
	return out
}

func (r *pulseRecorder) Stop() []byte {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return nil
	}
	r.stopped = true
	r.mu.Unlock()

	r.stream.Stop()
	r.stream.Close()
	return r.Flush()
}

func (r *pulseRecorder) onPCM(buffer []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return 0, io.EOF
	}
	if r.paused {
		return len(buffer), nil
	}
	if r.track.Enabled() {
		r.pending = append(r.pending, buffer...)
	} else {
		r.pending = append(r.pending, make([]byte, len(buffer))...)
	}
	return len(buffer), nil
}

// writerFunc adapts a function to io.Writer for pulse.NewWriter.
type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) {
	return f(b)
}
