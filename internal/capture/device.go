// Package capture owns the camera/microphone stream and records one answer at a time.
package capture

import (
	"bytes"
	"context"
	"errors"
	"time"
)

// Kind identifies a media track type.
type Kind string

const (
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
)

// ErrNoVideo is returned by Snapshot when no live video frame is available.
var ErrNoVideo = errors.New("no video track available")

// Constraints describes the requested device configuration.
type Constraints struct {
	Audio      bool
	Video      bool
	Width      int
	Height     int
	FacingMode string
}

// DefaultConstraints requests audio plus front-facing 1280x720 video.
func DefaultConstraints() Constraints {
	return Constraints{Audio: true, Video: true, Width: 1280, Height: 720, FacingMode: "user"}
}

// Track is one live device track.
type Track interface {
	Kind() Kind
	Enabled() bool
	SetEnabled(bool)
	Stop()
}

// Recorder encodes track data into chunks.
type Recorder interface {
	Start() error
	Pause()
	Resume()
	// Flush returns the data encoded since the previous flush.
	Flush() []byte
	// Stop ends encoding and returns any remaining data.
	Stop() []byte
}

// Container packages recorded chunks into one contiguous artifact.
type Container interface {
	MIMEType() string
	Package(chunks [][]byte) []byte
}

// Stream is an open device stream.
type Stream interface {
	Tracks() []Track
	NewRecorder() (Recorder, error)
	Container() Container
}

// Device acquires streams.
type Device interface {
	Open(ctx context.Context, constraints Constraints) (Stream, error)
}

// Frame is one sampled video frame.
type Frame struct {
	Width  int
	Height int
	Pixels []byte
	At     time.Time
}

// FrameGrabber is implemented by streams that can sample their video track.
type FrameGrabber interface {
	GrabFrame() (Frame, error)
}

// ConcatContainer joins chunks as-is. Used for self-delimiting container streams.
type ConcatContainer struct {
	MIME string
}

func (c ConcatContainer) MIMEType() string { return c.MIME }

func (c ConcatContainer) Package(chunks [][]byte) []byte {
	return bytes.Join(chunks, nil)
}
