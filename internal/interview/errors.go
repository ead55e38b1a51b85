package interview

import (
	"errors"
	"fmt"
)

// ErrFullScreenViolation marks a session terminated because full-screen was not restored in time.
var ErrFullScreenViolation = errors.New("full-screen mode was not restored within the grace period")

// DeviceAccessError reports that a camera or microphone could not be acquired.
type DeviceAccessError struct {
	Device string
	Err    error
}

func (e *DeviceAccessError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("%s access failed", e.Device)
	}
	return fmt.Sprintf("%s access failed: %v", e.Device, e.Err)
}

func (e *DeviceAccessError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// TranscriptionError reports a failed streaming or batch transcription.
type TranscriptionError struct {
	Strategy string
	Err      error
}

func (e *TranscriptionError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s transcription failed: %v", e.Strategy, e.Err)
}

func (e *TranscriptionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// GenerationError reports a failed or unparseable language-generation call.
type GenerationError struct {
	Operation string
	Err       error
}

func (e *GenerationError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %v", e.Operation, e.Err)
}

func (e *GenerationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
