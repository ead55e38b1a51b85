// Package events records interview lifecycle events for pollers and brokers.
package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Type classifies lifecycle events.
type Type string

const (
	TypeState     Type = "state"
	TypeCountdown Type = "countdown"
	TypeQuestion  Type = "question"
	TypeFeedback  Type = "feedback"
	TypeWarning   Type = "warning"
	TypeError     Type = "error"
	TypeCompleted Type = "completed"
	TypeTerminate Type = "terminated"
)

// Event is a sequenced lifecycle payload.
type Event struct {
	Seq           int64     `json:"seq"`
	Timestamp     time.Time `json:"timestamp"`
	InterviewID   string    `json:"interviewId"`
	Type          Type      `json:"type"`
	State         string    `json:"state,omitempty"`
	Message       string    `json:"message,omitempty"`
	QuestionIndex int       `json:"questionIndex"`
	Score         int       `json:"score,omitempty"`
}

// Publisher receives events. Implementations must not block the caller for long.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Bus stores recent events and provides incremental reads.
type Bus struct {
	mu        sync.RWMutex
	nextSeq   int64
	maxEvents int
	events    []Event
	now       func() time.Time
}

// NewBus creates a bounded in-memory event buffer.
func NewBus(maxEvents int) *Bus {
	if maxEvents <= 0 {
		maxEvents = 500
	}
	return &Bus{
		maxEvents: maxEvents,
		events:    make([]Event, 0, maxEvents),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Publish appends one event, assigning its sequence and timestamp.
func (b *Bus) Publish(_ context.Context, event Event) error {
	b.Append(event)
	return nil
}

// Append is Publish returning the stored event.
func (b *Bus) Append(event Event) Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSeq++
	event.Seq = b.nextSeq
	if event.Timestamp.IsZero() {
		event.Timestamp = b.now()
	}
	b.events = append(b.events, event)
	if len(b.events) > b.maxEvents {
		trim := len(b.events) - b.maxEvents
		b.events = append([]Event(nil), b.events[trim:]...)
	}
	return event
}

// Since returns events with sequence strictly greater than seq.
func (b *Bus) Since(seq int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Event, 0, len(b.events))
	for _, event := range b.events {
		if event.Seq > seq {
			out = append(out, event)
		}
	}
	return out
}

// Last returns the newest sequence number, or zero when empty.
func (b *Bus) Last() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.nextSeq
}

// Multi fans an event out to every publisher. Failures are logged and joined.
type Multi struct {
	publishers []Publisher
	logger     *slog.Logger
}

// NewMulti skips nil publishers.
func NewMulti(logger *slog.Logger, publishers ...Publisher) *Multi {
	m := &Multi{logger: logger}
	for _, p := range publishers {
		if p != nil {
			m.publishers = append(m.publishers, p)
		}
	}
	return m
}

func (m *Multi) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range m.publishers {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
			if m.logger != nil {
				m.logger.Warn("event publish failed",
					"interview_id", event.InterviewID,
					"type", string(event.Type),
					"error", err.Error(),
				)
			}
		}
	}
	return errors.Join(errs...)
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
