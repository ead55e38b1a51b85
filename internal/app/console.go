package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rbright/candor/internal/events"
	"github.com/rbright/candor/internal/fsm"
	"github.com/rbright/candor/internal/session"
)

// console renders lifecycle events for the interactive run command.
type console struct {
	out      io.Writer
	snapshot func() session.Snapshot

	mu       sync.Mutex
	finished chan events.Event
}

func newConsole(out io.Writer) *console {
	return &console{out: out, finished: make(chan events.Event, 1)}
}

// Publish implements events.Publisher.
func (c *console) Publish(_ context.Context, event events.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch event.Type {
	case events.TypeState:
		switch event.State {
		case string(fsm.StateIdle):
			c.signalLocked(event)
		case string(fsm.StatePreparing):
			fmt.Fprintln(c.out, "Preparing interview…")
		case string(fsm.StateInstructions):
			if event.Message != "" {
				fmt.Fprintln(c.out, event.Message)
			}
			c.printQuestionLocked()
		case string(fsm.StateAnalyzing):
			fmt.Fprintln(c.out, "Analyzing answer…")
		}
	case events.TypeCountdown:
		if event.Message != "0" {
			fmt.Fprintf(c.out, "Recording in %s…\n", event.Message)
		} else {
			fmt.Fprintln(c.out, "Recording. Press s then Enter to stop.")
		}
	case events.TypeQuestion:
		c.printQuestionLocked()
	case events.TypeFeedback:
		c.printFeedbackLocked(event.Score)
	case events.TypeWarning, events.TypeError:
		fmt.Fprintf(c.out, "warning: %s\n", event.Message)
	case events.TypeCompleted, events.TypeTerminate:
		fmt.Fprintln(c.out, event.Message)
		c.signalLocked(event)
	}
	return nil
}

func (c *console) signalLocked(event events.Event) {
	select {
	case c.finished <- event:
	default:
	}
}

func (c *console) printQuestionLocked() {
	if c.snapshot == nil {
		return
	}
	snap := c.snapshot()
	if snap.CurrentQuestion == nil {
		fmt.Fprintln(c.out, "No questions are available. Press r then Enter to reset.")
		return
	}
	fmt.Fprintf(c.out, "\nQuestion %d/%d [%s]\n%s\n", snap.QuestionIndex+1, len(snap.Questions), snap.CurrentQuestion.Category, snap.CurrentQuestion.Text)
	fmt.Fprintln(c.out, "Press a then Enter to answer.")
}

func (c *console) printFeedbackLocked(score int) {
	fmt.Fprintf(c.out, "Score: %d/100\n", score)
	if c.snapshot == nil {
		return
	}
	snap := c.snapshot()
	if len(snap.Responses) == 0 {
		return
	}
	last := snap.Responses[len(snap.Responses)-1]
	if last.Feedback == nil {
		return
	}
	if text := strings.TrimSpace(last.Feedback.Text); text != "" {
		fmt.Fprintln(c.out, text)
	}
	for _, s := range last.Feedback.Strengths {
		fmt.Fprintf(c.out, "  + %s\n", s)
	}
	for _, s := range last.Feedback.Improvements {
		fmt.Fprintf(c.out, "  - %s\n", s)
	}
	fmt.Fprintln(c.out, "Press n then Enter for the next question.")
}

// Printf serializes ad-hoc output with event rendering.
func (c *console) Printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}
