package session

import (
	"context"

	"github.com/rbright/candor/internal/events"
	"github.com/rbright/candor/internal/fsm"
)

const fullScreenWarning = "Return to full screen within 10 seconds or the interview will end."

// ExitFullScreen records that the candidate left full-screen. While a question
// is live the exit starts the grace timer and warns once per interview;
// elsewhere the flag is recorded and enforced when the next question opens.
func (c *Controller) ExitFullScreen(context.Context) {
	c.mu.Lock()
	if c.fullScreenExited {
		c.mu.Unlock()
		return
	}
	c.fullScreenExited = true
	armed, warn := c.enforceFullScreenLocked()
	id, index, state := c.id, c.index, c.state
	c.mu.Unlock()

	if !armed {
		c.logInfo("full screen exited", "interview_id", id, "state", string(state), "question_index", index)
		return
	}
	c.announceGrace(id, state, index, warn)
}

// enforceFullScreenLocked arms the grace timer when full-screen is exited in a
// state that requires it and no timer is pending. Callers hold c.mu.
func (c *Controller) enforceFullScreenLocked() (armed bool, warn bool) {
	if !c.fullScreenExited || !c.state.FullScreenRequired() || c.graceTimer != nil {
		return false, false
	}
	warn = !c.fullScreenWarned
	c.fullScreenWarned = true
	seq := c.seq
	c.graceTimer = c.sched.After(FullScreenGrace, func() { c.expireGrace(seq) })
	return true, warn
}

func (c *Controller) announceGrace(id string, state fsm.State, index int, warn bool) {
	c.logInfo("full screen grace started", "interview_id", id, "state", string(state), "question_index", index)
	if !warn {
		return
	}
	c.indicator.Warning(c.lifetime, fullScreenWarning)
	c.publish(events.Event{
		InterviewID:   id,
		Type:          events.TypeWarning,
		State:         string(state),
		QuestionIndex: index,
		Message:       fullScreenWarning,
	})
}

// RestoreFullScreen cancels a pending grace timer.
func (c *Controller) RestoreFullScreen(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fullScreenExited = false
	c.stopGraceLocked()
}

// expireGrace terminates the interview if full-screen is still exited when the grace period ends.
func (c *Controller) expireGrace(seq int) {
	c.mu.Lock()
	if seq != c.seq || !c.fullScreenExited || c.graceTimer == nil {
		c.mu.Unlock()
		return
	}
	c.graceTimer = nil
	event := fsm.EventReset
	if c.state.FullScreenRequired() {
		event = fsm.EventTerminate
	}
	from := c.state
	if _, err := c.transitionLocked(event); err != nil {
		c.mu.Unlock()
		c.logWarn("termination skipped", err)
		return
	}
	c.seq++
	c.terminated = true
	c.errMsg = TerminationNotice
	c.completedAt = c.sched.Now().UTC()
	result := c.resultLocked()
	c.result = &result
	id, index := c.id, c.index
	c.streaming = false
	c.analyzing = false
	c.feedbackInProgress = false
	c.mu.Unlock()

	c.teardown()
	c.logWarn("interview terminated", nil, "interview_id", id, "state", string(from), "question_index", index)
	c.indicator.Warning(c.lifetime, TerminationNotice)
	c.publish(events.Event{
		InterviewID:   id,
		Type:          events.TypeTerminate,
		State:         string(fsm.StateIdle),
		QuestionIndex: index,
		Message:       TerminationNotice,
	})
	c.finish(result)
}

func (c *Controller) stopGraceLocked() {
	if c.graceTimer != nil {
		c.graceTimer.Stop()
		c.graceTimer = nil
	}
}
