package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rbright/candor/internal/events"
	"github.com/rbright/candor/internal/fsm"
	"github.com/rbright/candor/internal/identity"
	"github.com/rbright/candor/internal/interview"
	"github.com/rbright/candor/internal/report"
)

// Messages recorded in the error field. None of them end the interview except TerminationNotice.
const (
	MessageDeviceUnavailable = "Camera or microphone unavailable; continuing without it."
	MessageNoQuestions       = "Unable to generate interview questions."
	MessageCannotStart       = "No interview questions are available."
	MessageTranscription     = "Transcription failed; continuing with the transcript captured so far."
	MessageFeedback          = "Feedback could not be generated for this answer."
	MessageRecordingFailed   = "Recording could not be started; continuing without it."
)

// TerminationNotice is recorded when the full-screen grace period expires.
var TerminationNotice = "Interview terminated: " + interview.ErrFullScreenViolation.Error() + "."

// ErrNoQuestions is returned by StartAnswering when preparation produced no questions.
var ErrNoQuestions = errors.New("no interview questions available")

func errNotIdle(state fsm.State) error {
	return fmt.Errorf("cannot start interview from state %s", state)
}

// StartInterview prepares a new interview: devices, then questions. Component
// failures are recorded in the error field and the interview still reaches
// instructions, possibly with zero questions.
func (c *Controller) StartInterview(ctx context.Context, principal identity.Principal, job interview.Job) error {
	c.mu.Lock()
	if c.state != fsm.StateIdle {
		state := c.state
		c.mu.Unlock()
		return errNotIdle(state)
	}
	if _, err := c.transitionLocked(fsm.EventStart); err != nil {
		c.mu.Unlock()
		return err
	}
	c.seq++
	seq := c.seq
	c.id = c.newID()
	c.principal = principal
	c.job = job
	c.index = 0
	c.responses = nil
	c.errMsg = ""
	c.overall = ""
	c.averageScore = 0
	c.degradations = nil
	c.terminated = false
	c.result = nil
	c.feedbackInProgress = false
	c.fullScreenExited = false
	c.fullScreenWarned = false
	c.startedAt = c.sched.Now().UTC()
	c.completedAt = time.Time{}
	cached := append([]interview.Question(nil), c.questions...)
	id := c.id
	c.mu.Unlock()

	c.logInfo("interview starting", "interview_id", id, "job_title", job.Title, "role", string(principal.Role))
	c.publish(events.Event{InterviewID: id, Type: events.TypeState, State: string(fsm.StatePreparing)})

	var notes []interview.Degradation
	deviceErr := c.capture.InitializeCamera(ctx)
	if deviceErr != nil {
		c.logWarn("device acquisition failed", deviceErr, "interview_id", id)
	}
	notes = append(notes, c.capture.Degradations()...)
	if c.opts.UseEmotionAnalysis && !c.caps.FaceAnalysis {
		notes = append(notes, interview.DegradedVisual)
	}

	questions := cached
	var genErr error
	if len(questions) == 0 {
		questions, genErr = c.gen.GenerateQuestions(ctx, job, c.opts.QuestionsPerInterview)
		if genErr != nil {
			c.logWarn("question generation failed", genErr, "interview_id", id)
			questions = nil
		}
	}
	if len(questions) > c.opts.QuestionsPerInterview {
		questions = questions[:c.opts.QuestionsPerInterview]
	}

	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		return nil
	}
	for _, d := range notes {
		c.degradations = interview.AppendDegradation(c.degradations, d)
	}
	if deviceErr != nil {
		c.errMsg = MessageDeviceUnavailable
	}
	if genErr != nil || len(questions) == 0 {
		c.degradations = interview.AppendDegradation(c.degradations, interview.DegradedQuestions)
		c.errMsg = MessageNoQuestions
	}
	c.questions = questions
	_, err := c.transitionLocked(fsm.EventReady)
	total := len(c.questions)
	var armed, warn bool
	if err == nil {
		armed, warn = c.enforceFullScreenLocked()
	}
	c.mu.Unlock()
	if err != nil {
		return err
	}
	if armed {
		c.announceGrace(id, fsm.StateInstructions, 0, warn)
	}

	c.logInfo("interview ready", "interview_id", id, "questions", total)
	c.publish(events.Event{
		InterviewID: id,
		Type:        events.TypeState,
		State:       string(fsm.StateInstructions),
		Message:     fmt.Sprintf("%d questions ready", total),
	})
	return nil
}

// StartAnswering moves from instructions to recording: the transcript is reset
// first, then capture and (if enabled) streaming transcription start.
func (c *Controller) StartAnswering(ctx context.Context) error {
	c.mu.Lock()
	if c.state != fsm.StateInstructions {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("cannot start answering from state %s", state)
	}
	if _, ok := c.currentQuestionLocked(); !ok {
		c.errMsg = MessageCannotStart
		c.mu.Unlock()
		return ErrNoQuestions
	}
	c.speech.ResetTranscript()
	if _, err := c.transitionLocked(fsm.EventAnswer); err != nil {
		c.mu.Unlock()
		return err
	}
	c.streaming = c.opts.UseRealTimeTranscription && c.caps.StreamingSpeech && c.speech.IsSupported()
	c.analyzing = c.opts.UseEmotionAnalysis
	seq, id, index, streaming := c.seq, c.id, c.index, c.streaming
	c.mu.Unlock()

	c.publish(events.Event{InterviewID: id, Type: events.TypeState, State: string(fsm.StateRecording), QuestionIndex: index})

	if err := c.capture.StartRecording(); err != nil {
		c.logWarn("recording start failed", err, "interview_id", id, "question_index", index)
		c.recordIssue(seq, MessageRecordingFailed, interview.DegradedMicrophone)
	}
	if streaming {
		if err := c.speech.StartListening(ctx); err != nil {
			c.logWarn("streaming transcription unavailable", err, "interview_id", id, "question_index", index)
			c.mu.Lock()
			if seq == c.seq {
				c.streaming = false
			}
			c.mu.Unlock()
		}
	}
	return nil
}

// StopAnswering ends the current answer. Capture stops first, then the
// transcript is finalized, then feedback is requested. Exactly one response is
// appended per completed stop.
func (c *Controller) StopAnswering(ctx context.Context) error {
	c.mu.Lock()
	if c.state != fsm.StateRecording {
		state := c.state
		c.mu.Unlock()
		if state == fsm.StateAnalyzing {
			return errors.New("already analyzing")
		}
		return fmt.Errorf("cannot stop from state %s", state)
	}
	if _, err := c.transitionLocked(fsm.EventStop); err != nil {
		c.mu.Unlock()
		return err
	}
	c.feedbackInProgress = true
	question, _ := c.currentQuestionLocked()
	seq, id, index := c.seq, c.id, c.index
	streaming, analyzing := c.streaming, c.analyzing
	c.streaming = false
	c.analyzing = false
	c.mu.Unlock()

	c.capture.StopRecording()
	c.indicator.RecordingStopped(c.lifetime)
	c.publish(events.Event{InterviewID: id, Type: events.TypeState, State: string(fsm.StateAnalyzing), QuestionIndex: index})

	var signals *interview.SignalSummary
	if analyzing {
		summary := c.analyzer.Stop()
		signals = &summary
	}
	rec := c.capture.Recording()

	response := interview.Response{QuestionID: question.ID, Recording: rec, Signals: signals}
	var issues []string
	switch {
	case streaming:
		if err := c.speech.StopListening(ctx); err != nil {
			c.logWarn("streaming transcription failed", err, "interview_id", id, "question_index", index)
			response.Degradations = append(response.Degradations, interview.DegradedTranscription)
			issues = append(issues, MessageTranscription)
		}
		response.Transcript = c.speech.Transcript()
	case c.caps.BatchSpeech && c.speech.CanBatch():
		text, err := c.speech.TranscribeAudio(ctx, rec)
		if err != nil {
			c.logWarn("batch transcription failed", err, "interview_id", id, "question_index", index)
			response.Degradations = append(response.Degradations, interview.DegradedTranscription)
			issues = append(issues, MessageTranscription)
		}
		response.Transcript = text
	default:
		response.Degradations = append(response.Degradations, interview.DegradedTranscription)
	}

	fb, err := c.gen.AnalyzeResponse(ctx, question, response.Transcript, "")
	if err != nil {
		c.logWarn("feedback generation failed", err, "interview_id", id, "question_index", index)
		response.Degradations = append(response.Degradations, interview.DegradedFeedback)
		issues = append(issues, MessageFeedback)
	} else {
		response.Feedback = &fb
	}

	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		return nil
	}
	c.responses = append(c.responses, response)
	c.feedbackInProgress = false
	for _, d := range response.Degradations {
		c.degradations = interview.AppendDegradation(c.degradations, d)
	}
	if len(issues) > 0 {
		c.errMsg = issues[len(issues)-1]
	}
	_, err = c.transitionLocked(fsm.EventAnalyzed)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	score := 0
	if response.Feedback != nil {
		score = response.Feedback.Score
		c.indicator.FeedbackReady(c.lifetime, score)
	}
	c.logInfo("answer analyzed", "interview_id", id, "question_index", index, "score", score, "transcript_chars", len(response.Transcript))
	c.publish(events.Event{
		InterviewID:   id,
		Type:          events.TypeFeedback,
		State:         string(fsm.StateFeedback),
		QuestionIndex: index,
		Score:         score,
	})
	return nil
}

// NextQuestion advances past the current feedback, completing the interview
// after the last question.
func (c *Controller) NextQuestion(context.Context) error {
	c.mu.Lock()
	if c.state != fsm.StateFeedback {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("cannot advance from state %s", state)
	}
	c.index++
	id, index := c.id, c.index
	if c.index < len(c.questions) {
		_, err := c.transitionLocked(fsm.EventNext)
		var armed, warn bool
		if err == nil {
			armed, warn = c.enforceFullScreenLocked()
		}
		c.mu.Unlock()
		if err != nil {
			return err
		}
		if armed {
			c.announceGrace(id, fsm.StateInstructions, index, warn)
		}
		c.publish(events.Event{InterviewID: id, Type: events.TypeQuestion, State: string(fsm.StateInstructions), QuestionIndex: index})
		return nil
	}

	if _, err := c.transitionLocked(fsm.EventComplete); err != nil {
		c.mu.Unlock()
		return err
	}
	summary := report.Build(c.questions, c.responses, c.degradations)
	c.overall = summary.Text
	c.averageScore = summary.AverageScore
	c.completedAt = c.sched.Now().UTC()
	result := c.resultLocked()
	c.result = &result
	c.mu.Unlock()

	c.capture.Release()
	c.logInfo("interview completed", "interview_id", id, "average_score", result.AverageScore, "responses", len(result.Responses))
	c.indicator.Completed(c.lifetime, result.OverallFeedback)
	c.publish(events.Event{
		InterviewID:   id,
		Type:          events.TypeCompleted,
		State:         string(fsm.StateCompleted),
		QuestionIndex: index,
		Score:         result.AverageScore,
		Message:       result.OverallFeedback,
	})
	c.finish(result)
	return nil
}

// ResetInterview returns to idle, releasing devices and clearing all per-interview data.
func (c *Controller) ResetInterview(context.Context) error {
	c.mu.Lock()
	if _, err := c.transitionLocked(fsm.EventReset); err != nil {
		c.mu.Unlock()
		return err
	}
	c.seq++
	id := c.id
	c.clearLocked()
	c.mu.Unlock()

	c.teardown()
	c.publish(events.Event{InterviewID: id, Type: events.TypeState, State: string(fsm.StateIdle), Message: "reset"})
	return nil
}

func (c *Controller) clearLocked() {
	c.stopGraceLocked()
	c.id = ""
	c.principal = identity.Principal{}
	c.job = interview.Job{}
	c.questions = nil
	c.index = 0
	c.responses = nil
	c.errMsg = ""
	c.overall = ""
	c.averageScore = 0
	c.degradations = nil
	c.terminated = false
	c.result = nil
	c.feedbackInProgress = false
	c.streaming = false
	c.analyzing = false
	c.fullScreenExited = false
	c.fullScreenWarned = false
}

func (c *Controller) teardown() {
	c.analyzer.Stop()
	c.speech.Cancel()
	c.speech.ResetTranscript()
	c.capture.Release()
}

func (c *Controller) finish(result interview.Result) {
	if c.onFinish != nil {
		c.onFinish(result)
	}
}

// recordIssue stores a non-fatal failure if the interview it belongs to is still current.
func (c *Controller) recordIssue(seq int, message string, d interview.Degradation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		return
	}
	c.errMsg = message
	c.degradations = interview.AppendDegradation(c.degradations, d)
}

// transitionLocked applies one FSM event. Callers hold c.mu.
func (c *Controller) transitionLocked(event fsm.Event) (fsm.State, error) {
	next, err := fsm.Transition(c.state, event)
	if err != nil {
		return c.state, err
	}
	c.state = next
	return next, nil
}

func (c *Controller) onCountdown(remaining int) {
	c.mu.RLock()
	id, index := c.id, c.index
	c.mu.RUnlock()

	c.indicator.Countdown(c.lifetime, remaining)
	c.publish(events.Event{
		InterviewID:   id,
		Type:          events.TypeCountdown,
		State:         string(fsm.StateRecording),
		QuestionIndex: index,
		Message:       fmt.Sprintf("%d", remaining),
	})
}

func (c *Controller) onRecordingStarted() {
	c.mu.RLock()
	analyzing := c.analyzing && c.state == fsm.StateRecording
	c.mu.RUnlock()

	if analyzing {
		c.analyzer.Start()
	}
	c.indicator.RecordingStarted(c.lifetime)
}

func (c *Controller) onAutoStop() {
	if err := c.StopAnswering(c.lifetime); err != nil {
		c.logWarn("automatic stop skipped", err)
	}
}
