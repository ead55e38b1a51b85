package transcribe

import (
	"strings"
	"sync"
)

// Result is one recognition update from a streaming backend.
type Result struct {
	Transcript string
	Final      bool
	// Confidence is the backend's utterance confidence in [0,1]; zero when unknown.
	Confidence float64
}

// TranscriptState is the observable transcript of the current listening session.
type TranscriptState struct {
	Final      string `json:"finalTranscript"`
	Interim    string `json:"interimTranscript"`
	Confidence int    `json:"confidence"`
	Listening  bool   `json:"isListening"`
}

// tracker merges streaming results into committed segments plus one interim tail.
// Committed segments only grow until reset.
type tracker struct {
	mu          sync.Mutex
	segments    []string
	lastInterim string
	confidence  float64
	listening   bool
}

func (t *tracker) apply(res Result) {
	text := cleanSegment(res.Transcript)
	if text == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if res.Confidence > t.confidence {
		t.confidence = min(res.Confidence, 1)
	}
	if res.Final {
		t.segments = appendSegment(t.segments, text)
		t.lastInterim = ""
		return
	}
	if t.lastInterim != "" && !isInterimContinuation(t.lastInterim, text) {
		t.segments = appendSegment(t.segments, t.lastInterim)
	}
	t.lastInterim = text
}

// commit moves a trailing interim into the committed segments.
func (t *tracker) commit() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.segments = appendSegment(t.segments, t.lastInterim)
	t.lastInterim = ""
}

func (t *tracker) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.segments = nil
	t.lastInterim = ""
	t.confidence = 0
}

func (t *tracker) setListening(on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listening = on
}

func (t *tracker) state() TranscriptState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return TranscriptState{
		Final:      strings.Join(t.segments, " "),
		Interim:    t.lastInterim,
		Confidence: int(t.confidence*100 + 0.5),
		Listening:  t.listening,
	}
}

// appendSegment merges continuation segments so repeated updates do not duplicate text.
func appendSegment(segments []string, transcript string) []string {
	transcript = cleanSegment(transcript)
	if transcript == "" {
		return segments
	}
	if len(segments) == 0 {
		return append(segments, transcript)
	}

	last := segments[len(segments)-1]
	switch {
	case transcript == last, strings.HasPrefix(last, transcript):
		return segments
	case strings.HasPrefix(transcript, last):
		segments[len(segments)-1] = transcript
		return segments
	default:
		return append(segments, transcript)
	}
}

// isInterimContinuation reports whether current extends or revises previous
// rather than starting a new utterance. Revisions keep at least half of the
// shorter update's leading words.
func isInterimContinuation(previous string, current string) bool {
	if previous == "" || current == "" || previous == current {
		return true
	}
	if strings.HasPrefix(current, previous) || strings.HasPrefix(previous, current) {
		return true
	}

	prevWords := strings.Fields(previous)
	currWords := strings.Fields(current)
	shorter := min(len(prevWords), len(currWords))
	if shorter == 0 {
		return true
	}
	common := 0
	for common < shorter && prevWords[common] == currWords[common] {
		common++
	}
	return common*2 >= shorter
}

func cleanSegment(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}
