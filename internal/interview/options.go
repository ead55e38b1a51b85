package interview

import (
	"strings"
	"time"
)

const (
	DefaultMaxResponseTime       = 120 * time.Second
	DefaultQuestionsPerInterview = 3
	DefaultLanguage              = "en-US"
)

// Options configures one interview run.
type Options struct {
	MaxResponseTime          time.Duration
	QuestionsPerInterview    int
	Language                 string
	UseRealTimeTranscription bool
	UseEmotionAnalysis       bool
	// Offline forces the deterministic local generators.
	Offline bool
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		MaxResponseTime:          DefaultMaxResponseTime,
		QuestionsPerInterview:    DefaultQuestionsPerInterview,
		Language:                 DefaultLanguage,
		UseRealTimeTranscription: true,
		UseEmotionAnalysis:       true,
	}
}

// Normalize fills zero-valued fields with defaults.
func (o Options) Normalize() Options {
	if o.MaxResponseTime <= 0 {
		o.MaxResponseTime = DefaultMaxResponseTime
	}
	if o.QuestionsPerInterview <= 0 {
		o.QuestionsPerInterview = DefaultQuestionsPerInterview
	}
	if strings.TrimSpace(o.Language) == "" {
		o.Language = DefaultLanguage
	}
	return o
}

// Capabilities describes which runtime backends are present. It is resolved
// once at startup and passed to the orchestrator.
type Capabilities struct {
	Camera             bool `json:"camera"`
	Microphone         bool `json:"microphone"`
	StreamingSpeech    bool `json:"streamingSpeech"`
	BatchSpeech        bool `json:"batchSpeech"`
	FaceAnalysis       bool `json:"faceAnalysis"`
	ExternalGeneration bool `json:"externalGeneration"`
}

// Degradation names one modality or capability the interview ran without.
type Degradation string

const (
	DegradedCamera        Degradation = "camera_unavailable"
	DegradedMicrophone    Degradation = "microphone_unavailable"
	DegradedTranscription Degradation = "transcription_failed"
	DegradedFeedback      Degradation = "feedback_unavailable"
	DegradedQuestions     Degradation = "questions_unavailable"
	DegradedVisual        Degradation = "visual_analysis_unavailable"
)

// Describe renders a degradation for the final report.
func (d Degradation) Describe() string {
	switch d {
	case DegradedCamera:
		return "camera was unavailable, so the interview ran audio-only"
	case DegradedMicrophone:
		return "microphone was unavailable, so answers were not recorded with sound"
	case DegradedTranscription:
		return "speech transcription failed for at least one answer"
	case DegradedFeedback:
		return "automated feedback could not be produced for at least one answer"
	case DegradedQuestions:
		return "interview questions could not be generated"
	case DegradedVisual:
		return "visual analysis was unavailable"
	default:
		return string(d)
	}
}

// AppendDegradation adds d to list unless it is already present.
func AppendDegradation(list []Degradation, d Degradation) []Degradation {
	for _, existing := range list {
		if existing == d {
			return list
		}
	}
	return append(list, d)
}
