// Package interview defines the shared domain model for one interview session.
package interview

import (
	"time"

	"github.com/rbright/candor/internal/identity"
)

// Category classifies what a question probes.
type Category string

const (
	CategoryBehavioral  Category = "behavioral"
	CategoryTechnical   Category = "technical"
	CategoryExperience  Category = "experience"
	CategoryScenario    Category = "scenario"
	CategorySituational Category = "situational"
	CategoryCultural    Category = "cultural"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryBehavioral, CategoryTechnical, CategoryExperience,
		CategoryScenario, CategorySituational, CategoryCultural:
		return true
	default:
		return false
	}
}

// Difficulty grades a question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}

// Question is one generated interview prompt. Questions are immutable once generated.
type Question struct {
	ID                      string     `json:"id"`
	Text                    string     `json:"text"`
	Category                Category   `json:"category"`
	Difficulty              Difficulty `json:"difficulty"`
	ExpectedDurationSeconds int        `json:"expectedDurationSeconds,omitempty"`
}

// Emotion is one coarse facial-expression bucket.
type Emotion string

const (
	EmotionHappy     Emotion = "happy"
	EmotionSad       Emotion = "sad"
	EmotionAngry     Emotion = "angry"
	EmotionSurprised Emotion = "surprised"
	EmotionNeutral   Emotion = "neutral"
)

// Emotions lists every bucket in reporting order.
var Emotions = []Emotion{EmotionHappy, EmotionSad, EmotionAngry, EmotionSurprised, EmotionNeutral}

// FeedbackSource records which generator produced a feedback object.
type FeedbackSource string

const (
	SourceModel    FeedbackSource = "model"
	SourceFallback FeedbackSource = "fallback"
)

// KeywordMatch splits expected keywords into those the answer covered and missed.
type KeywordMatch struct {
	Matched []string `json:"matched"`
	Missed  []string `json:"missed"`
}

// Feedback is the structured assessment of one response. It is never mutated after creation.
type Feedback struct {
	Score        int            `json:"score"`
	Text         string         `json:"feedbackText"`
	Strengths    []string       `json:"strengths"`
	Improvements []string       `json:"improvements"`
	Keywords     KeywordMatch   `json:"keywords"`
	Sentiment    string         `json:"sentiment,omitempty"`
	Confidence   int            `json:"confidence,omitempty"`
	Source       FeedbackSource `json:"source"`
}

// Recording is the contiguous media artifact captured for one answer.
type Recording struct {
	Data     []byte        `json:"-"`
	MIMEType string        `json:"mimeType"`
	Size     int           `json:"size"`
	Duration time.Duration `json:"duration"`
}

// SignalSummary aggregates visual signal samples over one question.
type SignalSummary struct {
	Counts            map[Emotion]int `json:"counts"`
	Ticks             int             `json:"ticks"`
	FaceTicks         int             `json:"faceTicks"`
	FaceRatio         float64         `json:"faceRatio"`
	AverageConfidence float64         `json:"averageConfidence"`
	Dominant          Emotion         `json:"dominant,omitempty"`
}

// Response is the record of one answered question.
type Response struct {
	QuestionID   string         `json:"questionId"`
	Transcript   string         `json:"transcript"`
	Recording    *Recording     `json:"recording,omitempty"`
	Feedback     *Feedback      `json:"feedback,omitempty"`
	Signals      *SignalSummary `json:"signals,omitempty"`
	Degradations []Degradation  `json:"degradations,omitempty"`
}

// Pending reports whether feedback has not been attached yet.
func (r Response) Pending() bool {
	return r.Feedback == nil
}

// Job is the posting an interview is generated for.
type Job struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
}

// Result is the payload handed to the surrounding application once an interview ends.
type Result struct {
	ID              string             `json:"id"`
	Principal       identity.Principal `json:"principal"`
	Job             Job                `json:"job"`
	Questions       []Question         `json:"questions"`
	Responses       []Response         `json:"responses"`
	OverallFeedback string             `json:"overallFeedback"`
	AverageScore    int                `json:"averageScore"`
	Degradations    []Degradation      `json:"degradations,omitempty"`
	StartedAt       time.Time          `json:"startedAt"`
	CompletedAt     time.Time          `json:"completedAt"`
	Terminated      bool               `json:"terminated"`
}
