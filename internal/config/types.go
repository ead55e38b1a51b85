// Package config resolves, parses, validates, and defaults candor configuration.
package config

import (
	"time"

	"github.com/rbright/candor/internal/interview"
)

// Config is the fully materialized runtime configuration used by candor.
type Config struct {
	Interview     InterviewConfig
	Generation    GenerationConfig
	Speech        SpeechConfig
	Transcription TranscriptionConfig
	Audio         AudioConfig
	Indicator     IndicatorConfig
	Screen        ScreenConfig
	Archive       ArchiveConfig
	Events        EventsConfig
	HTTP          HTTPConfig
	Vocab         VocabConfig
	Debug         DebugConfig
}

// InterviewConfig controls one interview run.
type InterviewConfig struct {
	MaxResponseSeconds    int
	Questions             int
	Language              string
	RealTimeTranscription bool
	EmotionAnalysis       bool
	CountdownSeconds      int
	Offline               bool
}

// Options converts the interview section into orchestrator options.
func (c InterviewConfig) Options() interview.Options {
	return interview.Options{
		MaxResponseTime:          time.Duration(c.MaxResponseSeconds) * time.Second,
		QuestionsPerInterview:    c.Questions,
		Language:                 c.Language,
		UseRealTimeTranscription: c.RealTimeTranscription,
		UseEmotionAnalysis:       c.EmotionAnalysis,
		Offline:                  c.Offline,
	}
}

// GenerationConfig selects the language model used for questions and feedback.
type GenerationConfig struct {
	Provider     string
	Model        string
	BaseURL      string
	APIKeyEnv    string
	QuestionBank string
}

// SpeechConfig controls the streaming speech gateway.
type SpeechConfig struct {
	Enable        bool
	GRPC          string
	DialTimeoutMS int
	SampleRate    int
}

// TranscriptionConfig controls batch transcription of finished recordings.
type TranscriptionConfig struct {
	Enable    bool
	Model     string
	APIKeyEnv string
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input    string
	Fallback string
}

// IndicatorConfig controls visual indicator and audio cue behavior.
type IndicatorConfig struct {
	Enable            bool
	Backend           string
	DesktopAppName    string
	SoundEnable       bool
	SoundStartFile    string
	SoundStopFile     string
	SoundCompleteFile string
	SoundWarningFile  string
	PlayCmd           CommandConfig
	ErrorTimeoutMS    int
}

// ScreenConfig controls the Hyprland full-screen watcher.
type ScreenConfig struct {
	Enable bool
	PollMS int
}

// ArchiveConfig selects where finished interviews are stored.
type ArchiveConfig struct {
	Backend      string
	Dir          string
	Bucket       string
	Prefix       string
	Region       string
	Endpoint     string
	AccessKeyEnv string
	SecretKeyEnv string
}

// EventsConfig controls the in-memory event buffer and optional AMQP fan-out.
type EventsConfig struct {
	BufferSize int
	AMQPURLEnv string
	Exchange   string
}

// HTTPConfig controls the browser-facing API.
type HTTPConfig struct {
	Listen         string
	AllowedOrigins []string
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// VocabConfig controls enabled speech phrase sets and dedupe limits.
type VocabConfig struct {
	GlobalSets []string
	Sets       map[string]VocabSet
	MaxPhrases int
}

// VocabSet is one named phrase group with a shared boost value.
type VocabSet struct {
	Name    string
	Boost   float64
	Phrases []string
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	AudioDump bool
	GRPCDump  bool
	LogLevel  string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}

// SpeechPhrase is the normalized phrase payload sent to the speech gateway.
type SpeechPhrase struct {
	Phrase string
	Boost  float32
}
