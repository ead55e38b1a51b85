package config

import "github.com/rbright/candor/internal/interview"

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	play := "pw-play --media-role Notification"

	return Config{
		Interview: InterviewConfig{
			MaxResponseSeconds:    int(interview.DefaultMaxResponseTime.Seconds()),
			Questions:             interview.DefaultQuestionsPerInterview,
			Language:              interview.DefaultLanguage,
			RealTimeTranscription: true,
			EmotionAnalysis:       true,
			CountdownSeconds:      3,
		},
		Generation: GenerationConfig{
			Provider:  "googleai",
			APIKeyEnv: "GOOGLE_API_KEY",
		},
		Speech: SpeechConfig{
			Enable:        true,
			GRPC:          "127.0.0.1:50061",
			DialTimeoutMS: 3000,
			SampleRate:    16000,
		},
		Transcription: TranscriptionConfig{
			Enable:    true,
			APIKeyEnv: "GOOGLE_API_KEY",
		},
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		Indicator: IndicatorConfig{
			Enable:         true,
			Backend:        "hypr",
			DesktopAppName: "candor",
			SoundEnable:    true,
			PlayCmd:        CommandConfig{Raw: play, Argv: mustSplitCommand(play)},
			ErrorTimeoutMS: 4000,
		},
		Screen: ScreenConfig{
			Enable: false,
			PollMS: 500,
		},
		Archive: ArchiveConfig{
			Backend:      "dir",
			Prefix:       "interviews/",
			Region:       "auto",
			AccessKeyEnv: "AWS_ACCESS_KEY_ID",
			SecretKeyEnv: "AWS_SECRET_ACCESS_KEY",
		},
		Events: EventsConfig{
			BufferSize: 500,
			AMQPURLEnv: "CANDOR_AMQP_URL",
			Exchange:   "interview_updates",
		},
		HTTP: HTTPConfig{
			Listen:         "127.0.0.1:8787",
			AllowedOrigins: []string{"http://localhost:5173"},
		},
		Vocab: VocabConfig{
			Sets:       map[string]VocabSet{},
			MaxPhrases: 1024,
		},
		Debug: DebugConfig{LogLevel: "info"},
	}
}
