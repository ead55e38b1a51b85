package config

import (
	"fmt"
	"sort"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if cfg.Interview.MaxResponseSeconds <= 0 {
		return nil, fmt.Errorf("interview.max_response_seconds must be > 0")
	}
	if cfg.Interview.Questions <= 0 {
		return nil, fmt.Errorf("interview.questions must be > 0")
	}
	if cfg.Interview.CountdownSeconds < 0 {
		return nil, fmt.Errorf("interview.countdown_seconds must be >= 0")
	}
	if strings.TrimSpace(cfg.Interview.Language) == "" {
		return nil, fmt.Errorf("interview.language must not be empty")
	}

	switch strings.ToLower(cfg.Generation.Provider) {
	case "googleai", "openai":
	default:
		return nil, fmt.Errorf("generation.provider must be one of: googleai, openai")
	}
	if !cfg.Interview.Offline && strings.TrimSpace(cfg.Generation.APIKeyEnv) == "" {
		return nil, fmt.Errorf("generation.api_key_env must not be empty unless interview.offline=true")
	}

	if cfg.Speech.Enable {
		if strings.TrimSpace(cfg.Speech.GRPC) == "" {
			return nil, fmt.Errorf("speech.grpc must not be empty when speech.enable=true")
		}
		if cfg.Speech.SampleRate <= 0 {
			return nil, fmt.Errorf("speech.sample_rate must be > 0")
		}
		if cfg.Speech.DialTimeoutMS <= 0 {
			return nil, fmt.Errorf("speech.dial_timeout_ms must be > 0")
		}
	}
	if cfg.Transcription.Enable && strings.TrimSpace(cfg.Transcription.APIKeyEnv) == "" {
		return nil, fmt.Errorf("transcription.api_key_env must not be empty when transcription.enable=true")
	}
	if !cfg.Speech.Enable && cfg.Interview.RealTimeTranscription {
		warnings = append(warnings, Warning{Message: "interview.real_time_transcription=true but speech.enable=false; answers will be transcribed after recording"})
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Indicator.Backend))
	if backend == "" {
		return nil, fmt.Errorf("indicator.backend must not be empty")
	}
	if backend != "hypr" && backend != "desktop" {
		return nil, fmt.Errorf("indicator.backend must be one of: hypr, desktop")
	}
	if backend == "desktop" && strings.TrimSpace(cfg.Indicator.DesktopAppName) == "" {
		return nil, fmt.Errorf("indicator.desktop_app_name must not be empty when indicator.backend=desktop")
	}
	if cfg.Indicator.ErrorTimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.error_timeout_ms must be >= 0")
	}
	if cfg.Indicator.PlayCmd.Raw != "" && len(cfg.Indicator.PlayCmd.Argv) == 0 {
		return nil, fmt.Errorf("indicator.play_cmd is configured but empty")
	}

	if cfg.Screen.Enable && cfg.Screen.PollMS <= 0 {
		return nil, fmt.Errorf("screen.poll_ms must be > 0 when screen.enable=true")
	}

	switch strings.ToLower(cfg.Archive.Backend) {
	case "none", "dir":
	case "s3":
		if strings.TrimSpace(cfg.Archive.Bucket) == "" {
			return nil, fmt.Errorf("archive.bucket must not be empty when archive.backend=s3")
		}
	default:
		return nil, fmt.Errorf("archive.backend must be one of: none, dir, s3")
	}

	if cfg.Events.BufferSize <= 0 {
		return nil, fmt.Errorf("events.buffer_size must be > 0")
	}
	if strings.TrimSpace(cfg.Events.Exchange) == "" {
		return nil, fmt.Errorf("events.exchange must not be empty")
	}

	if strings.TrimSpace(cfg.HTTP.Listen) == "" {
		return nil, fmt.Errorf("http.listen must not be empty")
	}

	switch strings.ToLower(cfg.Debug.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return nil, fmt.Errorf("debug.log_level must be one of: debug, info, warn, error")
	}

	if cfg.Vocab.MaxPhrases <= 0 {
		return nil, fmt.Errorf("vocab.max_phrases must be > 0")
	}

	_, vocabWarnings, err := BuildSpeechPhrases(cfg)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, vocabWarnings...)

	return warnings, nil
}

// BuildSpeechPhrases merges enabled vocab sets into deterministic ASR phrase payloads.
func BuildSpeechPhrases(cfg Config) ([]SpeechPhrase, []Warning, error) {
	enabledSets := cfg.Vocab.GlobalSets
	if len(enabledSets) == 0 {
		return nil, nil, nil
	}

	type candidate struct {
		boost float64
		from  string
	}

	warnings := make([]Warning, 0)
	selected := make(map[string]candidate)

	for _, name := range enabledSets {
		set, ok := cfg.Vocab.Sets[name]
		if !ok {
			return nil, nil, fmt.Errorf("vocab.global references unknown set %q", name)
		}
		for _, phrase := range set.Phrases {
			phrase = strings.TrimSpace(phrase)
			if phrase == "" {
				continue
			}
			if existing, exists := selected[phrase]; exists {
				if set.Boost > existing.boost {
					warnings = append(warnings, Warning{Message: fmt.Sprintf("phrase %q present in %q and %q; using higher boost %.2f", phrase, existing.from, name, set.Boost)})
					selected[phrase] = candidate{boost: set.Boost, from: name}
				}
				continue
			}
			selected[phrase] = candidate{boost: set.Boost, from: name}
		}
	}

	if len(selected) > cfg.Vocab.MaxPhrases {
		return nil, nil, fmt.Errorf("vocabulary phrase count %d exceeds vocab.max_phrases=%d", len(selected), cfg.Vocab.MaxPhrases)
	}

	phrases := make([]SpeechPhrase, 0, len(selected))
	for phrase, c := range selected {
		phrases = append(phrases, SpeechPhrase{Phrase: phrase, Boost: float32(c.boost)})
	}

	sort.Slice(phrases, func(i, j int) bool {
		if phrases[i].Phrase == phrases[j].Phrase {
			return phrases[i].Boost < phrases[j].Boost
		}
		return phrases[i].Phrase < phrases[j].Phrase
	})

	return phrases, warnings, nil
}
