package config

import (
	"encoding/json"
	"fmt"
	"strings"
)

type jsoncConfig struct {
	Interview     *jsoncInterview     `json:"interview"`
	Generation    *jsoncGeneration    `json:"generation"`
	Speech        *jsoncSpeech        `json:"speech"`
	Transcription *jsoncTranscription `json:"transcription"`
	Audio         *jsoncAudio         `json:"audio"`
	Indicator     *jsoncIndicator     `json:"indicator"`
	Screen        *jsoncScreen        `json:"screen"`
	Archive       *jsoncArchive       `json:"archive"`
	Events        *jsoncEvents        `json:"events"`
	HTTP          *jsoncHTTP          `json:"http"`
	Vocab         *jsoncVocab         `json:"vocab"`
	Debug         *jsoncDebug         `json:"debug"`
}

type jsoncInterview struct {
	MaxResponseSeconds    *int    `json:"max_response_seconds"`
	Questions             *int    `json:"questions"`
	Language              *string `json:"language"`
	RealTimeTranscription *bool   `json:"real_time_transcription"`
	EmotionAnalysis       *bool   `json:"emotion_analysis"`
	CountdownSeconds      *int    `json:"countdown_seconds"`
	Offline               *bool   `json:"offline"`
}

type jsoncGeneration struct {
	Provider     *string `json:"provider"`
	Model        *string `json:"model"`
	BaseURL      *string `json:"base_url"`
	APIKeyEnv    *string `json:"api_key_env"`
	QuestionBank *string `json:"question_bank"`
}

type jsoncSpeech struct {
	Enable        *bool   `json:"enable"`
	GRPC          *string `json:"grpc"`
	DialTimeoutMS *int    `json:"dial_timeout_ms"`
	SampleRate    *int    `json:"sample_rate"`
}

type jsoncTranscription struct {
	Enable    *bool   `json:"enable"`
	Model     *string `json:"model"`
	APIKeyEnv *string `json:"api_key_env"`
}

type jsoncAudio struct {
	Input    *string `json:"input"`
	Fallback *string `json:"fallback"`
}

type jsoncIndicator struct {
	Enable            *bool   `json:"enable"`
	Backend           *string `json:"backend"`
	DesktopAppName    *string `json:"desktop_app_name"`
	SoundEnable       *bool   `json:"sound_enable"`
	SoundStartFile    *string `json:"sound_start_file"`
	SoundStopFile     *string `json:"sound_stop_file"`
	SoundCompleteFile *string `json:"sound_complete_file"`
	SoundWarningFile  *string `json:"sound_warning_file"`
	PlayCmd           *string `json:"play_cmd"`
	ErrorTimeoutMS    *int    `json:"error_timeout_ms"`
}

type jsoncScreen struct {
	Enable *bool `json:"enable"`
	PollMS *int  `json:"poll_ms"`
}

type jsoncArchive struct {
	Backend      *string `json:"backend"`
	Dir          *string `json:"dir"`
	Bucket       *string `json:"bucket"`
	Prefix       *string `json:"prefix"`
	Region       *string `json:"region"`
	Endpoint     *string `json:"endpoint"`
	AccessKeyEnv *string `json:"access_key_env"`
	SecretKeyEnv *string `json:"secret_key_env"`
}

type jsoncEvents struct {
	BufferSize *int    `json:"buffer_size"`
	AMQPURLEnv *string `json:"amqp_url_env"`
	Exchange   *string `json:"exchange"`
}

type jsoncHTTP struct {
	Listen         *string          `json:"listen"`
	AllowedOrigins *jsoncStringList `json:"allowed_origins"`
}

type jsoncVocab struct {
	Global     *jsoncStringList         `json:"global"`
	MaxPhrases *int                     `json:"max_phrases"`
	Sets       map[string]jsoncVocabSet `json:"sets"`
}

type jsoncVocabSet struct {
	Boost   *float64 `json:"boost"`
	Phrases []string `json:"phrases"`
}

type jsoncDebug struct {
	AudioDump *bool   `json:"audio_dump"`
	GRPCDump  *bool   `json:"grpc_dump"`
	LogLevel  *string `json:"log_level"`
}

type jsoncStringList []string

func (l *jsoncStringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = trimList(list)
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = trimList(strings.Split(single, ","))
		return nil
	}

	return fmt.Errorf("expected string array or comma-delimited string")
}

func trimList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

// decodeJSONC overlays content onto base without validating the result.
func decodeJSONC(content string, base Config) (Config, []Warning, error) {
	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := base
	warnings, err := payload.applyTo(&cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func (payload jsoncConfig) applyTo(cfg *Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if p := payload.Interview; p != nil {
		setInt(&cfg.Interview.MaxResponseSeconds, p.MaxResponseSeconds)
		setInt(&cfg.Interview.Questions, p.Questions)
		setString(&cfg.Interview.Language, p.Language)
		setBool(&cfg.Interview.RealTimeTranscription, p.RealTimeTranscription)
		setBool(&cfg.Interview.EmotionAnalysis, p.EmotionAnalysis)
		setInt(&cfg.Interview.CountdownSeconds, p.CountdownSeconds)
		setBool(&cfg.Interview.Offline, p.Offline)
	}

	if p := payload.Generation; p != nil {
		setString(&cfg.Generation.Provider, p.Provider)
		setString(&cfg.Generation.Model, p.Model)
		setString(&cfg.Generation.BaseURL, p.BaseURL)
		setString(&cfg.Generation.APIKeyEnv, p.APIKeyEnv)
		setString(&cfg.Generation.QuestionBank, p.QuestionBank)
	}

	if p := payload.Speech; p != nil {
		setBool(&cfg.Speech.Enable, p.Enable)
		setString(&cfg.Speech.GRPC, p.GRPC)
		setInt(&cfg.Speech.DialTimeoutMS, p.DialTimeoutMS)
		setInt(&cfg.Speech.SampleRate, p.SampleRate)
	}

	if p := payload.Transcription; p != nil {
		setBool(&cfg.Transcription.Enable, p.Enable)
		setString(&cfg.Transcription.Model, p.Model)
		setString(&cfg.Transcription.APIKeyEnv, p.APIKeyEnv)
	}

	if p := payload.Audio; p != nil {
		setString(&cfg.Audio.Input, p.Input)
		setString(&cfg.Audio.Fallback, p.Fallback)
	}

	if p := payload.Indicator; p != nil {
		setBool(&cfg.Indicator.Enable, p.Enable)
		setString(&cfg.Indicator.Backend, p.Backend)
		setString(&cfg.Indicator.DesktopAppName, p.DesktopAppName)
		setBool(&cfg.Indicator.SoundEnable, p.SoundEnable)
		setString(&cfg.Indicator.SoundStartFile, p.SoundStartFile)
		setString(&cfg.Indicator.SoundStopFile, p.SoundStopFile)
		setString(&cfg.Indicator.SoundCompleteFile, p.SoundCompleteFile)
		setString(&cfg.Indicator.SoundWarningFile, p.SoundWarningFile)
		setInt(&cfg.Indicator.ErrorTimeoutMS, p.ErrorTimeoutMS)
		if p.PlayCmd != nil {
			raw := *p.PlayCmd
			argv, err := splitCommand(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid indicator.play_cmd: %w", err)
			}
			cfg.Indicator.PlayCmd = CommandConfig{Raw: raw, Argv: argv}
		}
	}

	if p := payload.Screen; p != nil {
		setBool(&cfg.Screen.Enable, p.Enable)
		setInt(&cfg.Screen.PollMS, p.PollMS)
	}

	if p := payload.Archive; p != nil {
		setString(&cfg.Archive.Backend, p.Backend)
		setString(&cfg.Archive.Dir, p.Dir)
		setString(&cfg.Archive.Bucket, p.Bucket)
		setString(&cfg.Archive.Prefix, p.Prefix)
		setString(&cfg.Archive.Region, p.Region)
		setString(&cfg.Archive.Endpoint, p.Endpoint)
		setString(&cfg.Archive.AccessKeyEnv, p.AccessKeyEnv)
		setString(&cfg.Archive.SecretKeyEnv, p.SecretKeyEnv)
	}

	if p := payload.Events; p != nil {
		setInt(&cfg.Events.BufferSize, p.BufferSize)
		setString(&cfg.Events.AMQPURLEnv, p.AMQPURLEnv)
		setString(&cfg.Events.Exchange, p.Exchange)
	}

	if p := payload.HTTP; p != nil {
		setString(&cfg.HTTP.Listen, p.Listen)
		if p.AllowedOrigins != nil {
			cfg.HTTP.AllowedOrigins = append([]string(nil), (*p.AllowedOrigins)...)
		}
	}

	if payload.Vocab != nil {
		if payload.Vocab.Global != nil {
			cfg.Vocab.GlobalSets = append([]string(nil), (*payload.Vocab.Global)...)
		}
		setInt(&cfg.Vocab.MaxPhrases, payload.Vocab.MaxPhrases)
		if payload.Vocab.Sets != nil {
			sets := make(map[string]VocabSet, len(cfg.Vocab.Sets)+len(payload.Vocab.Sets))
			for name, set := range cfg.Vocab.Sets {
				sets[name] = set
			}
			for name, set := range payload.Vocab.Sets {
				trimmedName := strings.TrimSpace(name)
				if trimmedName == "" {
					return nil, fmt.Errorf("vocab.sets contains an empty set name")
				}
				entry := VocabSet{Name: trimmedName, Phrases: append([]string(nil), set.Phrases...)}
				if set.Boost != nil {
					entry.Boost = *set.Boost
				}
				sets[trimmedName] = entry
			}
			cfg.Vocab.Sets = sets
		}
	}

	if p := payload.Debug; p != nil {
		setBool(&cfg.Debug.AudioDump, p.AudioDump)
		setBool(&cfg.Debug.GRPCDump, p.GRPCDump)
		setString(&cfg.Debug.LogLevel, p.LogLevel)
	}

	return warnings, nil
}
