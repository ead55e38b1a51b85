package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rbright/candor/internal/archive"
	"github.com/rbright/candor/internal/capture"
	"github.com/rbright/candor/internal/config"
	"github.com/rbright/candor/internal/events"
	"github.com/rbright/candor/internal/generation"
	"github.com/rbright/candor/internal/indicator"
	"github.com/rbright/candor/internal/interview"
	"github.com/rbright/candor/internal/logging"
	"github.com/rbright/candor/internal/session"
	"github.com/rbright/candor/internal/transcribe"
	"github.com/rbright/candor/internal/vision"
)

const archiveTimeout = 2 * time.Minute

// interviewRuntime owns the controller plus every resource wired into it.
type interviewRuntime struct {
	logger     *slog.Logger
	controller *session.Controller
	bus        *events.Bus
	sink       archive.Sink

	closers  []io.Closer
	archives sync.WaitGroup
	// archived receives the storage location of each finished interview.
	archived func(location string, err error)
}

type runtimeOptions struct {
	// extra receives every event alongside the bus and broker.
	extra events.Publisher
	// archived is invoked after each archive attempt.
	archived func(location string, err error)
}

// buildRuntime wires a controller from configuration. Optional backends that
// fail to initialize are logged and left out; the interview degrades instead.
func buildRuntime(ctx context.Context, cfg config.Config, logger *slog.Logger, opts runtimeOptions) (*interviewRuntime, error) {
	rt := &interviewRuntime{
		logger:   logger,
		bus:      events.NewBus(cfg.Events.BufferSize),
		archived: opts.archived,
	}

	gen, external, err := buildGeneration(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	phrases, err := speechPhrases(cfg)
	if err != nil {
		return nil, err
	}
	speech, dumpFile := buildTranscriber(ctx, cfg, phrases, logger)
	if dumpFile != nil {
		rt.closers = append(rt.closers, dumpFile)
	}

	publishers := []events.Publisher{rt.bus}
	if broker := dialBroker(cfg.Events, logger); broker != nil {
		publishers = append(publishers, broker)
		rt.closers = append(rt.closers, broker)
	}
	if opts.extra != nil {
		publishers = append(publishers, opts.extra)
	}

	sink, err := buildArchive(ctx, cfg.Archive)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.sink = sink

	captureCfg := capture.Config{
		Constraints: capture.DefaultConstraints(),
		Countdown:   cfg.Interview.CountdownSeconds,
	}
	if cfg.Debug.AudioDump {
		if dir, dirErr := logging.StateDir(); dirErr == nil {
			captureCfg.DumpDir = filepath.Join(dir, "debug")
		}
	}

	rt.controller = session.New(session.Deps{
		Logger:       logger,
		Options:      cfg.Interview.Options(),
		Capabilities: capabilitiesFor(cfg, speech, external),
		Device: capture.PulseDevice{
			Input:    cfg.Audio.Input,
			Fallback: cfg.Audio.Fallback,
			OnSelect: func(sel capture.Selection) {
				if sel.Warning != "" {
					logger.Warn("audio source fallback", "source", sel.Source.ID, "warning", sel.Warning)
				}
			},
		},
		Capture:     captureCfg,
		Classifier:  vision.DefaultPresenceClassifier(),
		Transcriber: speech,
		Generation:  gen,
		Indicator:   indicator.New(cfg.Indicator, logger),
		Events:      events.NewMulti(logger, publishers...),
		OnFinish:    rt.store,
	})
	return rt, nil
}

// Close releases the controller, waits for pending archive writes, then closes sinks.
func (rt *interviewRuntime) Close() {
	if rt.controller != nil {
		rt.controller.Close()
	}
	rt.archives.Wait()
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i].Close(); err != nil && rt.logger != nil {
			rt.logger.Warn("close runtime resource", "error", err.Error())
		}
	}
	rt.closers = nil
}

// store archives a finished interview off the controller's goroutine.
func (rt *interviewRuntime) store(result interview.Result) {
	rt.archives.Add(1)
	go func() {
		defer rt.archives.Done()
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()

		location, err := rt.sink.Store(ctx, result)
		if err != nil {
			rt.logger.Error("archive interview failed", "interview_id", result.ID, "error", err.Error())
		} else if location != "" {
			rt.logger.Info("interview archived", "interview_id", result.ID, "location", location)
		}
		if rt.archived != nil {
			rt.archived(location, err)
		}
	}()
}

// buildGeneration returns the question/feedback client and whether it calls a model.
func buildGeneration(ctx context.Context, cfg config.Config, logger *slog.Logger) (generation.Client, bool, error) {
	bank := generation.DefaultBank()
	if path := strings.TrimSpace(cfg.Generation.QuestionBank); path != "" {
		loaded, err := generation.LoadBank(path)
		if err != nil {
			return nil, false, err
		}
		bank = loaded
	}

	if cfg.Interview.Offline {
		return generation.Select(nil, true, bank, logger), false, nil
	}

	provider, err := generation.NewProvider(ctx, generation.ProviderConfig{
		Provider: cfg.Generation.Provider,
		APIKey:   os.Getenv(cfg.Generation.APIKeyEnv),
		Model:    cfg.Generation.Model,
		BaseURL:  cfg.Generation.BaseURL,
	})
	if err != nil {
		logger.Warn("model provider unavailable; using local question bank", "provider", cfg.Generation.Provider, "error", err.Error())
		return generation.Select(nil, false, bank, logger), false, nil
	}
	return generation.Select(provider, false, bank, logger), true, nil
}

func speechPhrases(cfg config.Config) ([]transcribe.Phrase, error) {
	planned, _, err := config.BuildSpeechPhrases(cfg)
	if err != nil {
		return nil, fmt.Errorf("build speech phrases: %w", err)
	}
	phrases := make([]transcribe.Phrase, 0, len(planned))
	for _, p := range planned {
		phrases = append(phrases, transcribe.Phrase{Text: p.Phrase, Boost: p.Boost})
	}
	return phrases, nil
}

// buildTranscriber wires the streaming gateway and the batch model. Either may be absent.
func buildTranscriber(ctx context.Context, cfg config.Config, phrases []transcribe.Phrase, logger *slog.Logger) (*transcribe.Service, io.Closer) {
	serviceCfg := transcribe.Config{
		Language:   cfg.Interview.Language,
		SampleRate: cfg.Speech.SampleRate,
		MIMEType:   capture.WAVContainer{}.MIMEType(),
		Phrases:    phrases,
	}

	var dump *os.File
	if cfg.Speech.Enable {
		gateway := transcribe.Gateway{
			Endpoint:    cfg.Speech.GRPC,
			DialTimeout: time.Duration(cfg.Speech.DialTimeoutMS) * time.Millisecond,
		}
		if cfg.Debug.GRPCDump {
			dump = openDebugFile("grpc.jsonl", logger)
			if dump != nil {
				gateway.DebugSink = dump
			}
		}
		serviceCfg.Streamer = gateway
	}

	if cfg.Transcription.Enable {
		batcher, err := transcribe.NewGemini(ctx, os.Getenv(cfg.Transcription.APIKeyEnv), cfg.Transcription.Model)
		if err != nil {
			logger.Warn("batch transcription unavailable", "error", err.Error())
		} else {
			serviceCfg.Batcher = batcher
		}
	}

	service := transcribe.NewService(serviceCfg, logger)
	if dump == nil {
		return service, nil
	}
	return service, dump
}

func openDebugFile(name string, logger *slog.Logger) *os.File {
	dir, err := logging.StateDir()
	if err == nil {
		dir = filepath.Join(dir, "debug")
		err = os.MkdirAll(dir, 0o700)
	}
	if err != nil {
		logger.Warn("debug dump disabled", "error", err.Error())
		return nil
	}
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		logger.Warn("debug dump disabled", "error", err.Error())
		return nil
	}
	return f
}

// dialBroker connects the optional AMQP fan-out named by the configured env var.
func dialBroker(cfg config.EventsConfig, logger *slog.Logger) *events.AMQPPublisher {
	url := strings.TrimSpace(os.Getenv(cfg.AMQPURLEnv))
	if url == "" {
		return nil
	}
	broker, err := events.DialAMQP(url, cfg.Exchange)
	if err != nil {
		logger.Warn("event broker unavailable", "exchange", cfg.Exchange, "error", err.Error())
		return nil
	}
	return broker
}

func buildArchive(ctx context.Context, cfg config.ArchiveConfig) (archive.Sink, error) {
	switch strings.ToLower(cfg.Backend) {
	case "none":
		return archive.Nop{}, nil
	case "s3":
		sink, err := archive.NewS3FromConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return sink, nil
	}

	root := strings.TrimSpace(cfg.Dir)
	if root == "" {
		dir, err := logging.StateDir()
		if err != nil {
			return nil, fmt.Errorf("resolve archive dir: %w", err)
		}
		root = filepath.Join(dir, "interviews")
	}
	return archive.NewDir(root), nil
}

// capabilitiesFor reports what this host can do. Pulse capture never has a camera.
func capabilitiesFor(cfg config.Config, speech *transcribe.Service, external bool) interview.Capabilities {
	const camera = false
	return interview.Capabilities{
		Camera:             camera,
		Microphone:         true,
		StreamingSpeech:    speech.IsSupported(),
		BatchSpeech:        speech.CanBatch(),
		FaceAnalysis:       cfg.Interview.EmotionAnalysis && camera,
		ExternalGeneration: external,
	}
}
