// Package doctor runs readiness diagnostics for config, credentials, devices, and the speech gateway.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rbright/candor/internal/capture"
	"github.com/rbright/candor/internal/config"
	"github.com/rbright/candor/internal/generation"
	"github.com/rbright/candor/internal/transcribe"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment, credential, and backend checks for a loaded config.
func Run(ctx context.Context, loaded config.Loaded) Report {
	cfg := loaded.Config
	checks := []Check{{
		Name:    "config",
		Pass:    true,
		Message: fmt.Sprintf("loaded %q", loaded.Path),
	}}

	if cfg.Interview.Offline {
		checks = append(checks, Check{Name: "generation", Pass: true, Message: "offline mode; using local question bank"})
	} else {
		checks = append(checks, checkSecret(cfg.Generation.APIKeyEnv, "generation"))
	}
	if cfg.Transcription.Enable {
		checks = append(checks, checkSecret(cfg.Transcription.APIKeyEnv, "transcription"))
	}
	if bank := strings.TrimSpace(cfg.Generation.QuestionBank); bank != "" {
		checks = append(checks, checkQuestionBank(bank))
	}

	checks = append(checks, checkAudioSelection(ctx, cfg))
	if cfg.Speech.Enable {
		checks = append(checks, checkSpeechGateway(ctx, cfg.Speech))
	}

	hyprNeeded := cfg.Screen.Enable || (cfg.Indicator.Enable && strings.EqualFold(cfg.Indicator.Backend, "hypr"))
	if hyprNeeded {
		checks = append(checks, checkEnv("HYPRLAND_INSTANCE_SIGNATURE", func(v string) bool {
			return strings.TrimSpace(v) != ""
		}, "Hyprland session detected", "HYPRLAND_INSTANCE_SIGNATURE is empty"))
		checks = append(checks, checkBinary("hyprctl", "required for indicator and full-screen watcher"))
	}
	if cfg.Indicator.Enable && strings.EqualFold(cfg.Indicator.Backend, "desktop") {
		checks = append(checks, checkBinary("busctl", "desktop notifications"))
	}
	if cfg.Indicator.SoundEnable && hasCueFiles(cfg.Indicator) {
		checks = append(checks, checkCommand(cfg.Indicator.PlayCmd.Argv, "indicator.play_cmd"))
	}

	checks = append(checks, checkArchive(cfg.Archive))

	return Report{Checks: checks}
}

func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

// checkSecret validates that an API key env var is set without echoing its value.
func checkSecret(envName string, component string) Check {
	envName = strings.TrimSpace(envName)
	if envName == "" {
		return Check{Name: component, Pass: false, Message: "api_key_env is empty"}
	}
	if strings.TrimSpace(os.Getenv(envName)) == "" {
		return Check{Name: component, Pass: false, Message: fmt.Sprintf("%s is not set", envName)}
	}
	return Check{Name: component, Pass: true, Message: fmt.Sprintf("%s is set", envName)}
}

func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

func checkQuestionBank(path string) Check {
	bank, err := generation.LoadBank(path)
	if err != nil {
		return Check{Name: "question_bank", Pass: false, Message: err.Error()}
	}
	return Check{Name: "question_bank", Pass: true, Message: fmt.Sprintf("loaded %d templates from %q", len(bank.Templates), path)}
}

var selectSource = capture.SelectSource

// checkAudioSelection runs live source selection to surface selection/fallback issues.
func checkAudioSelection(ctx context.Context, cfg config.Config) Check {
	selection, err := selectSource(ctx, cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Source.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkSpeechGateway queries the gateway's gRPC health service.
func checkSpeechGateway(ctx context.Context, cfg config.SpeechConfig) Check {
	timeout := time.Duration(cfg.DialTimeoutMS) * time.Millisecond
	healthCtx, cancel := context.WithTimeout(ctx, timeout+time.Second)
	defer cancel()

	gateway := transcribe.Gateway{Endpoint: cfg.GRPC, DialTimeout: timeout}
	if err := gateway.Health(healthCtx); err != nil {
		return Check{Name: "speech.gateway", Pass: false, Message: err.Error()}
	}
	return Check{Name: "speech.gateway", Pass: true, Message: fmt.Sprintf("serving at %s", cfg.GRPC)}
}

func checkArchive(cfg config.ArchiveConfig) Check {
	switch strings.ToLower(cfg.Backend) {
	case "none":
		return Check{Name: "archive", Pass: true, Message: "disabled"}
	case "s3":
		return Check{Name: "archive", Pass: true, Message: fmt.Sprintf("uploading to s3://%s/%s", cfg.Bucket, strings.Trim(cfg.Prefix, "/"))}
	}

	dir := strings.TrimSpace(cfg.Dir)
	if dir == "" {
		return Check{Name: "archive", Pass: true, Message: "writing under the state directory"}
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return Check{Name: "archive", Pass: false, Message: fmt.Sprintf("create %q: %v", dir, err)}
	}
	probe, err := os.CreateTemp(dir, ".candor-doctor-*")
	if err != nil {
		return Check{Name: "archive", Pass: false, Message: fmt.Sprintf("%q is not writable: %v", dir, err)}
	}
	_ = probe.Close()
	_ = os.Remove(probe.Name())
	return Check{Name: "archive", Pass: true, Message: fmt.Sprintf("writing to %s", filepath.Clean(dir))}
}

func hasCueFiles(cfg config.IndicatorConfig) bool {
	for _, path := range []string{cfg.SoundStartFile, cfg.SoundStopFile, cfg.SoundCompleteFile, cfg.SoundWarningFile} {
		if strings.TrimSpace(path) != "" {
			return true
		}
	}
	return false
}
