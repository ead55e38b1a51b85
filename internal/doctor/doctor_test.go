package doctor

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/rbright/candor/internal/capture"
	"github.com/rbright/candor/internal/config"
	"github.com/rbright/candor/internal/transcribe"
)

func TestReportOKAndString(t *testing.T) {
	report := Report{Checks: []Check{
		{Name: "one", Pass: true, Message: "good"},
		{Name: "two", Pass: false, Message: "bad"},
	}}

	require.False(t, report.OK())
	text := report.String()
	require.Contains(t, text, "[OK] one: good")
	require.Contains(t, text, "[FAIL] two: bad")
}

func TestCheckEnv(t *testing.T) {
	t.Setenv("TEST_DOCTOR_ENV", "wayland")

	check := checkEnv(
		"TEST_DOCTOR_ENV",
		func(v string) bool { return strings.EqualFold(v, "wayland") },
		"looks good",
		"unexpected",
	)

	require.True(t, check.Pass)
	require.Equal(t, "looks good", check.Message)
}

func TestCheckSecret(t *testing.T) {
	t.Setenv("CANDOR_DOCTOR_KEY", "sk-secret")

	ok := checkSecret("CANDOR_DOCTOR_KEY", "generation")
	require.True(t, ok.Pass)
	require.NotContains(t, ok.Message, "sk-secret")

	missing := checkSecret("CANDOR_DOCTOR_UNSET_KEY", "generation")
	require.False(t, missing.Pass)
	require.Contains(t, missing.Message, "CANDOR_DOCTOR_UNSET_KEY is not set")

	empty := checkSecret(" ", "transcription")
	require.False(t, empty.Pass)
	require.Equal(t, "transcription", empty.Name)
}

func TestCheckCommandEmpty(t *testing.T) {
	check := checkCommand(nil, "indicator.play_cmd")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "command is empty")
}

func TestCheckBinaryFound(t *testing.T) {
	check := checkBinary("sh", "shell available")
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "shell available")
}

func TestCheckBinaryMissing(t *testing.T) {
	check := checkBinary("definitely-not-a-real-binary", "unused")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "binary not found")
}

func TestCheckCommandUsesBinaryFromPath(t *testing.T) {
	dir := t.TempDir()
	scriptPath := filepath.Join(dir, "fake-player")
	require.NoError(t, os.WriteFile(scriptPath, []byte("#!/usr/bin/env bash\nexit 0\n"), 0o755))
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))

	check := checkCommand([]string{"fake-player", "--quiet"}, "indicator.play_cmd")
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "indicator.play_cmd command is available")
}

func TestCheckQuestionBank(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "bank.yaml")
	require.NoError(t, os.WriteFile(good, []byte(`templates:
  - text: "Describe a time you used {keyword}."
    category: technical
    difficulty: medium
`), 0o600))

	check := checkQuestionBank(good)
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "loaded 1 templates")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("templates: [{text: x, category: nope, difficulty: easy}]\n"), 0o600))
	check = checkQuestionBank(bad)
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "unknown category")

	check = checkQuestionBank(filepath.Join(dir, "missing.yaml"))
	require.False(t, check.Pass)
}

func TestCheckArchive(t *testing.T) {
	require.True(t, checkArchive(config.ArchiveConfig{Backend: "none"}).Pass)

	s3 := checkArchive(config.ArchiveConfig{Backend: "s3", Bucket: "interviews", Prefix: "/candor/"})
	require.True(t, s3.Pass)
	require.Equal(t, "uploading to s3://interviews/candor", s3.Message)

	dir := filepath.Join(t.TempDir(), "archive")
	local := checkArchive(config.ArchiveConfig{Backend: "dir", Dir: dir})
	require.True(t, local.Pass)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))
	blocked := checkArchive(config.ArchiveConfig{Backend: "dir", Dir: filepath.Join(blocker, "nested")})
	require.False(t, blocked.Pass)
}

func TestCheckAudioSelection(t *testing.T) {
	original := selectSource
	t.Cleanup(func() { selectSource = original })

	selectSource = func(_ context.Context, input string, fallback string) (capture.Selection, error) {
		require.Equal(t, "usb", input)
		require.Equal(t, "default", fallback)
		return capture.Selection{Source: capture.Source{ID: "alsa_input.usb"}, Warning: "primary muted", Fallback: true}, nil
	}
	cfg := config.Default()
	cfg.Audio.Input = "usb"
	cfg.Audio.Fallback = "default"

	check := checkAudioSelection(context.Background(), cfg)
	require.True(t, check.Pass)
	require.Equal(t, `selected "alsa_input.usb" (primary muted)`, check.Message)

	selectSource = func(context.Context, string, string) (capture.Selection, error) {
		return capture.Selection{}, errors.New("no audio sources available")
	}
	check = checkAudioSelection(context.Background(), cfg)
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "no audio sources")
}

func TestCheckSpeechGateway(t *testing.T) {
	serving := startHealthServer(t, healthpb.HealthCheckResponse_SERVING)
	check := checkSpeechGateway(context.Background(), config.SpeechConfig{GRPC: serving, DialTimeoutMS: 2000})
	require.True(t, check.Pass)
	require.Contains(t, check.Message, serving)

	notServing := startHealthServer(t, healthpb.HealthCheckResponse_NOT_SERVING)
	check = checkSpeechGateway(context.Background(), config.SpeechConfig{GRPC: notServing, DialTimeoutMS: 2000})
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "NOT_SERVING")
}

func TestRunOfflineSkipsGenerationKey(t *testing.T) {
	original := selectSource
	t.Cleanup(func() { selectSource = original })
	selectSource = func(context.Context, string, string) (capture.Selection, error) {
		return capture.Selection{Source: capture.Source{ID: "mic"}}, nil
	}

	cfg := config.Default()
	cfg.Interview.Offline = true
	cfg.Speech.Enable = false
	cfg.Transcription.Enable = false
	cfg.Screen.Enable = false
	cfg.Indicator.Enable = false
	cfg.Archive.Backend = "none"

	report := Run(context.Background(), config.Loaded{Path: "/tmp/candor.jsonc", Config: cfg})
	require.True(t, report.OK(), report.String())
	names := make([]string, 0, len(report.Checks))
	for _, check := range report.Checks {
		names = append(names, check.Name)
	}
	require.Equal(t, []string{"config", "generation", "audio.device", "archive"}, names)
	require.Contains(t, report.Checks[1].Message, "offline")
}

func TestRunReportsMissingCredentials(t *testing.T) {
	original := selectSource
	t.Cleanup(func() { selectSource = original })
	selectSource = func(context.Context, string, string) (capture.Selection, error) {
		return capture.Selection{Source: capture.Source{ID: "mic"}}, nil
	}

	cfg := config.Default()
	cfg.Interview.Offline = false
	cfg.Generation.APIKeyEnv = "CANDOR_DOCTOR_MISSING_GEN"
	cfg.Transcription.Enable = true
	cfg.Transcription.APIKeyEnv = "CANDOR_DOCTOR_MISSING_STT"
	cfg.Speech.Enable = false
	cfg.Screen.Enable = false
	cfg.Indicator.Enable = false
	cfg.Archive.Backend = "none"

	report := Run(context.Background(), config.Loaded{Path: "candor.jsonc", Config: cfg})
	require.False(t, report.OK())
	text := report.String()
	require.Contains(t, text, "[FAIL] generation: CANDOR_DOCTOR_MISSING_GEN is not set")
	require.Contains(t, text, "[FAIL] transcription: CANDOR_DOCTOR_MISSING_STT is not set")
}

func startHealthServer(t *testing.T, status healthpb.HealthCheckResponse_ServingStatus) string {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := grpc.NewServer()
	hs := health.NewServer()
	hs.SetServingStatus(transcribe.GatewayService, status)
	healthpb.RegisterHealthServer(server, hs)
	go func() {
		_ = server.Serve(lis)
	}()
	t.Cleanup(server.Stop)

	return lis.Addr().String()
}
