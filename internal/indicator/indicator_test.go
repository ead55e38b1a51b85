package indicator

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/candor/internal/config"
)

func TestNotifierHyprDispatchAndFocusedMonitorTracking(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "hypr-args.log")
	t.Setenv("HYPR_ARGS_FILE", argsFile)
	installStub(t, "hyprctl", `
if [[ "${1:-}" == "-j" && "${2:-}" == "monitors" ]]; then
  echo '[{"name":"DP-1","focused":true}]'
  exit 0
fi
printf '%s\n' "$*" >> "${HYPR_ARGS_FILE}"
`)

	cfg := config.Default().Indicator
	cfg.SoundEnable = false
	cfg.ErrorTimeoutMS = 1600

	notify := New(cfg, nil)
	ctx := context.Background()
	notify.Countdown(ctx, 2)
	notify.RecordingStarted(ctx)
	notify.RecordingStopped(ctx)
	notify.FeedbackReady(ctx, 82)
	notify.Warning(ctx, "Return to full screen")
	notify.Completed(ctx, "")
	notify.Hide(ctx)

	require.Equal(t, "DP-1", notify.FocusedMonitor())

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Equal(t, []string{
		"--quiet dispatch notify 1 1000 rgb(f9e2af) Recording in 2…",
		"--quiet dispatch notify 1 300000 rgb(89b4fa) Recording answer…",
		"--quiet dispatch notify 1 300000 rgb(cba6f7) Analyzing answer…",
		"--quiet dispatch notify 5 5000 rgb(a6e3a1) Feedback ready: 82/100",
		"--quiet dispatch notify 0 1600 rgb(f38ba8) Return to full screen",
		"--quiet dispatch notify 5 8000 rgb(a6e3a1) Interview complete",
		"--quiet dispatch dismissnotify",
	}, lines)
}

func TestNotifierWarningUsesDefaultTimeout(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "hypr-args.log")
	t.Setenv("HYPR_ARGS_FILE", argsFile)
	installStub(t, "hyprctl", `
printf '%s\n' "$*" >> "${HYPR_ARGS_FILE}"
`)

	cfg := config.Default().Indicator
	cfg.SoundEnable = false
	cfg.ErrorTimeoutMS = 0

	notify := New(cfg, nil)
	notify.Warning(context.Background(), "")

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	require.Equal(t, "--quiet dispatch notify 0 1200 rgb(f38ba8) Interview warning\n", string(data))
}

func TestNotifierDisabledSkipsDispatch(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "hypr-args.log")
	t.Setenv("HYPR_ARGS_FILE", argsFile)
	installStub(t, "hyprctl", `
printf '%s\n' "$*" >> "${HYPR_ARGS_FILE}"
`)

	cfg := config.Default().Indicator
	cfg.Enable = false
	cfg.SoundEnable = false

	notify := New(cfg, nil)
	notify.RecordingStarted(context.Background())
	notify.FeedbackReady(context.Background(), 50)
	notify.Warning(context.Background(), "ignored")
	notify.Hide(context.Background())

	_, err := os.Stat(argsFile)
	require.Error(t, err)
	require.True(t, os.IsNotExist(err))
}

func TestNotifierDesktopBackendReplacesNotification(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "busctl-args.log")
	t.Setenv("BUSCTL_ARGS_FILE", argsFile)
	t.Setenv("LC_ALL", "en_US.UTF-8")
	installStub(t, "busctl", `
printf '%s\n' "$*" >> "${BUSCTL_ARGS_FILE}"
echo 'u 42'
`)

	cfg := config.Default().Indicator
	cfg.Backend = "desktop"
	cfg.SoundEnable = false

	notify := New(cfg, nil)
	notify.RecordingStarted(context.Background())
	notify.Warning(context.Background(), "Return to full screen")
	notify.Hide(context.Background())

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[0], "Notify susssasa{sv}i candor 0  Recording answer…  0 0 300000")
	require.Contains(t, lines[1], "Notify susssasa{sv}i candor 42  Return to full screen  0 1 urgency y 2 4000")
	require.Contains(t, lines[2], "CloseNotification u 42")
	require.Empty(t, notify.FocusedMonitor())
}

func TestFocusedMonitorStaysEmptyWhenQueryFails(t *testing.T) {
	installStub(t, "hyprctl", `
exit 1
`)

	cfg := config.Default().Indicator
	cfg.SoundEnable = false

	notify := New(cfg, nil)
	notify.RecordingStarted(context.Background())
	require.Empty(t, notify.FocusedMonitor())
}

func installStub(t *testing.T, name string, body string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, name)
	script := "#!/usr/bin/env bash\nset -euo pipefail\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))
}

func TestDesktopNoteArgs(t *testing.T) {
	calm := desktopNote{AppName: "candor", Summary: "Recording answer…", TimeoutMS: 1500}
	require.Equal(t, []string{"Notify", "susssasa{sv}i", "candor", "0", "", "Recording answer…", "", "0", "0", "1500"}, calm.busctlArgs())

	urgent := desktopNote{AppName: "candor", ReplaceID: 7, Summary: "Interview terminated", TimeoutMS: 4000, Urgent: true}
	require.Equal(t, []string{"Notify", "susssasa{sv}i", "candor", "7", "", "Interview terminated", "", "0", "1", "urgency", "y", "2", "4000"}, urgent.busctlArgs())
}

func TestParseUint32Reply(t *testing.T) {
	id, err := parseUint32Reply("u 42")
	require.NoError(t, err)
	require.Equal(t, uint32(42), id)

	_, err = parseUint32Reply("s hello")
	require.ErrorContains(t, err, "unexpected busctl reply")

	_, err = parseUint32Reply("u nope")
	require.ErrorContains(t, err, "parse notification id")
}
