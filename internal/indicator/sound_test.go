package indicator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rbright/candor/internal/config"
)

func TestCueSamplesPresent(t *testing.T) {
	for _, kind := range []cueKind{cueStart, cueStop, cueComplete, cueWarning, cueTick} {
		require.NotEmpty(t, cueSamples(kind), "cue %d", kind)
	}
	require.Nil(t, cueSamples(cueKind(99)))
}

func TestCuePathUsesConfiguredFiles(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := config.IndicatorConfig{
		SoundStartFile:   "/usr/share/sounds/start.wav",
		SoundWarningFile: "~/sounds/warn.wav",
	}
	require.Equal(t, "/usr/share/sounds/start.wav", cuePath(cueStart, cfg))
	require.Equal(t, filepath.Join(home, "sounds", "warn.wav"), cuePath(cueWarning, cfg))
	require.Empty(t, cuePath(cueStop, cfg))
	require.Empty(t, cuePath(cueTick, cfg))
}

func TestPlayCueFileRunsConfiguredCommand(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "play-args.log")
	t.Setenv("PLAY_ARGS_FILE", argsFile)
	installStub(t, "fake-play", `
printf '%s\n' "$*" >> "${PLAY_ARGS_FILE}"
`)
	cue := filepath.Join(t.TempDir(), "start.wav")
	require.NoError(t, os.WriteFile(cue, []byte("RIFF"), 0o600))

	err := playCueFile(context.Background(), []string{"fake-play", "--volume", "0.5"}, cue)
	require.NoError(t, err)

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	require.Equal(t, "--volume 0.5 "+cue+"\n", string(data))
}

func TestPlayCueFileRejectsMissingInputs(t *testing.T) {
	err := playCueFile(context.Background(), nil, "/tmp/cue.wav")
	require.Error(t, err)
	require.Contains(t, err.Error(), "play command is empty")

	err = playCueFile(context.Background(), []string{"pw-play"}, filepath.Join(t.TempDir(), "missing.wav"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "stat cue file")
}

func TestSynthesizeTone(t *testing.T) {
	got := synthesizeTone(tone{hz: 440, dur: 100 * time.Millisecond, gain: 0.2})
	require.Len(t, got, sampleCount(100*time.Millisecond))
	require.Zero(t, got[0])
	require.Zero(t, got[len(got)-1])

	peak := 0
	for _, s := range got {
		peak = max(peak, int(s))
	}
	require.InDelta(t, 0.2*32767, peak, 200)
}

func TestSynthesizeToneRejectsSilentTones(t *testing.T) {
	require.Empty(t, synthesizeTone(tone{hz: 0, dur: 100 * time.Millisecond, gain: 0.2}))
	require.Empty(t, synthesizeTone(tone{hz: 440, dur: 0, gain: 0.2}))
	require.Empty(t, synthesizeTone(tone{hz: 440, dur: 100 * time.Millisecond, gain: 0}))
}

func TestSynthesizeCueInsertsGaps(t *testing.T) {
	a := tone{hz: 880, dur: 50 * time.Millisecond, gain: 0.1}
	b := tone{hz: 660, dur: 30 * time.Millisecond, gain: 0.1}
	got := synthesizeCue([]tone{a, b})
	require.Len(t, got, sampleCount(50*time.Millisecond)+sampleCount(cueGap)+sampleCount(30*time.Millisecond))
	require.Empty(t, synthesizeCue(nil))
}

func TestSampleCount(t *testing.T) {
	require.Equal(t, 0, sampleCount(0))
	require.Equal(t, 0, sampleCount(-time.Second))
	require.Equal(t, 400, sampleCount(25*time.Millisecond))
}

func TestEmitCueRespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := emitCue(ctx, cueStart, config.Default().Indicator)
	require.Error(t, err)
	require.True(t, errors.Is(err, context.Canceled))
}
