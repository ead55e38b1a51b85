package indicator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jfreymuth/pulse"

	"github.com/rbright/candor/internal/config"
)

type cueKind int

const (
	cueStart cueKind = iota + 1
	cueStop
	cueComplete
	cueWarning
	cueTick
)

const (
	cueSampleRate = 16000
	cueGap        = 22 * time.Millisecond
	cueRamp       = 5 * time.Millisecond
	cueFileLimit  = 4 * time.Second
)

type tone struct {
	hz   float64
	dur  time.Duration
	gain float64
}

// cueDef pairs a cue's user-configurable sound file with its built-in tones.
type cueDef struct {
	file  func(config.IndicatorConfig) string
	tones []tone
}

var cueDefs = map[cueKind]cueDef{
	cueStart: {
		file:  func(c config.IndicatorConfig) string { return c.SoundStartFile },
		tones: []tone{{880, 70 * time.Millisecond, 0.18}, {1175, 70 * time.Millisecond, 0.18}},
	},
	cueStop: {
		file:  func(c config.IndicatorConfig) string { return c.SoundStopFile },
		tones: []tone{{620, 120 * time.Millisecond, 0.18}},
	},
	cueComplete: {
		file:  func(c config.IndicatorConfig) string { return c.SoundCompleteFile },
		tones: []tone{{740, 65 * time.Millisecond, 0.18}, {988, 90 * time.Millisecond, 0.18}, {1319, 120 * time.Millisecond, 0.18}},
	},
	cueWarning: {
		file:  func(c config.IndicatorConfig) string { return c.SoundWarningFile },
		tones: []tone{{480, 90 * time.Millisecond, 0.2}, {480, 90 * time.Millisecond, 0.2}, {360, 140 * time.Millisecond, 0.2}},
	},
	cueTick: {
		tones: []tone{{1046, 35 * time.Millisecond, 0.12}},
	},
}

var synthesized = sync.OnceValue(func() map[cueKind][]int16 {
	out := make(map[cueKind][]int16, len(cueDefs))
	for kind, def := range cueDefs {
		out[kind] = synthesizeCue(def.tones)
	}
	return out
})

// emitCue prefers the configured sound file and falls back to the built-in tones.
func emitCue(ctx context.Context, kind cueKind, cfg config.IndicatorConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if path := cuePath(kind, cfg); path != "" {
		if err := playCueFile(ctx, cfg.PlayCmd.Argv, path); err == nil {
			return nil
		}
	}
	samples := cueSamples(kind)
	if len(samples) == 0 {
		return nil
	}
	return playPCM(samples)
}

func cuePath(kind cueKind, cfg config.IndicatorConfig) string {
	def, ok := cueDefs[kind]
	if !ok || def.file == nil {
		return ""
	}
	return expandHome(def.file(cfg))
}

func cueSamples(kind cueKind) []int16 {
	return synthesized()[kind]
}

func expandHome(path string) string {
	path = strings.TrimSpace(path)
	rest, found := strings.CutPrefix(path, "~")
	if !found || (rest != "" && rest[0] != '/') {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}

func playCueFile(ctx context.Context, argv []string, path string) error {
	if len(argv) == 0 {
		return errors.New("cue play command is empty")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("stat cue file %q: %w", path, err)
	}

	ctx, cancel := context.WithTimeout(ctx, cueFileLimit)
	defer cancel()

	args := make([]string, 0, len(argv))
	args = append(args, argv[1:]...)
	args = append(args, path)
	if err := exec.CommandContext(ctx, argv[0], args...).Run(); err != nil {
		return fmt.Errorf("play cue file %q: %w", path, err)
	}
	return nil
}

// playPCM streams mono 16-bit samples to the default PulseAudio sink and waits for drain.
func playPCM(samples []int16) error {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("candor"),
		pulse.ClientApplicationIconName("camera-web"),
	)
	if err != nil {
		return fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	remaining := samples
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		n := copy(buf, remaining)
		remaining = remaining[n:]
		if len(remaining) == 0 {
			return n, pulse.EndOfData
		}
		return n, nil
	})

	stream, err := client.NewPlayback(
		reader,
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(cueSampleRate),
		pulse.PlaybackLatency(0.02),
		pulse.PlaybackMediaName("candor interview cue"),
	)
	if err != nil {
		return fmt.Errorf("create pulse playback stream: %w", err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()
	if err := stream.Error(); err != nil {
		return fmt.Errorf("play cue stream: %w", err)
	}
	return nil
}

// synthesizeCue renders tones back to back with a short silence between them.
func synthesizeCue(tones []tone) []int16 {
	var pcm []int16
	gap := make([]int16, sampleCount(cueGap))
	for i, t := range tones {
		if i > 0 {
			pcm = append(pcm, gap...)
		}
		pcm = append(pcm, synthesizeTone(t)...)
	}
	return pcm
}

// synthesizeTone renders a sine with linear attack and release ramps so
// playback starts and stops without clicks.
func synthesizeTone(t tone) []int16 {
	n := sampleCount(t.dur)
	if n <= 0 || t.hz <= 0 || t.gain <= 0 {
		return nil
	}
	ramp := min(max(n/10, 1), sampleCount(cueRamp))

	pcm := make([]int16, n)
	step := 2 * math.Pi * t.hz / cueSampleRate
	for i := range pcm {
		env := min(1, float64(i)/float64(ramp), float64(n-1-i)/float64(ramp))
		pcm[i] = int16(math.Round(math.Sin(step*float64(i)) * t.gain * env * math.MaxInt16))
	}
	return pcm
}

func sampleCount(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * cueSampleRate))
}
