package screen

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rbright/candor/internal/clock"
)

type recordingReporter struct {
	mu    sync.Mutex
	edges []string
}

func (r *recordingReporter) ExitFullScreen(context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.edges = append(r.edges, "exit")
}

func (r *recordingReporter) RestoreFullScreen(context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.edges = append(r.edges, "restore")
}

func (r *recordingReporter) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.edges...)
}

type scriptedProbe struct {
	mu      sync.Mutex
	results []bool
	err     error
}

func (p *scriptedProbe) probe(context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return false, p.err
	}
	if len(p.results) == 0 {
		return true, nil
	}
	next := p.results[0]
	p.results = p.results[1:]
	return next, nil
}

func TestWatcherReportsOnlyEdges(t *testing.T) {
	sched := clock.NewManual(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	probe := &scriptedProbe{results: []bool{true, false, false, true, true, false}}
	reporter := &recordingReporter{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := New(sched, 500*time.Millisecond, probe.probe, reporter, nil)
	w.Start(ctx)
	sched.Advance(3 * time.Second)

	require.Equal(t, []string{"exit", "restore", "exit"}, reporter.snapshot())
}

func TestWatcherIgnoresProbeErrors(t *testing.T) {
	sched := clock.NewManual(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	probe := &scriptedProbe{err: errors.New("hyprctl missing")}
	reporter := &recordingReporter{}

	w := New(sched, time.Second, probe.probe, reporter, nil)
	w.Start(context.Background())
	sched.Advance(5 * time.Second)

	require.Empty(t, reporter.snapshot())
}

func TestWatcherStopHaltsPolling(t *testing.T) {
	sched := clock.NewManual(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	probe := &scriptedProbe{results: []bool{false}}
	reporter := &recordingReporter{}

	w := New(sched, time.Second, probe.probe, reporter, nil)
	w.Start(context.Background())
	w.Stop()
	w.Stop()
	sched.Advance(5 * time.Second)

	require.Empty(t, reporter.snapshot())
	require.Zero(t, sched.Pending())
}

func TestWatcherStopsWhenContextEnds(t *testing.T) {
	sched := clock.NewManual(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	probe := &scriptedProbe{}
	ctx, cancel := context.WithCancel(context.Background())

	w := New(sched, time.Second, probe.probe, &recordingReporter{}, nil)
	w.Start(ctx)
	require.Equal(t, 1, sched.Pending())

	cancel()
	require.Eventually(t, func() bool { return sched.Pending() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHyprProbeReadsFullscreenFlag(t *testing.T) {
	dir := t.TempDir()
	script := "#!/usr/bin/env bash\necho '{\"address\":\"0x1\",\"fullscreen\":2}'\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hyprctl"), []byte(script), 0o755))
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))

	fullscreen, err := HyprProbe(context.Background())
	require.NoError(t, err)
	require.True(t, fullscreen)
}
