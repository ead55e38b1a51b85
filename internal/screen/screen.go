// Package screen watches the focused Hyprland window and reports full-screen edges.
package screen

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rbright/candor/internal/clock"
	"github.com/rbright/candor/internal/hypr"
)

// Reporter receives full-screen edges.
type Reporter interface {
	ExitFullScreen(ctx context.Context)
	RestoreFullScreen(ctx context.Context)
}

// Probe reports whether the interview surface is currently full-screen.
type Probe func(ctx context.Context) (bool, error)

// HyprProbe reads the focused window's fullscreen flag through hyprctl.
func HyprProbe(ctx context.Context) (bool, error) {
	window, err := hypr.QueryActiveWindow(ctx)
	if err != nil {
		return false, err
	}
	return window.Fullscreen, nil
}

// Watcher polls a Probe on the scheduler and forwards edges to a Reporter.
// The surface is assumed full-screen until the first probe says otherwise.
type Watcher struct {
	sched    clock.Scheduler
	interval time.Duration
	probe    Probe
	target   Reporter
	logger   *slog.Logger

	mu         sync.Mutex
	ctx        context.Context
	timer      clock.Timer
	fullscreen bool
	polling    bool
}

// New creates a watcher. Start begins polling.
func New(sched clock.Scheduler, interval time.Duration, probe Probe, target Reporter, logger *slog.Logger) *Watcher {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Watcher{
		sched:      sched,
		interval:   interval,
		probe:      probe,
		target:     target,
		logger:     logger,
		fullscreen: true,
	}
}

// Start begins polling until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		return
	}
	w.ctx = ctx
	w.timer = w.sched.Every(w.interval, w.poll)
	if done := ctx.Done(); done != nil {
		go func() {
			<-done
			w.Stop()
		}()
	}
}

// Stop halts polling. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

func (w *Watcher) poll() {
	w.mu.Lock()
	if w.timer == nil || w.polling {
		w.mu.Unlock()
		return
	}
	w.polling = true
	ctx := w.ctx
	w.mu.Unlock()

	probeCtx, cancel := context.WithTimeout(ctx, w.interval)
	fullscreen, err := w.probe(probeCtx)
	cancel()

	w.mu.Lock()
	w.polling = false
	if err != nil {
		w.mu.Unlock()
		if w.logger != nil {
			w.logger.Debug("full screen probe failed", "error", err.Error())
		}
		return
	}
	changed := fullscreen != w.fullscreen
	w.fullscreen = fullscreen
	w.mu.Unlock()

	if !changed {
		return
	}
	if fullscreen {
		w.target.RestoreFullScreen(ctx)
		return
	}
	w.target.ExitFullScreen(ctx)
}
