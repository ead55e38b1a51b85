// Package indicator surfaces interview progress as desktop notifications and audio cues.
package indicator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/candor/internal/config"
	"github.com/rbright/candor/internal/hypr"
)

const recordingTimeoutMS = 300000

// Hyprland notify icon ids.
const (
	iconWarning = 0
	iconInfo    = 1
	iconOK      = 5
)

// Notifier routes interview progress through Hyprland or desktop DBus notifications
// and plays the matching audio cue.
type Notifier struct {
	cfg      config.IndicatorConfig
	logger   *slog.Logger
	messages messages

	mu                    sync.Mutex
	focusedMonitor        string
	desktopNotificationID uint32
	soundMu               sync.Mutex
}

// New creates a notifier from config.
func New(cfg config.IndicatorConfig, logger *slog.Logger) *Notifier {
	return &Notifier{
		cfg:      cfg,
		logger:   logger,
		messages: messagesFromEnv(),
	}
}

// Countdown announces the seconds left before recording begins.
func (n *Notifier) Countdown(ctx context.Context, remaining int) {
	n.playCue(ctx, cueTick)
	if !n.cfg.Enable {
		return
	}
	n.ensureFocusedMonitor(ctx)
	n.run(ctx, func(ctx context.Context) error {
		return n.notify(ctx, iconInfo, 1000, "rgb(f9e2af)", n.messages.countdown(remaining))
	})
}

// RecordingStarted shows the recording indicator and emits the start cue.
func (n *Notifier) RecordingStarted(ctx context.Context) {
	n.playCue(ctx, cueStart)
	if !n.cfg.Enable {
		return
	}
	n.ensureFocusedMonitor(ctx)
	n.run(ctx, func(ctx context.Context) error {
		return n.notify(ctx, iconInfo, recordingTimeoutMS, "rgb(89b4fa)", n.messages.recording)
	})
}

// RecordingStopped switches the indicator to the analysis state.
func (n *Notifier) RecordingStopped(ctx context.Context) {
	n.playCue(ctx, cueStop)
	if !n.cfg.Enable {
		return
	}
	n.run(ctx, func(ctx context.Context) error {
		return n.notify(ctx, iconInfo, recordingTimeoutMS, "rgb(cba6f7)", n.messages.analyzing)
	})
}

// FeedbackReady replaces the analysis indicator with the answer score.
func (n *Notifier) FeedbackReady(ctx context.Context, score int) {
	if !n.cfg.Enable {
		return
	}
	n.run(ctx, func(ctx context.Context) error {
		return n.notify(ctx, iconOK, 5000, "rgb(a6e3a1)", n.messages.feedback(score))
	})
}

// Completed announces the end of the interview and emits the completion cue.
func (n *Notifier) Completed(ctx context.Context, summary string) {
	n.playCue(ctx, cueComplete)
	if !n.cfg.Enable {
		return
	}
	if strings.TrimSpace(summary) == "" {
		summary = n.messages.completed
	}
	n.run(ctx, func(ctx context.Context) error {
		return n.notify(ctx, iconOK, 8000, "rgb(a6e3a1)", summary)
	})
}

// Warning displays a warning-state message and emits the warning cue.
func (n *Notifier) Warning(ctx context.Context, text string) {
	n.playCue(ctx, cueWarning)
	if !n.cfg.Enable {
		return
	}
	if text == "" {
		text = n.messages.warning
	}
	timeout := n.cfg.ErrorTimeoutMS
	if timeout <= 0 {
		timeout = 1200
	}
	n.run(ctx, func(ctx context.Context) error {
		return n.notify(ctx, iconWarning, timeout, "rgb(f38ba8)", text)
	})
}

// Hide dismisses the active indicator surface.
func (n *Notifier) Hide(ctx context.Context) {
	if !n.cfg.Enable {
		return
	}
	n.run(ctx, n.dismiss)
}

// FocusedMonitor returns the monitor captured when the first answer began.
func (n *Notifier) FocusedMonitor() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.focusedMonitor
}

func (n *Notifier) ensureFocusedMonitor(ctx context.Context) {
	if strings.EqualFold(strings.TrimSpace(n.cfg.Backend), "desktop") {
		return
	}
	n.mu.Lock()
	alreadySet := n.focusedMonitor != ""
	n.mu.Unlock()
	if alreadySet {
		return
	}

	monitor, err := hypr.QueryFocusedMonitor(ctx)
	if err != nil {
		n.log("indicator focused monitor query failed", err)
		return
	}

	n.mu.Lock()
	n.focusedMonitor = monitor
	n.mu.Unlock()
}

func (n *Notifier) notify(ctx context.Context, icon int, timeoutMS int, color string, text string) error {
	if strings.EqualFold(strings.TrimSpace(n.cfg.Backend), "desktop") {
		return n.notifyDesktop(ctx, timeoutMS, text, icon == iconWarning)
	}
	return hypr.Notify(ctx, icon, timeoutMS, color, text)
}

func (n *Notifier) dismiss(ctx context.Context) error {
	if strings.EqualFold(strings.TrimSpace(n.cfg.Backend), "desktop") {
		return n.dismissDesktop(ctx)
	}
	return hypr.DismissNotify(ctx)
}

// notifyDesktop sends a replaceable desktop notification and stores its ID.
func (n *Notifier) notifyDesktop(ctx context.Context, timeoutMS int, text string, urgent bool) error {
	n.mu.Lock()
	replaceID := n.desktopNotificationID
	n.mu.Unlock()

	appName := strings.TrimSpace(n.cfg.DesktopAppName)
	if appName == "" {
		appName = "candor"
	}

	id, err := desktopNotify(ctx, appName, replaceID, text, timeoutMS, urgent)
	if err != nil {
		return err
	}

	n.mu.Lock()
	n.desktopNotificationID = id
	n.mu.Unlock()
	return nil
}

func (n *Notifier) dismissDesktop(ctx context.Context) error {
	n.mu.Lock()
	id := n.desktopNotificationID
	n.desktopNotificationID = 0
	n.mu.Unlock()

	if id == 0 {
		return nil
	}
	return desktopDismiss(ctx, id)
}

// run executes an indicator operation with a bounded timeout.
func (n *Notifier) run(ctx context.Context, fn func(context.Context) error) {
	runCtx, cancel := context.WithTimeout(ctx, 400*time.Millisecond)
	defer cancel()
	if err := fn(runCtx); err != nil {
		n.log("indicator dispatch failed", err)
	}
}

// playCue serializes cue playback and emits audio asynchronously.
func (n *Notifier) playCue(ctx context.Context, kind cueKind) {
	if !n.cfg.SoundEnable {
		return
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		n.soundMu.Lock()
		defer n.soundMu.Unlock()
		if err := emitCue(ctx, kind, n.cfg); err != nil {
			n.log("indicator audio cue failed", err)
		}
	}()
}

func (n *Notifier) log(message string, err error) {
	if n.logger == nil || err == nil {
		return
	}
	n.logger.Debug(message, "error", err.Error())
}
