package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	"github.com/rbright/candor/internal/clock"
	"github.com/rbright/candor/internal/config"
	"github.com/rbright/candor/internal/events"
	"github.com/rbright/candor/internal/identity"
	"github.com/rbright/candor/internal/ipc"
	"github.com/rbright/candor/internal/posting"
	"github.com/rbright/candor/internal/screen"
	"github.com/rbright/candor/internal/session"
)

// keyController is the controller surface the key loop drives.
type keyController interface {
	StartAnswering(ctx context.Context) error
	StopAnswering(ctx context.Context) error
	NextQuestion(ctx context.Context) error
	ResetInterview(ctx context.Context) error
}

func (r Runner) commandRun(ctx context.Context, cfg config.Config, jobPath string, logger *slog.Logger) int {
	job, err := posting.Load(jobPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	principal, err := identity.FromEnv()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, socketPath, code := r.acquireSocket(ctx)
	if listener == nil {
		return code
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	out := newConsole(r.Stdout)
	rt, err := buildRuntime(ctx, cfg, logger, runtimeOptions{
		extra: out,
		archived: func(location string, err error) {
			if err != nil {
				out.Printf("warning: archive failed: %v\n", err)
				return
			}
			if location != "" {
				out.Printf("Saved to %s\n", location)
			}
		},
	})
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer rt.Close()
	out.snapshot = rt.controller.Snapshot

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()
	serverErrCh := make(chan error, 1)
	go func() {
		server := ipc.Server{Handler: rt.controller, Logger: logger}
		serverErrCh <- server.Serve(serverCtx, listener)
	}()
	startScreenWatcher(serverCtx, cfg.Screen, rt.controller, logger)

	if err := rt.controller.StartInterview(ctx, principal, job); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	code = r.keyLoop(ctx, rt.controller, out.finished)
	serverCancel()
	if serverErr := <-serverErrCh; serverErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serverErr)
		return 1
	}
	return code
}

// keyLoop reads one command per line until the interview ends. Stdin EOF keeps
// the interview alive for IPC-driven sessions.
func (r Runner) keyLoop(ctx context.Context, ctrl keyController, finished <-chan events.Event) int {
	lines := make(chan string)
	go func() {
		defer close(lines)
		if r.Stdin == nil {
			return
		}
		scanner := bufio.NewScanner(r.Stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			_ = ctrl.ResetInterview(context.WithoutCancel(ctx))
			fmt.Fprintln(r.Stdout, "interrupted")
			return 130
		case event := <-finished:
			switch event.Type {
			case events.TypeTerminate:
				return 1
			case events.TypeState:
				fmt.Fprintln(r.Stdout, "interview reset")
			}
			return 0
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			key := strings.ToLower(strings.TrimSpace(line))
			if key == "" {
				continue
			}
			if key == "q" {
				_ = ctrl.ResetInterview(ctx)
				fmt.Fprintln(r.Stdout, "quit")
				return 0
			}
			if err := dispatchKey(ctx, ctrl, key); err != nil {
				fmt.Fprintf(r.Stderr, "error: %v\n", err)
			}
		}
	}
}

var errUnknownKey = errors.New("unknown key; use a answer, s stop, n next, r reset, q quit")

func dispatchKey(ctx context.Context, ctrl keyController, key string) error {
	switch key {
	case "a":
		return ctrl.StartAnswering(ctx)
	case "s":
		return ctrl.StopAnswering(ctx)
	case "n":
		return ctrl.NextQuestion(ctx)
	case "r":
		return ctrl.ResetInterview(ctx)
	default:
		return errUnknownKey
	}
}

// acquireSocket claims the runtime socket. A nil listener means the caller returns code.
func (r Runner) acquireSocket(ctx context.Context) (listener net.Listener, socketPath string, code int) {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return nil, "", 1
	}
	l, err := ipc.Acquire(ctx, socketPath, ipc.AcquireOptions{ProbeTimeout: 180 * time.Millisecond, Retries: 8})
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			fmt.Fprintln(r.Stderr, "error: a candor interview is already running; use status, answer, stop, next, or reset")
			return nil, "", 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return nil, "", 1
	}
	return l, socketPath, 0
}

// startScreenWatcher polls Hyprland for full-screen edges until ctx is done.
func startScreenWatcher(ctx context.Context, cfg config.ScreenConfig, ctrl *session.Controller, logger *slog.Logger) {
	if !cfg.Enable {
		return
	}
	interval := time.Duration(cfg.PollMS) * time.Millisecond
	screen.New(clock.Real{}, interval, screen.HyprProbe, ctrl, logger).Start(ctx)
}
