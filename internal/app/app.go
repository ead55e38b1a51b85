// Package app dispatches candor commands and wires the interview runtime.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/rbright/candor/internal/capture"
	"github.com/rbright/candor/internal/cli"
	"github.com/rbright/candor/internal/config"
	"github.com/rbright/candor/internal/doctor"
	"github.com/rbright/candor/internal/ipc"
	"github.com/rbright/candor/internal/logging"
	"github.com/rbright/candor/internal/posting"
	"github.com/rbright/candor/internal/version"
)

// Runner executes one CLI invocation against injectable stdio.
type Runner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	r := Runner{Stdin: stdin, Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("candor"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("candor"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	// A missing .env is normal; variables already in the environment win.
	_ = godotenv.Load()

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	cfg := cfgLoaded.Config

	logRuntime, err := logging.New(logging.ParseLevel(cfg.Debug.LogLevel))
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(ctx, cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandAnswer, cli.CommandStop, cli.CommandNext, cli.CommandReset:
		return r.forwardOrFail(ctx, string(parsed.Command))
	case cli.CommandQuestions:
		return r.commandQuestions(ctx, cfg, parsed.JobPath, logger)
	case cli.CommandRun:
		return r.commandRun(ctx, cfg, parsed.JobPath, logger)
	case cli.CommandServe:
		return r.commandServe(ctx, cfg, parsed.Listen, logger)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) commandDevices(ctx context.Context) int {
	sources, err := capture.ListSources(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(sources) == 0 {
		fmt.Fprintln(r.Stdout, "no audio sources found")
		return 1
	}

	for _, source := range sources {
		defaultMark := " "
		if source.Default {
			defaultMark = "*"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			source.ID,
			source.Description,
			source.State,
			yesNo(source.Available),
			yesNo(source.Muted),
		)
	}
	return 0
}

func (r Runner) commandQuestions(ctx context.Context, cfg config.Config, jobPath string, logger *slog.Logger) int {
	job, err := posting.Load(jobPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	gen, _, err := buildGeneration(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	questions, err := gen.GenerateQuestions(ctx, job, cfg.Interview.Questions)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	for i, q := range questions {
		fmt.Fprintf(r.Stdout, "%d. [%s/%s] %s\n", i+1, q.Category, q.Difficulty, q.Text)
	}
	return 0
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}

	resp, handled, err := forward(ctx, socketPath, ipc.CommandStatus)
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		fmt.Fprintln(r.Stdout, formatStatus(resp))
		return 0
	}

	fmt.Fprintln(r.Stdout, "idle")
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, command string) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := forward(ctx, socketPath, command)
	if !handled {
		fmt.Fprintf(r.Stderr, "error: no running candor interview\n")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

// formatStatus renders a one-line status suitable for a bar or prompt.
func formatStatus(resp ipc.Response) string {
	state := resp.State
	if state == "" {
		state = "idle"
	}
	var b strings.Builder
	b.WriteString(state)
	if resp.Total > 0 && resp.Index > 0 {
		fmt.Fprintf(&b, " %d/%d", resp.Index, resp.Total)
	}
	if resp.Score > 0 {
		fmt.Fprintf(&b, " score=%d", resp.Score)
	}
	if resp.Question != "" {
		b.WriteString(" | ")
		b.WriteString(resp.Question)
	}
	return b.String()
}

func forward(ctx context.Context, socketPath string, command string) (ipc.Response, bool, error) {
	client := ipc.Client{Path: socketPath, Timeout: 220 * time.Millisecond}
	return client.Forward(ctx, command)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
