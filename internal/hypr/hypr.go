// Package hypr wraps the hyprctl queries and dispatches candor relies on.
package hypr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandError is a failed hyprctl invocation with whatever it printed.
type CommandError struct {
	Args   []string
	Output string
	Err    error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("hyprctl %s: %v", strings.Join(e.Args, " "), e.Err)
	if e.Output != "" {
		msg += " (" + e.Output + ")"
	}
	return msg
}

func (e *CommandError) Unwrap() error { return e.Err }

func runHyprctl(ctx context.Context, args ...string) error {
	_, err := runHyprctlOutput(ctx, args...)
	return err
}

func runHyprctlOutput(ctx context.Context, args ...string) ([]byte, error) {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, "hyprctl", args...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return nil, &CommandError{Args: args, Output: strings.TrimSpace(out.String()), Err: err}
	}
	return out.Bytes(), nil
}
