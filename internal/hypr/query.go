package hypr

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ActiveWindow is the subset of `hyprctl -j activewindow` the full-screen watcher reads.
type ActiveWindow struct {
	Address    string
	Class      string
	Title      string
	Fullscreen bool
}

type activeWindowPayload struct {
	Address    string          `json:"address"`
	Class      string          `json:"class"`
	Title      string          `json:"title"`
	Fullscreen json.RawMessage `json:"fullscreen"`
}

type monitor struct {
	Name    string `json:"name"`
	Focused bool   `json:"focused"`
}

// QueryActiveWindow fetches the focused window. An empty object means no window has focus.
func QueryActiveWindow(ctx context.Context) (ActiveWindow, error) {
	output, err := runHyprctlJSON(ctx, "activewindow")
	if err != nil {
		return ActiveWindow{}, err
	}

	var payload activeWindowPayload
	if err := json.Unmarshal(output, &payload); err != nil {
		return ActiveWindow{}, fmt.Errorf("decode hyprctl activewindow json: %w", err)
	}
	fullscreen, err := parseFullscreen(payload.Fullscreen)
	if err != nil {
		return ActiveWindow{}, err
	}
	return ActiveWindow{
		Address:    strings.TrimSpace(payload.Address),
		Class:      strings.TrimSpace(payload.Class),
		Title:      strings.TrimSpace(payload.Title),
		Fullscreen: fullscreen,
	}, nil
}

// parseFullscreen accepts both the boolean field of older Hyprland releases
// and the numeric mode (0 none, 1 maximized, 2 fullscreen) of newer ones.
func parseFullscreen(raw json.RawMessage) (bool, error) {
	value := strings.TrimSpace(string(raw))
	switch value {
	case "", "null", "false":
		return false, nil
	case "true":
		return true, nil
	}
	mode, err := strconv.Atoi(value)
	if err != nil {
		return false, fmt.Errorf("decode hyprctl fullscreen value %q", value)
	}
	return mode >= 2, nil
}

// QueryFocusedMonitor returns the focused monitor name (or the first monitor fallback).
func QueryFocusedMonitor(ctx context.Context) (string, error) {
	output, err := runHyprctlJSON(ctx, "monitors")
	if err != nil {
		return "", err
	}

	var monitors []monitor
	if err := json.Unmarshal(output, &monitors); err != nil {
		return "", fmt.Errorf("decode hyprctl monitors json: %w", err)
	}
	for _, mon := range monitors {
		if mon.Focused {
			return strings.TrimSpace(mon.Name), nil
		}
	}
	if len(monitors) == 0 {
		return "", fmt.Errorf("hyprctl monitors returned no outputs")
	}
	return strings.TrimSpace(monitors[0].Name), nil
}

// Notify sends a Hyprland notification payload.
func Notify(ctx context.Context, icon int, timeoutMS int, color string, text string) error {
	if strings.TrimSpace(color) == "" {
		color = "rgb(89b4fa)"
	}
	return runHyprctl(
		ctx,
		"--quiet",
		"dispatch",
		"notify",
		strconv.Itoa(icon),
		strconv.Itoa(timeoutMS),
		color,
		text,
	)
}

// DismissNotify dismisses active Hyprland notifications.
func DismissNotify(ctx context.Context) error {
	return runHyprctl(ctx, "--quiet", "dispatch", "dismissnotify")
}

func runHyprctlJSON(ctx context.Context, target string) ([]byte, error) {
	return runHyprctlOutput(ctx, "-j", target)
}
