package indicator

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

const (
	notifyDest  = "org.freedesktop.Notifications"
	notifyPath  = "/org/freedesktop/Notifications"
	notifyIface = "org.freedesktop.Notifications"
)

// desktopNote is one org.freedesktop.Notifications.Notify call.
type desktopNote struct {
	AppName   string
	ReplaceID uint32
	Summary   string
	TimeoutMS int
	Urgent    bool
}

// busctlArgs encodes the Notify signature susssasa{sv}i as busctl arguments.
func (n desktopNote) busctlArgs() []string {
	args := []string{
		"Notify", "susssasa{sv}i",
		n.AppName,
		strconv.FormatUint(uint64(n.ReplaceID), 10),
		"", // icon
		n.Summary,
		"", // body
		"0", // actions
	}
	if n.Urgent {
		args = append(args, "1", "urgency", "y", "2")
	} else {
		args = append(args, "0")
	}
	return append(args, strconv.Itoa(n.TimeoutMS))
}

// desktopNotify shows or replaces a notification and returns its server-assigned ID.
func desktopNotify(ctx context.Context, appName string, replaceID uint32, summary string, timeoutMS int, urgent bool) (uint32, error) {
	note := desktopNote{AppName: appName, ReplaceID: replaceID, Summary: summary, TimeoutMS: timeoutMS, Urgent: urgent}
	reply, err := busctlCall(ctx, note.busctlArgs()...)
	if err != nil {
		return 0, fmt.Errorf("desktop notify: %w", err)
	}
	return parseUint32Reply(reply)
}

func desktopDismiss(ctx context.Context, id uint32) error {
	if _, err := busctlCall(ctx, "CloseNotification", "u", strconv.FormatUint(uint64(id), 10)); err != nil {
		return fmt.Errorf("desktop dismiss: %w", err)
	}
	return nil
}

func busctlCall(ctx context.Context, methodAndArgs ...string) (string, error) {
	args := append([]string{"--user", "call", notifyDest, notifyPath, notifyIface}, methodAndArgs...)
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, "busctl", args...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		if detail := strings.TrimSpace(out.String()); detail != "" {
			return "", fmt.Errorf("%w (%s)", err, detail)
		}
		return "", err
	}
	return strings.TrimSpace(out.String()), nil
}

// parseUint32Reply decodes busctl's "u <value>" reply format.
func parseUint32Reply(reply string) (uint32, error) {
	sig, value, ok := strings.Cut(reply, " ")
	if !ok || sig != "u" {
		return 0, fmt.Errorf("unexpected busctl reply %q", reply)
	}
	id, err := strconv.ParseUint(strings.TrimSpace(value), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse notification id %q: %w", value, err)
	}
	return uint32(id), nil
}
