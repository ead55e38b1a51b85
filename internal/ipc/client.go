package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"syscall"
	"time"
)

// DefaultTimeout bounds one client roundtrip.
const DefaultTimeout = 250 * time.Millisecond

// Client sends commands to the process that owns the interview socket.
type Client struct {
	Path    string
	Timeout time.Duration
}

// Send performs one request/response roundtrip.
func (c Client) Send(ctx context.Context, req Request) (Response, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "unix", c.Path)
	if err != nil {
		return Response{}, err
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return Response{}, fmt.Errorf("set deadline: %w", err)
	}
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return Response{}, fmt.Errorf("encode request: %w", err)
	}

	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return Response{}, fmt.Errorf("decode response: %w", err)
		}
		return Response{}, fmt.Errorf("read response: %w", err)
	}
	return resp, nil
}

// Forward relays command to a running interview. handled is false when no
// process is listening; a rejected command is returned as an error with the
// response still populated.
func (c Client) Forward(ctx context.Context, command string) (resp Response, handled bool, err error) {
	resp, err = c.Send(ctx, Request{Command: command})
	if err != nil {
		if NotListening(err) {
			return Response{}, false, nil
		}
		return Response{}, true, fmt.Errorf("forward command %q: %w", command, err)
	}
	if !resp.OK {
		return resp, true, errors.New(resp.Error)
	}
	return resp, true, nil
}

// Alive reports whether a responsive owner is listening.
func (c Client) Alive(ctx context.Context) (bool, error) {
	_, err := c.Send(ctx, Request{Command: CommandStatus})
	if err == nil {
		return true, nil
	}
	if NotListening(err) {
		return false, nil
	}
	return false, fmt.Errorf("probe socket: %w", err)
}

// NotListening reports dial failures meaning no interview owns the socket.
func NotListening(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		strings.Contains(err.Error(), "no such file or directory")
}
