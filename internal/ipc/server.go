package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"
)

const maxRequestBytes = 4 << 10

// Handler processes one IPC command request.
type Handler interface {
	Handle(context.Context, Request) Response
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, Request) Response

func (f HandlerFunc) Handle(ctx context.Context, req Request) Response {
	return f(ctx, req)
}

// Server answers one request per connection.
type Server struct {
	Handler Handler
	Logger  *slog.Logger
	// ReadTimeout bounds how long a client may take to send its request.
	ReadTimeout time.Duration
}

// Serve runs a default Server until ctx is done.
func Serve(ctx context.Context, listener net.Listener, handler Handler) error {
	s := Server{Handler: handler}
	return s.Serve(ctx, listener)
}

// Serve accepts clients until context cancellation or listener close.
func (s Server) Serve(ctx context.Context, listener net.Listener) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	stop := context.AfterFunc(ctx, func() { _ = listener.Close() })
	defer stop()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept IPC connection: %w", err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.serveConn(ctx, conn)
		}()
	}
}

func (s Server) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	timeout := s.ReadTimeout
	if timeout <= 0 {
		timeout = time.Second
	}
	_ = conn.SetReadDeadline(time.Now().Add(timeout))

	var req Request
	if err := json.NewDecoder(io.LimitReader(conn, maxRequestBytes)).Decode(&req); err != nil {
		s.reply(conn, Response{OK: false, Error: fmt.Sprintf("decode request: %v", err)})
		return
	}
	if s.Logger != nil {
		s.Logger.Debug("ipc command", "command", req.Command)
	}
	s.reply(conn, s.Handler.Handle(ctx, req))
}

func (s Server) reply(conn net.Conn, resp Response) {
	if err := json.NewEncoder(conn).Encode(resp); err != nil && s.Logger != nil {
		s.Logger.Debug("ipc reply failed", "error", err.Error())
	}
}
