package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/rbright/candor/internal/config"
	"github.com/rbright/candor/internal/httpapi"
	"github.com/rbright/candor/internal/identity"
	"github.com/rbright/candor/internal/ipc"
)

// commandServe runs the HTTP API and the IPC socket against one controller until ctx is done.
func (r Runner) commandServe(ctx context.Context, cfg config.Config, listen string, logger *slog.Logger) int {
	auth, err := identity.NewEnv()
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

	rt, err := buildRuntime(ctx, cfg, logger, runtimeOptions{})
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer rt.Close()

	httpCfg := httpapi.Config{Listen: cfg.HTTP.Listen, AllowedOrigins: cfg.HTTP.AllowedOrigins}
	if strings.TrimSpace(listen) != "" {
		httpCfg.Listen = listen
	}
	server := httpapi.New(httpCfg, rt.controller, rt.bus, auth, logger)

	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	ipcErrCh := make(chan error, 1)
	go func() {
		ipcServer := ipc.Server{Handler: rt.controller, Logger: logger}
		ipcErrCh <- ipcServer.Serve(serveCtx, listener)
	}()
	startScreenWatcher(serveCtx, cfg.Screen, rt.controller, logger)

	fmt.Fprintf(r.Stdout, "candor api listening on http://%s\n", httpCfg.Listen)
	httpErr := server.Serve(serveCtx)
	cancel()
	ipcErr := <-ipcErrCh

	if httpErr != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", httpErr)
		return 1
	}
	if ipcErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", ipcErr)
		return 1
	}
	return 0
}
