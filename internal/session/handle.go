package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/rbright/candor/internal/ipc"
)

// Handle serves one IPC command against the running interview.
func (c *Controller) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	command := strings.TrimSpace(req.Command)
	var err error
	switch command {
	case ipc.CommandStatus:
		return c.status("")
	case ipc.CommandAnswer:
		err = c.StartAnswering(ctx)
	case ipc.CommandStop:
		// Transcription and feedback can take seconds; reply once analysis has begun.
		go func() {
			if stopErr := c.StopAnswering(c.lifetime); stopErr != nil {
				c.logWarn("stop command failed", stopErr)
			}
		}()
		return c.status("stop requested")
	case ipc.CommandNext:
		err = c.NextQuestion(ctx)
	case ipc.CommandReset:
		err = c.ResetInterview(ctx)
	case ipc.CommandFullScreenExit:
		c.ExitFullScreen(ctx)
	case ipc.CommandFullScreenRestore:
		c.RestoreFullScreen(ctx)
	default:
		return ipc.Response{OK: false, State: string(c.State()), Error: fmt.Sprintf("unknown command: %s", command)}
	}
	if err != nil {
		resp := c.status("")
		resp.OK = false
		resp.Error = err.Error()
		return resp
	}
	return c.status(command + " accepted")
}

func (c *Controller) status(message string) ipc.Response {
	c.mu.RLock()
	defer c.mu.RUnlock()

	resp := ipc.Response{
		OK:      true,
		State:   string(c.state),
		Message: message,
		Total:   len(c.questions),
		Score:   c.averageScore,
	}
	if q, ok := c.currentQuestionLocked(); ok {
		resp.Question = q.Text
		resp.Index = c.index + 1
	}
	if resp.Message == "" {
		resp.Message = c.errMsg
	}
	return resp
}
