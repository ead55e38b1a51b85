// Package ipc carries interview commands between candor processes over a unix socket.
package ipc

// Commands understood by a running interview.
const (
	CommandStatus            = "status"
	CommandAnswer            = "answer"
	CommandStop              = "stop"
	CommandNext              = "next"
	CommandReset             = "reset"
	CommandFullScreenExit    = "fullscreen-exit"
	CommandFullScreenRestore = "fullscreen-restore"
)

// Request is one line-delimited JSON command sent to the owning process.
type Request struct {
	Command string `json:"command"`
}

// Response reports the command outcome plus enough interview state for a
// status bar or shell prompt to render.
type Response struct {
	OK       bool   `json:"ok"`
	State    string `json:"state,omitempty"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
	Question string `json:"question,omitempty"`
	Index    int    `json:"index,omitempty"`
	Total    int    `json:"total,omitempty"`
	Score    int    `json:"score,omitempty"`
}
