// Package version reports build metadata injected at link time.
package version

import (
	"fmt"
	"runtime"
)

// Set with -ldflags "-X github.com/rbright/candor/internal/version.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info is the build metadata served by the health endpoint.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Go      string `json:"go"`
}

// Current snapshots the linked build metadata.
func Current() Info {
	return Info{Version: Version, Commit: Commit, Date: Date, Go: runtime.Version()}
}

func (i Info) String() string {
	return fmt.Sprintf("candor %s (commit=%s, date=%s, go=%s)", i.Version, i.Commit, i.Date, i.Go)
}

// String renders the one-line banner printed by `candor version`.
func String() string {
	return Current().String()
}
