// Package launcher starts the viewer process so its UI thread id is known
// before the viewer can create any window.
package launcher

import (
	"context"
	"errors"
)

// ErrNoExecutable is returned when Request.Executable is empty.
var ErrNoExecutable = errors.New("launcher: no executable")

// Request describes the process to start.
type Request struct {
	Executable string
	Args       []string
	Dir        string
}

// Process identifies a started process.
type Process struct {
	PID uint32
	// ThreadID is the primary thread, which runs the viewer's windows.
	ThreadID uint32
}

// Launcher starts processes.
type Launcher interface {
	// Launch starts req and calls beforeResume before the process runs any
	// code of its own, where the platform allows. If beforeResume fails the
	// process is terminated and the error returned.
	Launch(ctx context.Context, req Request, beforeResume func(Process) error) (Process, error)
}

// New returns the launcher for this platform.
func New() Launcher {
	return &osLauncher{}
}

type osLauncher struct{}

func (r Request) validate() error {
	if r.Executable == "" {
		return ErrNoExecutable
	}
	return nil
}
