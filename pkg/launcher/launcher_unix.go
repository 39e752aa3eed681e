//go:build !windows

package launcher

import (
	"context"
	"fmt"
	"os/exec"
)

// Launch starts the process and then runs beforeResume. Unix has no suspended
// start, so the primary thread id is the pid and the process may already be
// running when beforeResume is called.
func (l *osLauncher) Launch(ctx context.Context, req Request, beforeResume func(Process) error) (Process, error) {
	if err := req.validate(); err != nil {
		return Process{}, err
	}
	if err := ctx.Err(); err != nil {
		return Process{}, err
	}

	cmd := exec.Command(req.Executable, req.Args...)
	cmd.Dir = req.Dir
	if err := cmd.Start(); err != nil {
		return Process{}, fmt.Errorf("launch %s: %w", req.Executable, err)
	}
	p := Process{PID: uint32(cmd.Process.Pid), ThreadID: uint32(cmd.Process.Pid)}

	if beforeResume != nil {
		if err := beforeResume(p); err != nil {
			_ = cmd.Process.Kill()
			_ = cmd.Wait()
			return Process{}, err
		}
	}
	go func() { _ = cmd.Wait() }()
	return p, nil
}
