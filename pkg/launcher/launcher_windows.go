//go:build windows

package launcher

import (
	"context"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Launch creates the process suspended, runs beforeResume with the primary
// thread id, then lets it run.
func (l *osLauncher) Launch(ctx context.Context, req Request, beforeResume func(Process) error) (Process, error) {
	if err := req.validate(); err != nil {
		return Process{}, err
	}
	if err := ctx.Err(); err != nil {
		return Process{}, err
	}

	cmdline := windows.ComposeCommandLine(append([]string{req.Executable}, req.Args...))
	cmdPtr, err := windows.UTF16PtrFromString(cmdline)
	if err != nil {
		return Process{}, fmt.Errorf("launch %s: %w", req.Executable, err)
	}
	var dirPtr *uint16
	if req.Dir != "" {
		if dirPtr, err = windows.UTF16PtrFromString(req.Dir); err != nil {
			return Process{}, fmt.Errorf("launch %s: %w", req.Executable, err)
		}
	}

	si := &windows.StartupInfo{}
	si.Cb = uint32(unsafe.Sizeof(*si))
	var pi windows.ProcessInformation
	if err := windows.CreateProcess(nil, cmdPtr, nil, nil, false,
		windows.CREATE_SUSPENDED, nil, dirPtr, si, &pi); err != nil {
		return Process{}, fmt.Errorf("launch %s: CreateProcess: %w", req.Executable, err)
	}
	defer windows.CloseHandle(pi.Process)
	defer windows.CloseHandle(pi.Thread)

	p := Process{PID: pi.ProcessId, ThreadID: pi.ThreadId}
	if beforeResume != nil {
		if err := beforeResume(p); err != nil {
			_ = windows.TerminateProcess(pi.Process, 1)
			return Process{}, err
		}
	}
	if _, err := windows.ResumeThread(pi.Thread); err != nil {
		_ = windows.TerminateProcess(pi.Process, 1)
		return Process{}, fmt.Errorf("launch %s: ResumeThread: %w", req.Executable, err)
	}
	return p, nil
}
