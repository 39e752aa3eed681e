//go:build windows

package hook

import (
	"fmt"

	"golang.org/x/sys/windows"

	"github.com/srediag/viewembed/internal/module"
	"github.com/srediag/viewembed/internal/win32"
	"github.com/srediag/viewembed/pkg/embed"
)

// ProcName is the exported hook procedure looked up in the module.
const ProcName = "CbtProc"

type windowsInstaller struct {
	module func() (uintptr, error)
}

// NewInstaller returns the user32 hook installer for the module hosting CbtProc.
func NewInstaller() Installer {
	return &windowsInstaller{module: module.Handle}
}

func (w *windowsInstaller) Install(threadID uint32) (embed.Handle, error) {
	mod, err := w.module()
	if err != nil {
		return 0, fmt.Errorf("hook install: %w", err)
	}
	proc, err := windows.GetProcAddress(windows.Handle(mod), ProcName)
	if err != nil {
		return 0, fmt.Errorf("hook install: GetProcAddress %s: %w", ProcName, err)
	}
	h, err := win32.SetWindowsHookEx(win32.WH_CBT, proc, mod, threadID)
	if err != nil {
		return 0, fmt.Errorf("hook install: %w", err)
	}
	return embed.Handle(h), nil
}

func (w *windowsInstaller) Remove(h embed.Handle) error {
	if h.IsZero() {
		return nil
	}
	if err := win32.UnhookWindowsHookEx(uintptr(h)); err != nil {
		return fmt.Errorf("%w: %v", ErrAlreadyRemoved, err)
	}
	return nil
}
