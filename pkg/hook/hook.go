// Package hook installs the window-creation hook into the viewer's desktop and
// drives the rewrite each time the hook procedure runs.
package hook

import (
	"errors"

	"github.com/srediag/viewembed/pkg/embed"
)

var (
	// ErrUnsupported is returned where the platform has no CBT hooks.
	ErrUnsupported = errors.New("hook: unsupported platform")
	// ErrAlreadyRemoved marks a soft failure removing a hook the OS already retired.
	ErrAlreadyRemoved = errors.New("hook: already removed")
)

// Installer installs and removes the CBT hook.
type Installer interface {
	// Install hooks threadID, or every thread on the desktop when it is 0.
	Install(threadID uint32) (embed.Handle, error)
	Remove(h embed.Handle) error
}

// Forwarder passes the notification to the next hook in the chain.
type Forwarder func(current embed.Handle) uintptr
