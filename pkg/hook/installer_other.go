//go:build !windows

package hook

import "github.com/srediag/viewembed/pkg/embed"

type unsupportedInstaller struct{}

// NewInstaller returns an installer that always fails with ErrUnsupported.
func NewInstaller() Installer {
	return unsupportedInstaller{}
}

func (unsupportedInstaller) Install(uint32) (embed.Handle, error) {
	return 0, ErrUnsupported
}

func (unsupportedInstaller) Remove(embed.Handle) error {
	return ErrUnsupported
}
