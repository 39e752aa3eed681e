//go:build windows

package controller

import (
	"github.com/srediag/viewembed/internal/win32"
	"github.com/srediag/viewembed/pkg/embed"
)

func clientSize(parent embed.Handle) (int32, int32, error) {
	return win32.ClientSize(uintptr(parent))
}
