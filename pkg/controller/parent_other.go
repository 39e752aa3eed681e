//go:build !windows

package controller

import (
	"errors"

	"github.com/srediag/viewembed/pkg/embed"
)

func clientSize(embed.Handle) (int32, int32, error) {
	return 0, 0, errors.New("parent window geometry is not available on this platform")
}
