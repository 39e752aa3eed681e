// Package api defines the public contracts of viewembed.
package api

import (
	"context"
	"time"

	"github.com/srediag/viewembed/pkg/controller"
	"github.com/srediag/viewembed/pkg/embed"
)

// Embedder is the host-facing surface exported by the viewembed library.
type Embedder interface {
	// OpenPPT returns a slot id or a negative stage code.
	OpenPPT(exe, doc string, parent embed.Handle, x, y, width, height int32) int32
	ClosePPT(slot int32)
	SetDebug(on bool)
	Shutdown() error
}

// SessionOpener is the typed form of OpenPPT.
type SessionOpener interface {
	Open(ctx context.Context, req controller.Request) (*controller.Session, error)
}

// EventSource delivers capture notifications to the host.
type EventSource interface {
	PollEvents(max int64, timeout time.Duration) ([]controller.Event, error)
}

// TableInspector exposes a snapshot of the shared table.
type TableInspector interface {
	Table(ctx context.Context) (embed.SharedTable, error)
}

var (
	_ Embedder       = (*controller.Controller)(nil)
	_ SessionOpener  = (*controller.Controller)(nil)
	_ EventSource    = (*controller.Controller)(nil)
	_ TableInspector = (*controller.Controller)(nil)
)
