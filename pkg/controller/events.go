package controller

import (
	"errors"
	"fmt"
	"time"

	"github.com/Workiva/go-datastructures/queue"

	"github.com/srediag/viewembed/pkg/embed"
)

// EventKind identifies a host notification.
type EventKind uint32

const (
	// EventWindowCaptured carries the primary window.
	EventWindowCaptured EventKind = 1
	// EventPaneCaptured carries the secondary window.
	EventPaneCaptured EventKind = 2
)

func (k EventKind) String() string {
	switch k {
	case EventWindowCaptured:
		return "window"
	case EventPaneCaptured:
		return "pane"
	default:
		return fmt.Sprintf("event(%d)", uint32(k))
	}
}

// Event tells the host that a viewer window was captured.
type Event struct {
	Kind    EventKind
	Session string
	Slot    int
	Window  embed.Handle
	At      time.Time
}

// ErrNoEvents is returned by PollEvents when nothing arrived before the timeout.
var ErrNoEvents = errors.New("controller: no events")

type eventQueue struct {
	q    *queue.Queue
	size int64
}

func newEventQueue(size int) *eventQueue {
	return &eventQueue{q: queue.New(int64(size)), size: int64(size)}
}

// put reports false when the queue is full or disposed.
func (e *eventQueue) put(ev Event) bool {
	if e.q.Len() >= e.size {
		return false
	}
	return e.q.Put(ev) == nil
}

func (e *eventQueue) poll(max int64, timeout time.Duration) ([]Event, error) {
	items, err := e.q.Poll(max, timeout)
	switch {
	case errors.Is(err, queue.ErrTimeout):
		return nil, ErrNoEvents
	case errors.Is(err, queue.ErrDisposed):
		return nil, ErrShutdown
	case err != nil:
		return nil, err
	}
	out := make([]Event, 0, len(items))
	for _, it := range items {
		if ev, ok := it.(Event); ok {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (e *eventQueue) dispose() {
	e.q.Dispose()
}
