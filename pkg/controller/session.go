package controller

import (
	"sort"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/srediag/viewembed/pkg/embed"
	"github.com/srediag/viewembed/pkg/launcher"
)

// Session is one successful Open.
type Session struct {
	ID      string
	Slot    int
	Process launcher.Process
	Hook    embed.Handle
	Request Request
	Rect    embed.Rect
	Started time.Time
}

// SessionStatus is a session with its viewer's liveness.
type SessionStatus struct {
	Session
	Alive bool
}

type registry struct {
	m cmap.ConcurrentMap[string, *Session]
}

func newRegistry() *registry {
	return &registry{m: cmap.New[*Session]()}
}

func (r *registry) add(s *Session) {
	r.m.Set(s.ID, s)
}

func (r *registry) get(id string) (*Session, bool) {
	return r.m.Get(id)
}

func (r *registry) count() int {
	return r.m.Count()
}

// snapshot returns the sessions ordered by slot, then start time.
func (r *registry) snapshot() []*Session {
	out := make([]*Session, 0, r.m.Count())
	for item := range r.m.IterBuffered() {
		out = append(out, item.Val)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Slot != out[j].Slot {
			return out[i].Slot < out[j].Slot
		}
		return out[i].Started.Before(out[j].Started)
	})
	return out
}

// Session returns the session with the given id.
func (c *Controller) Session(id string) (Session, bool) {
	s, ok := c.sessions.get(id)
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Sessions lists every session opened by this controller with its viewer's liveness.
func (c *Controller) Sessions() []SessionStatus {
	snap := c.sessions.snapshot()
	out := make([]SessionStatus, 0, len(snap))
	for _, s := range snap {
		out = append(out, SessionStatus{Session: *s, Alive: c.alive(s.Process.PID)})
	}
	return out
}

func processAlive(pid uint32) bool {
	ok, err := process.PidExists(int32(pid))
	return err == nil && ok
}
