package controller

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/srediag/viewembed/internal/logging"
	"github.com/srediag/viewembed/pkg/embed"
)

var (
	errPending      = errors.New("capture pending")
	errViewerExited = errors.New("viewer exited before capture completed")
)

// startWatch polls the table for the session's windows in the watcher pool.
func (c *Controller) startWatch(s *Session, region TableRegion, log *logging.Logger) {
	if !c.cfg.Watch.Enabled {
		return
	}
	if err := c.pool.Submit(func() { c.watch(s, region, log) }); err != nil {
		log.Warn("capture watch not started", zap.String("session", s.ID), zap.Error(err))
	}
}

func (c *Controller) watch(s *Session, region TableRegion, log *logging.Logger) {
	ctx := c.ctx
	if c.cfg.Watch.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Watch.Timeout)
		defer cancel()
	}

	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(c.cfg.Watch.InitialInterval),
		backoff.WithMaxInterval(c.cfg.Watch.MaxInterval),
		backoff.WithMaxElapsedTime(0),
	)

	var primary, secondary embed.Handle
	op := func() error {
		t, err := region.Load()
		if err != nil {
			return backoff.Permanent(err)
		}
		slot, err := t.Slot(s.Slot)
		if err != nil {
			return backoff.Permanent(err)
		}
		if primary.IsZero() && !slot.Primary.IsZero() {
			primary = slot.Primary
			c.emit(Event{Kind: EventWindowCaptured, Session: s.ID, Slot: s.Slot, Window: primary, At: time.Now()}, log)
		}
		if secondary.IsZero() && !slot.Secondary.IsZero() {
			secondary = slot.Secondary
			c.emit(Event{Kind: EventPaneCaptured, Session: s.ID, Slot: s.Slot, Window: secondary, At: time.Now()}, log)
		}
		if !primary.IsZero() && !secondary.IsZero() {
			return nil
		}
		if !c.alive(s.Process.PID) {
			return backoff.Permanent(errViewerExited)
		}
		return errPending
	}

	err := backoff.Retry(op, backoff.WithContext(b, ctx))
	// A no-op when the viewer already cleared the word or a later Open replaced it.
	c.retireHook(region, s.Hook, log)
	if err != nil {
		c.metrics.watchFailures.Inc()
		log.Warn("capture watch ended",
			zap.String("session", s.ID),
			zap.Int("slot", s.Slot),
			zap.Bool("primary", !primary.IsZero()),
			zap.Bool("secondary", !secondary.IsZero()),
			zap.Error(err))
		return
	}
	log.Debug("capture complete",
		zap.String("session", s.ID),
		zap.Int("slot", s.Slot),
		zap.Uint64("primary", uint64(primary)),
		zap.Uint64("secondary", uint64(secondary)))
}

func (c *Controller) emit(ev Event, log *logging.Logger) {
	c.metrics.captures.WithLabelValues(ev.Kind.String()).Inc()
	if !c.events.put(ev) {
		c.metrics.eventsDropped.Inc()
		log.Debug("event dropped", zap.Stringer("kind", ev.Kind), zap.String("session", ev.Session))
	}
}
