// Package health serves liveness, readiness and metrics for a controller.
package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/srediag/viewembed/pkg/embed"
)

// TableSource returns a snapshot of the shared table.
type TableSource interface {
	Table(ctx context.Context) (embed.SharedTable, error)
}

// Options tune the checks.
type Options struct {
	// Timeout bounds each check.
	Timeout time.Duration
	// MaxGoroutines fails liveness above this count; zero disables the check.
	MaxGoroutines int
}

// NewHandler returns a handler with the viewembed checks registered. With a
// non-nil registry the check results are also exported as metrics.
func NewHandler(src TableSource, reg prometheus.Registerer, opts Options) healthcheck.Handler {
	if opts.Timeout <= 0 {
		opts.Timeout = time.Second
	}
	var h healthcheck.Handler
	if reg != nil {
		h = healthcheck.NewMetricsHandler(reg, "viewembed")
	} else {
		h = healthcheck.NewHandler()
	}

	h.AddLivenessCheck("shared-table", healthcheck.Timeout(func() error {
		return tableMapped(src, opts.Timeout)
	}, opts.Timeout))
	if opts.MaxGoroutines > 0 {
		h.AddLivenessCheck("goroutines", healthcheck.GoroutineCountCheck(opts.MaxGoroutines))
	}
	h.AddReadinessCheck("free-slots", healthcheck.Timeout(func() error {
		return slotsAvailable(src, opts.Timeout)
	}, opts.Timeout))
	return h
}

// NewMux serves /live and /ready from h and /metrics from g.
func NewMux(h healthcheck.Handler, g prometheus.Gatherer) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/live", h.LiveEndpoint)
	mux.HandleFunc("/ready", h.ReadyEndpoint)
	if g != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	}
	return mux
}

func tableMapped(src TableSource, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	t, err := src.Table(ctx)
	if err != nil {
		return err
	}
	// A region nobody has written yet is all zero and still healthy.
	if t.Magic != 0 && !t.Valid() {
		return fmt.Errorf("shared table header mismatch: magic %#x version %d capacity %d",
			t.Magic, t.Version, t.Capacity)
	}
	return nil
}

func slotsAvailable(src TableSource, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	t, err := src.Table(ctx)
	if err != nil {
		return err
	}
	if n := t.InUse(); n >= embed.MaxViews {
		return fmt.Errorf("all %d slots in use", n)
	}
	return nil
}
