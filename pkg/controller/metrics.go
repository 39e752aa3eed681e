package controller

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "viewembed"

type metrics struct {
	opens         *prometheus.CounterVec
	openDuration  prometheus.Histogram
	slotsInUse    prometheus.Gauge
	sessions      prometheus.Gauge
	captures      *prometheus.CounterVec
	eventsDropped prometheus.Counter
	watchFailures prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		opens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "open_total",
			Help:      "OpenPPT calls by result (ok or the failing stage).",
		}, []string{"result"}),
		openDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "open_duration_seconds",
			Help:      "Time spent in OpenPPT.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		slotsInUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "slots_in_use",
			Help:      "Slots of the shared table that are not Closed.",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions",
			Help:      "Sessions registered with the controller.",
		}),
		captures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "captures_total",
			Help:      "Viewer windows observed in the shared table, by kind.",
		}, []string{"kind"}),
		eventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Capture events dropped because the queue was full.",
		}),
		watchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "watch_failures_total",
			Help:      "Capture watches that ended before both windows were seen.",
		}),
	}
	for _, c := range []prometheus.Collector{
		m.opens, m.openDuration, m.slotsInUse, m.sessions,
		m.captures, m.eventsDropped, m.watchFailures,
		collectors.NewGoCollector(),
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return m, nil
}
