// Package adapter connects viewembed to external telemetry systems.
package adapter

import (
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/srediag/viewembed/pkg/shm"
)

// InstrumentationName names the meter and tracer handed to shared memory regions.
const InstrumentationName = "github.com/srediag/viewembed"

// OTel returns region options that draw the meter and tracer from the given
// providers. A nil provider keeps the region's no-op default.
func OTel(mp metric.MeterProvider, tp trace.TracerProvider) []shm.Option {
	var opts []shm.Option
	if mp != nil {
		opts = append(opts, shm.WithMeter(mp.Meter(InstrumentationName)))
	}
	if tp != nil {
		opts = append(opts, shm.WithTracer(tp.Tracer(InstrumentationName)))
	}
	return opts
}
