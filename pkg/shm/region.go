package shm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	internalshm "github.com/srediag/viewembed/internal/shm"
)

const instrumentationName = "github.com/srediag/viewembed/pkg/shm"

var (
	// ErrClosed is returned by accessors on a released region.
	ErrClosed = errors.New("shm: region closed")

	// Re-exported platform errors.
	ErrSizeMismatch = internalshm.ErrSizeMismatch
	ErrUnsupported  = internalshm.ErrUnsupported
	ErrInvalidName  = internalshm.ErrInvalidName
)

// Region is a named shared memory segment holding one record of type T.
//
// Accessors borrow the mapped record exclusively within this process. Across
// processes there is no lock; callers order their writes by protocol.
type Region[T any] struct {
	mu     sync.Mutex
	region *internalshm.MappedRegion
	layout Layout[T]
	name   string

	tracer  trace.Tracer
	maps    metric.Int64Counter
	written metric.Int64Counter
}

type options struct {
	meter  metric.Meter
	tracer trace.Tracer
}

// Option configures a Region.
type Option func(*options)

// WithMeter sets the OTel meter used for region metrics.
func WithMeter(m metric.Meter) Option {
	return func(o *options) { o.meter = m }
}

// WithTracer sets the OTel tracer used around map operations.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// Create maps a region named name sized to layout, creating the backing object
// if it does not exist. A freshly created region reads as all zero bytes.
func Create[T any](ctx context.Context, name string, layout Layout[T], opts ...Option) (*Region[T], error) {
	return mapRegion(ctx, name, layout, true, opts)
}

// Open maps an existing region created elsewhere under name.
//
// The caller guarantees that layout is the one the region was created with.
// Only the size is checked, and only where the OS exposes it.
func Open[T any](ctx context.Context, name string, layout Layout[T], opts ...Option) (*Region[T], error) {
	return mapRegion(ctx, name, layout, false, opts)
}

// Remove deletes the named backing object where the platform keeps one.
func Remove(name string) error {
	return internalshm.RemoveRegion(name)
}

func mapRegion[T any](ctx context.Context, name string, layout Layout[T], create bool, opts []Option) (*Region[T], error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.meter == nil {
		o.meter = metricnoop.NewMeterProvider().Meter(instrumentationName)
	}
	if o.tracer == nil {
		o.tracer = tracenoop.NewTracerProvider().Tracer(instrumentationName)
	}

	mode := "open"
	if create {
		mode = "create"
	}
	ctx, span := o.tracer.Start(ctx, "shm."+mode, trace.WithAttributes(
		attribute.String("shm.name", name),
		attribute.Int("shm.size", layout.Size()),
	))
	defer span.End()

	r := &Region[T]{layout: layout, name: name, tracer: o.tracer}
	var err error
	if r.maps, err = o.meter.Int64Counter("viewembed.shm.region.maps",
		metric.WithDescription("Shared memory regions mapped, by mode and result.")); err != nil {
		return nil, err
	}
	if r.written, err = o.meter.Int64Counter("viewembed.shm.region.bytes_written",
		metric.WithDescription("Bytes written back to shared memory by Update and Store."),
		metric.WithUnit("By")); err != nil {
		return nil, err
	}

	region, err := internalshm.MapRegion(ctx, internalshm.MapOptions{
		Name:   name,
		Size:   layout.Size(),
		Create: create,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "map failed")
		r.maps.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", mode), attribute.String("result", "error")))
		return nil, fmt.Errorf("shm %s %s: %w", mode, name, err)
	}
	if region.Created {
		clear(region.Addr)
	}
	span.SetAttributes(attribute.Bool("shm.created", region.Created))
	r.maps.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", mode), attribute.String("result", "ok")))
	r.region = region
	return r, nil
}

// Name returns the region name.
func (r *Region[T]) Name() string {
	return r.name
}

// Size returns the mapped size in bytes.
func (r *Region[T]) Size() int {
	return r.layout.Size()
}

// Created reports whether Create brought the backing object into existence.
func (r *Region[T]) Created() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.region != nil && r.region.Created
}

// Load decodes and returns a copy of the mapped record.
func (r *Region[T]) Load() (T, error) {
	var v T
	err := r.View(func(t *T) error {
		v = *t
		return nil
	})
	return v, err
}

// View decodes the record and passes it to fn. Changes fn makes are discarded.
func (r *Region[T]) View(fn func(*T) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.region == nil {
		return ErrClosed
	}
	var v T
	if err := r.layout.Decode(r.region.Addr, &v); err != nil {
		return err
	}
	return fn(&v)
}

// Update decodes the record, lets fn mutate it, and writes back only the bytes
// that changed. Bytes fn did not change are left as the other process wrote them.
// If fn returns an error nothing is written.
func (r *Region[T]) Update(fn func(*T) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.region == nil {
		return ErrClosed
	}
	mem := r.region.Addr

	before := bytebufferpool.Get()
	defer bytebufferpool.Put(before)
	before.B = append(before.B[:0], mem...)

	var v T
	if err := r.layout.Decode(before.B, &v); err != nil {
		return err
	}
	if err := fn(&v); err != nil {
		return err
	}

	after := bytebufferpool.Get()
	defer bytebufferpool.Put(after)
	after.B = append(after.B[:0], before.B...)
	if err := r.layout.Encode(after.B, &v); err != nil {
		return err
	}

	n := 0
	for i := range after.B {
		if after.B[i] != before.B[i] {
			mem[i] = after.B[i]
			n++
		}
	}
	if n > 0 {
		r.written.Add(context.Background(), int64(n))
	}
	return nil
}

// Store encodes v over the whole record.
func (r *Region[T]) Store(v T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.region == nil {
		return ErrClosed
	}
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	buf.B = append(buf.B[:0], make([]byte, r.layout.Size())...)
	if err := r.layout.Encode(buf.B, &v); err != nil {
		return err
	}
	copy(r.region.Addr, buf.B)
	r.written.Add(context.Background(), int64(len(buf.B)))
	return nil
}

// Bytes returns a copy of the raw mapped bytes.
func (r *Region[T]) Bytes() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.region == nil {
		return nil, ErrClosed
	}
	return append([]byte(nil), r.region.Addr...), nil
}

// LoadUint64 atomically reads the 8-byte word at off.
func (r *Region[T]) LoadUint64(off int) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.region == nil {
		return 0, ErrClosed
	}
	p, err := internalshm.WordAt(r.region.Addr, off)
	if err != nil {
		return 0, err
	}
	return internalshm.AtomicLoadUint64(p), nil
}

// StoreUint64 atomically writes the 8-byte word at off.
func (r *Region[T]) StoreUint64(off int, v uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.region == nil {
		return ErrClosed
	}
	p, err := internalshm.WordAt(r.region.Addr, off)
	if err != nil {
		return err
	}
	internalshm.AtomicStoreUint64(p, v)
	return nil
}

// CompareAndSwapUint64 atomically replaces the word at off with new if it holds old.
func (r *Region[T]) CompareAndSwapUint64(off int, old, new uint64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.region == nil {
		return false, ErrClosed
	}
	p, err := internalshm.WordAt(r.region.Addr, off)
	if err != nil {
		return false, err
	}
	return internalshm.AtomicCompareAndSwapUint64(p, old, new), nil
}

// Close unmaps the view and closes the handle. It is safe to call more than once.
func (r *Region[T]) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.region == nil {
		return nil
	}
	region := r.region
	r.region = nil
	return region.Release()
}
