// Package shm contains platform-specific helpers for named shared memory regions.
package shm

import (
	"errors"
	"sync"
	"sync/atomic"
)

var (
	// ErrUnsupported is returned on platforms without a named mapping backend.
	ErrUnsupported = errors.New("shm: named shared memory is not supported on this platform")
	// ErrSizeMismatch is returned when an existing region is smaller or larger than requested.
	ErrSizeMismatch = errors.New("shm: region size does not match the requested layout")
	// ErrInvalidName is returned for empty names or names the backend cannot represent.
	ErrInvalidName = errors.New("shm: invalid region name")
	// ErrNoSpace is returned when the backing store cannot hold the region.
	ErrNoSpace = errors.New("shm: not enough space left for region")
)

// MappedRegion represents a memory-mapped shared region.
//
// The region owns both the view and the OS handle. Release unmaps the view and
// then closes the handle, exactly once.
type MappedRegion struct {
	Addr []byte
	Name string
	// Created reports whether this mapping brought the backing object into existence.
	Created bool

	unmap       func() error
	closeHandle func() error

	once       sync.Once
	released   atomic.Bool
	releaseErr error
}

// MapOptions defines options for mapping shared memory.
type MapOptions struct {
	Name   string
	Size   int
	Create bool
}

func newMappedRegion(addr []byte, name string, created bool, unmap, closeHandle func() error) *MappedRegion {
	return &MappedRegion{
		Addr:        addr,
		Name:        name,
		Created:     created,
		unmap:       unmap,
		closeHandle: closeHandle,
	}
}

// Release unmaps the view, then closes the handle. Later calls return the first result.
// If unmapping fails the handle is left open rather than closed under a live view.
func (r *MappedRegion) Release() error {
	if r == nil {
		return nil
	}
	r.once.Do(func() {
		r.released.Store(true)
		if r.unmap != nil {
			if err := r.unmap(); err != nil {
				r.releaseErr = err
				return
			}
		}
		r.Addr = nil
		if r.closeHandle != nil {
			r.releaseErr = r.closeHandle()
		}
	})
	return r.releaseErr
}

// Released reports whether Release has run.
func (r *MappedRegion) Released() bool {
	return r.released.Load()
}
