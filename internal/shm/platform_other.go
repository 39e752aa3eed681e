//go:build !linux && !windows

package shm

import "context"

// MapRegion is not implemented on this platform.
func MapRegion(ctx context.Context, opts MapOptions) (*MappedRegion, error) {
	return nil, ErrUnsupported
}

// RemoveRegion is not implemented on this platform.
func RemoveRegion(name string) error {
	return ErrUnsupported
}
