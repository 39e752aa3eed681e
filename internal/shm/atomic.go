package shm

import (
	"errors"
	"fmt"
	"sync/atomic"
	"unsafe"
)

// ErrMisaligned is returned when a word offset is out of range or not 8-byte aligned.
var ErrMisaligned = errors.New("shm: word offset out of range or misaligned")

// AtomicLoadUint64 loads a uint64 from shared memory atomically.
func AtomicLoadUint64(addr unsafe.Pointer) uint64 {
	return atomic.LoadUint64((*uint64)(addr))
}

// AtomicStoreUint64 stores a uint64 to shared memory atomically.
func AtomicStoreUint64(addr unsafe.Pointer, val uint64) {
	atomic.StoreUint64((*uint64)(addr), val)
}

// AtomicCompareAndSwapUint64 atomically compares and swaps a uint64 in shared memory.
func AtomicCompareAndSwapUint64(addr unsafe.Pointer, old, new uint64) bool {
	return atomic.CompareAndSwapUint64((*uint64)(addr), old, new)
}

// WordAt returns the address of the 8-byte word at off within mem.
// Mapped views are page aligned, so an aligned offset gives an aligned address.
func WordAt(mem []byte, off int) (unsafe.Pointer, error) {
	if off < 0 || off+8 > len(mem) {
		return nil, fmt.Errorf("offset %d of %d: %w", off, len(mem), ErrMisaligned)
	}
	p := unsafe.Pointer(&mem[off])
	if uintptr(p)%8 != 0 {
		return nil, fmt.Errorf("offset %d: %w", off, ErrMisaligned)
	}
	return p, nil
}
