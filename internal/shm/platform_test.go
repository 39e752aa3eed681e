package shm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMappedRegion_ReleaseOrderAndOnce(t *testing.T) {
	var calls []string
	r := newMappedRegion(make([]byte, 16), "t", true,
		func() error { calls = append(calls, "unmap"); return nil },
		func() error { calls = append(calls, "close"); return nil },
	)
	assert.False(t, r.Released())
	assert.NoError(t, r.Release())
	assert.NoError(t, r.Release())
	assert.True(t, r.Released())
	assert.Equal(t, []string{"unmap", "close"}, calls)
	assert.Nil(t, r.Addr)
}

func TestMappedRegion_UnmapFailureKeepsHandle(t *testing.T) {
	boom := errors.New("boom")
	closed := 0
	r := newMappedRegion(make([]byte, 16), "t", false,
		func() error { return boom },
		func() error { closed++; return nil },
	)
	assert.ErrorIs(t, r.Release(), boom)
	assert.ErrorIs(t, r.Release(), boom)
	assert.Equal(t, 0, closed)
}

func TestMappedRegion_NilRelease(t *testing.T) {
	var r *MappedRegion
	assert.NoError(t, r.Release())
}

func TestWordAt(t *testing.T) {
	mem := make([]uint64, 4)
	b := unsafeBytes(mem)

	p, err := WordAt(b, 8)
	assert.NoError(t, err)
	AtomicStoreUint64(p, 42)
	assert.Equal(t, uint64(42), AtomicLoadUint64(p))
	assert.Equal(t, uint64(42), mem[1])
	assert.True(t, AtomicCompareAndSwapUint64(p, 42, 0))
	assert.False(t, AtomicCompareAndSwapUint64(p, 42, 7))
	assert.Equal(t, uint64(0), mem[1])

	_, err = WordAt(b, 3)
	assert.ErrorIs(t, err, ErrMisaligned)
	_, err = WordAt(b, 32)
	assert.ErrorIs(t, err, ErrMisaligned)
	_, err = WordAt(b, -8)
	assert.ErrorIs(t, err, ErrMisaligned)
}
