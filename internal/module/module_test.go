package module

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentity_ResolveOnce(t *testing.T) {
	var id identity
	calls := 0
	resolver := func() (uintptr, error) {
		calls++
		return 0x10000, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := id.get(resolver)
			assert.NoError(t, err)
			assert.Equal(t, uintptr(0x10000), h)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, calls)
}

func TestIdentity_Errors(t *testing.T) {
	var failing identity
	boom := errors.New("boom")
	_, err := failing.get(func() (uintptr, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
	_, err = failing.get(func() (uintptr, error) { return 0x10000, nil })
	assert.ErrorIs(t, err, boom)

	var nullHandle identity
	_, err = nullHandle.get(func() (uintptr, error) { return 0, nil })
	assert.ErrorIs(t, err, ErrUnresolved)
}
