// Package module holds the identity of the loaded module that hosts the hook
// procedure. The OS hook mechanism needs it even though the procedure runs in
// another process.
package module

import (
	"errors"
	"sync"
)

// ErrUnresolved is returned when the module handle cannot be determined.
var ErrUnresolved = errors.New("module: handle not resolved")

// identity is set once and read-only afterwards.
type identity struct {
	once   sync.Once
	handle uintptr
	err    error
}

var self identity

// Handle returns the module handle, resolved from the running image on first
// use. Later calls return the first result, including a failure.
func Handle() (uintptr, error) {
	return self.get(resolve)
}

func (id *identity) get(resolver func() (uintptr, error)) (uintptr, error) {
	id.once.Do(func() {
		h, err := resolver()
		if err == nil && h == 0 {
			err = ErrUnresolved
		}
		id.handle, id.err = h, err
	})
	return id.handle, id.err
}
