package shm

import "errors"

// ErrShortBuffer is returned by layouts handed a buffer smaller than Size.
var ErrShortBuffer = errors.New("shm: buffer shorter than layout size")

// Layout is a fixed binary layout for a record of type T.
//
// Encode and Decode must touch exactly Size bytes and must agree with every
// other process mapping the same region.
type Layout[T any] interface {
	Size() int
	Encode(dst []byte, v *T) error
	Decode(src []byte, v *T) error
}
