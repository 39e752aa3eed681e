//go:build !windows

package module

func resolve() (uintptr, error) {
	return 0, ErrUnresolved
}
