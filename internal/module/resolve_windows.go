//go:build windows

package module

import (
	"fmt"
	"reflect"
	"unsafe"

	"golang.org/x/sys/windows"
)

func anchor() {}

// resolve finds the module containing this package's code, which is the DLL
// when built with -buildmode=c-shared.
func resolve() (uintptr, error) {
	var h windows.Handle
	addr := reflect.ValueOf(anchor).Pointer()
	err := windows.GetModuleHandleEx(
		windows.GET_MODULE_HANDLE_EX_FLAG_FROM_ADDRESS|windows.GET_MODULE_HANDLE_EX_FLAG_UNCHANGED_REFCOUNT,
		(*uint16)(unsafe.Pointer(addr)), &h)
	if err != nil {
		return 0, fmt.Errorf("GetModuleHandleEx: %w", err)
	}
	return uintptr(h), nil
}
