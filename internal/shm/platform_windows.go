//go:build windows

package shm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

// FILE_MAP_ALL_ACCESS as defined by memoryapi.h.
const fileMapAllAccess = 0x000F001F

var (
	modkernel32          = windows.NewLazySystemDLL("kernel32.dll")
	procOpenFileMappingW = modkernel32.NewProc("OpenFileMappingW")
)

// MapRegion maps or creates a shared memory region (Windows implementation).
//
// The mapping is backed by the paging file; the OS reclaims it once the last
// handle is closed.
func MapRegion(ctx context.Context, opts MapOptions) (*MappedRegion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.Name == "" {
		return nil, fmt.Errorf("%q: %w", opts.Name, ErrInvalidName)
	}
	if opts.Size <= 0 {
		return nil, fmt.Errorf("map %s: size %d: %w", opts.Name, opts.Size, ErrSizeMismatch)
	}
	name, err := windows.UTF16PtrFromString(opts.Name)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", opts.Name, ErrInvalidName)
	}

	var (
		h       windows.Handle
		created bool
	)
	if opts.Create {
		size := uint64(opts.Size)
		h, err = windows.CreateFileMapping(windows.InvalidHandle, nil, windows.PAGE_READWRITE,
			uint32(size>>32), uint32(size&0xffffffff), name)
		switch {
		case h == 0:
			return nil, os.NewSyscallError("CreateFileMapping", err)
		case errors.Is(err, windows.ERROR_ALREADY_EXISTS):
			created = false
		default:
			created = true
		}
	} else {
		r, _, e := procOpenFileMappingW.Call(fileMapAllAccess, 0, uintptr(unsafe.Pointer(name)))
		if r == 0 {
			return nil, os.NewSyscallError("OpenFileMapping", e)
		}
		h = windows.Handle(r)
	}

	addr, err := windows.MapViewOfFile(h, fileMapAllAccess, 0, 0, uintptr(opts.Size))
	if addr == 0 {
		_ = windows.CloseHandle(h)
		return nil, os.NewSyscallError("MapViewOfFile", err)
	}

	var info windows.MemoryBasicInformation
	if err := windows.VirtualQuery(addr, &info, unsafe.Sizeof(info)); err == nil && info.RegionSize < uintptr(opts.Size) {
		_ = windows.UnmapViewOfFile(addr)
		_ = windows.CloseHandle(h)
		return nil, fmt.Errorf("map %s: have %d bytes, want %d: %w", opts.Name, info.RegionSize, opts.Size, ErrSizeMismatch)
	}

	data := unsafe.Slice((*byte)(unsafe.Pointer(addr)), opts.Size)
	return newMappedRegion(data, opts.Name, created,
		func() error {
			if err := windows.UnmapViewOfFile(addr); err != nil {
				return os.NewSyscallError("UnmapViewOfFile", err)
			}
			return nil
		},
		func() error {
			if err := windows.CloseHandle(h); err != nil {
				return os.NewSyscallError("CloseHandle", err)
			}
			return nil
		},
	), nil
}

// RemoveRegion is a no-op: the mapping disappears with its last handle.
func RemoveRegion(name string) error {
	return nil
}
