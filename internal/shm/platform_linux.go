//go:build linux

package shm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"
	"golang.org/x/sys/unix"
)

const devShm = "/dev/shm"

// MapRegion maps or creates a shared memory region (Linux implementation).
//
// Regions live under /dev/shm so that unrelated processes can open them by name.
func MapRegion(ctx context.Context, opts MapOptions) (*MappedRegion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	shmPath, err := regionPath(opts.Name)
	if err != nil {
		return nil, err
	}
	if opts.Size <= 0 {
		return nil, fmt.Errorf("map %s: size %d: %w", opts.Name, opts.Size, ErrSizeMismatch)
	}

	fd, created, err := openBacking(shmPath, opts)
	if err != nil {
		return nil, err
	}
	fail := func(err error) (*MappedRegion, error) {
		_ = unix.Close(fd)
		if created {
			_ = unix.Unlink(shmPath)
		}
		return nil, err
	}

	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return fail(fmt.Errorf("fstat: %w", err))
	}
	switch {
	case created || (opts.Create && st.Size == 0):
		if err := unix.Ftruncate(fd, int64(opts.Size)); err != nil {
			return fail(fmt.Errorf("ftruncate: %w", err))
		}
	case st.Size != int64(opts.Size):
		return fail(fmt.Errorf("map %s: have %d bytes, want %d: %w", opts.Name, st.Size, opts.Size, ErrSizeMismatch))
	}

	addr, err := unix.Mmap(fd, 0, opts.Size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return fail(fmt.Errorf("mmap: %w", err))
	}
	return newMappedRegion(addr, opts.Name, created,
		func() error {
			if err := unix.Munmap(addr); err != nil {
				return fmt.Errorf("munmap: %w", err)
			}
			return nil
		},
		func() error {
			if err := unix.Close(fd); err != nil {
				return fmt.Errorf("close: %w", err)
			}
			return nil
		},
	), nil
}

// openBacking tries an exclusive create first so the caller learns whether the
// object is new; an existing object is opened in place.
func openBacking(shmPath string, opts MapOptions) (fd int, created bool, err error) {
	if !opts.Create {
		fd, err = unix.Open(shmPath, unix.O_RDWR|unix.O_CLOEXEC, 0)
		if err != nil {
			return -1, false, fmt.Errorf("open: %w", err)
		}
		return fd, false, nil
	}
	if !canCreateOnDevShm(uint64(opts.Size), shmPath) {
		return -1, false, fmt.Errorf("path:%s size:%d: %w", shmPath, opts.Size, ErrNoSpace)
	}
	fd, err = unix.Open(shmPath, unix.O_RDWR|unix.O_CREAT|unix.O_EXCL|unix.O_CLOEXEC, 0600)
	if err == nil {
		return fd, true, nil
	}
	if !errors.Is(err, unix.EEXIST) {
		return -1, false, fmt.Errorf("open: %w", err)
	}
	fd, err = unix.Open(shmPath, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return -1, false, fmt.Errorf("open: %w", err)
	}
	return fd, false, nil
}

// RemoveRegion deletes the backing object. Mappings that are still open stay valid.
func RemoveRegion(name string) error {
	shmPath, err := regionPath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(shmPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func regionPath(name string) (string, error) {
	if name == "" || strings.ContainsRune(name, '/') || name == "." || name == ".." {
		return "", fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	return filepath.Join(devShm, name), nil
}

// canCreateOnDevShm only checks paths under /dev/shm; other paths always pass.
func canCreateOnDevShm(size uint64, path string) bool {
	if !strings.HasPrefix(path, devShm) {
		return true
	}
	stat, err := disk.Usage(devShm)
	if err != nil {
		return true
	}
	return stat.Free >= size
}
