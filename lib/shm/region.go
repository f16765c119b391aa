// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build darwin || linux

package shm

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"golang.org/x/sys/unix"
)

// ErrRegionMissing is returned by OpenRegion when no region file
// exists yet, typically because the datastore has not published.
var ErrRegionMissing = errors.New("shared data region does not exist")

// Region is a named shared file accessed by offset. It implements
// io.ReaderAt and io.WriterAt.
type Region struct {
	path     string
	fd       int
	writable bool
}

// OpenRegion opens an existing region read-only.
func OpenRegion(path string) (*Region, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRegionMissing, path)
		}
		return nil, fmt.Errorf("opening region %s: %w", path, err)
	}
	return &Region{path: path, fd: fd}, nil
}

// CreateRegion opens the region at path for writing, creating it if
// needed. Existing contents are kept until the caller overwrites or
// truncates them.
func CreateRegion(path string) (*Region, error) {
	fd, err := unix.Open(path, unix.O_CREAT|unix.O_RDWR|unix.O_CLOEXEC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("creating region %s: %w", path, err)
	}
	return &Region{path: path, fd: fd, writable: true}, nil
}

// Path returns the region's file path.
func (r *Region) Path() string { return r.path }

// Size returns the current size of the region file.
func (r *Region) Size() (int64, error) {
	var stat unix.Stat_t
	if err := unix.Fstat(r.fd, &stat); err != nil {
		return 0, fmt.Errorf("stating region %s: %w", r.path, err)
	}
	return stat.Size, nil
}

// ReadAt reads len(p) bytes at off. A short read returns io.EOF.
func (r *Region) ReadAt(p []byte, off int64) (int, error) {
	total := 0
	for len(p) > 0 {
		n, err := unix.Pread(r.fd, p, off)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return total, fmt.Errorf("pread %s at offset %d: %w", r.path, off, err)
		}
		if n == 0 {
			return total, io.EOF
		}
		total += n
		p = p[n:]
		off += int64(n)
	}
	return total, nil
}

// WriteAt writes all of p at off.
func (r *Region) WriteAt(p []byte, off int64) (int, error) {
	if !r.writable {
		return 0, fmt.Errorf("region %s is open read-only", r.path)
	}
	total := 0
	for len(p) > 0 {
		n, err := unix.Pwrite(r.fd, p, off)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return total, fmt.Errorf("pwrite %s at offset %d: %w", r.path, off, err)
		}
		total += n
		p = p[n:]
		off += int64(n)
	}
	return total, nil
}

// Truncate sets the region's size.
func (r *Region) Truncate(size int64) error {
	if err := unix.Ftruncate(r.fd, size); err != nil {
		return fmt.Errorf("truncating region %s to %d bytes: %w", r.path, size, err)
	}
	return nil
}

// Sync flushes the region to its backing store.
func (r *Region) Sync() error {
	return unix.Fsync(r.fd)
}

// Close closes the region's descriptor.
func (r *Region) Close() error {
	if r.fd < 0 {
		return nil
	}
	err := unix.Close(r.fd)
	r.fd = -1
	return err
}
