// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build darwin || linux

package shm

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Path joins a segment or region name onto the shared memory
// directory.
func Path(directory, name string) string {
	return filepath.Join(directory, name)
}

// Segment is a named, fixed-size shared mapping.
type Segment struct {
	path string
	fd   int
	data []byte
}

// OpenSegment opens the segment file at path, creating it if it does
// not exist, grows it to at least size bytes, and maps the first size
// bytes read-write. A newly created segment is zero-filled.
func OpenSegment(path string, size int) (*Segment, error) {
	if size <= 0 {
		return nil, fmt.Errorf("segment size must be positive, got %d", size)
	}

	fd, err := unix.Open(path, unix.O_CREAT|unix.O_RDWR|unix.O_CLOEXEC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening segment %s: %w", path, err)
	}

	var stat unix.Stat_t
	if err := unix.Fstat(fd, &stat); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("stating segment %s: %w", path, err)
	}
	if stat.Size < int64(size) {
		if err := unix.Ftruncate(fd, int64(size)); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("sizing segment %s to %d bytes: %w", path, size, err)
		}
	}

	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("mapping segment %s: %w", path, err)
	}

	return &Segment{path: path, fd: fd, data: data}, nil
}

// Bytes returns the mapped memory. The slice is valid until Close.
func (s *Segment) Bytes() []byte { return s.data }

// Path returns the segment's file path.
func (s *Segment) Path() string { return s.path }

// Close unmaps the segment and closes its descriptor. The file stays
// in place for other processes.
func (s *Segment) Close() error {
	if s.data == nil {
		return nil
	}
	var firstErr error
	if err := unix.Munmap(s.data); err != nil {
		firstErr = fmt.Errorf("unmapping segment %s: %w", s.path, err)
	}
	if err := unix.Close(s.fd); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing segment %s: %w", s.path, err)
	}
	s.data = nil
	s.fd = -1
	return firstErr
}

// Remove deletes a segment or region file. A missing file is not an
// error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
