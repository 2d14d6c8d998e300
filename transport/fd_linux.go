// File: transport/fd_linux.go
//go:build linux

// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Raw file-descriptor fast path. Reads and writes go straight through
// unix.Read/unix.Write; watchdog cancellation uses unix.Shutdown, which
// unblocks a receive already parked in the kernel.

package transport

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-io/api"
	"github.com/momentics/hioload-io/buffer"
	"github.com/momentics/hioload-io/timeout"
)

// fdFile adapts a descriptor to io.Reader/io.Writer with EINTR retry.
type fdFile struct {
	fd int
}

func (f *fdFile) Read(p []byte) (int, error) {
	for {
		n, err := unix.Read(f.fd, p)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("fd read: %w", err)
		}
		if n == 0 {
			return 0, io.EOF
		}
		return n, nil
	}
}

func (f *fdFile) Write(p []byte) (int, error) {
	var written int
	for written < len(p) {
		n, err := unix.Write(f.fd, p[written:])
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return written, fmt.Errorf("fd write: %w", err)
		}
		written += n
	}
	return written, nil
}

// fdCloser shuts down and closes a descriptor exactly once. Shutdown first:
// it is what unblocks a peer goroutine still inside a blocking syscall.
type fdCloser struct {
	fd     int
	closed atomic.Bool
	once   sync.Once
	err    error
}

func (c *fdCloser) shutdown() {
	if c.closed.Load() {
		return
	}
	_ = unix.Shutdown(c.fd, unix.SHUT_RDWR)
}

func (c *fdCloser) close() error {
	c.once.Do(func() {
		c.closed.Store(true)
		_ = unix.Shutdown(c.fd, unix.SHUT_RDWR)
		if err := unix.Close(c.fd); err != nil && !errors.Is(err, unix.EBADF) {
			c.err = fmt.Errorf("fd close: %w", err)
		}
	})
	return c.err
}

type fdSource struct {
	f  fdFile
	cl *fdCloser
	t  *timeout.AsyncTimeout
}

// NewFDSource returns a Source reading from a raw socket descriptor. The
// caller transfers ownership of fd; Close releases it.
func NewFDSource(fd int) (api.Source, error) {
	cl := &fdCloser{fd: fd}
	s := &fdSource{f: fdFile{fd: fd}, cl: cl}
	s.t = &timeout.AsyncTimeout{OnTimeout: cl.shutdown}
	return s, nil
}

func (s *fdSource) Read(sink *buffer.Buffer, byteCount int64) (int64, error) {
	if byteCount < 0 {
		return 0, fmt.Errorf("transport: read %d bytes: %w", byteCount, buffer.ErrOutOfRange)
	}
	if byteCount == 0 {
		return 0, nil
	}
	if s.cl.closed.Load() {
		return 0, api.ErrClosed
	}
	s.t.Enter()
	n, err := sink.ReadOnceFrom(&s.f, byteCount)
	err = s.t.ExitError(err)
	switch {
	case errors.Is(err, timeout.ErrTimeout):
		// Deadline wins over partial progress: the descriptor is already
		// shut down, so report the timeout now.
		return n, err
	case n > 0:
		return n, nil
	default:
		return 0, err
	}
}

func (s *fdSource) Timeout() *timeout.Timeout { return &s.t.Timeout }

func (s *fdSource) Close() error { return s.cl.close() }

type fdSink struct {
	f  fdFile
	cl *fdCloser
	t  *timeout.AsyncTimeout
}

// NewFDSink returns a Sink writing to a raw socket descriptor. The caller
// transfers ownership of fd; Close releases it.
func NewFDSink(fd int) (api.Sink, error) {
	cl := &fdCloser{fd: fd}
	s := &fdSink{f: fdFile{fd: fd}, cl: cl}
	s.t = &timeout.AsyncTimeout{OnTimeout: cl.shutdown}
	return s, nil
}

func (s *fdSink) Write(source *buffer.Buffer, byteCount int64) error {
	if byteCount < 0 || byteCount > source.Size() {
		return fmt.Errorf("transport: write %d bytes, source holds %d: %w",
			byteCount, source.Size(), buffer.ErrOutOfRange)
	}
	if s.cl.closed.Load() {
		return api.ErrClosed
	}
	start := time.Now()
	var written int64
	for written < byteCount {
		if err := s.t.Check(start); err != nil {
			return err
		}
		chunk := int64(buffer.SegmentSize)
		if chunk > byteCount-written {
			chunk = byteCount - written
		}
		s.t.Enter()
		n, err := source.DrainTo(&s.f, chunk)
		err = s.t.ExitError(err)
		written += n
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *fdSink) Timeout() *timeout.Timeout { return &s.t.Timeout }

func (s *fdSink) Close() error { return s.cl.close() }
