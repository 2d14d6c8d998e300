// File: transport/conn.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Socket adapters. Every blocking call is bracketed by watchdog Enter/Exit;
// when the deadline passes while blocked, the watchdog closes the conn, the
// blocked call fails, and ExitError re-surfaces that failure as a timeout
// rather than a generic I/O error.

package transport

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/momentics/hioload-io/api"
	"github.com/momentics/hioload-io/buffer"
	"github.com/momentics/hioload-io/timeout"
)

// connCloser makes net.Conn.Close idempotent and race-safe: the watchdog
// goroutine and the owning goroutine may both close, in any order.
type connCloser struct {
	conn net.Conn
	once sync.Once
	err  error
}

func (c *connCloser) close() error {
	c.once.Do(func() {
		if err := c.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			c.err = err
		}
	})
	return c.err
}

type connSource struct {
	conn net.Conn
	cl   *connCloser
	t    *timeout.AsyncTimeout
}

// NewConnSource returns a Source pulling from conn. The source owns a
// watchdog timeout whose firing force-closes conn.
func NewConnSource(conn net.Conn) api.Source {
	cl := &connCloser{conn: conn}
	s := &connSource{conn: conn, cl: cl}
	s.t = &timeout.AsyncTimeout{OnTimeout: func() { _ = cl.close() }}
	return s
}

func (s *connSource) Read(sink *buffer.Buffer, byteCount int64) (int64, error) {
	if byteCount < 0 {
		return 0, fmt.Errorf("transport: read %d bytes: %w", byteCount, buffer.ErrOutOfRange)
	}
	if byteCount == 0 {
		return 0, nil
	}
	s.t.Enter()
	n, err := sink.ReadOnceFrom(s.conn, byteCount)
	err = s.t.ExitError(err)
	switch {
	case errors.Is(err, timeout.ErrTimeout):
		// The watchdog fired, even if bytes arrived first: the conn is
		// already force-closed, so the deadline must be reported now rather
		// than as a closed-conn failure on the next call. Bytes appended to
		// sink stay there and are counted.
		return n, err
	case n > 0:
		return n, nil
	case err != nil && errors.Is(err, io.EOF):
		return 0, io.EOF
	default:
		return 0, err
	}
}

func (s *connSource) Timeout() *timeout.Timeout { return &s.t.Timeout }

func (s *connSource) Close() error { return s.cl.close() }

type connSink struct {
	conn net.Conn
	cl   *connCloser
	t    *timeout.AsyncTimeout
}

// NewConnSink returns a Sink pushing to conn, with the same watchdog
// force-close behavior as NewConnSource.
func NewConnSink(conn net.Conn) api.Sink {
	cl := &connCloser{conn: conn}
	s := &connSink{conn: conn, cl: cl}
	s.t = &timeout.AsyncTimeout{OnTimeout: func() { _ = cl.close() }}
	return s
}

func (s *connSink) Write(source *buffer.Buffer, byteCount int64) error {
	if byteCount < 0 || byteCount > source.Size() {
		return fmt.Errorf("transport: write %d bytes, source holds %d: %w",
			byteCount, source.Size(), buffer.ErrOutOfRange)
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
		n, err := source.DrainTo(s.conn, chunk)
		err = s.t.ExitError(err)
		written += n
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *connSink) Timeout() *timeout.Timeout { return &s.t.Timeout }

func (s *connSink) Close() error { return s.cl.close() }
