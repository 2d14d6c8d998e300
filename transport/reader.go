// File: transport/reader.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Generic adapters over io.Reader/io.Writer with cooperative deadline checks
// at segment granularity. Use these for *os.File and other streams whose
// blocking calls return promptly; for sockets prefer the conn adapters,
// which add watchdog enforcement.

package transport

import (
	"fmt"
	"io"
	"time"

	"github.com/momentics/hioload-io/api"
	"github.com/momentics/hioload-io/buffer"
	"github.com/momentics/hioload-io/timeout"
)

type readerSource struct {
	r      io.Reader
	c      io.Closer
	t      timeout.Timeout
	closed bool
}

// NewReaderSource adapts r into a Source. When r is also an io.Closer,
// closing the source closes it.
func NewReaderSource(r io.Reader) api.Source {
	c, _ := r.(io.Closer)
	return &readerSource{r: r, c: c}
}

func (s *readerSource) Read(sink *buffer.Buffer, byteCount int64) (int64, error) {
	if byteCount < 0 {
		return 0, fmt.Errorf("transport: read %d bytes: %w", byteCount, buffer.ErrOutOfRange)
	}
	if s.closed {
		return 0, api.ErrClosed
	}
	if byteCount == 0 {
		return 0, nil
	}
	// One call fills at most one segment, so the absolute deadline is
	// re-checked at segment granularity across a long copy loop.
	if err := s.t.Check(time.Time{}); err != nil {
		return 0, err
	}
	n, err := sink.ReadOnceFrom(s.r, byteCount)
	if n > 0 {
		// Partial progress wins over a trailing error; the error resurfaces
		// on the next call.
		return n, nil
	}
	return 0, err
}

func (s *readerSource) Timeout() *timeout.Timeout { return &s.t }

func (s *readerSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.c != nil {
		return s.c.Close()
	}
	return nil
}

type writerSink struct {
	w      io.Writer
	c      io.Closer
	t      timeout.Timeout
	closed bool
}

// NewWriterSink adapts w into a Sink. When w is also an io.Closer, closing
// the sink closes it.
func NewWriterSink(w io.Writer) api.Sink {
	c, _ := w.(io.Closer)
	return &writerSink{w: w, c: c}
}

func (s *writerSink) Write(source *buffer.Buffer, byteCount int64) error {
	if byteCount < 0 || byteCount > source.Size() {
		return fmt.Errorf("transport: write %d bytes, source holds %d: %w",
			byteCount, source.Size(), buffer.ErrOutOfRange)
	}
	if s.closed {
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
		n, err := source.DrainTo(s.w, chunk)
		written += n
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *writerSink) Timeout() *timeout.Timeout { return &s.t }

func (s *writerSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.c != nil {
		return s.c.Close()
	}
	return nil
}
