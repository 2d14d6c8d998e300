// File: transport/bytes.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// In-memory adapters: a finite byte-slice source, a collecting buffer sink,
// and a blackhole sink. These are the standard doubles for exercising the
// streaming pipeline without a transport.

package transport

import (
	"fmt"
	"io"

	"github.com/momentics/hioload-io/api"
	"github.com/momentics/hioload-io/buffer"
	"github.com/momentics/hioload-io/timeout"
)

type bytesSource struct {
	data   []byte
	off    int
	t      timeout.Timeout
	closed bool
}

// NewBytesSource returns a Source yielding p and then io.EOF. The slice is
// not copied; the caller must not mutate it while reading.
func NewBytesSource(p []byte) api.Source {
	return &bytesSource{data: p}
}

func (s *bytesSource) Read(sink *buffer.Buffer, byteCount int64) (int64, error) {
	if byteCount < 0 {
		return 0, fmt.Errorf("transport: read %d bytes: %w", byteCount, buffer.ErrOutOfRange)
	}
	if s.closed {
		return 0, api.ErrClosed
	}
	if byteCount == 0 {
		return 0, nil
	}
	remaining := int64(len(s.data) - s.off)
	if remaining == 0 {
		return 0, io.EOF
	}
	if byteCount > remaining {
		byteCount = remaining
	}
	sink.Write(s.data[s.off : s.off+int(byteCount)])
	s.off += int(byteCount)
	return byteCount, nil
}

func (s *bytesSource) Timeout() *timeout.Timeout { return &s.t }

func (s *bytesSource) Close() error {
	s.closed = true
	return nil
}

// BufferSink collects written bytes into an owned Buffer. Writes are segment
// moves, so assembling from another Buffer copies nothing.
type BufferSink struct {
	buf    buffer.Buffer
	t      timeout.Timeout
	closed bool
}

// NewBufferSink returns an empty collecting sink.
func NewBufferSink() *BufferSink {
	return &BufferSink{}
}

func (s *BufferSink) Write(source *buffer.Buffer, byteCount int64) error {
	if s.closed {
		return api.ErrClosed
	}
	return s.buf.MoveFrom(source, byteCount)
}

func (s *BufferSink) Timeout() *timeout.Timeout { return &s.t }

func (s *BufferSink) Close() error {
	s.closed = true
	return nil
}

// Buffer exposes the collected bytes.
func (s *BufferSink) Buffer() *buffer.Buffer {
	return &s.buf
}

type blackholeSink struct {
	t timeout.Timeout
}

// Blackhole returns a Sink that consumes and discards everything written.
func Blackhole() api.Sink {
	return &blackholeSink{}
}

func (s *blackholeSink) Write(source *buffer.Buffer, byteCount int64) error {
	if byteCount < 0 || byteCount > source.Size() {
		return fmt.Errorf("transport: discard %d bytes, source holds %d: %w",
			byteCount, source.Size(), buffer.ErrOutOfRange)
	}
	source.Skip(byteCount)
	return nil
}

func (s *blackholeSink) Timeout() *timeout.Timeout { return &s.t }

func (s *blackholeSink) Close() error { return nil }
