// File: api/streams.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Pull/push streaming contracts over the segmented Buffer. Adapters in the
// transport package bridge these to byte slices, net.Conn, files, and raw
// file descriptors.

package api

import (
	"github.com/momentics/hioload-io/buffer"
	"github.com/momentics/hioload-io/timeout"
)

// Source pulls bytes into a Buffer.
//
// Read appends up to byteCount bytes to sink and returns the number appended,
// or (0, io.EOF) when the input is exhausted. End of input is a control
// value, not a failure: callers use it to tell a finished stream from a
// broken one. Read may block the calling goroutine for the duration of the
// underlying transport call and must honor the attached Timeout.
type Source interface {
	Read(sink *buffer.Buffer, byteCount int64) (int64, error)

	// Timeout returns the deadline policy applied to each Read.
	Timeout() *timeout.Timeout

	// Close releases the underlying resource. Idempotent, and safe to call
	// concurrently with a blocked Read from another goroutine.
	Close() error
}

// Sink pushes bytes out of a Buffer.
//
// Write removes exactly byteCount bytes from source and transmits them. On a
// transport failure the bytes already removed are lost; no retry is
// attempted internally.
type Sink interface {
	Write(source *buffer.Buffer, byteCount int64) error

	// Timeout returns the deadline policy applied to each Write.
	Timeout() *timeout.Timeout

	// Close flushes nothing (sinks are unbuffered) and releases the
	// underlying resource. Idempotent and race-safe like Source.Close.
	Close() error
}
