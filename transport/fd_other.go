// File: transport/fd_other.go
//go:build !linux

// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Stub for platforms without the raw descriptor fast path. Use the net.Conn
// or io.Reader adapters instead.

package transport

import "github.com/momentics/hioload-io/api"

// NewFDSource is unavailable off Linux.
func NewFDSource(fd int) (api.Source, error) {
	return nil, api.ErrNotSupported
}

// NewFDSink is unavailable off Linux.
func NewFDSink(fd int) (api.Sink, error) {
	return nil, api.ErrNotSupported
}
