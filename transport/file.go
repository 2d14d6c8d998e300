// File: transport/file.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import (
	"os"

	"github.com/momentics/hioload-io/api"
)

// OpenSource opens path for reading and wraps it as a Source.
func OpenSource(path string) (api.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return NewReaderSource(f), nil
}

// CreateSink creates or truncates path and wraps it as a Sink.
func CreateSink(path string) (api.Sink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return NewWriterSink(f), nil
}

// AppendSink opens path for appending and wraps it as a Sink.
func AppendSink(path string) (api.Sink, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return NewWriterSink(f), nil
}
