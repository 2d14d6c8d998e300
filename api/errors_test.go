// File: api/errors_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import (
	"errors"
	"fmt"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/momentics/hioload-io/buffer"
	"github.com/momentics/hioload-io/timeout"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"nil", nil, CodeOK},
		{"end of input", io.EOF, CodeEndOfInput},
		{"wrapped end", fmt.Errorf("read: %w", io.EOF), CodeEndOfInput},
		{"timeout", timeout.ErrTimeout, CodeTimeout},
		{"wrapped timeout", fmt.Errorf("op: %w", timeout.ErrTimeout), CodeTimeout},
		{"bounds", buffer.ErrOutOfRange, CodeOutOfRange},
		{"closed", ErrClosed, CodeClosed},
		{"net closed", net.ErrClosed, CodeClosed},
		{"transport", errors.New("connection reset"), CodeTransport},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.err))
		})
	}
}

func TestStructuredError(t *testing.T) {
	cause := errors.New("boom")
	err := NewError(CodeTransport, "send failed", cause)
	assert.Equal(t, "send failed: boom", err.Error())
	assert.ErrorIs(t, err, cause)

	bare := NewError(CodeClosed, "already closed", nil)
	assert.Equal(t, "already closed", bare.Error())
}
