// File: buffer/buffer_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package buffer

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pattern fills a deterministic, non-repeating-at-segment-size byte sequence.
func pattern(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(i % 251)
	}
	return p
}

func TestBuffer_RoundTrip(t *testing.T) {
	cases := []struct {
		name string
		size int
	}{
		{"empty", 0},
		{"single byte", 1},
		{"within one segment", SegmentSize - 1},
		{"exactly one segment", SegmentSize},
		{"spanning segments", 2*SegmentSize + 17},
		{"many segments", 5 * SegmentSize},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := pattern(tc.size)
			var b Buffer
			n, err := b.Write(in)
			require.NoError(t, err)
			require.Equal(t, tc.size, n)
			require.Equal(t, int64(tc.size), b.Size())

			out := make([]byte, tc.size)
			read := 0
			for read < tc.size {
				m, err := b.Read(out[read:])
				require.NoError(t, err)
				read += m
			}
			require.Equal(t, in, out)
			require.Equal(t, int64(0), b.Size())

			_, err = b.Read(make([]byte, 1))
			require.Equal(t, io.EOF, err)
		})
	}
}

func TestBuffer_SizeConservation(t *testing.T) {
	var b Buffer
	var written, consumed int64

	for i := 0; i < 40; i++ {
		chunk := pattern(1 + i*997%SegmentSize)
		n, _ := b.Write(chunk)
		written += int64(n)

		if i%3 == 0 {
			consumed += b.Skip(int64(i * 131))
		}
		if i%5 == 0 {
			out := make([]byte, i*53)
			m, err := b.Read(out)
			if err != io.EOF {
				require.NoError(t, err)
			}
			consumed += int64(m)
		}
		require.Equal(t, written-consumed, b.Size())
		require.GreaterOrEqual(t, b.Size(), int64(0))
	}
}

func TestBuffer_PartialRead(t *testing.T) {
	var b Buffer
	b.Write(pattern(10))

	out := make([]byte, 100)
	n, err := b.Read(out)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, pattern(10), out[:10])
}

func TestBuffer_Skip(t *testing.T) {
	var b Buffer
	in := pattern(2*SegmentSize + 100)
	b.Write(in)

	require.Equal(t, int64(SegmentSize+50), b.Skip(SegmentSize+50))
	out := make([]byte, len(in))
	n, err := b.Read(out)
	require.NoError(t, err)
	assert.Equal(t, in[SegmentSize+50:], out[:n])

	// Skipping more than held discards only what is there.
	b.Write(pattern(10))
	assert.Equal(t, int64(10), b.Skip(99))
	assert.Equal(t, int64(0), b.Size())
}

func TestBuffer_ByteOps(t *testing.T) {
	var b Buffer
	require.NoError(t, b.WriteByte('h'))
	n, err := b.WriteString("ello")
	require.NoError(t, err)
	require.Equal(t, 4, n)

	c, err := b.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte('h'), c)

	rest := make([]byte, 4)
	b.Read(rest)
	assert.Equal(t, "ello", string(rest))

	_, err = b.ReadByte()
	assert.Equal(t, io.EOF, err)
}

func TestBuffer_ReadFromWriteTo(t *testing.T) {
	in := pattern(3*SegmentSize + 5)
	var b Buffer
	n, err := b.ReadFrom(bytes.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, int64(len(in)), n)

	var out bytes.Buffer
	m, err := b.WriteTo(&out)
	require.NoError(t, err)
	require.Equal(t, int64(len(in)), m)
	require.Equal(t, in, out.Bytes())
	require.Equal(t, int64(0), b.Size())
}

func TestBuffer_DrainToOutOfRange(t *testing.T) {
	var b Buffer
	b.Write(pattern(10))
	_, err := b.DrainTo(io.Discard, 11)
	require.ErrorIs(t, err, ErrOutOfRange)
	_, err = b.DrainTo(io.Discard, -1)
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestBuffer_MoveFromOutOfRange(t *testing.T) {
	var src, dst Buffer
	src.Write(pattern(10))
	require.ErrorIs(t, dst.MoveFrom(&src, 11), ErrOutOfRange)
	require.ErrorIs(t, dst.MoveFrom(&src, -1), ErrOutOfRange)
	require.Error(t, dst.MoveFrom(&dst, 0))
}

func TestBuffer_Clear(t *testing.T) {
	var b Buffer
	b.Write(pattern(3 * SegmentSize))
	b.Clear()
	assert.Equal(t, int64(0), b.Size())
	assert.Equal(t, "Buffer[size=0]", b.String())
}

func TestBuffer_StringsAcrossBoundaries(t *testing.T) {
	var b Buffer
	big := strings.Repeat("abc", SegmentSize)
	b.WriteString(big)
	out := make([]byte, len(big))
	read := 0
	for read < len(big) {
		n, err := b.Read(out[read:])
		require.NoError(t, err)
		read += n
	}
	assert.Equal(t, big, string(out))
}
