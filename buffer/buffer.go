// File: buffer/buffer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Unbounded in-memory byte queue backed by a ring of pooled segments.
// Reads and writes are strict FIFO. Moving bytes between two Buffers relinks
// whole segments by pointer instead of copying; only the fractional remainder
// at a boundary is copied byte by byte.
//
// A Buffer is not safe for concurrent use. Only the segment pool and the
// timeout watchdog are shared across goroutines by design.

package buffer

import (
	"errors"
	"fmt"
	"io"
)

// ErrOutOfRange reports an offset or byte count outside the valid bounds of a
// Buffer. It is always a programming error and is never recovered internally.
var ErrOutOfRange = errors.New("byte count out of range")

// Buffer is a queue of bytes held in a circular doubly-linked list of
// segments anchored at head. The zero value is an empty, ready-to-use buffer.
type Buffer struct {
	head *segment
	size int64
}

// New returns an empty Buffer.
func New() *Buffer {
	return &Buffer{}
}

// Size reports the number of readable bytes currently held.
func (b *Buffer) Size() int64 {
	return b.size
}

// writableSegment returns a tail segment with room for at least minimum more
// bytes, appending a pooled segment when the current tail is full, shared, or
// not an owner of its array.
func (b *Buffer) writableSegment(minimum int) *segment {
	if minimum < 1 || minimum > SegmentSize {
		panic("buffer: unexpected capacity request")
	}
	if b.head == nil {
		s := pool.acquire()
		s.prev = s
		s.next = s
		b.head = s
		return s
	}
	tail := b.head.prev
	if tail.limit+minimum > SegmentSize || !tail.owner || tail.shared {
		tail = tail.push(pool.acquire())
	}
	return tail
}

// Write appends p to the buffer, acquiring segments from the pool as the tail
// fills. It implements io.Writer and never fails.
func (b *Buffer) Write(p []byte) (int, error) {
	total := len(p)
	for len(p) > 0 {
		s := b.writableSegment(1)
		n := copy(s.data[s.limit:], p)
		s.limit += n
		b.size += int64(n)
		p = p[n:]
	}
	return total, nil
}

// WriteString appends s to the buffer.
func (b *Buffer) WriteString(s string) (int, error) {
	total := len(s)
	for len(s) > 0 {
		seg := b.writableSegment(1)
		n := copy(seg.data[seg.limit:], s)
		seg.limit += n
		b.size += int64(n)
		s = s[n:]
	}
	return total, nil
}

// WriteByte appends a single byte.
func (b *Buffer) WriteByte(c byte) error {
	s := b.writableSegment(1)
	s.data[s.limit] = c
	s.limit++
	b.size++
	return nil
}

// Read removes up to len(p) bytes from the head of the buffer, recycling each
// segment whose window empties. It returns fewer bytes than requested only
// when the buffer holds less, and (0, io.EOF) when the buffer is empty.
func (b *Buffer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if b.size == 0 {
		return 0, io.EOF
	}
	n := 0
	for n < len(p) && b.head != nil {
		s := b.head
		c := copy(p[n:], s.data[s.pos:s.limit])
		s.pos += c
		n += c
		b.size -= int64(c)
		if s.pos == s.limit {
			b.head = s.pop()
			pool.recycle(s)
		}
	}
	return n, nil
}

// ReadByte removes and returns the first byte, or io.EOF when empty.
func (b *Buffer) ReadByte() (byte, error) {
	if b.size == 0 {
		return 0, io.EOF
	}
	s := b.head
	c := s.data[s.pos]
	s.pos++
	b.size--
	if s.pos == s.limit {
		b.head = s.pop()
		pool.recycle(s)
	}
	return c, nil
}

// Skip discards up to n bytes without copying them out and returns the number
// discarded. Segment recycling matches Read.
func (b *Buffer) Skip(n int64) int64 {
	var skipped int64
	for skipped < n && b.head != nil {
		s := b.head
		c := int64(s.limit - s.pos)
		if c > n-skipped {
			c = n - skipped
		}
		s.pos += int(c)
		b.size -= c
		skipped += c
		if s.pos == s.limit {
			b.head = s.pop()
			pool.recycle(s)
		}
	}
	return skipped
}

// Clear discards all readable bytes, recycling every segment.
func (b *Buffer) Clear() {
	b.Skip(b.size)
}

// Peek returns a non-destructive copy of the buffer. The copy aliases the
// original's segment arrays copy-on-write: neither side observes the other's
// subsequent reads or writes, and no bytes are copied until a write actually
// diverges a shared segment.
func (b *Buffer) Peek() *Buffer {
	out := &Buffer{}
	if b.size == 0 {
		return out
	}
	hc := b.head.sharedCopy()
	hc.prev = hc
	hc.next = hc
	out.head = hc
	for s := b.head.next; s != b.head; s = s.next {
		out.head.prev.push(s.sharedCopy())
	}
	out.size = b.size
	return out
}

// MoveFrom removes byteCount bytes from src and appends them to b. Whole
// segments travel by pointer reassignment in O(1); only a fractional segment
// at the boundary is copied (or split off as a shared view when large enough).
func (b *Buffer) MoveFrom(src *Buffer, byteCount int64) error {
	// Ownership of every moved byte changes hands exactly once.
	if src == nil || src == b {
		return errors.New("buffer: source must be a distinct buffer")
	}
	if byteCount < 0 || byteCount > src.size {
		return fmt.Errorf("buffer: move %d bytes, source holds %d: %w",
			byteCount, src.size, ErrOutOfRange)
	}
	for byteCount > 0 {
		if byteCount < int64(src.head.limit-src.head.pos) {
			// A fraction of src's head is wanted. Copy it into our tail if it
			// fits, otherwise split src's head and fall through to a move.
			var tail *segment
			if b.head != nil {
				tail = b.head.prev
			}
			if tail != nil && tail.owner && !tail.shared &&
				byteCount+int64(tail.limit-tail.pos) <= SegmentSize {
				src.head.writeTo(tail, int(byteCount))
				src.size -= byteCount
				b.size += byteCount
				return nil
			}
			src.head = src.head.split(int(byteCount))
		}

		// Relink src's head segment onto our tail.
		moved := src.head
		movedBytes := int64(moved.limit - moved.pos)
		src.head = moved.pop()
		if b.head == nil {
			b.head = moved
			moved.prev = moved
			moved.next = moved
		} else {
			tail := b.head.prev.push(moved)
			tail.compact()
		}
		src.size -= movedBytes
		b.size += movedBytes
		byteCount -= movedBytes
	}
	return nil
}

// ReadOnceFrom performs a single Read from r into the tail segment, appending
// at most max bytes. It is the fill primitive used by Source adapters: one
// call never touches more than one segment, so cooperative deadline checks
// run at segment granularity.
func (b *Buffer) ReadOnceFrom(r io.Reader, max int64) (int64, error) {
	if max <= 0 {
		return 0, nil
	}
	s := b.writableSegment(1)
	space := int64(SegmentSize - s.limit)
	if space > max {
		space = max
	}
	n, err := r.Read(s.data[s.limit : s.limit+int(space)])
	if n > 0 {
		s.limit += n
		b.size += int64(n)
	} else if s.pos == s.limit {
		// Nothing arrived and the tail we may have just acquired is empty.
		next := s.pop()
		if b.head == s {
			b.head = next
		}
		pool.recycle(s)
	}
	return int64(n), err
}

// DrainTo writes n bytes from the head of the buffer to w, recycling emptied
// segments. Bytes successfully written to w are consumed even when a later
// write fails; the count written is always returned.
func (b *Buffer) DrainTo(w io.Writer, n int64) (int64, error) {
	if n < 0 || n > b.size {
		return 0, fmt.Errorf("buffer: drain %d bytes, holding %d: %w",
			n, b.size, ErrOutOfRange)
	}
	var written int64
	for written < n {
		s := b.head
		chunk := s.limit - s.pos
		if int64(chunk) > n-written {
			chunk = int(n - written)
		}
		m, err := w.Write(s.data[s.pos : s.pos+chunk])
		s.pos += m
		b.size -= int64(m)
		written += int64(m)
		if s.pos == s.limit {
			b.head = s.pop()
			pool.recycle(s)
		}
		if err != nil {
			return written, err
		}
		if m < chunk {
			return written, io.ErrShortWrite
		}
	}
	return written, nil
}

// ReadFrom appends everything r yields until end of input. Implements
// io.ReaderFrom.
func (b *Buffer) ReadFrom(r io.Reader) (int64, error) {
	var total int64
	for {
		n, err := b.ReadOnceFrom(r, SegmentSize)
		total += n
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

// WriteTo drains the whole buffer into w. Implements io.WriterTo.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	return b.DrainTo(w, b.size)
}

// String describes the buffer for diagnostics without exposing contents.
func (b *Buffer) String() string {
	return fmt.Sprintf("Buffer[size=%d]", b.size)
}
