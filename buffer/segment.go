// File: buffer/segment.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fixed-capacity pooled byte-array node with a readable [pos, limit) window,
// linkable into the circular doubly-linked list that backs Buffer.

package buffer

// SegmentSize is the capacity, in bytes, of every segment in the process.
// All pooling and zero-copy transfer logic assumes this single size.
const SegmentSize = 8192

// shareMinimum is the smallest prefix worth sharing instead of copying when a
// segment is split. Splitting tiny prefixes by aliasing would fragment the
// shared array across many short-lived views.
const shareMinimum = 1024

// segment holds a window of readable bytes over a fixed-size array.
//
// Ownership rules:
//   - owner=true: this segment may extend limit and write into data[limit:].
//   - shared=true: the array is aliased by another segment; bytes inside any
//     window are read-only and the segment must never be recycled.
//
// Appending to a segment that is shared is forbidden even for the owner, so
// no array is ever mutated while two live segments reference it.
type segment struct {
	data   []byte
	pos    int
	limit  int
	shared bool
	owner  bool
	prev   *segment
	next   *segment
}

func newSegment() *segment {
	return &segment{data: make([]byte, SegmentSize), owner: true}
}

// sharedCopy returns a new segment aliasing the same array, marking both as
// shared. The copy is not an owner: it may never append or be recycled.
func (s *segment) sharedCopy() *segment {
	s.shared = true
	return &segment{
		data:   s.data,
		pos:    s.pos,
		limit:  s.limit,
		shared: true,
		owner:  false,
	}
}

// unsharedCopy returns a deep copy backed by a freshly owned array.
func (s *segment) unsharedCopy() *segment {
	data := make([]byte, SegmentSize)
	copy(data, s.data)
	return &segment{
		data:  data,
		pos:   s.pos,
		limit: s.limit,
		owner: true,
	}
}

// push inserts node after s in the ring and returns node.
func (s *segment) push(node *segment) *segment {
	node.prev = s
	node.next = s.next
	s.next.prev = node
	s.next = node
	return node
}

// pop unlinks s from the ring and returns its successor, or nil when s was
// the only element.
func (s *segment) pop() *segment {
	result := s.next
	if result == s {
		result = nil
	}
	s.prev.next = s.next
	s.next.prev = s.prev
	s.prev = nil
	s.next = nil
	return result
}

// split carves the first byteCount readable bytes into a new segment inserted
// immediately before s, and returns that prefix. Large prefixes alias the
// array via sharedCopy; small ones are copied into a pooled segment so the
// original array is not pinned by a short view.
func (s *segment) split(byteCount int) *segment {
	if byteCount <= 0 || byteCount > s.limit-s.pos {
		panic("segment: split byteCount out of range")
	}
	var prefix *segment
	if byteCount >= shareMinimum {
		prefix = s.sharedCopy()
	} else {
		prefix = pool.acquire()
		copy(prefix.data, s.data[s.pos:s.pos+byteCount])
	}
	prefix.limit = prefix.pos + byteCount
	s.pos += byteCount
	s.prev.push(prefix)
	return prefix
}

// writeTo moves byteCount bytes from s into sink, compacting sink's window to
// the front of its array first when the tail space alone does not suffice.
func (s *segment) writeTo(sink *segment, byteCount int) {
	if !sink.owner {
		panic("segment: writeTo on a read-only sink")
	}
	if sink.limit+byteCount > SegmentSize {
		// Shift sink's window to the front to make room.
		if sink.shared {
			panic("segment: cannot compact a shared sink")
		}
		if sink.limit+byteCount-sink.pos > SegmentSize {
			panic("segment: writeTo byteCount does not fit")
		}
		copy(sink.data, sink.data[sink.pos:sink.limit])
		sink.limit -= sink.pos
		sink.pos = 0
	}
	copy(sink.data[sink.limit:], s.data[s.pos:s.pos+byteCount])
	sink.limit += byteCount
	s.pos += byteCount
}

// compact folds s into its predecessor when the predecessor has room, then
// recycles s. Called after a segment move to avoid two half-empty tails.
func (s *segment) compact() {
	if s.prev == s {
		panic("segment: cannot compact a singleton ring")
	}
	if !s.prev.owner || s.prev.shared {
		return
	}
	byteCount := s.limit - s.pos
	available := SegmentSize - s.prev.limit + s.prev.pos
	if byteCount > available {
		return
	}
	s.writeTo(s.prev, byteCount)
	s.pop()
	pool.recycle(s)
}
