// File: buffer/pool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Process-wide bounded free list of segments. Keeps up to MaxPoolBytes of
// retained capacity regardless of how many buffers exist; everything beyond
// the ceiling is dropped for normal GC reclamation.

package buffer

import (
	"sync"

	"github.com/eapache/queue"
)

// MaxPoolBytes caps the total capacity retained by the segment pool.
const MaxPoolBytes = 64 * SegmentSize

// PoolStats is a snapshot of the segment pool counters. Acquires and Recycles
// grow monotonically; Allocs counts fresh array allocations (acquires that
// missed the free list) and Discards counts recycles dropped at the ceiling.
type PoolStats struct {
	PooledBytes int64
	Acquires    int64
	Recycles    int64
	Allocs      int64
	Discards    int64
}

type segmentPool struct {
	mu    sync.Mutex
	free  *queue.Queue
	stats PoolStats
}

var pool = &segmentPool{free: queue.New()}

// acquire returns a ready-to-write segment, reusing a pooled one when
// available. Never fails: allocation failure is fatal, not recoverable.
func (p *segmentPool) acquire() *segment {
	p.mu.Lock()
	p.stats.Acquires++
	if p.free.Length() > 0 {
		s := p.free.Remove().(*segment)
		p.stats.PooledBytes -= SegmentSize
		p.mu.Unlock()
		return s
	}
	p.stats.Allocs++
	p.mu.Unlock()
	return newSegment()
}

// recycle offers a fully-consumed, unlinked segment back to the free list.
// Shared segments have no single owner and are never pooled; offers beyond
// the byte ceiling are discarded.
func (p *segmentPool) recycle(s *segment) {
	if s.shared {
		return
	}
	if s.prev != nil || s.next != nil {
		panic("buffer: recycling a linked segment")
	}
	s.pos = 0
	s.limit = 0
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.Recycles++
	if p.stats.PooledBytes+SegmentSize > MaxPoolBytes {
		p.stats.Discards++
		return
	}
	p.stats.PooledBytes += SegmentSize
	p.free.Add(s)
}

func (p *segmentPool) snapshot() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// ReadPoolStats returns a snapshot of the process-wide segment pool counters.
// Useful for verifying that hot paths stay allocation-free.
func ReadPoolStats() PoolStats {
	return pool.snapshot()
}
