// control/metrics.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Runtime metrics collector for the buffering subsystem. Exposes counters in
// a thread-safe map with dynamic registration, plus collectors that publish
// segment-pool and watchdog snapshots for diagnostics.

package control

import (
	"sync"
	"time"

	"github.com/momentics/hioload-io/buffer"
	"github.com/momentics/hioload-io/timeout"
)

// MetricsRegistry holds mutable and read-only metrics.
type MetricsRegistry struct {
	mu      sync.RWMutex
	metrics map[string]any
	updated time.Time
}

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		metrics: make(map[string]any),
	}
}

// Set sets or updates a metric key.
func (mr *MetricsRegistry) Set(key string, value any) {
	mr.mu.Lock()
	mr.metrics[key] = value
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// GetSnapshot returns the latest metrics.
func (mr *MetricsRegistry) GetSnapshot() map[string]any {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	out := make(map[string]any, len(mr.metrics))
	for k, v := range mr.metrics {
		out[k] = v
	}
	return out
}

// CollectPool publishes the current segment-pool counters.
func (mr *MetricsRegistry) CollectPool() {
	s := buffer.ReadPoolStats()
	mr.mu.Lock()
	mr.metrics["pool.bytes"] = s.PooledBytes
	mr.metrics["pool.acquires"] = s.Acquires
	mr.metrics["pool.recycles"] = s.Recycles
	mr.metrics["pool.allocs"] = s.Allocs
	mr.metrics["pool.discards"] = s.Discards
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// CollectWatchdog publishes the current watchdog counters.
func (mr *MetricsRegistry) CollectWatchdog() {
	s := timeout.ReadWatchdogStats()
	mr.mu.Lock()
	mr.metrics["watchdog.entered"] = s.Entered
	mr.metrics["watchdog.exited"] = s.Exited
	mr.metrics["watchdog.fired"] = s.Fired
	mr.metrics["watchdog.active"] = s.Active
	mr.updated = time.Now()
	mr.mu.Unlock()
}
