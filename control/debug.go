// control/debug.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Runtime debug probes for internal inspection of the buffering subsystem.

package control

import (
	"sync"

	"github.com/momentics/hioload-io/buffer"
	"github.com/momentics/hioload-io/timeout"
)

// DebugProbes holds registered probe functions.
type DebugProbes struct {
	mu     sync.RWMutex
	probes map[string]func() any
}

// NewDebugProbes creates a probe registry pre-wired with probes for the
// segment pool and the timeout watchdog.
func NewDebugProbes() *DebugProbes {
	dp := &DebugProbes{
		probes: make(map[string]func() any),
	}
	dp.RegisterProbe("segmentpool", func() any { return buffer.ReadPoolStats() })
	dp.RegisterProbe("watchdog", func() any { return timeout.ReadWatchdogStats() })
	return dp
}

// RegisterProbe inserts a named debug hook.
func (dp *DebugProbes) RegisterProbe(name string, fn func() any) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.probes[name] = fn
}

// DumpState returns output of all probes.
func (dp *DebugProbes) DumpState() map[string]any {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	out := make(map[string]any)
	for k, fn := range dp.probes {
		out[k] = fn()
	}
	return out
}
