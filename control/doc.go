// Package control
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Runtime metrics and debug introspection layer for the buffering subsystem.
//
// Provides concurrent-safe observability primitives:
//   - Metrics registry with segment-pool and watchdog collectors
//   - Debug hooks and probe registration for state dumps
package control
