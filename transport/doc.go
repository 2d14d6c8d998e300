// File: transport/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package transport bridges the Source/Sink streaming contracts to concrete
// byte producers and consumers: in-memory slices, io.Reader/io.Writer pairs,
// files, net.Conn sockets, and raw Linux file descriptors.
//
// Two deadline mechanisms coexist. Adapters whose underlying calls return
// promptly (memory, files) check the attached Timeout cooperatively after
// each segment-sized chunk. Adapters that can park in a blocking transport
// call (sockets, raw descriptors) additionally register with the AsyncTimeout
// watchdog around every blocking call, so an expired deadline force-closes
// the resource and the call fails with a timeout instead of hanging.
package transport
