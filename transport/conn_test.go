// File: transport/conn_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import (
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-io/api"
	"github.com/momentics/hioload-io/buffer"
	"github.com/momentics/hioload-io/fake"
)

func TestConnSource_WatchdogTimesOutBlockedRead(t *testing.T) {
	conn := fake.NewHangConn()
	src := NewConnSource(conn)
	src.Timeout().SetDuration(50 * time.Millisecond)

	var sink buffer.Buffer
	start := time.Now()
	_, err := src.Read(&sink, 100)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, api.IsTimeout(err), "watchdog close must surface as timeout, got %v", err)
	assert.Equal(t, api.CodeTimeout, api.Classify(err))
	assert.GreaterOrEqual(t, elapsed, 45*time.Millisecond)
	assert.Less(t, elapsed, time.Second, "blocked read must not hang past the deadline")
}

func TestConnSource_LateArrivalStillReportsTimeout(t *testing.T) {
	// Bytes that land after the watchdog has fired are kept and counted, but
	// the deadline is reported on this call. The conn is already force-closed,
	// so deferring the error would misreport it as a closed-conn failure on
	// the next read.
	src := NewConnSource(&fake.SlowConn{Delay: 120 * time.Millisecond, Data: []byte("late")})
	src.Timeout().SetDuration(20 * time.Millisecond)

	var sink buffer.Buffer
	n, err := src.Read(&sink, 100)

	require.Error(t, err)
	assert.True(t, api.IsTimeout(err), "got %v", err)
	assert.Equal(t, int64(4), n, "delivered bytes must still be counted")
	assert.Equal(t, int64(4), sink.Size())
}

func TestConnSource_TransportErrorPassesThrough(t *testing.T) {
	cause := errors.New("connection reset by peer")
	src := NewConnSource(&fake.FailConn{Data: pattern(10), Err: cause})

	var sink buffer.Buffer
	n, err := src.Read(&sink, 100)
	require.NoError(t, err)
	require.Equal(t, int64(10), n)

	_, err = src.Read(&sink, 100)
	require.ErrorIs(t, err, cause)
	assert.Equal(t, api.CodeTransport, api.Classify(err))
}

func TestConnSource_EndOfInput(t *testing.T) {
	src := NewConnSource(&fake.FailConn{Err: io.EOF})
	var sink buffer.Buffer
	_, err := src.Read(&sink, 100)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, api.CodeEndOfInput, api.Classify(err))
}

func TestConnSource_ThreeWayDistinction(t *testing.T) {
	// The three outcomes higher layers base retry policy on must stay
	// distinct: graceful end, deadline, transport failure.
	var sink buffer.Buffer

	finite := NewConnSource(&fake.FailConn{Err: io.EOF})
	_, endErr := finite.Read(&sink, 1)

	hung := NewConnSource(fake.NewHangConn())
	hung.Timeout().SetDuration(30 * time.Millisecond)
	_, timeoutErr := hung.Read(&sink, 1)

	broken := NewConnSource(&fake.FailConn{Err: errors.New("wire fault")})
	_, transportErr := broken.Read(&sink, 1)

	assert.Equal(t, api.CodeEndOfInput, api.Classify(endErr))
	assert.Equal(t, api.CodeTimeout, api.Classify(timeoutErr))
	assert.Equal(t, api.CodeTransport, api.Classify(transportErr))
}

func TestConnSource_CloseIdempotentAndConcurrent(t *testing.T) {
	src := NewConnSource(fake.NewHangConn())
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, src.Close())
		}()
	}
	wg.Wait()
	require.NoError(t, src.Close())
}

func TestConnSource_OwnerCloseRacesWatchdog(t *testing.T) {
	conn := fake.NewHangConn()
	src := NewConnSource(conn)
	src.Timeout().SetDuration(20 * time.Millisecond)

	var sink buffer.Buffer
	done := make(chan struct{})
	go func() {
		defer close(done)
		src.Read(&sink, 1)
	}()

	// Owner closes while the watchdog may be firing; neither side may panic
	// or deadlock.
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, src.Close())
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("read did not unblock")
	}
}

func TestConnPipe_RoundTrip(t *testing.T) {
	client, server := net.Pipe()
	src := NewConnSource(server)
	snk := NewConnSink(client)

	in := pattern(3000)
	var fromClient buffer.Buffer
	fromClient.Write(in)

	go func() {
		assert.NoError(t, snk.Write(&fromClient, int64(len(in))))
		snk.Close()
	}()

	var got buffer.Buffer
	for got.Size() < int64(len(in)) {
		_, err := src.Read(&got, int64(len(in)))
		require.NoError(t, err)
	}
	out := make([]byte, len(in))
	read := 0
	for read < len(in) {
		n, err := got.Read(out[read:])
		require.NoError(t, err)
		read += n
	}
	assert.Equal(t, in, out)
	src.Close()
}

func TestConnSink_WatchdogTimesOutBlockedWrite(t *testing.T) {
	client, _ := net.Pipe() // no reader: Write blocks forever
	snk := NewConnSink(client)
	snk.Timeout().SetDuration(50 * time.Millisecond)

	var staging buffer.Buffer
	staging.Write(pattern(100))

	start := time.Now()
	err := snk.Write(&staging, 100)
	require.Error(t, err)
	assert.True(t, api.IsTimeout(err), "got %v", err)
	assert.Less(t, time.Since(start), time.Second)
}
