// File: fake/conn.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fake net.Conn implementations for exercising timeout and failure paths.

package fake

import (
	"io"
	"net"
	"sync"
	"time"
)

type fakeAddr struct{}

func (fakeAddr) Network() string { return "fake" }
func (fakeAddr) String() string  { return "fake" }

// HangConn is a net.Conn whose Read blocks until the conn is closed, standing
// in for a peer that never sends. Close is idempotent and safe to call
// concurrently with a blocked Read.
type HangConn struct {
	once   sync.Once
	closed chan struct{}
}

// NewHangConn returns a conn that hangs on Read.
func NewHangConn() *HangConn {
	return &HangConn{closed: make(chan struct{})}
}

func (c *HangConn) Read(p []byte) (int, error) {
	<-c.closed
	return 0, net.ErrClosed
}

func (c *HangConn) Write(p []byte) (int, error) {
	select {
	case <-c.closed:
		return 0, net.ErrClosed
	default:
		return len(p), nil
	}
}

func (c *HangConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *HangConn) LocalAddr() net.Addr                { return fakeAddr{} }
func (c *HangConn) RemoteAddr() net.Addr               { return fakeAddr{} }
func (c *HangConn) SetDeadline(t time.Time) error      { return nil }
func (c *HangConn) SetReadDeadline(t time.Time) error  { return nil }
func (c *HangConn) SetWriteDeadline(t time.Time) error { return nil }

// SlowConn delivers Data once, after Delay, regardless of Close: it models a
// peer whose bytes land just after a deadline has already expired.
type SlowConn struct {
	Delay time.Duration
	Data  []byte

	read bool
}

func (c *SlowConn) Read(p []byte) (int, error) {
	if c.read {
		return 0, io.EOF
	}
	time.Sleep(c.Delay)
	c.read = true
	return copy(p, c.Data), nil
}

func (c *SlowConn) Write(p []byte) (int, error) { return len(p), nil }
func (c *SlowConn) Close() error                { return nil }

func (c *SlowConn) LocalAddr() net.Addr                { return fakeAddr{} }
func (c *SlowConn) RemoteAddr() net.Addr               { return fakeAddr{} }
func (c *SlowConn) SetDeadline(t time.Time) error      { return nil }
func (c *SlowConn) SetReadDeadline(t time.Time) error  { return nil }
func (c *SlowConn) SetWriteDeadline(t time.Time) error { return nil }

// FailConn yields Data and then fails every operation with Err, standing in
// for a transport that breaks mid-stream.
type FailConn struct {
	Data []byte
	Err  error

	off int
}

func (c *FailConn) Read(p []byte) (int, error) {
	if c.off < len(c.Data) {
		n := copy(p, c.Data[c.off:])
		c.off += n
		return n, nil
	}
	return 0, c.Err
}

func (c *FailConn) Write(p []byte) (int, error) { return 0, c.Err }
func (c *FailConn) Close() error                { return nil }

func (c *FailConn) LocalAddr() net.Addr                { return fakeAddr{} }
func (c *FailConn) RemoteAddr() net.Addr               { return fakeAddr{} }
func (c *FailConn) SetDeadline(t time.Time) error      { return nil }
func (c *FailConn) SetReadDeadline(t time.Time) error  { return nil }
func (c *FailConn) SetWriteDeadline(t time.Time) error { return nil }
