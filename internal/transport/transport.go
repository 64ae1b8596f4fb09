// Package transport implements the synchronous, blocking TCP connection
// the protocol driver speaks over: exact-length reads and writes, no
// buffering, no reconnection within a session.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"
)

// ErrIO wraps socket-level failures: dial failure, short read/write, and
// EOF mid-frame.
var ErrIO = errors.New("transport: io error")

// Conn wraps one TCP connection and its optional read deadline.
type Conn struct {
	conn        net.Conn
	readTimeout time.Duration
}

// Dial opens a single TCP connection to addr. connectTimeout of zero
// means no deadline, preserving source parity (spec.md §5's default).
func Dial(addr string, connectTimeout, readTimeout time.Duration) (*Conn, error) {
	dialer := net.Dialer{Timeout: connectTimeout}
	conn, err := dialer.DialContext(context.Background(), "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrIO, addr, err)
	}
	return &Conn{conn: conn, readTimeout: readTimeout}, nil
}

// SendExact writes every byte of buf or fails with ErrIO.
func (c *Conn) SendExact(buf []byte) error {
	if _, err := c.conn.Write(buf); err != nil {
		return fmt.Errorf("%w: write: %v", ErrIO, err)
	}
	return nil
}

// RecvExact reads exactly n bytes, failing with ErrIO on any short read
// or EOF before n bytes are available.
func (c *Conn) RecvExact(n int) ([]byte, error) {
	if c.readTimeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
			return nil, fmt.Errorf("%w: set read deadline: %v", ErrIO, err)
		}
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(c.conn, buf); err != nil {
		return nil, fmt.Errorf("%w: read %d bytes: %v", ErrIO, n, err)
	}
	return buf, nil
}

// Close closes the connection. Half-close is never used: the protocol
// only ever fully closes on normal termination or a fatal error.
func (c *Conn) Close() error {
	if err := c.conn.Close(); err != nil {
		return fmt.Errorf("%w: close: %v", ErrIO, err)
	}
	return nil
}
