package transport

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listenLoopback(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	return ln
}

func TestDialSendRecv(t *testing.T) {
	ln := listenLoopback(t)

	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		conn, err := ln.Accept()
		require.NoError(t, err)
		defer conn.Close()

		buf := make([]byte, 5)
		_, err = conn.Read(buf)
		require.NoError(t, err)
		assert.Equal(t, []byte("hello"), buf)

		_, err = conn.Write([]byte("world"))
		require.NoError(t, err)
	}()

	c, err := Dial(ln.Addr().String(), 0, 0)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.SendExact([]byte("hello")))
	got, err := c.RecvExact(5)
	require.NoError(t, err)
	assert.Equal(t, []byte("world"), got)

	<-serverDone
}

func TestRecvExactShortReadFails(t *testing.T) {
	ln := listenLoopback(t)

	go func() {
		conn, err := ln.Accept()
		require.NoError(t, err)
		defer conn.Close()
		_, _ = conn.Write([]byte("ab"))
	}()

	c, err := Dial(ln.Addr().String(), 0, 0)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.RecvExact(10)
	assert.ErrorIs(t, err, ErrIO)
}

func TestDialFailsOnUnreachableAddress(t *testing.T) {
	_, err := Dial("127.0.0.1:1", 200*time.Millisecond, 0)
	assert.ErrorIs(t, err, ErrIO)
}
