package transport

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTCPListenDial(t *testing.T) {
	l, err := Listen("/ip4/127.0.0.1/tcp/0")
	require.NoError(t, err)
	defer l.Close()

	assert.NotContains(t, l.Multiaddr().String(), "/tcp/0")

	accepted := make(chan []byte, 1)
	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 5)
		io.ReadFull(conn, buf)
		accepted <- buf
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, err := Dial(ctx, l.Multiaddr().String())
	require.NoError(t, err)
	defer conn.Close()

	assert.True(t, strings.HasPrefix(RemoteMultiaddr(conn), "/ip4/127.0.0.1/tcp/"))

	_, err = conn.Write([]byte("hello"))
	require.NoError(t, err)

	select {
	case got := <-accepted:
		assert.Equal(t, []byte("hello"), got)
	case <-time.After(2 * time.Second):
		t.Fatal("nothing accepted")
	}
}

func TestListenRejectsBadAddress(t *testing.T) {
	_, err := Listen("127.0.0.1:5277")
	assert.Error(t, err)
}

func TestWebSocketStream(t *testing.T) {
	received := make(chan []byte, 1)
	srv := httptest.NewServer(WebSocketHandler(func(conn *WSConn) {
		// two writes on the far side arrive as one stream
		buf := make([]byte, 6)
		if _, err := io.ReadFull(conn, buf); err != nil {
			return
		}
		received <- buf
		conn.Write(bytes.ToUpper(buf))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, err := DialWebSocket(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"))
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("abc"))
	require.NoError(t, err)
	_, err = conn.Write([]byte("def"))
	require.NoError(t, err)

	select {
	case got := <-received:
		assert.Equal(t, []byte("abcdef"), got)
	case <-time.After(2 * time.Second):
		t.Fatal("server read nothing")
	}

	reply := make([]byte, 6)
	_, err = io.ReadFull(conn, reply)
	require.NoError(t, err)
	assert.Equal(t, []byte("ABCDEF"), reply)
}
