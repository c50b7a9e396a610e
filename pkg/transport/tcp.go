// Package transport provides the byte streams a messenger runs over:
// TCP addressed by multiaddr, and binary websocket messages.
package transport

import (
	"context"
	"fmt"
	"net"

	"github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"
)

// Listener accepts links on a multiaddr such as /ip4/0.0.0.0/tcp/5277
type Listener struct {
	net.Listener
	addr multiaddr.Multiaddr
}

// Listen binds addr
func Listen(addr string) (*Listener, error) {
	maddr, err := multiaddr.NewMultiaddr(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid listen address %q: %w", addr, err)
	}

	l, err := manet.Listen(maddr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", maddr, err)
	}

	return &Listener{
		Listener: manet.NetListener(l),
		addr:     l.Multiaddr(),
	}, nil
}

// Multiaddr is the bound address, with the real port when 0 was requested
func (l *Listener) Multiaddr() multiaddr.Multiaddr {
	return l.addr
}

// Dial connects to a multiaddr
func Dial(ctx context.Context, addr string) (net.Conn, error) {
	maddr, err := multiaddr.NewMultiaddr(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid dial address %q: %w", addr, err)
	}

	var d manet.Dialer
	conn, err := d.DialContext(ctx, maddr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", maddr, err)
	}
	return conn, nil
}

// RemoteMultiaddr renders conn's peer as a multiaddr string, falling back to
// the plain network address
func RemoteMultiaddr(conn net.Conn) string {
	maddr, err := manet.FromNetAddr(conn.RemoteAddr())
	if err != nil {
		return conn.RemoteAddr().String()
	}
	return maddr.String()
}
