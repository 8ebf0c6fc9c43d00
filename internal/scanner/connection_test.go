package scanner

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/probelab/cipherprobe/internal/result"
)

// listenTCP opens a loopback listener and returns it with its endpoint.
func listenTCP(t *testing.T) (net.Listener, Endpoint) {
	t.Helper()

	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	addr := ln.Addr().(*net.TCPAddr)
	return ln, Endpoint{
		Network: "tcp4",
		IP:      addr.IP,
		Port:    addr.Port,
	}
}

// closedEndpoint returns an endpoint whose port was just released, so
// connecting to it is refused.
func closedEndpoint(t *testing.T) Endpoint {
	t.Helper()

	ln, ep := listenTCP(t)
	if err := ln.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return ep
}

// TestDialerConnect tests in-order candidate fallback.
func TestDialerConnect(t *testing.T) {
	t.Parallel()

	t.Run("first reachable candidate wins", func(t *testing.T) {
		t.Parallel()

		_, open := listenTCP(t)
		d := NewDialer(2 * time.Second)

		res := d.Connect(context.Background(), "fallback.test", []Endpoint{open})
		conn, err := res.Get()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer func() { _ = conn.Close() }()

		if conn.Endpoint().Addr() != open.Addr() {
			t.Errorf("expected %q, got %q", open.Addr(), conn.Endpoint().Addr())
		}
	})

	t.Run("earlier failures are skipped, not surfaced", func(t *testing.T) {
		t.Parallel()

		bad1 := closedEndpoint(t)
		bad2 := closedEndpoint(t)
		_, good := listenTCP(t)

		d := NewDialer(2 * time.Second)
		res := d.Connect(context.Background(), "fallback.test", []Endpoint{bad1, bad2, good})

		conn, err := res.Get()
		if err != nil {
			t.Fatalf("expected the last candidate to connect, got %v", err)
		}
		defer func() { _ = conn.Close() }()

		if conn.Endpoint().Addr() != good.Addr() {
			t.Errorf("expected %q, got %q", good.Addr(), conn.Endpoint().Addr())
		}
	})

	t.Run("exhausted candidates yield AggregateConnectError", func(t *testing.T) {
		t.Parallel()

		bad := closedEndpoint(t)
		d := NewDialer(2 * time.Second)

		res := d.Connect(context.Background(), "dead.test", []Endpoint{bad})
		if res.IsSuccess() {
			t.Fatal("expected failure")
		}
		if !result.HasFailureOf[*AggregateConnectError](res) {
			t.Fatalf("expected AggregateConnectError, got %v", res.Err())
		}
		// The concrete socket failure stays reachable for diagnostics.
		if !result.HasFailureOf[*SocketError](res) {
			t.Errorf("expected a SocketError in the chain, got %v", res.Err())
		}
	})

	t.Run("no candidates yields AggregateConnectError", func(t *testing.T) {
		t.Parallel()

		d := NewDialer(2 * time.Second)
		res := d.Connect(context.Background(), "empty.test", nil)
		if !result.HasFailureOf[*AggregateConnectError](res) {
			t.Errorf("expected AggregateConnectError, got %v", res.Err())
		}
	})

	t.Run("cancelled context stops the fallback chain", func(t *testing.T) {
		t.Parallel()

		bad := closedEndpoint(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		d := NewDialer(2 * time.Second)
		res := d.Connect(ctx, "cancelled.test", []Endpoint{bad, bad})
		if res.IsSuccess() {
			t.Fatal("expected failure")
		}
		if !res.FailureIs(context.Canceled) {
			t.Errorf("expected context.Canceled in chain, got %v", res.Err())
		}
	})
}

// TestConnectionClose tests exactly-once socket release.
func TestConnectionClose(t *testing.T) {
	t.Parallel()

	ln, ep := listenTCP(t)
	go func() {
		c, err := ln.Accept()
		if err == nil {
			_ = c.Close()
		}
	}()

	raw, err := net.Dial(ep.Network, ep.Addr())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	conn := NewConnection(raw, ep)
	if err := conn.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	// Second close must not double-release; it repeats the first result.
	if err := conn.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}

// TestSocketErrorErrno tests errno extraction from a refused connect.
func TestSocketErrorErrno(t *testing.T) {
	t.Parallel()

	bad := closedEndpoint(t)
	_, err := net.Dial(bad.Network, bad.Addr())
	if err == nil {
		t.Skip("port was reused between close and dial")
	}

	sockErr := newSocketError("connect", bad.Addr(), err)
	if _, ok := sockErr.Errno(); !ok {
		t.Errorf("expected an errno in %v", sockErr)
	}
	if msg := sockErr.Error(); msg == "" {
		t.Error("expected a non-empty message")
	}
}

// TestEndpointAddr tests host:port formatting including IPv6 zones.
func TestEndpointAddr(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ep   Endpoint
		want string
	}{
		{
			name: "ipv4",
			ep:   Endpoint{Network: "tcp4", IP: net.IPv4(192, 0, 2, 1), Port: 8443},
			want: "192.0.2.1:8443",
		},
		{
			name: "ipv6",
			ep:   Endpoint{Network: "tcp6", IP: net.ParseIP("2001:db8::1"), Port: 443},
			want: "[2001:db8::1]:443",
		},
		{
			name: "ipv6 with zone",
			ep:   Endpoint{Network: "tcp6", IP: net.ParseIP("fe80::1"), Port: 443, Zone: "eth0"},
			want: "[fe80::1%eth0]:443",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.ep.Addr(); got != tt.want {
				t.Errorf("Addr() = %q, want %q", got, tt.want)
			}
		})
	}
}
