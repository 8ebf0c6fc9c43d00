package scanner

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/probelab/cipherprobe/internal/result"
)

// Connection is the exclusive owner of one established socket. It is not
// safe to share between tasks; the worker that obtained it closes it.
// Close is idempotent: the socket is released exactly once no matter how
// many paths reach it.
type Connection struct {
	conn      net.Conn
	endpoint  Endpoint
	closeOnce sync.Once
	closeErr  error
}

// NewConnection wraps an established net.Conn with its endpoint. The
// Connection takes ownership; the caller must not close conn directly.
func NewConnection(conn net.Conn, endpoint Endpoint) *Connection {
	return &Connection{conn: conn, endpoint: endpoint}
}

// NetConn returns the underlying connection for layering a TLS client on
// top. Ownership stays with the Connection.
func (c *Connection) NetConn() net.Conn { return c.conn }

// Endpoint returns the candidate this connection was established to.
func (c *Connection) Endpoint() Endpoint { return c.endpoint }

// Close releases the socket. Only the first call closes; later calls
// return the first call's error.
func (c *Connection) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

// Connector turns resolved endpoint candidates into one established
// connection. It exists as an interface so the orchestrator can be tested
// without touching the network.
type Connector interface {
	Connect(ctx context.Context, host string, endpoints []Endpoint) result.Result[*Connection]
}

// Dialer connects to the first reachable endpoint candidate, trying them
// strictly in resolver order.
type Dialer struct {
	// dialer carries the per-attempt connect timeout.
	dialer *net.Dialer

	// logger records per-candidate failures, which are otherwise dropped.
	logger *slog.Logger
}

// DialerOption configures a Dialer.
type DialerOption func(*Dialer)

// WithDialerLogger sets a custom logger for per-candidate diagnostics.
func WithDialerLogger(logger *slog.Logger) DialerOption {
	return func(d *Dialer) {
		d.logger = logger
	}
}

// NewDialer creates a Dialer with the given per-attempt connect timeout.
// A non-positive timeout means the OS default, which can block a worker
// for minutes on unreachable hosts; callers should pass a real timeout.
func NewDialer(connectTimeout time.Duration, opts ...DialerOption) *Dialer {
	d := &Dialer{dialer: &net.Dialer{Timeout: connectTimeout}}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// Connect tries each endpoint in order: open a socket for the endpoint's
// network and connect it. A candidate failure is logged as a *SocketError
// and the next candidate is tried; it never aborts the whole attempt.
// When every candidate fails the result is an *AggregateConnectError.
// On success the caller receives exclusive ownership of the connection.
func (d *Dialer) Connect(ctx context.Context, host string, endpoints []Endpoint) result.Result[*Connection] {
	var lastErr error

	for i, ep := range endpoints {
		if err := ctx.Err(); err != nil {
			return result.Failure[*Connection](&AggregateConnectError{
				Host:     host,
				Attempts: i,
				LastErr:  err,
			})
		}

		conn, err := d.dialer.DialContext(ctx, ep.Network, ep.Addr())
		if err != nil {
			sockErr := newSocketError("connect", ep.Addr(), err)
			d.logger.Warn("endpoint candidate failed",
				"host", host,
				"candidate", i+1,
				"of", len(endpoints),
				"error", sockErr,
			)
			lastErr = sockErr
			continue
		}

		d.logger.Debug("connected",
			"host", host,
			"endpoint", ep.Addr(),
			"candidate", i+1,
		)
		return result.Success(NewConnection(conn, ep))
	}

	return result.FailureOf[*Connection](&AggregateConnectError{
		Host:     host,
		Attempts: len(endpoints),
		LastErr:  lastErr,
	})
}
