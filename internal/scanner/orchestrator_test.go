package scanner

import (
	"context"
	"io"
	"log/slog"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/probelab/cipherprobe/internal/model"
	"github.com/probelab/cipherprobe/internal/result"
)

// stubResolver returns canned endpoints, optionally gating so tests can
// observe how many hosts are mid-flight at once.
type stubResolver struct {
	err     error
	failFor map[string]error
	gate    func(host string)
}

func (s *stubResolver) ResolveHost(_ context.Context, host, _ string, _ Family) result.Result[[]Endpoint] {
	if s.gate != nil {
		s.gate(host)
	}
	if s.err != nil {
		return result.Failure[[]Endpoint](s.err)
	}
	if err, ok := s.failFor[host]; ok {
		return result.Failure[[]Endpoint](err)
	}
	return result.Success([]Endpoint{{
		Network:   "tcp4",
		IP:        net.IPv4(127, 0, 0, 1),
		Port:      443,
		CanonName: host,
	}})
}

// stubConnector hands out pipe-backed connections or a canned failure.
type stubConnector struct {
	err error
}

func (s *stubConnector) Connect(_ context.Context, _ string, endpoints []Endpoint) result.Result[*Connection] {
	if s.err != nil {
		return result.Failure[*Connection](s.err)
	}
	client, server := net.Pipe()
	go func() { _ = server.Close() }()
	return result.Success(NewConnection(client, endpoints[0]))
}

// testCatalog builds the real catalog once per test.
func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	catalog, err := BuildCatalog(slog.New(slog.NewTextHandler(io.Discard, nil))).Get()
	if err != nil {
		t.Fatalf("catalog build: %v", err)
	}
	return catalog
}

// TestNewOrchestrator tests option handling.
func TestNewOrchestrator(t *testing.T) {
	t.Parallel()

	catalog := testCatalog(t)

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		o := NewOrchestrator(catalog)
		if o.concurrency != DefaultConcurrency {
			t.Errorf("expected default concurrency %d, got %d", DefaultConcurrency, o.concurrency)
		}
		if o.hostDeadline != DefaultHostDeadline {
			t.Errorf("expected default deadline %v, got %v", DefaultHostDeadline, o.hostDeadline)
		}
		if o.defaultService != DefaultService {
			t.Errorf("expected default service %q, got %q", DefaultService, o.defaultService)
		}
	})

	t.Run("non-positive options are ignored", func(t *testing.T) {
		t.Parallel()

		o := NewOrchestrator(catalog, WithConcurrency(0), WithHostDeadline(-time.Second))
		if o.concurrency != DefaultConcurrency {
			t.Errorf("expected default concurrency kept, got %d", o.concurrency)
		}
		if o.hostDeadline != DefaultHostDeadline {
			t.Errorf("expected default deadline kept, got %v", o.hostDeadline)
		}
	})
}

// TestScanCompletesAllHosts tests that every host yields a report in
// input order and walks the full state machine.
func TestScanCompletesAllHosts(t *testing.T) {
	t.Parallel()

	catalog := testCatalog(t)
	o := NewOrchestrator(catalog,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithResolver(&stubResolver{}),
		WithConnector(&stubConnector{}),
	)

	targets := []string{"one.test", "two.test:8443", "three.test"}
	batch, err := o.Scan(context.Background(), targets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(batch.Hosts) != len(targets) {
		t.Fatalf("expected %d reports, got %d", len(targets), len(batch.Hosts))
	}
	for i, report := range batch.Hosts {
		if report == nil {
			t.Fatalf("missing report at index %d", i)
		}
		if report.State != model.StateDone {
			t.Errorf("host %s: expected done, got %s", report.Host, report.State)
		}
		if report.ProbesPrepared != catalog.Size() {
			t.Errorf("host %s: expected %d probes, got %d", report.Host, catalog.Size(), report.ProbesPrepared)
		}
		if report.MethodsProbed != len(catalog.Methods()) {
			t.Errorf("host %s: expected %d methods, got %d", report.Host, len(catalog.Methods()), report.MethodsProbed)
		}
	}

	// Reports stay in input order regardless of completion order.
	if batch.Hosts[1].Host != "two.test" || batch.Hosts[1].Service != "8443" {
		t.Errorf("expected two.test:8443 split into host and service, got %s/%s",
			batch.Hosts[1].Host, batch.Hosts[1].Service)
	}

	done, failed := batch.Summary()
	if done != 3 || failed != 0 {
		t.Errorf("expected 3 done / 0 failed, got %d / %d", done, failed)
	}
}

// TestScanConcurrencyCeiling tests that with H hosts and concurrency K,
// at most K hosts are mid-flight simultaneously.
func TestScanConcurrencyCeiling(t *testing.T) {
	t.Parallel()

	const (
		hosts       = 9
		concurrency = 3
	)

	var current, peak atomic.Int32
	gate := func(string) {
		now := current.Add(1)
		for {
			p := peak.Load()
			if now <= p || peak.CompareAndSwap(p, now) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		current.Add(-1)
	}

	catalog := testCatalog(t)
	o := NewOrchestrator(catalog,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithConcurrency(concurrency),
		WithResolver(&stubResolver{gate: gate}),
		WithConnector(&stubConnector{}),
	)

	targets := make([]string, hosts)
	for i := range targets {
		targets[i] = "host.test"
	}

	batch, err := o.Scan(context.Background(), targets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := peak.Load(); got > concurrency {
		t.Errorf("observed %d hosts mid-flight, ceiling is %d", got, concurrency)
	}
	if done, _ := batch.Summary(); done != hosts {
		t.Errorf("expected all %d hosts done, got %d", hosts, done)
	}
}

// TestScanHostFailureIsIsolated tests that one failing host never aborts
// its siblings.
func TestScanHostFailureIsIsolated(t *testing.T) {
	t.Parallel()

	catalog := testCatalog(t)
	resolver := &stubResolver{
		failFor: map[string]error{
			"bad.test": &AddressResolutionError{Host: "bad.test", Err: context.DeadlineExceeded},
		},
	}
	o := NewOrchestrator(catalog,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithConcurrency(2),
		WithResolver(resolver),
		WithConnector(&stubConnector{}),
	)

	batch, err := o.Scan(context.Background(), []string{"good1.test", "bad.test", "good2.test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	done, failed := batch.Summary()
	if done != 2 || failed != 1 {
		t.Fatalf("expected 2 done / 1 failed, got %d / %d", done, failed)
	}

	bad := batch.Hosts[1]
	if bad.State != model.StateFailed {
		t.Errorf("expected bad.test failed, got %s", bad.State)
	}
	if bad.ErrorKind != model.ErrorKindResolution {
		t.Errorf("expected %s, got %s", model.ErrorKindResolution, bad.ErrorKind)
	}
	if bad.ProbesPrepared != 0 {
		t.Errorf("failed host must not have prepared probes, got %d", bad.ProbesPrepared)
	}
}

// TestScanConnectFailureKind tests connect-stage error classification.
func TestScanConnectFailureKind(t *testing.T) {
	t.Parallel()

	catalog := testCatalog(t)

	t.Run("socket failure is diagnosed as socket", func(t *testing.T) {
		t.Parallel()

		connector := &stubConnector{
			err: &AggregateConnectError{
				Host:     "refused.test",
				Attempts: 1,
				LastErr:  newSocketError("connect", "127.0.0.1:9", errConnRefused{}),
			},
		}
		o := NewOrchestrator(catalog,
			WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
			WithResolver(&stubResolver{}),
			WithConnector(connector),
		)

		batch, err := o.Scan(context.Background(), []string{"refused.test"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		report := batch.Hosts[0]
		if report.ErrorKind != model.ErrorKindSocket {
			t.Errorf("expected %s, got %s", model.ErrorKindSocket, report.ErrorKind)
		}
		if report.CandidatesTried != 1 {
			t.Errorf("expected 1 candidate tried, got %d", report.CandidatesTried)
		}
	})

	t.Run("exhaustion without a socket error is connect_exhausted", func(t *testing.T) {
		t.Parallel()

		connector := &stubConnector{
			err: &AggregateConnectError{Host: "empty.test", Attempts: 0},
		}
		o := NewOrchestrator(catalog,
			WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
			WithResolver(&stubResolver{}),
			WithConnector(connector),
		)

		batch, err := o.Scan(context.Background(), []string{"empty.test"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := batch.Hosts[0].ErrorKind; got != model.ErrorKindConnectExhausted {
			t.Errorf("expected %s, got %s", model.ErrorKindConnectExhausted, got)
		}
	})
}

// errConnRefused is a minimal stand-in for a refused connect.
type errConnRefused struct{}

func (errConnRefused) Error() string { return "connection refused" }

// TestScanClosedPort is the end-to-end case: one reachable host whose
// port is closed, concurrency 1. The batch must finish with exactly one
// socket-kind failure and a non-fatal overall outcome.
func TestScanClosedPort(t *testing.T) {
	t.Parallel()

	// Open a loopback port, then free it so the connect is refused.
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	target := ln.Addr().String()
	if err := ln.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	catalog := testCatalog(t)
	o := NewOrchestrator(catalog,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithConcurrency(1),
		WithHostDeadline(10*time.Second),
	)

	batch, err := o.Scan(context.Background(), []string{target})
	if err != nil {
		t.Fatalf("batch must finish non-fatally, got %v", err)
	}

	done, failed := batch.Summary()
	if done != 0 || failed != 1 {
		t.Fatalf("expected 0 done / 1 failed, got %d / %d", done, failed)
	}

	report := batch.Hosts[0]
	if report.State != model.StateFailed {
		t.Errorf("expected failed, got %s", report.State)
	}
	if report.ErrorKind != model.ErrorKindSocket {
		t.Errorf("expected %s, got %s", model.ErrorKindSocket, report.ErrorKind)
	}
	if report.ErrorMessage == "" {
		t.Error("expected the OS detail in the error message")
	}
}

// TestErrorKind tests the classification order.
func TestErrorKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "resolution",
			err:  &AddressResolutionError{Host: "x", Err: errConnRefused{}},
			want: model.ErrorKindResolution,
		},
		{
			name: "socket wrapped in aggregate",
			err:  &AggregateConnectError{Host: "x", Attempts: 1, LastErr: newSocketError("connect", "a", errConnRefused{})},
			want: model.ErrorKindSocket,
		},
		{
			name: "deadline wrapped in aggregate",
			err:  &AggregateConnectError{Host: "x", Attempts: 1, LastErr: context.DeadlineExceeded},
			want: model.ErrorKindDeadline,
		},
		{
			name: "bare aggregate",
			err:  &AggregateConnectError{Host: "x", Attempts: 0},
			want: model.ErrorKindConnectExhausted,
		},
		{
			name: "crypto context",
			err:  &CryptoContextError{Method: "TLS 1.2", Reason: "nope"},
			want: model.ErrorKindCryptoContext,
		},
		{
			name: "unknown",
			err:  errConnRefused{},
			want: model.ErrorKindOther,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := errorKind(tt.err); got != tt.want {
				t.Errorf("errorKind(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}
