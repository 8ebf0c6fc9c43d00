package scanner

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	logctx "github.com/probelab/cipherprobe/internal/log"
	"github.com/probelab/cipherprobe/internal/model"
)

// Default orchestration values. These mirror the CLI defaults in the
// config package; the orchestrator carries its own copies so it is usable
// as a library without a Config.
const (
	// DefaultConcurrency is the worker-pool size when none is given.
	// Five workers keep a small scan polite while still overlapping the
	// slow parts (resolution and connect).
	DefaultConcurrency = 5

	// DefaultHostDeadline bounds one host's whole scan. Without it an
	// unreachable host with many candidates could hold a worker long
	// enough to starve the pool.
	DefaultHostDeadline = 90 * time.Second
)

// Orchestrator dispatches one independent scan task per host onto a
// fixed-size worker pool. All tasks share the read-only catalog; each
// task exclusively owns everything else it touches.
type Orchestrator struct {
	// catalog is the frozen (method, cipher) catalog, published before
	// any task starts.
	catalog *Catalog

	// resolver resolves hosts to endpoint candidates.
	resolver HostResolver

	// connector establishes one connection per host with fallback.
	connector Connector

	// concurrency is the maximum number of hosts mid-flight at once.
	concurrency int

	// hostDeadline bounds one host's resolve+connect+probe sequence.
	hostDeadline time.Duration

	// family filters resolved endpoints by address family.
	family Family

	// defaultService is used for targets that carry no port.
	defaultService string

	// logger is used for batch-level logging.
	logger *slog.Logger

	// mu guards results during the batch.
	mu sync.Mutex
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithConcurrency sets the worker-pool size. Non-positive values are
// ignored and the default is kept.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithHostDeadline sets the per-host deadline. Non-positive values are
// ignored and the default is kept.
func WithHostDeadline(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.hostDeadline = d
		}
	}
}

// WithFamily restricts scanning to one address family.
func WithFamily(f Family) Option {
	return func(o *Orchestrator) {
		o.family = f
	}
}

// WithDefaultService sets the service used for targets without a port.
func WithDefaultService(service string) Option {
	return func(o *Orchestrator) {
		if service != "" {
			o.defaultService = service
		}
	}
}

// WithResolver replaces the host resolver, mainly for tests.
func WithResolver(r HostResolver) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.resolver = r
		}
	}
}

// WithConnector replaces the connector, mainly for tests.
func WithConnector(c Connector) Option {
	return func(o *Orchestrator) {
		if c != nil {
			o.connector = c
		}
	}
}

// WithLogger sets a custom logger for the orchestrator and its default
// resolver and dialer.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewOrchestrator creates an Orchestrator over a fully built catalog.
// The catalog must outlive the orchestrator's Scan call.
func NewOrchestrator(catalog *Catalog, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		catalog:        catalog,
		concurrency:    DefaultConcurrency,
		hostDeadline:   DefaultHostDeadline,
		family:         FamilyAny,
		defaultService: DefaultService,
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.resolver == nil {
		o.resolver = NewResolver(WithResolverLogger(o.logger))
	}
	if o.connector == nil {
		o.connector = NewDialer(10*time.Second, WithDialerLogger(o.logger))
	}

	return o
}

// Scan runs one independent scan task per target on the worker pool and
// returns the batch report once every task has drained. A host's
// resolution or connection failure is recorded in its own report and
// never aborts sibling tasks; the error return only reflects context
// cancellation of the batch itself.
func (o *Orchestrator) Scan(ctx context.Context, targets []string) (*model.BatchReport, error) {
	o.logger.Info("starting scan batch",
		"hosts", len(targets),
		"concurrency", o.concurrency,
		"catalog_pairs", o.catalog.Size(),
	)

	batch := &model.BatchReport{
		StartedAt:   time.Now(),
		Concurrency: o.concurrency,
		CatalogSize: o.catalog.Size(),
		Hosts:       make([]*model.HostReport, len(targets)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			report := o.scanOne(gctx, target)

			o.mu.Lock()
			batch.Hosts[i] = report
			o.mu.Unlock()

			// Per-host failures stay in the report; returning them
			// here would cancel the sibling tasks.
			return nil
		})
	}

	err := g.Wait()
	batch.Elapsed = time.Since(batch.StartedAt)

	done, failed := batch.Summary()
	o.logger.Info("scan batch complete",
		"hosts", len(targets),
		"done", done,
		"failed", failed,
		"elapsed", batch.Elapsed,
	)

	return batch, err
}

// scanOne runs the full pipeline for one host: resolve, connect with
// fallback, then prepare one probe per (method, cipher) pair.
func (o *Orchestrator) scanOne(ctx context.Context, target string) *model.HostReport {
	host, service := SplitHostService(target)
	if service == "" {
		service = o.defaultService
	}

	ctx = logctx.WithHost(ctx, target)
	ctx, cancel := context.WithTimeout(ctx, o.hostDeadline)
	defer cancel()

	logger := o.logger.With("host", target)
	logger.Info("scanning host")

	report := model.NewHostReport(host, service)
	report.StartedAt = time.Now()
	defer func() {
		report.Elapsed = time.Since(report.StartedAt)
	}()

	// Resolving.
	o.mustTransition(report, model.StateResolving)
	resolved := o.resolver.ResolveHost(ctx, host, service, o.family)
	endpoints, err := resolved.Get()
	if err != nil {
		logger.Error("resolution failed", "error", err)
		o.failHost(report, err)
		return report
	}

	// Connecting.
	o.mustTransition(report, model.StateConnecting)
	connected := o.connector.Connect(ctx, host, endpoints)
	conn, err := connected.Get()
	if err != nil {
		report.CandidatesTried = len(endpoints)
		logger.Error("connection failed", "error", err, "candidates", len(endpoints))
		o.failHost(report, err)
		return report
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			logger.Warn("closing connection", "error", cerr)
		}
	}()

	report.Endpoint = conn.Endpoint().Addr()
	report.CandidatesTried = indexOf(endpoints, conn.Endpoint()) + 1

	// Probing: every (method, cipher) pair from the shared catalog.
	o.mustTransition(report, model.StateProbing)
	for _, m := range o.catalog.Methods() {
		report.MethodsProbed++
		for _, cs := range o.catalog.Suites(m) {
			_ = prepareProbe(conn.NetConn(), host, m, cs)
			report.ProbesPrepared++
		}
		logger.Debug("prepared probes",
			"method", m.String(),
			"suites", len(o.catalog.Suites(m)),
		)
	}

	o.mustTransition(report, model.StateDone)
	logger.Info("host scan complete",
		"endpoint", report.Endpoint,
		"probes", report.ProbesPrepared,
	)
	return report
}

// failHost records a classified failure on the report.
func (o *Orchestrator) failHost(report *model.HostReport, err error) {
	if ferr := report.Fail(errorKind(err), err.Error()); ferr != nil {
		o.logger.Error("recording host failure", "host", report.Host, "error", ferr)
	}
}

// mustTransition advances the report's state machine. The orchestrator
// only ever walks legal edges; a failure here is a bug, not a scan result.
func (o *Orchestrator) mustTransition(report *model.HostReport, next model.ScanState) {
	if err := report.Transition(next); err != nil {
		o.logger.Error("state machine violation", "host", report.Host, "error", err)
	}
}

// errorKind classifies an error into the report taxonomy. SocketError is
// checked before the aggregate so a closed port is diagnosed as the
// socket failure it is.
func errorKind(err error) string {
	var (
		resErr    *AddressResolutionError
		sockErr   *SocketError
		aggErr    *AggregateConnectError
		cryptoErr *CryptoContextError
	)
	switch {
	case errors.As(err, &resErr):
		return model.ErrorKindResolution
	case errors.As(err, &sockErr):
		return model.ErrorKindSocket
	case errors.Is(err, context.DeadlineExceeded):
		return model.ErrorKindDeadline
	case errors.As(err, &aggErr):
		return model.ErrorKindConnectExhausted
	case errors.As(err, &cryptoErr):
		return model.ErrorKindCryptoContext
	default:
		return model.ErrorKindOther
	}
}

// indexOf locates the connected endpoint among the candidates so the
// report can say how many were tried before one worked.
func indexOf(endpoints []Endpoint, ep Endpoint) int {
	for i, candidate := range endpoints {
		if candidate.Addr() == ep.Addr() {
			return i
		}
	}
	return 0
}
