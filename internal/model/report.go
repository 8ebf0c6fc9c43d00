package model

import (
	"time"
)

// Error kind identifiers recorded on a HostReport. They name which error
// family ended or degraded a host's scan, so reports and the history
// database can classify outcomes without re-parsing messages.
const (
	// ErrorKindResolution marks a host name that could not be resolved.
	ErrorKindResolution = "address_resolution"

	// ErrorKindSocket marks an OS-level socket or connect failure.
	ErrorKindSocket = "socket"

	// ErrorKindConnectExhausted marks a host whose every endpoint
	// candidate failed without a concrete socket error to blame.
	ErrorKindConnectExhausted = "connect_exhausted"

	// ErrorKindCryptoContext marks a failure constructing a TLS context.
	ErrorKindCryptoContext = "crypto_context"

	// ErrorKindDeadline marks a host whose per-host deadline expired.
	ErrorKindDeadline = "deadline"

	// ErrorKindOther marks errors outside the known taxonomy.
	ErrorKindOther = "other"
)

// HostReport is the outcome of scanning one host. One report exists per
// target and is written only by the worker goroutine that owns the host,
// so no synchronization is needed.
type HostReport struct {
	// Host is the target host name or address as given by the user,
	// without any service suffix.
	Host string `json:"host"`

	// Service is the service name or port number used for resolution.
	Service string `json:"service"`

	// State is the host's position in the scan state machine.
	State ScanState `json:"-"`

	// StateName is the string form of State, kept for serialization.
	StateName string `json:"state"`

	// Endpoint is the address actually connected to, in host:port form.
	// Empty when the scan failed before a connection was established.
	Endpoint string `json:"endpoint,omitempty"`

	// CandidatesTried is how many resolved endpoints were attempted
	// before one connected or all were exhausted.
	CandidatesTried int `json:"candidates_tried"`

	// ProbesPrepared counts the (method, cipher) probes constructed
	// against the established connection.
	ProbesPrepared int `json:"probes_prepared"`

	// MethodsProbed counts the protocol methods iterated during probing.
	MethodsProbed int `json:"methods_probed"`

	// ErrorKind classifies the failure, one of the ErrorKind constants.
	// Empty on success.
	ErrorKind string `json:"error_kind,omitempty"`

	// ErrorMessage is the failure's message, including embedded OS or
	// library detail. Empty on success.
	ErrorMessage string `json:"error_message,omitempty"`

	// StartedAt is when the host's task began executing.
	StartedAt time.Time `json:"started_at"`

	// Elapsed is how long the host's task ran.
	Elapsed time.Duration `json:"elapsed"`
}

// NewHostReport creates a HostReport in the idle state.
func NewHostReport(host, service string) *HostReport {
	return &HostReport{
		Host:      host,
		Service:   service,
		State:     StateIdle,
		StateName: StateIdle.String(),
	}
}

// Transition advances the host to next, enforcing the forward-only state
// machine. It returns *ErrInvalidTransition when the edge is not allowed.
func (r *HostReport) Transition(next ScanState) error {
	if !r.State.CanTransition(next) {
		return &ErrInvalidTransition{From: r.State, To: next}
	}
	r.State = next
	r.StateName = next.String()
	return nil
}

// Fail moves the host to StateFailed and records the failure. The state
// machine only allows failing from Resolving or Connecting.
func (r *HostReport) Fail(kind, message string) error {
	if err := r.Transition(StateFailed); err != nil {
		return err
	}
	r.ErrorKind = kind
	r.ErrorMessage = message
	return nil
}

// Failed reports whether the host ended in the failed state.
func (r *HostReport) Failed() bool {
	return r.State == StateFailed
}

// BatchReport aggregates one scan run across all hosts.
type BatchReport struct {
	// StartedAt is when the batch began.
	StartedAt time.Time `json:"started_at"`

	// Elapsed is the wall-clock duration of the whole batch.
	Elapsed time.Duration `json:"elapsed"`

	// Concurrency is the worker-pool size the batch ran with.
	Concurrency int `json:"concurrency"`

	// CatalogSize is the total number of (method, cipher) pairs in the
	// shared catalog the batch probed with.
	CatalogSize int `json:"catalog_size"`

	// Hosts holds one report per target, in input order.
	Hosts []*HostReport `json:"hosts"`
}

// Summary returns how many hosts completed and how many failed.
func (b *BatchReport) Summary() (done, failed int) {
	for _, h := range b.Hosts {
		if h == nil {
			continue
		}
		if h.Failed() {
			failed++
		} else {
			done++
		}
	}
	return done, failed
}

// AllFailed reports whether every host in the batch failed. An empty
// batch is not considered failed.
func (b *BatchReport) AllFailed() bool {
	done, failed := b.Summary()
	return done == 0 && failed > 0
}
