package scanner

import (
	"errors"
	"fmt"
	"syscall"
)

// AddressResolutionError reports a failed host name resolution.
// It embeds the resolver's status detail in its message and unwraps to
// the underlying error (typically a *net.DNSError).
type AddressResolutionError struct {
	// Host is the name that failed to resolve.
	Host string

	// Err is the underlying resolver error.
	Err error
}

// Error implements the error interface.
func (e *AddressResolutionError) Error() string {
	return fmt.Sprintf("error resolving address %q: %v", e.Host, e.Err)
}

// Unwrap returns the underlying resolver error.
func (e *AddressResolutionError) Unwrap() error { return e.Err }

// SocketError reports an OS-level socket or connect failure for one
// endpoint candidate. The OS error number, when present, is reachable
// through Errno.
type SocketError struct {
	// Op is the failing operation, such as "connect".
	Op string

	// Addr is the endpoint address in host:port form.
	Addr string

	// Err is the underlying OS error.
	Err error
}

// Error implements the error interface.
func (e *SocketError) Error() string {
	if errno, ok := e.Errno(); ok {
		return fmt.Sprintf("socket error: %s %s: %d (%v)", e.Op, e.Addr, int(errno), e.Err)
	}
	return fmt.Sprintf("socket error: %s %s: %v", e.Op, e.Addr, e.Err)
}

// Unwrap returns the underlying OS error.
func (e *SocketError) Unwrap() error { return e.Err }

// Errno extracts the OS error number when the underlying error carries one.
func (e *SocketError) Errno() (syscall.Errno, bool) {
	var errno syscall.Errno
	if errors.As(e.Err, &errno) {
		return errno, true
	}
	return 0, false
}

// newSocketError wraps a dial failure for one endpoint candidate.
func newSocketError(op, addr string, err error) *SocketError {
	return &SocketError{Op: op, Addr: addr, Err: err}
}

// AggregateConnectError reports that every endpoint candidate for a host
// was tried and none connected. Earlier candidates' failures are log-only;
// the last candidate's error is kept so diagnostics can name the concrete
// failure, and Unwrap exposes it for kind matching.
type AggregateConnectError struct {
	// Host is the target that could not be reached.
	Host string

	// Attempts is how many candidates were tried.
	Attempts int

	// LastErr is the final candidate's failure, usually a *SocketError.
	LastErr error
}

// Error implements the error interface.
func (e *AggregateConnectError) Error() string {
	if e.LastErr != nil {
		return fmt.Sprintf("could not connect to %q: all %d candidates failed: %v",
			e.Host, e.Attempts, e.LastErr)
	}
	return fmt.Sprintf("could not connect to %q: no candidates to try", e.Host)
}

// Unwrap returns the last candidate's failure.
func (e *AggregateConnectError) Unwrap() error { return e.LastErr }

// CryptoContextError reports a failure building or configuring a TLS
// context for a protocol method.
type CryptoContextError struct {
	// Method is the protocol method the context was built for.
	Method string

	// Reason describes what the TLS library could not do.
	Reason string
}

// Error implements the error interface.
func (e *CryptoContextError) Error() string {
	return fmt.Sprintf("crypto context error for %s: %s", e.Method, e.Reason)
}
