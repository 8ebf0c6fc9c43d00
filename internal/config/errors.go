package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoTarget is returned when no target host is specified.
	// This error occurs when neither --list nor a positional argument
	// provides a target.
	ErrNoTarget = errors.New("no target specified: provide a host or use --list")

	// ErrInvalidConcurrency is returned when the concurrency level is not
	// positive. A concurrency of zero would mean no workers and no scanning.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidConnectTimeout is returned when the connect timeout is not
	// positive. Without it an unreachable host can block a worker
	// indefinitely and starve the pool.
	ErrInvalidConnectTimeout = errors.New("invalid connect timeout: must be positive")

	// ErrInvalidHostDeadline is returned when the per-host deadline is not
	// positive.
	ErrInvalidHostDeadline = errors.New("invalid host deadline: must be positive")

	// ErrInvalidFamily is returned when the address family is not one of
	// "any", "ipv4", or "ipv6".
	ErrInvalidFamily = errors.New("invalid address family: must be any, ipv4, or ipv6")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
