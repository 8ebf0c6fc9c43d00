// Package config provides configuration structures and utilities for
// CipherProbe. It defines the scan options (targets, concurrency,
// timeouts, address family), report format preferences, and the optional
// per-host YAML override file.
package config
