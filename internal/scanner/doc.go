// Package scanner implements the concurrent TLS probing pipeline.
//
// A scan runs one independent task per target host on a fixed-size worker
// pool. Each task resolves the host to an ordered list of endpoint
// candidates, connects with in-order fallback across those candidates, and
// then prepares one TLS client per (protocol method, cipher suite) pair
// from a shared catalog. The catalog is built once before any task starts
// and is read concurrently without locking; everything else a task touches
// (the socket, the per-probe TLS configs) is owned by that task alone.
//
// Failures at the resolve or connect stage are captured into that host's
// report and never abort sibling tasks. A catalog build failure, by
// contrast, is fatal to the whole run: scanning never starts against a
// partial catalog.
package scanner
