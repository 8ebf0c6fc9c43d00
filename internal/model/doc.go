// Package model defines the core data structures used throughout CipherProbe.
//
// This package contains the following main types:
//   - HostReport: Per-host scan outcome, including its state machine position
//   - BatchReport: Aggregate of one scan run across all hosts
//   - ScanState: The per-host progress state machine
//   - Strength: Cipher suite strength classification
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (scanner, report, database) need to use
// these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
