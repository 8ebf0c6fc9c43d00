// Package main provides the entry point for the CipherProbe CLI.
//
// CipherProbe audits which TLS protocol versions and cipher suites a
// server could be offered, across one or many hosts.
//
// Usage:
//
//	cipherprobe scan <host[:port]>...
//	cipherprobe scan --list <file>
//
// See --help for all available options.
package main

// main is the entry point for CipherProbe.
func main() {
	Execute()
}
