// Package report renders batch scan results in multiple output formats.
//
// Three writers share one interface: a plain-text writer for terminals,
// a JSON writer for tool integration, and a Markdown writer for
// documentation and sharing. A MultiWriter fans a single report out to
// several destinations, which is how the CLI writes to both stdout and
// a report file in one pass.
package report
