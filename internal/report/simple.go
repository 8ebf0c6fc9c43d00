package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/probelab/cipherprobe/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// failedOnly restricts the host section to failed hosts.
	failedOnly bool

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithFailedOnly restricts the host listing to hosts that failed.
func WithFailedOnly(failedOnly bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.failedOnly = failedOnly
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		failedOnly: false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the batch in human-readable format.
func (w *SimpleWriter) Write(batch *model.BatchReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, batch)
	w.writeSummary(&sb, batch)
	w.writeHosts(&sb, batch)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// WriteHost outputs a single host outcome as one status line.
func (w *SimpleWriter) WriteHost(host *model.HostReport) (int, error) {
	var sb strings.Builder
	w.writeHostLine(&sb, host)
	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with batch information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, batch *model.BatchReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        CIPHERPROBE REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Scan Date:   %s\n", batch.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Duration:    %s\n", batch.Elapsed.Round(time.Millisecond)))
	sb.WriteString(fmt.Sprintf("Hosts:       %d\n", len(batch.Hosts)))
	sb.WriteString(fmt.Sprintf("Concurrency: %d\n", batch.Concurrency))
	sb.WriteString(fmt.Sprintf("Catalog:     %d cipher suite probes per host\n", batch.CatalogSize))
	sb.WriteString("\n")
}

// writeSummary writes the outcome summary section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, batch *model.BatchReport) {
	done, failed := batch.Summary()

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("OUTCOME SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  COMPLETED: %d\n", done))
	sb.WriteString(fmt.Sprintf("  FAILED:    %d\n", failed))
	sb.WriteString("\n")
}

// writeHosts writes the per-host outcome section.
func (w *SimpleWriter) writeHosts(sb *strings.Builder, batch *model.BatchReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("HOSTS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	shown := 0
	for _, host := range batch.Hosts {
		if host == nil {
			continue
		}
		if w.failedOnly && !host.Failed() {
			continue
		}
		w.writeHostLine(sb, host)
		shown++
	}
	if shown == 0 {
		sb.WriteString("  No hosts to show\n")
	}
	sb.WriteString("\n")
}

// writeHostLine writes one host's outcome, with probe detail when
// verbose is set.
func (w *SimpleWriter) writeHostLine(sb *strings.Builder, host *model.HostReport) {
	target := host.Host
	if host.Service != "" {
		target = target + ":" + host.Service
	}

	if host.Failed() {
		sb.WriteString(fmt.Sprintf("  [x] %-40s %s: %s\n", target, host.ErrorKind, host.ErrorMessage))
		return
	}

	sb.WriteString(fmt.Sprintf("  [+] %-40s %d probes across %d versions via %s\n",
		target, host.ProbesPrepared, host.MethodsProbed, host.Endpoint))
	if w.verbose {
		sb.WriteString(fmt.Sprintf("      candidates tried: %d, elapsed: %s\n",
			host.CandidatesTried, host.Elapsed.Round(time.Millisecond)))
	}
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by CipherProbe\n")
	sb.WriteString("https://github.com/probelab/cipherprobe\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
