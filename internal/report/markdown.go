package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/probelab/cipherprobe/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the batch in Markdown format.
func (w *MarkdownWriter) Write(batch *model.BatchReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, batch)
	w.writeSummary(md, batch)
	w.writeHosts(md, batch)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteHost outputs a single host outcome as a Markdown table.
func (w *MarkdownWriter) WriteHost(host *model.HostReport) (int, error) {
	md := markdown.NewMarkdown(w.output)
	w.writeHostsTable(md, []*model.HostReport{host})
	return len(md.String()), md.Build()
}

// writeHeader writes the report header with batch information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, batch *model.BatchReport) {
	md.H1("CipherProbe Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Scan Date", batch.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", batch.Elapsed.Round(time.Millisecond).String()},
			{"Hosts", strconv.Itoa(len(batch.Hosts))},
			{"Concurrency", strconv.Itoa(batch.Concurrency)},
			{"Catalog Size", strconv.Itoa(batch.CatalogSize)},
		},
	})
	md.PlainText("")
}

// writeSummary writes the outcome summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, batch *model.BatchReport) {
	done, failed := batch.Summary()

	md.H2("Outcome Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows: [][]string{
			{"✅ Completed", strconv.Itoa(done)},
			{"❌ Failed", strconv.Itoa(failed)},
			{"**Total**", "**" + strconv.Itoa(done+failed) + "**"},
		},
	})
	md.PlainText("")

	if failed > 0 {
		w.writeFailureChart(md, batch)
	}
	w.writeAlert(md, done, failed)
}

// writeFailureChart writes a mermaid pie chart of failure kinds.
func (w *MarkdownWriter) writeFailureChart(md *markdown.Markdown, batch *model.BatchReport) {
	kinds := make(map[string]uint64)
	order := make([]string, 0, 4)
	for _, host := range batch.Hosts {
		if host == nil || !host.Failed() {
			continue
		}
		if _, seen := kinds[host.ErrorKind]; !seen {
			order = append(order, host.ErrorKind)
		}
		kinds[host.ErrorKind]++
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Failure Kind Distribution"),
		piechart.WithShowData(true),
	)
	for _, kind := range order {
		chart.LabelAndIntValue(kind, kinds[kind])
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on the outcome counts.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, done, failed int) {
	switch {
	case done == 0 && failed > 0:
		md.Cautionf("No host completed. All %d host(s) failed before probing.", failed)
	case failed > 0:
		md.Warningf("%d host(s) failed; their probe coverage is incomplete.", failed)
	default:
		md.Tip("All hosts were probed across the full cipher catalog.")
	}
	md.PlainText("")
}

// writeHosts writes the per-host outcome section.
func (w *MarkdownWriter) writeHosts(md *markdown.Markdown, batch *model.BatchReport) {
	md.H2("Hosts")
	md.PlainText("")

	if len(batch.Hosts) == 0 {
		md.PlainText("No hosts were scanned.")
		md.PlainText("")
		return
	}

	w.writeHostsTable(md, batch.Hosts)
}

// writeHostsTable writes a table of host outcomes with details.
func (w *MarkdownWriter) writeHostsTable(md *markdown.Markdown, hosts []*model.HostReport) {
	headers := []string{"Host", "Service", "State", "Endpoint", "Probes", "Detail"}

	rows := make([][]string, 0, len(hosts))
	for _, host := range hosts {
		if host == nil {
			continue
		}

		endpoint := host.Endpoint
		if endpoint == "" {
			endpoint = "-"
		}
		detail := "-"
		if host.Failed() {
			detail = host.ErrorKind + ": " + truncateString(host.ErrorMessage, 60)
		}

		rows = append(rows, []string{
			"`" + host.Host + "`",
			host.Service,
			host.StateName,
			endpoint,
			strconv.Itoa(host.ProbesPrepared),
			detail,
		})
	}

	md.Table(markdown.TableSet{
		Header: headers,
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [CipherProbe](https://github.com/probelab/cipherprobe)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
