package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/probelab/cipherprobe/internal/config"
	"github.com/probelab/cipherprobe/internal/database"
	"github.com/probelab/cipherprobe/internal/report"
	"github.com/probelab/cipherprobe/internal/scanner"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
// This command inspects past scan runs stored in the history database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [host]",
		Short: "Inspect past scan runs",
		Long: `History lists past scan runs saved by 'cipherprobe scan' and shows
how a host's reachability changed across runs.

Without arguments it lists recent batches. With a host argument it shows
that host's outcome in every batch it appeared in. A stored batch can be
re-printed in full with --batch-id.

Examples:
  # List the most recent batches
  cipherprobe history

  # Show one host's outcomes across all batches
  cipherprobe history example.com

  # List every host present in the history
  cipherprobe history --list-hosts

  # Re-print a stored batch as JSON
  cipherprobe history --batch-id 5 --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	// Listing flags
	cmd.Flags().IntP("limit", "n", 20,
		"Maximum number of batches to list (0 for all)")
	cmd.Flags().BoolP("list-hosts", "L", false,
		"List all hosts present in the history database")

	// Batch retrieval flags
	cmd.Flags().Int64P("batch-id", "i", 0,
		"Re-print a stored batch by ID (use the plain listing to see IDs)")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output in Markdown format")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	listHosts, err := cmd.Flags().GetBool("list-hosts")
	if err != nil {
		return err
	}
	batchID, err := cmd.Flags().GetInt64("batch-id")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOutput && markdownOutput {
		return errors.New("--json and --markdown are mutually exclusive")
	}

	// Validate the host argument before opening the database so argument
	// errors don't contend for the database lock.
	var host string
	if len(args) == 1 {
		host, _ = scanner.SplitHostService(args[0])
	}

	// Opening read-only keeps a typo from creating an empty database.
	db, err := database.Open(config.XDGDataDir(), database.Options{
		CreateIfNotExists: false,
		EnableWAL:         true,
	})
	if err != nil {
		return fmt.Errorf("no scan history yet (run 'cipherprobe scan' first): %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	switch {
	case listHosts:
		return listScannedHosts(ctx, cmd, db)
	case batchID > 0:
		return printStoredBatch(ctx, cmd, db, batchID, jsonOutput, markdownOutput)
	case host != "":
		return printHostHistory(ctx, cmd, db, host)
	default:
		return listBatches(ctx, cmd, db, limit)
	}
}

// listScannedHosts lists all hosts that have outcomes in the database.
func listScannedHosts(ctx context.Context, cmd *cobra.Command, db *database.HistoryDB) error {
	hosts, err := db.ListScannedHosts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list hosts: %w", err)
	}

	w := cmd.OutOrStdout()
	if len(hosts) == 0 {
		fmt.Fprintln(w, "No scanned hosts found in the database.")
		fmt.Fprintln(w, "\nUse 'cipherprobe scan <host>' to scan a host.")
		return nil
	}

	fmt.Fprintf(w, "Scanned hosts (%d):\n\n", len(hosts))
	for _, host := range hosts {
		fmt.Fprintf(w, "  • %s\n", host)
	}
	fmt.Fprintln(w, "\nUse 'cipherprobe history <host>' to see a host's outcomes.")

	return nil
}

// listBatches lists recent batches with their outcome counts.
func listBatches(ctx context.Context, cmd *cobra.Command, db *database.HistoryDB, limit int) error {
	batches, err := db.ListBatches(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list batches: %w", err)
	}

	w := cmd.OutOrStdout()
	if len(batches) == 0 {
		fmt.Fprintln(w, "No scan history found.")
		fmt.Fprintln(w, "\nUse 'cipherprobe scan <host>' to scan a host.")
		return nil
	}

	fmt.Fprintf(w, "Scan history (%d batches):\n\n", len(batches))
	fmt.Fprintf(w, "  %-6s  %-20s  %-9s  %-7s  %-7s  %s\n",
		"ID", "Date", "Duration", "Done", "Failed", "Probes/Host")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 66))

	for _, meta := range batches {
		fmt.Fprintf(w, "  %-6d  %-20s  %-9s  %-7d  %-7d  %d\n",
			meta.ID,
			meta.StartedAt.Format("2006-01-02 15:04:05"),
			meta.Elapsed.Round(time.Millisecond),
			meta.HostsDone,
			meta.HostsFailed,
			meta.CatalogSize,
		)
	}

	fmt.Fprintln(w, "\nUse 'cipherprobe history --batch-id <id>' to re-print a batch.")

	return nil
}

// printHostHistory shows one host's outcomes across all stored batches.
func printHostHistory(ctx context.Context, cmd *cobra.Command, db *database.HistoryDB, host string) error {
	outcomes, err := db.GetHostHistory(ctx, host)
	if err != nil {
		return fmt.Errorf("failed to get host history: %w", err)
	}

	w := cmd.OutOrStdout()
	if len(outcomes) == 0 {
		fmt.Fprintf(w, "No history found for %s\n", host)
		fmt.Fprintln(w, "\nUse 'cipherprobe history --list-hosts' to see available hosts.")
		return nil
	}

	fmt.Fprintf(w, "History for %s (%d outcomes):\n\n", host, len(outcomes))
	fmt.Fprintf(w, "  %-6s  %-20s  %-10s  %s\n", "Batch", "Date", "State", "Detail")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 60))

	for _, out := range outcomes {
		detail := out.Endpoint
		if out.ErrorKind != "" {
			detail = out.ErrorKind + ": " + out.ErrorMessage
		}
		fmt.Fprintf(w, "  %-6d  %-20s  %-10s  %s\n",
			out.BatchID,
			out.StartedAt.Format("2006-01-02 15:04:05"),
			out.State,
			detail,
		)
	}

	return nil
}

// printStoredBatch re-prints a stored batch in the requested format.
func printStoredBatch(ctx context.Context, cmd *cobra.Command, db *database.HistoryDB, batchID int64, jsonOutput, markdownOutput bool) error {
	batch, err := db.GetBatchByID(ctx, batchID)
	if err != nil {
		return fmt.Errorf("failed to get batch %d: %w", batchID, err)
	}
	if batch == nil {
		return fmt.Errorf("batch %d not found", batchID)
	}

	var writer report.Writer
	switch {
	case jsonOutput:
		writer = report.NewJSONWriter(cmd.OutOrStdout(), report.WithPrettyPrint())
	case markdownOutput:
		writer = report.NewMarkdownWriter(cmd.OutOrStdout())
	default:
		writer = report.NewSimpleWriter(cmd.OutOrStdout())
	}

	_, err = writer.Write(batch)
	return err
}
