package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/probelab/cipherprobe/internal/scanner"
	"github.com/spf13/cobra"
)

// NewCiphersCmd creates the ciphers command.
// It prints the probe catalog: every (protocol version, cipher suite)
// pair a scan would prepare, with strength classification.
func NewCiphersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ciphers",
		Short: "Print the cipher suite catalog used for probing",
		Long: `Ciphers prints the probe catalog without scanning anything.

The catalog holds every cipher suite the TLS library can offer for each
protocol version, including suites the library itself flags as insecure.
A scan prepares exactly one probe per catalog entry, so this listing is
also the per-host probe plan.

Examples:
  # Print the catalog as a table
  cipherprobe ciphers

  # Print the catalog as JSON
  cipherprobe ciphers --json`,
		Args: cobra.NoArgs,
		RunE: runCiphersCmd,
	}

	cmd.Flags().BoolP("json", "j", false, "Output the catalog in JSON format")

	return cmd
}

// runCiphersCmd executes the ciphers command.
func runCiphersCmd(cmd *cobra.Command, _ []string) error {
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	logger := setupLogger(getVerboseFlag(cmd))
	slog.SetDefault(logger)

	catalog, err := scanner.BuildCatalog(logger).Get()
	if err != nil {
		return fmt.Errorf("failed to build cipher catalog: %w", err)
	}

	if jsonOutput {
		return printCatalogJSON(cmd, catalog)
	}
	return printCatalogTable(cmd, catalog)
}

// printCatalogJSON prints the catalog keyed by protocol version name.
func printCatalogJSON(cmd *cobra.Command, catalog *scanner.Catalog) error {
	out := make(map[string][]scanner.CipherSuite, len(catalog.Methods()))
	for _, m := range catalog.Methods() {
		out[m.String()] = catalog.Suites(m)
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

// printCatalogTable prints the catalog as a per-version table.
func printCatalogTable(cmd *cobra.Command, catalog *scanner.Catalog) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Probe catalog: %d (version, cipher) pairs\n", catalog.Size())

	for _, m := range catalog.Methods() {
		suites := catalog.Suites(m)

		fmt.Fprintf(w, "\n%s (%d suites)\n", m, len(suites))
		fmt.Fprintf(w, "  %-45s  %-5s  %s\n", "CIPHER SUITE", "BITS", "STRENGTH")
		fmt.Fprintln(w, "  "+strings.Repeat("-", 62))

		for _, cs := range suites {
			fmt.Fprintf(w, "  %-45s  %-5d  %s\n", cs.Name, cs.Bits, cs.Strength)
		}
	}

	return nil
}
