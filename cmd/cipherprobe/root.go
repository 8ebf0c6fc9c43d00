// Package main provides the entry point for the CipherProbe CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/probelab/cipherprobe/internal/scanner"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for CipherProbe.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cipherprobe",
		Short: "TLS protocol version and cipher suite audit scanner",
		Long: `CipherProbe audits which TLS protocol versions and cipher suites a
server could be offered. It resolves each target, connects over TCP with
candidate fallback, and prepares one pinned TLS client context per
(version, cipher) pair from a shared catalog.

Results are printed as text, JSON, or Markdown, and each run is saved
to a local history database for later comparison.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewCiphersCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitStatus(err))
	}
}

// exitStatus maps an error to the process exit status. A cipher catalog
// construction failure is a different class of problem than a scan or
// configuration error, so it gets its own status.
func exitStatus(err error) int {
	var cryptoErr *scanner.CryptoContextError
	if errors.As(err, &cryptoErr) {
		return 2
	}
	return 1
}
