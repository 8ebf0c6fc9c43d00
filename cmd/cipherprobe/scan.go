package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/probelab/cipherprobe/internal/config"
	"github.com/probelab/cipherprobe/internal/database"
	logctx "github.com/probelab/cipherprobe/internal/log"
	"github.com/probelab/cipherprobe/internal/model"
	"github.com/probelab/cipherprobe/internal/report"
	"github.com/probelab/cipherprobe/internal/scanner"
	"github.com/spf13/cobra"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [host[:port]]...",
		Short: "Audit TLS protocol versions and cipher suites for hosts",
		Long: `Scan audits one or more hosts for TLS protocol version and cipher
suite support.

For each target it resolves all endpoint candidates, connects over TCP
falling back through the candidates in resolver order, and prepares one
pinned TLS client context per (protocol version, cipher suite) pair from
the shared catalog. Hosts are scanned in parallel by a fixed worker pool
and one host's failure never aborts the others.

Examples:
  # Scan a single host on the default port 443
  cipherprobe scan example.com

  # Scan multiple hosts, one with an explicit port
  cipherprobe scan example.com internal.example.com:8443

  # Read targets from a file, one per line
  cipherprobe scan --list targets.txt

  # Restrict resolution to IPv4 and raise parallelism
  cipherprobe scan --family ipv4 --concurrency 10 example.com

  # Output a JSON report to a file
  cipherprobe scan --json --output report.json example.com

Configuration file (.cipherprobe) example:
  defaults:
    family: "ipv4"
  hosts:
    internal.example.com:
      service: "8443"`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	// Scan behavior flags
	cmd.Flags().StringP("service", "s", config.DefaultService,
		"Service name or port for targets without an explicit port")
	cmd.Flags().IntP("concurrency", "b", config.DefaultConcurrency,
		"Number of hosts scanned in parallel")
	cmd.Flags().DurationP("connect-timeout", "t", config.DefaultConnectTimeout,
		"Timeout for each individual endpoint connect attempt")
	cmd.Flags().DurationP("deadline", "T", config.DefaultHostDeadline,
		"Deadline for one host's whole scan")
	cmd.Flags().StringP("family", "F", "any",
		"Address family restriction: any, ipv4, or ipv6")

	// Target list file
	cmd.Flags().StringP("list", "l", "",
		"Read additional targets from a file, one per line")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .cipherprobe in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("failed-only", false,
		"Show only failed hosts in the text report")

	// History flags
	cmd.Flags().Bool("no-history", false,
		"Do not save this run to the history database")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	failedOnly, err := cmd.Flags().GetBool("failed-only")
	if err != nil {
		return err
	}

	return runScan(ctx, cfg, failedOnly, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.Service, err = cmd.Flags().GetString("service")
	if err != nil {
		return nil, err
	}

	cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}

	cfg.ConnectTimeout, err = cmd.Flags().GetDuration("connect-timeout")
	if err != nil {
		return nil, err
	}

	cfg.HostDeadline, err = cmd.Flags().GetDuration("deadline")
	if err != nil {
		return nil, err
	}

	cfg.Family, err = cmd.Flags().GetString("family")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load per-host configurations from the config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.HostConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.HostConfigs = &config.File{
			Hosts: make(map[string]config.HostConfig),
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	noHistory, err := cmd.Flags().GetBool("no-history")
	if err != nil {
		return nil, err
	}
	if !noHistory {
		cfg.SaveToDB = true
		cfg.DBDir = config.XDGDataDir()
	}

	cfg.Verbose = getVerboseFlag(cmd)

	// Positional arguments plus the optional target list file
	cfg.Targets = args

	listFile, err := cmd.Flags().GetString("list")
	if err != nil {
		return nil, err
	}
	if listFile != "" {
		fromFile, err := readTargetList(listFile)
		if err != nil {
			return nil, err
		}
		cfg.Targets = append(cfg.Targets, fromFile...)
	}

	return cfg, nil
}

// readTargetList reads targets from a file, one per line. Blank lines
// and lines starting with # are skipped.
func readTargetList(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the user's own flag
	if err != nil {
		return nil, fmt.Errorf("failed to open target list: %w", err)
	}
	defer f.Close()

	var targets []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read target list: %w", err)
	}

	return targets, nil
}

// setupLogger creates a structured logger based on verbosity setting.
// The handler annotates every record with the host being scanned when
// one is attached to the context.
func setupLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewTextHandler(os.Stderr, opts)
	return slog.New(logctx.NewHostHandler(handler))
}

// runScan executes the scan.
func runScan(ctx context.Context, cfg *config.Config, failedOnly bool, logger *slog.Logger) error {
	logger.Info("starting scan",
		"targets", cfg.Targets,
		"service", cfg.Service,
		"concurrency", cfg.Concurrency,
		"saveHistory", cfg.SaveToDB,
	)

	// Open database connection if saving is enabled
	var db *database.HistoryDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	// The catalog is built once and shared read-only by every worker.
	// Failing to build it means no host can be scanned at all.
	catalog, err := scanner.BuildCatalog(logger).Get()
	if err != nil {
		return fmt.Errorf("failed to build cipher catalog: %w", err)
	}

	family, err := scanner.ParseFamily(effectiveFamily(cfg))
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	orchestrator := scanner.NewOrchestrator(catalog,
		scanner.WithConcurrency(cfg.Concurrency),
		scanner.WithHostDeadline(cfg.HostDeadline),
		scanner.WithFamily(family),
		scanner.WithDefaultService(cfg.Service),
		scanner.WithConnector(scanner.NewDialer(cfg.ConnectTimeout)),
		scanner.WithLogger(logger),
	)

	targets := expandTargets(cfg)

	fmt.Printf("Scanning %d target(s) with %d probes per host (concurrency: %d)...\n\n",
		len(targets), catalog.Size(), cfg.Concurrency)
	startTime := time.Now()

	batch, err := orchestrator.Scan(ctx, targets)
	if err != nil {
		return fmt.Errorf("scan aborted: %w", err)
	}

	elapsed := time.Since(startTime)
	done, failed := batch.Summary()
	fmt.Printf("Scan completed in %s (%d done, %d failed)\n",
		elapsed.Round(time.Millisecond), done, failed)

	if err := outputReport(cfg, failedOnly, batch); err != nil {
		logger.Error("report failed", "error", err)
	}

	if err := saveBatch(ctx, db, batch, logger); err != nil {
		logger.Error("failed to save batch", "error", err)
	}

	if batch.AllFailed() {
		return fmt.Errorf("all %d target(s) failed", len(targets))
	}

	return nil
}

// effectiveFamily resolves the address family, letting a per-host
// override apply when a single target is scanned and the file defaults
// apply when the flag was left at "any".
func effectiveFamily(cfg *config.Config) string {
	family := cfg.Family
	if cfg.HostConfigs == nil {
		return family
	}

	if len(cfg.Targets) == 1 {
		host, _ := scanner.SplitHostService(cfg.Targets[0])
		if hc := cfg.HostConfigs.GetHostConfig(host); hc.Family != "" {
			return hc.Family
		}
	}
	if family == "" || family == "any" {
		if d := cfg.HostConfigs.Defaults.Family; d != "" {
			return d
		}
	}
	return family
}

// expandTargets applies per-host service overrides from the config file
// to targets that carry no explicit port.
func expandTargets(cfg *config.Config) []string {
	if cfg.HostConfigs == nil {
		return cfg.Targets
	}

	out := make([]string, len(cfg.Targets))
	for i, target := range cfg.Targets {
		host, service := scanner.SplitHostService(target)
		if service == "" {
			if hc := cfg.HostConfigs.GetHostConfig(host); hc.Service != "" {
				out[i] = net.JoinHostPort(host, hc.Service)
				continue
			}
		}
		out[i] = target
	}
	return out
}

// outputReport outputs the batch report in the requested format.
func outputReport(cfg *config.Config, failedOnly bool, batch *model.BatchReport) error {
	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // path comes from the user's own flag
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output,
			report.WithFailedOnly(failedOnly),
			report.WithVerbose(cfg.Verbose),
		)
	}

	_, err := writer.Write(batch)
	return err
}

// saveBatch saves the batch to the history database if enabled.
// If db is nil, this function is a no-op.
func saveBatch(ctx context.Context, db *database.HistoryDB, batch *model.BatchReport, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	id, err := db.SaveBatch(ctx, batch)
	if err != nil {
		return fmt.Errorf("failed to save batch: %w", err)
	}

	logger.Info("batch saved to history", "batchID", id)
	return nil
}
