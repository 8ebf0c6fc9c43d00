package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values mirror typical TLS audit behavior: quick failure on dead
// hosts, modest parallelism, and the HTTPS well-known port.
const (
	// DefaultService is the service probed when a target carries no port.
	// 443 is the HTTPS well-known port, the overwhelmingly common place
	// to find a TLS endpoint.
	DefaultService = "443"

	// DefaultConcurrency of 5 concurrent host scans balances throughput
	// against the resolver and file-descriptor pressure of many parallel
	// dials. Larger scan lists can raise it via the --concurrency flag.
	DefaultConcurrency = 5

	// DefaultConnectTimeout bounds each individual connect attempt.
	// Without it, an unreachable candidate blocks its worker for the OS
	// default, which can run to minutes.
	DefaultConnectTimeout = 10 * time.Second

	// DefaultHostDeadline bounds one host's whole scan: resolution, the
	// candidate fallback chain, and probe preparation. It must cover
	// several connect timeouts for multi-homed hosts.
	DefaultHostDeadline = 90 * time.Second

	// AppName is the application name used for XDG directory paths.
	AppName = "cipherprobe"
)

// Config holds all configuration options for CipherProbe.
// This struct is designed to be populated from CLI flags and passed
// through the application via dependency injection rather than global
// state.
type Config struct {
	// Targets is the list of hosts to scan, each optionally carrying a
	// port ("example.com" or "example.com:8443"). At least one target
	// is required.
	Targets []string

	// Service is the service name or port used for targets without an
	// explicit port.
	Service string

	// Concurrency is the number of hosts scanned in parallel. It is the
	// worker-pool size: at most this many hosts are mid-flight at once.
	Concurrency int

	// ConnectTimeout bounds each individual endpoint connect attempt.
	ConnectTimeout time.Duration

	// HostDeadline bounds one host's whole scan.
	HostDeadline time.Duration

	// Family restricts resolution to one address family:
	// "any", "ipv4", or "ipv6".
	Family string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// JSONReport enables JSON report output instead of human-readable
	// format. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of
	// human-readable format. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	// Directories are created automatically if they don't exist.
	ReportFile string

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .cipherprobe in the current
	// directory and then in the user's home directory.
	ConfigFilePath string

	// HostConfigs holds per-host overrides loaded from the config file.
	HostConfigs *File

	// DBDir is the directory path for the SQLite scan-history database.
	// When set, batch results are saved for later inspection with the
	// history command. When empty, nothing is persisted.
	DBDir string

	// SaveToDB indicates whether to save batch results to the database.
	// This is automatically set to true when DBDir is configured.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use
// cases. Users can override specific values after creation.
func NewConfig() *Config {
	return &Config{
		Service:        DefaultService,
		Concurrency:    DefaultConcurrency,
		ConnectTimeout: DefaultConnectTimeout,
		HostDeadline:   DefaultHostDeadline,
		Family:         "any",
	}
}

// XDGDataDir returns the XDG data directory for CipherProbe.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/cipherprobe
// On macOS: ~/Library/Application Support/cipherprobe
// On Windows: %LOCALAPPDATA%\cipherprobe
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for CipherProbe.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// We return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.ConnectTimeout <= 0 {
		return ErrInvalidConnectTimeout
	}

	if c.HostDeadline <= 0 {
		return ErrInvalidHostDeadline
	}

	switch c.Family {
	case "", "any", "ipv4", "ipv6", "4", "6":
	default:
		return ErrInvalidFamily
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}
