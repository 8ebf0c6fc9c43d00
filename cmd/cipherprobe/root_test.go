package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/probelab/cipherprobe/internal/scanner"
)

// TestNewRootCmd tests the root command creation.
func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "cipherprobe" {
			t.Errorf("expected use 'cipherprobe', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has long description", func(t *testing.T) {
		t.Parallel()
		if cmd.Long == "" {
			t.Error("expected non-empty long description")
		}
	})

	t.Run("has version", func(t *testing.T) {
		t.Parallel()
		if cmd.Version == "" {
			t.Error("expected non-empty version")
		}
	})

	t.Run("has verbose flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.PersistentFlags().Lookup("verbose")
		if flag == nil {
			t.Fatal("expected verbose flag")
		}
		if flag.Shorthand != "v" {
			t.Errorf("expected shorthand 'v', got %q", flag.Shorthand)
		}
		if flag.DefValue != "false" {
			t.Errorf("expected default 'false', got %q", flag.DefValue)
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()
		subcommands := cmd.Commands()
		if len(subcommands) == 0 {
			t.Error("expected subcommands")
		}

		hasScan := false
		hasCiphers := false
		hasHistory := false
		for _, sub := range subcommands {
			switch sub.Use {
			case "scan [host[:port]]...":
				hasScan = true
			case "ciphers":
				hasCiphers = true
			case "history [host]":
				hasHistory = true
			}
		}
		if !hasScan {
			t.Error("expected scan subcommand")
		}
		if !hasCiphers {
			t.Error("expected ciphers subcommand")
		}
		if !hasHistory {
			t.Error("expected history subcommand")
		}
	})

	t.Run("silences usage and errors", func(t *testing.T) {
		t.Parallel()
		if !cmd.SilenceUsage {
			t.Error("expected SilenceUsage to be true")
		}
		if !cmd.SilenceErrors {
			t.Error("expected SilenceErrors to be true")
		}
	})
}

// TestExitStatus tests exit status classification.
func TestExitStatus(t *testing.T) {
	t.Parallel()

	t.Run("catalog failure exits 2", func(t *testing.T) {
		t.Parallel()
		err := fmt.Errorf("failed to build cipher catalog: %w",
			&scanner.CryptoContextError{Method: "TLS 1.2", Reason: "no suites"})
		if got := exitStatus(err); got != 2 {
			t.Errorf("expected exit status 2, got %d", got)
		}
	})

	t.Run("other errors exit 1", func(t *testing.T) {
		t.Parallel()
		if got := exitStatus(errors.New("configuration error")); got != 1 {
			t.Errorf("expected exit status 1, got %d", got)
		}
	})
}
