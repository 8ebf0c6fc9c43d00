package main

import (
	"bytes"
	"strings"
	"testing"
)

// TestGetVersion tests version string resolution.
func TestGetVersion(t *testing.T) {
	if v := getVersion(); v == "" {
		t.Error("expected non-empty version")
	}
}

// TestVersionCmd tests the version command output.
func TestVersionCmd(t *testing.T) {
	cmd := NewVersionCmd()

	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "cipherprobe version") {
		t.Errorf("expected version line, got %q", out)
	}
	if !strings.Contains(out, "commit:") {
		t.Errorf("expected commit line, got %q", out)
	}
	if !strings.Contains(out, "built:") {
		t.Errorf("expected build date line, got %q", out)
	}
}
