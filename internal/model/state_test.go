package model

import (
	"errors"
	"testing"
)

// TestScanStateString tests human-readable state names.
func TestScanStateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state ScanState
		want  string
	}{
		{StateIdle, "idle"},
		{StateResolving, "resolving"},
		{StateConnecting, "connecting"},
		{StateProbing, "probing"},
		{StateDone, "done"},
		{StateFailed, "failed"},
		{ScanState(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("ScanState(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

// TestScanStateTransitions tests the forward-only edges.
func TestScanStateTransitions(t *testing.T) {
	t.Parallel()

	t.Run("happy path", func(t *testing.T) {
		t.Parallel()

		path := []ScanState{StateResolving, StateConnecting, StateProbing, StateDone}
		s := StateIdle
		for _, next := range path {
			if !s.CanTransition(next) {
				t.Fatalf("expected %s -> %s to be allowed", s, next)
			}
			s = next
		}
		if !s.Terminal() {
			t.Error("expected done to be terminal")
		}
	})

	t.Run("failed reachable only from resolving and connecting", func(t *testing.T) {
		t.Parallel()

		if !StateResolving.CanTransition(StateFailed) {
			t.Error("resolving -> failed must be allowed")
		}
		if !StateConnecting.CanTransition(StateFailed) {
			t.Error("connecting -> failed must be allowed")
		}
		if StateProbing.CanTransition(StateFailed) {
			t.Error("probing -> failed must not be allowed")
		}
		if StateIdle.CanTransition(StateFailed) {
			t.Error("idle -> failed must not be allowed")
		}
	})

	t.Run("no state is revisited", func(t *testing.T) {
		t.Parallel()

		for from, nexts := range validTransitions {
			for _, next := range nexts {
				if next <= from && next != StateFailed {
					t.Errorf("backward edge %s -> %s", from, next)
				}
			}
		}
		if StateDone.CanTransition(StateIdle) || StateFailed.CanTransition(StateResolving) {
			t.Error("terminal states must have no outgoing edges")
		}
	})
}

// TestHostReportTransition tests state tracking on the report.
func TestHostReportTransition(t *testing.T) {
	t.Parallel()

	t.Run("records state name on each step", func(t *testing.T) {
		t.Parallel()

		r := NewHostReport("example.test", "443")
		if r.State != StateIdle {
			t.Fatalf("expected idle, got %s", r.State)
		}

		for _, next := range []ScanState{StateResolving, StateConnecting, StateProbing, StateDone} {
			if err := r.Transition(next); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.StateName != next.String() {
				t.Errorf("expected state name %q, got %q", next.String(), r.StateName)
			}
		}
	})

	t.Run("rejects illegal edges", func(t *testing.T) {
		t.Parallel()

		r := NewHostReport("example.test", "443")
		err := r.Transition(StateProbing)

		var invalid *ErrInvalidTransition
		if !errors.As(err, &invalid) {
			t.Fatalf("expected *ErrInvalidTransition, got %v", err)
		}
		if invalid.From != StateIdle || invalid.To != StateProbing {
			t.Errorf("unexpected edge in error: %s -> %s", invalid.From, invalid.To)
		}
	})

	t.Run("Fail records kind and message", func(t *testing.T) {
		t.Parallel()

		r := NewHostReport("example.test", "443")
		if err := r.Transition(StateResolving); err != nil {
			t.Fatal(err)
		}
		if err := r.Fail(ErrorKindResolution, "no such host"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !r.Failed() {
			t.Error("expected failed report")
		}
		if r.ErrorKind != ErrorKindResolution {
			t.Errorf("expected kind %q, got %q", ErrorKindResolution, r.ErrorKind)
		}
	})

	t.Run("Fail from probing is rejected", func(t *testing.T) {
		t.Parallel()

		r := NewHostReport("example.test", "443")
		for _, next := range []ScanState{StateResolving, StateConnecting, StateProbing} {
			if err := r.Transition(next); err != nil {
				t.Fatal(err)
			}
		}
		if err := r.Fail(ErrorKindSocket, "late failure"); err == nil {
			t.Error("expected transition error")
		}
	})
}

// TestBatchReportSummary tests aggregate counting.
func TestBatchReportSummary(t *testing.T) {
	t.Parallel()

	okHost := NewHostReport("ok.test", "443")
	for _, next := range []ScanState{StateResolving, StateConnecting, StateProbing, StateDone} {
		if err := okHost.Transition(next); err != nil {
			t.Fatal(err)
		}
	}

	badHost := NewHostReport("bad.test", "443")
	if err := badHost.Transition(StateResolving); err != nil {
		t.Fatal(err)
	}
	if err := badHost.Fail(ErrorKindResolution, "nope"); err != nil {
		t.Fatal(err)
	}

	b := &BatchReport{Hosts: []*HostReport{okHost, badHost, nil}}
	done, failed := b.Summary()
	if done != 1 || failed != 1 {
		t.Errorf("expected 1 done / 1 failed, got %d / %d", done, failed)
	}
	if b.AllFailed() {
		t.Error("batch with a completed host must not report all-failed")
	}

	allBad := &BatchReport{Hosts: []*HostReport{badHost}}
	if !allBad.AllFailed() {
		t.Error("expected all-failed batch")
	}
}

// TestStrengthFor tests cipher strength classification.
func TestStrengthFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		bits     int
		insecure bool
		want     Strength
	}{
		{name: "library-flagged dominates", bits: 256, insecure: true, want: StrengthInsecure},
		{name: "256-bit is strong", bits: 256, insecure: false, want: StrengthStrong},
		{name: "128-bit is acceptable", bits: 128, insecure: false, want: StrengthAcceptable},
		{name: "3DES is weak", bits: 112, insecure: false, want: StrengthWeak},
		{name: "unknown bits are weak", bits: 0, insecure: false, want: StrengthWeak},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := StrengthFor(tt.bits, tt.insecure); got != tt.want {
				t.Errorf("StrengthFor(%d, %v) = %s, want %s", tt.bits, tt.insecure, got, tt.want)
			}
		})
	}

	if StrengthInsecure.String() != "INSECURE" || Strength(42).String() != "UNKNOWN" {
		t.Error("unexpected Strength string forms")
	}
}
