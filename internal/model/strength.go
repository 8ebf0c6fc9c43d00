package model

// Strength classifies a cipher suite by how much protection it still
// offers. The classification is used when printing the catalog and when
// summarizing reports.
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons and sorting. The String() method provides
// human-readable output when needed.
type Strength int

const (
	// StrengthInsecure marks suites with known practical attacks.
	// Examples: RC4 suites, CBC suites with SHA-1 on old protocol versions.
	// Offering them is itself a finding, regardless of key length.
	StrengthInsecure Strength = iota

	// StrengthWeak marks suites without known breaks but with effective
	// key material under 128 bits. Examples: 3DES (112-bit effective).
	StrengthWeak

	// StrengthAcceptable marks 128-bit suites. Fine today, not the
	// strongest available.
	StrengthAcceptable

	// StrengthStrong marks 256-bit suites such as AES-256-GCM and
	// ChaCha20-Poly1305.
	StrengthStrong
)

// String returns a human-readable representation of the strength level.
func (s Strength) String() string {
	switch s {
	case StrengthInsecure:
		return "INSECURE"
	case StrengthWeak:
		return "WEAK"
	case StrengthAcceptable:
		return "ACCEPTABLE"
	case StrengthStrong:
		return "STRONG"
	default:
		return "UNKNOWN"
	}
}

// StrengthFor classifies a suite from its effective bit strength and
// whether the TLS library itself flags it as insecure. The library flag
// dominates: a 256-bit suite with a known attack is still insecure.
func StrengthFor(bits int, insecure bool) Strength {
	switch {
	case insecure:
		return StrengthInsecure
	case bits >= 256:
		return StrengthStrong
	case bits >= 128:
		return StrengthAcceptable
	default:
		return StrengthWeak
	}
}
