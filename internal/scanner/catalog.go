package scanner

import (
	"crypto/tls"
	"log/slog"
	"strings"

	"github.com/probelab/cipherprobe/internal/model"
	"github.com/probelab/cipherprobe/internal/result"
)

// ProtocolMethod identifies one TLS wire-version variant offered for
// negotiation. Values are the crypto/tls version constants.
type ProtocolMethod uint16

// Protocol methods the catalog covers, oldest first. SSLv2 and SSLv3
// cannot be negotiated by crypto/tls and are not represented.
const (
	MethodTLS10 ProtocolMethod = tls.VersionTLS10
	MethodTLS11 ProtocolMethod = tls.VersionTLS11
	MethodTLS12 ProtocolMethod = tls.VersionTLS12
	MethodTLS13 ProtocolMethod = tls.VersionTLS13
)

// Methods returns every supported protocol method, oldest first.
// The slice is freshly allocated on each call so callers can't disturb
// the canonical order.
func Methods() []ProtocolMethod {
	return []ProtocolMethod{MethodTLS10, MethodTLS11, MethodTLS12, MethodTLS13}
}

// String returns the method's wire-version name, such as "TLS 1.2".
func (m ProtocolMethod) String() string {
	return tls.VersionName(uint16(m))
}

// CipherSuite is one offerable combination of algorithms within a
// protocol method. Values are immutable once the catalog is built.
type CipherSuite struct {
	// ID is the IANA suite identifier.
	ID uint16 `json:"id"`

	// Name is the IANA suite name.
	Name string `json:"name"`

	// Version is the protocol-version string the suite was cataloged
	// under, such as "TLS 1.2".
	Version string `json:"version"`

	// Bits is the suite's effective symmetric strength in bits.
	Bits int `json:"bits"`

	// Insecure reports whether the TLS library flags the suite as having
	// known practical attacks.
	Insecure bool `json:"insecure"`

	// Strength is the classification derived from Bits and Insecure.
	Strength model.Strength `json:"strength"`
}

// Catalog maps each protocol method to its ordered offerable cipher
// suites. It is built once before scanning starts, never mutated
// afterward, and shared by all workers without locking.
type Catalog struct {
	methods []ProtocolMethod
	suites  map[ProtocolMethod][]CipherSuite
}

// Methods returns the catalog's protocol methods, oldest first.
func (c *Catalog) Methods() []ProtocolMethod {
	out := make([]ProtocolMethod, len(c.methods))
	copy(out, c.methods)
	return out
}

// Suites returns the ordered suites for a method. The returned slice is
// the catalog's own storage; callers must not modify it.
func (c *Catalog) Suites(m ProtocolMethod) []CipherSuite {
	return c.suites[m]
}

// Size returns the total number of (method, cipher) pairs in the catalog.
func (c *Catalog) Size() int {
	total := 0
	for _, suites := range c.suites {
		total += len(suites)
	}
	return total
}

// BuildMethodSuites enumerates every suite offerable under the given
// method, in the order the TLS library reports them: the secure suites
// first, then the insecure ones. The order is deterministic per process
// but carries no other meaning. A method with no offerable suites yields
// a *CryptoContextError.
func BuildMethodSuites(m ProtocolMethod) result.Result[[]CipherSuite] {
	var suites []CipherSuite

	// The union of both lists is the "everything the library could
	// offer" set, the moral equivalent of OpenSSL's ALL:COMPLEMENTOFALL.
	for _, group := range [][]*tls.CipherSuite{tls.CipherSuites(), tls.InsecureCipherSuites()} {
		for _, cs := range group {
			if !supportsVersion(cs, uint16(m)) {
				continue
			}
			bits := cipherBits(cs.Name)
			suites = append(suites, CipherSuite{
				ID:       cs.ID,
				Name:     cs.Name,
				Version:  m.String(),
				Bits:     bits,
				Insecure: cs.Insecure,
				Strength: model.StrengthFor(bits, cs.Insecure),
			})
		}
	}

	if len(suites) == 0 {
		return result.FailureOf[[]CipherSuite](&CryptoContextError{
			Method: m.String(),
			Reason: "library reports no offerable cipher suites",
		})
	}
	return result.Success(suites)
}

// BuildCatalog builds the full method-to-suites catalog up front. Any
// per-method failure fails the whole build; a partial catalog is never
// returned.
func BuildCatalog(logger *slog.Logger) result.Result[*Catalog] {
	if logger == nil {
		logger = slog.Default()
	}

	catalog := &Catalog{
		methods: Methods(),
		suites:  make(map[ProtocolMethod][]CipherSuite, len(Methods())),
	}

	for _, m := range catalog.methods {
		logger.Debug("building cipher list", "method", m.String())

		built := BuildMethodSuites(m)
		suites, err := built.Get()
		if err != nil {
			return result.Failure[*Catalog](err)
		}
		catalog.suites[m] = suites

		logger.Info("cataloged cipher suites",
			"method", m.String(),
			"suites", len(suites),
		)
	}

	return result.Success(catalog)
}

// supportsVersion reports whether the library offers cs under version v.
func supportsVersion(cs *tls.CipherSuite, v uint16) bool {
	for _, sv := range cs.SupportedVersions {
		if sv == v {
			return true
		}
	}
	return false
}

// cipherBits derives a suite's effective symmetric strength from its
// IANA name. 3DES is counted at its 112-bit effective strength rather
// than its 168-bit key size.
func cipherBits(name string) int {
	switch {
	case strings.Contains(name, "AES_256"), strings.Contains(name, "CHACHA20"):
		return 256
	case strings.Contains(name, "AES_128"), strings.Contains(name, "RC4_128"):
		return 128
	case strings.Contains(name, "3DES"):
		return 112
	default:
		return 0
	}
}
