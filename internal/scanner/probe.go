package scanner

import (
	"crypto/tls"
	"net"
)

// probeConfig builds a TLS context restricted to exactly one protocol
// method and one cipher suite. Certificate verification is disabled: the
// scan asks what the peer could be offered, not whether its chain
// verifies.
//
// For TLS 1.3 the library chooses from its fixed suite set regardless of
// CipherSuites; the field is still populated so the config records which
// pair the probe was built for.
func probeConfig(serverName string, m ProtocolMethod, cs CipherSuite) *tls.Config {
	return &tls.Config{
		ServerName:         serverName,
		MinVersion:         uint16(m),
		MaxVersion:         uint16(m),
		CipherSuites:       []uint16{cs.ID},
		InsecureSkipVerify: true, //nolint:gosec // Audit tool probes offerability, not trust
	}
}

// prepareProbe instantiates the TLS client for one (method, cipher) pair,
// bound to the established connection. Constructing the client performs
// no I/O on the socket.
//
// TODO: drive conn.HandshakeContext against the live peer and record the
// negotiated method and suite in the host report.
func prepareProbe(conn net.Conn, serverName string, m ProtocolMethod, cs CipherSuite) *tls.Conn {
	return tls.Client(conn, probeConfig(serverName, m, cs))
}
