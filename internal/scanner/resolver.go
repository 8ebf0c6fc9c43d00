package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"

	"golang.org/x/net/idna"

	"github.com/probelab/cipherprobe/internal/result"
)

// DefaultService is the service used when a target carries no port.
// 443 is the well-known HTTPS port, which is what a TLS audit almost
// always wants.
const DefaultService = "443"

// Family filters resolved endpoints by address family.
type Family int

const (
	// FamilyAny accepts both IPv4 and IPv6 endpoints.
	FamilyAny Family = iota

	// FamilyIPv4 restricts resolution to IPv4 endpoints.
	FamilyIPv4

	// FamilyIPv6 restricts resolution to IPv6 endpoints.
	FamilyIPv6
)

// String returns a human-readable representation of the family filter.
func (f Family) String() string {
	switch f {
	case FamilyIPv4:
		return "ipv4"
	case FamilyIPv6:
		return "ipv6"
	default:
		return "any"
	}
}

// ParseFamily converts a user-facing family name into a Family.
func ParseFamily(s string) (Family, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any":
		return FamilyAny, nil
	case "ipv4", "4":
		return FamilyIPv4, nil
	case "ipv6", "6":
		return FamilyIPv6, nil
	default:
		return FamilyAny, fmt.Errorf("unknown address family %q", s)
	}
}

// Endpoint is one immutable resolved candidate for a host: the network to
// dial, the raw address, and the canonical (IDNA-mapped) name it resolved
// from.
type Endpoint struct {
	// Network is "tcp4" or "tcp6", matching the address family.
	Network string

	// IP is the resolved raw address.
	IP net.IP

	// Port is the resolved service port.
	Port int

	// Zone is the IPv6 scoped-addressing zone, when present.
	Zone string

	// CanonName is the ASCII form of the host name the endpoint came from.
	CanonName string
}

// Addr returns the endpoint's dialable host:port form.
func (e Endpoint) Addr() string {
	host := e.IP.String()
	if e.Zone != "" {
		host += "%" + e.Zone
	}
	return net.JoinHostPort(host, strconv.Itoa(e.Port))
}

// HostResolver resolves a host name into ordered endpoint candidates.
// It exists as an interface so the orchestrator can be tested without
// touching the network.
type HostResolver interface {
	ResolveHost(ctx context.Context, host, service string, family Family) result.Result[[]Endpoint]
}

// Resolver resolves host names through the standard library resolver.
// The OS resolution state is scoped inside net.Resolver and released on
// every exit path, including context cancellation.
type Resolver struct {
	// resolver performs the lookups. The zero net.Resolver uses the
	// system's configured resolution order.
	resolver *net.Resolver

	// logger is used for resolution diagnostics.
	logger *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithResolverLogger sets a custom logger for resolution diagnostics.
func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a Resolver backed by the system resolver.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{resolver: &net.Resolver{}}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// ResolveHost resolves host and service into an ordered list of endpoint
// candidates, preserving the resolver's reported order. An empty service
// defaults to DefaultService. A resolution failure, or a family filter
// that leaves no candidates, yields an *AddressResolutionError embedding
// the resolver's status detail.
func (r *Resolver) ResolveHost(ctx context.Context, host, service string, family Family) result.Result[[]Endpoint] {
	if host == "" {
		return result.FailureOf[[]Endpoint](&AddressResolutionError{
			Host: host,
			Err:  fmt.Errorf("empty host name"),
		})
	}
	if service == "" {
		service = DefaultService
	}

	// Non-ASCII host names must be IDNA-mapped before lookup.
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		// Raw IP literals (and bracketed IPv6) do not IDNA-map; pass
		// them through untouched.
		if net.ParseIP(strings.Trim(host, "[]")) == nil {
			return result.FailureOf[[]Endpoint](&AddressResolutionError{
				Host: host,
				Err:  fmt.Errorf("invalid host name: %w", err),
			})
		}
		ascii = strings.Trim(host, "[]")
	}

	port, err := r.lookupPort(ctx, service)
	if err != nil {
		return result.FailureOf[[]Endpoint](&AddressResolutionError{Host: host, Err: err})
	}

	addrs, err := r.resolver.LookupIPAddr(ctx, ascii)
	if err != nil {
		return result.FailureOf[[]Endpoint](&AddressResolutionError{Host: host, Err: err})
	}

	endpoints := make([]Endpoint, 0, len(addrs))
	for _, addr := range addrs {
		network := "tcp6"
		if addr.IP.To4() != nil {
			network = "tcp4"
		}
		if family == FamilyIPv4 && network != "tcp4" {
			continue
		}
		if family == FamilyIPv6 && network != "tcp6" {
			continue
		}
		endpoints = append(endpoints, Endpoint{
			Network:   network,
			IP:        addr.IP,
			Port:      port,
			Zone:      addr.Zone,
			CanonName: ascii,
		})
	}

	if len(endpoints) == 0 {
		return result.FailureOf[[]Endpoint](&AddressResolutionError{
			Host: host,
			Err:  fmt.Errorf("no %s addresses for host", family),
		})
	}

	r.logger.Debug("resolved host",
		"host", host,
		"service", service,
		"candidates", len(endpoints),
	)
	return result.Success(endpoints)
}

// lookupPort converts a numeric or named service into a port number.
func (r *Resolver) lookupPort(ctx context.Context, service string) (int, error) {
	if port, err := strconv.Atoi(service); err == nil {
		if port < 1 || port > 65535 {
			return 0, fmt.Errorf("port %d out of range", port)
		}
		return port, nil
	}
	port, err := r.resolver.LookupPort(ctx, "tcp", service)
	if err != nil {
		return 0, fmt.Errorf("unknown service %q: %w", service, err)
	}
	return port, nil
}

// SplitHostService splits a target like "example.com:8443" into host and
// service parts. A target without a port returns an empty service, which
// resolution later defaults. Bracketed IPv6 literals are handled.
func SplitHostService(target string) (host, service string) {
	h, s, err := net.SplitHostPort(target)
	if err != nil {
		return target, ""
	}
	return h, s
}
