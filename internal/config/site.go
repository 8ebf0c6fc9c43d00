package config

// HostConfig holds per-host overrides for a single target.
// This allows scanning a mixed list where some hosts expose TLS on a
// non-standard port or are reachable over only one address family.
type HostConfig struct {
	// Service overrides the global service/port for this host.
	// If empty, the global Service is used.
	Service string `yaml:"service,omitempty"`

	// Family overrides the global address family for this host:
	// "any", "ipv4", or "ipv6". If empty, the global Family is used.
	Family string `yaml:"family,omitempty"`
}

// File represents the structure of the .cipherprobe configuration file.
type File struct {
	// Hosts maps target host names to their per-host overrides.
	// Keys are bare host names without a port (e.g., "example.com").
	Hosts map[string]HostConfig `yaml:"hosts,omitempty"`

	// Defaults contains overrides applied to all hosts unless a
	// host-specific entry overrides them again.
	Defaults HostConfig `yaml:"defaults,omitempty"`
}

// GetHostConfig returns the configuration for a specific host,
// merging the host-specific entry over the file defaults.
func (cf *File) GetHostConfig(host string) HostConfig {
	merged := cf.Defaults

	if hc, ok := cf.Hosts[host]; ok {
		if hc.Service != "" {
			merged.Service = hc.Service
		}
		if hc.Family != "" {
			merged.Family = hc.Family
		}
	}

	return merged
}
