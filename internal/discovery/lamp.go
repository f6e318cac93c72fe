package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Lamp represents a DiscoJar lamp found on the network
type Lamp struct {
	// Instance is the mDNS instance name (e.g., "DiscoJar")
	Instance string

	// Hostname is the mDNS hostname (e.g., "discojar-192-168-1-42.local.")
	Hostname string

	// IP is the lamp address, IPv4 when one was advertised
	IP string

	// Port is the HTTP port (typically 80)
	Port int

	// Metadata contains the mDNS TXT record data
	// Common fields: "product=discojar", "path=/", "version=..."
	Metadata map[string]string

	// DiscoveredAt is when the lamp was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the lamp
func (l *Lamp) String() string {
	return fmt.Sprintf("DiscoJar %q (%s) at %s", l.Instance, l.Hostname, l.Address())
}

// Address returns host:port for the lamp's web server
func (l *Lamp) Address() string {
	return net.JoinHostPort(l.IP, strconv.Itoa(l.Port))
}

// BaseURL returns the HTTP base URL for the lamp
func (l *Lamp) BaseURL() string {
	return "http://" + l.Address()
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (l *Lamp) GetMetadata(key string) string {
	if l.Metadata == nil {
		return ""
	}
	return l.Metadata[key]
}

// ManualLamp builds a Lamp from a user-typed "host" or "host:port". The
// result carries source=manual in its metadata.
func ManualLamp(address string) (*Lamp, error) {
	host, port := address, DefaultPort
	if h, p, err := net.SplitHostPort(address); err == nil {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 || n > 65535 {
			return nil, fmt.Errorf("invalid port in %q", address)
		}
		host, port = h, n
	}
	if host == "" || net.ParseIP(host) == nil && !validHostname(host) {
		return nil, fmt.Errorf("invalid lamp address %q", address)
	}

	return &Lamp{
		Instance:     "Manual: " + host,
		Hostname:     host,
		IP:           host,
		Port:         port,
		Metadata:     map[string]string{"source": "manual"},
		DiscoveredAt: time.Now(),
	}, nil
}

func validHostname(h string) bool {
	for _, r := range h {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
		default:
			return false
		}
	}
	return true
}
