package discovery

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the mDNS service type lamps advertise
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for lamp discovery
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is the default HTTP port for lamps
	DefaultPort = 80

	// productTag marks DiscoJar services among other _http._tcp services
	productTag = "product=discojar"
)

// hostPattern matches the hostnames Advertise registers
var hostPattern = regexp.MustCompile(`^discojar-([0-9a-z-]+)\.local\.?$`)

// Scanner handles mDNS lamp discovery
type Scanner struct {
	// Timeout is the maximum time to wait for lamps to answer
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// ScanForLamps discovers every DiscoJar lamp on the local network until ctx
// is done or the scanner timeout elapses.
func (s *Scanner) ScanForLamps(ctx context.Context) ([]*Lamp, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	var (
		mu    sync.Mutex
		lamps []*Lamp
		seen  = make(map[string]bool)
	)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		for entry := range entries {
			l := s.parseServiceEntry(entry)
			if l == nil {
				continue
			}
			mu.Lock()
			if !seen[l.Address()] {
				seen[l.Address()] = true
				lamps = append(lamps, l)
			}
			mu.Unlock()
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()
	return append([]*Lamp(nil), lamps...), nil
}

// WaitForLamp waits for the lamp with the given instance name.
func (s *Scanner) WaitForLamp(ctx context.Context, instance string) (*Lamp, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan *Lamp, 1)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		for entry := range entries {
			l := s.parseServiceEntry(entry)
			if l != nil && l.Instance == instance {
				select {
				case found <- l:
				default:
				}
				cancel()
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case l := <-found:
		return l, nil
	case <-ctx.Done():
		select {
		case l := <-found:
			return l, nil
		default:
		}
		return nil, fmt.Errorf("lamp %q not found within %v", instance, s.Timeout)
	}
}

// parseServiceEntry converts a zeroconf service entry to a Lamp.
// Returns nil if the entry is not a DiscoJar lamp.
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Lamp {
	metadata := make(map[string]string)
	tagged := false
	for _, txt := range entry.Text {
		if txt == productTag {
			tagged = true
		}
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}

	if !tagged && !hostPattern.MatchString(entry.HostName) {
		return nil
	}

	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	return &Lamp{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// ScanForLamps is a convenience function to scan with a custom timeout
func ScanForLamps(timeout time.Duration) ([]*Lamp, error) {
	scanner := NewScanner()
	scanner.Timeout = timeout
	return scanner.ScanForLamps(context.Background())
}
