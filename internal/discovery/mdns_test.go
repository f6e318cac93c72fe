package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func serviceEntry(instance, host string, port int, txt []string, ips ...string) *zeroconf.ServiceEntry {
	e := zeroconf.NewServiceEntry(instance, ServiceType, ServiceDomain)
	e.HostName = host
	e.Port = port
	e.Text = txt
	for _, ip := range ips {
		parsed := net.ParseIP(ip)
		if parsed.To4() != nil {
			e.AddrIPv4 = append(e.AddrIPv4, parsed)
		} else {
			e.AddrIPv6 = append(e.AddrIPv6, parsed)
		}
	}
	return e
}

func TestScanner_parseServiceEntry(t *testing.T) {
	scanner := NewScanner()

	tests := []struct {
		name     string
		entry    *zeroconf.ServiceEntry
		wantNil  bool
		wantIP   string
		wantPort int
	}{
		{
			name:     "advertised lamp",
			entry:    serviceEntry("DiscoJar", "discojar-192-168-1-42.local.", 80, TXTRecords("1.0.0"), "192.168.1.42"),
			wantIP:   "192.168.1.42",
			wantPort: 80,
		},
		{
			name:     "tagged service with another hostname",
			entry:    serviceEntry("Shelf", "esp-shelf.local.", 8080, []string{"product=discojar"}, "10.0.0.5"),
			wantIP:   "10.0.0.5",
			wantPort: 8080,
		},
		{
			name:     "hostname match without TXT",
			entry:    serviceEntry("Jar", "discojar-10-0-0-9.local", 0, nil, "10.0.0.9"),
			wantIP:   "10.0.0.9",
			wantPort: 80,
		},
		{
			name:    "unrelated web server",
			entry:   serviceEntry("printer", "printer.local.", 80, []string{"path=/"}, "192.168.1.1"),
			wantNil: true,
		},
		{
			name:    "no address",
			entry:   serviceEntry("DiscoJar", "discojar-x.local.", 80, TXTRecords("")),
			wantNil: true,
		},
		{
			name:     "IPv6 only",
			entry:    serviceEntry("DiscoJar", "discojar-v6.local.", 80, TXTRecords(""), "fe80::1"),
			wantIP:   "fe80::1",
			wantPort: 80,
		},
		{
			name:     "prefers IPv4",
			entry:    serviceEntry("DiscoJar", "discojar-dual.local.", 80, TXTRecords(""), "fe80::2", "192.168.1.50"),
			wantIP:   "192.168.1.50",
			wantPort: 80,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := scanner.parseServiceEntry(tt.entry)

			if tt.wantNil {
				if l != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", l)
				}
				return
			}
			if l == nil {
				t.Fatal("parseServiceEntry() = nil, want lamp")
			}
			if l.IP != tt.wantIP {
				t.Errorf("IP = %v, want %v", l.IP, tt.wantIP)
			}
			if l.Port != tt.wantPort {
				t.Errorf("Port = %v, want %v", l.Port, tt.wantPort)
			}
			if l.Instance != tt.entry.Instance || l.Hostname != tt.entry.HostName {
				t.Errorf("Instance = %q, Hostname = %q", l.Instance, l.Hostname)
			}
			if time.Since(l.DiscoveredAt) > time.Second {
				t.Errorf("DiscoveredAt is not recent: %v", l.DiscoveredAt)
			}
		})
	}
}

func TestScanner_parseServiceEntry_Metadata(t *testing.T) {
	entry := serviceEntry("DiscoJar", "discojar-1.local.", 80, []string{"product=discojar", "path=/", "flag", "version=1.0"}, "192.168.4.16")

	l := NewScanner().parseServiceEntry(entry)
	if l == nil {
		t.Fatal("parseServiceEntry() = nil, want lamp")
	}

	want := map[string]string{
		"product": "discojar",
		"path":    "/",
		"flag":    "",
		"version": "1.0",
	}
	if len(l.Metadata) != len(want) {
		t.Errorf("Metadata has %d entries, want %d", len(l.Metadata), len(want))
	}
	for key, value := range want {
		if got := l.GetMetadata(key); got != value {
			t.Errorf("GetMetadata(%q) = %q, want %q", key, got, value)
		}
	}
}

func TestHostPattern(t *testing.T) {
	tests := []struct {
		hostname    string
		shouldMatch bool
	}{
		{"discojar-192-168-1-42.local.", true},
		{"discojar-192-168-1-42.local", true},
		{"discojar-kitchen.local", true},
		{"DiscoJar-1.local", false},
		{"discojar.local", false},
		{"discojar-1", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.hostname, func(t *testing.T) {
			if got := hostPattern.MatchString(tt.hostname); got != tt.shouldMatch {
				t.Errorf("hostPattern.MatchString(%q) = %v, want %v", tt.hostname, got, tt.shouldMatch)
			}
		})
	}
}

func TestHostName(t *testing.T) {
	if got := HostName("192.168.1.42"); got != "discojar-192-168-1-42" {
		t.Errorf("HostName() = %q", got)
	}
	if !hostPattern.MatchString(HostName("10.0.0.1") + ".local.") {
		t.Error("advertised host names should be recognised by the scanner")
	}
}

func TestTXTRecords(t *testing.T) {
	if got := TXTRecords(""); len(got) != 2 || got[0] != "product=discojar" {
		t.Errorf("TXTRecords(\"\") = %v", got)
	}
	if got := TXTRecords("1.2.3"); got[len(got)-1] != "version=1.2.3" {
		t.Errorf("TXTRecords() = %v", got)
	}
}

func TestAdvertiseRejectsBadAddress(t *testing.T) {
	if _, err := Advertise("DiscoJar", "not-an-ip", 80, ""); err == nil {
		t.Error("Advertise() should reject an invalid address")
	}
}

func TestNewScanner(t *testing.T) {
	if s := NewScanner(); s.Timeout != DefaultScanTimeout {
		t.Errorf("Timeout = %v, want %v", s.Timeout, DefaultScanTimeout)
	}
}

func TestLamp(t *testing.T) {
	l := &Lamp{Instance: "DiscoJar", Hostname: "discojar-1.local.", IP: "192.168.4.16", Port: 80}
	if got := l.BaseURL(); got != "http://192.168.4.16:80" {
		t.Errorf("BaseURL() = %v", got)
	}
	if got := (&Lamp{IP: "fe80::1", Port: 8080}).Address(); got != "[fe80::1]:8080" {
		t.Errorf("Address() = %v", got)
	}
	if got := l.String(); got != `DiscoJar "DiscoJar" (discojar-1.local.) at 192.168.4.16:80` {
		t.Errorf("String() = %v", got)
	}
	if (&Lamp{}).GetMetadata("path") != "" {
		t.Error("GetMetadata() on nil metadata should be empty")
	}
}

func TestManualLamp(t *testing.T) {
	tests := []struct {
		input    string
		wantAddr string
		wantErr  bool
	}{
		{input: "192.168.1.42", wantAddr: "192.168.1.42:80"},
		{input: "192.168.1.42:8080", wantAddr: "192.168.1.42:8080"},
		{input: "lamp.local", wantAddr: "lamp.local:80"},
		{input: "[fe80::1]:81", wantAddr: "[fe80::1]:81"},
		{input: "192.168.1.42:0", wantErr: true},
		{input: "192.168.1.42:http", wantErr: true},
		{input: "not a host", wantErr: true},
		{input: ":80", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			l, err := ManualLamp(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ManualLamp() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if l.Address() != tt.wantAddr {
				t.Errorf("Address() = %v, want %v", l.Address(), tt.wantAddr)
			}
			if l.GetMetadata("source") != "manual" {
				t.Error("manual lamps should be tagged source=manual")
			}
		})
	}
}
