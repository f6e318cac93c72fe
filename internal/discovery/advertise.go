package discovery

import (
	"fmt"
	"net"
	"strings"

	"github.com/grandcat/zeroconf"
)

// Advertisement is a running mDNS announcement for a lamp.
type Advertisement struct {
	server   *zeroconf.Server
	Instance string
	Host     string
	IP       string
	Port     int
}

// HostName derives the advertised host name from the lamp address.
func HostName(ip string) string {
	return "discojar-" + strings.NewReplacer(".", "-", ":", "-").Replace(ip)
}

// TXTRecords returns the TXT data published for a lamp.
func TXTRecords(version string) []string {
	txt := []string{productTag, "path=/"}
	if version != "" {
		txt = append(txt, "version="+version)
	}
	return txt
}

// Advertise announces the lamp at ip:port. The ESP8266 cannot answer mDNS
// itself, so the host running the server answers on its behalf.
func Advertise(instance, ip string, port int, version string) (*Advertisement, error) {
	if net.ParseIP(ip) == nil {
		return nil, fmt.Errorf("invalid lamp address %q", ip)
	}
	if port <= 0 {
		port = DefaultPort
	}

	host := HostName(ip)
	server, err := zeroconf.RegisterProxy(instance, ServiceType, ServiceDomain, port, host, []string{ip}, TXTRecords(version), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	return &Advertisement{
		server:   server,
		Instance: instance,
		Host:     host,
		IP:       ip,
		Port:     port,
	}, nil
}

// Shutdown withdraws the announcement.
func (a *Advertisement) Shutdown() {
	if a != nil && a.server != nil {
		a.server.Shutdown()
	}
}
