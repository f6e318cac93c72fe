// Package discovery provides mDNS announcement and discovery of DiscoJar lamps.
//
// The ESP8266 AT firmware has no mDNS responder, so discojar-server announces
// the lamp on its behalf once AT+CIFSR has reported the module's address.
// Lamps are "_http._tcp" services carrying a "product=discojar" TXT record.
//
// # Usage Example
//
//	// Announce a lamp
//	ad, err := discovery.Advertise("DiscoJar", "192.168.1.42", 80, version.Version)
//	if err != nil {
//	    return err
//	}
//	defer ad.Shutdown()
//
//	// Find lamps
//	lamps, err := discovery.ScanForLamps(5 * time.Second)
//	for _, l := range lamps {
//	    fmt.Println(l.Instance, l.Address())
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Lamps must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
