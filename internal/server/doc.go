// Package server runs a DiscoJar lamp web server on an ESP8266 modem.
//
// A run has three phases. The modem link is opened (a serial device, or the
// built-in emulator for development) and the boot delay is waited out. The
// AT startup script then puts the module in multiplexed server mode; each
// command's acknowledgment is logged but a missing one never stops the
// script. Finally the protocol core handles requests on a single goroutine
// until the context ends.
//
// Optional extras hang off the startup results: the station address from
// AT+CIFSR is announced over mDNS, and every applied configuration is
// published to the preview hub.
//
// # Usage Example
//
//	srv, err := server.New(&server.Config{
//	    Device:      "/dev/ttyUSB0",
//	    Baud:        115200,
//	    ServerPort:  80,
//	    IdleTimeout: 30,
//	    BootDelay:   5 * time.Second,
//	    Advertise:   true,
//	    Instance:    "DiscoJar",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
package server
