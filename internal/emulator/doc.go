// Package emulator provides a virtual ESP8266 running the AT firmware.
//
// A Device listens for real TCP connections and presents them to the
// server the way the module does over its UART: connection notices,
// "+IPD,<ch>,<len>:" deliveries and replies to the AT commands the server
// writes. It implements modem.Port, so the server core cannot tell it from
// a serial link.
//
// Usage:
//
//	dev, err := emulator.Listen(emulator.Config{Addr: "127.0.0.1:8080"})
//	if err != nil {
//	    return err
//	}
//	defer dev.Close()
//
//	core := modem.NewCore(dev, &state, modem.Config{})
//
// Deliveries are capped at Config.MaxDelivery bytes, so larger requests
// arrive in several pieces as they do from the real module.
package emulator
