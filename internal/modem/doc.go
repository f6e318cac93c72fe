// Package modem drives an ESP8266-class WiFi modem over its AT command
// interface and turns the modem's byte stream into HTTP request handling for
// the DiscoJar lamp.
//
// # Stream Model
//
// The modem multiplexes TCP connections onto one serial link. Received data
// arrives as delivery notifications:
//
//	+IPD,<channel>,<length>:<payload>
//
// Outbound data is sent with AT+CIPSEND=<channel>,<length>, waiting for the
// modem's acknowledgment before writing the raw bytes and for "SEND OK"
// afterwards.
//
// # Components
//
//   - LineAccumulator: collects bytes into CRLF- (or ':') terminated frames
//   - Waiter: blocks until the stream ends with an expected token or a timeout elapses
//   - Sequencer: runs the one-shot startup command script
//   - Core: dispatches deliveries, serves the control page and reassembles
//     POST bodies that span several deliveries
//
// All buffers are fixed-size arrays owned by the Core. The Core is not safe
// for concurrent use: it runs on a single goroutine and every call blocks
// until its step completes.
//
// # Usage Example
//
//	port, err := modem.OpenSerial("/dev/ttyUSB0", 115200)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
//
//	seq := modem.NewSequencer(port, modem.SystemClock{})
//	seq.Run(modem.StartupScript(80, 30))
//
//	state := lamp.DefaultState()
//	core := modem.NewCore(port, &state, modem.Config{})
//	err = core.Run(ctx, func(out modem.Outcome) {
//	    log.Println(out)
//	})
//
// # Failure Policy
//
// Protocol failures never produce errors. Each Core.Tick returns an Outcome
// describing what happened (discarded frame, timeout with channel close,
// truncated body and so on). Errors are reserved for the transport itself.
package modem
