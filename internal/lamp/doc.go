// Package lamp holds the live configuration of the DiscoJar LED renderer and
// the 20-byte packet used to change it over HTTP.
//
// # Packet Layout
//
// The control page POSTs a fixed little-endian layout:
//
//	offset  size  field
//	0       1     mode (0-4, not range checked)
//	1       1     brightness
//	2       3     color0 (R, G, B)
//	5       3     color1 (R, G, B)
//	8       1     param0 (reserved)
//	9       1     param1 (reserved)
//	10      4     decay (IEEE-754 float32, little-endian)
//	14      4     gain  (IEEE-754 float32, little-endian)
//
// # Usage Example
//
//	state := lamp.DefaultState()
//
//	pkt, err := lamp.DecodePacket(body)
//	if err != nil {
//	    return err
//	}
//	pkt.Apply(&state)
//
// # Thread Safety
//
// State is a plain value. It has a single writer (the modem core) and a single
// reader (the renderer) running on the same goroutine; callers that read it
// from elsewhere must take a copy on that goroutine.
package lamp
