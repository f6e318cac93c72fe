package lamp

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Packet layout constants
const (
	PacketSize  = 20
	offsetDecay = 10
	offsetGain  = 14
)

// Reserved parameter values written by the control page.
const (
	PageParam0 = 47
	PageParam1 = 11
)

// Packet is the decoded form of the 20-byte configuration body.
type Packet struct {
	Mode       Mode
	Brightness byte
	Color0     RGB
	Color1     RGB
	Param0     byte
	Param1     byte
	Decay      float32
	Gain       float32
}

// Float32LE decodes a little-endian IEEE-754 single. Every 4-byte input,
// including NaN and infinity patterns, maps to a defined value.
func Float32LE(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

// PutFloat32LE encodes f as a little-endian IEEE-754 single into b.
func PutFloat32LE(b []byte, f float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(f))
}

// DecodePacket interprets the first PacketSize bytes of buf. Field values
// are taken as-is; no range validation is performed.
func DecodePacket(buf []byte) (Packet, error) {
	if len(buf) < PacketSize {
		return Packet{}, fmt.Errorf("packet too short: %d bytes (minimum %d)", len(buf), PacketSize)
	}

	return Packet{
		Mode:       Mode(buf[0]),
		Brightness: buf[1],
		Color0:     RGB{buf[2], buf[3], buf[4]},
		Color1:     RGB{buf[5], buf[6], buf[7]},
		Param0:     buf[8],
		Param1:     buf[9],
		Decay:      Float32LE(buf[offsetDecay : offsetDecay+4]),
		Gain:       Float32LE(buf[offsetGain : offsetGain+4]),
	}, nil
}

// Encode returns the wire form of p.
func (p Packet) Encode() [PacketSize]byte {
	var buf [PacketSize]byte
	buf[0] = byte(p.Mode)
	buf[1] = p.Brightness
	copy(buf[2:5], p.Color0[:])
	copy(buf[5:8], p.Color1[:])
	buf[8] = p.Param0
	buf[9] = p.Param1
	PutFloat32LE(buf[offsetDecay:], p.Decay)
	PutFloat32LE(buf[offsetGain:], p.Gain)
	return buf
}

// Apply replaces every field of s with the packet contents in one assignment,
// so a reader never observes a partially updated state.
func (p Packet) Apply(s *State) {
	*s = p.State()
}

// State converts the packet to a lamp state value.
func (p Packet) State() State {
	return State{
		Mode:       p.Mode,
		Brightness: p.Brightness,
		Color0:     p.Color0,
		Color1:     p.Color1,
		Param0:     p.Param0,
		Param1:     p.Param1,
		Decay:      p.Decay,
		Gain:       p.Gain,
	}
}

// PacketFromState builds the packet that would reproduce s.
func PacketFromState(s State) Packet {
	return Packet{
		Mode:       s.Mode,
		Brightness: s.Brightness,
		Color0:     s.Color0,
		Color1:     s.Color1,
		Param0:     s.Param0,
		Param1:     s.Param1,
		Decay:      s.Decay,
		Gain:       s.Gain,
	}
}

// String returns a debug representation of the packet.
func (p Packet) String() string {
	return fmt.Sprintf("Packet{%s}", p.State())
}
