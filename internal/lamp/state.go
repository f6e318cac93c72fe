package lamp

import (
	"fmt"
	"strconv"
	"strings"
)

// Mode selects the renderer animation.
type Mode byte

// Renderer modes understood by the firmware. Values outside this range are
// stored as received.
const (
	ModeSpectrum Mode = iota
	ModeSpectrumWithPlasma
	ModePlasma
	ModeConfetti
	ModeGradient
)

// ModeCount is the number of known modes.
const ModeCount = 5

var modeNames = [ModeCount]string{
	"spectrum",
	"spectrum-plasma",
	"plasma",
	"confetti",
	"gradient",
}

// String returns the mode name, or "mode(N)" for unknown values.
func (m Mode) String() string {
	if int(m) < ModeCount {
		return modeNames[m]
	}
	return fmt.Sprintf("mode(%d)", byte(m))
}

// Known reports whether m is one of the defined modes.
func (m Mode) Known() bool {
	return int(m) < ModeCount
}

// ParseMode accepts a mode name or its numeric value.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range modeNames {
		if s == name {
			return Mode(i), nil
		}
	}
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("unknown mode %q (expected one of %s)", s, strings.Join(modeNames[:], ", "))
	}
	return Mode(n), nil
}

// ModeNames lists the known mode names in numeric order.
func ModeNames() []string {
	names := make([]string, ModeCount)
	copy(names, modeNames[:])
	return names
}

// RGB is one 8-bit-per-channel color.
type RGB [3]byte

// Common colors
var (
	Red   = RGB{255, 0, 0}
	Green = RGB{0, 255, 0}
	Blue  = RGB{0, 0, 255}
)

// Hex formats the color as "#rrggbb".
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}

// ParseRGB parses "#rrggbb" or "rrggbb".
func ParseRGB(s string) (RGB, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return RGB{}, fmt.Errorf("invalid color %q: expected 6 hex digits", s)
	}
	var c RGB
	for i := range c {
		v, err := strconv.ParseUint(s[i*2:i*2+2], 16, 8)
		if err != nil {
			return RGB{}, fmt.Errorf("invalid color %q: %w", s, err)
		}
		c[i] = byte(v)
	}
	return c, nil
}

// State is the live lamp configuration read by the renderer.
type State struct {
	Mode       Mode    `json:"mode"`
	Brightness byte    `json:"brightness"`
	Color0     RGB     `json:"color0"`
	Color1     RGB     `json:"color1"`
	Param0     byte    `json:"param0"` // reserved
	Param1     byte    `json:"param1"` // reserved
	Decay      float32 `json:"decay"`
	Gain       float32 `json:"gain"`
}

// Defaults used at power-on.
const (
	DefaultMode       = ModeSpectrumWithPlasma
	DefaultBrightness = 32
	DefaultDecay      = 0.4
	DefaultGain       = 340.0
)

// DefaultState returns the power-on configuration.
func DefaultState() State {
	return State{
		Mode:       DefaultMode,
		Brightness: DefaultBrightness,
		Color0:     Red,
		Color1:     Green,
		Decay:      DefaultDecay,
		Gain:       DefaultGain,
	}
}

// String returns a compact one-line description.
func (s State) String() string {
	return fmt.Sprintf("State{mode=%s, brightness=%d, color0=%s, color1=%s, param0=%d, param1=%d, decay=%g, gain=%g}",
		s.Mode, s.Brightness, s.Color0.Hex(), s.Color1.Hex(), s.Param0, s.Param1, s.Decay, s.Gain)
}
