package lamp

import "testing"

func TestDefaultState(t *testing.T) {
	s := DefaultState()

	if s.Mode != ModeSpectrumWithPlasma {
		t.Errorf("Mode = %v, want %v", s.Mode, ModeSpectrumWithPlasma)
	}
	if s.Brightness != 32 {
		t.Errorf("Brightness = %d, want 32", s.Brightness)
	}
	if s.Color0 != Red {
		t.Errorf("Color0 = %s, want #ff0000", s.Color0.Hex())
	}
	if s.Color1 != Green {
		t.Errorf("Color1 = %s, want #00ff00", s.Color1.Hex())
	}
	if s.Decay != float32(0.4) {
		t.Errorf("Decay = %g, want 0.4", s.Decay)
	}
	if s.Gain != 340 {
		t.Errorf("Gain = %g, want 340", s.Gain)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"spectrum", ModeSpectrum, false},
		{"Spectrum-Plasma", ModeSpectrumWithPlasma, false},
		{" gradient ", ModeGradient, false},
		{"3", ModeConfetti, false},
		{"17", Mode(17), false},
		{"disco", 0, true},
		{"256", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestModeString(t *testing.T) {
	if got := ModePlasma.String(); got != "plasma" {
		t.Errorf("ModePlasma.String() = %q, want plasma", got)
	}
	if got := Mode(9).String(); got != "mode(9)" {
		t.Errorf("Mode(9).String() = %q, want mode(9)", got)
	}

	names := ModeNames()
	if len(names) != ModeCount {
		t.Fatalf("ModeNames() has %d entries, want %d", len(names), ModeCount)
	}
	for i, name := range names {
		m, err := ParseMode(name)
		if err != nil || m != Mode(i) {
			t.Errorf("ParseMode(%q) = %v, %v; want %v", name, m, err, Mode(i))
		}
	}
}

func TestParseRGB(t *testing.T) {
	tests := []struct {
		in      string
		want    RGB
		wantErr bool
	}{
		{"#ff0000", Red, false},
		{"00FF00", Green, false},
		{"#0000ff", Blue, false},
		{"#fff", RGB{}, true},
		{"#gg0000", RGB{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRGB(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRGB(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseRGB(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	if got := (RGB{0x12, 0xab, 0x00}).Hex(); got != "#12ab00" {
		t.Errorf("Hex() = %q, want #12ab00", got)
	}
}
