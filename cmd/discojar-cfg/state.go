package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muurk/discojar/internal/lamp"
)

// Configuration field flags shared by set and preset save
var (
	flagMode       string
	flagBrightness int
	flagColor0     string
	flagColor1     string
	flagParam0     int
	flagParam1     int
	flagDecay      float32
	flagGain       float32
)

var stateFlagNames = []string{"mode", "brightness", "color0", "color1", "param0", "param1", "decay", "gain"}

func addStateFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&flagMode, "mode", "", "Renderer mode: "+strings.Join(lamp.ModeNames(), ", ")+" (or its number)")
	f.IntVar(&flagBrightness, "brightness", lamp.DefaultBrightness, "Brightness (0-255)")
	f.StringVar(&flagColor0, "color0", "", "First color (#rrggbb)")
	f.StringVar(&flagColor1, "color1", "", "Second color (#rrggbb)")
	f.IntVar(&flagParam0, "param0", lamp.PageParam0, "Reserved parameter 0 (0-255)")
	f.IntVar(&flagParam1, "param1", lamp.PageParam1, "Reserved parameter 1 (0-255)")
	f.Float32Var(&flagDecay, "decay", lamp.DefaultDecay, "Spectrum decay (the control page sends 0.01-1)")
	f.Float32Var(&flagGain, "gain", lamp.DefaultGain, "Audio gain (the control page sends 200-600)")
}

func anyStateFlagChanged(cmd *cobra.Command) bool {
	for _, name := range stateFlagNames {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

// stateFromFlags replaces the fields of base whose flags were set.
func stateFromFlags(cmd *cobra.Command, base lamp.State) (lamp.State, error) {
	s := base
	f := cmd.Flags()

	if f.Changed("mode") {
		m, err := lamp.ParseMode(flagMode)
		if err != nil {
			return s, err
		}
		s.Mode = m
	}
	for _, b := range []struct {
		name string
		v    int
		dst  *byte
	}{
		{"brightness", flagBrightness, &s.Brightness},
		{"param0", flagParam0, &s.Param0},
		{"param1", flagParam1, &s.Param1},
	} {
		if !f.Changed(b.name) {
			continue
		}
		if b.v < 0 || b.v > 255 {
			return s, fmt.Errorf("--%s %d out of range 0-255", b.name, b.v)
		}
		*b.dst = byte(b.v)
	}
	if f.Changed("color0") {
		c, err := lamp.ParseRGB(flagColor0)
		if err != nil {
			return s, fmt.Errorf("--color0: %w", err)
		}
		s.Color0 = c
	}
	if f.Changed("color1") {
		c, err := lamp.ParseRGB(flagColor1)
		if err != nil {
			return s, fmt.Errorf("--color1: %w", err)
		}
		s.Color1 = c
	}
	if f.Changed("decay") {
		s.Decay = flagDecay
	}
	if f.Changed("gain") {
		s.Gain = flagGain
	}
	return s, nil
}
