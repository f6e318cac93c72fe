package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/muurk/discojar/internal/lamp"
	"github.com/muurk/discojar/internal/modem"
)

func TestResultRender(t *testing.T) {
	tests := []struct {
		name   string
		result *Result
		want   []string
	}{
		{
			name:   "success",
			result: NewSuccessResult("Lamp configured", Detail{"Lamp", "192.168.1.42:80"}, Detail{"Mode", "plasma"}),
			want:   []string{"SUCCESS", "Lamp configured", "192.168.1.42:80", "plasma"},
		},
		{
			name:   "failure",
			result: NewFailureResult("Apply failed", errors.New("refused"), []string{"Power-cycle the lamp"}),
			want:   []string{"FAILED", "Error: refused", "Troubleshooting:", "Power-cycle the lamp"},
		},
		{
			name:   "warning",
			result: NewWarningResult("No lamps found"),
			want:   []string{"WARNING", "No lamps found"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.result.SetWidth(80).Render()
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("Render() missing %q in:\n%s", w, got)
				}
			}
		})
	}
}

func TestResultDetailsKeepOrder(t *testing.T) {
	r := NewSuccessResult("ordered").SetWidth(80)
	for _, k := range []string{"zulu", "alpha", "mike"} {
		r.AddDetail(k, "v")
	}
	got := r.Render()
	z, a, m := strings.Index(got, "zulu"), strings.Index(got, "alpha"), strings.Index(got, "mike")
	if z < 0 || a < 0 || m < 0 || !(z < a && a < m) {
		t.Errorf("details out of order:\n%s", got)
	}
}

func TestSplitHint(t *testing.T) {
	hint := "The lamp refused the connection.\nTroubleshooting:\n  • Verify the port\n  • Power-cycle the lamp"
	got := SplitHint(hint)
	if len(got) != 2 || got[0] != "Verify the port" || got[1] != "Power-cycle the lamp" {
		t.Errorf("SplitHint() = %q", got)
	}
}

func TestStartupProgress(t *testing.T) {
	results := []modem.CommandResult{
		{Command: modem.Command{Text: "ATE1"}, OK: true, Elapsed: 3 * time.Millisecond},
		{Command: modem.Command{Text: "AT+CWLAP"}, OK: false, Elapsed: 5 * time.Second},
		{Command: modem.Command{Text: "AT+CIFSR"}, OK: true, Elapsed: 20 * time.Millisecond},
		{Command: modem.Command{Text: "AT+GMR"}, OK: true},
	}

	p := StartupProgress(results).SetWidth(80)
	if p.Percent != 0.75 {
		t.Errorf("Percent = %v, want 0.75", p.Percent)
	}
	if p.Failed() != 1 {
		t.Errorf("Failed() = %d, want 1", p.Failed())
	}

	got := p.Render()
	for _, w := range []string{"Modem startup", "AT+CWLAP", FailureMarker, "(5s)", "[3/4]"} {
		if !strings.Contains(got, w) {
			t.Errorf("Render() missing %q in:\n%s", w, got)
		}
	}
}

func TestUpdateStepIgnoresOutOfRange(t *testing.T) {
	p := NewProgress("x", []string{"a"})
	p.UpdateStep(0, StepComplete, "")
	p.UpdateStep(2, StepComplete, "")
	if p.Percent != 0 {
		t.Errorf("Percent = %v, want 0", p.Percent)
	}
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf).SetWidth(80)

	s := lamp.DefaultState()
	p.PrintHeader("Lamp configuration", "discojar-cfg show", Detail{"Lamp", "kitchen"})
	p.PrintState("Current", s)

	got := buf.String()
	for _, w := range []string{"LAMP CONFIGURATION", "discojar-cfg show", "kitchen", "spectrum-plasma (1)", "#ff0000", "#00ff00", "0.4", "340"} {
		if !strings.Contains(got, w) {
			t.Errorf("output missing %q in:\n%s", w, got)
		}
	}
}

func TestStateDetails(t *testing.T) {
	s := lamp.State{Mode: lamp.Mode(9), Param0: 47, Param1: 11, Decay: 0.25, Gain: 1e6}
	d := StateDetails(s)
	if d[0].Value != "mode(9) (9)" {
		t.Errorf("Mode = %q", d[0].Value)
	}
	if d[4].Value != "47, 11" {
		t.Errorf("Params = %q", d[4].Value)
	}
	if d[5].Value != "0.25" || d[6].Value != "1e+06" {
		t.Errorf("Decay/Gain = %q/%q", d[5].Value, d[6].Value)
	}
}
