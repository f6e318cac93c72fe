package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/muurk/discojar/internal/config"
	"github.com/muurk/discojar/internal/lamp"
)

func TestStateFromFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
		check   func(s lamp.State) bool
	}{
		{
			name:  "no flags keeps base",
			check: func(s lamp.State) bool { return s == lamp.DefaultState() },
		},
		{
			name:  "mode and colors",
			args:  []string{"--mode", "gradient", "--color0", "#0000ff", "--color1", "102030"},
			check: func(s lamp.State) bool {
				return s.Mode == lamp.ModeGradient && s.Color0 == lamp.Blue && s.Color1 == lamp.RGB{0x10, 0x20, 0x30}
			},
		},
		{
			name:  "numbers",
			args:  []string{"--brightness", "255", "--param0", "47", "--decay", "0.25", "--gain", "500"},
			check: func(s lamp.State) bool {
				return s.Brightness == 255 && s.Param0 == 47 && s.Decay == 0.25 && s.Gain == 500
			},
		},
		{name: "brightness out of range", args: []string{"--brightness", "256"}, wantErr: true},
		{name: "bad mode", args: []string{"--mode", "strobe"}, wantErr: true},
		{name: "bad color", args: []string{"--color1", "#12"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{Use: "test"}
			addStateFlags(cmd)
			if err := cmd.Flags().Parse(tt.args); err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got := anyStateFlagChanged(cmd); got != (len(tt.args) > 0) {
				t.Errorf("anyStateFlagChanged() = %v", got)
			}

			s, err := stateFromFlags(cmd, lamp.DefaultState())
			if (err != nil) != tt.wantErr {
				t.Fatalf("stateFromFlags() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil && !tt.check(s) {
				t.Errorf("stateFromFlags() = %v", s)
			}
		})
	}
}

// resetFlags restores every flag to its default; cobra keeps parsed values
// between Execute calls.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute(%v) error = %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestSetSendsPacket(t *testing.T) {
	bodies := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		body, _ := io.ReadAll(r.Body)
		bodies <- body
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "config.yaml")
	lampAddr := strings.TrimPrefix(srv.URL, "http://")
	execute(t, "set", "--config", path, "--lamp", lampAddr, "--preset", "party", "--brightness", "9")

	body := <-bodies
	pkt, err := lamp.DecodePacket(body)
	if err != nil {
		t.Fatalf("DecodePacket() error = %v", err)
	}
	got := pkt.State()

	reg := config.NewRegistry()
	want, err := reg.GetPreset("party")
	if err != nil {
		t.Fatal(err)
	}
	want.Brightness = 9
	if got != want {
		t.Errorf("lamp received %v, want %v", got, want)
	}
}

func TestPresetSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	execute(t, "preset", "save", "evening", "--config", path, "--from", "calm", "--brightness", "12", "--color0", "#ff4400")

	reg, err := config.LoadRegistryFrom(path)
	if err != nil {
		t.Fatalf("LoadRegistryFrom() error = %v", err)
	}
	got, err := reg.GetPreset("evening")
	if err != nil {
		t.Fatalf("GetPreset() error = %v", err)
	}
	want, _ := config.NewRegistry().GetPreset("calm")
	want.Brightness = 12
	want.Color0 = lamp.RGB{0xff, 0x44, 0x00}
	if got != want {
		t.Errorf("saved %v, want %v", got, want)
	}
}

func TestPresetDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	execute(t, "preset", "delete", "party", "--config", path)

	reg, err := config.LoadRegistryFrom(path)
	if err != nil {
		t.Fatalf("LoadRegistryFrom() error = %v", err)
	}
	if _, err := reg.GetPreset("party"); err == nil {
		t.Error("party preset still present after delete")
	}

	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"preset", "delete", config.DefaultPreset, "--config", path})
	if err := rootCmd.Execute(); err == nil {
		t.Error("deleting the default preset succeeded")
	}
}

func TestLampsAddAndDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	execute(t, "lamps", "add", "kitchen", "192.168.1.42", "--config", path)
	execute(t, "lamps", "default", "kitchen", "--config", path)

	reg, err := config.LoadRegistryFrom(path)
	if err != nil {
		t.Fatalf("LoadRegistryFrom() error = %v", err)
	}
	addr, err := reg.ResolveLamp("")
	if err != nil {
		t.Fatalf("ResolveLamp() error = %v", err)
	}
	if addr != "192.168.1.42:80" {
		t.Errorf("default lamp address = %q", addr)
	}
}

func TestParseHexPacket(t *testing.T) {
	want := lamp.DefaultState()
	want.Param0, want.Param1 = lamp.PageParam0, lamp.PageParam1

	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{name: "compact", in: "0120ff000000ff002f0bcdcccc3e0000aa430000"},
		{name: "spaced", in: "01 20 ff0000 00ff00 2f 0b cdcccc3e 0000aa43 0000"},
		{name: "prefixed with trailing bytes", in: "0x0120FF000000FF002F0BCDCCCC3E0000AA430000ffff"},
		{name: "too short", in: "0120ff", wantErr: true},
		{name: "not hex", in: "zz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkt, err := parseHexPacket(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseHexPacket() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && pkt.State() != want {
				t.Errorf("parseHexPacket() = %v, want %v", pkt.State(), want)
			}
		})
	}
}

func TestSetDryRunMatchesDecode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	out := execute(t, "set", "--config", path, "--preset", "default", "--dry-run")

	pkt, err := parseHexPacket(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("parseHexPacket(%q) error = %v", out, err)
	}
	want, _ := config.NewRegistry().GetPreset("default")
	if pkt.State() != want {
		t.Errorf("dry run printed %v, want %v", pkt.State(), want)
	}
}
