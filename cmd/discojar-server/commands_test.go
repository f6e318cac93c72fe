package main

import (
	"testing"
	"time"

	"github.com/muurk/discojar/internal/config"
)

func TestServerConfig(t *testing.T) {
	reg := config.NewRegistry()
	reg.Modem.Device = "/dev/ttyUSB0"
	reg.Modem.BootDelayMS = 250
	reg.Server.PreviewAddr = "127.0.0.1:8090"

	cfg := serverConfig(serveCmd, reg)
	if cfg.Device != "/dev/ttyUSB0" || cfg.BootDelay != 250*time.Millisecond {
		t.Errorf("file settings not used: %+v", cfg)
	}
	if cfg.PreviewAddr != "127.0.0.1:8090" || !cfg.Advertise || cfg.Instance != "DiscoJar" {
		t.Errorf("server settings not used: %+v", cfg)
	}
	if cfg.ServerPort != 80 || cfg.IdleTimeout != 30 || cfg.Baud != 115200 {
		t.Errorf("defaults not used: %+v", cfg)
	}

	flags := map[string]string{
		"device":     "/dev/ttyACM0",
		"port":       "8080",
		"boot-delay": "0s",
		"emulate":    "127.0.0.1:0",
	}
	for name, value := range flags {
		if err := serveCmd.Flags().Set(name, value); err != nil {
			t.Fatalf("Set(%s) error = %v", name, err)
		}
	}

	cfg = serverConfig(serveCmd, reg)
	if cfg.Device != "/dev/ttyACM0" || cfg.ServerPort != 8080 || cfg.BootDelay != 0 {
		t.Errorf("flags not applied: %+v", cfg)
	}
	if cfg.Emulate != "127.0.0.1:0" {
		t.Errorf("Emulate = %q", cfg.Emulate)
	}
	if cfg.Advertise {
		t.Error("emulated lamps should not be advertised by default")
	}
	if cfg.PreviewAddr != "127.0.0.1:8090" {
		t.Errorf("unset flag overrode the file: %q", cfg.PreviewAddr)
	}
}
