package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/discojar/internal/config"
	"github.com/muurk/discojar/internal/modem"
	"github.com/muurk/discojar/internal/server"
	"github.com/muurk/discojar/internal/ui"
)

// Serve command flags
var (
	configPath  string
	device      string
	baud        int
	emulate     string
	serverPort  int
	idleTimeout int
	bootDelay   time.Duration
	previewAddr string
	noAdvertise bool
	instance    string
	logLevel    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the lamp server",
	Long: `Bring the modem up and serve the lamp control page.

Settings come from the configuration file (see 'discojar-cfg') and can be
overridden with flags. The modem is reset, joined to the network configured
in its flash and put into multi-connection server mode before requests are
served.

Use --emulate to listen on a local TCP address instead of a serial device.
Use --preview to stream every applied configuration to WebSocket clients.`,
	Example: `  # Serve on a USB serial adapter
  discojar-server serve --device /dev/ttyUSB0

  # Emulate the modem and browse to http://127.0.0.1:8080/
  discojar-server serve --emulate 127.0.0.1:8080 --boot-delay 0

  # Stream applied configurations to ws://127.0.0.1:8090/ws
  discojar-server serve --device /dev/ttyUSB0 --preview 127.0.0.1:8090

  # Debug the AT traffic
  discojar-server serve --device /dev/ttyUSB0 --log-level debug`,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&configPath, "config", "", "Configuration file (default: user config directory)")
	f.StringVar(&device, "device", "", "Serial device of the ESP8266")
	f.IntVar(&baud, "baud", config.DefaultBaudRate, "Serial baud rate")
	f.StringVar(&emulate, "emulate", "", "Emulate the modem on this TCP address instead of a serial device")
	f.IntVar(&serverPort, "port", config.DefaultServerPort, "TCP port the modem serves on")
	f.IntVar(&idleTimeout, "idle-timeout", config.DefaultIdleTimeout, "Modem connection idle timeout in seconds")
	f.DurationVar(&bootDelay, "boot-delay", config.DefaultBootDelayMS*time.Millisecond, "Wait for the module to power up")
	f.StringVar(&previewAddr, "preview", "", "Listen address of the live preview server (disabled if empty)")
	f.BoolVar(&noAdvertise, "no-advertise", false, "Do not announce the lamp over mDNS")
	f.StringVar(&instance, "instance", config.DefaultInstance, "mDNS instance name")
	f.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); default from DISCOJAR_LOG_LEVEL")
}

// serverConfig merges the configuration file with the flags that were set.
func serverConfig(cmd *cobra.Command, reg *config.Registry) *server.Config {
	cfg := &server.Config{
		Device:      reg.Modem.Device,
		Baud:        reg.Modem.Baud,
		Emulate:     reg.Modem.Emulate,
		ServerPort:  reg.Modem.ServerPort,
		IdleTimeout: reg.Modem.IdleTimeout,
		BootDelay:   reg.Modem.BootDelay(),
		PreviewAddr: reg.Server.PreviewAddr,
		Advertise:   reg.Server.Advertise,
		Instance:    reg.Server.Instance,
		LogLevel:    logLevel,
	}

	f := cmd.Flags()
	if f.Changed("device") {
		cfg.Device = device
	}
	if f.Changed("baud") {
		cfg.Baud = baud
	}
	if f.Changed("emulate") {
		cfg.Emulate = emulate
	}
	if f.Changed("port") {
		cfg.ServerPort = serverPort
	}
	if f.Changed("idle-timeout") {
		cfg.IdleTimeout = idleTimeout
	}
	if f.Changed("boot-delay") {
		cfg.BootDelay = bootDelay
	}
	if f.Changed("preview") {
		cfg.PreviewAddr = previewAddr
	}
	if f.Changed("no-advertise") {
		cfg.Advertise = !noAdvertise
	}
	if f.Changed("instance") {
		cfg.Instance = instance
	}
	// The emulator always reports 127.0.0.1, which is not worth announcing.
	if cfg.Emulate != "" && !f.Changed("no-advertise") {
		cfg.Advertise = false
	}
	return cfg
}

func loadRegistry() (*config.Registry, error) {
	if configPath != "" {
		return config.LoadRegistryFrom(configPath)
	}
	return config.LoadRegistry()
}

func runServe(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg := serverConfig(cmd, reg)

	interactive := ui.IsTerminal()
	printer := ui.NewPrinter(cmd.OutOrStdout())

	if interactive {
		modemName := cfg.Device
		if cfg.Emulate != "" {
			modemName = "emulator on " + cfg.Emulate
		}
		printer.PrintHeader("DiscoJar Server", "serve",
			ui.Detail{Key: "Modem", Value: modemName},
			ui.Detail{Key: "Server port", Value: fmt.Sprint(cfg.ServerPort)},
		)
		cfg.OnOutcome = func(out modem.Outcome) {
			if out.Status == modem.StatusConfigApplied {
				printer.PrintState(fmt.Sprintf("Lamp updated (channel %d)", out.Channel), out.State)
			}
		}
	}

	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	done := make(chan struct{})
	defer close(done)
	if interactive {
		go func() {
			select {
			case <-srv.Ready():
			case <-done:
				return
			}
			printer.PrintStartup(srv.StartupResults())
			details := []ui.Detail{{Key: "Station IP", Value: srv.StationIP()}}
			if hub := srv.Preview(); hub != nil {
				details = append(details, ui.Detail{Key: "Preview", Value: "ws://" + hub.Addr() + "/ws"})
			}
			printer.PrintSuccess("Serving lamp control page", details...)
		}()
	}

	return srv.Start()
}

// portsCmd lists serial devices
var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports",
	Long: `List the serial devices on this host. USB adapters show their vendor and
product IDs so the ESP8266 adapter can be told apart from other devices.`,
	RunE: runPorts,
}

func runPorts(cmd *cobra.Command, args []string) error {
	ports, err := modem.ListPorts()
	if err != nil {
		return err
	}

	printer := ui.NewPrinter(cmd.OutOrStdout())
	if len(ports) == 0 {
		printer.PrintWarning("No serial ports found")
		return nil
	}

	details := make([]ui.Detail, 0, len(ports))
	for _, p := range ports {
		value := "-"
		if p.IsUSB {
			value = fmt.Sprintf("USB %s:%s", p.VID, p.PID)
			if p.Product != "" {
				value += " " + p.Product
			}
			if p.SerialNumber != "" {
				value += " (" + p.SerialNumber + ")"
			}
		}
		details = append(details, ui.Detail{Key: p.Name, Value: value})
	}
	printer.PrintSuccess(fmt.Sprintf("Found %d serial port(s)", len(ports)), details...)
	return nil
}
