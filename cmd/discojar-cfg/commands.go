package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/discojar/internal/config"
	"github.com/muurk/discojar/internal/discovery"
	"github.com/muurk/discojar/internal/lamp"
	"github.com/muurk/discojar/internal/lampclient"
	"github.com/muurk/discojar/internal/preview"
	"github.com/muurk/discojar/internal/ui"
	"github.com/muurk/discojar/internal/wizard/tui"
)

// Lamp command flags
var (
	lampTarget   string
	configPath   string
	outputFormat string
	scanTimeout  int
	saveScanned  bool
	waitFor      string
	previewAddr  string
	presetName   string
	retries      int
	dryRun       bool
	verifyAddr   string
)

func init() {
	// Common flags (persistent on root)
	rootCmd.PersistentFlags().StringVar(&lampTarget, "lamp", "", "Saved lamp name or address (skips discovery)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file (default: user config directory)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "detailed", "Output format (detailed, json)")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(wizardCmd)
}

func loadRegistry() (*config.Registry, error) {
	var (
		reg *config.Registry
		err error
	)
	if configPath != "" {
		reg, err = config.LoadRegistryFrom(configPath)
	} else {
		reg, err = config.LoadRegistry()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return reg, nil
}

func saveRegistry(reg *config.Registry) error {
	if configPath != "" {
		return reg.SaveTo(configPath)
	}
	return reg.Save()
}

// lampError prints a troubleshooting box for a lamp failure and returns a
// short error for the exit message.
func lampError(printer *ui.Printer, title string, err error) error {
	printer.PrintError(title, err, ui.SplitHint(lampclient.GetTroubleshootingHint(err)))
	return fmt.Errorf("%s: %s", title, lampclient.GetShortErrorMessage(err))
}

// scanCmd discovers lamps on the network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for DiscoJar lamps on the network",
	Long: `Scan for DiscoJar lamps using mDNS/DNS-SD discovery.

Lamps are announced by the host running discojar-server, since the ESP8266
firmware cannot answer mDNS itself. Use --save to remember every lamp found
under its instance name.`,
	Example: `  # Scan for 5 seconds (default)
  discojar-cfg scan

  # Longer scan, saving what was found
  discojar-cfg scan --timeout 15 --save

  # Wait for one lamp to come up after a power cycle
  discojar-cfg scan --wait Kitchen --timeout 60 --save`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", 0, "Scan timeout in seconds (default from configuration)")
	scanCmd.Flags().BoolVar(&saveScanned, "save", false, "Save discovered lamps to the configuration")
	scanCmd.Flags().StringVar(&waitFor, "wait", "", "Stop as soon as the lamp with this instance name answers")
}

func newScanner(reg *config.Registry) *discovery.Scanner {
	timeout := scanTimeout
	if timeout <= 0 {
		timeout = reg.Preferences.DiscoverTimeout
	}
	scanner := discovery.NewScanner()
	if timeout > 0 {
		scanner.Timeout = time.Duration(timeout) * time.Second
	}
	return scanner
}

func scanLamps(reg *config.Registry) ([]*discovery.Lamp, error) {
	if waitFor != "" {
		l, err := newScanner(reg).WaitForLamp(context.Background(), waitFor)
		if err != nil {
			return nil, err
		}
		return []*discovery.Lamp{l}, nil
	}
	return newScanner(reg).ScanForLamps(context.Background())
}

func runScan(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	printer := ui.NewPrinter(cmd.OutOrStdout())

	lamps, err := scanLamps(reg)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if outputFormat == "json" {
		return writeJSON(cmd, lamps)
	}

	if len(lamps) == 0 {
		printer.PrintError("No lamps found", nil, []string{
			"Ensure discojar-server is running with mDNS advertising enabled",
			"Check that this computer is on the lamp's network",
			"Try increasing --timeout for slower networks",
			"Use --lamp to give an address directly if discovery fails",
		})
		return nil
	}

	details := make([]ui.Detail, 0, len(lamps))
	for _, l := range lamps {
		value := l.Address()
		if v := l.GetMetadata("version"); v != "" {
			value += " (v" + v + ")"
		}
		details = append(details, ui.Detail{Key: l.Instance, Value: value})
		if saveScanned {
			reg.UpdateLampLastSeen(l.Instance, l.Address())
		}
	}
	printer.PrintSuccess(fmt.Sprintf("Found %d lamp(s)", len(lamps)), details...)

	if saveScanned {
		if err := saveRegistry(reg); err != nil {
			return fmt.Errorf("failed to save lamps: %w", err)
		}
	}
	return nil
}

// resolveLamp picks the lamp a command talks to: --lamp, the default lamp,
// or the only lamp discovery finds. name is the saved name when there is one.
func resolveLamp(reg *config.Registry) (address, name string, err error) {
	if lampTarget != "" || reg.Preferences.DefaultLamp != "" {
		address, err = reg.ResolveLamp(lampTarget)
		if err != nil {
			return "", "", err
		}
		name = lampTarget
		if name == "" {
			name = reg.Preferences.DefaultLamp
		}
		if reg.GetLamp(name) == nil {
			name = ""
		}
		return address, name, nil
	}

	fmt.Println("No lamp specified, attempting auto-discovery...")
	lamps, err := scanLamps(reg)
	if err != nil {
		return "", "", fmt.Errorf("discovery failed: %w", err)
	}
	switch len(lamps) {
	case 0:
		return "", "", fmt.Errorf("no lamps found. Use --lamp to specify one")
	case 1:
		return lamps[0].Address(), lamps[0].Instance, nil
	default:
		for i, l := range lamps {
			fmt.Printf("%d. %s (%s)\n", i+1, l.Instance, l.Address())
		}
		return "", "", fmt.Errorf("multiple lamps found. Use --lamp to specify which one")
	}
}

// showCmd checks a lamp and prints what is known about it
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show lamp status",
	Long: `Check that a lamp serves its control page and show what is known about it.

The lamp firmware cannot report its configuration, so the current state is
read from a preview server when --preview is given.`,
	Example: `  # Show the default lamp
  discojar-cfg show

  # Show a lamp and its live configuration
  discojar-cfg show --lamp 192.168.1.42 --preview 192.168.1.10:8090`,
	RunE: runShow,
}

func init() {
	showCmd.Flags().StringVar(&previewAddr, "preview", "", "Preview server address to read the current configuration from")
}

type lampStatus struct {
	Address    string            `json:"address"`
	Name       string            `json:"name,omitempty"`
	PageBytes  int               `json:"page_bytes"`
	LastSeen   time.Time         `json:"last_seen,omitempty"`
	LastPreset string            `json:"last_preset,omitempty"`
	State      *preview.Snapshot `json:"state,omitempty"`
}

func runShow(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	printer := ui.NewPrinter(cmd.OutOrStdout())

	address, name, err := resolveLamp(reg)
	if err != nil {
		return err
	}

	client := lampclient.NewClient(address)
	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	page, err := client.FetchPage(ctx)
	if err != nil {
		return lampError(printer, "Lamp not reachable", err)
	}

	status := lampStatus{Address: client.Address(), Name: name, PageBytes: len(page)}
	if l := reg.GetLamp(name); l != nil {
		status.LastSeen = l.LastSeen
		status.LastPreset = l.LastPreset
	}
	if previewAddr != "" {
		snap, err := preview.Fetch(ctx, previewAddr)
		if err != nil {
			return err
		}
		status.State = &snap
	}

	if outputFormat == "json" {
		return writeJSON(cmd, status)
	}

	details := []ui.Detail{
		{Key: "Address", Value: status.Address},
		{Key: "Control page", Value: fmt.Sprintf("%d bytes", status.PageBytes)},
	}
	if name != "" {
		details = append(details, ui.Detail{Key: "Saved as", Value: name})
	}
	if !status.LastSeen.IsZero() {
		details = append(details, ui.Detail{Key: "Last seen", Value: status.LastSeen.Format(time.RFC1123)})
	}
	if status.LastPreset != "" {
		details = append(details, ui.Detail{Key: "Last preset", Value: status.LastPreset})
	}
	printer.PrintSuccess("Lamp is serving", details...)

	if status.State != nil {
		printer.PrintState(fmt.Sprintf("Current configuration (update %d)", status.State.Seq), status.State.State())
	}
	return nil
}

// setCmd sends a configuration to a lamp
var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Send a configuration to a lamp",
	Long: `Send a configuration packet to a lamp.

The configuration starts from a preset (the built-in "default" unless
--preset is given) and every flag that is set replaces one field. The lamp
applies the whole packet at once.

Modes: spectrum, spectrum-plasma, plasma, confetti, gradient, or a number.`,
	Example: `  # Confetti at half brightness
  discojar-cfg set --mode confetti --brightness 128

  # Start from the "calm" preset with different colors
  discojar-cfg set --preset calm --color0 '#ff8800' --color1 '#2200aa'

  # Send to a specific lamp
  discojar-cfg set --lamp 192.168.1.42 --mode plasma

  # Print the packet without sending it
  discojar-cfg set --mode gradient --dry-run`,
	RunE: runSet,
}

func init() {
	setCmd.Flags().StringVar(&presetName, "preset", config.DefaultPreset, "Preset to start from")
	setCmd.Flags().IntVar(&retries, "retries", lampclient.DefaultMaxRetries, "Number of retries when the lamp is busy")
	setCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the packet as hex instead of sending it")
	setCmd.Flags().StringVar(&verifyAddr, "verify", "", "Preview server address to verify the applied configuration against")
	addStateFlags(setCmd)
}

func runSet(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}

	base, err := reg.GetPreset(presetName)
	if err != nil {
		return err
	}
	s, err := stateFromFlags(cmd, base)
	if err != nil {
		return err
	}

	if dryRun {
		pkt := lamp.PacketFromState(s).Encode()
		_, err := fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(pkt[:]))
		return err
	}

	recordPreset := ""
	if !anyStateFlagChanged(cmd) {
		recordPreset = presetName
	}
	return applyToLamp(cmd, reg, s, recordPreset)
}

// applyToLamp sends s to the resolved lamp and records it in the registry.
func applyToLamp(cmd *cobra.Command, reg *config.Registry, s lamp.State, preset string) error {
	printer := ui.NewPrinter(cmd.OutOrStdout())

	address, name, err := resolveLamp(reg)
	if err != nil {
		return err
	}

	client := lampclient.NewClient(address)
	client.SetRetry(retries, lampclient.DefaultRetryDelay)

	printer.PrintHeader("Configure Lamp", cmd.CommandPath(), ui.Detail{Key: "Lamp", Value: client.Address()})

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	if verifyAddr == "" {
		if err := client.Apply(ctx, s); err != nil {
			return lampError(printer, "Configuration failed", err)
		}
		printer.PrintState("Configuration applied", s)
	} else {
		result := client.ApplyAndVerify(ctx, s, preview.Reader{Addr: verifyAddr}, nil)
		if !result.Success {
			if lampclient.IsNetworkError(result.Error) {
				return lampError(printer, "Configuration failed", result.Error)
			}
			printer.PrintError("Configuration not verified", result.Error, result.Mismatches)
			return fmt.Errorf("configuration verification failed after %d attempt(s)", result.Attempts)
		}
		printer.PrintState(fmt.Sprintf("Configuration applied and verified (%d attempt(s))", result.Attempts), s)
	}

	if name != "" {
		reg.UpdateLampLastSeen(name, address)
		reg.GetLamp(name).LastPreset = preset
		if err := saveRegistry(reg); err != nil {
			return fmt.Errorf("failed to save configuration: %w", err)
		}
	}
	return nil
}

// watchCmd follows a preview server
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow live configuration changes",
	Long: `Connect to a discojar-server preview endpoint and print every configuration
the lamp applies, as it happens. Stops on Ctrl+C or when the server exits.`,
	Example: `  discojar-cfg watch --preview 192.168.1.10:8090`,
	RunE:    runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&previewAddr, "preview", "", "Preview server address (host:port)")
	_ = watchCmd.MarkFlagRequired("preview")
}

func runWatch(cmd *cobra.Command, args []string) error {
	printer := ui.NewPrinter(cmd.OutOrStdout())
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	return preview.Watch(ctx, previewAddr, func(snap preview.Snapshot) error {
		if outputFormat == "json" {
			return writeJSON(cmd, snap)
		}
		printer.PrintState(fmt.Sprintf("Update %d at %s", snap.Seq, snap.UpdatedAt.Format(time.TimeOnly)), snap.State())
		return nil
	})
}

// wizardCmd launches the interactive editor
var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Launch the interactive lamp editor",
	Long: `Launch an interactive TUI for lamp configuration.

The editor provides:
- Discovering lamps on the network
- Adjusting mode, brightness, colors, decay and gain
- Sending the configuration to the lamp
- Saving the result as a preset

This is the recommended way to configure lamps for most users.`,
	Example: `  # Launch the editor with auto-discovery
  discojar-cfg wizard
  # Or simply (wizard is default):
  discojar-cfg

  # Edit a specific lamp starting from a preset
  discojar-cfg wizard --lamp kitchen --preset party`,
	RunE: runWizard,
}

func init() {
	wizardCmd.Flags().StringVar(&presetName, "preset", config.DefaultPreset, "Preset to start from")
}

func runWizard(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}

	name := presetName
	if name == "" {
		name = config.DefaultPreset
	}
	initial, err := reg.GetPreset(name)
	if err != nil {
		return err
	}

	opts := tui.Options{
		Initial: &initial,
		SavePreset: func(name string, s lamp.State) error {
			reg.SetPreset(name, s)
			return saveRegistry(reg)
		},
		OnApplied: func(address string, s lamp.State) {
			for lampName, l := range reg.Lamps {
				if l.Address == address {
					reg.UpdateLampLastSeen(lampName, address)
					_ = saveRegistry(reg)
					return
				}
			}
		},
	}
	if lampTarget != "" || reg.Preferences.DefaultLamp != "" {
		address, err := reg.ResolveLamp(lampTarget)
		if err != nil {
			return err
		}
		opts.Address = lampclient.NewClient(address).Address()
		opts.Name = lampTarget
	}

	if err := tui.Run(opts); err != nil {
		return fmt.Errorf("editor error: %w", err)
	}
	return nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
