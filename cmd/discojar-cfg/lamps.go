package main

import (
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/discojar/internal/discovery"
	"github.com/muurk/discojar/internal/lampclient"
	"github.com/muurk/discojar/internal/ui"
)

var lampsCmd = &cobra.Command{
	Use:   "lamps",
	Short: "Manage saved lamps",
	Long: `Manage the lamp addresses saved in the configuration file. Saved names can
be used wherever --lamp takes an address.`,
}

var lampsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved lamps",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		if outputFormat == "json" {
			return writeJSON(cmd, reg.Lamps)
		}

		printer := ui.NewPrinter(cmd.OutOrStdout())
		if len(reg.Lamps) == 0 {
			printer.PrintWarning("No saved lamps",
				ui.Detail{Key: "Hint", Value: "run 'discojar-cfg scan --save' or 'discojar-cfg lamps add'"})
			return nil
		}

		details := make([]ui.Detail, 0, len(reg.Lamps))
		for _, name := range sortedKeys(reg.Lamps) {
			l := reg.Lamps[name]
			value := l.Address
			if name == reg.Preferences.DefaultLamp {
				value += " (default)"
			}
			if !l.LastSeen.IsZero() {
				value += ", seen " + l.LastSeen.Format(time.DateTime)
			}
			details = append(details, ui.Detail{Key: name, Value: value})
		}
		printer.PrintSuccess(fmt.Sprintf("%d saved lamp(s)", len(details)), details...)
		return nil
	},
}

var lampsAddCmd = &cobra.Command{
	Use:     "add <name> <address>",
	Short:   "Save a lamp address",
	Example: `  discojar-cfg lamps add kitchen 192.168.1.42`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := discovery.ManualLamp(args[1]); err != nil {
			return err
		}
		reg, err := loadRegistry()
		if err != nil {
			return err
		}

		address := lampclient.NewClient(args[1]).Address()
		reg.EnsureLamp(args[0]).Address = address
		if err := saveRegistry(reg); err != nil {
			return fmt.Errorf("failed to save configuration: %w", err)
		}
		ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Saved lamp "+args[0], ui.Detail{Key: "Address", Value: address})
		return nil
	},
}

var lampsRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Forget a saved lamp",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		if reg.GetLamp(args[0]) == nil {
			return fmt.Errorf("unknown lamp %q", args[0])
		}
		delete(reg.Lamps, args[0])
		if reg.Preferences.DefaultLamp == args[0] {
			reg.Preferences.DefaultLamp = ""
		}
		if err := saveRegistry(reg); err != nil {
			return fmt.Errorf("failed to save configuration: %w", err)
		}
		ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Removed lamp " + args[0])
		return nil
	},
}

var lampsDefaultCmd = &cobra.Command{
	Use:   "default <name>",
	Short: "Use a saved lamp when --lamp is not given",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		if reg.GetLamp(args[0]) == nil {
			return fmt.Errorf("unknown lamp %q", args[0])
		}
		reg.Preferences.DefaultLamp = args[0]
		if err := saveRegistry(reg); err != nil {
			return fmt.Errorf("failed to save configuration: %w", err)
		}
		ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Default lamp is now " + args[0])
		return nil
	},
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func init() {
	lampsCmd.AddCommand(lampsListCmd, lampsAddCmd, lampsRemoveCmd, lampsDefaultCmd)
	rootCmd.AddCommand(lampsCmd)
}
