package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/muurk/discojar/internal/config"
	"github.com/muurk/discojar/internal/lampclient"
	"github.com/muurk/discojar/internal/ui"
)

var fromPreset string

var presetCmd = &cobra.Command{
	Use:   "preset",
	Short: "Manage named configurations",
	Long: `Manage named lamp configurations stored in the configuration file.

New configurations start with the built-in presets "default", "party" and
"calm".`,
}

var presetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List presets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		if outputFormat == "json" {
			return writeJSON(cmd, reg.Presets)
		}

		details := make([]ui.Detail, 0, len(reg.Presets))
		for _, name := range reg.PresetNames() {
			p := reg.Presets[name]
			details = append(details, ui.Detail{
				Key:   name,
				Value: fmt.Sprintf("%s, brightness %d, %s/%s", p.Mode, p.Brightness, p.Color0, p.Color1),
			})
		}
		ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess(fmt.Sprintf("%d preset(s)", len(details)), details...)
		return nil
	},
}

var presetShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show one preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		s, err := reg.GetPreset(args[0])
		if err != nil {
			return err
		}
		if outputFormat == "json" {
			return writeJSON(cmd, reg.Presets[args[0]])
		}
		ui.NewPrinter(cmd.OutOrStdout()).PrintState("Preset "+args[0], s)
		return nil
	},
}

var presetSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save a preset",
	Long: `Save a preset built from another preset (--from, "default" unless given)
with the fields given as flags replaced.`,
	Example: `  discojar-cfg preset save evening --from calm --brightness 12 --color0 '#ff4400'`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		base, err := reg.GetPreset(fromPreset)
		if err != nil {
			return err
		}
		s, err := stateFromFlags(cmd, base)
		if err != nil {
			return err
		}

		reg.SetPreset(args[0], s)
		if err := saveRegistry(reg); err != nil {
			return fmt.Errorf("failed to save preset: %w", err)
		}
		ui.NewPrinter(cmd.OutOrStdout()).PrintState("Saved preset "+args[0], s)
		return nil
	},
}

var presetDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		if _, ok := reg.Presets[args[0]]; !ok {
			return fmt.Errorf("unknown preset %q", args[0])
		}
		if args[0] == config.DefaultPreset {
			return fmt.Errorf("preset %q cannot be deleted", config.DefaultPreset)
		}
		delete(reg.Presets, args[0])
		if err := saveRegistry(reg); err != nil {
			return fmt.Errorf("failed to save configuration: %w", err)
		}
		ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Deleted preset " + args[0])
		return nil
	},
}

var presetApplyCmd = &cobra.Command{
	Use:     "apply <name>",
	Short:   "Send a preset to a lamp",
	Example: `  discojar-cfg preset apply party --lamp kitchen`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		s, err := reg.GetPreset(args[0])
		if err != nil {
			return err
		}
		return applyToLamp(cmd, reg, s, args[0])
	},
}

func init() {
	presetSaveCmd.Flags().StringVar(&fromPreset, "from", config.DefaultPreset, "Preset to start from")
	addStateFlags(presetSaveCmd)
	presetApplyCmd.Flags().IntVar(&retries, "retries", lampclient.DefaultMaxRetries, "Number of retries when the lamp is busy")
	presetApplyCmd.Flags().StringVar(&verifyAddr, "verify", "", "Preview server address to verify the applied configuration against")

	presetCmd.AddCommand(presetListCmd, presetShowCmd, presetSaveCmd, presetDeleteCmd, presetApplyCmd)
	rootCmd.AddCommand(presetCmd)
}
