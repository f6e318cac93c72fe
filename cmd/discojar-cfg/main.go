// Discojar-cfg is a configuration utility for DiscoJar lamps.
//
// It finds lamps on the network, sends configurations to them, keeps named
// presets and saved lamp addresses, and offers an interactive editor. It
// talks to lamps over plain HTTP exactly like the lamp's own control page.
//
// Usage:
//
//	discojar-cfg [command] [flags]
//
// Running without arguments launches the interactive editor.
// See 'discojar-cfg --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/discojar/internal/logging"
	"github.com/muurk/discojar/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "discojar-cfg",
	Short: "DiscoJar Lamp Configuration Utility",
	Long: `A standalone utility for configuring DiscoJar lamps.

Provides lamp discovery, named presets, an interactive editor and direct
configuration commands.

If no command is specified, the interactive editor will launch automatically.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.InitializeFromEnv()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: run the editor when no subcommand provided
		return runWizard(cmd, args)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("discojar-cfg %s\n", version.Full())
	},
}
