// Discojar-server runs a DiscoJar lamp's web server on an ESP8266 AT modem.
//
// It brings the modem up over a serial line, serves the lamp control page and
// applies the 20-byte configuration packets the page posts. With --emulate
// the modem is replaced by a local TCP emulator so the lamp can be driven
// from a browser without hardware.
//
// Usage:
//
//	discojar-server serve [flags]
//
// See 'discojar-server serve --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/discojar/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "discojar-server",
	Short: "DiscoJar lamp server",
	Long: `Runs the DiscoJar lamp web server on an ESP8266 AT-command modem.

The server configures the modem as a WiFi station with a TCP server, answers
GET / with the lamp control page and applies POST / configuration packets to
the live lamp state.

Note: To configure a running lamp from the command line, use the separate
'discojar-cfg' utility.`,
	Version: version.Version,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(portsCmd)
	rootCmd.AddCommand(versionCmd)
}

// Version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("discojar-server %s\n", version.Full())
	},
}
