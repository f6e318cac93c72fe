package main

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muurk/discojar/internal/lamp"
	"github.com/muurk/discojar/internal/ui"
)

var decodeFile string

// decodeCmd decodes captured configuration packets
var decodeCmd = &cobra.Command{
	Use:   "decode [hex...]",
	Short: "Decode configuration packets",
	Long: `Decode 20-byte configuration packets given as hex, for example the
"hex" field of a debug server log or a packet captured from the network.

Spaces inside a packet are ignored. With --file, every non-empty line of the
file (or stdin for "-") is decoded as one packet.`,
	Example: `  # The power-on configuration as the control page sends it
  discojar-cfg decode 0120ff000000ff002f0bcdcccc3e0000aa430000

  # Packets copied from "Configuration packet" debug log lines
  discojar-cfg decode --file packets.txt`,
	RunE: runDecode,
}

func init() {
	decodeCmd.Flags().StringVar(&decodeFile, "file", "", "File with one hex packet per line (- for stdin)")
	rootCmd.AddCommand(decodeCmd)
}

// parseHexPacket decodes one packet; trailing bytes beyond PacketSize are
// ignored like the lamp ignores them.
func parseHexPacket(s string) (lamp.Packet, error) {
	s = strings.Join(strings.Fields(s), "")
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return lamp.Packet{}, fmt.Errorf("invalid hex: %w", err)
	}
	return lamp.DecodePacket(raw)
}

func readPacketLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

func runDecode(cmd *cobra.Command, args []string) error {
	inputs := args
	switch decodeFile {
	case "":
	case "-":
		lines, err := readPacketLines(cmd.InOrStdin())
		if err != nil {
			return err
		}
		inputs = append(inputs, lines...)
	default:
		f, err := os.Open(decodeFile)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		lines, err := readPacketLines(f)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", decodeFile, err)
		}
		inputs = append(inputs, lines...)
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no packets given")
	}

	printer := ui.NewPrinter(cmd.OutOrStdout())
	var states []lamp.State
	for i, in := range inputs {
		pkt, err := parseHexPacket(in)
		if err != nil {
			return fmt.Errorf("packet %d: %w", i+1, err)
		}
		s := pkt.State()
		if outputFormat == "json" {
			states = append(states, s)
			continue
		}
		printer.PrintState(fmt.Sprintf("Packet %d", i+1), s)
	}
	if outputFormat == "json" {
		return writeJSON(cmd, states)
	}
	return nil
}
