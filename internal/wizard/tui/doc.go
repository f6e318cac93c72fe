// Package tui implements the interactive lamp editor behind
// "discojar-cfg wizard".
//
// The application has two screens. The discovery screen scans the network
// over mDNS (or takes a manual address) and lists the lamps it found. The
// editor screen shows the lamp configuration field by field; arrow keys
// adjust values, colors are typed as hex, and "a" sends the packet to the
// lamp. The current configuration can be saved as a named preset.
//
// Lamp I/O happens in tea.Cmd functions so the UI never blocks. Both the
// scanner and the lamp client are injected through Options, which keeps
// the models testable without a network.
//
// Every screen renders through RenderApplicationContainer, which draws the
// shared header, footer and outer border.
package tui
