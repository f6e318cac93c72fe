// Package ui renders the styled terminal output of the discojar CLIs.
//
// Components render to strings and follow a "print once" pattern; the
// interactive editor lives in internal/wizard/tui.
//
//   - Header: command banner with ordered parameters
//   - Progress: bar and step list, used for the modem startup script
//   - Result: success, failure and warning boxes
//   - State: a lamp configuration with color swatches
//
// Printer ties them to an io.Writer at the current terminal width.
//
// Logging is controlled by DISCOJAR_LOG_LEVEL. When it is unset zap stays
// silent so this output is displayed cleanly.
package ui
