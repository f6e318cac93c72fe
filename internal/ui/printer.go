package ui

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muurk/discojar/internal/lamp"
	"github.com/muurk/discojar/internal/modem"
)

// Printer writes UI components to an io.Writer.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a new Printer that writes to the given writer.
// If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{out: w, width: GetTerminalWidth()}
}

// SetWidth overrides the detected terminal width.
func (p *Printer) SetWidth(width int) *Printer {
	p.width = width
	return p
}

// Width returns the current terminal width used by this printer
func (p *Printer) Width() int {
	return p.width
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// PrintHeader prints a command header box
func (p *Printer) PrintHeader(title, command string, params ...Detail) {
	p.Println(RenderHeader(title, command, params, p.width))
}

// PrintSuccess prints a success result box
func (p *Printer) PrintSuccess(title string, details ...Detail) {
	p.Println(NewSuccessResult(title, details...).SetWidth(p.width).Render())
}

// PrintWarning prints a warning result box
func (p *Printer) PrintWarning(title string, details ...Detail) {
	p.Println(NewWarningResult(title, details...).SetWidth(p.width).Render())
}

// PrintError prints an error result box with troubleshooting tips
func (p *Printer) PrintError(title string, err error, troubleshooting []string) {
	p.Println(NewFailureResult(title, err, troubleshooting).SetWidth(p.width).Render())
}

// PrintState prints a lamp configuration
func (p *Printer) PrintState(title string, s lamp.State) {
	p.Println(RenderState(title, s, p.width))
}

// PrintStartup prints the modem startup summary
func (p *Printer) PrintStartup(results []modem.CommandResult) {
	p.Println(StartupProgress(results).SetWidth(p.width).Render())
}

// RenderHeader renders a command header box
func RenderHeader(title, command string, params []Detail, width int) string {
	width = clampWidth(width)

	top := lipgloss.JoinVertical(lipgloss.Left,
		HeaderTitleStyle.Render(strings.ToUpper(title)),
		HeaderCommandStyle.Render(command),
	)
	if len(params) == 0 {
		return HeaderBorderStyle(width).Render(top)
	}

	lines := make([]string, 0, len(params))
	for _, d := range params {
		lines = append(lines, HeaderParamKeyStyle.Render(d.Key+":")+" "+HeaderParamValueStyle.Render(d.Value))
	}
	divider := RenderHorizontalDivider(width-6, "─")

	content := lipgloss.JoinVertical(lipgloss.Left, top, divider, strings.Join(lines, "\n"))
	return HeaderBorderStyle(width).Render(content)
}

// StateDetails lists the fields of s in packet order.
func StateDetails(s lamp.State) []Detail {
	return []Detail{
		{"Mode", fmt.Sprintf("%s (%d)", s.Mode, byte(s.Mode))},
		{"Brightness", strconv.Itoa(int(s.Brightness))},
		{"Color 0", Swatch(s.Color0)},
		{"Color 1", Swatch(s.Color1)},
		{"Params", fmt.Sprintf("%d, %d", s.Param0, s.Param1)},
		{"Decay", strconv.FormatFloat(float64(s.Decay), 'g', -1, 32)},
		{"Gain", strconv.FormatFloat(float64(s.Gain), 'g', -1, 32)},
	}
}

// RenderState renders s in a rounded box titled title.
func RenderState(title string, s lamp.State, width int) string {
	width = clampWidth(width)
	content := lipgloss.JoinVertical(lipgloss.Left,
		HeaderTitleStyle.Render(title),
		"",
		renderDetails(StateDetails(s)),
	)
	return HeaderBorderStyle(width).Render(content)
}
