package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/muurk/discojar/internal/modem"
)

// StepStatus represents the current state of a step
type StepStatus int

const (
	StepPending  StepStatus = iota // Not yet started
	StepRunning                    // Currently executing
	StepComplete                   // Successfully completed
	StepFailed                     // Failed
)

// Step is one line of a step list
type Step struct {
	Number  int
	Name    string
	Status  StepStatus
	Message string // e.g., "412ms"
}

// Progress is a progress bar over a step list
type Progress struct {
	Label   string
	Steps   []Step
	Percent float64 // 0.0 - 1.0, share of completed steps
	Width   int
	bar     progress.Model
}

// NewProgress creates a progress display with one pending step per name
func NewProgress(label string, names []string) *Progress {
	steps := make([]Step, len(names))
	for i, name := range names {
		steps[i] = Step{Number: i + 1, Name: name}
	}
	p := &Progress{Label: label, Steps: steps}
	return p.SetWidth(GetTerminalWidth())
}

// StartupProgress summarizes a finished modem startup script. Commands the
// module did not acknowledge are marked failed.
func StartupProgress(results []modem.CommandResult) *Progress {
	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.Command.Text
	}
	p := NewProgress("Modem startup", names)
	for i, r := range results {
		status := StepComplete
		if !r.OK {
			status = StepFailed
		}
		p.UpdateStep(i+1, status, r.Elapsed.Round(time.Millisecond).String())
	}
	return p
}

// SetWidth sets the terminal width for responsive rendering
func (p *Progress) SetWidth(width int) *Progress {
	p.Width = width
	barWidth := width - 20 // room for percentage and step count
	if barWidth < 20 {
		barWidth = 20
	}
	if barWidth > 50 {
		barWidth = 50
	}
	p.bar = progress.New(
		progress.WithGradient(string(PrimaryColor), string(SuccessColor)),
		progress.WithWidth(barWidth),
	)
	return p
}

// UpdateStep updates a step's status and message and recomputes Percent
func (p *Progress) UpdateStep(number int, status StepStatus, message string) {
	if number < 1 || number > len(p.Steps) {
		return
	}
	p.Steps[number-1].Status = status
	p.Steps[number-1].Message = message

	completed := 0
	for _, s := range p.Steps {
		if s.Status == StepComplete {
			completed++
		}
	}
	p.Percent = float64(completed) / float64(len(p.Steps))
}

// Failed returns the number of failed steps
func (p *Progress) Failed() int {
	n := 0
	for _, s := range p.Steps {
		if s.Status == StepFailed {
			n++
		}
	}
	return n
}

// Render returns the styled progress display as a string
func (p *Progress) Render() string {
	var b strings.Builder

	if p.Label != "" {
		b.WriteString(ProgressLabelStyle.Render(p.Label))
		b.WriteString("\n\n")
	}

	completed := int(p.Percent*float64(len(p.Steps)) + 0.5)
	b.WriteString(lipgloss.NewStyle().PaddingLeft(2).Render(
		fmt.Sprintf("%s  %3.0f%%  [%d/%d]", p.bar.ViewAs(p.Percent), p.Percent*100, completed, len(p.Steps))))
	b.WriteString("\n\n")

	lines := make([]string, 0, len(p.Steps))
	for _, s := range p.Steps {
		lines = append(lines, p.renderStep(s))
	}
	b.WriteString(strings.Join(lines, "\n"))
	return b.String()
}

func (p *Progress) renderStep(step Step) string {
	var marker string
	var style lipgloss.Style
	switch step.Status {
	case StepComplete:
		marker, style = StepMarkerComplete, StepCompleteStyle
	case StepRunning:
		marker, style = StepMarkerRunning, StepRunningStyle
	case StepFailed:
		marker, style = FailureMarker, ErrorTitleStyle
	default:
		marker, style = StepMarkerPending, StepPendingStyle
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("  [%2d/%d] ", step.Number, len(p.Steps)))
	b.WriteString(style.Render(step.Name))

	padding := 28 - lipgloss.Width(step.Name)
	if padding < 1 {
		padding = 1
	}
	b.WriteString(strings.Repeat(" ", padding))
	b.WriteString(style.Render(marker))

	if step.Message != "" {
		b.WriteString("  ")
		b.WriteString(StepNoteStyle.Render("(" + step.Message + ")"))
	}
	return b.String()
}

// String implements fmt.Stringer
func (p *Progress) String() string {
	return p.Render()
}
