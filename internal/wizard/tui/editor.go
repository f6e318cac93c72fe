package tui

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muurk/discojar/internal/lamp"
	"github.com/muurk/discojar/internal/lampclient"
)

// Editable fields, in packet order
const (
	FieldMode = iota
	FieldBrightness
	FieldColor0
	FieldColor1
	FieldDecay
	FieldGain
	fieldCount
)

var fieldLabels = [fieldCount]string{"Mode", "Brightness", "Color 0", "Color 1", "Decay", "Gain"}

// Slider ranges of the lamp's control page
const (
	brightnessStep = 8
	decayMin       = 0.01
	decayMax       = 1.0
	decayStep      = 0.05
	gainMin        = 200
	gainMax        = 600
	gainStep       = 10

	applyTimeout = 15 * time.Second
)

// applyDoneMsg reports the end of a send to the lamp
type applyDoneMsg struct {
	state lamp.State
	err   error
}

// editorKeyMap defines key bindings for the editor screen
type editorKeyMap struct {
	Up    key.Binding
	Down  key.Binding
	Left  key.Binding
	Right key.Binding
	Edit  key.Binding
	Apply key.Binding
	Save  key.Binding
	Reset key.Binding
	Back  key.Binding
	Quit  key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k editorKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Left, k.Right, k.Edit, k.Apply, k.Save, k.Back, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k editorKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.Edit, k.Apply, k.Save, k.Reset},
		{k.Back, k.Quit},
	}
}

// EditorModel edits one lamp's configuration
type EditorModel struct {
	Address string
	Name    string
	State   lamp.State
	Field   int

	// Editing is set while the selected field's value is being typed;
	// Naming while a preset name is.
	Editing bool
	Naming  bool
	Input   textinput.Model

	Applying bool
	Status   string
	Err      error

	Width   int
	Height  int
	Spinner spinner.Model
	Help    help.Model
	Keys    editorKeyMap

	SavePreset func(name string, s lamp.State) error
	OnApplied  func(address string, s lamp.State)

	client Applier
}

// NewEditorModel creates an editor for the lamp at address
func NewEditorModel(address, name string, initial lamp.State, client Applier) EditorModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	input := textinput.New()
	input.CharLimit = 32
	input.Width = 30

	return EditorModel{
		Address: address,
		Name:    name,
		State:   initial,
		Input:   input,
		Spinner: s,
		Help:    help.New(),
		Keys: editorKeyMap{
			Up:    key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
			Down:  key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
			Left:  key.NewBinding(key.WithKeys("left", "h", "-"), key.WithHelp("←/-", "decrease")),
			Right: key.NewBinding(key.WithKeys("right", "l", "+"), key.WithHelp("→/+", "increase")),
			Edit:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "type value")),
			Apply: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "apply")),
			Save:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save preset")),
			Reset: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "defaults")),
			Back:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
			Quit:  key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		},
		client: client,
	}
}

// Init implements tea.Model
func (m EditorModel) Init() tea.Cmd {
	return nil
}

// Update handles editor input
func (m EditorModel) Update(msg tea.Msg) (EditorModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.Editing || m.Naming {
			return m.updateInput(msg)
		}
		return m.updateKeys(msg)

	case applyDoneMsg:
		m.Applying = false
		if msg.err != nil {
			m.Err = msg.err
			m.Status = ""
			return m, nil
		}
		m.Err = nil
		m.Status = "Applied to " + m.Address
		if m.OnApplied != nil {
			m.OnApplied(m.Address, msg.state)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.Applying {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m EditorModel) updateKeys(msg tea.KeyMsg) (EditorModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.Keys.Back):
		return m, func() tea.Msg { return goBackMsg{} }
	case key.Matches(msg, m.Keys.Up):
		m.Field = (m.Field + fieldCount - 1) % fieldCount
	case key.Matches(msg, m.Keys.Down):
		m.Field = (m.Field + 1) % fieldCount
	case key.Matches(msg, m.Keys.Left):
		m.State = Adjust(m.State, m.Field, -1)
		m.Status = ""
	case key.Matches(msg, m.Keys.Right):
		m.State = Adjust(m.State, m.Field, 1)
		m.Status = ""
	case key.Matches(msg, m.Keys.Reset):
		m.State = lamp.DefaultState()
		m.Status = "Reset to power-on defaults"
	case key.Matches(msg, m.Keys.Edit):
		m.Editing = true
		m.Err = nil
		m.Input.Placeholder = fieldLabels[m.Field]
		m.Input.SetValue(FieldValue(m.State, m.Field))
		m.Input.CursorEnd()
		return m, m.Input.Focus()
	case key.Matches(msg, m.Keys.Save):
		if m.SavePreset == nil {
			m.Err = errors.New("presets are not available")
			return m, nil
		}
		m.Naming = true
		m.Err = nil
		m.Input.Placeholder = "preset name"
		m.Input.SetValue("")
		return m, m.Input.Focus()
	case key.Matches(msg, m.Keys.Apply):
		if m.Applying {
			return m, nil
		}
		m.Applying = true
		m.Err = nil
		m.Status = ""
		return m, tea.Batch(m.applyCmd(), m.Spinner.Tick)
	}
	return m, nil
}

func (m EditorModel) updateInput(msg tea.KeyMsg) (EditorModel, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.Editing, m.Naming = false, false
		m.Input.Blur()
		return m, nil

	case tea.KeyEnter:
		value := strings.TrimSpace(m.Input.Value())
		if m.Naming {
			if value == "" {
				return m, nil
			}
			if err := m.SavePreset(value, m.State); err != nil {
				m.Err = err
			} else {
				m.Status = fmt.Sprintf("Saved preset %q", value)
			}
			m.Naming = false
		} else {
			s, err := SetField(m.State, m.Field, value)
			if err != nil {
				m.Err = err
				return m, nil
			}
			m.State = s
			m.Err = nil
			m.Status = ""
			m.Editing = false
		}
		m.Input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	return m, cmd
}

func (m EditorModel) applyCmd() tea.Cmd {
	client, state := m.client, m.State
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), applyTimeout)
		defer cancel()
		return applyDoneMsg{state: state, err: client.Apply(ctx, state)}
	}
}

// Adjust steps field of s by dir (+1 or -1), clamped to the control page
// ranges. Modes wrap around and an unknown mode resets to spectrum.
func Adjust(s lamp.State, field, dir int) lamp.State {
	switch field {
	case FieldMode:
		if !s.Mode.Known() {
			s.Mode = lamp.ModeSpectrum
			break
		}
		s.Mode = lamp.Mode((int(s.Mode) + dir + lamp.ModeCount) % lamp.ModeCount)
	case FieldBrightness:
		s.Brightness = byte(clamp(float64(s.Brightness)+float64(dir*brightnessStep), 0, 255))
	case FieldColor0:
		s.Color0 = rotateHue(s.Color0, dir)
	case FieldColor1:
		s.Color1 = rotateHue(s.Color1, dir)
	case FieldDecay:
		d := clamp(float64(s.Decay)+float64(dir)*decayStep, decayMin, decayMax)
		s.Decay = float32(math.Round(d*100) / 100)
	case FieldGain:
		s.Gain = float32(clamp(float64(s.Gain)+float64(dir*gainStep), gainMin, gainMax))
	}
	return s
}

// rotateHue cycles the channels of c: red to green to blue.
func rotateHue(c lamp.RGB, dir int) lamp.RGB {
	if dir > 0 {
		return lamp.RGB{c[2], c[0], c[1]}
	}
	return lamp.RGB{c[1], c[2], c[0]}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// FieldValue formats one field for editing.
func FieldValue(s lamp.State, field int) string {
	switch field {
	case FieldMode:
		return s.Mode.String()
	case FieldBrightness:
		return strconv.Itoa(int(s.Brightness))
	case FieldColor0:
		return s.Color0.Hex()
	case FieldColor1:
		return s.Color1.Hex()
	case FieldDecay:
		return strconv.FormatFloat(float64(s.Decay), 'g', -1, 32)
	case FieldGain:
		return strconv.FormatFloat(float64(s.Gain), 'g', -1, 32)
	}
	return ""
}

// SetField parses value into field of s.
func SetField(s lamp.State, field int, value string) (lamp.State, error) {
	switch field {
	case FieldMode:
		m, err := lamp.ParseMode(value)
		if err != nil {
			return s, err
		}
		s.Mode = m
	case FieldBrightness:
		n, err := strconv.ParseUint(value, 10, 8)
		if err != nil {
			return s, fmt.Errorf("brightness must be 0-255: %w", err)
		}
		s.Brightness = byte(n)
	case FieldColor0, FieldColor1:
		c, err := lamp.ParseRGB(value)
		if err != nil {
			return s, err
		}
		if field == FieldColor0 {
			s.Color0 = c
		} else {
			s.Color1 = c
		}
	case FieldDecay, FieldGain:
		f, err := strconv.ParseFloat(value, 32)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return s, fmt.Errorf("invalid %s %q", strings.ToLower(fieldLabels[field]), value)
		}
		if field == FieldDecay {
			s.Decay = float32(f)
		} else {
			s.Gain = float32(f)
		}
	default:
		return s, fmt.Errorf("unknown field %d", field)
	}
	return s, nil
}

// View renders the editor screen
func (m EditorModel) View() string {
	var b strings.Builder

	title := "LAMP " + m.Address
	if m.Name != "" && m.Name != m.Address {
		title = fmt.Sprintf("LAMP %s (%s)", m.Name, m.Address)
	}
	b.WriteString(RenderTitle(title))
	b.WriteString("\n")

	for i := 0; i < fieldCount; i++ {
		label := fmt.Sprintf("%-12s", fieldLabels[i])
		value := FieldValue(m.State, i)
		switch i {
		case FieldMode:
			value = fmt.Sprintf("%s (%d)", value, byte(m.State.Mode))
		case FieldColor0, FieldColor1:
			value = RenderSwatch(value) + " " + value
		}
		if i == m.Field {
			b.WriteString(SelectedFieldStyle.Render("→ " + label))
		} else {
			b.WriteString(FieldStyle.Render(label))
		}
		b.WriteString(" ")
		b.WriteString(ValueStyle.Render(value))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.Editing || m.Naming {
		b.WriteString(InputBoxStyle.Render(m.Input.View()))
		b.WriteString("\n")
	}

	switch {
	case m.Applying:
		b.WriteString(fmt.Sprintf("  %s Sending configuration...", m.Spinner.View()))
	case m.Err != nil:
		b.WriteString(ErrorStyle.Render("  ✗ " + lampclient.GetShortErrorMessage(m.Err)))
	case m.Status != "":
		b.WriteString(SuccessStyle.Render("  ✓ " + m.Status))
	}

	return RenderApplicationContainer(b.String(), m.Help.View(m.Keys), m.Width, m.Height)
}
