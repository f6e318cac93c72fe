package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muurk/discojar/internal/discovery"
	"github.com/muurk/discojar/internal/lamp"
	"github.com/muurk/discojar/internal/lampclient"
)

// Screen represents the current active screen in the application
type Screen string

const (
	ScreenDiscovery Screen = "discovery"
	ScreenEditor    Screen = "editor"
)

// Applier sends a configuration to one lamp.
type Applier interface {
	Apply(ctx context.Context, s lamp.State) error
}

// ScanFunc finds lamps on the network.
type ScanFunc func(ctx context.Context) ([]*discovery.Lamp, error)

// Options configures the application. Zero fields take defaults.
type Options struct {
	// Address skips discovery and opens the editor on this lamp.
	Address string
	// Name labels the lamp in the editor header.
	Name string
	// Initial is the configuration the editor starts from.
	Initial *lamp.State

	Scan    ScanFunc
	Connect func(address string) Applier

	// SavePreset stores the edited configuration under name. Saving is
	// disabled when nil.
	SavePreset func(name string, s lamp.State) error
	// OnApplied is called after a configuration reached the lamp.
	OnApplied func(address string, s lamp.State)
}

func (o Options) withDefaults() Options {
	if o.Scan == nil {
		o.Scan = discovery.NewScanner().ScanForLamps
	}
	if o.Connect == nil {
		o.Connect = func(address string) Applier { return lampclient.NewClient(address) }
	}
	if o.Initial == nil {
		s := lamp.DefaultState()
		o.Initial = &s
	}
	return o
}

// lampSelectedMsg is sent when the user picks a lamp on the discovery screen
type lampSelectedMsg struct {
	address string
	name    string
}

// goBackMsg returns from the editor to discovery
type goBackMsg struct{}

// AppModel is the top-level coordinator model that manages screen transitions
type AppModel struct {
	CurrentScreen Screen

	DiscoveryModel DiscoveryModel
	EditorModel    EditorModel

	opts   Options
	Width  int
	Height int
	Help   help.Model
}

// NewAppModel creates the application. It starts on the editor when
// opts.Address is set and on discovery otherwise.
func NewAppModel(opts Options) AppModel {
	opts = opts.withDefaults()
	m := AppModel{opts: opts, Help: help.New()}
	if opts.Address != "" {
		m.CurrentScreen = ScreenEditor
		m.EditorModel = m.newEditor(opts.Address, opts.Name)
	} else {
		m.CurrentScreen = ScreenDiscovery
		m.DiscoveryModel = NewDiscoveryModel(opts.Scan)
	}
	return m
}

func (m AppModel) newEditor(address, name string) EditorModel {
	e := NewEditorModel(address, name, *m.opts.Initial, m.opts.Connect(address))
	e.SavePreset = m.opts.SavePreset
	e.OnApplied = m.opts.OnApplied
	e.Width, e.Height = m.Width, m.Height
	return e
}

// Init initializes the application
func (m AppModel) Init() tea.Cmd {
	switch m.CurrentScreen {
	case ScreenDiscovery:
		return m.DiscoveryModel.Init()
	case ScreenEditor:
		return m.EditorModel.Init()
	}
	return nil
}

// Update handles all messages and routes them to the appropriate screen
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.DiscoveryModel.Width, m.DiscoveryModel.Height = msg.Width, msg.Height
		m.EditorModel.Width, m.EditorModel.Height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case lampSelectedMsg:
		m.CurrentScreen = ScreenEditor
		m.EditorModel = m.newEditor(msg.address, msg.name)
		return m, m.EditorModel.Init()

	case goBackMsg:
		m.CurrentScreen = ScreenDiscovery
		m.DiscoveryModel = NewDiscoveryModel(m.opts.Scan)
		m.DiscoveryModel.Width, m.DiscoveryModel.Height = m.Width, m.Height
		return m, m.DiscoveryModel.Init()
	}

	var cmd tea.Cmd
	switch m.CurrentScreen {
	case ScreenDiscovery:
		m.DiscoveryModel, cmd = m.DiscoveryModel.Update(msg)
	case ScreenEditor:
		m.EditorModel, cmd = m.EditorModel.Update(msg)
	}
	return m, cmd
}

// View renders the current screen
func (m AppModel) View() string {
	switch m.CurrentScreen {
	case ScreenDiscovery:
		return m.DiscoveryModel.View()
	case ScreenEditor:
		return m.EditorModel.View()
	default:
		return "Unknown screen"
	}
}

// Run starts the application full-screen and blocks until the user quits.
func Run(opts Options) error {
	p := tea.NewProgram(NewAppModel(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
