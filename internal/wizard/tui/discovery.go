package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muurk/discojar/internal/discovery"
)

// scanCompleteMsg carries the result of one mDNS scan
type scanCompleteMsg struct {
	lamps []*discovery.Lamp
	err   error
}

// discoveryKeyMap defines key bindings for the discovery screen
type discoveryKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Enter  key.Binding
	Rescan key.Binding
	Manual key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k discoveryKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Enter, k.Rescan, k.Manual, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k discoveryKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter},
		{k.Rescan, k.Manual, k.Quit},
	}
}

// manualKeyMap defines key bindings for manual address entry
type manualKeyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k manualKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Cancel}
}

// FullHelp returns keybindings for the expanded help view
func (k manualKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Confirm, k.Cancel}}
}

// lampItem wraps a Lamp for use with bubbles/list
type lampItem struct {
	lamp *discovery.Lamp
}

func (i lampItem) FilterValue() string {
	return i.lamp.Instance + " " + i.lamp.IP + " " + i.lamp.Hostname
}

func (i lampItem) Title() string {
	return i.lamp.Instance
}

func (i lampItem) Description() string {
	desc := i.lamp.Address()
	if v := i.lamp.GetMetadata("version"); v != "" {
		desc += " • " + v
	}
	return desc
}

// DiscoveryModel lists the lamps found on the network
type DiscoveryModel struct {
	Scanning   bool
	LampList   list.Model
	Err        error
	ManualMode bool
	Input      textinput.Model

	Width   int
	Height  int
	Spinner spinner.Model
	Help    help.Model
	Keys    discoveryKeyMap
	Manual  manualKeyMap

	scan ScanFunc
}

// NewDiscoveryModel creates a discovery screen using scan to find lamps
func NewDiscoveryModel(scan ScanFunc) DiscoveryModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	input := textinput.New()
	input.Placeholder = "192.168.1.42 or 192.168.1.42:80"
	input.CharLimit = 64
	input.Width = 40

	l := list.New([]list.Item{}, list.NewDefaultDelegate(), MinTerminalWidth-4, 14)
	l.Title = "Discovered Lamps"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = TitleStyle

	return DiscoveryModel{
		LampList: l,
		Input:    input,
		Spinner:  s,
		Help:     help.New(),
		Keys: discoveryKeyMap{
			Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "move up")),
			Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "move down")),
			Enter:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "edit")),
			Rescan: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rescan")),
			Manual: key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "manual address")),
			Quit:   key.NewBinding(key.WithKeys("q", "esc"), key.WithHelp("q", "quit")),
		},
		Manual: manualKeyMap{
			Confirm: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
			Cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		},
		scan:     scan,
		Scanning: true,
	}
}

func (m DiscoveryModel) scanCmd() tea.Cmd {
	scan := m.scan
	return func() tea.Msg {
		lamps, err := scan(context.Background())
		return scanCompleteMsg{lamps: lamps, err: err}
	}
}

// Init starts the first scan
func (m DiscoveryModel) Init() tea.Cmd {
	return tea.Batch(m.scanCmd(), m.Spinner.Tick)
}

// Update handles discovery input and scan results
func (m DiscoveryModel) Update(msg tea.Msg) (DiscoveryModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.ManualMode {
			return m.updateManual(msg)
		}
		if m.LampList.FilterState() != list.Filtering {
			switch {
			case key.Matches(msg, m.Keys.Quit):
				return m, tea.Quit
			case key.Matches(msg, m.Keys.Manual):
				m.ManualMode = true
				m.Input.SetValue("")
				return m, m.Input.Focus()
			case key.Matches(msg, m.Keys.Rescan) && !m.Scanning:
				m.Scanning = true
				m.Err = nil
				m.LampList.SetItems(nil)
				return m, tea.Batch(m.scanCmd(), m.Spinner.Tick)
			case key.Matches(msg, m.Keys.Enter):
				if item, ok := m.LampList.SelectedItem().(lampItem); ok {
					address, name := item.lamp.Address(), item.lamp.Instance
					return m, func() tea.Msg { return lampSelectedMsg{address: address, name: name} }
				}
				return m, nil
			}
		}

	case scanCompleteMsg:
		m.Scanning = false
		m.Err = msg.err
		manual := m.manualItems()
		items := make([]list.Item, 0, len(manual)+len(msg.lamps))
		items = append(items, manual...)
		for _, l := range msg.lamps {
			items = append(items, lampItem{lamp: l})
		}
		m.LampList.SetItems(items)
		return m, nil

	case spinner.TickMsg:
		if !m.Scanning {
			return m, nil
		}
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	if !m.ManualMode && !m.Scanning {
		m.LampList, cmd = m.LampList.Update(msg)
	}
	return m, cmd
}

// manualItems keeps manually entered addresses across rescans.
func (m DiscoveryModel) manualItems() []list.Item {
	var items []list.Item
	for _, it := range m.LampList.Items() {
		if li, ok := it.(lampItem); ok && li.lamp.GetMetadata("source") == "manual" {
			items = append(items, it)
		}
	}
	return items
}

func (m DiscoveryModel) updateManual(msg tea.KeyMsg) (DiscoveryModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Manual.Cancel):
		m.ManualMode = false
		m.Input.Blur()
		return m, nil

	case key.Matches(msg, m.Manual.Confirm):
		value := strings.TrimSpace(m.Input.Value())
		if value == "" {
			return m, nil
		}
		l, err := discovery.ManualLamp(value)
		if err != nil {
			m.Err = err
			return m, nil
		}
		m.Err = nil
		items := append([]list.Item{lampItem{lamp: l}}, m.LampList.Items()...)
		m.LampList.SetItems(items)
		m.LampList.Select(0)
		m.ManualMode = false
		m.Input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	return m, cmd
}

// View renders the discovery screen
func (m DiscoveryModel) View() string {
	var b strings.Builder
	var helpText string

	switch {
	case m.ManualMode:
		b.WriteString(RenderTitle("ENTER LAMP ADDRESS"))
		b.WriteString("\n")
		b.WriteString(InputBoxStyle.Render(m.Input.View()))
		helpText = m.Help.View(m.Manual)

	case m.Scanning:
		b.WriteString(RenderTitle(fmt.Sprintf("%s SEARCHING FOR LAMPS", m.Spinner.View())))
		b.WriteString("\n")
		b.WriteString(SubtitleStyle.Render("  Browsing mDNS for DiscoJar lamps..."))
		helpText = m.Help.View(m.Keys)

	case len(m.LampList.Items()) == 0:
		b.WriteString(RenderTitle("NO LAMPS FOUND"))
		b.WriteString("\n")
		b.WriteString(SubtitleStyle.Render("  Press r to scan again or m to enter an address."))
		helpText = m.Help.View(m.Keys)

	default:
		b.WriteString(m.LampList.View())
		helpText = m.Help.View(m.Keys)
	}

	if m.Err != nil {
		b.WriteString("\n\n")
		b.WriteString(ErrorStyle.Render("  ✗ " + m.Err.Error()))
	}

	return RenderApplicationContainer(b.String(), helpText, m.Width, m.Height)
}
