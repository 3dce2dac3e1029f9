// SPDX-License-Identifier: MIT
package tui

import (
	"errors"
	"fmt"
	"strings"

	"spectro/internal/playback"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E8A33D"))
)

// ErrCancelled is returned by PickOutputDevice when the user quits without
// choosing a device.
var ErrCancelled = errors.New("device selection cancelled")

// ScreenType defines which screen is currently active.
type ScreenType int

const (
	ListScreen ScreenType = iota
	ConfirmScreen
)

var (
	keyQuit  = key.NewBinding(key.WithKeys("q", "ctrl+c"))
	keyUp    = key.NewBinding(key.WithKeys("up", "k"))
	keyDown  = key.NewBinding(key.WithKeys("down", "j"))
	keyEnter = key.NewBinding(key.WithKeys("enter"))
	keyBack  = key.NewBinding(key.WithKeys("esc"))
)

// viewMargin is the number of rows taken by the title and help lines.
const viewMargin = 4

// DeviceListModel is the Bubble Tea model that lets the user pick an output
// device for playback.
type DeviceListModel struct {
	devices       []playback.Device
	selectedIndex int
	viewport      viewport.Model
	ready         bool
	err           error
	activeScreen  ScreenType

	sampleRate int // Rate of the signal about to be played.
	chosen     int
	confirmed  bool

	fetch func() ([]playback.Device, error)
}

type devicesMsg struct {
	devices []playback.Device
}

type errMsg struct {
	err error
}

// NewDeviceListModel creates a picker for a signal at sampleRate. fetch
// supplies the devices; only those that can play are listed.
func NewDeviceListModel(sampleRate int, fetch func() ([]playback.Device, error)) DeviceListModel {
	return DeviceListModel{
		activeScreen: ListScreen,
		sampleRate:   sampleRate,
		chosen:       -1,
		fetch:        fetch,
	}
}

// Init starts fetching devices.
func (m DeviceListModel) Init() tea.Cmd {
	fetch := m.fetch
	return func() tea.Msg {
		devices, err := fetch()
		if err != nil {
			return errMsg{err}
		}
		var outputs []playback.Device
		for _, d := range devices {
			if d.CanPlay() {
				outputs = append(outputs, d)
			}
		}
		return devicesMsg{outputs}
	}
}

// Chosen returns the selected device ID and whether the user confirmed it.
func (m DeviceListModel) Chosen() (int, bool) {
	return m.chosen, m.confirmed
}

func (m DeviceListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-viewMargin)
			m.viewport.Style = lipgloss.NewStyle()
			m.ready = true
			m.refresh()
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - viewMargin
		}

	case devicesMsg:
		m.devices = msg.devices
		m.refresh()

	case errMsg:
		m.err = msg.err

	case tea.KeyMsg:
		if key.Matches(msg, keyQuit) {
			return m, tea.Quit
		}

		switch m.activeScreen {
		case ListScreen:
			switch {
			case key.Matches(msg, keyUp):
				if m.selectedIndex > 0 {
					m.selectedIndex--
				}
			case key.Matches(msg, keyDown):
				if m.selectedIndex < len(m.devices)-1 {
					m.selectedIndex++
				}
			case key.Matches(msg, keyEnter):
				if len(m.devices) > 0 {
					m.activeScreen = ConfirmScreen
				}
			}
			m.refresh()

		case ConfirmScreen:
			switch {
			case key.Matches(msg, keyBack):
				m.activeScreen = ListScreen
				m.refresh()
			case key.Matches(msg, keyEnter):
				m.chosen = m.devices[m.selectedIndex].ID
				m.confirmed = true
				return m, tea.Quit
			}
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// refresh re-renders the active screen into the viewport.
func (m *DeviceListModel) refresh() {
	if !m.ready {
		return
	}
	if m.activeScreen == ConfirmScreen {
		m.viewport.SetContent(m.renderConfirm())
		return
	}
	m.viewport.SetContent(m.renderDevices())
}

// View renders the UI.
func (m DeviceListModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress q to exit.", m.err)
	}

	var title, help string
	if m.activeScreen == ListScreen {
		title = titleStyle.Render("Output Devices")
		help = infoStyle.Render("↑/↓: Navigate • Enter: Select • q: Quit")
	} else {
		title = titleStyle.Render("Confirm Playback")
		help = infoStyle.Render("Enter: Play • Esc: Back • q: Quit")
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.viewport.View(), help)
}

func (m DeviceListModel) renderDevices() string {
	if len(m.devices) == 0 {
		return "No output devices found."
	}

	var sb strings.Builder
	for i, device := range m.devices {
		info := fmt.Sprintf("[%d] %s (%s)\n", device.ID, device.Name, device.Kind())
		info += fmt.Sprintf("    Output channels: %d, default sample rate: %.0f Hz\n",
			device.MaxOutputChannels, device.DefaultSampleRate)

		if i == m.selectedIndex {
			info = highlightStyle.Render(info)
		}
		sb.WriteString(info)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m DeviceListModel) renderConfirm() string {
	device := m.devices[m.selectedIndex]

	var sb strings.Builder
	fmt.Fprintf(&sb, "Device: %s\n", device.Name)
	fmt.Fprintf(&sb, "Signal sample rate: %d Hz\n", m.sampleRate)
	fmt.Fprintf(&sb, "Device default rate: %.0f Hz\n", device.DefaultSampleRate)
	if float64(m.sampleRate) != device.DefaultSampleRate {
		sb.WriteString("\n")
		sb.WriteString(warnStyle.Render("The device will be opened at the signal's rate; some hosts reject rates other than the default."))
		sb.WriteString("\n")
	}
	return sb.String()
}

// PickOutputDevice runs the picker and returns the chosen device ID.
// PortAudio must be initialized.
func PickOutputDevice(sampleRate int) (int, error) {
	p := tea.NewProgram(
		NewDeviceListModel(sampleRate, playback.HostDevices),
		tea.WithAltScreen(),
	)
	final, err := p.Run()
	if err != nil {
		return -1, err
	}

	m := final.(DeviceListModel)
	if m.err != nil {
		return -1, m.err
	}
	id, ok := m.Chosen()
	if !ok {
		return -1, ErrCancelled
	}
	return id, nil
}
