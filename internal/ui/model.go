// ABOUTME: Bubbletea model for the bridge status TUI
// ABOUTME: Shows per-direction stream state, frame counters and queue depth
package ui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Model represents the TUI state
type Model struct {
	// Stream
	format     string
	sampleRate int
	channels   int
	ptime      int
	source     string
	player     string
	title      string

	// Directions
	capture  DirectionStatus
	playback DirectionStatus

	// Playback controls
	volume int
	muted  bool

	lastError string

	// Debug
	showDebug  bool
	goroutines int
	memAlloc   uint64
	memSys     uint64

	// Dimensions
	width  int
	height int

	volumeCtrl *VolumeControl
}

// DirectionStatus is the displayed state of one stream direction
type DirectionStatus struct {
	State     string
	Frames    uint64
	Pushes    uint64
	Dropped   uint64
	Underruns uint64
	Failures  uint64
	Buffered  time.Duration
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle  = lipgloss.NewStyle().Faint(true)
)

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	s := ""
	s += m.renderHeader()
	s += m.renderDirection("Capture", m.source, m.capture)
	s += m.renderDirection("Playback", m.player, m.playback)
	s += m.renderControls()

	if m.showDebug {
		s += m.renderDebug()
	}

	s += m.renderHelp()

	return s
}

// renderHeader renders the negotiated format and current title
func (m Model) renderHeader() string {
	s := titleStyle.Render("baresip gst bridge") + "\n\n"
	if m.format == "" {
		return s + "No stream\n\n"
	}

	s += fmt.Sprintf("%s %s %dHz %s, ptime %dms\n",
		labelStyle.Render("Format:"), m.format, m.sampleRate, channelName(m.channels), m.ptime)
	if m.title != "" {
		s += fmt.Sprintf("%s %s\n", labelStyle.Render("Title: "), truncate(m.title, 48))
	}
	return s + "\n"
}

// renderDirection renders one stream direction
func (m Model) renderDirection(name, descriptor string, d DirectionStatus) string {
	state := d.State
	if state == "" {
		state = "closed"
	}

	s := fmt.Sprintf("%s %s [%s]\n", labelStyle.Render(name+":"), truncate(descriptor, 32), state)
	s += fmt.Sprintf("  Frames: %d", d.Frames)
	if d.Pushes > 0 || d.Failures > 0 {
		s += fmt.Sprintf("  Pushed: %d  Failed: %d", d.Pushes, d.Failures)
	} else {
		s += fmt.Sprintf("  Queued: %dms  Dropped: %dB  Underruns: %d",
			d.Buffered.Milliseconds(), d.Dropped, d.Underruns)
	}
	return s + "\n\n"
}

// renderControls renders volume and the last error
func (m Model) renderControls() string {
	muteIcon := ""
	if m.muted {
		muteIcon = " (muted)"
	}

	s := fmt.Sprintf("%s [%s] %d%%%s\n", labelStyle.Render("Volume:"), renderBar(m.volume, 100, 10), m.volume, muteIcon)
	if m.lastError != "" {
		s += errorStyle.Render("Error: "+truncate(m.lastError, 60)) + "\n"
	}
	return s + "\n"
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return helpStyle.Render("↑/↓:Volume  m:Mute  d:Debug  q:Quit") + "\n"
}

// renderDebug renders runtime information
func (m Model) renderDebug() string {
	return fmt.Sprintf("DEBUG:\n  Goroutines: %d\n  Heap: %.1f MiB of %.1f MiB\n\n",
		m.goroutines, float64(m.memAlloc)/(1<<20), float64(m.memSys)/(1<<20))
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.volumeCtrl != nil {
			select {
			case m.volumeCtrl.Quit <- QuitMsg{}:
			default:
			}
		}
		return m, tea.Quit
	case "up":
		if m.volume < 100 {
			m.volume += 5
			if m.volume > 100 {
				m.volume = 100
			}
			m.sendVolume()
		}
	case "down":
		if m.volume > 0 {
			m.volume -= 5
			if m.volume < 0 {
				m.volume = 0
			}
			m.sendVolume()
		}
	case "m":
		m.muted = !m.muted
		m.sendVolume()
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

func (m Model) sendVolume() {
	if m.volumeCtrl == nil {
		return
	}
	select {
	case m.volumeCtrl.Changes <- VolumeChangeMsg{Volume: m.volume, Muted: m.muted}:
	default:
	}
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Format != "" {
		m.format = msg.Format
		m.sampleRate = msg.SampleRate
		m.channels = msg.Channels
		m.ptime = msg.Ptime
	}
	if msg.Source != "" {
		m.source = msg.Source
	}
	if msg.Player != "" {
		m.player = msg.Player
	}
	if msg.Title != "" {
		m.title = msg.Title
	}
	if msg.Capture != nil {
		m.capture = *msg.Capture
	}
	if msg.Playback != nil {
		m.playback = *msg.Playback
	}
	if msg.Error != "" {
		m.lastError = msg.Error
	}
	if msg.Goroutines != 0 {
		m.goroutines = msg.Goroutines
		m.memAlloc = msg.MemAlloc
		m.memSys = msg.MemSys
	}
}

// StatusMsg updates TUI state. Zero fields leave the current value.
type StatusMsg struct {
	Format     string
	SampleRate int
	Channels   int
	Ptime      int
	Source     string
	Player     string
	Title      string
	Capture    *DirectionStatus
	Playback   *DirectionStatus
	Error      string
	Goroutines int
	MemAlloc   uint64
	MemSys     uint64
}

// Utility functions
func renderBar(value, max, width int) string {
	filled := (value * width) / max
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return bar
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func channelName(channels int) string {
	switch channels {
	case 1:
		return "Mono"
	case 2:
		return "Stereo"
	default:
		return fmt.Sprintf("%dch", channels)
	}
}
