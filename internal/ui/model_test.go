// ABOUTME: Tests for TUI model and state management
// ABOUTME: Tests status updates, key handling and rendering helpers
package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestNewModel(t *testing.T) {
	model := NewModel(nil) // VolumeControl is optional for testing

	if model.volume != 100 {
		t.Errorf("expected default volume 100, got %d", model.volume)
	}

	if model.muted {
		t.Error("expected muted to be false initially")
	}

	if model.showDebug {
		t.Error("expected showDebug to be false initially")
	}
}

func TestStatusMsgStreamInfo(t *testing.T) {
	model := NewModel(nil)

	model.applyStatus(StatusMsg{
		Format:     "S16LE",
		SampleRate: 8000,
		Channels:   1,
		Ptime:      20,
		Source:     "file:ring.wav",
		Player:     "malgo",
	})

	if model.format != "S16LE" {
		t.Errorf("expected format 'S16LE', got '%s'", model.format)
	}

	if model.sampleRate != 8000 {
		t.Errorf("expected sampleRate 8000, got %d", model.sampleRate)
	}

	if model.ptime != 20 {
		t.Errorf("expected ptime 20, got %d", model.ptime)
	}

	if model.source != "file:ring.wav" || model.player != "malgo" {
		t.Errorf("unexpected descriptors %q/%q", model.source, model.player)
	}
}

func TestStatusMsgDirections(t *testing.T) {
	model := NewModel(nil)

	model.applyStatus(StatusMsg{
		Capture:  &DirectionStatus{State: "running", Frames: 50, Buffered: 40 * time.Millisecond},
		Playback: &DirectionStatus{State: "running", Frames: 49, Pushes: 49},
	})

	if model.capture.Frames != 50 {
		t.Errorf("expected capture frames 50, got %d", model.capture.Frames)
	}

	if model.playback.Pushes != 49 {
		t.Errorf("expected playback pushes 49, got %d", model.playback.Pushes)
	}

	// a message without direction info keeps the previous values
	model.applyStatus(StatusMsg{Title: "ring"})
	if model.capture.Frames != 50 {
		t.Error("capture status was lost")
	}
}

func TestStatusMsgError(t *testing.T) {
	model := NewModel(nil)

	model.applyStatus(StatusMsg{Error: "filesrc: could not decode"})
	model.applyStatus(StatusMsg{})

	if model.lastError != "filesrc: could not decode" {
		t.Errorf("expected last error kept, got %q", model.lastError)
	}
}

func TestStatusMsgRuntimeStats(t *testing.T) {
	model := NewModel(nil)

	model.applyStatus(StatusMsg{
		Goroutines: 42,
		MemAlloc:   1024 * 1024,
		MemSys:     2048 * 1024,
	})

	if model.goroutines != 42 {
		t.Errorf("expected goroutines 42, got %d", model.goroutines)
	}

	if model.memAlloc != 1024*1024 {
		t.Errorf("expected memAlloc %d, got %d", 1024*1024, model.memAlloc)
	}
}

func TestVolumeKeysSendChanges(t *testing.T) {
	ctrl := NewVolumeControl()
	model := NewModel(ctrl)

	next, _ := model.Update(tea.KeyMsg{Type: tea.KeyDown})
	model = next.(Model)

	if model.volume != 95 {
		t.Errorf("expected volume 95, got %d", model.volume)
	}

	select {
	case change := <-ctrl.Changes:
		if change.Volume != 95 || change.Muted {
			t.Errorf("unexpected change %+v", change)
		}
	default:
		t.Fatal("expected a volume change")
	}

	next, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("m")})
	model = next.(Model)
	if !model.muted {
		t.Error("expected muted after m")
	}
	if change := <-ctrl.Changes; !change.Muted {
		t.Error("expected mute change")
	}

	// already at the top, nothing to send
	model.volume = 100
	model.Update(tea.KeyMsg{Type: tea.KeyUp})
	if len(ctrl.Changes) != 0 {
		t.Error("no change expected at max volume")
	}
}

func TestQuitKeySignals(t *testing.T) {
	ctrl := NewVolumeControl()
	model := NewModel(ctrl)

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}

	select {
	case <-ctrl.Quit:
	default:
		t.Error("expected quit signal")
	}
}

func TestViewRendersDirections(t *testing.T) {
	model := NewModel(nil)
	next, _ := model.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	model = next.(Model)

	model.applyStatus(StatusMsg{
		Format: "S16LE", SampleRate: 8000, Channels: 1, Ptime: 20,
		Source: "tone", Player: "null",
		Capture: &DirectionStatus{State: "running", Frames: 7},
	})

	view := model.View()
	for _, want := range []string{"Capture:", "Playback:", "Frames: 7", "Mono", "[closed]"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestViewBeforeResize(t *testing.T) {
	if got := NewModel(nil).View(); got != "Loading..." {
		t.Errorf("expected Loading..., got %q", got)
	}
}

func TestTruncateFunction(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"this is longer than allowed", 10, "this is..."},
		{"", 10, ""},
		{"abcd", 4, "abcd"},
		{"abcde", 4, "a..."},
	}

	for _, tt := range tests {
		result := truncate(tt.input, tt.maxLen)
		if result != tt.expected {
			t.Errorf("truncate(%q, %d) = %q, expected %q",
				tt.input, tt.maxLen, result, tt.expected)
		}
	}
}

func TestChannelNameFunction(t *testing.T) {
	tests := []struct {
		channels int
		expected string
	}{
		{1, "Mono"},
		{2, "Stereo"},
		{6, "6ch"},
	}

	for _, tt := range tests {
		result := channelName(tt.channels)
		if result != tt.expected {
			t.Errorf("channelName(%d) = %q, expected %q",
				tt.channels, result, tt.expected)
		}
	}
}

func TestRenderBar(t *testing.T) {
	if got := renderBar(50, 100, 4); got != "██░░" {
		t.Errorf("unexpected bar %q", got)
	}
}
