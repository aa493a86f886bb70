package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/leonardotrapani/urduscribe/internal/pipeline"
)

const (
	Title       = "اردو ٹرانسکرائبر"
	Subtitle    = "Real-time Urdu Language Transcription"
	Placeholder = "Press start and begin speaking Urdu..."

	StatusListening    = "Listening..."
	StatusNotListening = "Not Listening"

	LabelStart = "Start Listening"
	LabelStop  = "Stop Listening"
)

// Unicode bidi isolates; terminals without bidi support ignore them.
const (
	rtlIsolate = "\u2067"
	popIsolate = "\u2069"
)

const (
	minWidth  = 24
	minHeight = 10
)

// Render draws a full frame for a snapshot. The transcript panel shows the
// newest lines when the text does not fit.
func Render(snap pipeline.Snapshot, width, height int) string {
	width = max(width, minWidth)
	height = max(height, minHeight)

	header := renderHeader(width)
	status := renderStatus(snap, width)
	control := renderControl(snap.Listening(), width)

	bodyHeight := height - lipgloss.Height(header) - lipgloss.Height(status) - lipgloss.Height(control) - panelChrome
	bodyHeight = max(bodyHeight, 1)

	lines := TranscriptLines(snap.Transcript, panelInnerWidth(width))
	if len(lines) > bodyHeight {
		lines = lines[len(lines)-bodyHeight:]
	}
	panel := renderPanel(strings.Join(lines, "\n"), width, bodyHeight)

	return lipgloss.JoinVertical(lipgloss.Center, header, panel, status, control)
}

// border plus padding around the transcript
const panelChrome = 2

func panelInnerWidth(width int) int {
	return max(width-4, 1)
}

func renderPanel(content string, width, height int) string {
	return StylePanel.
		Width(width - 2).
		Height(height).
		Render(content)
}

func renderHeader(width int) string {
	title := lipgloss.PlaceHorizontal(width, lipgloss.Center, StyleTitle.Render(Title))
	subtitle := lipgloss.PlaceHorizontal(width, lipgloss.Center, StyleSubtitle.Render(Subtitle))
	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle)
}

// TranscriptLines lays the transcript out right to left: every wrapped line
// is isolated as RTL and aligned to the right edge.
func TranscriptLines(text string, width int) []string {
	if text == "" {
		return []string{lipgloss.PlaceHorizontal(width, lipgloss.Right, StylePlaceholder.Render(Placeholder))}
	}

	var out []string
	for _, para := range strings.Split(text, "\n") {
		wrapped := ansi.Wrap(para, width, "")
		for _, line := range strings.Split(wrapped, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				out = append(out, "")
				continue
			}
			styled := StyleTranscript.Render(rtlIsolate + line + popIsolate)
			out = append(out, lipgloss.PlaceHorizontal(width, lipgloss.Right, styled))
		}
	}
	return out
}

func renderStatus(snap pipeline.Snapshot, width int) string {
	var s string
	switch {
	case snap.Error != "":
		s = StyleError.Render("⚠ " + snap.Error)
	case snap.Listening():
		s = StyleListening.Render("● " + StatusListening)
	default:
		s = StyleMuted.Render(StatusNotListening)
	}
	return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(s)
}

func renderControl(listening bool, width int) string {
	button := StyleStartButton.Render("● " + LabelStart)
	if listening {
		button = StyleStopButton.Render("■ " + LabelStop)
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, button)
}
