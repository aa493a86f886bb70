package tui

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/leonardotrapani/urduscribe/internal/logging"
	"github.com/leonardotrapani/urduscribe/internal/pipeline"
	"github.com/muesli/termenv"
)

// Controller is what the live view drives: an in-process manager or a daemon
// reached over the control socket.
type Controller interface {
	Start(ctx context.Context) error
	Stop()
	Snapshot() pipeline.Snapshot
	Subscribe() (<-chan struct{}, func())
}

type snapshotMsg pipeline.Snapshot

type startedMsg struct{ err error }

type liveModel struct {
	ctx        context.Context
	ctrl       Controller
	updates    <-chan struct{}
	stopOnQuit bool

	snap     pipeline.Snapshot
	viewport viewport.Model
	width    int
	height   int
	ready    bool
}

func newLiveModel(ctx context.Context, ctrl Controller, updates <-chan struct{}, stopOnQuit bool) liveModel {
	return liveModel{
		ctx:        ctx,
		ctrl:       ctrl,
		updates:    updates,
		stopOnQuit: stopOnQuit,
		snap:       ctrl.Snapshot(),
	}
}

func (m liveModel) Init() tea.Cmd {
	return m.waitForChange()
}

func (m liveModel) waitForChange() tea.Cmd {
	updates, ctrl := m.updates, m.ctrl
	return func() tea.Msg {
		if _, ok := <-updates; !ok {
			return nil
		}
		return snapshotMsg(ctrl.Snapshot())
	}
}

func (m liveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize(true)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, m.quit()
		case " ", "enter":
			return m, m.toggle()
		}

	case snapshotMsg:
		prev := m.snap.Transcript
		m.snap = pipeline.Snapshot(msg)
		// the footer height follows the status line, so re-lay everything
		m.resize(len(m.snap.Transcript) > len(prev))
		return m, m.waitForChange()

	case startedMsg:
		if msg.err != nil {
			log := logging.WithComponent("tui")
			log.Debug().Err(msg.err).Msg("start failed")
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m liveModel) toggle() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	if m.snap.Listening() {
		return func() tea.Msg {
			ctrl.Stop()
			return nil
		}
	}
	return func() tea.Msg {
		return startedMsg{err: ctrl.Start(ctx)}
	}
}

func (m liveModel) quit() tea.Cmd {
	if !m.stopOnQuit {
		return tea.Quit
	}
	ctrl := m.ctrl
	return func() tea.Msg {
		ctrl.Stop()
		return tea.Quit()
	}
}

// chrome returns the header and footer so the viewport gets what remains.
func (m liveModel) chrome() (header, footer string) {
	header = renderHeader(m.width)
	footer = lipgloss.JoinVertical(lipgloss.Center,
		renderStatus(m.snap, m.width),
		renderControl(m.snap.Listening(), m.width),
		lipgloss.PlaceHorizontal(m.width, lipgloss.Center, StyleHint.Render("space start/stop • ↑/↓ scroll • q quit")),
	)
	return header, footer
}

func (m *liveModel) resize(follow bool) {
	if m.width == 0 {
		return
	}
	header, footer := m.chrome()
	h := m.height - lipgloss.Height(header) - lipgloss.Height(footer) - panelChrome
	h = max(h, 1)
	w := panelInnerWidth(m.width)

	if !m.ready {
		m.viewport = viewport.New(w, h)
		m.ready = true
	} else {
		m.viewport.Width = w
		m.viewport.Height = h
	}
	m.refreshContent(follow)
}

// refreshContent re-lays the transcript; it follows the newest text when
// asked to, otherwise keeps the reader's scroll position.
func (m *liveModel) refreshContent(follow bool) {
	if !m.ready {
		return
	}
	lines := TranscriptLines(m.snap.Transcript, m.viewport.Width)
	m.viewport.SetContent(strings.Join(lines, "\n"))
	if follow {
		m.viewport.GotoBottom()
	}
}

func (m liveModel) View() string {
	if !m.ready {
		return ""
	}
	header, footer := m.chrome()
	panel := StylePanel.Width(m.width - 2).Render(m.viewport.View())
	return lipgloss.JoinVertical(lipgloss.Center, header, panel, footer)
}

// RunLive shows the live view until the user quits or ctx ends. With
// stopOnQuit the controller is stopped on the way out.
func RunLive(ctx context.Context, ctrl Controller, stopOnQuit bool) error {
	output := termenv.NewOutput(os.Stdout)
	lipgloss.SetColorProfile(output.EnvColorProfile())
	lipgloss.SetHasDarkBackground(output.HasDarkBackground())

	updates, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()

	p := tea.NewProgram(newLiveModel(ctx, ctrl, updates, stopOnQuit), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if stopOnQuit {
		ctrl.Stop()
	}
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
