// Package tui provides the Bubble Tea live clock.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/pomo/internal/model"
	"github.com/verte-zerg/pomo/internal/timer"
)

// Controller is the timer surface the clock reads and drives.
type Controller interface {
	Status() model.Status
	Start() error
	Stop() error
	Toggle() (model.RecordState, error)
}

type keyMap struct {
	Toggle key.Binding
	Start  key.Binding
	Stop   key.Binding
	Quit   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Start, k.Stop, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var keys = keyMap{
	Toggle: key.NewBinding(key.WithKeys("p", " "), key.WithHelp("p", "pause/resume")),
	Start:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start")),
	Stop:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

var (
	workStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	breakStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FB3B3")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	stoppedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
)

type tickMsg time.Time

// Model implements the Bubble Tea clock UI.
type Model struct {
	ctl    Controller
	status model.Status
	errMsg string

	bar  progress.Model
	help help.Model

	width  int
	height int
}

// NewModel constructs a clock model reading from ctl.
func NewModel(ctl Controller) *Model {
	m := &Model{
		ctl:  ctl,
		bar:  progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		help: help.New(),
	}
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = max(10, min(60, msg.Width-4))
		m.help.Width = msg.Width
		return m, nil
	case tickMsg:
		m.refresh()
		return m, tick()
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Toggle):
			_, err := m.ctl.Toggle()
			m.setErr(err)
		case key.Matches(msg, keys.Start):
			m.setErr(m.ctl.Start())
		case key.Matches(msg, keys.Stop):
			m.setErr(m.ctl.Stop())
		default:
			return m, nil
		}
		m.refresh()
		return m, nil
	default:
		return m, nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		m.renderClock(),
		m.renderPhase(),
		"",
		m.renderBar(),
	)
	if m.errMsg != "" {
		content = lipgloss.JoinVertical(lipgloss.Center, content, "", errorStyle.Render(m.errMsg))
	}
	footer := m.help.View(keys)
	if m.width == 0 || m.height < 3 {
		return content + "\n" + footer
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	return body + "\n" + lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
}

func (m *Model) refresh() {
	m.status = m.ctl.Status()
}

func (m *Model) setErr(err error) {
	if err == nil {
		m.errMsg = ""
		return
	}
	m.errMsg = err.Error()
}

func (m *Model) renderClock() string {
	clock := timer.FormatClock(m.status)
	switch {
	case m.status.Stopped:
		return stoppedStyle.Render(clock)
	case m.status.Phase == model.PhaseBreak:
		return breakStyle.Render(clock)
	default:
		return workStyle.Render(clock)
	}
}

func (m *Model) renderPhase() string {
	if m.status.Stopped {
		return mutedStyle.Render("stopped")
	}
	label := m.status.Phase.String()
	if m.status.Paused {
		label += " (paused)"
	}
	return mutedStyle.Render(label)
}

func (m *Model) renderBar() string {
	return m.bar.ViewAs(phaseProgress(m.status))
}

// phaseProgress returns how far through the current phase the timer is.
func phaseProgress(s model.Status) float64 {
	if s.Stopped || s.Length <= 0 {
		return 0
	}
	done := s.Length - s.Remaining
	return float64(done) / float64(s.Length)
}
