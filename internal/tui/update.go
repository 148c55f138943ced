package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/dayring/internal/device"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case tickMsg:
		m.snap = m.dev.Snapshot()
		return m, tick()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Button):
			// the button also counts as presence
			m.submit(device.Motion(), "")
			m.submit(device.Toggle(), "button pressed")
		case key.Matches(msg, m.keys.Motion):
			m.submit(device.Motion(), "motion detected")
		case key.Matches(msg, m.keys.Sync):
			m.submit(device.Sync(), "sync requested")
		case key.Matches(msg, m.keys.Pause):
			if m.pauser == nil {
				m.setStatus("quiet hours are not scheduled", true)
				break
			}
			if err := m.pauser.PauseQuietHour(m.pauseMinutes); err != nil {
				m.setStatus(err.Error(), true)
				break
			}
			m.setStatus(fmt.Sprintf("quiet hours paused for %d min", m.pauseMinutes), false)
		}
	}

	return m, nil
}

func (m *Model) submit(t device.Task, status string) {
	if err := m.dev.Submit(t); err != nil {
		m.setStatus(fmt.Sprintf("%s: %v", t.Kind, err), true)
		return
	}
	if status != "" {
		m.setStatus(status, false)
	}
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}
