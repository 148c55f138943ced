package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/dayring/internal/constants"
)

// ringWidth is the number of pixels per row in the terminal.
const ringWidth = 30

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	ui := lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Render(constants.AppName),
		ringStyle.Render(m.strip.View(ringWidth)),
		m.viewState(),
		m.viewStatus(),
		m.help.View(m.keys),
	)
	return docStyle.Render(ui)
}

func (m Model) viewState() string {
	s := m.snap

	flags := []string{okStyle.Render("awake")}
	if !s.Awake {
		flags[0] = warnStyle.Render("asleep")
	}
	if s.Quiet {
		flags = append(flags, warnStyle.Render("quiet hours"))
	}
	if s.Syncing {
		flags = append(flags, warnStyle.Render("syncing"))
	}

	pending := 0
	for _, r := range s.Records {
		if !r.Synced {
			pending++
		}
	}

	lines := []string{
		fmt.Sprintf("%s %s", labelStyle.Render("today "), s.Today),
		fmt.Sprintf("%s %d", labelStyle.Render("streak"), s.Streak),
		fmt.Sprintf("%s %d", labelStyle.Render("queued"), pending),
		fmt.Sprintf("%s %s", labelStyle.Render("state "), strings.Join(flags, " ")),
		fmt.Sprintf("%s %s", labelStyle.Render("sync  "), m.viewLastSync()),
	}
	return strings.Join(lines, "\n")
}

func (m Model) viewLastSync() string {
	s := m.snap
	if s.LastSyncAt.IsZero() {
		return labelStyle.Render("never")
	}
	text := fmt.Sprintf("%s at %s", s.LastSync.Status, s.LastSyncAt.Format(constants.TimeFormat))
	if !s.LastSync.OK() {
		return errStyle.Render(text)
	}
	return okStyle.Render(text)
}

func (m Model) viewStatus() string {
	if m.status == "" {
		return ""
	}
	if m.statusErr {
		return errStyle.Render(m.status)
	}
	return labelStyle.Render(m.status)
}
