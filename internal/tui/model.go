package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/dayring/internal/device"
	"github.com/julianstephens/dayring/internal/render"
)

const refreshInterval = 200 * time.Millisecond

// Device is the part of *device.Device the simulator drives.
type Device interface {
	Submit(t device.Task) error
	Snapshot() device.Snapshot
}

// QuietPauser suspends quiet hours, e.g. *scheduler.Scheduler.
type QuietPauser interface {
	PauseQuietHour(minutes int) error
}

type tickMsg time.Time

// Model simulates the physical device: the key bindings stand in for the
// button and the motion sensor, and the strip is drawn in the terminal.
type Model struct {
	dev          Device
	strip        *render.Strip
	pauser       QuietPauser
	pauseMinutes int
	keys         KeyMap
	help         help.Model
	snap         device.Snapshot
	status       string
	statusErr    bool
	width        int
	quitting     bool
}

func New(dev Device, strip *render.Strip, pauser QuietPauser, pauseMinutes int) Model {
	return Model{
		dev:          dev,
		strip:        strip,
		pauser:       pauser,
		pauseMinutes: pauseMinutes,
		keys:         DefaultKeyMap(),
		help:         help.New(),
		snap:         dev.Snapshot(),
	}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
