package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/dayring/internal/device"
	"github.com/julianstephens/dayring/internal/lockfile"
	"github.com/julianstephens/dayring/internal/logger"
	"github.com/julianstephens/dayring/internal/render"
	"github.com/julianstephens/dayring/internal/scheduler"
	"github.com/julianstephens/dayring/internal/tui"
)

type RunCmd struct {
	DeviceFlags `embed:""`

	SyncInterval int           `help:"Minutes between full syncs." default:"${sync_interval}" env:"DAYRING_SYNC_INTERVAL"`
	RolloverHour int           `help:"Hour of day (0-23) the ring advances." default:"${rollover_hour}" env:"DAYRING_ROLLOVER_HOUR"`
	QuietStart   int           `help:"Hour quiet hours begin." default:"${quiet_start}" env:"DAYRING_QUIET_START"`
	QuietEnd     int           `help:"Hour quiet hours end." default:"${quiet_end}" env:"DAYRING_QUIET_END"`
	QuietPause   int           `help:"Minutes a pause suspends quiet hours." default:"${quiet_pause}" env:"DAYRING_QUIET_PAUSE"`
	Presence     time.Duration `help:"Display sleeps after this long without motion." default:"${presence}" env:"DAYRING_PRESENCE_TIMEOUT"`
	Headless     bool          `help:"Run without the terminal simulator and log frames instead."`
}

func (c *RunCmd) Run(ctx *Context) error {
	if err := c.check(); err != nil {
		return err
	}
	if c.QuietPause < 1 {
		return fmt.Errorf("quiet pause must be at least 1 minute, got %d", c.QuietPause)
	}
	if c.Presence <= 0 {
		return fmt.Errorf("presence timeout must be positive, got %s", c.Presence)
	}
	loc, err := c.location()
	if err != nil {
		return err
	}

	lock, err := lockfile.Acquire(ctx.LockPath())
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("failed to release lockfile", "path", lock.Path(), "err", err)
		}
	}()

	gw, err := c.gateway()
	if err != nil {
		return err
	}

	strip := render.NewStrip(c.Capacity)
	var renderer render.Renderer = strip
	if c.Headless {
		renderer = render.NewLogRenderer(c.Capacity)
	}

	dev, err := device.New(device.Config{
		Habit:           c.Habit,
		Capacity:        c.Capacity,
		Location:        loc,
		PresenceTimeout: c.Presence,
	}, gw, renderer)
	if err != nil {
		return err
	}

	sched, err := scheduler.New(scheduler.Options{Location: loc})
	if err != nil {
		return err
	}
	if err := c.schedule(sched, dev); err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched.Start()
	defer func() {
		if err := sched.Shutdown(); err != nil {
			logger.Warn("scheduler shutdown failed", "err", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- dev.Run(runCtx)
	}()

	logger.Info("device started", "habit", c.Habit, "capacity", c.Capacity, "url", c.URL, "headless", c.Headless)

	if c.Headless {
		return <-errCh
	}

	p := tea.NewProgram(tui.New(dev, strip, sched, c.QuietPause), tea.WithAltScreen(), tea.WithContext(runCtx))
	_, uiErr := p.Run()
	stop()
	devErr := <-errCh
	if errors.Is(uiErr, tea.ErrProgramKilled) {
		uiErr = nil
	}
	return errors.Join(uiErr, devErr)
}

type submitter interface {
	Submit(t device.Task) error
}

// schedule connects the clock-driven jobs to the device queue.
func (c *RunCmd) schedule(sched *scheduler.Scheduler, dev submitter) error {
	submit := func(t device.Task) {
		if err := dev.Submit(t); err != nil {
			logger.Warn("dropped scheduled task", "task", t.Kind, "err", err)
		}
	}

	if err := sched.OnInterval(c.SyncInterval, func() { submit(device.Sync()) }); err != nil {
		return fmt.Errorf("sync interval: %w", err)
	}
	if err := sched.OnNextDay(c.RolloverHour, func() { submit(device.Rollover()) }); err != nil {
		return fmt.Errorf("rollover hour: %w", err)
	}
	if err := sched.OnQuietHour(c.QuietStart, c.QuietEnd, func(quiet bool) { submit(device.Quiet(quiet)) }); err != nil {
		return fmt.Errorf("quiet hours: %w", err)
	}
	return nil
}
