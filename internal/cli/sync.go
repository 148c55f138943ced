package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/dayring/internal/lockfile"
	"github.com/julianstephens/dayring/internal/logger"
	"github.com/julianstephens/dayring/internal/render"
	"github.com/julianstephens/dayring/internal/ring"
	"github.com/julianstephens/dayring/internal/syncer"
	"github.com/julianstephens/dayring/internal/utils"
)

type SyncCmd struct {
	DeviceFlags `embed:""`

	List bool `help:"Print every slot after the ring."`
}

// Run pulls a fresh ring from the backend once and prints it. Nothing is
// pushed because a new ring has no local changes.
func (c *SyncCmd) Run(ctx *Context) error {
	if err := c.check(); err != nil {
		return err
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

	r, err := ring.New(c.Capacity)
	if err != nil {
		return err
	}
	if _, err := r.AdvanceTo(utils.DateOf(time.Now(), loc)); err != nil {
		return err
	}

	rep, syncErr := syncer.New(gw, syncer.Options{Habit: c.Habit}).Sync(context.Background(), r)

	strip := render.NewStrip(c.Capacity)
	strip.SetAwake(true)
	render.All(strip, r.Views())

	fmt.Println(strip.View(30))
	fmt.Printf("%s  streak %d\n", r.TodayDate(), r.Streak())
	if c.List {
		for i, rec := range r.Records() {
			state := "pending"
			if rec.Synced {
				state = "synced"
			}
			done := " "
			if rec.Done {
				done = "x"
			}
			fmt.Printf("%3d  %s  [%s]  %-7s  streak %d\n", i, rec.Date, done, state, rec.Streak)
		}
	}
	fmt.Println(rep)

	if syncErr != nil {
		return fmt.Errorf("sync failed: %w", syncErr)
	}
	return nil
}
