package syncer

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/julianstephens/dayring/internal/constants"
	"github.com/julianstephens/dayring/internal/gateway"
	"github.com/julianstephens/dayring/internal/logger"
	"github.com/julianstephens/dayring/internal/models"
	"github.com/julianstephens/dayring/internal/ring"
)

var ErrEmptyRing = errors.New("ring has no current day")

type Options struct {
	Habit string
	// Progress is called before each slot is processed.
	Progress func(i int)
}

// Engine reconciles a ring with the backend. It holds no ring state of its
// own and must not be used for two cycles at once.
type Engine struct {
	gw       gateway.Gateway
	habit    string
	progress func(int)
}

func New(gw gateway.Gateway, opts Options) *Engine {
	if opts.Habit == "" {
		opts.Habit = constants.DefaultHabit
	}
	if opts.Progress == nil {
		opts.Progress = func(int) {}
	}
	return &Engine{gw: gw, habit: opts.Habit, progress: opts.Progress}
}

// Sync runs one full cycle: every slot is pushed if dirty and then pulled,
// today first. The first failed request ends the loop and leaves the rest
// of the ring as it was. Streaks of today and yesterday are refreshed
// afterwards regardless.
func (e *Engine) Sync(ctx context.Context, r *ring.Ring) (Report, error) {
	rep := Report{CycleID: uuid.NewString(), StoppedAt: -1}
	if r.TodayDate() == "" {
		rep.Status = StatusConnectFailed
		rep.Err = ErrEmptyRing
		return rep, ErrEmptyRing
	}

	if err := e.gw.Connect(ctx); err != nil {
		rep.Status = StatusConnectFailed
		rep.Err = err
		rep.Pending = len(r.Pending())
		logger.Warn("sync skipped, backend unreachable", "cycle", rep.CycleID, "err", err)
		return rep, err
	}
	defer e.disconnect()

	for i := 0; i < r.Capacity(); i++ {
		e.progress(i)

		pushed, err := e.push(ctx, r, i)
		if err == nil {
			if pushed {
				rep.Pushed++
			}
			err = e.pull(ctx, r, i)
		}
		if err != nil {
			rep.StoppedAt = i
			rep.Err = err
			logger.Warn("sync stopped early", "cycle", rep.CycleID, "slot", i, "err", err)
			break
		}
		rep.Pulled++
	}

	e.refreshStreak(ctx, r, 0)
	if r.Capacity() > 1 {
		e.refreshStreak(ctx, r, 1)
	}

	rep.Pending = len(r.Pending())
	if rep.Err != nil {
		rep.Status = StatusPartial
	}
	logger.Info("sync finished", "cycle", rep.CycleID, "status", rep.Status, "pushed", rep.Pushed, "pulled", rep.Pulled, "pending", rep.Pending)
	return rep, rep.Err
}

// PushOne uploads slot i if it is dirty and refreshes its streak, in a
// session of its own.
func (e *Engine) PushOne(ctx context.Context, r *ring.Ring, i int) error {
	if _, err := r.Slot(i); err != nil {
		return err
	}
	if err := e.gw.Connect(ctx); err != nil {
		return err
	}
	defer e.disconnect()

	if _, err := e.push(ctx, r, i); err != nil {
		return err
	}
	e.refreshStreak(ctx, r, i)
	return nil
}

func (e *Engine) disconnect() {
	if err := e.gw.Disconnect(); err != nil {
		logger.Warn("backend disconnect failed", "err", err)
	}
}

// push reports whether a request was sent. Clean slots count as success.
func (e *Engine) push(ctx context.Context, r *ring.Ring, i int) (bool, error) {
	slot, err := r.Slot(i)
	if err != nil {
		return false, err
	}
	if slot.Synced {
		return false, nil
	}

	body := gateway.NewDatesRequest(slot.Date)
	if slot.Done {
		var res gateway.AddedResponse
		if err := e.gw.Request(ctx, http.MethodPost, gateway.HabitPath(e.habit), body, &res); err != nil {
			return false, fmt.Errorf("add %s: %w", slot.Date, err)
		}
		if err := res.Validate(); err != nil {
			return false, fmt.Errorf("add %s: %w", slot.Date, err)
		}
	} else {
		var res gateway.DeletedResponse
		if err := e.gw.Request(ctx, http.MethodDelete, gateway.HabitPath(e.habit), body, &res); err != nil {
			return false, fmt.Errorf("delete %s: %w", slot.Date, err)
		}
		if err := res.Validate(); err != nil {
			return false, fmt.Errorf("delete %s: %w", slot.Date, err)
		}
	}

	logger.Debug("slot pushed", "slot", i, "date", slot.Date, "done", slot.Done)
	return true, r.Update(i, func(d *models.DayRecord) { d.SetSynced(true) })
}

// pull overwrites slot i with the backend's record for i days before today.
func (e *Engine) pull(ctx context.Context, r *ring.Ring, i int) error {
	req := gateway.HistoryRequest{StartDate: r.TodayDate(), Count: i}
	var res gateway.HistoryResponse
	if err := e.gw.Request(ctx, http.MethodGet, gateway.HabitPath(e.habit), req, &res); err != nil {
		return fmt.Errorf("history %s-%d: %w", req.StartDate, i, err)
	}
	if err := res.Validate(); err != nil {
		return fmt.Errorf("history %s-%d: %w", req.StartDate, i, err)
	}

	day := res.History[0]
	return r.Update(i, func(d *models.DayRecord) {
		d.Date = day.Date
		d.SetDone(day.Done == 1)
		d.SetSynced(true)
	})
}

func (e *Engine) refreshStreak(ctx context.Context, r *ring.Ring, i int) {
	slot, err := r.Slot(i)
	if err != nil || slot.IsEmpty() {
		return
	}

	var res gateway.StreakResponse
	err = e.gw.Request(ctx, http.MethodGet, gateway.StreakPath(e.habit), gateway.StreakRequest{StartDate: slot.Date}, &res)
	if err == nil {
		err = res.Validate()
	}
	if err != nil {
		logger.Warn("streak refresh failed", "slot", i, "date", slot.Date, "err", err)
		return
	}

	_ = r.Update(i, func(d *models.DayRecord) { d.SetStreak(*res.Streak) })
}
