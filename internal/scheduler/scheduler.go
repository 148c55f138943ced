package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/julianstephens/dayring/internal/logger"
)

type Options struct {
	Clock    clockwork.Clock
	Location *time.Location
}

// Scheduler fires the device's periodic callbacks. Callbacks run on
// gocron's goroutines and should only hand work off.
type Scheduler struct {
	s     gocron.Scheduler
	clock clockwork.Clock
	loc   *time.Location

	mu          sync.Mutex
	quietStart  int
	quietEnd    int
	quietFn     func(bool)
	pausedUntil time.Time
	resumeJob   uuid.UUID
}

func New(opts Options) (*Scheduler, error) {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	s, err := gocron.NewScheduler(
		gocron.WithClock(opts.Clock),
		gocron.WithLocation(opts.Location),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Scheduler{s: s, clock: opts.Clock, loc: opts.Location}, nil
}

func (sc *Scheduler) Start() {
	sc.s.Start()
}

func (sc *Scheduler) Shutdown() error {
	return sc.s.Shutdown()
}

// Now is the scheduler clock's current time in the configured location.
func (sc *Scheduler) Now() time.Time {
	return sc.clock.Now().In(sc.loc)
}

// OnInterval runs fn every minutes minutes.
func (sc *Scheduler) OnInterval(minutes int, fn func()) error {
	if minutes < 1 {
		return fmt.Errorf("sync interval must be at least 1 minute, got %d", minutes)
	}
	return sc.OnEvery(time.Duration(minutes)*time.Minute, fn)
}

func (sc *Scheduler) OnEvery(d time.Duration, fn func()) error {
	_, err := sc.s.NewJob(
		gocron.DurationJob(d),
		gocron.NewTask(fn),
		gocron.WithName("interval"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule interval job: %w", err)
	}
	return nil
}

// OnNextDay runs fn once a day at hour:00 local time.
func (sc *Scheduler) OnNextDay(hour int, fn func()) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("rollover hour must be 0-23, got %d", hour)
	}
	_, err := sc.s.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(uint(hour), 0, 0))),
		gocron.NewTask(fn),
		gocron.WithName("next-day"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule rollover job: %w", err)
	}
	return nil
}

// OnQuietHour reports the quiet state right away and again at both edges
// of the [start, end) window.
func (sc *Scheduler) OnQuietHour(start, end int, fn func(quiet bool)) error {
	if start < 0 || start > 23 || end < 0 || end > 23 {
		return fmt.Errorf("quiet hours must be 0-23, got %d-%d", start, end)
	}

	sc.mu.Lock()
	sc.quietStart, sc.quietEnd, sc.quietFn = start, end, fn
	sc.mu.Unlock()

	_, err := sc.s.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(
			gocron.NewAtTime(uint(start), 0, 0),
			gocron.NewAtTime(uint(end), 0, 0),
		)),
		gocron.NewTask(sc.evaluateQuiet),
		gocron.WithName("quiet-hours"),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule quiet hours: %w", err)
	}

	sc.evaluateQuiet()
	return nil
}

// PauseQuietHour lifts quiet hours for minutes minutes. Window edges that
// fall inside the pause are ignored.
func (sc *Scheduler) PauseQuietHour(minutes int) error {
	if minutes < 1 {
		return fmt.Errorf("pause must be at least 1 minute, got %d", minutes)
	}
	sc.mu.Lock()
	fn := sc.quietFn
	if fn == nil {
		sc.mu.Unlock()
		return fmt.Errorf("quiet hours are not configured")
	}
	until := sc.clock.Now().Add(time.Duration(minutes) * time.Minute)
	sc.pausedUntil = until
	prev := sc.resumeJob
	sc.mu.Unlock()

	if prev != uuid.Nil {
		_ = sc.s.RemoveJob(prev)
	}

	job, err := sc.s.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(until)),
		gocron.NewTask(sc.resumeQuiet),
		gocron.WithName("quiet-resume"),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule quiet hour resume: %w", err)
	}

	sc.mu.Lock()
	sc.resumeJob = job.ID()
	sc.mu.Unlock()

	logger.Info("quiet hours paused", "minutes", minutes)
	fn(false)
	return nil
}

func (sc *Scheduler) resumeQuiet() {
	sc.mu.Lock()
	sc.pausedUntil = time.Time{}
	sc.resumeJob = uuid.Nil
	sc.mu.Unlock()
	sc.evaluateQuiet()
}

func (sc *Scheduler) evaluateQuiet() {
	sc.mu.Lock()
	fn, start, end := sc.quietFn, sc.quietStart, sc.quietEnd
	paused := sc.clock.Now().Before(sc.pausedUntil)
	sc.mu.Unlock()

	if fn == nil || paused {
		return
	}
	fn(InQuietHours(sc.Now(), start, end))
}

// InQuietHours reports whether t's hour falls in [start, end). The window
// may wrap midnight; start == end means no quiet hours.
func InQuietHours(t time.Time, start, end int) bool {
	h := t.Hour()
	switch {
	case start == end:
		return false
	case start < end:
		return h >= start && h < end
	default:
		return h >= start || h < end
	}
}

// NextDayAt returns the first hour:00 strictly after now, in now's location.
func NextDayAt(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = time.Date(now.Year(), now.Month(), now.Day()+1, hour, 0, 0, 0, now.Location())
	}
	return next
}
