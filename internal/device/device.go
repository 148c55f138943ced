package device

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/julianstephens/dayring/internal/constants"
	"github.com/julianstephens/dayring/internal/gateway"
	"github.com/julianstephens/dayring/internal/logger"
	"github.com/julianstephens/dayring/internal/models"
	"github.com/julianstephens/dayring/internal/render"
	"github.com/julianstephens/dayring/internal/ring"
	"github.com/julianstephens/dayring/internal/syncer"
	"github.com/julianstephens/dayring/internal/utils"
)

var ErrQueueFull = errors.New("device task queue is full")

const queueSize = 32

type Config struct {
	Habit           string
	Capacity        int
	Location        *time.Location
	PresenceTimeout time.Duration
	Clock           clockwork.Clock
}

// Snapshot is a copy of the device state for UIs.
type Snapshot struct {
	Seq        uint64 // tasks handled so far, boot included
	Today      string
	Records    []models.DayRecord
	Views      []models.SlotView
	Streak     int
	Awake      bool
	Quiet      bool
	Syncing    bool
	LastSync   syncer.Report
	LastSyncAt time.Time
}

// Device owns the ring and everything that touches it. All mutation
// happens on the goroutine running Run; other goroutines Submit tasks.
type Device struct {
	cfg      Config
	ring     *ring.Ring
	engine   *syncer.Engine
	renderer render.Renderer
	clock    clockwork.Clock

	tasks      chan Task
	syncQueued atomic.Bool

	awake  bool
	quiet  bool
	seq    uint64
	last   syncer.Report
	lastAt time.Time

	mu   sync.RWMutex
	snap Snapshot
}

func New(cfg Config, gw gateway.Gateway, r render.Renderer) (*Device, error) {
	if gw == nil || r == nil {
		return nil, fmt.Errorf("device needs a gateway and a renderer")
	}
	if cfg.Capacity == 0 {
		cfg.Capacity = constants.DefaultCapacity
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.PresenceTimeout <= 0 {
		cfg.PresenceTimeout = constants.DefaultPresenceTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	rg, err := ring.New(cfg.Capacity)
	if err != nil {
		return nil, err
	}

	d := &Device{
		cfg:      cfg,
		ring:     rg,
		renderer: r,
		clock:    cfg.Clock,
		tasks:    make(chan Task, queueSize),
		awake:    true,
		last:     syncer.Report{StoppedAt: -1},
	}
	d.engine = syncer.New(gw, syncer.Options{
		Habit:    cfg.Habit,
		Progress: func(int) { r.AdvanceLoading() },
	})
	d.publish()
	return d, nil
}

// Submit queues a task for the loop. A sync is dropped when one is
// already queued or running.
func (d *Device) Submit(t Task) error {
	if t.Kind == TaskSync && !d.syncQueued.CompareAndSwap(false, true) {
		logger.Debug("sync already pending, skipping")
		return nil
	}
	select {
	case d.tasks <- t:
		return nil
	default:
		if t.Kind == TaskSync {
			d.syncQueued.Store(false)
		}
		logger.Warn("task dropped", "task", t.Kind)
		return ErrQueueFull
	}
}

func (d *Device) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s := d.snap
	s.Records = append([]models.DayRecord(nil), d.snap.Records...)
	s.Views = append([]models.SlotView(nil), d.snap.Views...)
	return s
}

// Run boots the device and processes tasks until ctx is done. The ring
// is rebuilt from the backend on every start.
func (d *Device) Run(ctx context.Context) error {
	presence := d.clock.NewTimer(d.cfg.PresenceTimeout)
	defer presence.Stop()

	d.renderer.SetAwake(true)
	d.rollover()
	d.syncQueued.Store(true)
	d.fullSync(ctx)
	d.done()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-presence.Chan():
			d.sleep()
			d.done()
		case t := <-d.tasks:
			d.handle(ctx, t, presence)
			d.done()
		}
	}
}

func (d *Device) handle(ctx context.Context, t Task, presence clockwork.Timer) {
	logger.Debug("task", "kind", t.Kind)
	switch t.Kind {
	case TaskSync:
		d.fullSync(ctx)
	case TaskRollover:
		d.rollover()
	case TaskToggle:
		d.toggle(ctx)
	case TaskMotion:
		presence.Reset(d.cfg.PresenceTimeout)
		if !d.awake {
			d.awake = true
			d.renderer.SetAwake(true)
			d.renderAll()
		}
	case TaskQuiet:
		d.quiet = t.Quiet
		d.renderer.SetQuiet(t.Quiet)
		d.renderAll()
	}
}

func (d *Device) today() string {
	return utils.DateOf(d.clock.Now(), d.cfg.Location)
}

func (d *Device) rollover() {
	today := d.today()
	steps, err := d.ring.AdvanceTo(today)
	if err != nil {
		logger.Warn("rollover skipped", "today", today, "err", err)
		return
	}
	if steps > 0 {
		logger.Info("new day", "date", today, "steps", steps)
		d.renderAll()
	}
}

func (d *Device) toggle(ctx context.Context) {
	// a press after midnight but before the scheduled rollover belongs
	// to the new day
	d.rollover()
	if d.ring.TodayDate() == "" {
		logger.Warn("toggle ignored, ring has no current day")
		return
	}

	d.ring.ToggleToday()
	today, _ := d.ring.Slot(0)
	logger.Info("today toggled", "date", today.Date, "done", today.Done)

	d.renderer.RenderSlot(0, models.SlotView{Index: 0, Date: today.Date, State: models.SlotPending})
	d.renderer.Show()
	d.publish()

	if err := d.engine.PushOne(ctx, d.ring, 0); err != nil {
		logger.Warn("push after toggle failed, will retry on next sync", "err", err)
	}
	d.renderAll()
}

func (d *Device) fullSync(ctx context.Context) {
	defer d.syncQueued.Store(false)

	if l, ok := d.renderer.(interface{ ResetLoading() }); ok {
		l.ResetLoading()
	}
	d.mu.Lock()
	d.snap.Syncing = true
	d.mu.Unlock()

	rep, err := d.engine.Sync(ctx, d.ring)
	if err != nil {
		logger.Warn("sync incomplete", "status", rep.Status, "err", err)
	}
	d.last = rep
	d.lastAt = d.clock.Now()
	d.renderAll()
}

func (d *Device) sleep() {
	if !d.awake {
		return
	}
	d.awake = false
	d.renderer.SetAwake(false)
	d.renderAll()
}

func (d *Device) renderAll() {
	render.All(d.renderer, d.ring.Views())
	d.publish()
}

func (d *Device) done() {
	d.seq++
	d.publish()
}

func (d *Device) publish() {
	s := Snapshot{
		Seq:        d.seq,
		Today:      d.ring.TodayDate(),
		Records:    d.ring.Records(),
		Views:      d.ring.Views(),
		Streak:     d.ring.Streak(),
		Awake:      d.awake,
		Quiet:      d.quiet,
		LastSync:   d.last,
		LastSyncAt: d.lastAt,
	}
	d.mu.Lock()
	d.snap = s
	d.mu.Unlock()
}
