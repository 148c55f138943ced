package ring

import (
	"errors"
	"fmt"

	"github.com/julianstephens/dayring/internal/models"
	"github.com/julianstephens/dayring/internal/utils"
)

var (
	ErrInvalidCapacity = errors.New("ring capacity must be at least 1")
	ErrOutOfRange      = errors.New("slot index out of range")
	ErrClockSkew       = errors.New("date is before the ring's current day")
)

// Ring is a fixed-capacity history of day records. Index 0 is today,
// index i is i days ago. The backing array is allocated once and never
// resized.
type Ring struct {
	slots     []models.DayRecord
	todayDate string
}

func New(capacity int) (*Ring, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}
	slots := make([]models.DayRecord, capacity)
	for i := range slots {
		slots[i] = models.NewDayRecord("")
	}
	return &Ring{slots: slots}, nil
}

// FromRecords builds a ring whose capacity equals len(records).
func FromRecords(records []models.DayRecord) (*Ring, error) {
	r, err := New(len(records))
	if err != nil {
		return nil, err
	}
	copy(r.slots, records)
	r.todayDate = r.slots[0].Date
	return r, nil
}

func (r *Ring) Capacity() int {
	return len(r.slots)
}

// TodayDate is the date of slot 0, used as the query anchor when pulling
// history from the backend.
func (r *Ring) TodayDate() string {
	return r.todayDate
}

// Slot returns a copy of the record at position i.
func (r *Ring) Slot(i int) (models.DayRecord, error) {
	if i < 0 || i >= len(r.slots) {
		return models.DayRecord{}, fmt.Errorf("%w: %d", ErrOutOfRange, i)
	}
	return r.slots[i], nil
}

// Records returns a copy of every slot, today first.
func (r *Ring) Records() []models.DayRecord {
	out := make([]models.DayRecord, len(r.slots))
	copy(out, r.slots)
	return out
}

// Update mutates the record at position i in place.
func (r *Ring) Update(i int, fn func(*models.DayRecord)) error {
	if i < 0 || i >= len(r.slots) {
		return fmt.Errorf("%w: %d", ErrOutOfRange, i)
	}
	fn(&r.slots[i])
	if i == 0 {
		r.todayDate = r.slots[0].Date
	}
	return nil
}

// Rollover retires the oldest slot and installs a fresh record for
// newDate at index 0. The date is not checked against the previous day;
// use AdvanceTo for that.
func (r *Ring) Rollover(newDate string) {
	copy(r.slots[1:], r.slots[:len(r.slots)-1])
	r.slots[0] = models.NewDayRecord(newDate)
	r.todayDate = newDate
}

// ToggleToday flips today's completion and marks it for upload. When the
// day becomes done the streak is estimated from yesterday's; the next
// successful sync replaces the estimate.
func (r *Ring) ToggleToday() {
	today := &r.slots[0]
	today.SetDone(!today.Done)
	today.SetSynced(false)
	if today.Done && len(r.slots) > 1 {
		today.SetStreak(r.slots[1].Streak + 1)
	}
}

// DerivedStreak counts consecutive done days starting at today.
func (r *Ring) DerivedStreak() int {
	n := 0
	for _, s := range r.slots {
		if !s.Done {
			break
		}
		n++
	}
	return n
}

// Streak prefers the backend value once slot 0 is confirmed and falls back
// to the local count otherwise.
func (r *Ring) Streak() int {
	if r.slots[0].Synced && !r.slots[0].IsEmpty() {
		return r.slots[0].Streak
	}
	return r.DerivedStreak()
}

// Pending returns the positions that still need to be pushed.
func (r *Ring) Pending() []int {
	var idx []int
	for i, s := range r.slots {
		if !s.Synced {
			idx = append(idx, i)
		}
	}
	return idx
}

// AdvanceTo rolls the ring forward until slot 0 is today. An empty ring
// takes one rollover, the same date is a no-op, and a gap of k days
// inserts the k missing dates (at most Capacity of them). A date before
// the current one leaves the ring untouched.
func (r *Ring) AdvanceTo(today string) (int, error) {
	if _, err := utils.ParseDate(today); err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", today, err)
	}
	if r.todayDate == "" {
		r.Rollover(today)
		return 1, nil
	}

	gap, err := utils.DaysBetween(r.todayDate, today)
	if err != nil {
		return 0, fmt.Errorf("invalid ring date %q: %w", r.todayDate, err)
	}
	switch {
	case gap < 0:
		return 0, fmt.Errorf("%w: ring is at %s, got %s", ErrClockSkew, r.todayDate, today)
	case gap == 0:
		return 0, nil
	}

	steps := min(gap, len(r.slots))
	for k := steps - 1; k >= 0; k-- {
		d, err := utils.AddDays(today, -k)
		if err != nil {
			return 0, err
		}
		r.Rollover(d)
	}
	return steps, nil
}

// Views derives the render state of every slot. The streak handed to
// done slots decays by one per step back from today, which drives the
// done color gradient.
func (r *Ring) Views() []models.SlotView {
	views := make([]models.SlotView, len(r.slots))

	streak := r.slots[0].Streak
	if !r.slots[0].Done && len(r.slots) > 1 {
		streak = r.slots[1].Streak + 1
	}

	for i, s := range r.slots {
		if streak > 0 {
			streak--
		}
		v := models.SlotView{Index: i, Date: s.Date}
		switch {
		case !s.Synced:
			v.State = models.SlotPending
		case i == 0 && !s.Done:
			v.State = models.SlotTodo
		case s.Done:
			v.State = models.SlotDone
			v.Streak = streak
		default:
			v.State = models.SlotUndone
		}
		views[i] = v
	}
	return views
}
