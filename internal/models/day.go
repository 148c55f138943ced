package models

// DayRecord is one day's habit state as held by a ring slot.
// NewDayRecord("") is an empty slot: no date, not done, nothing to push.
type DayRecord struct {
	Date   string `json:"date"`
	Done   bool   `json:"done"`
	Synced bool   `json:"synced"`
	Streak int    `json:"streak"` // last known from the backend, or a local estimate while offline
}

// NewDayRecord returns a fresh record for date: not done and already synced.
func NewDayRecord(date string) DayRecord {
	return DayRecord{
		Date:   date,
		Synced: true,
	}
}

// IsEmpty reports whether the slot has never been assigned a day.
func (r DayRecord) IsEmpty() bool {
	return r.Date == ""
}

func (r DayRecord) IsDone() bool {
	return r.Done
}

func (r *DayRecord) SetDone(done bool) {
	r.Done = done
}

func (r DayRecord) IsSynced() bool {
	return r.Synced
}

func (r *DayRecord) SetSynced(synced bool) {
	r.Synced = synced
}

// SetStreak stores the streak length, clamping negative values to 0.
func (r *DayRecord) SetStreak(streak int) {
	if streak < 0 {
		streak = 0
	}
	r.Streak = streak
}
