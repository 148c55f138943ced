package models

import "testing"

func TestNewDayRecord(t *testing.T) {
	r := NewDayRecord("2024-01-03")

	if r.Date != "2024-01-03" {
		t.Errorf("Date = %q, want %q", r.Date, "2024-01-03")
	}
	if r.IsDone() {
		t.Error("fresh record should not be done")
	}
	if !r.IsSynced() {
		t.Error("fresh record should be synced")
	}
	if r.Streak != 0 {
		t.Errorf("Streak = %d, want 0", r.Streak)
	}
}

func TestZeroRecordIsEmpty(t *testing.T) {
	var r DayRecord
	if !r.IsEmpty() {
		t.Error("zero record should be empty")
	}
	if NewDayRecord("2024-01-03").IsEmpty() {
		t.Error("dated record should not be empty")
	}
}

func TestSetStreakClampsNegative(t *testing.T) {
	var r DayRecord
	r.SetStreak(-4)
	if r.Streak != 0 {
		t.Errorf("Streak = %d, want 0", r.Streak)
	}
	r.SetStreak(7)
	if r.Streak != 7 {
		t.Errorf("Streak = %d, want 7", r.Streak)
	}
}

func TestSlotStateString(t *testing.T) {
	tests := []struct {
		state SlotState
		want  string
	}{
		{SlotUndone, "undone"},
		{SlotPending, "pending"},
		{SlotDone, "done"},
		{SlotTodo, "todo"},
		{SlotLoading, "loading"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("SlotState(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
