package models

// SlotState is what the renderer should show for one slot
type SlotState int

const (
	SlotUndone SlotState = iota
	SlotPending
	SlotDone
	SlotTodo
	SlotLoading
)

func (s SlotState) String() string {
	switch s {
	case SlotPending:
		return "pending"
	case SlotDone:
		return "done"
	case SlotTodo:
		return "todo"
	case SlotLoading:
		return "loading"
	default:
		return "undone"
	}
}

// SlotView is a render-ready snapshot of one slot
type SlotView struct {
	Index  int       `json:"index"`
	Date   string    `json:"date"`
	State  SlotState `json:"state"`
	Streak int       `json:"streak"` // only meaningful for SlotDone
}
