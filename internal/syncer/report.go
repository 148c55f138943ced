package syncer

import "fmt"

type Status int

const (
	StatusSuccess Status = iota
	StatusPartial
	StatusConnectFailed
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusPartial:
		return "partial"
	case StatusConnectFailed:
		return "connect-failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Report summarizes one sync cycle.
type Report struct {
	CycleID   string
	Status    Status
	Pushed    int
	Pulled    int
	Pending   int // slots still waiting for upload after the cycle
	StoppedAt int // slot where the loop stopped early, -1 if it ran through
	Err       error
}

func (r Report) OK() bool {
	return r.Status == StatusSuccess
}

func (r Report) String() string {
	s := fmt.Sprintf("%s: pushed %d, pulled %d, pending %d", r.Status, r.Pushed, r.Pulled, r.Pending)
	if r.StoppedAt >= 0 {
		s += fmt.Sprintf(", stopped at slot %d", r.StoppedAt)
	}
	return s
}
