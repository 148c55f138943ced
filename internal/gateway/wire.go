package gateway

import "fmt"

type DateEntry struct {
	Date string `json:"date"`
}

// DatesRequest is the body of both add (POST) and delete (DELETE).
type DatesRequest struct {
	Dates []DateEntry `json:"dates"`
}

func NewDatesRequest(dates ...string) DatesRequest {
	req := DatesRequest{Dates: make([]DateEntry, 0, len(dates))}
	for _, d := range dates {
		req.Dates = append(req.Dates, DateEntry{Date: d})
	}
	return req
}

// Count fields are pointers so that a missing field can be told apart
// from zero.

type AddedResponse struct {
	Added *int `json:"added"`
}

type DeletedResponse struct {
	Deleted *int `json:"deleted"`
}

type HistoryRequest struct {
	StartDate string `json:"startDate"`
	Count     int    `json:"count"`
}

type HistoryEntry struct {
	Date string `json:"date"`
	Done int    `json:"done"` // 0 or 1
}

// HistoryResponse lists count+1 days ending at startDate, oldest first.
type HistoryResponse struct {
	History []HistoryEntry `json:"history"`
}

type StreakRequest struct {
	StartDate string `json:"startDate"`
}

type StreakResponse struct {
	Streak *int `json:"streak"`
}

// Int returns a pointer to n, for building responses.
func Int(n int) *int {
	return &n
}

func (r AddedResponse) Validate() error {
	return checkCount("added", r.Added)
}

func (r DeletedResponse) Validate() error {
	return checkCount("deleted", r.Deleted)
}

func (r StreakResponse) Validate() error {
	return checkCount("streak", r.Streak)
}

func (r HistoryResponse) Validate() error {
	if len(r.History) == 0 {
		return fmt.Errorf("%w: empty history", ErrProtocol)
	}
	first := r.History[0]
	if first.Date == "" {
		return fmt.Errorf("%w: history entry without date", ErrProtocol)
	}
	if first.Done != 0 && first.Done != 1 {
		return fmt.Errorf("%w: done must be 0 or 1, got %d", ErrProtocol, first.Done)
	}
	return nil
}

func checkCount(field string, v *int) error {
	if v == nil {
		return fmt.Errorf("%w: missing %q", ErrProtocol, field)
	}
	if *v < 0 {
		return fmt.Errorf("%w: negative %q (%d)", ErrProtocol, field, *v)
	}
	return nil
}
