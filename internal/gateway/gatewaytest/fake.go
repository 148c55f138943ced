// Package gatewaytest provides an in-memory habit backend for tests.
package gatewaytest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/julianstephens/dayring/internal/gateway"
	"github.com/julianstephens/dayring/internal/utils"
)

// Call records one request seen by the fake.
type Call struct {
	Method string
	Path   string
	Body   json.RawMessage
}

// IsPush reports whether the call was an add or delete.
func (c Call) IsPush() bool {
	return c.Method == http.MethodPost || c.Method == http.MethodDelete
}

// Fake is a well-behaved backend that keeps done dates in memory.
type Fake struct {
	mu        sync.Mutex
	days      map[string]bool
	connected bool

	// ConnectErr makes every Connect fail.
	ConnectErr error
	// Fail is consulted before each request; a non-nil result fails it.
	Fail func(c Call) error
	// Streaks overrides the computed streak for a start date.
	Streaks map[string]int
	// Added and Deleted override the counts returned by pushes.
	Added, Deleted *int

	Calls       []Call
	Connects    int
	Disconnects int
}

func New(doneDates ...string) *Fake {
	f := &Fake{days: make(map[string]bool)}
	for _, d := range doneDates {
		f.days[d] = true
	}
	return f
}

// FailNthPush fails the n-th push request (1-based) with gateway.ErrRequest.
func FailNthPush(n int) func(Call) error {
	seen := 0
	return func(c Call) error {
		if !c.IsPush() {
			return nil
		}
		seen++
		if seen == n {
			return fmt.Errorf("%w: injected failure on push %d", gateway.ErrRequest, n)
		}
		return nil
	}
}

// Done reports whether date is stored as done.
func (f *Fake) Done(date string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.days[date]
}

func (f *Fake) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

// CallsTo returns the recorded calls with the given method.
func (f *Fake) CallsTo(method string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Call
	for _, c := range f.Calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *Fake) Connect(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Connects++
	if f.ConnectErr != nil {
		return fmt.Errorf("%w: %v", gateway.ErrConnect, f.ConnectErr)
	}
	f.connected = true
	return nil
}

func (f *Fake) Disconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Disconnects++
	f.connected = false
	return nil
}

func (f *Fake) Request(ctx context.Context, method, path string, body, out any) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", gateway.ErrRequest, err)
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: encode body: %v", gateway.ErrRequest, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.connected {
		return fmt.Errorf("%w: not connected", gateway.ErrConnect)
	}

	call := Call{Method: method, Path: path, Body: raw}
	f.Calls = append(f.Calls, call)
	if f.Fail != nil {
		if err := f.Fail(call); err != nil {
			return err
		}
	}

	resp, err := f.handle(method, path, raw)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("%w: %v", gateway.ErrRequest, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", gateway.ErrRequest, err)
	}
	return nil
}

func (f *Fake) handle(method, path string, raw json.RawMessage) (any, error) {
	streak := strings.HasSuffix(path, "/streak")

	switch {
	case method == http.MethodPost && !streak:
		var req gateway.DatesRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("%w: status 400", gateway.ErrRequest)
		}
		added := 0
		for _, d := range req.Dates {
			if !f.days[d.Date] {
				f.days[d.Date] = true
				added++
			}
		}
		if f.Added != nil {
			return gateway.AddedResponse{Added: f.Added}, nil
		}
		return gateway.AddedResponse{Added: gateway.Int(added)}, nil

	case method == http.MethodDelete && !streak:
		var req gateway.DatesRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("%w: status 400", gateway.ErrRequest)
		}
		deleted := 0
		for _, d := range req.Dates {
			if f.days[d.Date] {
				delete(f.days, d.Date)
				deleted++
			}
		}
		if f.Deleted != nil {
			return gateway.DeletedResponse{Deleted: f.Deleted}, nil
		}
		return gateway.DeletedResponse{Deleted: gateway.Int(deleted)}, nil

	case method == http.MethodGet && streak:
		var req gateway.StreakRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("%w: status 400", gateway.ErrRequest)
		}
		if n, ok := f.Streaks[req.StartDate]; ok {
			return gateway.StreakResponse{Streak: gateway.Int(n)}, nil
		}
		n := 0
		for d := req.StartDate; f.days[d]; n++ {
			prev, err := utils.AddDays(d, -1)
			if err != nil {
				return nil, fmt.Errorf("%w: status 400", gateway.ErrRequest)
			}
			d = prev
		}
		return gateway.StreakResponse{Streak: gateway.Int(n)}, nil

	case method == http.MethodGet:
		var req gateway.HistoryRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("%w: status 400", gateway.ErrRequest)
		}
		var history []gateway.HistoryEntry
		for k := req.Count; k >= 0; k-- {
			d, err := utils.AddDays(req.StartDate, -k)
			if err != nil {
				return nil, fmt.Errorf("%w: status 400", gateway.ErrRequest)
			}
			done := 0
			if f.days[d] {
				done = 1
			}
			history = append(history, gateway.HistoryEntry{Date: d, Done: done})
		}
		return gateway.HistoryResponse{History: history}, nil
	}

	return nil, fmt.Errorf("%w: status 405", gateway.ErrRequest)
}
