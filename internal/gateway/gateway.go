package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

var (
	// ErrConnect means no session with the backend could be established.
	ErrConnect = errors.New("backend connect failed")
	// ErrRequest covers transport errors, unexpected statuses and
	// responses that cannot be decoded.
	ErrRequest = errors.New("backend request failed")
	// ErrProtocol is a well-formed response that breaks the contract,
	// e.g. a negative count. It wraps ErrRequest.
	ErrProtocol = fmt.Errorf("%w: protocol violation", ErrRequest)
)

// Gateway performs request/response exchanges with the habit backend
// inside a connect/disconnect session.
type Gateway interface {
	Connect(ctx context.Context) error
	// Request sends body as JSON and decodes the response into out when
	// out is non-nil.
	Request(ctx context.Context, method, path string, body, out any) error
	// Disconnect releases the session. It is safe to call when not
	// connected.
	Disconnect() error
}

func HabitPath(habit string) string {
	return "/habit/" + url.PathEscape(habit)
}

func StreakPath(habit string) string {
	return HabitPath(habit) + "/streak"
}
