package storage

import "errors"

var ErrInvalidDay = errors.New("invalid day")

// Provider stores the completed days of each habit. Days are YYYY-MM-DD.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// AddDays stores days as done and returns how many were new.
	AddDays(habit string, days []string) (int, error)
	// DeleteDays removes days and returns how many existed. Absent days
	// are not an error.
	DeleteDays(habit string, days []string) (int, error)
	// GetDays returns the stored days in [from, to], oldest first.
	GetDays(habit, from, to string) ([]string, error)

	GetConfigPath() string
}
