package utils

import (
	"testing"
	"time"
)

func TestLoadLocation(t *testing.T) {
	tests := []struct {
		name     string
		timezone string
		wantErr  bool
	}{
		{"empty is local", "", false},
		{"Local", "Local", false},
		{"IANA name", "Europe/Berlin", false},
		{"invalid", "Mars/Olympus", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadLocation(tt.timezone)
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadLocation(%q) error = %v, wantErr %v", tt.timezone, err, tt.wantErr)
			}
		})
	}
}

func TestDateOf(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("tzdata not available: %v", err)
	}
	// 23:30 UTC on Jan 3 is already Jan 4 in Berlin
	ts := time.Date(2024, 1, 3, 23, 30, 0, 0, time.UTC)
	if got := DateOf(ts, berlin); got != "2024-01-04" {
		t.Errorf("DateOf() = %q, want 2024-01-04", got)
	}
	if got := DateOf(ts, time.UTC); got != "2024-01-03" {
		t.Errorf("DateOf() = %q, want 2024-01-03", got)
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2024-01-03", "2024-01-03", false},
		{"2024-01-03T07:00:00+01:00", "2024-01-03", false},
		{"2024-01-03~T07:00:00+01:00", "2024-01-03", false},
		{" 2024-01-03 ", "2024-01-03", false},
		{"03.01.2024", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := NormalizeDate(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("NormalizeDate(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAddDays(t *testing.T) {
	tests := []struct {
		date string
		n    int
		want string
	}{
		{"2024-01-03", 1, "2024-01-04"},
		{"2024-01-01", -1, "2023-12-31"},
		{"2024-02-28", 1, "2024-02-29"},
		{"2024-03-31", -31, "2024-02-29"},
	}

	for _, tt := range tests {
		got, err := AddDays(tt.date, tt.n)
		if err != nil {
			t.Fatalf("AddDays(%q, %d) error: %v", tt.date, tt.n, err)
		}
		if got != tt.want {
			t.Errorf("AddDays(%q, %d) = %q, want %q", tt.date, tt.n, got, tt.want)
		}
	}

	if _, err := AddDays("bogus", 1); err == nil {
		t.Error("AddDays with invalid date should fail")
	}
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"2024-01-03", "2024-01-03", 0},
		{"2024-01-03", "2024-01-06", 3},
		{"2024-01-06", "2024-01-03", -3},
		{"2023-12-31", "2024-03-01", 61},
	}

	for _, tt := range tests {
		got, err := DaysBetween(tt.a, tt.b)
		if err != nil {
			t.Fatalf("DaysBetween(%q, %q) error: %v", tt.a, tt.b, err)
		}
		if got != tt.want {
			t.Errorf("DaysBetween(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
