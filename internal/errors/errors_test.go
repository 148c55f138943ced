package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: "",
		},
		{
			name:     "simple error",
			err:      errors.New("backend unreachable"),
			expected: "Error: backend unreachable",
		},
		{
			name:     "wrapped error",
			err:      fmt.Errorf("sync: %w", errors.New("connect failed")),
			expected: "Error: sync: connect failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.err); got != tt.expected {
				t.Errorf("Format(%v) = %q, want %q", tt.err, got, tt.expected)
			}
		})
	}
}

func TestFormatf(t *testing.T) {
	got := Formatf("invalid capacity %d", 0)
	if got != "Error: invalid capacity 0" {
		t.Errorf("Formatf() = %q", got)
	}
}
