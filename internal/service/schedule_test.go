package service

import (
	"errors"
	"testing"
	"time"
)

func TestCheckWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	before := now.Add(-time.Hour)
	after := now.Add(time.Hour)

	tests := []struct {
		name    string
		openAt  *time.Time
		closeAt *time.Time
		want    WindowStatus
	}{
		{"no bounds", nil, nil, WindowOk},
		{"inside window", &before, &after, WindowOk},
		{"not yet open", &after, nil, WindowNotYetOpen},
		{"already closed", nil, &before, WindowClosed},
		{"open bound only, passed", &before, nil, WindowOk},
		{"close bound only, not reached", nil, &after, WindowOk},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckWindow(now, tt.openAt, tt.closeAt); got != tt.want {
				t.Errorf("CheckWindow() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckWindowNotYetOpenWinsOverClosed(t *testing.T) {
	// A window that opens after it closes is misconfigured; the not-yet-open
	// answer is reported first.
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	open := now.Add(time.Hour)
	close := now.Add(-time.Hour)

	if got := CheckWindow(now, &open, &close); got != WindowNotYetOpen {
		t.Errorf("CheckWindow() = %v, want %v", got, WindowNotYetOpen)
	}
}

func TestWindowError(t *testing.T) {
	if err := WindowError(WindowOk); err != nil {
		t.Errorf("WindowError(WindowOk) = %v, want nil", err)
	}
	if err := WindowError(WindowNotYetOpen); !errors.Is(err, ErrNotYetOpen) {
		t.Errorf("WindowError(WindowNotYetOpen) = %v, want ErrNotYetOpen", err)
	}
	if err := WindowError(WindowClosed); !errors.Is(err, ErrClosed) {
		t.Errorf("WindowError(WindowClosed) = %v, want ErrClosed", err)
	}
}
