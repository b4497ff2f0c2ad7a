package service

import "time"

// WindowStatus is the position of a wall-clock instant relative to an
// assessment's open/close window.
type WindowStatus string

const (
	WindowOk         WindowStatus = "OK"
	WindowNotYetOpen WindowStatus = "NOT_YET_OPEN"
	WindowClosed     WindowStatus = "CLOSED"
)

// CheckWindow reports whether now falls inside [openAt, closeAt]. A nil
// bound is unbounded on that side. The info endpoint surfaces the status
// as-is; start call sites reject on anything but WindowOk.
func CheckWindow(now time.Time, openAt, closeAt *time.Time) WindowStatus {
	if openAt != nil && now.Before(*openAt) {
		return WindowNotYetOpen
	}
	if closeAt != nil && now.After(*closeAt) {
		return WindowClosed
	}
	return WindowOk
}

// WindowError converts a non-Ok status into its domain error.
func WindowError(status WindowStatus) error {
	switch status {
	case WindowNotYetOpen:
		return ErrNotYetOpen
	case WindowClosed:
		return ErrClosed
	}
	return nil
}
