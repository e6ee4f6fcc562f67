package common

import "errors"

var ErrPaused = errors.New("operation paused")

// PauseView reports whether a named pool operation is currently halted by the
// administrator.
type PauseView interface {
	IsPaused(operation string) bool
}

func Guard(p PauseView, operation string) error {
	if p == nil || operation == "" {
		return nil
	}
	if p.IsPaused(operation) {
		return ErrPaused
	}
	return nil
}
