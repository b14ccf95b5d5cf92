package apperrors

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("not found")
	ErrTimerRunning     = errors.New("timer is running")
	ErrTimerNotRunning  = errors.New("timer is not running")
	ErrTimerExpired     = errors.New("timer has expired; reset or change duration first")
	ErrInvalidDuration  = errors.New("invalid timer duration")
	ErrPluginDisabled   = errors.New("plugin is disabled")
	ErrChecksumMismatch = errors.New("plugin checksum mismatch")
	ErrPluginTimeout    = errors.New("plugin timeout")
)
