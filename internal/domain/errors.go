// Package domain contains domain errors used throughout the application.
package domain

import "errors"

// Sentinel errors for common error conditions.
var (
	ErrHubNotRunning    = errors.New("event hub is not running")
	ErrNoPrimaryWindow  = errors.New("no primary window")
	ErrWindowClosed     = errors.New("window is closed")
	ErrUnknownWindow    = errors.New("unknown window")
	ErrInvalidPayload   = errors.New("invalid payload")
	ErrPlatformNotReady = errors.New("platform not ready")
)
