// Package agent runs the device-side jobs: step sync and tournament reminders.
package agent

import "errors"

var (
	// ErrNotReady means no user is logged in or no tournament is loaded.
	ErrNotReady = errors.New("session not ready")
	// ErrHealthUnavailable means the device offers no step data.
	ErrHealthUnavailable = errors.New("health data unavailable")
	// ErrAuthorizationDenied means the user did not grant access to step data.
	ErrAuthorizationDenied = errors.New("health data authorization denied")
)

// Expected reports errors that are part of normal operation and not worth a warning.
func Expected(err error) bool {
	return errors.Is(err, ErrNotReady) || errors.Is(err, ErrHealthUnavailable) || errors.Is(err, ErrAuthorizationDenied)
}
