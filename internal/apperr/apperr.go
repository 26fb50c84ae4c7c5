// Package apperr defines the three error kinds named in spec §7:
// validation, platform, and cancellation. Components wrap one of these
// sentinels with fmt.Errorf("%w: ...") so callers can errors.Is against a
// kind while still getting a descriptive message.
package apperr

import "errors"

var (
	// ErrValidation covers missing/unknown parameters, unknown key or
	// button names, and out-of-range port indices.
	ErrValidation = errors.New("validation error")
	// ErrPlatform covers failures from the platform driver: MIDI init
	// failure, permission denied, failed input synthesis.
	ErrPlatform = errors.New("platform error")
	// ErrCancelled marks a task aborted mid-sequence. It is swallowed at
	// the orchestrator task boundary, never surfaced to a command caller.
	ErrCancelled = errors.New("cancelled")
)
