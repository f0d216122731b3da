package attendance

import "errors"

// Attendance domain errors
var (
	// Check-in errors
	ErrOutsideAllowedRadius = errors.New("you are outside the allowed radius")
	ErrCheckInInFuture      = errors.New("check-in timestamp is in the future")

	// General errors
	ErrCheckInPointNotFound = errors.New("check-in point not found")
	ErrDailyRecordNotFound  = errors.New("daily distance record not found")
	ErrAggregateConflict    = errors.New("daily distance record is being updated concurrently, retry")
	ErrUnauthorized         = errors.New("unauthorized to access this attendance record")
	ErrInvalidAnomalyConfig = errors.New("invalid anomaly configuration")
)
