package db

import "errors"

// Domain-level database error sentinels.
var (
	// Brief errors
	ErrBriefNotFound = errors.New("brief not found")
	// ErrStatusConflict is returned when a status-guarded update matched the
	// id but not the expected current status (already processed, or locked
	// by the generating state).
	ErrStatusConflict = errors.New("brief status changed concurrently")

	// User errors
	ErrUserNotFound = errors.New("user not found")
)
