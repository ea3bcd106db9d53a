package models

// Approvable reports whether a brief in the given status may be approved.
// Unset status is treated like pending: analysis rows created before the
// status column was backfilled carry an empty string.
func Approvable(from Status) bool {
	switch from {
	case StatusPending, StatusError, Status(""):
		return true
	}
	return false
}

// CanSetStatus is the single guard for direct admin overrides. Every entry
// point that mutates status manually goes through here; generating is owned
// by the dispatch/callback path and can neither be entered nor left manually.
func CanSetStatus(from, to Status) bool {
	if !ValidStatus(to) {
		return false
	}
	if from == StatusGenerating {
		return to == StatusGenerating
	}
	return to != StatusGenerating
}
