package lifecycle

import "errors"

// Typed guard violations. Handlers map these to 4xx responses; everything
// else coming out of the controller is a 5xx.
var (
	// ErrNotApprovable: approve called on a brief outside pending/error/unset.
	ErrNotApprovable = errors.New("brief is not in an approvable status")
	// ErrNotApproved: generation requested for a brief that is not approved.
	ErrNotApproved = errors.New("brief must be approved before generation")
	// ErrIncompletePayload: generation payload is missing required fields.
	ErrIncompletePayload = errors.New("generation payload incomplete")
	// ErrInvalidTransition: manual status change refused by the guard table.
	ErrInvalidTransition = errors.New("status transition not allowed")
	// ErrUnknownStatus: target status outside the closed enum.
	ErrUnknownStatus = errors.New("unknown status")
	// ErrDispatchUnconfigured: no dispatcher URL or token configured.
	ErrDispatchUnconfigured = errors.New("dispatcher is not configured")
)
