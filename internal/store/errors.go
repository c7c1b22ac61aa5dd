package store

import "errors"

// Sentinel errors shared by the stores; handlers map them to HTTP status
// codes at the boundary.
var (
	ErrNotFound       = errors.New("not found")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidParent  = errors.New("invalid parent comment")
	ErrValidation     = errors.New("invalid input")
	ErrDuplicateLogin = errors.New("login already taken")

	// ErrConsistency means a counter adjustment failed after the record
	// mutation committed and the compensating rollback failed too. The
	// affected post's counters need out-of-band reconciliation.
	ErrConsistency = errors.New("counters out of sync")
)
