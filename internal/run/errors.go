package run

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the remediation/run/system is absent from both the
	// store and the external source.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the entitlement check failed for the account.
	ErrForbidden = errors.New("forbidden")

	// ErrPreconditionFailed means the supplied etag no longer matches the
	// live connection status snapshot.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrNoExecutors means no connected executor remained after exclusion.
	ErrNoExecutors = errors.New("no connected executors")
)

// InvalidOffsetError reports a pagination offset beyond the collection.
type InvalidOffsetError struct {
	Offset int
	Total  int
}

func (e *InvalidOffsetError) Error() string {
	return fmt.Sprintf("requested starting offset %d out of range: %d", e.Offset, e.Total)
}
