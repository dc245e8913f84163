package analysis

import (
	"errors"
	"fmt"
)

// UnavailableError reports that a view cannot run because a feed is missing
// or empty. The message names the feed so the operator knows which export
// to supply.
type UnavailableError struct {
	Feed string
}

// Error fulfils the error interface.
func (e *UnavailableError) Error() string {
	return fmt.Sprintf("the %s feed is not available; upload it to see this view", e.Feed)
}

// unavailable is a constructor shorthand.
func unavailable(feed string) error {
	return &UnavailableError{Feed: feed}
}

// IsUnavailable reports whether err is a feed unavailability.
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}
