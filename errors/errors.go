package errors

import (
	"errors"
	"fmt"
)

var (
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrProtocolViolation  = fmt.Errorf("first line is not an identity announce")
	ErrInvalidIdentity    = fmt.Errorf("identity must not be empty")
	ErrIdentityConflict   = fmt.Errorf("identity already registered")
	ErrPeerClosed         = fmt.Errorf("peer is closed")
	ErrPeerOverflow       = fmt.Errorf("peer outbound queue is full")
	ErrEmptyWords         = fmt.Errorf("no words have been found")
	ErrInvalidReplacement = fmt.Errorf("replacement must be a single character")
)

// Is forwards to the standard library so callers only import this package.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
