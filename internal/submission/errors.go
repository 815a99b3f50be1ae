package submission

import (
	"errors"
	"fmt"

	"github.com/adrayandaleandrew/baring-construction/internal/validation"
)

var (
	// ErrRateLimited means the client used up its allowance.
	ErrRateLimited = errors.New("rate limited")
	// ErrAbuseRejected means the verification token was rejected or could
	// not be checked.
	ErrAbuseRejected = errors.New("verification failed")
	// ErrMalformedBody means the request body could not be decoded.
	ErrMalformedBody = errors.New("malformed request body")
)

// ClientInputError is a structural problem with the submission. Exactly one
// of Fields or Err is set.
type ClientInputError struct {
	Fields validation.FieldErrors
	Err    error
}

func (e *ClientInputError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "validation failed: " + e.Fields.Error()
}

func (e *ClientInputError) Unwrap() error { return e.Err }

// DependencyFailure wraps an error from storage or email delivery. The
// wrapped error is for logs only.
type DependencyFailure struct {
	Step string
	Err  error
}

func (e *DependencyFailure) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *DependencyFailure) Unwrap() error { return e.Err }
