package attendance

import (
	"errors"

	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
)

var (
	// Request errors
	ErrInvalidInput       = errors.New("invalid request body")
	ErrInvalidAction      = errors.New("action must be checkin or checkout")
	ErrMissingLocation    = errors.New("latitude and longitude are required")
	ErrInvalidCoordinates = errors.New("coordinates are out of range")

	// Session errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrCSRFInvalid  = errors.New("invalid csrf token")

	// Policy errors
	ErrNoBranch         = errors.New("no active branch available for check-in")
	ErrOutOfGeofence    = errors.New("outside the allowed check-in area")
	ErrCheckInTooEarly  = errors.New("too early to check in")
	ErrCheckInClosed    = errors.New("check-in window has closed")
	ErrCheckOutTooEarly = errors.New("too early to check out")
	ErrCheckOutClosed   = errors.New("check-out window has closed")

	// State errors
	ErrDuplicateCheckIn = errors.New("already checked in today")
	ErrNoOpenCheckIn    = errors.New("no open check-in for today")
)

// PolicyError is a rejection carrying the data a client needs to explain it.
type PolicyError struct {
	Err     error
	Details map[string]any
}

func NewPolicyError(err error, details map[string]any) *PolicyError {
	return &PolicyError{Err: err, Details: details}
}

func (e *PolicyError) Error() string { return e.Err.Error() }

func (e *PolicyError) Unwrap() error { return e.Err }

// RequestError is a malformed request, with one message per offending field.
type RequestError struct {
	Err    error
	Fields validator.ValidationErrors
}

func (e *RequestError) Error() string {
	if len(e.Fields) == 0 {
		return e.Err.Error()
	}
	return e.Err.Error() + ": " + e.Fields.Error()
}

func (e *RequestError) Unwrap() error { return e.Err }
