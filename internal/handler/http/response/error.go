package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
)

// HandleError maps domain errors to HTTP responses. Anything unrecognised is
// logged in full and reported as server_error.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	var details map[string]interface{}
	var policyErr *attendance.PolicyError
	if errors.As(err, &policyErr) {
		details = policyErr.Details
	}

	var reqErr *attendance.RequestError
	if errors.As(err, &reqErr) && len(reqErr.Fields) > 0 {
		details = map[string]interface{}{"fields": reqErr.Fields.ToMap()}
	}

	switch {
	// Session
	case errors.Is(err, attendance.ErrUnauthorized),
		errors.Is(err, employee.ErrEmployeeNotFound),
		errors.Is(err, employee.ErrEmployeeInactive):
		Unauthorized(w, r)
	case errors.Is(err, attendance.ErrCSRFInvalid):
		Forbidden(w, r, CodeCSRFInvalid, nil)

	// Request
	case errors.Is(err, attendance.ErrInvalidInput):
		BadRequest(w, r, CodeInvalidInput, details)
	case errors.Is(err, attendance.ErrInvalidAction):
		BadRequest(w, r, CodeInvalidAction, details)
	case errors.Is(err, attendance.ErrMissingLocation):
		BadRequest(w, r, CodeMissingLocation, details)
	case errors.Is(err, attendance.ErrInvalidCoordinates):
		BadRequest(w, r, CodeInvalidCoordinates, details)

	// Policy
	case errors.Is(err, attendance.ErrNoBranch):
		NotFound(w, r, CodeNoBranch)
	case errors.Is(err, attendance.ErrOutOfGeofence):
		Forbidden(w, r, CodeOutOfGeofence, details)
	case errors.Is(err, attendance.ErrCheckInTooEarly):
		Forbidden(w, r, CodeCheckInTooEarly, details)
	case errors.Is(err, attendance.ErrCheckInClosed):
		Forbidden(w, r, CodeCheckInClosed, details)
	case errors.Is(err, attendance.ErrCheckOutTooEarly):
		Forbidden(w, r, CodeCheckOutTooEarly, details)
	case errors.Is(err, attendance.ErrCheckOutClosed):
		Forbidden(w, r, CodeCheckOutClosed, details)

	// State
	case errors.Is(err, attendance.ErrDuplicateCheckIn):
		BadRequest(w, r, CodeDuplicateCheckIn, nil)
	case errors.Is(err, attendance.ErrNoOpenCheckIn):
		BadRequest(w, r, CodeNoOpenCheckIn, nil)

	default:
		slog.ErrorContext(r.Context(), "unhandled error",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		InternalServerError(w, r)
	}
}
