package response

import (
	"encoding/json"
	"net/http"
)

// Error codes returned in the "error" field of failed responses.
const (
	CodeUnauthorized       = "unauthorized"
	CodeCSRFInvalid        = "csrf_invalid"
	CodeInvalidInput       = "invalid_input"
	CodeInvalidAction      = "invalid_action"
	CodeMissingLocation    = "missing_location"
	CodeInvalidCoordinates = "invalid_coordinates"
	CodeNoBranch           = "no_branch"
	CodeOutOfGeofence      = "out_of_geofence"
	CodeCheckInTooEarly    = "checkin_too_early"
	CodeCheckInClosed      = "checkin_closed"
	CodeCheckOutTooEarly   = "checkout_too_early"
	CodeCheckOutClosed     = "checkout_closed"
	CodeDuplicateCheckIn   = "duplicate_checkin"
	CodeNoOpenCheckIn      = "no_open_checkin"
	CodeServerError        = "server_error"
	CodeNotFound           = "not_found"
	CodeMethodNotAllowed   = "method_not_allowed"
)

// reserved keys cannot be overwritten by error details.
var reserved = map[string]bool{"success": true, "error": true, "message": true}

func JSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   CodeServerError,
			"message": "Failed to encode response",
		})
	}
}

// Success writes a 200 response. Payloads carry their own success field.
func Success(w http.ResponseWriter, payload interface{}) {
	JSON(w, http.StatusOK, payload)
}

// Error writes the flat failure envelope, localizing the message for the caller.
// Details are merged into the top-level object.
func Error(w http.ResponseWriter, r *http.Request, statusCode int, code string, details map[string]interface{}) {
	body := make(map[string]interface{}, len(details)+3)
	for k, v := range details {
		if !reserved[k] {
			body[k] = v
		}
	}
	body["success"] = false
	body["error"] = code
	body["message"] = Message(r, code)
	JSON(w, statusCode, body)
}

func BadRequest(w http.ResponseWriter, r *http.Request, code string, details map[string]interface{}) {
	Error(w, r, http.StatusBadRequest, code, details)
}

func Unauthorized(w http.ResponseWriter, r *http.Request) {
	Error(w, r, http.StatusUnauthorized, CodeUnauthorized, nil)
}

func Forbidden(w http.ResponseWriter, r *http.Request, code string, details map[string]interface{}) {
	Error(w, r, http.StatusForbidden, code, details)
}

func NotFound(w http.ResponseWriter, r *http.Request, code string) {
	Error(w, r, http.StatusNotFound, code, nil)
}

func InternalServerError(w http.ResponseWriter, r *http.Request) {
	Error(w, r, http.StatusInternalServerError, CodeServerError, nil)
}
