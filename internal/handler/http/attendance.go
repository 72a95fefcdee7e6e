package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-attendance-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/csrf"
)

const maxBodyBytes = 1 << 20

type AttendanceHandler interface {
	Submit(w http.ResponseWriter, r *http.Request)
	CSRFToken(w http.ResponseWriter, r *http.Request)
	Today(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
	csrf              *csrf.Tokens
	location          *time.Location
	now               func() time.Time
}

// NewAttendanceHandler evaluates every request at the current time in loc.
func NewAttendanceHandler(attendanceService attendance.AttendanceService, tokens *csrf.Tokens, loc *time.Location) AttendanceHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
		csrf:              tokens,
		location:          loc,
		now:               time.Now,
	}
}

func (h *attendanceHandlerImpl) requestContext(r *http.Request) (attendance.RequestContext, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return attendance.RequestContext{}, false
	}
	return attendance.RequestContext{
		EmployeeID: claims.EmployeeID,
		UserID:     claims.UserID,
		Role:       claims.Role,
		Now:        h.now().In(h.location),
	}, true
}

// Submit implements AttendanceHandler. The action field of the body selects
// check-in or check-out.
func (h *attendanceHandlerImpl) Submit(w http.ResponseWriter, r *http.Request) {
	rc, ok := h.requestContext(r)
	if !ok {
		response.HandleError(w, r, attendance.ErrUnauthorized)
		return
	}

	claims, _ := middleware.ClaimsFromContext(r.Context())
	if err := h.csrf.Verify(claims.SessionID, r.Header.Get(csrf.HeaderName)); err != nil {
		response.HandleError(w, r, attendance.ErrCSRFInvalid)
		return
	}
	rc.CSRFVerified = true

	var req attendance.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		response.HandleError(w, r, errors.Join(attendance.ErrInvalidInput, err))
		return
	}

	switch req.Action {
	case attendance.ActionCheckIn:
		res, err := h.attendanceService.CheckIn(r.Context(), rc, req)
		if err != nil {
			response.HandleError(w, r, err)
			return
		}
		response.Success(w, res)
	case attendance.ActionCheckOut:
		res, err := h.attendanceService.CheckOut(r.Context(), rc, req)
		if err != nil {
			response.HandleError(w, r, err)
			return
		}
		response.Success(w, res)
	default:
		response.HandleError(w, r, req.Validate())
	}
}

type csrfTokenResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"csrf_token"`
	Header  string `json:"header"`
}

// CSRFToken implements AttendanceHandler.
func (h *attendanceHandlerImpl) CSRFToken(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.HandleError(w, r, attendance.ErrUnauthorized)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	response.Success(w, csrfTokenResponse{
		Success: true,
		Token:   h.csrf.Issue(claims.SessionID),
		Header:  csrf.HeaderName,
	})
}

// Today implements AttendanceHandler.
func (h *attendanceHandlerImpl) Today(w http.ResponseWriter, r *http.Request) {
	rc, ok := h.requestContext(r)
	if !ok {
		response.HandleError(w, r, attendance.ErrUnauthorized)
		return
	}

	res, err := h.attendanceService.Today(r.Context(), rc)
	if err != nil {
		response.HandleError(w, r, err)
		return
	}
	response.Success(w, res)
}
