package attendance

import (
	"context"
	"time"
)

// RequestContext is the caller identity and moment of one attendance action.
type RequestContext struct {
	EmployeeID   int64
	UserID       int64
	Role         string
	Now          time.Time
	CSRFVerified bool
}

type AttendanceService interface {
	CheckIn(ctx context.Context, rc RequestContext, req Request) (CheckInResponse, error)
	CheckOut(ctx context.Context, rc RequestContext, req Request) (CheckOutResponse, error)
	Today(ctx context.Context, rc RequestContext) (TodayResponse, error)
}
