package anomaly

import (
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/geo"
	"github.com/google/uuid"
)

// Signals are the device and sensor readings of one check-in.
type Signals struct {
	EmployeeID       int64
	AttendanceID     int64
	Point            geo.Point
	Accuracy         *float64
	AutoCheckIn      bool
	DetectedBranchID *int64

	// BranchID is the branch the record was attributed to.
	BranchID             *int64
	BranchDistanceMeters *float64
	AllowedMeters        float64

	HomeBranchID       *int64
	HomeDistanceMeters *float64

	OccurredAt time.Time
}

// Event is a stored high-score assessment.
type Event struct {
	ID           uuid.UUID
	EmployeeID   int64
	AttendanceID int64
	Score        int
	Reasons      []string
	Latitude     float64
	Longitude    float64
	Accuracy     *float64
	CreatedAt    time.Time
}
