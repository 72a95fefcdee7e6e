package anomaly

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/anomaly"
	"github.com/google/uuid"
)

// Reasons contributing to a score.
const (
	ReasonAccuracyMissing        = "accuracy_missing"
	ReasonAccuracyZero           = "accuracy_zero"
	ReasonAccuracyTooPrecise     = "accuracy_too_precise"
	ReasonAccuracyPoor           = "accuracy_poor"
	ReasonCoordinateRounded      = "coordinate_rounded"
	ReasonAutoWithoutDetection   = "auto_without_detection"
	ReasonDetectedBranchMismatch = "detected_branch_mismatch"
	ReasonNearGeofenceEdge       = "near_geofence_edge"
	ReasonFarFromHomeBranch      = "far_from_home_branch"
)

var weights = map[string]int{
	ReasonAccuracyMissing:        10,
	ReasonAccuracyZero:           30,
	ReasonAccuracyTooPrecise:     15,
	ReasonAccuracyPoor:           10,
	ReasonCoordinateRounded:      20,
	ReasonAutoWithoutDetection:   15,
	ReasonDetectedBranchMismatch: 25,
	ReasonNearGeofenceEdge:       10,
	ReasonFarFromHomeBranch:      20,
}

const (
	poorAccuracyMeters   = 100
	farFromHomeMeters    = 100_000
	geofenceEdgeFraction = 0.9
)

type Assessment struct {
	Score   int
	Reasons []string
}

// Score rates how likely the signals come from a spoofed location, 0 to 100.
func Score(s anomaly.Signals) Assessment {
	var reasons []string

	switch {
	case s.Accuracy == nil:
		reasons = append(reasons, ReasonAccuracyMissing)
	case *s.Accuracy == 0:
		reasons = append(reasons, ReasonAccuracyZero)
	case *s.Accuracy < 1:
		reasons = append(reasons, ReasonAccuracyTooPrecise)
	case *s.Accuracy > poorAccuracyMeters:
		reasons = append(reasons, ReasonAccuracyPoor)
	}

	if decimals(s.Point.Latitude) <= 3 && decimals(s.Point.Longitude) <= 3 {
		reasons = append(reasons, ReasonCoordinateRounded)
	}

	if s.AutoCheckIn && s.DetectedBranchID == nil {
		reasons = append(reasons, ReasonAutoWithoutDetection)
	}
	if s.DetectedBranchID != nil && s.BranchID != nil && *s.DetectedBranchID != *s.BranchID {
		reasons = append(reasons, ReasonDetectedBranchMismatch)
	}

	if s.BranchDistanceMeters != nil && s.AllowedMeters > 0 &&
		*s.BranchDistanceMeters >= s.AllowedMeters*geofenceEdgeFraction {
		reasons = append(reasons, ReasonNearGeofenceEdge)
	}
	if s.HomeDistanceMeters != nil && *s.HomeDistanceMeters > farFromHomeMeters {
		reasons = append(reasons, ReasonFarFromHomeBranch)
	}

	score := 0
	for _, r := range reasons {
		score += weights[r]
	}
	if score > 100 {
		score = 100
	}
	return Assessment{Score: score, Reasons: reasons}
}

// decimals counts significant fractional digits up to 7.
func decimals(f float64) int {
	f = math.Abs(f)
	for n := 0; n < 7; n++ {
		scaled := f * math.Pow10(n)
		if math.Abs(scaled-math.Round(scaled)) < 1e-6 {
			return n
		}
	}
	return 7
}

type Scorer struct {
	repo      anomaly.Repository
	threshold int
	logger    *slog.Logger
}

func NewScorer(repo anomaly.Repository, threshold int, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{repo: repo, threshold: threshold, logger: logger}
}

// Evaluate scores the signals and stores an event when the score reaches the threshold.
func (s *Scorer) Evaluate(ctx context.Context, sig anomaly.Signals) (Assessment, error) {
	a := Score(sig)
	if a.Score < s.threshold {
		return a, nil
	}

	s.logger.WarnContext(ctx, "attendance anomaly detected",
		slog.Int64("employee_id", sig.EmployeeID),
		slog.Int64("attendance_id", sig.AttendanceID),
		slog.Int("score", a.Score),
		slog.Any("reasons", a.Reasons),
	)

	createdAt := sig.OccurredAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	event := anomaly.Event{
		ID:           uuid.New(),
		EmployeeID:   sig.EmployeeID,
		AttendanceID: sig.AttendanceID,
		Score:        a.Score,
		Reasons:      a.Reasons,
		Latitude:     sig.Point.Latitude,
		Longitude:    sig.Point.Longitude,
		Accuracy:     sig.Accuracy,
		CreatedAt:    createdAt,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return a, fmt.Errorf("store anomaly event: %w", err)
	}
	return a, nil
}
