package geofence

import (
	"math"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/master/branch"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/geo"
)

// Match is a branch together with its distance from the probed point.
type Match struct {
	Branch         branch.Branch
	DistanceMeters float64
}

// FindNearest returns the closest active branch with known coordinates.
// Ties keep the branch that appears first in branches.
func FindNearest(point geo.Point, branches []branch.Branch) (Match, bool) {
	var (
		best  Match
		found bool
	)
	for _, b := range branches {
		if !b.IsActive {
			continue
		}
		c := b.Coordinate()
		if c == nil {
			continue
		}
		d := geo.Distance(point, *c)
		if !found || d < best.DistanceMeters {
			best = Match{Branch: b, DistanceMeters: d}
			found = true
		}
	}
	return best, found
}

// Policy holds the global geofence allowances.
type Policy struct {
	ToleranceMeters   float64
	AccuracyCapMeters float64
}

// AllowedDistance is the tolerance, or radiusOverride when positive, plus the
// reported GPS accuracy clamped to [0, AccuracyCapMeters].
func (p Policy) AllowedDistance(radiusOverride int, accuracy *float64) float64 {
	allowed := p.ToleranceMeters
	if radiusOverride > 0 {
		allowed = float64(radiusOverride)
	}
	if accuracy != nil && !math.IsNaN(*accuracy) {
		allowed += math.Min(math.Max(*accuracy, 0), p.AccuracyCapMeters)
	}
	return allowed
}

// Decision is the outcome of an enforced geofence check.
type Decision struct {
	// Skipped is true when no candidate branch has coordinates.
	Skipped        bool
	Branch         *branch.Branch
	DistanceMeters *float64
	AllowedMeters  float64
}

// Evaluate checks point against the candidate branches. When every candidate lacks
// coordinates the check is skipped rather than blocking attendance. Otherwise the
// nearest branch must lie within the allowed distance and becomes the record's branch.
func (p Policy) Evaluate(point geo.Point, candidates []branch.Branch, radiusOverride int, accuracy *float64) (Decision, error) {
	allowed := p.AllowedDistance(radiusOverride, accuracy)

	nearest, ok := FindNearest(point, candidates)
	if !ok {
		return Decision{Skipped: true, AllowedMeters: allowed}, nil
	}

	if centimeters(nearest.DistanceMeters) > centimeters(allowed) {
		return Decision{}, attendance.NewPolicyError(attendance.ErrOutOfGeofence, map[string]any{
			"distance":       roundMeters(nearest.DistanceMeters),
			"max_distance":   roundMeters(allowed),
			"nearest_branch": nearest.Branch.Name,
		})
	}

	b := nearest.Branch
	d := nearest.DistanceMeters
	return Decision{Branch: &b, DistanceMeters: &d, AllowedMeters: allowed}, nil
}

func centimeters(m float64) int64 {
	return int64(math.Round(m * 100))
}

func roundMeters(m float64) float64 {
	return math.Round(m*100) / 100
}
