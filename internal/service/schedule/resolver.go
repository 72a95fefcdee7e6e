package schedule

import (
	"context"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/schedule"
)

// Resolution is the effective schedule of one employee for one day, together
// with the global settings it was resolved against.
type Resolution struct {
	Schedule schedule.AttendanceSchedule
	Settings schedule.AttendanceSettings
}

type Resolver struct {
	personal schedule.PersonalScheduleRepository
	settings schedule.SettingsRepository
	logger   *slog.Logger
}

func NewResolver(personal schedule.PersonalScheduleRepository, settings schedule.SettingsRepository, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{personal: personal, settings: settings, logger: logger}
}

// Resolve never fails. Storage errors are logged and the built-in defaults are used.
func (r *Resolver) Resolve(ctx context.Context, emp employee.Employee, today time.Time) Resolution {
	settings := r.loadSettings(ctx)

	p, err := r.personal.GetActiveForEmployee(ctx, emp.ID, today)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to load personal schedule, using defaults",
			slog.Int64("employee_id", emp.ID), slog.Any("error", err))
		p = nil
	}

	if p != nil && p.ActiveOn(today) {
		return Resolution{Schedule: r.fromPersonal(ctx, *p, emp, settings), Settings: settings}
	}
	return Resolution{Schedule: fromSettings(settings, emp), Settings: settings}
}

func (r *Resolver) loadSettings(ctx context.Context) schedule.AttendanceSettings {
	raw, err := r.settings.GetAll(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to load system settings, using defaults", slog.Any("error", err))
		return schedule.DefaultSettings()
	}
	settings, invalid := schedule.ParseSettings(raw)
	if len(invalid) > 0 {
		r.logger.WarnContext(ctx, "ignoring unreadable system settings", slog.Any("keys", invalid))
	}
	return settings
}

func fromSettings(s schedule.AttendanceSettings, emp employee.Employee) schedule.AttendanceSchedule {
	return schedule.AttendanceSchedule{
		Source:               schedule.SourceDefault,
		Mode:                 s.DefaultMode,
		WorkStart:            s.WorkStart,
		WorkEnd:              s.WorkEnd,
		GracePeriodMinutes:   s.GracePeriodMinutes,
		WorkingDays:          s.WorkingDays,
		HomeBranchID:         emp.BranchID,
		RemoteCheckInAllowed: s.RemoteCheckInAllowed,
		MinWorkingHours:      s.MinWorkingHours,
		MaxWorkingHours:      s.MaxWorkingHours,
		EarlyCheckInMinutes:  s.EarlyCheckInMinutes,
		LateCheckoutAllowed:  s.LateCheckoutAllowed,
		LatePenaltyRate:      s.LatePenaltyRate,
		OvertimeBonusRate:    s.OvertimeBonusRate,
	}
}

// fromPersonal takes the override as stored. Columns that cannot be read fall
// back to the global value so the result is always usable.
func (r *Resolver) fromPersonal(ctx context.Context, p schedule.PersonalSchedule, emp employee.Employee, s schedule.AttendanceSettings) schedule.AttendanceSchedule {
	out := fromSettings(s, emp)
	out.Source = schedule.SourcePersonal
	out.EffectiveFrom = p.EffectiveFrom
	out.EffectiveUntil = p.EffectiveUntil

	log := r.logger.With(slog.Int64("employee_id", emp.ID), slog.Int64("schedule_id", p.ID))

	if mode, ok := schedule.ParseAttendanceMode(p.Mode); ok {
		out.Mode = mode
	} else {
		log.WarnContext(ctx, "unknown attendance mode on personal schedule", slog.String("mode", p.Mode))
	}
	if t, err := schedule.ParseTimeOfDay(p.WorkStartTime); err == nil {
		out.WorkStart = t
	} else {
		log.WarnContext(ctx, "unreadable work start on personal schedule", slog.Any("error", err))
	}
	if t, err := schedule.ParseTimeOfDay(p.WorkEndTime); err == nil {
		out.WorkEnd = t
	} else {
		log.WarnContext(ctx, "unreadable work end on personal schedule", slog.Any("error", err))
	}
	if p.GracePeriodMinutes >= 0 {
		out.GracePeriodMinutes = p.GracePeriodMinutes
	}

	out.WorkingDays = schedule.AllDays
	if p.WorkingDays != nil {
		out.WorkingDays = schedule.ParseWorkingDays(*p.WorkingDays)
	}
	if p.AllowedBranches != nil {
		out.Branches = schedule.ParseBranchSelection(*p.AllowedBranches)
	}
	if p.GeofenceRadiusMeters != nil {
		out.GeofenceRadiusMeters = *p.GeofenceRadiusMeters
	}

	out.RemoteCheckInAllowed = p.RemoteCheckInAllowed
	out.LateCheckoutAllowed = p.LateCheckoutAllowed
	if p.MinWorkingHours != nil {
		out.MinWorkingHours = *p.MinWorkingHours
	}
	if p.MaxWorkingHours != nil {
		out.MaxWorkingHours = *p.MaxWorkingHours
	}
	if p.EarlyCheckInMinutes != nil && *p.EarlyCheckInMinutes >= 0 {
		out.EarlyCheckInMinutes = *p.EarlyCheckInMinutes
	}
	if !p.LatePenaltyRate.IsNegative() {
		out.LatePenaltyRate = p.LatePenaltyRate
	}
	if !p.OvertimeBonusRate.IsNegative() {
		out.OvertimeBonusRate = p.OvertimeBonusRate
	}
	return out
}
