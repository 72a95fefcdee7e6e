package schedule

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Keys of the string-keyed system_settings table.
const (
	KeyAttendanceMode                = "attendance_mode"
	KeyWorkStartTime                 = "work_start_time"
	KeyWorkEndTime                   = "work_end_time"
	KeyGracePeriodMinutes            = "grace_period_minutes"
	KeyWorkingDays                   = "working_days"
	KeyStrictTimeWindows             = "strict_time_windows"
	KeyLatePenaltyRate               = "late_penalty_rate"
	KeyOvertimeBonusRate             = "overtime_bonus_rate"
	KeyEarlyCheckInMinutes           = "early_checkin_minutes"
	KeyCheckInWindowAfterMinutes     = "checkin_window_after_minutes"
	KeyCheckOutWindowMinutes         = "checkout_window_minutes"
	KeyMinWorkingHours               = "min_working_hours"
	KeyMaxWorkingHours               = "max_working_hours"
	KeyGeofenceToleranceMeters       = "geofence_tolerance_meters"
	KeyGPSAccuracyCapMeters          = "gps_accuracy_cap_meters"
	KeyOvertimeBonusThresholdMinutes = "overtime_bonus_threshold_minutes"
	KeyRemoteCheckInAllowed          = "remote_checkin_allowed"
	KeyLateCheckoutAllowed           = "late_checkout_allowed"
	KeyAnomalyAlertThreshold         = "anomaly_alert_threshold"
)

// AttendanceSettings is the typed view of the global attendance settings.
type AttendanceSettings struct {
	DefaultMode                   AttendanceMode
	WorkStart                     TimeOfDay
	WorkEnd                       TimeOfDay
	GracePeriodMinutes            int
	WorkingDays                   WorkingDays
	StrictTimeWindows             bool
	LatePenaltyRate               decimal.Decimal
	OvertimeBonusRate             decimal.Decimal
	EarlyCheckInMinutes           int
	CheckInWindowAfterMinutes     int
	CheckOutWindowMinutes         int
	MinWorkingHours               float64
	MaxWorkingHours               float64
	GeofenceToleranceMeters       float64
	GPSAccuracyCapMeters          float64
	OvertimeBonusThresholdMinutes int
	RemoteCheckInAllowed          bool
	LateCheckoutAllowed           bool
	AnomalyAlertThreshold         int
}

func DefaultSettings() AttendanceSettings {
	return AttendanceSettings{
		DefaultMode:                   ModeTimeAndLocation,
		WorkStart:                     TimeOfDay{Hour: 8},
		WorkEnd:                       TimeOfDay{Hour: 17},
		GracePeriodMinutes:            15,
		WorkingDays:                   AllDays,
		StrictTimeWindows:             true,
		LatePenaltyRate:               decimal.RequireFromString("0.5"),
		OvertimeBonusRate:             decimal.RequireFromString("0.25"),
		EarlyCheckInMinutes:           60,
		CheckInWindowAfterMinutes:     60,
		CheckOutWindowMinutes:         60,
		GeofenceToleranceMeters:       20,
		GPSAccuracyCapMeters:          5,
		OvertimeBonusThresholdMinutes: 15,
		AnomalyAlertThreshold:         50,
	}
}

// ParseSettings converts raw setting rows into AttendanceSettings. Missing keys keep
// their defaults; keys holding unreadable values keep their defaults and are returned
// in invalid so the caller can log them.
func ParseSettings(raw map[string]string) (s AttendanceSettings, invalid []string) {
	s = DefaultSettings()

	get := func(key string) (string, bool) {
		v, ok := raw[key]
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
	bad := func(key string) { invalid = append(invalid, key) }

	if v, ok := get(KeyAttendanceMode); ok {
		if m, ok := ParseAttendanceMode(v); ok {
			s.DefaultMode = m
		} else {
			bad(KeyAttendanceMode)
		}
	}
	if v, ok := get(KeyWorkStartTime); ok {
		if t, err := ParseTimeOfDay(v); err == nil {
			s.WorkStart = t
		} else {
			bad(KeyWorkStartTime)
		}
	}
	if v, ok := get(KeyWorkEndTime); ok {
		if t, err := ParseTimeOfDay(v); err == nil {
			s.WorkEnd = t
		} else {
			bad(KeyWorkEndTime)
		}
	}
	if v, ok := get(KeyWorkingDays); ok {
		s.WorkingDays = ParseWorkingDays(v)
	}

	ints := []struct {
		key string
		dst *int
	}{
		{KeyGracePeriodMinutes, &s.GracePeriodMinutes},
		{KeyEarlyCheckInMinutes, &s.EarlyCheckInMinutes},
		{KeyCheckInWindowAfterMinutes, &s.CheckInWindowAfterMinutes},
		{KeyCheckOutWindowMinutes, &s.CheckOutWindowMinutes},
		{KeyOvertimeBonusThresholdMinutes, &s.OvertimeBonusThresholdMinutes},
		{KeyAnomalyAlertThreshold, &s.AnomalyAlertThreshold},
	}
	for _, f := range ints {
		if v, ok := get(f.key); ok {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				bad(f.key)
				continue
			}
			*f.dst = n
		}
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{KeyMinWorkingHours, &s.MinWorkingHours},
		{KeyMaxWorkingHours, &s.MaxWorkingHours},
		{KeyGeofenceToleranceMeters, &s.GeofenceToleranceMeters},
		{KeyGPSAccuracyCapMeters, &s.GPSAccuracyCapMeters},
	}
	for _, f := range floats {
		if v, ok := get(f.key); ok {
			n, err := strconv.ParseFloat(v, 64)
			if err != nil || n < 0 {
				bad(f.key)
				continue
			}
			*f.dst = n
		}
	}

	decimals := []struct {
		key string
		dst *decimal.Decimal
	}{
		{KeyLatePenaltyRate, &s.LatePenaltyRate},
		{KeyOvertimeBonusRate, &s.OvertimeBonusRate},
	}
	for _, f := range decimals {
		if v, ok := get(f.key); ok {
			d, err := decimal.NewFromString(v)
			if err != nil || d.IsNegative() {
				bad(f.key)
				continue
			}
			*f.dst = d
		}
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{KeyStrictTimeWindows, &s.StrictTimeWindows},
		{KeyRemoteCheckInAllowed, &s.RemoteCheckInAllowed},
		{KeyLateCheckoutAllowed, &s.LateCheckoutAllowed},
	}
	for _, f := range bools {
		if v, ok := get(f.key); ok {
			b, ok := ParseFlag(v)
			if !ok {
				bad(f.key)
				continue
			}
			*f.dst = b
		}
	}

	return s, invalid
}

// ParseFlag translates the stored flag strings into a bool.
func ParseFlag(v string) (value bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "on":
		return true, true
	case "false", "0", "no", "off":
		return false, true
	}
	return false, false
}
