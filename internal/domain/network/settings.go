package network

import (
	"encoding/json"
	"fmt"
	"time"
)

// Norm reduction algorithms (exact per-day figure vs flat month mean).
const (
	ReductionExact = "exact"
	ReductionMean  = "mean"
)

// rawSettings mirrors the settings_values JSON column. Durations are given
// in seconds or minutes as named; Settings converts them to typed values
// once at decode time.
type rawSettings struct {
	CropTabelByShopSchedule      *bool       `json:"crop_tabel_by_shop_schedule"`
	AllowedLateArrivalMinutes    int         `json:"allowed_late_arrival_minutes"`
	AllowedEarlyDepartureMinutes int         `json:"allowed_early_departure_minutes"`
	AllowedEarlyArrivalMinutes   int         `json:"allowed_early_arrival_minutes"`
	AllowedLateDepartureMinutes  int         `json:"allowed_late_departure_minutes"`
	MaxShiftSeconds              int         `json:"max_shift_seconds"`
	MaxPlanDiffSeconds           int         `json:"max_plan_diff_seconds"`
	SkipLeavingTick              bool        `json:"skip_leaving_tick"`
	ForbidTicksWithoutEmployment bool        `json:"forbid_ticks_without_employment"`
	NightStart                   string      `json:"night_start"`
	NightEnd                     string      `json:"night_end"`
	RoundStepMinutes             int         `json:"round_step_minutes"`
	AccountingPeriodMonths       int         `json:"accounting_period_months"`
	NormReductionAlg             string      `json:"norm_reduction_alg"`
	CorrectSawhLastMonth         bool        `json:"correct_sawh_last_month"`
	AllowMultipleWdays           bool        `json:"allow_multiple_wdays"`
	PrevMonthRecalcDays          int         `json:"prev_month_recalc_days"`
	TimesheetDivider             string      `json:"timesheet_divider"`
	Breaks                       []BreakRule `json:"breaks"`
}

// Settings is the decoded, typed network policy. Decoded once at load;
// per-request re-decoding is forbidden.
type Settings struct {
	CropTabelByShopSchedule bool

	AllowedLateArrival    time.Duration
	AllowedEarlyDeparture time.Duration
	AllowedEarlyArrival   time.Duration
	AllowedLateDeparture  time.Duration

	MaxShift    time.Duration
	MaxPlanDiff time.Duration

	SkipLeavingTick              bool
	ForbidTicksWithoutEmployment bool

	NightStart Clock
	NightEnd   Clock

	RoundStep time.Duration

	AccountingPeriodMonths int
	NormReductionAlg       string
	CorrectSawhLastMonth   bool
	AllowMultipleWdays     bool
	PrevMonthRecalcDays    int
	TimesheetDivider       string

	Breaks []BreakRule
}

// DefaultSettings are applied for absent fields.
func DefaultSettings() Settings {
	return Settings{
		CropTabelByShopSchedule: true,
		MaxShift:                16 * time.Hour,
		MaxPlanDiff:             4 * time.Hour,
		NightStart:              ClockOf(22, 0),
		NightEnd:                ClockOf(6, 0),
		AccountingPeriodMonths:  1,
		NormReductionAlg:        ReductionExact,
		PrevMonthRecalcDays:     5,
		TimesheetDivider:        "default",
	}
}

// DecodeSettings parses the settings_values JSON into typed Settings.
func DecodeSettings(raw []byte) (Settings, error) {
	s := DefaultSettings()
	if len(raw) == 0 {
		return s, nil
	}
	var rs rawSettings
	if err := json.Unmarshal(raw, &rs); err != nil {
		return Settings{}, fmt.Errorf("decode network settings: %w", err)
	}
	if rs.CropTabelByShopSchedule != nil {
		s.CropTabelByShopSchedule = *rs.CropTabelByShopSchedule
	}
	s.AllowedLateArrival = time.Duration(rs.AllowedLateArrivalMinutes) * time.Minute
	s.AllowedEarlyDeparture = time.Duration(rs.AllowedEarlyDepartureMinutes) * time.Minute
	s.AllowedEarlyArrival = time.Duration(rs.AllowedEarlyArrivalMinutes) * time.Minute
	s.AllowedLateDeparture = time.Duration(rs.AllowedLateDepartureMinutes) * time.Minute
	if rs.MaxShiftSeconds > 0 {
		s.MaxShift = time.Duration(rs.MaxShiftSeconds) * time.Second
	}
	if rs.MaxPlanDiffSeconds > 0 {
		s.MaxPlanDiff = time.Duration(rs.MaxPlanDiffSeconds) * time.Second
	}
	s.SkipLeavingTick = rs.SkipLeavingTick
	s.ForbidTicksWithoutEmployment = rs.ForbidTicksWithoutEmployment
	if rs.NightStart != "" {
		c, err := parseClock(rs.NightStart)
		if err != nil {
			return Settings{}, fmt.Errorf("night_start: %w", err)
		}
		s.NightStart = c
	}
	if rs.NightEnd != "" {
		c, err := parseClock(rs.NightEnd)
		if err != nil {
			return Settings{}, fmt.Errorf("night_end: %w", err)
		}
		s.NightEnd = c
	}
	s.RoundStep = time.Duration(rs.RoundStepMinutes) * time.Minute
	if rs.AccountingPeriodMonths > 0 {
		s.AccountingPeriodMonths = rs.AccountingPeriodMonths
	}
	switch rs.NormReductionAlg {
	case "":
	case ReductionExact, ReductionMean:
		s.NormReductionAlg = rs.NormReductionAlg
	default:
		return Settings{}, fmt.Errorf("unknown norm_reduction_alg %q", rs.NormReductionAlg)
	}
	s.CorrectSawhLastMonth = rs.CorrectSawhLastMonth
	s.AllowMultipleWdays = rs.AllowMultipleWdays
	if rs.PrevMonthRecalcDays > 0 {
		s.PrevMonthRecalcDays = rs.PrevMonthRecalcDays
	}
	if rs.TimesheetDivider != "" {
		s.TimesheetDivider = rs.TimesheetDivider
	}
	if len(rs.Breaks) > 0 {
		if err := ValidateBreaks(rs.Breaks); err != nil {
			return Settings{}, err
		}
		s.Breaks = rs.Breaks
	}
	switch s.AccountingPeriodMonths {
	case 1, 3, 6, 12:
	default:
		return Settings{}, fmt.Errorf("accounting_period_months must be 1, 3, 6 or 12, got %d", s.AccountingPeriodMonths)
	}
	return s, nil
}

func parseClock(v string) (Clock, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q", v)
	}
	return ClockOf(t.Hour(), t.Minute()), nil
}

// AccountingPeriodStart returns the first month of the accounting period
// containing (year, month).
func (s Settings) AccountingPeriodStart(year int, month time.Month) (int, time.Month) {
	n := s.AccountingPeriodMonths
	idx := (int(month) - 1) / n * n
	return year, time.Month(idx + 1)
}
