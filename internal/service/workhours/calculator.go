package workhours

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shiftlab/wfm-backend-go/internal/domain/daytype"
	"github.com/shiftlab/wfm-backend-go/internal/domain/network"
	"github.com/shiftlab/wfm-backend-go/internal/domain/schedule"
)

// Input describes one shift for the calculator. PlanStart/PlanEnd are the
// approved plan anchor for slack windows; Schedule is the shop schedule of
// the day (nil when unknown).
type Input struct {
	Start   time.Time
	End     time.Time
	DayType daytype.DayType

	// WorkHours is the authored figure used verbatim for dayoff types with
	// is_work_hours set.
	WorkHours decimal.Decimal

	PlanStart *time.Time
	PlanEnd   *time.Time

	Schedule          *schedule.ShopScheduleDay
	ShopRoundTheClock bool

	Settings network.Settings
}

// Result is the computed tabel interval and hour split.
type Result struct {
	TabelStart   time.Time
	TabelEnd     time.Time
	BreakMinutes int
	Total        decimal.Decimal
	Day          decimal.Decimal
	Night        decimal.Decimal
}

// Calculate computes net hours and the day/night split for one shift.
func Calculate(in Input) (Result, error) {
	if in.DayType.IsDayoff && in.DayType.IsWorkHours {
		// Authored hours pass through; the whole figure counts as day.
		return Result{Total: in.WorkHours, Day: in.WorkHours, Night: decimal.Zero}, nil
	}
	if in.End.Before(in.Start) {
		return Result{}, fmt.Errorf("shift end %s precedes start %s", in.End, in.Start)
	}

	tabelStart, tabelEnd := in.Start, in.End

	// Crop by shop schedule, unless the shop runs round the clock or the
	// schedule marks the day a holiday.
	if in.Settings.CropTabelByShopSchedule && !in.ShopRoundTheClock &&
		in.Schedule != nil && !in.Schedule.IsHoliday() {
		open := in.Schedule.Open.At(in.Schedule.Date)
		close := in.Schedule.Close.At(in.Schedule.Date)
		if !close.After(open) {
			// Overnight shop: close belongs to the next day.
			close = close.AddDate(0, 0, 1)
		}
		if tabelStart.Before(open) {
			tabelStart = open
		}
		if tabelEnd.After(close) {
			tabelEnd = close
		}
		if tabelEnd.Before(tabelStart) {
			tabelEnd = tabelStart
		}
	}

	// Slack windows, each applied independently on its favorable side.
	if in.PlanStart != nil {
		plan := *in.PlanStart
		switch {
		case tabelStart.After(plan):
			if tabelStart.Sub(plan) <= in.Settings.AllowedLateArrival {
				tabelStart = plan
			}
		case tabelStart.Before(plan):
			if plan.Sub(tabelStart) <= in.Settings.AllowedEarlyArrival {
				tabelStart = plan
			}
		}
	}
	if in.PlanEnd != nil {
		plan := *in.PlanEnd
		switch {
		case tabelEnd.Before(plan):
			if plan.Sub(tabelEnd) <= in.Settings.AllowedEarlyDeparture {
				tabelEnd = plan
			}
		case tabelEnd.After(plan):
			if tabelEnd.Sub(plan) <= in.Settings.AllowedLateDeparture {
				tabelEnd = plan
			}
		}
	}

	spanMinutes := int(tabelEnd.Sub(tabelStart) / time.Minute)
	if spanMinutes <= 0 {
		return Result{TabelStart: tabelStart, TabelEnd: tabelEnd,
			Total: decimal.Zero, Day: decimal.Zero, Night: decimal.Zero}, nil
	}

	breakMinutes := in.Settings.TotalBreakMinutes(spanMinutes)
	if breakMinutes > spanMinutes {
		breakMinutes = spanMinutes
	}

	nightMinutes := nightOverlapMinutes(tabelStart, tabelEnd, in.Settings.NightStart, in.Settings.NightEnd)
	dayMinutes := spanMinutes - nightMinutes

	// Breaks come out of the day part first and spill into night.
	dayMinutes -= breakMinutes
	if dayMinutes < 0 {
		nightMinutes += dayMinutes
		dayMinutes = 0
		if nightMinutes < 0 {
			nightMinutes = 0
		}
	}

	if step := int(in.Settings.RoundStep / time.Minute); step > 0 {
		dayMinutes = roundToStep(dayMinutes, step)
		nightMinutes = roundToStep(nightMinutes, step)
	}

	day := minutesToHours(dayMinutes)
	night := minutesToHours(nightMinutes)
	return Result{
		TabelStart:   tabelStart,
		TabelEnd:     tabelEnd,
		BreakMinutes: breakMinutes,
		Total:        day.Add(night),
		Day:          day,
		Night:        night,
	}, nil
}

// nightOverlapMinutes sums the overlap of [start, end) with the nightly
// windows [nightStart, 24:00) and [00:00, nightEnd) of every day the shift
// touches.
func nightOverlapMinutes(start, end time.Time, nightStart, nightEnd network.Clock) int {
	total := 0
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	for !day.After(end) {
		eveFrom := nightStart.At(day)
		eveTo := day.AddDate(0, 0, 1)
		total += overlapMinutes(start, end, eveFrom, eveTo)

		mornFrom := day
		mornTo := nightEnd.At(day)
		total += overlapMinutes(start, end, mornFrom, mornTo)

		day = day.AddDate(0, 0, 1)
	}
	return total
}

func overlapMinutes(aFrom, aTo, bFrom, bTo time.Time) int {
	from := aFrom
	if bFrom.After(from) {
		from = bFrom
	}
	to := aTo
	if bTo.Before(to) {
		to = bTo
	}
	if !to.After(from) {
		return 0
	}
	return int(to.Sub(from) / time.Minute)
}

func roundToStep(minutes, step int) int {
	return (minutes + step/2) / step * step
}

func minutesToHours(minutes int) decimal.Decimal {
	return decimal.NewFromInt(int64(minutes)).Div(decimal.NewFromInt(60))
}
