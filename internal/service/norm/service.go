package norm

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shiftlab/wfm-backend-go/internal/domain/daytype"
	"github.com/shiftlab/wfm-backend-go/internal/domain/employment"
	"github.com/shiftlab/wfm-backend-go/internal/domain/network"
	"github.com/shiftlab/wfm-backend-go/internal/domain/workerday"
	calendarsvc "github.com/shiftlab/wfm-backend-go/internal/service/calendar"
)

var (
	forty   = decimal.NewFromInt(40)
	hundred = decimal.NewFromInt(100)
)

// Service computes per-month and per-accounting-period norms, SAWH targets
// and overtime. Outputs are pure functions of the calendar, the plan/fact
// store, the employment table and the SAWH catalog.
type Service struct {
	calendar    *calendarsvc.Service
	wdays       workerday.Repository
	employments employment.Repository
	shops       employment.ShopRepository
	networks    network.Repository
	registry    *daytype.Registry
}

func NewService(
	cal *calendarsvc.Service,
	wdays workerday.Repository,
	employments employment.Repository,
	shops employment.ShopRepository,
	networks network.Repository,
	registry *daytype.Registry,
) *Service {
	return &Service{
		calendar:    cal,
		wdays:       wdays,
		employments: employments,
		shops:       shops,
		networks:    networks,
		registry:    registry,
	}
}

// MonthNorm is the employee's norm for (year, month): the production
// calendar sum scaled by employment rate and weekly hours, minus the
// reduction for norm-reducing dayoff types.
func (s *Service) MonthNorm(ctx context.Context, employeeID string, year int, month time.Month) (decimal.Decimal, error) {
	base, err := s.baseMonthNorm(ctx, employeeID, year, month)
	if err != nil {
		return decimal.Zero, err
	}
	reduction, err := s.monthReduction(ctx, employeeID, year, month)
	if err != nil {
		return decimal.Zero, err
	}
	norm := base.Sub(reduction)
	if norm.IsNegative() {
		return decimal.Zero, nil
	}
	return norm, nil
}

// baseMonthNorm resolves overlapping employments into disjoint per-date
// sub-intervals: each date contributes through exactly one employment,
// chosen by the priority rule.
func (s *Service) baseMonthNorm(ctx context.Context, employeeID string, year int, month time.Month) (decimal.Decimal, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)

	emps, err := s.employments.ListActiveInRange(ctx, []string{employeeID}, from, to)
	if err != nil {
		return decimal.Zero, fmt.Errorf("list employments: %w", err)
	}
	if len(emps) == 0 {
		return decimal.Zero, nil
	}

	sum := decimal.Zero
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		emp := employment.Resolve(emps, nil, "", d)
		if emp == nil {
			continue
		}
		dayNorm, err := s.dayNorm(ctx, *emp, d)
		if err != nil {
			return decimal.Zero, err
		}
		sum = sum.Add(dayNorm)
	}
	return sum, nil
}

// dayNorm is one date's contribution under one employment.
func (s *Service) dayNorm(ctx context.Context, emp employment.Employment, date time.Time) (decimal.Decimal, error) {
	shop, err := s.shops.GetShop(ctx, emp.ShopID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("get shop %s: %w", emp.ShopID, err)
	}
	day, err := s.calendar.Day(ctx, shop.RegionID, date)
	if err != nil {
		return decimal.Zero, err
	}
	return s.scale(ctx, emp, day.NormHours)
}

// scale applies the employment rate and the position's weekly hours ratio.
func (s *Service) scale(ctx context.Context, emp employment.Employment, hours decimal.Decimal) (decimal.Decimal, error) {
	rate := decimal.NewFromFloat(emp.NormWorkHours).Div(hundred)
	weekRatio := decimal.NewFromInt(1)
	if emp.PositionID != nil {
		pos, err := s.shops.GetPosition(ctx, *emp.PositionID)
		if err != nil {
			return decimal.Zero, fmt.Errorf("get position %s: %w", *emp.PositionID, err)
		}
		if pos.HoursInAWeek > 0 {
			weekRatio = decimal.NewFromFloat(pos.HoursInAWeek).Div(forty)
		}
	}
	return hours.Mul(rate).Mul(weekRatio), nil
}

// monthReduction subtracts norm-reducing dayoff days (vacation, sick...)
// using the network's algorithm: the exact per-day calendar figure, or the
// flat month mean.
func (s *Service) monthReduction(ctx context.Context, employeeID string, year int, month time.Month) (decimal.Decimal, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)

	approved := true
	isFact := false
	days, err := s.wdays.ListRange(ctx, []string{employeeID}, from, to, &isFact, &approved)
	if err != nil {
		return decimal.Zero, fmt.Errorf("list plan days: %w", err)
	}

	emps, err := s.employments.ListActiveInRange(ctx, []string{employeeID}, from, to)
	if err != nil {
		return decimal.Zero, fmt.Errorf("list employments: %w", err)
	}
	if len(emps) == 0 {
		return decimal.Zero, nil
	}

	var settings network.Settings
	net, err := s.networks.GetByID(ctx, emps[0].NetworkID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("get network: %w", err)
	}
	settings = net.Settings

	reduction := decimal.Zero
	for _, wd := range days {
		dt, ok := s.registry.Get(wd.Type)
		if !ok || !dt.IsReducingNormHours {
			continue
		}
		emp := employment.Resolve(emps, wd.EmploymentID, "", wd.Date)
		if emp == nil {
			continue
		}
		var figure decimal.Decimal
		switch settings.NormReductionAlg {
		case network.ReductionMean:
			figure, err = s.monthMean(ctx, *emp, year, month)
		default:
			figure, err = s.dayNorm(ctx, *emp, wd.Date)
		}
		if err != nil {
			return decimal.Zero, err
		}
		reduction = reduction.Add(figure)
	}
	return reduction, nil
}

// monthMean is the month's scaled norm divided by its workdays.
func (s *Service) monthMean(ctx context.Context, emp employment.Employment, year int, month time.Month) (decimal.Decimal, error) {
	shop, err := s.shops.GetShop(ctx, emp.ShopID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("get shop %s: %w", emp.ShopID, err)
	}
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)
	days, err := s.calendar.DaysInRange(ctx, shop.RegionID, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	sum := decimal.Zero
	workdays := 0
	for _, d := range days {
		if d.NormHours.IsPositive() {
			workdays++
		}
		sum = sum.Add(d.NormHours)
	}
	if workdays == 0 {
		return decimal.Zero, nil
	}
	mean := sum.Div(decimal.NewFromInt(int64(workdays)))
	return s.scale(ctx, emp, mean)
}

// FactHours sums approved fact hours over [from, to].
func (s *Service) FactHours(ctx context.Context, employeeID string, from, to time.Time) (decimal.Decimal, error) {
	approved := true
	isFact := true
	days, err := s.wdays.ListRange(ctx, []string{employeeID}, from, to, &isFact, &approved)
	if err != nil {
		return decimal.Zero, fmt.Errorf("list fact days: %w", err)
	}
	sum := decimal.Zero
	for _, wd := range days {
		sum = sum.Add(wd.TotalHours())
	}
	return sum, nil
}

// Overtime is fact hours minus norm hours over whole months [from, to].
func (s *Service) Overtime(ctx context.Context, employeeID string, fromYear int, fromMonth time.Month, toYear int, toMonth time.Month) (decimal.Decimal, error) {
	norm := decimal.Zero
	for y, m := fromYear, fromMonth; y < toYear || (y == toYear && m <= toMonth); y, m = nextMonth(y, m) {
		n, err := s.MonthNorm(ctx, employeeID, y, m)
		if err != nil {
			return decimal.Zero, err
		}
		norm = norm.Add(n)
	}
	from := time.Date(fromYear, fromMonth, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(toYear, toMonth, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1)
	fact, err := s.FactHours(ctx, employeeID, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	return fact.Sub(norm), nil
}

func nextMonth(y int, m time.Month) (int, time.Month) {
	if m == time.December {
		return y + 1, time.January
	}
	return y, m + 1
}
