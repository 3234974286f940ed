package norm

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shiftlab/wfm-backend-go/internal/domain/employment"
	"github.com/shiftlab/wfm-backend-go/internal/domain/network"
)

// SawhTarget is the summarized-accounting target for (employee, year,
// month): the month's share of the accounting period's total norm under
// the SAWH rule resolved by (shop, position).
func (s *Service) SawhTarget(ctx context.Context, employeeID string, year int, month time.Month) (decimal.Decimal, error) {
	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	emps, err := s.employments.ListActiveInRange(ctx, []string{employeeID}, monthStart, monthStart.AddDate(0, 1, -1))
	if err != nil {
		return decimal.Zero, fmt.Errorf("list employments: %w", err)
	}
	emp := employment.Resolve(emps, nil, "", monthStart)
	if emp == nil && len(emps) > 0 {
		emp = &emps[0]
	}
	if emp == nil {
		return decimal.Zero, nil
	}

	net, err := s.networks.GetByID(ctx, emp.NetworkID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("get network: %w", err)
	}
	rule, err := s.resolveRule(ctx, *emp, net)
	if err != nil {
		return decimal.Zero, err
	}

	periodYear, periodMonth := net.Settings.AccountingPeriodStart(year, month)
	months := periodMonths(periodYear, periodMonth, net.Settings.AccountingPeriodMonths)

	periodNorm := decimal.Zero
	monthNorms := make(map[time.Month]decimal.Decimal, len(months))
	for _, ym := range months {
		n, err := s.MonthNorm(ctx, employeeID, ym.year, ym.month)
		if err != nil {
			return decimal.Zero, err
		}
		monthNorms[ym.month] = n
		periodNorm = periodNorm.Add(n)
	}

	target, err := s.ruleTarget(ctx, employeeID, rule, months, monthNorms, periodNorm, year, month)
	if err != nil {
		return decimal.Zero, err
	}

	// Correct-last-month: the final month absorbs the residue so the
	// period's targets sum exactly to the period norm after actual work.
	last := months[len(months)-1]
	if net.Settings.CorrectSawhLastMonth && last.year == year && last.month == month {
		workedBefore := decimal.Zero
		for _, ym := range months[:len(months)-1] {
			from := time.Date(ym.year, ym.month, 1, 0, 0, 0, 0, time.UTC)
			fact, err := s.FactHours(ctx, employeeID, from, from.AddDate(0, 1, -1))
			if err != nil {
				return decimal.Zero, err
			}
			workedBefore = workedBefore.Add(fact)
		}
		target = periodNorm.Sub(workedBefore)
		if target.IsNegative() {
			target = decimal.Zero
		}
	}
	return target, nil
}

func (s *Service) resolveRule(ctx context.Context, emp employment.Employment, net network.Network) (*network.SawhSettings, error) {
	settings, err := s.networks.ListSawhSettings(ctx, net.ID)
	if err != nil {
		return nil, fmt.Errorf("list sawh settings: %w", err)
	}
	mappings, err := s.networks.ListSawhMappings(ctx, net.ID)
	if err != nil {
		return nil, fmt.Errorf("list sawh mappings: %w", err)
	}
	mapping := network.ResolveSawh(mappings, emp.ShopID, emp.PositionID)
	if mapping == nil {
		return nil, nil
	}
	for i := range settings {
		if settings[i].ID == mapping.SawhSettingsID {
			return &settings[i], nil
		}
	}
	return nil, network.ErrSawhNotFound
}

type yearMonth struct {
	year  int
	month time.Month
}

func periodMonths(year int, month time.Month, n int) []yearMonth {
	out := make([]yearMonth, 0, n)
	y, m := year, month
	for range n {
		out = append(out, yearMonth{y, m})
		y, m = nextMonth(y, m)
	}
	return out
}

// ruleTarget computes the uncorrected target of (year, month) under rule.
// A nil rule means no SAWH redistribution: the target is the month norm.
func (s *Service) ruleTarget(
	ctx context.Context,
	employeeID string,
	rule *network.SawhSettings,
	months []yearMonth,
	monthNorms map[time.Month]decimal.Decimal,
	periodNorm decimal.Decimal,
	year int,
	month time.Month,
) (decimal.Decimal, error) {
	if rule == nil {
		return monthNorms[month], nil
	}
	switch rule.Type {
	case network.SawhFixedHours:
		if h, ok := rule.WorkHoursByMonth[month]; ok {
			return h, nil
		}
		return monthNorms[month], nil

	case network.SawhShiftSchedule:
		// Bound to the approved plan: the target is the planned hours.
		from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		approved := true
		isFact := false
		days, err := s.wdays.ListRange(ctx, []string{employeeID}, from, from.AddDate(0, 1, -1), &isFact, &approved)
		if err != nil {
			return decimal.Zero, fmt.Errorf("list plan days: %w", err)
		}
		sum := decimal.Zero
		for _, wd := range days {
			sum = sum.Add(wd.TotalHours())
		}
		return sum, nil

	default: // SawhFractionOfProdcal
		// Weight each month by its coefficient times its norm, then give
		// this month its share of the period norm. Missing coefficients
		// default to 1, which degrades to plain proportionality.
		weightSum := decimal.Zero
		weights := make(map[time.Month]decimal.Decimal, len(months))
		for _, ym := range months {
			coeff := decimal.NewFromInt(1)
			if c, ok := rule.WorkHoursByMonth[ym.month]; ok {
				coeff = c
			}
			w := coeff.Mul(monthNorms[ym.month])
			weights[ym.month] = w
			weightSum = weightSum.Add(w)
		}
		if weightSum.IsZero() {
			return decimal.Zero, nil
		}
		return periodNorm.Mul(weights[month]).Div(weightSum), nil
	}
}
