package norm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Stat names are a small DSL of (base metric, period selector), e.g.
// "work_hours_curr_month" or "overtime_acc_period". No string formulas are
// evaluated; the pair is parsed once and dispatched.
type Metric string

const (
	MetricWorkHours Metric = "work_hours"
	MetricNormHours Metric = "norm_hours"
	MetricOvertime  Metric = "overtime"
	MetricSawhHours Metric = "sawh_hours"
)

type PeriodSelector string

const (
	PeriodCurrMonth  PeriodSelector = "curr_month"
	PeriodPrevMonths PeriodSelector = "prev_months"
	PeriodAccPeriod  PeriodSelector = "acc_period"
)

// ParseStatName splits a stat name into its metric and period selector.
func ParseStatName(name string) (Metric, PeriodSelector, error) {
	for _, sel := range []PeriodSelector{PeriodCurrMonth, PeriodPrevMonths, PeriodAccPeriod} {
		suffix := "_" + string(sel)
		if strings.HasSuffix(name, suffix) {
			m := Metric(strings.TrimSuffix(name, suffix))
			switch m {
			case MetricWorkHours, MetricNormHours, MetricOvertime, MetricSawhHours:
				return m, sel, nil
			}
		}
	}
	return "", "", fmt.Errorf("unknown stat name %q", name)
}

// Stat evaluates one (metric, selector) pair for (employee, year, month).
// prev_months covers the accounting-period months before the current one;
// acc_period covers the whole period up to and including the current month.
func (s *Service) Stat(ctx context.Context, employeeID string, networkID string, year int, month time.Month, metric Metric, sel PeriodSelector) (decimal.Decimal, error) {
	net, err := s.networks.GetByID(ctx, networkID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("get network: %w", err)
	}
	pYear, pMonth := net.Settings.AccountingPeriodStart(year, month)

	var months []yearMonth
	switch sel {
	case PeriodCurrMonth:
		months = []yearMonth{{year, month}}
	case PeriodPrevMonths:
		for y, m := pYear, pMonth; y != year || m != month; y, m = nextMonth(y, m) {
			months = append(months, yearMonth{y, m})
		}
	case PeriodAccPeriod:
		for y, m := pYear, pMonth; ; y, m = nextMonth(y, m) {
			months = append(months, yearMonth{y, m})
			if y == year && m == month {
				break
			}
		}
	default:
		return decimal.Zero, fmt.Errorf("unknown period selector %q", sel)
	}

	sum := decimal.Zero
	for _, ym := range months {
		v, err := s.monthStat(ctx, employeeID, ym.year, ym.month, metric)
		if err != nil {
			return decimal.Zero, err
		}
		sum = sum.Add(v)
	}
	return sum, nil
}

func (s *Service) monthStat(ctx context.Context, employeeID string, year int, month time.Month, metric Metric) (decimal.Decimal, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)
	switch metric {
	case MetricWorkHours:
		return s.FactHours(ctx, employeeID, from, to)
	case MetricNormHours:
		return s.MonthNorm(ctx, employeeID, year, month)
	case MetricOvertime:
		return s.Overtime(ctx, employeeID, year, month, year, month)
	case MetricSawhHours:
		return s.SawhTarget(ctx, employeeID, year, month)
	default:
		return decimal.Zero, fmt.Errorf("unknown metric %q", metric)
	}
}
