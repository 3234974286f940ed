package timesheet

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shiftlab/wfm-backend-go/internal/domain/daytype"
	"github.com/shiftlab/wfm-backend-go/internal/domain/employment"
	"github.com/shiftlab/wfm-backend-go/internal/domain/network"
	"github.com/shiftlab/wfm-backend-go/internal/domain/timesheet"
	"github.com/shiftlab/wfm-backend-go/internal/domain/workerday"
	"github.com/shiftlab/wfm-backend-go/internal/pkg/database"
	"github.com/shiftlab/wfm-backend-go/internal/pkg/events"
	normsvc "github.com/shiftlab/wfm-backend-go/internal/service/norm"
)

// Calculator derives the fact timesheet from the plan/fact store and runs
// the fiscal divider. It is the single writer of timesheet items.
type Calculator struct {
	db          database.TxRunner
	wdays       workerday.Repository
	items       timesheet.Repository
	employments employment.Repository
	networks    network.Repository
	registry    *daytype.Registry
	norm        *normsvc.Service
	dividers    *DividerRegistry
	bus         *events.Bus
	now         func() time.Time
}

func NewCalculator(
	db database.TxRunner,
	wdays workerday.Repository,
	items timesheet.Repository,
	employments employment.Repository,
	networks network.Repository,
	registry *daytype.Registry,
	norm *normsvc.Service,
	dividers *DividerRegistry,
	bus *events.Bus,
) *Calculator {
	return &Calculator{
		db:          db,
		wdays:       wdays,
		items:       items,
		employments: employments,
		networks:    networks,
		registry:    registry,
		norm:        norm,
		dividers:    dividers,
		bus:         bus,
		now:         time.Now,
	}
}

// WithClock overrides the clock, for tests.
func (c *Calculator) WithClock(now func() time.Time) *Calculator {
	c.now = now
	return c
}

// RecalcAffected recomputes the month an edit on date belongs to.
func (c *Calculator) RecalcAffected(ctx context.Context, employeeID string, date time.Time) error {
	return c.RecalcMonth(ctx, employeeID, date.Year(), date.Month())
}

// RecalcCurrentAndPrev is the on-commit hook entry point.
func (c *Calculator) RecalcCurrentAndPrev(ctx context.Context, employeeID string, settings network.Settings) error {
	now := c.now()
	if err := c.RecalcMonth(ctx, employeeID, now.Year(), now.Month()); err != nil {
		return err
	}
	if now.Day() <= settings.PrevMonthRecalcDays {
		prev := now.AddDate(0, -1, 0)
		return c.RecalcMonth(ctx, employeeID, prev.Year(), prev.Month())
	}
	return nil
}

// RecalcMonth recomputes one (employee, month). Idempotent; concurrent
// invocations coalesce on a per-(employee, month) advisory lock.
func (c *Calculator) RecalcMonth(ctx context.Context, employeeID string, year int, month time.Month) error {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)

	emps, err := c.employments.ListActiveInRange(ctx, []string{employeeID}, from, to)
	if err != nil {
		return fmt.Errorf("list employments: %w", err)
	}
	if len(emps) == 0 {
		return nil
	}
	net, err := c.networks.GetByID(ctx, emps[0].NetworkID)
	if err != nil {
		return fmt.Errorf("get network: %w", err)
	}

	return c.db.WithTxRetry(ctx, func(ctx context.Context) error {
		if tx, ok := database.TxFromContext(ctx); ok {
			lockKey := fmt.Sprintf("%s/%04d-%02d", employeeID, year, month)
			got, err := database.TryAdvisoryXactLock(ctx, tx, database.LockNSTimesheet, lockKey)
			if err != nil {
				return err
			}
			if !got {
				// Another recompute of the same month is running; coalesce.
				slog.Debug("timesheet recompute coalesced", "employee_id", employeeID, "year", year, "month", month)
				return nil
			}
		}
		return c.recalcLocked(ctx, net, emps, employeeID, year, month, from, to)
	})
}

func (c *Calculator) recalcLocked(ctx context.Context, net network.Network, emps []employment.Employment, employeeID string, year int, month time.Month, from, to time.Time) error {
	scan, err := c.wdays.TimesheetScan(ctx, employeeID, from, to)
	if err != nil {
		return fmt.Errorf("timesheet scan: %w", err)
	}

	byDate := make(map[string]struct {
		facts []workerday.WorkerDay
		plans []workerday.WorkerDay
	})
	for _, wd := range scan {
		if !wd.IsApproved {
			continue
		}
		key := wd.Date.Format("2006-01-02")
		e := byDate[key]
		if wd.IsFact {
			e.facts = append(e.facts, wd)
		} else {
			e.plans = append(e.plans, wd)
		}
		byDate[key] = e
	}

	today := c.now().Truncate(24 * time.Hour)
	var factItems []timesheet.Item
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		e := byDate[d.Format("2006-01-02")]
		factItems = append(factItems, c.itemsForDate(net, emps, employeeID, d, today, e.facts, e.plans)...)
	}

	if err := c.items.ReplaceMonth(ctx, employeeID, year, month, []timesheet.SheetType{timesheet.SheetFact}, factItems); err != nil {
		return fmt.Errorf("replace fact sheet: %w", err)
	}

	monthNorm, err := c.norm.MonthNorm(ctx, employeeID, year, month)
	if err != nil {
		return err
	}
	divide, err := c.dividers.Get(net.Settings.TimesheetDivider)
	if err != nil {
		return err
	}
	main, additional, err := divide(DividerInput{
		Facts:      factItems,
		EmployeeID: employeeID,
		Year:       year,
		Month:      month,
		MonthNorm:  monthNorm,
		Registry:   c.registry,
	})
	if err != nil {
		return fmt.Errorf("divider %s: %w", net.Settings.TimesheetDivider, err)
	}
	divided := append(append([]timesheet.Item{}, main...), additional...)
	if err := c.items.ReplaceMonth(ctx, employeeID, year, month,
		[]timesheet.SheetType{timesheet.SheetMain, timesheet.SheetAdditional}, divided); err != nil {
		return fmt.Errorf("replace divided sheets: %w", err)
	}

	c.bus.Publish(events.Event{
		Name:      events.TimesheetRecalculated,
		NetworkID: net.ID,
		Entity:    "timesheet",
		ID:        fmt.Sprintf("%s/%04d-%02d", employeeID, year, month),
	})
	return nil
}

// itemsForDate applies the per-date selection: fact wins over plan; both
// empty falls back to a system holiday on the active employment's shop;
// past plan without fact marks an absence.
func (c *Calculator) itemsForDate(net network.Network, emps []employment.Employment, employeeID string, date, today time.Time, facts, plans []workerday.WorkerDay) []timesheet.Item {
	switch {
	case len(facts) > 0:
		items := c.itemsFromDay(net, &facts[0], timesheet.SourceFact)
		items = append(items, c.additionalFromPlans(net, &facts[0], plans)...)
		return items

	case len(plans) > 0:
		if date.Before(today) {
			// Plan existed, nobody came: an absence with zero hours.
			plan := plans[0]
			return []timesheet.Item{{
				NetworkID:    net.ID,
				EmployeeID:   employeeID,
				ShopID:       plan.ShopID,
				PositionID:   plan.PositionID,
				WorkTypeName: firstWorkTypeName(&plan),
				Date:         date,
				DayType:      daytype.Absence,
				SheetType:    timesheet.SheetFact,
				Source:       timesheet.SourceSystem,
				DayHours:     decimal.Zero,
				NightHours:   decimal.Zero,
			}}
		}
		items := c.itemsFromDay(net, &plans[0], timesheet.SourcePlan)
		items = append(items, c.additionalFromPlans(net, &plans[0], plans[1:])...)
		return items

	default:
		emp := employment.Resolve(emps, nil, "", date)
		if emp == nil {
			return nil
		}
		shopID := emp.ShopID
		return []timesheet.Item{{
			NetworkID:  net.ID,
			EmployeeID: employeeID,
			ShopID:     &shopID,
			PositionID: emp.PositionID,
			Date:       date,
			DayType:    daytype.Holiday,
			SheetType:  timesheet.SheetFact,
			Source:     timesheet.SourceSystem,
			DayHours:   decimal.Zero,
			NightHours: decimal.Zero,
		}}
	}
}

// additionalFromPlans emits stacked rows for plan entries whose day type
// the primary's registry entry allows as additional.
func (c *Calculator) additionalFromPlans(net network.Network, primary *workerday.WorkerDay, plans []workerday.WorkerDay) []timesheet.Item {
	dt, ok := c.registry.Get(primary.Type)
	if !ok || len(dt.AllowedAdditionalTypes) == 0 {
		return nil
	}
	var out []timesheet.Item
	for i := range plans {
		p := &plans[i]
		if p.ID == primary.ID || !dt.AllowsAdditional(p.Type) {
			continue
		}
		out = append(out, c.itemsFromDay(net, p, timesheet.SourcePlan)...)
	}
	return out
}

// itemsFromDay partitions a worker day's hours by work type.
func (c *Calculator) itemsFromDay(net network.Network, wd *workerday.WorkerDay, src timesheet.Source) []timesheet.Item {
	var employeeID string
	if wd.EmployeeID != nil {
		employeeID = *wd.EmployeeID
	}
	base := timesheet.Item{
		NetworkID:  net.ID,
		EmployeeID: employeeID,
		ShopID:     wd.ShopID,
		PositionID: wd.PositionID,
		Date:       wd.Date,
		DayType:    wd.Type,
		SheetType:  timesheet.SheetFact,
		Source:     src,
		Start:      wd.TabelStart,
		End:        wd.TabelEnd,
	}
	if len(wd.WorkParts) == 0 {
		base.DayHours = wd.DayHours
		base.NightHours = wd.NightHours
		return []timesheet.Item{base}
	}
	items := make([]timesheet.Item, 0, len(wd.WorkParts))
	for _, part := range wd.WorkParts {
		it := base
		it.WorkTypeName = part.WorkTypeName
		it.DayHours = wd.DayHours.Mul(part.Rate)
		it.NightHours = wd.NightHours.Mul(part.Rate)
		items = append(items, it)
	}
	return items
}

func firstWorkTypeName(wd *workerday.WorkerDay) string {
	if len(wd.WorkParts) > 0 {
		return wd.WorkParts[0].WorkTypeName
	}
	return ""
}
