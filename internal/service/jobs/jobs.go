// Package jobs holds the periodic maintenance routines: nightly timesheet
// recomputes, absence marking for missed shifts and shop schedule
// extension. Each routine is safe to run concurrently with the API; all
// writes go through the same advisory-locked paths the handlers use.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shiftlab/wfm-backend-go/internal/domain/daytype"
	"github.com/shiftlab/wfm-backend-go/internal/domain/employment"
	"github.com/shiftlab/wfm-backend-go/internal/domain/network"
	"github.com/shiftlab/wfm-backend-go/internal/domain/schedule"
	"github.com/shiftlab/wfm-backend-go/internal/domain/workerday"
	"github.com/shiftlab/wfm-backend-go/internal/pkg/database"
	"github.com/shiftlab/wfm-backend-go/internal/pkg/events"
	timesheetsvc "github.com/shiftlab/wfm-backend-go/internal/service/timesheet"
)

type Jobs struct {
	db          database.TxRunner
	networks    network.Repository
	employments employment.Repository
	shops       employment.ShopRepository
	schedules   schedule.Repository
	wdays       workerday.Repository
	registry    *daytype.Registry
	calculator  *timesheetsvc.Calculator
	bus         *events.Bus
	now         func() time.Time
}

func New(
	db database.TxRunner,
	networks network.Repository,
	employments employment.Repository,
	shops employment.ShopRepository,
	schedules schedule.Repository,
	wdays workerday.Repository,
	registry *daytype.Registry,
	calculator *timesheetsvc.Calculator,
	bus *events.Bus,
) *Jobs {
	return &Jobs{
		db:          db,
		networks:    networks,
		employments: employments,
		shops:       shops,
		schedules:   schedules,
		wdays:       wdays,
		registry:    registry,
		calculator:  calculator,
		bus:         bus,
		now:         time.Now,
	}
}

// WithClock overrides the clock, for tests.
func (j *Jobs) WithClock(now func() time.Time) *Jobs {
	j.now = now
	return j
}

// RecalcTimesheets recomputes the current (and, within the grace window,
// the previous) month for every active employee of every network. One bad
// employee does not poison the batch.
func (j *Jobs) RecalcTimesheets(ctx context.Context) error {
	nets, err := j.networks.List(ctx)
	if err != nil {
		return fmt.Errorf("list networks: %w", err)
	}
	var failed int
	for _, net := range nets {
		ids, err := j.employments.ListEmployeeIDs(ctx, net.ID, j.now())
		if err != nil {
			slog.Error("timesheet recalc: list employees failed",
				"network_id", net.ID, "error", err)
			failed++
			continue
		}
		for _, employeeID := range ids {
			if err := j.calculator.RecalcCurrentAndPrev(ctx, employeeID, net.Settings); err != nil {
				slog.Error("timesheet recalc failed",
					"network_id", net.ID, "employee_id", employeeID, "error", err)
				failed++
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("timesheet recalc: %d employees failed", failed)
	}
	return nil
}

// MarkAbsences creates approved fact absence days for yesterday's approved
// plan shifts that got no fact at all.
func (j *Jobs) MarkAbsences(ctx context.Context) error {
	yesterday := j.now().UTC().AddDate(0, 0, -1)
	yesterday = time.Date(yesterday.Year(), yesterday.Month(), yesterday.Day(), 0, 0, 0, 0, time.UTC)

	nets, err := j.networks.List(ctx)
	if err != nil {
		return fmt.Errorf("list networks: %w", err)
	}
	var marked, failed int
	for _, net := range nets {
		ids, err := j.employments.ListEmployeeIDs(ctx, net.ID, yesterday)
		if err != nil {
			slog.Error("absence marking: list employees failed",
				"network_id", net.ID, "error", err)
			failed++
			continue
		}
		for _, employeeID := range ids {
			n, err := j.markEmployee(ctx, net.ID, employeeID, yesterday)
			if err != nil {
				slog.Error("absence marking failed",
					"network_id", net.ID, "employee_id", employeeID, "error", err)
				failed++
				continue
			}
			marked += n
		}
	}
	slog.Info("absence marking finished",
		"date", yesterday.Format("2006-01-02"), "marked", marked, "failed", failed)
	if failed > 0 {
		return fmt.Errorf("absence marking: %d employees failed", failed)
	}
	return nil
}

func (j *Jobs) markEmployee(ctx context.Context, networkID, employeeID string, date time.Time) (int, error) {
	isFact, approved := false, true
	plans, err := j.wdays.ListRange(ctx, []string{employeeID}, date, date, &isFact, &approved)
	if err != nil {
		return 0, fmt.Errorf("list plan days: %w", err)
	}

	var plan *workerday.WorkerDay
	for i := range plans {
		dt, ok := j.registry.Get(plans[i].Type)
		if ok && dt.IsTimeRanged {
			plan = &plans[i]
			break
		}
	}
	if plan == nil {
		return 0, nil
	}

	marked := 0
	err = j.db.WithTx(ctx, func(ctx context.Context) error {
		if tx, ok := database.TxFromContext(ctx); ok {
			if err := database.AdvisoryXactLock(ctx, tx, database.LockNSReconcile,
				employeeID+"/"+date.Format("2006-01-02")); err != nil {
				return err
			}
		}
		fact, err := j.wdays.GetSlot(ctx, workerday.SlotKey{
			EmployeeID: employeeID, Date: date, IsFact: true, IsApproved: true,
		})
		if err != nil {
			return err
		}
		if fact != nil {
			return nil
		}
		absent, err := j.wdays.Create(ctx, &workerday.WorkerDay{
			NetworkID:     networkID,
			EmployeeID:    &employeeID,
			EmploymentID:  plan.EmploymentID,
			ShopID:        plan.ShopID,
			PositionID:    plan.PositionID,
			Date:          date,
			Type:          daytype.Absence,
			IsFact:        true,
			IsApproved:    true,
			ClosestPlanID: &plan.ID,
		})
		if err != nil {
			return err
		}
		marked = 1
		j.bus.Publish(events.Event{
			Name:      events.WdChanged,
			NetworkID: networkID,
			Entity:    "worker_day",
			ID:        absent.ID,
			After:     events.Marshal(absent),
		})
		return nil
	})
	return marked, err
}

// FillShopSchedule extends the per-date schedule of one shop from its
// weekly default, starting at from, for the given number of whole months.
// Existing per-date entries are kept. Returns the number of created days.
func (j *Jobs) FillShopSchedule(ctx context.Context, shopID string, from time.Time, periods int) (int, error) {
	if periods <= 0 {
		periods = 1
	}
	weekly, err := j.schedules.GetWeekly(ctx, shopID)
	if err != nil {
		return 0, fmt.Errorf("get weekly schedule: %w", err)
	}

	from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, periods, -1)

	existing, err := j.schedules.ListRange(ctx, shopID, from, to)
	if err != nil {
		return 0, fmt.Errorf("list schedule days: %w", err)
	}
	have := make(map[string]struct{}, len(existing))
	for _, d := range existing {
		have[d.Date.Format("2006-01-02")] = struct{}{}
	}

	var missing []schedule.ShopScheduleDay
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if _, ok := have[d.Format("2006-01-02")]; ok {
			continue
		}
		missing = append(missing, weekly.DayFor(d))
	}
	if len(missing) == 0 {
		return 0, nil
	}
	n, err := j.schedules.UpsertDays(ctx, missing)
	if err != nil {
		return 0, fmt.Errorf("upsert schedule days: %w", err)
	}
	slog.Info("shop schedule filled",
		"shop_id", shopID, "from", from.Format("2006-01-02"),
		"to", to.Format("2006-01-02"), "created", n)
	return n, nil
}

// FillAllShopSchedules runs FillShopSchedule for every shop of every
// network, starting today.
func (j *Jobs) FillAllShopSchedules(ctx context.Context, periods int) error {
	nets, err := j.networks.List(ctx)
	if err != nil {
		return fmt.Errorf("list networks: %w", err)
	}
	var failed int
	for _, net := range nets {
		shops, err := j.shops.ListShops(ctx, net.ID)
		if err != nil {
			slog.Error("schedule fill: list shops failed",
				"network_id", net.ID, "error", err)
			failed++
			continue
		}
		for _, shop := range shops {
			if _, err := j.FillShopSchedule(ctx, shop.ID, j.now(), periods); err != nil {
				slog.Error("schedule fill failed",
					"shop_id", shop.ID, "error", err)
				failed++
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("schedule fill: %d shops failed", failed)
	}
	return nil
}
