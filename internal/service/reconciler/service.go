package reconciler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shiftlab/wfm-backend-go/internal/domain/attendance"
	"github.com/shiftlab/wfm-backend-go/internal/domain/daytype"
	"github.com/shiftlab/wfm-backend-go/internal/domain/employment"
	"github.com/shiftlab/wfm-backend-go/internal/domain/network"
	"github.com/shiftlab/wfm-backend-go/internal/domain/schedule"
	"github.com/shiftlab/wfm-backend-go/internal/domain/workerday"
	"github.com/shiftlab/wfm-backend-go/internal/pkg/database"
	"github.com/shiftlab/wfm-backend-go/internal/pkg/events"
	"github.com/shiftlab/wfm-backend-go/internal/service/workhours"
)

// Service turns raw attendance ticks into approved fact worker days. One
// tick resolves to a logical date (an open overnight shift keeps yesterday's
// date), then creates or updates the fact day of that slot.
type Service struct {
	db          database.TxRunner
	records     attendance.Repository
	wdays       workerday.Repository
	employments employment.Repository
	shops       employment.ShopRepository
	schedules   schedule.Repository
	networks    network.Repository
	registry    *daytype.Registry
	bus         *events.Bus
	now         func() time.Time
}

func New(
	db database.TxRunner,
	records attendance.Repository,
	wdays workerday.Repository,
	employments employment.Repository,
	shops employment.ShopRepository,
	schedules schedule.Repository,
	networks network.Repository,
	registry *daytype.Registry,
	bus *events.Bus,
) *Service {
	return &Service{
		db:          db,
		records:     records,
		wdays:       wdays,
		employments: employments,
		shops:       shops,
		schedules:   schedules,
		networks:    networks,
		registry:    registry,
		bus:         bus,
		now:         time.Now,
	}
}

// WithClock overrides the clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Ingest processes one raw mark. The record is persisted even when it does
// not resolve to an employee, so no vendor data is lost.
func (s *Service) Ingest(ctx context.Context, networkID string, req attendance.IngestRequest) (attendance.IngestResult, error) {
	if err := req.Validate(); err != nil {
		return attendance.IngestResult{}, err
	}
	net, err := s.networks.GetByID(ctx, networkID)
	if err != nil {
		return attendance.IngestResult{}, fmt.Errorf("get network: %w", err)
	}

	shop, err := s.resolveShop(ctx, networkID, req)
	if err != nil {
		return attendance.IngestResult{}, err
	}

	emp, userID, err := s.resolveEmployment(ctx, networkID, shop.ID, req)
	if err != nil && !errors.Is(err, attendance.ErrNoEmployment) {
		return attendance.IngestResult{}, err
	}
	if emp == nil {
		if net.Settings.ForbidTicksWithoutEmployment {
			return attendance.IngestResult{}, attendance.ErrNoEmployment
		}
		// Keep the raw mark; a later employment import may explain it.
		rec, crErr := s.records.Create(ctx, attendance.Record{
			NetworkID: networkID,
			ShopID:    shop.ID,
			UserID:    userID,
			Dttm:      req.Instant,
			Date:      dateOf(req.Instant),
			Type:      attendance.TickType(req.Type),
		})
		if crErr != nil {
			return attendance.IngestResult{}, fmt.Errorf("store unmatched tick: %w", crErr)
		}
		return attendance.IngestResult{RecordID: rec.ID, Dropped: true, Reason: "no active employment"}, nil
	}

	var result attendance.IngestResult
	err = s.db.WithTxRetry(ctx, func(ctx context.Context) error {
		var txErr error
		result, txErr = s.ingestTx(ctx, net, shop, *emp, req)
		return txErr
	})
	return result, err
}

func (s *Service) ingestTx(ctx context.Context, net network.Network, shop employment.Shop, emp employment.Employment, req attendance.IngestRequest) (attendance.IngestResult, error) {
	tick := attendance.TickType(req.Type)
	instant := req.Instant

	logicalDate, openDay, err := s.logicalDate(ctx, emp.EmployeeID, instant, net.Settings)
	if err != nil {
		return attendance.IngestResult{}, err
	}

	if tx, ok := database.TxFromContext(ctx); ok {
		lockKey := fmt.Sprintf("%s/%s", emp.EmployeeID, logicalDate.Format("2006-01-02"))
		if err := database.AdvisoryXactLock(ctx, tx, database.LockNSReconcile, lockKey); err != nil {
			return attendance.IngestResult{}, err
		}
	}
	if err := s.wdays.LockSlot(ctx, emp.EmployeeID, logicalDate, true); err != nil {
		return attendance.IngestResult{}, err
	}

	day := openDay
	if day == nil {
		day, err = s.wdays.GetSlot(ctx, workerday.SlotKey{
			EmployeeID: emp.EmployeeID, Date: logicalDate, IsFact: true, IsApproved: true,
		})
		if err != nil {
			return attendance.IngestResult{}, err
		}
	}

	plan, err := s.wdays.LastPlan(ctx, emp.EmployeeID, logicalDate)
	if err != nil {
		return attendance.IngestResult{}, err
	}
	// A plan whose edges are nowhere near the tick is no anchor: it neither
	// seeds the fact day nor shapes slack windows.
	if plan != nil && !planNear(plan, instant, net.Settings.MaxPlanDiff) {
		plan = nil
	}

	created := false
	if day == nil {
		day, err = s.newFactDay(ctx, net.ID, emp, shop, logicalDate, plan)
		if err != nil {
			return attendance.IngestResult{}, err
		}
		created = true
	}

	s.applyTick(day, tick, instant, plan, net.Settings)

	if err := s.recomputeHours(ctx, net, day, plan); err != nil {
		return attendance.IngestResult{}, err
	}

	if created {
		day, err = s.wdays.Create(ctx, day)
		if err != nil {
			return attendance.IngestResult{}, err
		}
		if len(day.WorkParts) > 0 {
			if err := s.wdays.ReplaceParts(ctx, day.ID, day.WorkParts); err != nil {
				return attendance.IngestResult{}, err
			}
		}
	} else {
		if err := s.wdays.Update(ctx, day); err != nil {
			return attendance.IngestResult{}, err
		}
		if err := s.syncDraft(ctx, day); err != nil {
			return attendance.IngestResult{}, err
		}
	}

	rec, err := s.records.Create(ctx, attendance.Record{
		NetworkID:   net.ID,
		ShopID:      shop.ID,
		UserID:      emp.UserID,
		EmployeeID:  &emp.EmployeeID,
		Dttm:        instant,
		Date:        logicalDate,
		Type:        tick,
		WorkerDayID: &day.ID,
	})
	if err != nil {
		return attendance.IngestResult{}, fmt.Errorf("store tick: %w", err)
	}

	s.bus.Publish(events.Event{
		Name:      events.WdChanged,
		NetworkID: net.ID,
		Entity:    "worker_day",
		ID:        day.ID,
		After:     events.Marshal(day),
	})
	slog.Info("attendance tick reconciled",
		"employee_id", emp.EmployeeID, "date", logicalDate.Format("2006-01-02"),
		"type", string(tick), "worker_day_id", day.ID, "created", created)

	return attendance.IngestResult{RecordID: rec.ID, WorkerDayID: &day.ID}, nil
}

// logicalDate resolves which slot a tick belongs to. A non-coming tick that
// finds an approved fact shift opened within max_shift and not yet closed
// belongs to that shift's date, even across midnight.
func (s *Service) logicalDate(ctx context.Context, employeeID string, instant time.Time, settings network.Settings) (time.Time, *workerday.WorkerDay, error) {
	open, err := s.wdays.OpenFactShifts(ctx, employeeID, instant, settings.MaxShift)
	if err != nil {
		return time.Time{}, nil, err
	}
	for i := range open {
		wd := &open[i]
		if wd.Start == nil || !instant.After(*wd.Start) {
			continue
		}
		if instant.Sub(*wd.Start) > settings.MaxShift {
			continue
		}
		return wd.Date, wd, nil
	}
	return dateOf(instant), nil, nil
}

// newFactDay clones the approved plan when one exists; otherwise it starts
// a bare workday on the employment's shop. A tick from a shop other than
// the planned one stays on the tick's shop as a vacancy shift, with the
// work type re-resolved there.
func (s *Service) newFactDay(ctx context.Context, networkID string, emp employment.Employment, shop employment.Shop, date time.Time, plan *workerday.WorkerDay) (*workerday.WorkerDay, error) {
	wd := &workerday.WorkerDay{
		NetworkID:    networkID,
		EmployeeID:   &emp.EmployeeID,
		EmploymentID: &emp.ID,
		ShopID:       &shop.ID,
		PositionID:   emp.PositionID,
		Date:         date,
		Type:         daytype.Workday,
		IsFact:       true,
		IsApproved:   true,
	}
	if plan == nil {
		return wd, nil
	}
	wd.Type = plan.Type
	wd.PositionID = plan.PositionID
	wd.EmploymentID = plan.EmploymentID
	wd.ClosestPlanID = &plan.ID
	if plan.ShopID != nil && *plan.ShopID != shop.ID {
		wd.IsVacancy = true
		name, err := s.defaultWorkTypeName(ctx, emp.PositionID)
		if err != nil {
			return nil, err
		}
		if name != "" {
			wd.WorkParts = []workerday.WorkPart{{WorkTypeName: name, Rate: decimal.NewFromInt(1)}}
		}
		return wd, nil
	}
	wd.ShopID = plan.ShopID
	for _, p := range plan.WorkParts {
		wd.WorkParts = append(wd.WorkParts, workerday.WorkPart{
			WorkTypeID:   p.WorkTypeID,
			WorkTypeName: p.WorkTypeName,
			Rate:         p.Rate,
		})
	}
	return wd, nil
}

func (s *Service) defaultWorkTypeName(ctx context.Context, positionID *string) (string, error) {
	if positionID == nil {
		return "", nil
	}
	pos, err := s.shops.GetPosition(ctx, *positionID)
	if err != nil {
		return "", fmt.Errorf("get position: %w", err)
	}
	if pos.DefaultWorkTypeName == nil {
		return "", nil
	}
	return *pos.DefaultWorkTypeName, nil
}

// applyTick writes the raw instants. Coming keeps the earliest, leaving the
// latest; an unspecified tick opens the day if nothing did yet and closes it
// otherwise.
func (s *Service) applyTick(day *workerday.WorkerDay, tick attendance.TickType, instant time.Time, plan *workerday.WorkerDay, settings network.Settings) {
	if tick == attendance.TickUnspecified {
		if day.Start == nil {
			tick = attendance.TickComing
		} else {
			tick = attendance.TickLeaving
		}
	}
	switch tick {
	case attendance.TickComing:
		if day.Start == nil || instant.Before(*day.Start) {
			t := instant
			day.Start = &t
		}
	case attendance.TickLeaving:
		if settings.SkipLeavingTick && day.Start != nil && instant.Sub(*day.Start) > settings.MaxShift {
			// A leaving tick far past the opening is noise; the end comes
			// from the plan and the raw tick is kept only as a record.
			if day.End == nil && plan != nil && plan.End != nil {
				t := *plan.End
				day.End = &t
			}
			return
		}
		if day.End == nil || instant.After(*day.End) {
			t := instant
			day.End = &t
		}
	}
}

// planNear reports whether one of the plan's edges lies within maxDiff of
// the tick instant.
func planNear(plan *workerday.WorkerDay, instant time.Time, maxDiff time.Duration) bool {
	near := func(t *time.Time) bool {
		if t == nil {
			return false
		}
		d := instant.Sub(*t)
		if d < 0 {
			d = -d
		}
		return d <= maxDiff
	}
	return near(plan.Start) || near(plan.End)
}

// syncDraft mirrors the approved fact row onto its not-approved twin so an
// open draft never shows stale instants. Blocked or absent drafts are left
// alone.
func (s *Service) syncDraft(ctx context.Context, approved *workerday.WorkerDay) error {
	if approved.EmployeeID == nil {
		return nil
	}
	draft, err := s.wdays.GetSlot(ctx, workerday.SlotKey{
		EmployeeID: *approved.EmployeeID, Date: approved.Date, IsFact: true, IsApproved: false,
	})
	if err != nil {
		return err
	}
	if draft == nil || draft.IsBlocked {
		return nil
	}

	next := *approved
	next.ID = draft.ID
	next.Code = draft.Code
	next.IsApproved = false
	next.ParentID = draft.ParentID
	next.CreatedBy = draft.CreatedBy
	next.CreatedAt = draft.CreatedAt
	if err := s.wdays.Update(ctx, &next); err != nil {
		return err
	}

	parts := make([]workerday.WorkPart, 0, len(approved.WorkParts))
	for _, p := range approved.WorkParts {
		parts = append(parts, workerday.WorkPart{
			WorkTypeID:   p.WorkTypeID,
			WorkTypeName: p.WorkTypeName,
			Rate:         p.Rate,
		})
	}
	return s.wdays.ReplaceParts(ctx, draft.ID, parts)
}

// recomputeHours refreshes tabel times and the hour split once the shift has
// both ends. A half-open day keeps zero hours until it is closed.
func (s *Service) recomputeHours(ctx context.Context, net network.Network, day *workerday.WorkerDay, plan *workerday.WorkerDay) error {
	if day.Start == nil || day.End == nil {
		day.TabelStart, day.TabelEnd = nil, nil
		day.WorkHours, day.DayHours, day.NightHours = decimal.Zero, decimal.Zero, decimal.Zero
		return nil
	}
	dt, ok := s.registry.Get(day.Type)
	if !ok {
		return &workerday.ValidationError{Field: "type", Message: "unknown day type " + day.Type}
	}

	in := workhours.Input{
		Start:    *day.Start,
		End:      *day.End,
		DayType:  dt,
		Settings: net.Settings,
	}
	if plan != nil {
		in.PlanStart, in.PlanEnd = plan.Start, plan.End
	}
	if day.ShopID != nil {
		shop, err := s.shops.GetShop(ctx, *day.ShopID)
		if err == nil {
			in.ShopRoundTheClock = shop.IsRoundTheClock
			sched, schedErr := s.schedules.GetDay(ctx, shop.ID, day.Date)
			if schedErr == nil {
				in.Schedule = sched
			}
		}
	}

	res, err := workhours.Calculate(in)
	if err != nil {
		return err
	}
	day.TabelStart, day.TabelEnd = &res.TabelStart, &res.TabelEnd
	day.WorkHours = res.Total
	day.DayHours = res.Day
	day.NightHours = res.Night
	return nil
}

func (s *Service) resolveShop(ctx context.Context, networkID string, req attendance.IngestRequest) (employment.Shop, error) {
	if req.ShopID != nil {
		return s.shops.GetShop(ctx, *req.ShopID)
	}
	return s.shops.GetShopByCode(ctx, networkID, *req.ShopCode)
}

// resolveEmployment picks the employment a tick binds to: the user's
// employments active on the tick date, preferring ones at the tick's shop.
func (s *Service) resolveEmployment(ctx context.Context, networkID, shopID string, req attendance.IngestRequest) (*employment.Employment, string, error) {
	var userID string
	switch {
	case req.UserID != nil:
		userID = *req.UserID
	default:
		emp, err := s.employments.GetByCode(ctx, networkID, *req.UserCode)
		if err != nil {
			return nil, "", attendance.ErrNoEmployment
		}
		userID = emp.UserID
	}

	emps, err := s.employments.ListByUser(ctx, userID)
	if err != nil {
		return nil, userID, fmt.Errorf("list employments: %w", err)
	}
	date := dateOf(req.Instant)
	active := emps[:0:0]
	for _, e := range emps {
		// A tick just after midnight may close yesterday's shift, so
		// yesterday's employments also qualify.
		if e.ActiveOn(date) || e.ActiveOn(date.AddDate(0, 0, -1)) {
			active = append(active, e)
		}
	}
	if len(active) == 0 {
		return nil, userID, attendance.ErrNoEmployment
	}
	if chosen := employment.Resolve(active, nil, shopID, date); chosen != nil {
		return chosen, userID, nil
	}
	return &active[0], userID, nil
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
