package workerday

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shiftlab/wfm-backend-go/internal/domain/daytype"
	"github.com/shiftlab/wfm-backend-go/internal/domain/employment"
	"github.com/shiftlab/wfm-backend-go/internal/domain/network"
	"github.com/shiftlab/wfm-backend-go/internal/domain/schedule"
	"github.com/shiftlab/wfm-backend-go/internal/domain/workerday"
	"github.com/shiftlab/wfm-backend-go/internal/pkg/database"
	"github.com/shiftlab/wfm-backend-go/internal/pkg/events"
	"github.com/shiftlab/wfm-backend-go/internal/service/permission"
	"github.com/shiftlab/wfm-backend-go/internal/service/workhours"
)

// Service is the batch write path for worker days. Every mutation goes
// through here; handlers and jobs never touch the repository directly.
type Service struct {
	db          database.TxRunner
	wdays       workerday.Repository
	employments employment.Repository
	shops       employment.ShopRepository
	schedules   schedule.Repository
	networks    network.Repository
	registry    *daytype.Registry
	gate        *permission.Gate
	bus         *events.Bus
	now         func() time.Time
}

func New(
	db database.TxRunner,
	wdays workerday.Repository,
	employments employment.Repository,
	shops employment.ShopRepository,
	schedules schedule.Repository,
	networks network.Repository,
	registry *daytype.Registry,
	gate *permission.Gate,
	bus *events.Bus,
) *Service {
	return &Service{
		db:          db,
		wdays:       wdays,
		employments: employments,
		shops:       shops,
		schedules:   schedules,
		networks:    networks,
		registry:    registry,
		gate:        gate,
		bus:         bus,
		now:         time.Now,
	}
}

// WithClock overrides the clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Upsert creates or updates the not-approved row of a slot. Approved rows
// are never touched here; publishing goes through Approve.
func (s *Service) Upsert(ctx context.Context, actor workerday.Actor, req workerday.UpsertRequest) (*workerday.WorkerDay, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	net, err := s.networks.GetByID(ctx, actor.NetworkID)
	if err != nil {
		return nil, fmt.Errorf("get network: %w", err)
	}
	if err := s.checkGate(ctx, actor, workerday.ActionCreateOrUpdate, req.IsFact, []string{req.Type}, req.Date, req.Date); err != nil {
		return nil, err
	}

	var saved *workerday.WorkerDay
	err = s.db.WithTxRetry(ctx, func(ctx context.Context) error {
		var txErr error
		saved, txErr = s.upsertTx(ctx, actor, net, req)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	name := events.WdChanged
	if saved.IsVacancy && saved.EmployeeID == nil {
		name = events.VacancyCreated
	}
	s.bus.Publish(events.Event{
		Name:      name,
		NetworkID: net.ID,
		Entity:    "worker_day",
		ID:        saved.ID,
		After:     events.Marshal(saved),
		Actor:     actor.UserID,
	})
	return saved, nil
}

func (s *Service) upsertTx(ctx context.Context, actor workerday.Actor, net network.Network, req workerday.UpsertRequest) (*workerday.WorkerDay, error) {
	var existing *workerday.WorkerDay
	var err error
	switch {
	case req.ID != nil:
		existing, err = s.wdays.GetByID(ctx, *req.ID)
		if err != nil {
			return nil, err
		}
	case req.Code != nil:
		existing, err = s.wdays.GetByCode(ctx, net.ID, *req.Code)
		if err != nil && !errors.Is(err, workerday.ErrNotFound) {
			return nil, err
		}
	}
	if existing != nil && existing.IsApproved {
		return nil, workerday.ErrApprovedImmutable
	}
	if existing != nil && existing.IsBlocked {
		return nil, workerday.ErrBlocked
	}

	wd, err := s.buildDay(ctx, net, req)
	if err != nil {
		return nil, err
	}
	wd.LastEditedBy = strPtrOrNil(actor.UserID)

	if req.EmployeeID != nil {
		if err := s.wdays.LockSlot(ctx, *req.EmployeeID, req.Date, req.IsFact); err != nil {
			return nil, err
		}
		if existing == nil {
			existing, err = s.lookupDraft(ctx, net, *req.EmployeeID, req.Date, req.IsFact)
			if err != nil {
				return nil, err
			}
			if existing != nil && existing.IsBlocked {
				return nil, workerday.ErrBlocked
			}
		}
	}

	if existing == nil {
		wd.CreatedBy = strPtrOrNil(actor.UserID)
		saved, err := s.wdays.Create(ctx, wd)
		if err != nil {
			return nil, err
		}
		if len(wd.WorkParts) > 0 {
			if err := s.wdays.ReplaceParts(ctx, saved.ID, wd.WorkParts); err != nil {
				return nil, err
			}
			saved.WorkParts = wd.WorkParts
		}
		return saved, nil
	}

	wd.ID = existing.ID
	wd.CreatedBy = existing.CreatedBy
	wd.ParentID = existing.ParentID
	if err := s.wdays.Update(ctx, wd); err != nil {
		return nil, err
	}
	if err := s.wdays.ReplaceParts(ctx, wd.ID, wd.WorkParts); err != nil {
		return nil, err
	}
	return wd, nil
}

// lookupDraft returns the existing not-approved row of a slot, enforcing
// single occupancy unless the network allows stacked days.
func (s *Service) lookupDraft(ctx context.Context, net network.Network, employeeID string, date time.Time, isFact bool) (*workerday.WorkerDay, error) {
	key := workerday.SlotKey{EmployeeID: employeeID, Date: date, IsFact: isFact, IsApproved: false}
	if net.Settings.AllowMultipleWdays {
		return nil, nil
	}
	rows, err := s.wdays.ListSlot(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(rows) > 1 {
		return nil, &workerday.ConflictError{
			ConflictingID: rows[1].ID,
			Message:       "slot already holds more than one worker day",
		}
	}
	if len(rows) == 1 {
		return &rows[0], nil
	}
	return nil, nil
}

// buildDay assembles and validates the entity, resolving the employment and
// computing tabel times and the hour split.
func (s *Service) buildDay(ctx context.Context, net network.Network, req workerday.UpsertRequest) (*workerday.WorkerDay, error) {
	wd := &workerday.WorkerDay{
		NetworkID:   net.ID,
		EmployeeID:  req.EmployeeID,
		ShopID:      req.ShopID,
		Code:        req.Code,
		Date:        req.Date,
		Type:        req.Type,
		Start:       req.StartTime,
		End:         req.EndTime,
		WorkHours:   req.WorkHours,
		IsFact:      req.IsFact,
		IsVacancy:   req.IsVacancy,
		IsOutsource: req.IsOutsource,
		Outsources:  req.Outsources,
	}
	for _, p := range req.WorkParts {
		wd.WorkParts = append(wd.WorkParts, workerday.WorkPart{
			WorkTypeID:   p.WorkTypeID,
			WorkTypeName: p.WorkTypeName,
			Rate:         p.Rate,
		})
	}

	if req.EmployeeID != nil {
		emp, err := s.resolveEmployment(ctx, *req.EmployeeID, req.EmploymentID, req.ShopID, req.Date)
		if err != nil {
			return nil, err
		}
		if emp != nil {
			wd.EmploymentID = &emp.ID
			if wd.ShopID == nil {
				wd.ShopID = &emp.ShopID
			}
			if wd.PositionID == nil {
				wd.PositionID = emp.PositionID
			}
		}
	}

	if err := wd.Validate(s.registry); err != nil {
		return nil, err
	}
	if err := s.computeHours(ctx, net, wd); err != nil {
		return nil, err
	}
	return wd, nil
}

// computeHours fills tabel times and the day/night split. Fact rows anchor
// slack windows on the approved plan; plan rows have no slack.
func (s *Service) computeHours(ctx context.Context, net network.Network, wd *workerday.WorkerDay) error {
	dt, ok := s.registry.Get(wd.Type)
	if !ok {
		return &workerday.ValidationError{Field: "type", Message: "unknown day type " + wd.Type}
	}
	if !dt.IsTimeRanged && !(dt.IsDayoff && dt.IsWorkHours) {
		wd.TabelStart, wd.TabelEnd = nil, nil
		wd.WorkHours, wd.DayHours, wd.NightHours = decimal.Zero, decimal.Zero, decimal.Zero
		return nil
	}
	if dt.IsTimeRanged && (wd.Start == nil || wd.End == nil) {
		return nil
	}

	in := workhours.Input{
		DayType:   dt,
		WorkHours: wd.WorkHours,
		Settings:  net.Settings,
	}
	if wd.Start != nil && wd.End != nil {
		in.Start, in.End = *wd.Start, *wd.End
	}
	if wd.IsFact && wd.EmployeeID != nil {
		plan, err := s.wdays.LastPlan(ctx, *wd.EmployeeID, wd.Date)
		if err != nil {
			return err
		}
		if plan != nil && planWithinDiff(plan, wd.Start, wd.End, net.Settings.MaxPlanDiff) {
			in.PlanStart, in.PlanEnd = plan.Start, plan.End
			wd.ClosestPlanID = &plan.ID
		}
	}
	if wd.ShopID != nil {
		shop, err := s.shops.GetShop(ctx, *wd.ShopID)
		if err == nil {
			in.ShopRoundTheClock = shop.IsRoundTheClock
			if sched, schedErr := s.schedules.GetDay(ctx, shop.ID, wd.Date); schedErr == nil {
				in.Schedule = sched
			}
		}
	}

	res, err := workhours.Calculate(in)
	if err != nil {
		return err
	}
	if dt.IsTimeRanged {
		wd.TabelStart, wd.TabelEnd = &res.TabelStart, &res.TabelEnd
	}
	wd.WorkHours = res.Total
	wd.DayHours = res.Day
	wd.NightHours = res.Night
	return nil
}

// Approve replaces approved rows with their working copies over a range.
// A draft byte-equal to its approved counterpart is skipped silently.
func (s *Service) Approve(ctx context.Context, actor workerday.Actor, req workerday.ApproveRequest) (workerday.ApproveResult, error) {
	if err := req.Validate(); err != nil {
		return workerday.ApproveResult{}, err
	}
	if err := s.checkGate(ctx, actor, workerday.ActionApprove, req.IsFact, req.WdTypes, req.From, req.To); err != nil {
		return workerday.ApproveResult{}, err
	}
	net, err := s.networks.GetByID(ctx, actor.NetworkID)
	if err != nil {
		return workerday.ApproveResult{}, fmt.Errorf("get network: %w", err)
	}

	types := make(map[string]bool, len(req.WdTypes))
	for _, t := range req.WdTypes {
		types[t] = true
	}

	var result workerday.ApproveResult
	var approvedIDs []string
	err = s.db.WithTxRetry(ctx, func(ctx context.Context) error {
		result = workerday.ApproveResult{}
		approvedIDs = approvedIDs[:0]

		notApproved := false
		drafts, err := s.wdays.ListRange(ctx, req.EmployeeIDs, req.From, req.To, &req.IsFact, &notApproved)
		if err != nil {
			return err
		}
		for i := range drafts {
			draft := &drafts[i]
			if draft.EmployeeID == nil || !types[draft.Type] {
				continue
			}
			if req.ShopID != "" && (draft.ShopID == nil || *draft.ShopID != req.ShopID) {
				continue
			}
			if draft.IsBlocked {
				result.Rejected = append(result.Rejected, workerday.RejectedDay{
					EmployeeID: *draft.EmployeeID,
					Dt:         draft.Date.Format("2006-01-02"),
					Reason:     "worker day is blocked",
				})
				continue
			}
			if err := s.wdays.LockSlot(ctx, *draft.EmployeeID, draft.Date, draft.IsFact); err != nil {
				return err
			}
			approved, err := s.wdays.GetSlot(ctx, workerday.SlotKey{
				EmployeeID: *draft.EmployeeID, Date: draft.Date, IsFact: draft.IsFact, IsApproved: true,
			})
			if err != nil {
				return err
			}
			if approved != nil && approved.SameSignificant(draft) {
				result.Skipped++
				continue
			}

			id, err := s.promote(ctx, actor, draft, approved)
			if err != nil {
				return err
			}
			approvedIDs = append(approvedIDs, id)
			result.Approved++
		}
		return nil
	})
	if err != nil {
		return workerday.ApproveResult{}, err
	}

	for _, id := range approvedIDs {
		s.bus.Publish(events.Event{
			Name:      events.WdApproved,
			NetworkID: net.ID,
			Entity:    "worker_day",
			ID:        id,
			Actor:     actor.UserID,
		})
	}
	slog.Info("worker days approved",
		"shop_id", req.ShopID, "is_fact", req.IsFact,
		"approved", result.Approved, "skipped", result.Skipped, "rejected", len(result.Rejected))
	return result, nil
}

// promote writes the draft's content into the approved slot. A replaced
// approved version is archived first and linked through ParentID, so the
// chain walks back through every published revision; the draft itself
// stays as the working copy.
func (s *Service) promote(ctx context.Context, actor workerday.Actor, draft, approved *workerday.WorkerDay) (string, error) {
	var parentID *string
	if approved != nil {
		archive := *approved
		archive.ID = ""
		archive.Code = nil
		archive.IsArchived = true
		parts := archive.WorkParts
		archive.WorkParts = nil
		archived, err := s.wdays.Create(ctx, &archive)
		if err != nil {
			return "", err
		}
		if err := s.replaceClonedParts(ctx, archived.ID, parts); err != nil {
			return "", err
		}
		parentID = &archived.ID
	}

	next := *draft
	next.IsApproved = true
	next.ParentID = parentID
	next.LastEditedBy = strPtrOrNil(actor.UserID)
	parts := next.WorkParts
	next.WorkParts = nil

	if approved == nil {
		next.ID = ""
		saved, err := s.wdays.Create(ctx, &next)
		if err != nil {
			return "", err
		}
		if err := s.replaceClonedParts(ctx, saved.ID, parts); err != nil {
			return "", err
		}
		return saved.ID, nil
	}

	next.ID = approved.ID
	next.CreatedBy = approved.CreatedBy
	next.CreatedAt = approved.CreatedAt
	if err := s.wdays.Update(ctx, &next); err != nil {
		return "", err
	}
	if err := s.replaceClonedParts(ctx, next.ID, parts); err != nil {
		return "", err
	}
	return next.ID, nil
}

func (s *Service) replaceClonedParts(ctx context.Context, workerDayID string, parts []workerday.WorkPart) error {
	cloned := make([]workerday.WorkPart, len(parts))
	for i, p := range parts {
		cloned[i] = workerday.WorkPart{
			WorkTypeID:   p.WorkTypeID,
			WorkTypeName: p.WorkTypeName,
			Rate:         p.Rate,
		}
	}
	return s.wdays.ReplaceParts(ctx, workerDayID, cloned)
}

// Delete removes a not-approved row. Approved rows never leave through this
// path; children referencing the row are detached first.
func (s *Service) Delete(ctx context.Context, actor workerday.Actor, id string) error {
	wd, err := s.wdays.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if wd.IsApproved {
		return workerday.ErrDeleteApproved
	}
	if wd.IsBlocked {
		return workerday.ErrBlocked
	}
	if err := s.checkGate(ctx, actor, workerday.ActionDelete, wd.IsFact, []string{wd.Type}, wd.Date, wd.Date); err != nil {
		return err
	}

	err = s.db.WithTx(ctx, func(ctx context.Context) error {
		if err := s.wdays.DetachChildren(ctx, id); err != nil {
			return err
		}
		return s.wdays.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.bus.Publish(events.Event{
		Name:      events.WdChanged,
		NetworkID: wd.NetworkID,
		Entity:    "worker_day",
		ID:        id,
		Before:    events.Marshal(wd),
		Actor:     actor.UserID,
	})
	return nil
}

// Exchange swaps the days of two employees date by date, all-or-nothing.
// A date where only one side has a row moves that row; permissions are
// verified per day against the moved rows' day types.
func (s *Service) Exchange(ctx context.Context, actor workerday.Actor, req workerday.ExchangeRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	return s.db.WithTxRetry(ctx, func(ctx context.Context) error {
		for _, date := range req.ParsedDates {
			if err := s.wdays.LockSlot(ctx, req.EmployeeID1, date, req.IsFact); err != nil {
				return err
			}
			if err := s.wdays.LockSlot(ctx, req.EmployeeID2, date, req.IsFact); err != nil {
				return err
			}
			d1, err := s.wdays.GetSlot(ctx, workerday.SlotKey{
				EmployeeID: req.EmployeeID1, Date: date, IsFact: req.IsFact, IsApproved: req.IsApproved,
			})
			if err != nil {
				return err
			}
			d2, err := s.wdays.GetSlot(ctx, workerday.SlotKey{
				EmployeeID: req.EmployeeID2, Date: date, IsFact: req.IsFact, IsApproved: req.IsApproved,
			})
			if err != nil {
				return err
			}
			if d1 == nil && d2 == nil {
				continue
			}
			for _, wd := range []*workerday.WorkerDay{d1, d2} {
				if wd == nil {
					continue
				}
				if err := s.checkGate(ctx, actor, workerday.ActionCreateOrUpdate, req.IsFact, []string{wd.Type}, date, date); err != nil {
					return err
				}
			}
			if err := s.reassign(ctx, actor, d1, req.EmployeeID2, date); err != nil {
				return err
			}
			if err := s.reassign(ctx, actor, d2, req.EmployeeID1, date); err != nil {
				return err
			}
		}
		return nil
	})
}

// reassign moves a row to another employee, re-resolving the employment.
func (s *Service) reassign(ctx context.Context, actor workerday.Actor, wd *workerday.WorkerDay, employeeID string, date time.Time) error {
	if wd == nil {
		return nil
	}
	if wd.IsBlocked {
		return workerday.ErrBlocked
	}
	wd.EmployeeID = &employeeID
	wd.EmploymentID = nil
	emp, err := s.resolveEmployment(ctx, employeeID, nil, wd.ShopID, date)
	if err != nil {
		return err
	}
	if emp != nil {
		wd.EmploymentID = &emp.ID
	}
	wd.LastEditedBy = strPtrOrNil(actor.UserID)
	return s.wdays.Update(ctx, wd)
}

// Duplicate copies a source day set onto target dates. Sources cycle when
// targets outnumber them; targets always land in the not-approved graph.
func (s *Service) Duplicate(ctx context.Context, actor workerday.Actor, req workerday.DuplicateRequest) (int, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}
	isFact := false
	src, err := s.loadDates(ctx, req.FromEmployeeID, req.SrcDates, isFact, req.IsApproved)
	if err != nil {
		return 0, err
	}
	if len(src) == 0 {
		return 0, nil
	}
	sort.Slice(src, func(i, j int) bool { return src[i].Date.Before(src[j].Date) })

	dst := append([]time.Time(nil), req.DstDates...)
	sort.Slice(dst, func(i, j int) bool { return dst[i].Before(dst[j]) })

	dayTypes := uniqueTypes(src)
	if err := s.checkGate(ctx, actor, workerday.ActionCreateOrUpdate, isFact, dayTypes, dst[0], dst[len(dst)-1]); err != nil {
		return 0, err
	}

	written := 0
	err = s.db.WithTxRetry(ctx, func(ctx context.Context) error {
		written = 0
		for i, date := range dst {
			source := src[i%len(src)]
			if err := s.overwriteDraft(ctx, actor, &source, req.ToEmployeeID, date, isFact); err != nil {
				return err
			}
			written++
		}
		return nil
	})
	return written, err
}

// CopyApproved overwrites the not-approved graph from the approved graph
// under the PP, PF or FF mode.
func (s *Service) CopyApproved(ctx context.Context, actor workerday.Actor, req workerday.CopyApprovedRequest) (int, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}
	srcFact := req.Mode == workerday.CopyModeFF
	dstFact := req.Mode != workerday.CopyModePP

	written := 0
	err := s.db.WithTxRetry(ctx, func(ctx context.Context) error {
		written = 0
		for _, employeeID := range req.EmployeeIDs {
			for _, date := range req.ParsedDates {
				src, err := s.wdays.GetSlot(ctx, workerday.SlotKey{
					EmployeeID: employeeID, Date: date, IsFact: srcFact, IsApproved: true,
				})
				if err != nil {
					return err
				}
				if src == nil {
					continue
				}
				if err := s.overwriteDraft(ctx, actor, src, employeeID, date, dstFact); err != nil {
					return err
				}
				written++
			}
		}
		return nil
	})
	return written, err
}

// CopyRange copies a source window onto a target window with index-aligned
// date mapping, cycling through the source window.
func (s *Service) CopyRange(ctx context.Context, actor workerday.Actor, req workerday.CopyRangeRequest) (int, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}
	isFact := false
	srcLen := daysBetween(req.SrcFrom, req.SrcTo) + 1

	written := 0
	err := s.db.WithTxRetry(ctx, func(ctx context.Context) error {
		written = 0
		for _, employeeID := range req.EmployeeIDs {
			rows, err := s.wdays.ListRange(ctx, []string{employeeID}, req.SrcFrom, req.SrcTo, &isFact, &req.IsApproved)
			if err != nil {
				return err
			}
			byDate := make(map[string]*workerday.WorkerDay, len(rows))
			for i := range rows {
				byDate[rows[i].Date.Format("2006-01-02")] = &rows[i]
			}
			for i, date := 0, req.DstFrom; !date.After(req.DstTo); i, date = i+1, date.AddDate(0, 0, 1) {
				srcDate := req.SrcFrom.AddDate(0, 0, i%srcLen)
				src, ok := byDate[srcDate.Format("2006-01-02")]
				if !ok {
					continue
				}
				if err := s.overwriteDraft(ctx, actor, src, employeeID, date, isFact); err != nil {
					return err
				}
				written++
			}
		}
		return nil
	})
	return written, err
}

// overwriteDraft replaces the not-approved slot of (employeeID, date) with
// a clone of src shifted onto date.
func (s *Service) overwriteDraft(ctx context.Context, actor workerday.Actor, src *workerday.WorkerDay, employeeID string, date time.Time, isFact bool) error {
	if err := s.wdays.LockSlot(ctx, employeeID, date, isFact); err != nil {
		return err
	}
	existing, err := s.wdays.GetSlot(ctx, workerday.SlotKey{
		EmployeeID: employeeID, Date: date, IsFact: isFact, IsApproved: false,
	})
	if err != nil {
		return err
	}
	if existing != nil && existing.IsBlocked {
		return workerday.ErrBlocked
	}

	clone := cloneOnto(src, employeeID, date, isFact)
	clone.EmploymentID = nil
	emp, err := s.resolveEmployment(ctx, employeeID, nil, clone.ShopID, date)
	if err != nil {
		return err
	}
	if emp != nil {
		clone.EmploymentID = &emp.ID
	}
	clone.LastEditedBy = strPtrOrNil(actor.UserID)

	parts := clone.WorkParts
	clone.WorkParts = nil
	if existing != nil {
		clone.ID = existing.ID
		clone.CreatedBy = existing.CreatedBy
		clone.CreatedAt = existing.CreatedAt
		if err := s.wdays.Update(ctx, clone); err != nil {
			return err
		}
		return s.replaceClonedParts(ctx, clone.ID, parts)
	}
	clone.CreatedBy = strPtrOrNil(actor.UserID)
	saved, err := s.wdays.Create(ctx, clone)
	if err != nil {
		return err
	}
	return s.replaceClonedParts(ctx, saved.ID, parts)
}

// ChangeRange makes every date of each range exactly one row of the given
// day type, counting created, updated, deleted and untouched slots.
func (s *Service) ChangeRange(ctx context.Context, actor workerday.Actor, req workerday.ChangeRangeRequest) ([]workerday.ChangeRangeResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var results []workerday.ChangeRangeResult
	err := s.db.WithTxRetry(ctx, func(ctx context.Context) error {
		results = results[:0]
		for _, rg := range req.Ranges {
			emp, err := s.employments.GetByCode(ctx, actor.NetworkID, rg.Worker)
			if err != nil {
				return fmt.Errorf("worker %s: %w", rg.Worker, err)
			}
			if err := s.checkGate(ctx, actor, workerday.ActionCreateOrUpdate, rg.IsFact, []string{rg.Type}, rg.From, rg.To); err != nil {
				return err
			}
			res, err := s.changeOne(ctx, actor, emp, rg)
			if err != nil {
				return err
			}
			results = append(results, res)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) changeOne(ctx context.Context, actor workerday.Actor, emp employment.Employment, rg workerday.ChangeRange) (workerday.ChangeRangeResult, error) {
	res := workerday.ChangeRangeResult{Worker: rg.Worker}
	for date := rg.From; !date.After(rg.To); date = date.AddDate(0, 0, 1) {
		if err := s.wdays.LockSlot(ctx, emp.EmployeeID, date, rg.IsFact); err != nil {
			return res, err
		}
		rows, err := s.wdays.ListSlot(ctx, workerday.SlotKey{
			EmployeeID: emp.EmployeeID, Date: date, IsFact: rg.IsFact, IsApproved: rg.IsApproved,
		})
		if err != nil {
			return res, err
		}
		if len(rows) == 1 && rows[0].Type == rg.Type {
			res.Existing++
			continue
		}
		replaced := len(rows) > 0
		for i := range rows {
			if rows[i].IsBlocked {
				return res, workerday.ErrBlocked
			}
			if err := s.wdays.DetachChildren(ctx, rows[i].ID); err != nil {
				return res, err
			}
			if err := s.wdays.Delete(ctx, rows[i].ID); err != nil {
				return res, err
			}
			res.Deleted++
		}
		wd := &workerday.WorkerDay{
			NetworkID:    actor.NetworkID,
			EmployeeID:   &emp.EmployeeID,
			EmploymentID: &emp.ID,
			ShopID:       &emp.ShopID,
			PositionID:   emp.PositionID,
			Date:         date,
			Type:         rg.Type,
			IsFact:       rg.IsFact,
			IsApproved:   rg.IsApproved,
			CreatedBy:    strPtrOrNil(actor.UserID),
			LastEditedBy: strPtrOrNil(actor.UserID),
		}
		if err := wd.Validate(s.registry); err != nil {
			return res, err
		}
		if _, err := s.wdays.Create(ctx, wd); err != nil {
			return res, err
		}
		// A replaced day counts only as a deletion, not a creation.
		if !replaced {
			res.Created++
		}
	}
	return res, nil
}

// BatchUpdateOrCreate applies a diff: rows in scope but absent from the
// payload are deleted, present rows are created or updated. Dry runs report
// the stats without writing.
func (s *Service) BatchUpdateOrCreate(ctx context.Context, actor workerday.Actor, req workerday.BatchUpdateRequest) (workerday.BatchStats, error) {
	if err := req.Validate(); err != nil {
		return workerday.BatchStats{}, err
	}
	net, err := s.networks.GetByID(ctx, actor.NetworkID)
	if err != nil {
		return workerday.BatchStats{}, fmt.Errorf("get network: %w", err)
	}

	scope, err := s.batchScope(req)
	if err != nil {
		return workerday.BatchStats{}, err
	}

	var stats workerday.BatchStats
	err = s.db.WithTxRetry(ctx, func(ctx context.Context) error {
		stats = workerday.BatchStats{}
		if tx, ok := database.TxFromContext(ctx); ok {
			if err := database.AdvisoryXactLock(ctx, tx, database.LockNSBatchDiff, scope.fingerprint()); err != nil {
				return err
			}
		}

		notApproved := false
		existing, err := s.wdays.ListRange(ctx, scope.employeeIDs, scope.from, scope.to, scope.isFact, &notApproved)
		if err != nil {
			return err
		}
		byKey := make(map[string]*workerday.WorkerDay, len(existing))
		for i := range existing {
			byKey[batchKey(&existing[i], req.Options.ByCode)] = &existing[i]
		}

		seen := make(map[string]bool, len(req.Data))
		for i := range req.Data {
			item := &req.Data[i]
			key := requestKey(item, req.Options.ByCode)
			seen[key] = true
			prev, exists := byKey[key]
			switch {
			case exists && upsertMatches(prev, item):
				stats.Skipped++
			case exists:
				stats.Updated++
				if !req.Options.DryRun {
					item.ID = &prev.ID
					if _, err := s.upsertTx(ctx, actor, net, *item); err != nil {
						return err
					}
				}
			default:
				stats.Created++
				if !req.Options.DryRun {
					if _, err := s.upsertTx(ctx, actor, net, *item); err != nil {
						return err
					}
				}
			}
		}

		for key, prev := range byKey {
			if seen[key] || prev.IsBlocked {
				continue
			}
			stats.Deleted++
			if req.Options.DryRun {
				continue
			}
			if err := s.wdays.DetachChildren(ctx, prev.ID); err != nil {
				return err
			}
			if err := s.wdays.Delete(ctx, prev.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return workerday.BatchStats{}, err
	}
	slog.Info("batch diff applied", "dry_run", req.Options.DryRun,
		"created", stats.Created, "updated", stats.Updated,
		"deleted", stats.Deleted, "skipped", stats.Skipped)
	return stats, nil
}

// ConfirmVacancy binds an open vacancy to an employee. A dayoff draft of the
// employee on the same date gives way; a working day blocks the takeover.
func (s *Service) ConfirmVacancy(ctx context.Context, actor workerday.Actor, req workerday.ConfirmVacancyRequest) (*workerday.WorkerDay, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var confirmed *workerday.WorkerDay
	err := s.db.WithTxRetry(ctx, func(ctx context.Context) error {
		vacancy, err := s.wdays.GetByID(ctx, req.VacancyID)
		if err != nil {
			return err
		}
		if !vacancy.IsVacancy {
			return &workerday.ValidationError{Field: "vacancy_id", Message: "worker day is not a vacancy"}
		}
		if vacancy.EmployeeID != nil {
			return workerday.ErrVacancyAlreadyTaken
		}

		emps, err := s.employments.ListByEmployee(ctx, req.EmployeeID)
		if err != nil {
			return err
		}
		emp := employment.Resolve(emps, nil, derefOr(vacancy.ShopID, ""), vacancy.Date)
		if emp == nil {
			return employment.ErrEmploymentNotFound
		}
		if emp.NetworkID != vacancy.NetworkID {
			if !vacancy.IsOutsource || !contains(vacancy.Outsources, emp.NetworkID) {
				return workerday.ErrVacancyNotOutsource
			}
		}

		if err := s.wdays.LockSlot(ctx, req.EmployeeID, vacancy.Date, vacancy.IsFact); err != nil {
			return err
		}
		occupant, err := s.wdays.GetSlot(ctx, workerday.SlotKey{
			EmployeeID: req.EmployeeID, Date: vacancy.Date, IsFact: vacancy.IsFact, IsApproved: vacancy.IsApproved,
		})
		if err != nil {
			return err
		}
		if occupant != nil {
			dt, _ := s.registry.Get(occupant.Type)
			if !dt.IsDayoff {
				return &workerday.ConflictError{
					ConflictingID: occupant.ID,
					Message:       "employee already has a working day on the vacancy date",
				}
			}
			if err := s.wdays.DetachChildren(ctx, occupant.ID); err != nil {
				return err
			}
			if err := s.wdays.Delete(ctx, occupant.ID); err != nil {
				return err
			}
		}

		vacancy.EmployeeID = &req.EmployeeID
		vacancy.EmploymentID = &emp.ID
		vacancy.LastEditedBy = strPtrOrNil(actor.UserID)
		if err := s.wdays.Update(ctx, vacancy); err != nil {
			return err
		}
		confirmed = vacancy
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.bus.Publish(events.Event{
		Name:      events.VacancyConfirmed,
		NetworkID: confirmed.NetworkID,
		Entity:    "worker_day",
		ID:        confirmed.ID,
		After:     events.Marshal(confirmed),
		Actor:     actor.UserID,
	})
	return confirmed, nil
}

// RecalcHours re-derives tabel times and the day/night split for every day
// of one shop, e.g. after a night-window or shop-schedule change. Each day
// commits on its own so a bad row does not roll back the whole range.
func (s *Service) RecalcHours(ctx context.Context, shopID string, from, to time.Time) (int, error) {
	shop, err := s.shops.GetShop(ctx, shopID)
	if err != nil {
		return 0, err
	}
	net, err := s.networks.GetByID(ctx, shop.NetworkID)
	if err != nil {
		return 0, err
	}
	days, err := s.wdays.ListShopRange(ctx, shopID, from, to)
	if err != nil {
		return 0, err
	}

	updated := 0
	for i := range days {
		wd := days[i]
		err := s.db.WithTxRetry(ctx, func(ctx context.Context) error {
			if err := s.computeHours(ctx, net, &wd); err != nil {
				return err
			}
			return s.wdays.Update(ctx, &wd)
		})
		if err != nil {
			slog.Error("worker day hours recalc failed", "worker_day_id", wd.ID, "error", err)
			continue
		}
		updated++
		s.bus.Publish(events.Event{
			Name:      events.WdChanged,
			NetworkID: net.ID,
			Entity:    "worker_day",
			ID:        wd.ID,
			After:     events.Marshal(&wd),
		})
	}
	slog.Info("worker day hours recalculated",
		"shop_id", shopID, "from", from.Format("2006-01-02"),
		"to", to.Format("2006-01-02"), "updated", updated)
	return updated, nil
}

// --- helpers ---

func (s *Service) checkGate(ctx context.Context, actor workerday.Actor, action workerday.Action, isFact bool, dayTypes []string, from, to time.Time) error {
	if actor.IsZero() || actor.GroupID == "" {
		// System jobs and integrations bypass the gate.
		return nil
	}
	return s.gate.Check(ctx, actor.GroupID, action, isFact, dayTypes, from, to)
}

func (s *Service) resolveEmployment(ctx context.Context, employeeID string, employmentID *string, shopID *string, date time.Time) (*employment.Employment, error) {
	emps, err := s.employments.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return employment.Resolve(emps, employmentID, derefOr(shopID, ""), date), nil
}

func (s *Service) loadDates(ctx context.Context, employeeID string, dates []time.Time, isFact, isApproved bool) ([]workerday.WorkerDay, error) {
	var out []workerday.WorkerDay
	for _, date := range dates {
		wd, err := s.wdays.GetSlot(ctx, workerday.SlotKey{
			EmployeeID: employeeID, Date: date, IsFact: isFact, IsApproved: isApproved,
		})
		if err != nil {
			return nil, err
		}
		if wd != nil {
			out = append(out, *wd)
		}
	}
	return out, nil
}

// cloneOnto copies a row onto another (employee, date), shifting instants by
// whole days so the time of day survives.
func cloneOnto(src *workerday.WorkerDay, employeeID string, date time.Time, isFact bool) *workerday.WorkerDay {
	clone := *src
	clone.ID = ""
	clone.Code = nil
	clone.EmployeeID = &employeeID
	clone.Date = date
	clone.IsFact = isFact
	clone.IsApproved = false
	clone.ParentID = nil
	clone.ClosestPlanID = nil

	shift := date.Sub(dateOnly(src.Date))
	clone.Start = shiftTime(src.Start, shift)
	clone.End = shiftTime(src.End, shift)
	clone.TabelStart = shiftTime(src.TabelStart, shift)
	clone.TabelEnd = shiftTime(src.TabelEnd, shift)

	clone.WorkParts = make([]workerday.WorkPart, len(src.WorkParts))
	for i, p := range src.WorkParts {
		clone.WorkParts[i] = workerday.WorkPart{
			WorkTypeID:   p.WorkTypeID,
			WorkTypeName: p.WorkTypeName,
			Rate:         p.Rate,
		}
	}
	return &clone
}

type batchScope struct {
	employeeIDs []string
	from, to    time.Time
	isFact      *bool
}

func (sc batchScope) fingerprint() string {
	ids := append([]string(nil), sc.employeeIDs...)
	sort.Strings(ids)
	return strings.Join(ids, ",") + "|" + sc.from.Format("2006-01-02") + "|" + sc.to.Format("2006-01-02")
}

// batchScope derives the diff scope from the payload and the explicit
// filters; explicit filters widen the deletion range beyond the payload.
func (s *Service) batchScope(req workerday.BatchUpdateRequest) (batchScope, error) {
	var sc batchScope
	seen := make(map[string]bool)
	for i := range req.Data {
		item := &req.Data[i]
		if item.EmployeeID != nil && !seen[*item.EmployeeID] {
			seen[*item.EmployeeID] = true
			sc.employeeIDs = append(sc.employeeIDs, *item.EmployeeID)
		}
		if sc.from.IsZero() || item.Date.Before(sc.from) {
			sc.from = item.Date
		}
		if sc.to.IsZero() || item.Date.After(sc.to) {
			sc.to = item.Date
		}
	}
	for key, val := range req.Options.DeleteScopeFilters {
		switch key {
		case "employee_id":
			if !seen[val] {
				sc.employeeIDs = append(sc.employeeIDs, val)
			}
		case "dt_from":
			t, err := time.Parse("2006-01-02", val)
			if err != nil {
				return sc, &workerday.ValidationError{Field: "delete_scope_filters", Message: "dt_from must be YYYY-MM-DD"}
			}
			sc.from = t
		case "dt_to":
			t, err := time.Parse("2006-01-02", val)
			if err != nil {
				return sc, &workerday.ValidationError{Field: "delete_scope_filters", Message: "dt_to must be YYYY-MM-DD"}
			}
			sc.to = t
		case "is_fact":
			v := val == "true" || val == "1"
			sc.isFact = &v
		}
	}
	if len(sc.employeeIDs) == 0 || sc.from.IsZero() || sc.to.IsZero() {
		return sc, &workerday.ValidationError{Field: "data", Message: "cannot derive a diff scope from the payload"}
	}
	return sc, nil
}

func batchKey(wd *workerday.WorkerDay, byCode bool) string {
	if byCode && wd.Code != nil {
		return "c:" + *wd.Code
	}
	emp := derefOr(wd.EmployeeID, "")
	return fmt.Sprintf("s:%s/%s/%t", emp, wd.Date.Format("2006-01-02"), wd.IsFact)
}

func requestKey(r *workerday.UpsertRequest, byCode bool) string {
	if byCode && r.Code != nil {
		return "c:" + *r.Code
	}
	emp := derefOr(r.EmployeeID, "")
	return fmt.Sprintf("s:%s/%s/%t", emp, r.Date.Format("2006-01-02"), r.IsFact)
}

// upsertMatches reports whether an incoming row is significant-equal to the
// stored one, so the diff can skip it.
func upsertMatches(prev *workerday.WorkerDay, r *workerday.UpsertRequest) bool {
	if prev.Type != r.Type {
		return false
	}
	if !timesEqual(prev.Start, r.StartTime) || !timesEqual(prev.End, r.EndTime) {
		return false
	}
	if r.ShopID != nil && (prev.ShopID == nil || *prev.ShopID != *r.ShopID) {
		return false
	}
	if len(prev.WorkParts) != len(r.WorkParts) {
		return false
	}
	for i := range r.WorkParts {
		if prev.WorkParts[i].WorkTypeID != r.WorkParts[i].WorkTypeID ||
			!prev.WorkParts[i].Rate.Equal(r.WorkParts[i].Rate) {
			return false
		}
	}
	return true
}

// planWithinDiff reports whether a plan is close enough to the fact
// interval to anchor slack windows: one of its edges must lie within
// maxDiff of the matching fact edge.
func planWithinDiff(plan *workerday.WorkerDay, start, end *time.Time, maxDiff time.Duration) bool {
	near := func(a, b *time.Time) bool {
		if a == nil || b == nil {
			return false
		}
		d := a.Sub(*b)
		if d < 0 {
			d = -d
		}
		return d <= maxDiff
	}
	return near(plan.Start, start) || near(plan.End, end)
}

func timesEqual(a, b *time.Time) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || a.Equal(*b)
}

func uniqueTypes(days []workerday.WorkerDay) []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range days {
		if !seen[d.Type] {
			seen[d.Type] = true
			out = append(out, d.Type)
		}
	}
	return out
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from) / (24 * time.Hour))
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func shiftTime(t *time.Time, d time.Duration) *time.Time {
	if t == nil {
		return nil
	}
	shifted := t.Add(d)
	return &shifted
}

func strPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefOr(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
