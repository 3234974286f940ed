package timesheet

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftlab/wfm-backend-go/internal/domain/calendar"
	"github.com/shiftlab/wfm-backend-go/internal/domain/daytype"
	"github.com/shiftlab/wfm-backend-go/internal/domain/employment"
	"github.com/shiftlab/wfm-backend-go/internal/domain/network"
	"github.com/shiftlab/wfm-backend-go/internal/domain/timesheet"
	"github.com/shiftlab/wfm-backend-go/internal/domain/workerday"
	"github.com/shiftlab/wfm-backend-go/internal/pkg/events"
	calendarsvc "github.com/shiftlab/wfm-backend-go/internal/service/calendar"
	normsvc "github.com/shiftlab/wfm-backend-go/internal/service/norm"
)

type passRunner struct{}

func (passRunner) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (passRunner) WithTxRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeWdayRepo struct {
	rows map[string]*workerday.WorkerDay
}

func newFakeWdayRepo() *fakeWdayRepo {
	return &fakeWdayRepo{rows: make(map[string]*workerday.WorkerDay)}
}

func copyDay(wd *workerday.WorkerDay) *workerday.WorkerDay {
	c := *wd
	c.WorkParts = append([]workerday.WorkPart(nil), wd.WorkParts...)
	return &c
}

func (f *fakeWdayRepo) add(wd workerday.WorkerDay) *workerday.WorkerDay {
	if wd.ID == "" {
		wd.ID = uuid.NewString()
	}
	f.rows[wd.ID] = copyDay(&wd)
	return copyDay(&wd)
}

func (f *fakeWdayRepo) GetByID(_ context.Context, id string) (*workerday.WorkerDay, error) {
	wd, ok := f.rows[id]
	if !ok {
		return nil, workerday.ErrNotFound
	}
	return copyDay(wd), nil
}

func (f *fakeWdayRepo) GetByCode(_ context.Context, networkID, code string) (*workerday.WorkerDay, error) {
	for _, wd := range f.rows {
		if wd.NetworkID == networkID && wd.Code != nil && *wd.Code == code && !wd.IsArchived {
			return copyDay(wd), nil
		}
	}
	return nil, workerday.ErrNotFound
}

func matchSlot(wd *workerday.WorkerDay, key workerday.SlotKey) bool {
	return wd.EmployeeID != nil && *wd.EmployeeID == key.EmployeeID &&
		wd.Date.Equal(key.Date) && wd.IsFact == key.IsFact &&
		wd.IsApproved == key.IsApproved && !wd.IsArchived
}

func (f *fakeWdayRepo) GetSlot(_ context.Context, key workerday.SlotKey) (*workerday.WorkerDay, error) {
	for _, wd := range f.rows {
		if matchSlot(wd, key) {
			return copyDay(wd), nil
		}
	}
	return nil, nil
}

func (f *fakeWdayRepo) ListSlot(_ context.Context, key workerday.SlotKey) ([]workerday.WorkerDay, error) {
	var out []workerday.WorkerDay
	for _, wd := range f.rows {
		if matchSlot(wd, key) {
			out = append(out, *copyDay(wd))
		}
	}
	return out, nil
}

func (f *fakeWdayRepo) LastPlan(ctx context.Context, employeeID string, date time.Time) (*workerday.WorkerDay, error) {
	return f.GetSlot(ctx, workerday.SlotKey{EmployeeID: employeeID, Date: date, IsFact: false, IsApproved: true})
}

func (f *fakeWdayRepo) OpenFactShifts(_ context.Context, employeeID string, asOf time.Time, maxShift time.Duration) ([]workerday.WorkerDay, error) {
	return nil, nil
}

func (f *fakeWdayRepo) TimesheetScan(_ context.Context, employeeID string, from, to time.Time) ([]workerday.WorkerDay, error) {
	var out []workerday.WorkerDay
	for _, wd := range f.rows {
		if wd.IsArchived || wd.EmployeeID == nil || *wd.EmployeeID != employeeID {
			continue
		}
		if wd.Date.Before(from) || wd.Date.After(to) {
			continue
		}
		out = append(out, *copyDay(wd))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (f *fakeWdayRepo) ListRange(_ context.Context, employeeIDs []string, from, to time.Time, isFact, isApproved *bool) ([]workerday.WorkerDay, error) {
	want := make(map[string]bool, len(employeeIDs))
	for _, id := range employeeIDs {
		want[id] = true
	}
	var out []workerday.WorkerDay
	for _, wd := range f.rows {
		if wd.IsArchived || wd.EmployeeID == nil {
			continue
		}
		if len(want) > 0 && !want[*wd.EmployeeID] {
			continue
		}
		if wd.Date.Before(from) || wd.Date.After(to) {
			continue
		}
		if isFact != nil && wd.IsFact != *isFact {
			continue
		}
		if isApproved != nil && wd.IsApproved != *isApproved {
			continue
		}
		out = append(out, *copyDay(wd))
	}
	return out, nil
}

func (f *fakeWdayRepo) ListShopRange(_ context.Context, shopID string, from, to time.Time) ([]workerday.WorkerDay, error) {
	return nil, nil
}

func (f *fakeWdayRepo) ListVacancies(_ context.Context, shopID string, from, to time.Time) ([]workerday.WorkerDay, error) {
	return nil, nil
}

func (f *fakeWdayRepo) Create(_ context.Context, wd *workerday.WorkerDay) (*workerday.WorkerDay, error) {
	stored := copyDay(wd)
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	f.rows[stored.ID] = stored
	return copyDay(stored), nil
}

func (f *fakeWdayRepo) Update(_ context.Context, wd *workerday.WorkerDay) error {
	if _, ok := f.rows[wd.ID]; !ok {
		return workerday.ErrNotFound
	}
	f.rows[wd.ID] = copyDay(wd)
	return nil
}

func (f *fakeWdayRepo) Delete(_ context.Context, id string) error {
	delete(f.rows, id)
	return nil
}

func (f *fakeWdayRepo) ReplaceParts(_ context.Context, workerDayID string, parts []workerday.WorkPart) error {
	wd, ok := f.rows[workerDayID]
	if !ok {
		return workerday.ErrNotFound
	}
	wd.WorkParts = append([]workerday.WorkPart(nil), parts...)
	return nil
}

func (f *fakeWdayRepo) DetachChildren(context.Context, string) error { return nil }

func (f *fakeWdayRepo) LockSlot(context.Context, string, time.Time, bool) error { return nil }

type fakeEmploymentRepo struct {
	emps []employment.Employment
}

func (f *fakeEmploymentRepo) GetByID(_ context.Context, id string) (employment.Employment, error) {
	for _, e := range f.emps {
		if e.ID == id {
			return e, nil
		}
	}
	return employment.Employment{}, employment.ErrEmploymentNotFound
}

func (f *fakeEmploymentRepo) GetByCode(_ context.Context, networkID, code string) (employment.Employment, error) {
	return employment.Employment{}, employment.ErrEmploymentNotFound
}

func (f *fakeEmploymentRepo) ListByEmployee(_ context.Context, employeeID string) ([]employment.Employment, error) {
	var out []employment.Employment
	for _, e := range f.emps {
		if e.EmployeeID == employeeID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEmploymentRepo) ListByUser(_ context.Context, userID string) ([]employment.Employment, error) {
	return nil, nil
}

func (f *fakeEmploymentRepo) ListActiveInRange(_ context.Context, employeeIDs []string, from, to time.Time) ([]employment.Employment, error) {
	want := make(map[string]bool, len(employeeIDs))
	for _, id := range employeeIDs {
		want[id] = true
	}
	var out []employment.Employment
	for _, e := range f.emps {
		if !want[e.EmployeeID] {
			continue
		}
		if _, _, ok := e.Overlap(from, to); ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEmploymentRepo) ListEmployeeIDs(context.Context, string, time.Time) ([]string, error) {
	return nil, nil
}

type fakeShopRepo struct {
	shops     map[string]employment.Shop
	positions map[string]employment.Position
}

func (f *fakeShopRepo) GetShop(_ context.Context, id string) (employment.Shop, error) {
	shop, ok := f.shops[id]
	if !ok {
		return employment.Shop{}, employment.ErrShopNotFound
	}
	return shop, nil
}

func (f *fakeShopRepo) GetShopByCode(context.Context, string, string) (employment.Shop, error) {
	return employment.Shop{}, employment.ErrShopNotFound
}

func (f *fakeShopRepo) ListShops(context.Context, string) ([]employment.Shop, error) {
	return nil, nil
}

func (f *fakeShopRepo) GetPosition(_ context.Context, id string) (employment.Position, error) {
	pos, ok := f.positions[id]
	if !ok {
		return employment.Position{}, employment.ErrPositionNotFound
	}
	return pos, nil
}

type fakeNetworkRepo struct {
	net network.Network
}

func (f *fakeNetworkRepo) GetByID(context.Context, string) (network.Network, error) {
	return f.net, nil
}

func (f *fakeNetworkRepo) GetByCode(context.Context, string) (network.Network, error) {
	return f.net, nil
}

func (f *fakeNetworkRepo) List(context.Context) ([]network.Network, error) {
	return []network.Network{f.net}, nil
}

func (f *fakeNetworkRepo) ListSawhSettings(context.Context, string) ([]network.SawhSettings, error) {
	return nil, nil
}

func (f *fakeNetworkRepo) ListSawhMappings(context.Context, string) ([]network.SawhMapping, error) {
	return nil, nil
}

type fakeCalendarRepo struct{}

func (fakeCalendarRepo) GetRegion(_ context.Context, id string) (calendar.Region, error) {
	return calendar.Region{ID: id}, nil
}

func (fakeCalendarRepo) ListRange(context.Context, string, time.Time, time.Time) ([]calendar.ProductionDay, error) {
	return nil, nil
}

func (fakeCalendarRepo) Upsert(_ context.Context, d calendar.ProductionDay) (calendar.ProductionDay, error) {
	return d, nil
}

type fakeItemsRepo struct {
	items []timesheet.Item
}

func (f *fakeItemsRepo) ListRange(_ context.Context, employeeIDs []string, from, to time.Time, sheetTypes []timesheet.SheetType) ([]timesheet.Item, error) {
	want := make(map[string]bool, len(employeeIDs))
	for _, id := range employeeIDs {
		want[id] = true
	}
	types := make(map[timesheet.SheetType]bool, len(sheetTypes))
	for _, st := range sheetTypes {
		types[st] = true
	}
	var out []timesheet.Item
	for _, it := range f.items {
		if len(want) > 0 && !want[it.EmployeeID] {
			continue
		}
		if it.Date.Before(from) || it.Date.After(to) {
			continue
		}
		if len(types) > 0 && !types[it.SheetType] {
			continue
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (f *fakeItemsRepo) ReplaceMonth(_ context.Context, employeeID string, year int, month time.Month, sheetTypes []timesheet.SheetType, items []timesheet.Item) error {
	drop := make(map[timesheet.SheetType]bool, len(sheetTypes))
	for _, st := range sheetTypes {
		drop[st] = true
	}
	keep := f.items[:0:0]
	for _, it := range f.items {
		if it.EmployeeID == employeeID && it.Date.Year() == year && it.Date.Month() == month && drop[it.SheetType] {
			continue
		}
		keep = append(keep, it)
	}
	f.items = append(keep, items...)
	return nil
}

func strPtr(s string) *string { return &s }

func calcDay(d int) time.Time {
	return time.Date(2024, 5, d, 0, 0, 0, 0, time.UTC)
}

func newTestCalculator() (*Calculator, *fakeWdayRepo, *fakeItemsRepo) {
	wdays := newFakeWdayRepo()
	items := &fakeItemsRepo{}
	emps := &fakeEmploymentRepo{emps: []employment.Employment{{
		ID: "emp-1", NetworkID: "net-1", EmployeeID: "e1", UserID: "u1", ShopID: "shop-1",
		FunctionGroupID: "g1", HiredAt: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		NormWorkHours: 100, IsVisible: true,
	}}}
	shops := &fakeShopRepo{
		shops:     map[string]employment.Shop{"shop-1": {ID: "shop-1", NetworkID: "net-1", Name: "Main", RegionID: "r1"}},
		positions: map[string]employment.Position{},
	}
	nets := &fakeNetworkRepo{net: network.Network{ID: "net-1", Name: "Net", Settings: network.DefaultSettings()}}
	registry := daytype.NewRegistry()
	norm := normsvc.NewService(calendarsvc.NewService(fakeCalendarRepo{}), wdays, emps, shops, nets, registry)
	calc := NewCalculator(passRunner{}, wdays, items, emps, nets, registry, norm,
		NewDividerRegistry(), events.NewBus(1, 16)).
		WithClock(func() time.Time { return time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC) })
	return calc, wdays, items
}

func seedApproved(wdays *fakeWdayRepo, d time.Time, isFact bool, dayHours int64) *workerday.WorkerDay {
	return wdays.add(workerday.WorkerDay{
		NetworkID: "net-1", EmployeeID: strPtr("e1"), EmploymentID: strPtr("emp-1"),
		ShopID: strPtr("shop-1"), Date: d, Type: daytype.Workday,
		IsFact: isFact, IsApproved: true,
		DayHours: decimal.NewFromInt(dayHours),
	})
}

func itemOn(items []timesheet.Item, d time.Time) (timesheet.Item, bool) {
	for _, it := range items {
		if it.Date.Equal(d) {
			return it, true
		}
	}
	return timesheet.Item{}, false
}

func TestRecalcMonth_FactWinsOverPlan(t *testing.T) {
	calc, wdays, items := newTestCalculator()
	ctx := context.Background()

	seedApproved(wdays, calcDay(10), false, 9)
	seedApproved(wdays, calcDay(10), true, 8)

	require.NoError(t, calc.RecalcMonth(ctx, "e1", 2024, time.May))

	facts, err := items.ListRange(ctx, []string{"e1"}, calcDay(1), calcDay(31), []timesheet.SheetType{timesheet.SheetFact})
	require.NoError(t, err)
	assert.Len(t, facts, 31)

	it, ok := itemOn(facts, calcDay(10))
	require.True(t, ok)
	assert.Equal(t, timesheet.SourceFact, it.Source)
	assert.True(t, it.DayHours.Equal(decimal.NewFromInt(8)), it.DayHours.String())

	// A day with neither graph falls back to a system holiday.
	empty, ok := itemOn(facts, calcDay(11))
	require.True(t, ok)
	assert.Equal(t, timesheet.SourceSystem, empty.Source)
	assert.Equal(t, daytype.Holiday, empty.DayType)
	assert.True(t, empty.DayHours.IsZero())
}

func TestRecalcMonth_PastPlanWithoutFactMarksAbsence(t *testing.T) {
	calc, wdays, items := newTestCalculator()
	ctx := context.Background()

	seedApproved(wdays, calcDay(5), false, 9)
	seedApproved(wdays, calcDay(25), false, 9)

	require.NoError(t, calc.RecalcMonth(ctx, "e1", 2024, time.May))

	facts, err := items.ListRange(ctx, []string{"e1"}, calcDay(1), calcDay(31), []timesheet.SheetType{timesheet.SheetFact})
	require.NoError(t, err)

	// May 5 lies before the clock's today: planned, nobody came.
	past, ok := itemOn(facts, calcDay(5))
	require.True(t, ok)
	assert.Equal(t, daytype.Absence, past.DayType)
	assert.Equal(t, timesheet.SourceSystem, past.Source)
	assert.True(t, past.DayHours.IsZero())

	// May 25 is still ahead, so the plan stands in for the fact.
	future, ok := itemOn(facts, calcDay(25))
	require.True(t, ok)
	assert.Equal(t, timesheet.SourcePlan, future.Source)
	assert.True(t, future.DayHours.Equal(decimal.NewFromInt(9)), future.DayHours.String())
}

func TestRecalcMonth_Idempotent(t *testing.T) {
	calc, wdays, items := newTestCalculator()
	ctx := context.Background()

	seedApproved(wdays, calcDay(10), true, 8)

	require.NoError(t, calc.RecalcMonth(ctx, "e1", 2024, time.May))
	first := len(items.items)
	main, err := items.ListRange(ctx, []string{"e1"}, calcDay(1), calcDay(31), []timesheet.SheetType{timesheet.SheetMain})
	require.NoError(t, err)
	assert.Len(t, main, 31)

	require.NoError(t, calc.RecalcMonth(ctx, "e1", 2024, time.May))
	assert.Equal(t, first, len(items.items))

	mainAgain, err := items.ListRange(ctx, []string{"e1"}, calcDay(1), calcDay(31), []timesheet.SheetType{timesheet.SheetMain})
	require.NoError(t, err)
	assert.Len(t, mainAgain, len(main))
}
