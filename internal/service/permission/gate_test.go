package permission

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftlab/wfm-backend-go/internal/domain/daytype"
	"github.com/shiftlab/wfm-backend-go/internal/domain/workerday"
)

type fakePermRepo struct {
	perms []workerday.Permission
}

func (f fakePermRepo) ListForGroup(ctx context.Context, groupID string) ([]workerday.Permission, error) {
	return f.perms, nil
}

func fixedNow() time.Time {
	return time.Date(2024, 5, 15, 10, 30, 0, 0, time.UTC)
}

func date(day int) time.Time {
	return time.Date(2024, 5, day, 0, 0, 0, 0, time.UTC)
}

func TestGate_AllowsRangeInsideWindow(t *testing.T) {
	gate := NewGate(fakePermRepo{perms: []workerday.Permission{
		{GroupID: "g1", Action: workerday.ActionCreateOrUpdate, Type: daytype.Workday, DaysInPast: 3, DaysInFuture: 7},
	}}).WithClock(fixedNow)

	err := gate.Check(context.Background(), "g1", workerday.ActionCreateOrUpdate, false,
		[]string{daytype.Workday}, date(12), date(22))
	assert.NoError(t, err)
}

func TestGate_RejectsDateOutsideWindow(t *testing.T) {
	gate := NewGate(fakePermRepo{perms: []workerday.Permission{
		{GroupID: "g1", Action: workerday.ActionCreateOrUpdate, Type: daytype.Workday, DaysInPast: 3, DaysInFuture: 7},
	}}).WithClock(fixedNow)

	err := gate.Check(context.Background(), "g1", workerday.ActionCreateOrUpdate, false,
		[]string{daytype.Workday}, date(20), date(23))

	var perr *workerday.PermissionError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, date(12), perr.WindowFrom)
	assert.Equal(t, date(22), perr.WindowTo)
	assert.Equal(t, date(23), perr.FailingDate)
	assert.Equal(t, daytype.Workday, perr.DayType)
}

func TestGate_RejectsMissingDayTypePermission(t *testing.T) {
	gate := NewGate(fakePermRepo{perms: []workerday.Permission{
		{GroupID: "g1", Action: workerday.ActionCreateOrUpdate, Type: daytype.Workday, DaysInPast: 30, DaysInFuture: 30},
	}}).WithClock(fixedNow)

	err := gate.Check(context.Background(), "g1", workerday.ActionCreateOrUpdate, false,
		[]string{daytype.Vacation}, date(15), date(15))

	var perr *workerday.PermissionError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, daytype.Vacation, perr.DayType)
	assert.True(t, perr.WindowFrom.IsZero())
}

func TestGate_GraphAndActionMustMatch(t *testing.T) {
	gate := NewGate(fakePermRepo{perms: []workerday.Permission{
		{GroupID: "g1", Action: workerday.ActionCreateOrUpdate, IsFact: false, Type: daytype.Workday, DaysInPast: 30, DaysInFuture: 30},
	}}).WithClock(fixedNow)

	// Same day type, fact graph: not covered.
	err := gate.Check(context.Background(), "g1", workerday.ActionCreateOrUpdate, true,
		[]string{daytype.Workday}, date(15), date(15))
	assert.Error(t, err)

	// Same day type, delete action: not covered.
	err = gate.Check(context.Background(), "g1", workerday.ActionDelete, false,
		[]string{daytype.Workday}, date(15), date(15))
	assert.Error(t, err)
}

func TestGate_UnionOfWindowsCoversRange(t *testing.T) {
	// One permission reaches into the past, the other into the future;
	// neither alone covers the range but together they do.
	gate := NewGate(fakePermRepo{perms: []workerday.Permission{
		{GroupID: "g1", Action: workerday.ActionCreateOrUpdate, Type: daytype.Workday, DaysInPast: 5, DaysInFuture: 0},
		{GroupID: "g1", Action: workerday.ActionCreateOrUpdate, Type: daytype.Workday, DaysInPast: 0, DaysInFuture: 6},
	}}).WithClock(fixedNow)

	err := gate.Check(context.Background(), "g1", workerday.ActionCreateOrUpdate, false,
		[]string{daytype.Workday}, date(12), date(14))
	assert.NoError(t, err)

	err = gate.Check(context.Background(), "g1", workerday.ActionCreateOrUpdate, false,
		[]string{daytype.Workday}, date(12), date(21))
	assert.NoError(t, err)

	// 2024-05-08 precedes both windows; the nearer one is reported.
	err = gate.Check(context.Background(), "g1", workerday.ActionCreateOrUpdate, false,
		[]string{daytype.Workday}, date(8), date(8))
	var perr *workerday.PermissionError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, date(10), perr.WindowFrom)
	assert.Equal(t, date(15), perr.WindowTo)
	assert.Equal(t, date(8), perr.FailingDate)
}

func TestGate_WidestWindowWins(t *testing.T) {
	gate := NewGate(fakePermRepo{perms: []workerday.Permission{
		{GroupID: "g1", Action: workerday.ActionApprove, Type: daytype.Workday, DaysInPast: 1, DaysInFuture: 1},
		{GroupID: "g1", Action: workerday.ActionApprove, Type: daytype.Workday, DaysInPast: 5, DaysInFuture: 5},
	}}).WithClock(fixedNow)

	err := gate.Check(context.Background(), "g1", workerday.ActionApprove, false,
		[]string{daytype.Workday}, date(10), date(20))
	assert.NoError(t, err)
}

func TestGate_CheckDates(t *testing.T) {
	gate := NewGate(fakePermRepo{perms: []workerday.Permission{
		{GroupID: "g1", Action: workerday.ActionCreateOrUpdate, Type: daytype.Workday, DaysInPast: 3, DaysInFuture: 3},
	}}).WithClock(fixedNow)

	err := gate.CheckDates(context.Background(), "g1", workerday.ActionCreateOrUpdate, false,
		[]string{daytype.Workday}, []time.Time{date(14), date(16)})
	assert.NoError(t, err)

	err = gate.CheckDates(context.Background(), "g1", workerday.ActionCreateOrUpdate, false,
		[]string{daytype.Workday}, []time.Time{date(14), date(25)})
	var perr *workerday.PermissionError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, date(25), perr.FailingDate)
}
