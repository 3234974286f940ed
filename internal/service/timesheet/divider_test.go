package timesheet

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftlab/wfm-backend-go/internal/domain/daytype"
	"github.com/shiftlab/wfm-backend-go/internal/domain/timesheet"
)

func factItem(day int, hours int64) timesheet.Item {
	return timesheet.Item{
		EmployeeID: "emp-1",
		Date:       time.Date(2024, 5, day, 0, 0, 0, 0, time.UTC),
		DayType:    daytype.Workday,
		SheetType:  timesheet.SheetFact,
		Source:     timesheet.SourceFact,
		DayHours:   decimal.NewFromInt(hours),
	}
}

func sumHours(items []timesheet.Item) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.TotalHours())
	}
	return sum
}

func TestDefaultDivider_OverflowGoesToAdditional(t *testing.T) {
	// 19 ten-hour days: 190 fact hours against a 176 hour norm.
	var facts []timesheet.Item
	for d := 1; d <= 19; d++ {
		facts = append(facts, factItem(d, 10))
	}

	main, additional, err := DefaultDivider(DividerInput{
		Facts:     facts,
		MonthNorm: decimal.NewFromInt(176),
	})
	require.NoError(t, err)

	assert.True(t, sumHours(main).Equal(decimal.NewFromInt(176)), "main = %s", sumHours(main))
	assert.True(t, sumHours(additional).Equal(decimal.NewFromInt(14)), "additional = %s", sumHours(additional))
	for _, it := range main {
		assert.Equal(t, timesheet.SheetMain, it.SheetType)
	}
	for _, it := range additional {
		assert.Equal(t, timesheet.SheetAdditional, it.SheetType)
	}
}

func TestDefaultDivider_SplitsStraddlingItem(t *testing.T) {
	facts := []timesheet.Item{factItem(1, 8), factItem(2, 8)}

	main, additional, err := DefaultDivider(DividerInput{
		Facts:     facts,
		MonthNorm: decimal.NewFromInt(12),
	})
	require.NoError(t, err)

	require.Len(t, main, 2)
	require.Len(t, additional, 1)
	assert.True(t, main[1].TotalHours().Equal(decimal.NewFromInt(4)))
	assert.True(t, additional[0].TotalHours().Equal(decimal.NewFromInt(4)))
	assert.Equal(t, main[1].Date, additional[0].Date)
}

func TestDefaultDivider_ZeroHourRowsStayOnMain(t *testing.T) {
	absence := factItem(3, 0)
	absence.DayType = daytype.Absence
	facts := []timesheet.Item{factItem(1, 8), absence, factItem(2, 8)}

	main, additional, err := DefaultDivider(DividerInput{
		Facts:     facts,
		MonthNorm: decimal.NewFromInt(8),
	})
	require.NoError(t, err)

	assert.Len(t, additional, 1)
	var seen bool
	for _, it := range main {
		if it.DayType == daytype.Absence {
			seen = true
		}
	}
	assert.True(t, seen, "zero-hour absence must stay on the main sheet")
}

func TestDefaultDivider_UnderNormKeepsEverythingMain(t *testing.T) {
	facts := []timesheet.Item{factItem(1, 8), factItem(2, 8)}

	main, additional, err := DefaultDivider(DividerInput{
		Facts:     facts,
		MonthNorm: decimal.NewFromInt(176),
	})
	require.NoError(t, err)
	assert.Len(t, main, 2)
	assert.Empty(t, additional)
}

func TestByDayTypeDivider(t *testing.T) {
	trip := factItem(2, 8)
	trip.DayType = daytype.BusinessTrip
	facts := []timesheet.Item{factItem(1, 8), trip}

	main, additional, err := ByDayTypeDivider(DividerInput{
		Facts:    facts,
		Registry: daytype.NewRegistry(),
	})
	require.NoError(t, err)
	require.Len(t, main, 1)
	require.Len(t, additional, 1)
	assert.Equal(t, daytype.Workday, main[0].DayType)
	assert.Equal(t, daytype.BusinessTrip, additional[0].DayType)
}

func TestDividerRegistry_UnknownName(t *testing.T) {
	_, err := NewDividerRegistry().Get("nope")
	assert.ErrorIs(t, err, timesheet.ErrUnknownDivider)
}

func TestDividerRegistry_Builtins(t *testing.T) {
	r := NewDividerRegistry()
	for _, name := range []string{"default", "by_day_type"} {
		fn, err := r.Get(name)
		require.NoError(t, err, name)
		require.NotNil(t, fn, name)
	}
}
