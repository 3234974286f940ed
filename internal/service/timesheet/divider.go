package timesheet

import (
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shiftlab/wfm-backend-go/internal/domain/daytype"
	"github.com/shiftlab/wfm-backend-go/internal/domain/timesheet"
)

// DividerInput is the material a strategy divides: the fact sheet of one
// employee-month plus the month norm.
type DividerInput struct {
	Facts      []timesheet.Item
	EmployeeID string
	Year       int
	Month      time.Month
	MonthNorm  decimal.Decimal
	Registry   *daytype.Registry
}

// DividerFunc is a pure strategy producing the main and additional sheets.
// Strategies never rewrite the fact sheet; it is an input.
type DividerFunc func(in DividerInput) (main, additional []timesheet.Item, err error)

// DividerRegistry maps strategy names to functions.
type DividerRegistry struct {
	mu sync.RWMutex
	m  map[string]DividerFunc
}

// NewDividerRegistry returns a registry with the built-in strategies.
func NewDividerRegistry() *DividerRegistry {
	r := &DividerRegistry{m: make(map[string]DividerFunc)}
	r.Register("default", DefaultDivider)
	r.Register("by_day_type", ByDayTypeDivider)
	return r
}

func (r *DividerRegistry) Register(name string, fn DividerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[name] = fn
}

// Get returns the named strategy; unknown names are surfaced to the
// caller as ErrUnknownDivider.
func (r *DividerRegistry) Get(name string) (DividerFunc, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.m[name]
	if !ok {
		return nil, timesheet.ErrUnknownDivider
	}
	return fn, nil
}

// DefaultDivider routes work to main up to the month norm, then overflows
// to additional. An item straddling the boundary is split in two.
func DefaultDivider(in DividerInput) ([]timesheet.Item, []timesheet.Item, error) {
	facts := make([]timesheet.Item, len(in.Facts))
	copy(facts, in.Facts)
	sort.SliceStable(facts, func(i, j int) bool {
		return facts[i].Date.Before(facts[j].Date)
	})

	var main, additional []timesheet.Item
	remaining := in.MonthNorm
	for _, it := range facts {
		total := it.TotalHours()
		if total.IsZero() {
			// Zero-hour rows (absences, holidays) stay on the main sheet.
			main = append(main, retyped(it, timesheet.SheetMain))
			continue
		}
		switch {
		case remaining.GreaterThanOrEqual(total):
			main = append(main, retyped(it, timesheet.SheetMain))
			remaining = remaining.Sub(total)
		case remaining.IsPositive():
			mainPart, addPart := splitItem(it, remaining)
			main = append(main, retyped(mainPart, timesheet.SheetMain))
			additional = append(additional, retyped(addPart, timesheet.SheetAdditional))
			remaining = decimal.Zero
		default:
			additional = append(additional, retyped(it, timesheet.SheetAdditional))
		}
	}
	return main, additional, nil
}

// ByDayTypeDivider routes norm-reducing and dayoff work-hour types to
// additional and everything else to main, regardless of the norm.
func ByDayTypeDivider(in DividerInput) ([]timesheet.Item, []timesheet.Item, error) {
	var main, additional []timesheet.Item
	for _, it := range in.Facts {
		toAdditional := false
		if in.Registry != nil {
			if dt, ok := in.Registry.Get(it.DayType); ok {
				toAdditional = dt.IsDayoff && dt.IsWorkHours
			}
		}
		if toAdditional {
			additional = append(additional, retyped(it, timesheet.SheetAdditional))
		} else {
			main = append(main, retyped(it, timesheet.SheetMain))
		}
	}
	return main, additional, nil
}

func retyped(it timesheet.Item, st timesheet.SheetType) timesheet.Item {
	it.ID = ""
	it.SheetType = st
	return it
}

// splitItem divides an item's hours so the first part holds exactly
// mainHours, taking day hours before night hours.
func splitItem(it timesheet.Item, mainHours decimal.Decimal) (timesheet.Item, timesheet.Item) {
	first, second := it, it

	dayFirst := decimal.Min(it.DayHours, mainHours)
	nightFirst := mainHours.Sub(dayFirst)
	if nightFirst.GreaterThan(it.NightHours) {
		nightFirst = it.NightHours
	}

	first.DayHours = dayFirst
	first.NightHours = nightFirst
	second.DayHours = it.DayHours.Sub(dayFirst)
	second.NightHours = it.NightHours.Sub(nightFirst)
	return first, second
}
