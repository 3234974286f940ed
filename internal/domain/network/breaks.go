package network

import "fmt"

// BreakRule maps a shift length interval onto the break durations owed for
// it. Intervals are half-open [Min, Max) in minutes of pre-break length.
type BreakRule struct {
	MinShiftMinutes int   `json:"min_shift_minutes"`
	MaxShiftMinutes int   `json:"max_shift_minutes"`
	BreakMinutes    []int `json:"break_minutes"`
}

// ValidateBreaks checks the triplet table covers a contiguous,
// non-overlapping range starting at 0.
func ValidateBreaks(rules []BreakRule) error {
	next := 0
	for i, r := range rules {
		if r.MinShiftMinutes != next {
			return fmt.Errorf("break rule %d: interval must start at %d, got %d", i, next, r.MinShiftMinutes)
		}
		if r.MaxShiftMinutes <= r.MinShiftMinutes {
			return fmt.Errorf("break rule %d: empty interval [%d, %d)", i, r.MinShiftMinutes, r.MaxShiftMinutes)
		}
		for _, b := range r.BreakMinutes {
			if b < 0 {
				return fmt.Errorf("break rule %d: negative break duration %d", i, b)
			}
		}
		next = r.MaxShiftMinutes
	}
	return nil
}

// BreaksFor returns the break durations for a shift of shiftMinutes
// pre-break length. A length past the covered range gets the last rule's
// breaks; an empty table means no breaks.
func (s Settings) BreaksFor(shiftMinutes int) []int {
	if len(s.Breaks) == 0 || shiftMinutes <= 0 {
		return nil
	}
	for _, r := range s.Breaks {
		if shiftMinutes >= r.MinShiftMinutes && shiftMinutes < r.MaxShiftMinutes {
			return r.BreakMinutes
		}
	}
	return s.Breaks[len(s.Breaks)-1].BreakMinutes
}

// TotalBreakMinutes sums the breaks owed for a shift.
func (s Settings) TotalBreakMinutes(shiftMinutes int) int {
	total := 0
	for _, b := range s.BreaksFor(shiftMinutes) {
		total += b
	}
	return total
}
