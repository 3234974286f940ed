package network

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SAWH rule types.
const (
	SawhFractionOfProdcal = "fraction_of_prodcal_sum"
	SawhFixedHours        = "fixed_hours_per_month"
	SawhShiftSchedule     = "shift_schedule_bound"
)

// SawhSettings is one named summarized-accounting rule of a network.
// WorkHoursByMonth is decoded once from the work_hours_by_months JSON
// column: month number to coefficient or fixed hours, depending on Type.
type SawhSettings struct {
	ID               string
	NetworkID        string
	Name             string
	Type             string
	WorkHoursByMonth map[time.Month]decimal.Decimal
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// SawhMapping binds a rule to shops and/or positions. Lower Priority wins;
// nil ShopID / PositionID act as wildcards.
type SawhMapping struct {
	ID             string
	SawhSettingsID string
	ShopID         *string
	PositionID     *string
	Priority       int
}

// Matches reports whether the mapping applies to (shopID, positionID).
func (m SawhMapping) Matches(shopID string, positionID *string) bool {
	if m.ShopID != nil && *m.ShopID != shopID {
		return false
	}
	if m.PositionID != nil {
		if positionID == nil || *m.PositionID != *positionID {
			return false
		}
	}
	return true
}

// ResolveSawh picks the highest-priority mapping matching (shopID,
// positionID). Specific mappings beat wildcards at equal priority.
func ResolveSawh(mappings []SawhMapping, shopID string, positionID *string) *SawhMapping {
	var best *SawhMapping
	for i := range mappings {
		m := &mappings[i]
		if !m.Matches(shopID, positionID) {
			continue
		}
		if best == nil || m.Priority < best.Priority ||
			(m.Priority == best.Priority && specificity(m) > specificity(best)) {
			best = m
		}
	}
	return best
}

func specificity(m *SawhMapping) int {
	n := 0
	if m.ShopID != nil {
		n++
	}
	if m.PositionID != nil {
		n++
	}
	return n
}

// DecodeWorkHoursByMonths parses the work_hours_by_months JSON column,
// keyed "m1".."m12".
func DecodeWorkHoursByMonths(raw []byte) (map[time.Month]decimal.Decimal, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var byKey map[string]decimal.Decimal
	if err := json.Unmarshal(raw, &byKey); err != nil {
		return nil, fmt.Errorf("decode work_hours_by_months: %w", err)
	}
	out := make(map[time.Month]decimal.Decimal, len(byKey))
	for k, v := range byKey {
		var m int
		if _, err := fmt.Sscanf(k, "m%d", &m); err != nil || m < 1 || m > 12 {
			return nil, fmt.Errorf("work_hours_by_months: bad month key %q", k)
		}
		out[time.Month(m)] = v
	}
	return out, nil
}
