package employment

import (
	"sort"
	"time"
)

// SortByPriority orders employments by the deterministic selection rule:
// is_visible desc, same-shop desc, norm_work_hours desc, then id for a
// stable tie-break.
func SortByPriority(emps []Employment, shopID string) {
	sort.SliceStable(emps, func(i, j int) bool {
		a, b := emps[i], emps[j]
		if a.IsVisible != b.IsVisible {
			return a.IsVisible
		}
		aShop, bShop := a.ShopID == shopID, b.ShopID == shopID
		if aShop != bShop {
			return aShop
		}
		if a.NormWorkHours != b.NormWorkHours {
			return a.NormWorkHours > b.NormWorkHours
		}
		return a.ID < b.ID
	})
}

// Resolve picks the employment for a worker day: exact id first, then the
// highest-priority employment active on date, preferring shopID.
func Resolve(emps []Employment, exactID *string, shopID string, date time.Time) *Employment {
	if exactID != nil {
		for i := range emps {
			if emps[i].ID == *exactID {
				return &emps[i]
			}
		}
		return nil
	}
	active := make([]Employment, 0, len(emps))
	for _, e := range emps {
		if e.ActiveOn(date) {
			active = append(active, e)
		}
	}
	if len(active) == 0 {
		return nil
	}
	SortByPriority(active, shopID)
	return &active[0]
}
