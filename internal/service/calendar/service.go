package calendar

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shiftlab/wfm-backend-go/internal/domain/calendar"
)

// Service resolves production days with region-tree fallback and caches
// per-month norm sums. The calendar is append-mostly; Upsert invalidates
// the affected month.
type Service struct {
	repo calendar.Repository

	mu    sync.RWMutex
	cache map[monthKey]decimal.Decimal
}

type monthKey struct {
	regionID string
	year     int
	month    time.Month
}

func NewService(repo calendar.Repository) *Service {
	return &Service{repo: repo, cache: make(map[monthKey]decimal.Decimal)}
}

// DaysInRange returns the production days of [from, to] for regionID,
// walking up the region tree per date: the most specific region carrying a
// row wins.
func (s *Service) DaysInRange(ctx context.Context, regionID string, from, to time.Time) ([]calendar.ProductionDay, error) {
	chain, err := s.regionChain(ctx, regionID)
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]calendar.ProductionDay)
	// Walk ancestors first so leaf rows overwrite them.
	for i := len(chain) - 1; i >= 0; i-- {
		days, err := s.repo.ListRange(ctx, chain[i], from, to)
		if err != nil {
			return nil, fmt.Errorf("list production days for region %s: %w", chain[i], err)
		}
		for _, d := range days {
			byDate[d.Date.Format("2006-01-02")] = d
		}
	}

	out := make([]calendar.ProductionDay, 0, len(byDate))
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if pd, ok := byDate[d.Format("2006-01-02")]; ok {
			out = append(out, pd)
			continue
		}
		// No calendar row: weekends are holidays, other days work days.
		kind := calendar.KindWork
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			kind = calendar.KindHoliday
		}
		out = append(out, calendar.ProductionDay{
			RegionID:  regionID,
			Date:      d,
			Kind:      kind,
			NormHours: calendar.DefaultNormHours(kind),
		})
	}
	return out, nil
}

// Day returns the production day of one date.
func (s *Service) Day(ctx context.Context, regionID string, date time.Time) (calendar.ProductionDay, error) {
	days, err := s.DaysInRange(ctx, regionID, date, date)
	if err != nil {
		return calendar.ProductionDay{}, err
	}
	if len(days) == 0 {
		return calendar.ProductionDay{}, calendar.ErrDayNotFound
	}
	return days[0], nil
}

// MonthNorm returns the cached sum of norm hours over a month.
func (s *Service) MonthNorm(ctx context.Context, regionID string, year int, month time.Month) (decimal.Decimal, error) {
	key := monthKey{regionID: regionID, year: year, month: month}
	s.mu.RLock()
	if norm, ok := s.cache[key]; ok {
		s.mu.RUnlock()
		return norm, nil
	}
	s.mu.RUnlock()

	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)
	norm, err := s.NormSum(ctx, regionID, from, to)
	if err != nil {
		return decimal.Zero, err
	}

	s.mu.Lock()
	s.cache[key] = norm
	s.mu.Unlock()
	return norm, nil
}

// NormSum is the pure reduction of norm hours over [from, to].
func (s *Service) NormSum(ctx context.Context, regionID string, from, to time.Time) (decimal.Decimal, error) {
	days, err := s.DaysInRange(ctx, regionID, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	sum := decimal.Zero
	for _, d := range days {
		sum = sum.Add(d.NormHours)
	}
	return sum, nil
}

// Upsert writes one production day and invalidates the month cache.
func (s *Service) Upsert(ctx context.Context, day calendar.ProductionDay) (calendar.ProductionDay, error) {
	if day.NormHours.IsZero() {
		day.NormHours = calendar.DefaultNormHours(day.Kind)
	}
	saved, err := s.repo.Upsert(ctx, day)
	if err != nil {
		return calendar.ProductionDay{}, fmt.Errorf("upsert production day: %w", err)
	}
	s.mu.Lock()
	delete(s.cache, monthKey{regionID: day.RegionID, year: day.Date.Year(), month: day.Date.Month()})
	s.mu.Unlock()
	return saved, nil
}

func (s *Service) regionChain(ctx context.Context, regionID string) ([]string, error) {
	chain := []string{regionID}
	id := regionID
	for range 16 {
		region, err := s.repo.GetRegion(ctx, id)
		if err != nil {
			if errors.Is(err, calendar.ErrRegionNotFound) && len(chain) > 1 {
				break
			}
			return nil, fmt.Errorf("get region %s: %w", id, err)
		}
		if region.ParentID == nil {
			break
		}
		id = *region.ParentID
		chain = append(chain, id)
	}
	return chain, nil
}
