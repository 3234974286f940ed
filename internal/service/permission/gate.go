package permission

import (
	"context"
	"fmt"
	"time"

	"github.com/shiftlab/wfm-backend-go/internal/domain/workerday"
)

// Gate validates that an actor may transition worker days in a date range
// and day-type set. It never mutates state; rejections are precise.
type Gate struct {
	repo workerday.PermissionRepository
	now  func() time.Time
}

func NewGate(repo workerday.PermissionRepository) *Gate {
	return &Gate{repo: repo, now: time.Now}
}

// WithClock overrides the clock, for tests and replays.
func (g *Gate) WithClock(now func() time.Time) *Gate {
	g.now = now
	return g
}

// Check verifies that for every day type in dayTypes each date of
// [from, to] falls inside the window of at least one matching permission
// of the actor's group on the given graph. The first violation is returned
// as a PermissionError naming the restrictive day type, the nearest
// permitted window, and the failing date.
func (g *Gate) Check(ctx context.Context, groupID string, action workerday.Action, isFact bool, dayTypes []string, from, to time.Time) error {
	perms, err := g.repo.ListForGroup(ctx, groupID)
	if err != nil {
		return fmt.Errorf("list permissions for group %s: %w", groupID, err)
	}
	today := g.now().Truncate(24 * time.Hour)

	for _, dt := range dayTypes {
		if err := g.checkDayType(perms, groupID, action, isFact, dt, from, to, today); err != nil {
			return err
		}
	}
	return nil
}

// CheckDates is Check over a discrete date set.
func (g *Gate) CheckDates(ctx context.Context, groupID string, action workerday.Action, isFact bool, dayTypes []string, dates []time.Time) error {
	for _, d := range dates {
		if err := g.Check(ctx, groupID, action, isFact, dayTypes, d, d); err != nil {
			return err
		}
	}
	return nil
}

func (g *Gate) checkDayType(perms []workerday.Permission, groupID string, action workerday.Action, isFact bool, dayType string, from, to, today time.Time) error {
	var matched []workerday.Permission
	for _, p := range perms {
		if p.Action == action && p.IsFact == isFact && p.Type == dayType {
			matched = append(matched, p)
		}
	}
	if len(matched) == 0 {
		return &workerday.PermissionError{
			GroupID: groupID, Action: action, IsFact: isFact, DayType: dayType,
		}
	}
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		covered := false
		var nearFrom, nearTo time.Time
		nearGap := -1
		for _, p := range matched {
			winFrom, winTo := p.Window(today)
			if !d.Before(winFrom) && !d.After(winTo) {
				covered = true
				break
			}
			if gap := windowGap(d, winFrom, winTo); nearGap < 0 || gap < nearGap {
				nearGap, nearFrom, nearTo = gap, winFrom, winTo
			}
		}
		if covered {
			continue
		}
		return &workerday.PermissionError{
			GroupID:     groupID,
			Action:      action,
			IsFact:      isFact,
			DayType:     dayType,
			WindowFrom:  nearFrom,
			WindowTo:    nearTo,
			FailingDate: d,
		}
	}
	return nil
}

// windowGap is the distance in days from d to the window's nearest edge.
func windowGap(d, from, to time.Time) int {
	if d.Before(from) {
		return int(from.Sub(d) / (24 * time.Hour))
	}
	return int(d.Sub(to) / (24 * time.Hour))
}
