package workerday

import (
	"context"
	"time"
)

// Permission actions.
type Action string

const (
	ActionCreateOrUpdate Action = "CU"
	ActionApprove        Action = "A"
	ActionDelete         Action = "D"
)

// Permission allows a function group to perform an action on one graph and
// day type within a sliding window around today: [today - DaysInPast,
// today + DaysInFuture].
type Permission struct {
	ID           string
	GroupID      string
	Action       Action
	IsFact       bool
	Type         string
	DaysInPast   int
	DaysInFuture int
}

// Window returns the permitted date window as of today.
func (p Permission) Window(today time.Time) (time.Time, time.Time) {
	today = today.Truncate(24 * time.Hour)
	return today.AddDate(0, 0, -p.DaysInPast), today.AddDate(0, 0, p.DaysInFuture)
}

// PermissionRepository gives access to group worker-day permissions.
type PermissionRepository interface {
	ListForGroup(ctx context.Context, groupID string) ([]Permission, error)
}
