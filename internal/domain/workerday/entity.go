package workerday

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/shiftlab/wfm-backend-go/internal/domain/daytype"
)

// WorkerDay is one employee's entry for one date in one graph (plan or
// fact) and one approval state. The (EmployeeID, Date, IsFact, IsApproved)
// tuple is the slot key; approved and unapproved versions of the same slot
// are separate rows linked through ParentID for audit.
type WorkerDay struct {
	ID        string
	NetworkID string
	// EmployeeID is nil on an unconfirmed vacancy.
	EmployeeID   *string
	EmploymentID *string
	ShopID       *string
	PositionID   *string
	// Code is the integration business key, unique per network when set.
	Code *string

	Date time.Time
	Type string

	Start *time.Time
	End   *time.Time
	// TabelStart/TabelEnd are the cropped, policy-adjusted instants the
	// timesheet uses; raw Start/End are preserved for audit.
	TabelStart *time.Time
	TabelEnd   *time.Time

	// WorkHours is authored by the caller for dayoff types with
	// is_work_hours set; computed by the calculator otherwise.
	WorkHours  decimal.Decimal
	DayHours   decimal.Decimal
	NightHours decimal.Decimal

	IsFact      bool
	IsApproved  bool
	IsVacancy   bool
	IsOutsource bool
	IsBlocked   bool
	// IsArchived marks a superseded approved version kept for audit.
	// Archived rows never appear in slot or timesheet reads.
	IsArchived bool

	// ParentID links the archived copy of the replaced approved version,
	// at most one edge; the chain walks back through every publication.
	ParentID      *string
	ClosestPlanID *string

	// Outsources lists partner network ids allowed to take the vacancy.
	Outsources []string

	WorkParts []WorkPart

	CreatedBy    *string
	LastEditedBy *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// WorkPart assigns a fraction of the day to a work type. Fractions of one
// day sum to 1.
type WorkPart struct {
	ID           string
	WorkerDayID  string
	WorkTypeID   string
	WorkTypeName string
	Rate         decimal.Decimal
}

// SlotKey identifies the storage slot of a worker day.
type SlotKey struct {
	EmployeeID string
	Date       time.Time
	IsFact     bool
	IsApproved bool
}

// Slot returns the slot key; only valid when EmployeeID is set.
func (wd *WorkerDay) Slot() SlotKey {
	var emp string
	if wd.EmployeeID != nil {
		emp = *wd.EmployeeID
	}
	return SlotKey{EmployeeID: emp, Date: wd.Date, IsFact: wd.IsFact, IsApproved: wd.IsApproved}
}

// TotalHours is the day plus night split.
func (wd *WorkerDay) TotalHours() decimal.Decimal {
	return wd.DayHours.Add(wd.NightHours)
}

// SameSignificant compares the approval-significant fields of two versions
// of one slot. Approval of a byte-equal working copy is a silent no-op and
// must be skipped.
func (wd *WorkerDay) SameSignificant(other *WorkerDay) bool {
	if wd.Type != other.Type ||
		!timePtrEqual(wd.Start, other.Start) ||
		!timePtrEqual(wd.End, other.End) ||
		!strPtrEqual(wd.ShopID, other.ShopID) ||
		!strPtrEqual(wd.EmploymentID, other.EmploymentID) ||
		!wd.WorkHours.Equal(other.WorkHours) ||
		wd.IsVacancy != other.IsVacancy ||
		wd.IsOutsource != other.IsOutsource {
		return false
	}
	if len(wd.WorkParts) != len(other.WorkParts) {
		return false
	}
	for i := range wd.WorkParts {
		a, b := wd.WorkParts[i], other.WorkParts[i]
		if a.WorkTypeID != b.WorkTypeID || !a.Rate.Equal(b.Rate) {
			return false
		}
	}
	return true
}

func timePtrEqual(a, b *time.Time) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || a.Equal(*b)
}

func strPtrEqual(a, b *string) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}

// rateTolerance bounds the work part fraction sum check.
var rateTolerance = decimal.New(1, -6)

// Validate enforces the worker-day invariants against the day type
// registry: time-range requirement, work part fractions, and the
// norm-reduction exclusion.
func (wd *WorkerDay) Validate(reg *daytype.Registry) error {
	dt, ok := reg.Get(wd.Type)
	if !ok {
		return &ValidationError{Field: "type", Message: "unknown day type " + wd.Type}
	}
	if dt.IsTimeRanged {
		if wd.Start == nil || wd.End == nil {
			return &ValidationError{Field: "dttm_work_start", Message: "start and end are required for day type " + wd.Type}
		}
		if wd.End.Before(*wd.Start) {
			return &ValidationError{Field: "dttm_work_end", Message: "end precedes start"}
		}
		if !sameDate(wd.Date, *wd.Start) {
			return &ValidationError{Field: "dt", Message: "date must equal the start date"}
		}
		if wd.End.Equal(*wd.Start) {
			return &ValidationError{Field: "dttm_work_end", Message: "zero-length shift"}
		}
	}
	if dt.UseWorkTypes {
		if len(wd.WorkParts) == 0 {
			return &ValidationError{Field: "worker_day_details", Message: "work parts are required for day type " + wd.Type}
		}
		sum := decimal.Zero
		for _, p := range wd.WorkParts {
			if p.Rate.LessThanOrEqual(decimal.Zero) || p.Rate.GreaterThan(decimal.NewFromInt(1)) {
				return &ValidationError{Field: "worker_day_details", Message: "work part rate must be in (0, 1]"}
			}
			sum = sum.Add(p.Rate)
		}
		if sum.Sub(decimal.NewFromInt(1)).Abs().GreaterThan(rateTolerance) {
			return &ValidationError{Field: "worker_day_details", Message: "work part rates must sum to 1"}
		}
	} else if len(wd.WorkParts) > 0 {
		return &ValidationError{Field: "worker_day_details", Message: "work parts are not allowed for day type " + wd.Type}
	}
	if dt.IsReducingNormHours && len(wd.WorkParts) > 0 {
		return &ValidationError{Field: "worker_day_details", Message: "norm-reducing day type cannot carry work parts"}
	}
	if !dt.IsWorkHours && dt.IsDayoff && !wd.WorkHours.IsZero() {
		return &ValidationError{Field: "work_hours", Message: "work_hours is only allowed on is_work_hours day types"}
	}
	return nil
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
