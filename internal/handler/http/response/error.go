package response

import (
	"errors"
	"net/http"

	"github.com/shiftlab/wfm-backend-go/internal/domain/attendance"
	"github.com/shiftlab/wfm-backend-go/internal/domain/calendar"
	"github.com/shiftlab/wfm-backend-go/internal/domain/employment"
	"github.com/shiftlab/wfm-backend-go/internal/domain/network"
	"github.com/shiftlab/wfm-backend-go/internal/domain/timesheet"
	"github.com/shiftlab/wfm-backend-go/internal/domain/workerday"
	"github.com/shiftlab/wfm-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses.
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}
	var fieldErr *workerday.ValidationError
	if errors.As(err, &fieldErr) {
		ValidationError(w, map[string]string{fieldErr.Field: fieldErr.Message})
		return
	}
	var permErr *workerday.PermissionError
	if errors.As(err, &permErr) {
		details := map[string]string{
			"action":   string(permErr.Action),
			"day_type": permErr.DayType,
		}
		if !permErr.WindowFrom.IsZero() {
			details["window_from"] = permErr.WindowFrom.Format("2006-01-02")
			details["window_to"] = permErr.WindowTo.Format("2006-01-02")
			details["failing_date"] = permErr.FailingDate.Format("2006-01-02")
		}
		Forbidden(w, permErr.Error(), details)
		return
	}
	var conflictErr *workerday.ConflictError
	if errors.As(err, &conflictErr) {
		Conflict(w, conflictErr.Message, map[string]string{"conflicting_id": conflictErr.ConflictingID})
		return
	}

	switch {
	// Worker day
	case errors.Is(err, workerday.ErrNotFound):
		NotFound(w, "Worker day not found")
	case errors.Is(err, workerday.ErrApprovedImmutable):
		Conflict(w, "Approved worker day cannot be modified directly", nil)
	case errors.Is(err, workerday.ErrDeleteApproved):
		Conflict(w, "Approved worker day cannot be deleted", nil)
	case errors.Is(err, workerday.ErrBlocked):
		Conflict(w, "Worker day is blocked", nil)
	case errors.Is(err, workerday.ErrSlotOccupied):
		Conflict(w, "Another worker day already occupies the slot", nil)
	case errors.Is(err, workerday.ErrVacancyNotOutsource):
		Conflict(w, "Vacancy does not accept outsourced employees", nil)
	case errors.Is(err, workerday.ErrVacancyAlreadyTaken):
		Conflict(w, "Vacancy is already confirmed", nil)
	case errors.Is(err, workerday.ErrNothingToApprove):
		BadRequest(w, "No unapproved version to approve", nil)

	// Catalog lookups
	case errors.Is(err, employment.ErrEmploymentNotFound):
		NotFound(w, "Employment not found")
	case errors.Is(err, employment.ErrShopNotFound):
		NotFound(w, "Shop not found")
	case errors.Is(err, employment.ErrPositionNotFound):
		NotFound(w, "Position not found")
	case errors.Is(err, employment.ErrNoActiveEmployment):
		BadRequest(w, "No active employment on the requested date", nil)
	case errors.Is(err, network.ErrNetworkNotFound):
		NotFound(w, "Network not found")
	case errors.Is(err, calendar.ErrRegionNotFound):
		NotFound(w, "Region not found")
	case errors.Is(err, calendar.ErrDayNotFound):
		NotFound(w, "Production day not found")

	// Attendance
	case errors.Is(err, attendance.ErrNoEmployment):
		BadRequest(w, "No active employment matches the tick", nil)
	case errors.Is(err, attendance.ErrShiftTooLong):
		BadRequest(w, "Tick exceeds the maximum shift length", nil)

	// Timesheet
	case errors.Is(err, timesheet.ErrUnknownDivider):
		ValidationError(w, map[string]string{"timesheet_divider": "unknown divider strategy"})

	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
