package timesheet

import (
	"time"

	"github.com/shiftlab/wfm-backend-go/internal/pkg/validator"
)

// QueryRequest is the timesheet query payload (§6).
type QueryRequest struct {
	EmployeeIDs []string `json:"employee_id"`
	DtFrom      string   `json:"dt_from"`
	DtTo        string   `json:"dt_to"`
	SheetTypes  []string `json:"sheet_types,omitempty"`

	From  time.Time   `json:"-"`
	To    time.Time   `json:"-"`
	Types []SheetType `json:"-"`
}

func (r *QueryRequest) Validate() error {
	var errs validator.ValidationErrors
	if len(r.EmployeeIDs) == 0 {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id is required"})
	}
	var ok bool
	if r.From, ok = validator.IsValidDate(r.DtFrom); !ok {
		errs = append(errs, validator.ValidationError{Field: "dt_from", Message: "dt_from must be YYYY-MM-DD"})
	}
	if r.To, ok = validator.IsValidDate(r.DtTo); !ok {
		errs = append(errs, validator.ValidationError{Field: "dt_to", Message: "dt_to must be YYYY-MM-DD"})
	}
	if len(errs) == 0 && r.To.Before(r.From) {
		errs = append(errs, validator.ValidationError{Field: "dt_to", Message: "dt_to precedes dt_from"})
	}
	r.Types = nil
	for _, s := range r.SheetTypes {
		switch SheetType(s) {
		case SheetFact, SheetMain, SheetAdditional:
			r.Types = append(r.Types, SheetType(s))
		default:
			errs = append(errs, validator.ValidationError{Field: "sheet_types", Message: "sheet type must be F, M or A"})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ItemResponse is the wire shape of one derived row.
type ItemResponse struct {
	ID           string  `json:"id"`
	EmployeeID   string  `json:"employee_id"`
	ShopID       *string `json:"shop_id,omitempty"`
	PositionID   *string `json:"position_id,omitempty"`
	WorkTypeName string  `json:"work_type_name"`
	Dt           string  `json:"dt"`
	DayType      string  `json:"day_type"`
	SheetType    string  `json:"timesheet_type"`
	Source       string  `json:"source"`
	DayHours     string  `json:"day_hours"`
	NightHours   string  `json:"night_hours"`
	Start        *string `json:"dttm_work_start,omitempty"`
	End          *string `json:"dttm_work_end,omitempty"`
}

// ToResponse converts an item to its wire shape.
func ToResponse(it Item) ItemResponse {
	resp := ItemResponse{
		ID:           it.ID,
		EmployeeID:   it.EmployeeID,
		ShopID:       it.ShopID,
		PositionID:   it.PositionID,
		WorkTypeName: it.WorkTypeName,
		Dt:           it.Date.Format("2006-01-02"),
		DayType:      it.DayType,
		SheetType:    string(it.SheetType),
		Source:       string(it.Source),
		DayHours:     it.DayHours.StringFixed(2),
		NightHours:   it.NightHours.StringFixed(2),
	}
	if it.Start != nil {
		s := it.Start.Format("2006-01-02T15:04:05")
		resp.Start = &s
	}
	if it.End != nil {
		e := it.End.Format("2006-01-02T15:04:05")
		resp.End = &e
	}
	return resp
}
