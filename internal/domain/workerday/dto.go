package workerday

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/shiftlab/wfm-backend-go/internal/pkg/validator"
)

// Actor identifies who performs an operation. Extracted from the request
// claims by the HTTP middleware; authentication itself is external.
type Actor struct {
	UserID     string
	EmployeeID string
	GroupID    string
	NetworkID  string
}

// IsZero reports an unidentified actor (system jobs pass one explicitly).
func (a Actor) IsZero() bool { return a.UserID == "" && a.GroupID == "" }

// WorkPartInput is one work part of an upsert payload.
type WorkPartInput struct {
	WorkTypeID   string          `json:"work_type_id"`
	WorkTypeName string          `json:"work_type_name,omitempty"`
	Rate         decimal.Decimal `json:"rate"`
}

// UpsertOptions tune batch behaviour.
type UpsertOptions struct {
	ByCode                bool              `json:"by_code,omitempty"`
	DryRun                bool              `json:"dry_run,omitempty"`
	DeleteScopeFieldsList []string          `json:"delete_scope_fields_list,omitempty"`
	DeleteScopeFilters    map[string]string `json:"delete_scope_filters,omitempty"`
}

// UpsertRequest creates or updates the not-approved row of one slot.
// Dates are YYYY-MM-DD, datetimes ISO-8601 without zone.
type UpsertRequest struct {
	ID           *string         `json:"id,omitempty"`
	Code         *string         `json:"code,omitempty"`
	EmployeeID   *string         `json:"employee_id,omitempty"`
	EmploymentID *string         `json:"employment_id,omitempty"`
	ShopID       *string         `json:"shop_id,omitempty"`
	Dt           string          `json:"dt"`
	Type         string          `json:"type"`
	WorkStart    *string         `json:"dttm_work_start,omitempty"`
	WorkEnd      *string         `json:"dttm_work_end,omitempty"`
	WorkHours    decimal.Decimal `json:"work_hours,omitempty"`
	IsFact       bool            `json:"is_fact"`
	IsVacancy    bool            `json:"is_vacancy,omitempty"`
	IsOutsource  bool            `json:"is_outsource,omitempty"`
	Outsources   []string        `json:"outsources,omitempty"`
	WorkParts    []WorkPartInput `json:"worker_day_details,omitempty"`

	// Parsed by Validate.
	Date      time.Time  `json:"-"`
	StartTime *time.Time `json:"-"`
	EndTime   *time.Time `json:"-"`
}

func (r *UpsertRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.ID != nil && !validator.IsValidUUID(*r.ID) {
		errs = append(errs, validator.ValidationError{Field: "id", Message: "id must be a UUID"})
	}

	if validator.IsEmpty(r.Dt) {
		errs = append(errs, validator.ValidationError{Field: "dt", Message: "dt is required"})
	} else if d, ok := validator.IsValidDate(r.Dt); ok {
		r.Date = d
	} else {
		errs = append(errs, validator.ValidationError{Field: "dt", Message: "dt must be YYYY-MM-DD"})
	}

	if validator.IsEmpty(r.Type) {
		errs = append(errs, validator.ValidationError{Field: "type", Message: "type is required"})
	}

	if r.WorkStart != nil {
		if t, ok := validator.IsValidDateTime(*r.WorkStart); ok {
			r.StartTime = &t
		} else {
			errs = append(errs, validator.ValidationError{Field: "dttm_work_start", Message: "must be ISO-8601 local"})
		}
	}
	if r.WorkEnd != nil {
		if t, ok := validator.IsValidDateTime(*r.WorkEnd); ok {
			r.EndTime = &t
		} else {
			errs = append(errs, validator.ValidationError{Field: "dttm_work_end", Message: "must be ISO-8601 local"})
		}
	}

	if r.EmployeeID == nil && !r.IsVacancy {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id is required for non-vacancy days"})
	}
	if r.IsOutsource && len(r.Outsources) == 0 {
		errs = append(errs, validator.ValidationError{Field: "outsources", Message: "outsource vacancy needs at least one partner network"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ApproveRequest publishes the not-approved rows of a range.
type ApproveRequest struct {
	ShopID      string   `json:"shop_id"`
	IsFact      bool     `json:"is_fact"`
	DtFrom      string   `json:"dt_from"`
	DtTo        string   `json:"dt_to"`
	WdTypes     []string `json:"wd_types"`
	EmployeeIDs []string `json:"employee_ids,omitempty"`

	From time.Time `json:"-"`
	To   time.Time `json:"-"`
}

func (r *ApproveRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.ShopID) {
		errs = append(errs, validator.ValidationError{Field: "shop_id", Message: "shop_id is required"})
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
	if len(r.WdTypes) == 0 {
		errs = append(errs, validator.ValidationError{Field: "wd_types", Message: "wd_types is required"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// RejectedDay is one (employee, date) an approve pass skipped, with the
// reason.
type RejectedDay struct {
	EmployeeID string `json:"employee_id"`
	Dt         string `json:"dt"`
	Reason     string `json:"reason"`
}

// ApproveResult carries counts and the precise rejections.
type ApproveResult struct {
	Approved int           `json:"approved"`
	Skipped  int           `json:"skipped"`
	Rejected []RejectedDay `json:"rejected,omitempty"`
}

// ExchangeRequest swaps the days of two employees, all-or-nothing.
type ExchangeRequest struct {
	EmployeeID1 string   `json:"employee1_id"`
	EmployeeID2 string   `json:"employee2_id"`
	Dates       []string `json:"dates"`
	IsFact      bool     `json:"is_fact"`
	IsApproved  bool     `json:"is_approved"`

	ParsedDates []time.Time `json:"-"`
}

func (r *ExchangeRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.EmployeeID1) || validator.IsEmpty(r.EmployeeID2) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "both employee ids are required"})
	}
	if r.EmployeeID1 == r.EmployeeID2 {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "cannot exchange an employee with themselves"})
	}
	if len(r.Dates) == 0 {
		errs = append(errs, validator.ValidationError{Field: "dates", Message: "dates is required"})
	}
	r.ParsedDates = r.ParsedDates[:0]
	for _, d := range r.Dates {
		t, ok := validator.IsValidDate(d)
		if !ok {
			errs = append(errs, validator.ValidationError{Field: "dates", Message: "date " + d + " must be YYYY-MM-DD"})
			continue
		}
		r.ParsedDates = append(r.ParsedDates, t)
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// DuplicateRequest copies a source day set onto target dates, ordered by
// source date and cycling when targets outnumber sources.
type DuplicateRequest struct {
	FromEmployeeID string   `json:"from_employee_id"`
	FromDates      []string `json:"from_dates"`
	ToEmployeeID   string   `json:"to_employee_id"`
	ToDates        []string `json:"to_dates"`
	IsApproved     bool     `json:"is_approved"`

	SrcDates []time.Time `json:"-"`
	DstDates []time.Time `json:"-"`
}

func (r *DuplicateRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.FromEmployeeID) || validator.IsEmpty(r.ToEmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "source and target employee ids are required"})
	}
	parse := func(field string, in []string, out *[]time.Time) {
		if len(in) == 0 {
			errs = append(errs, validator.ValidationError{Field: field, Message: field + " is required"})
			return
		}
		for _, d := range in {
			t, ok := validator.IsValidDate(d)
			if !ok {
				errs = append(errs, validator.ValidationError{Field: field, Message: "date " + d + " must be YYYY-MM-DD"})
				continue
			}
			*out = append(*out, t)
		}
	}
	r.SrcDates = nil
	r.DstDates = nil
	parse("from_dates", r.FromDates, &r.SrcDates)
	parse("to_dates", r.ToDates, &r.DstDates)
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Copy-approved modes: PP plan→plan, PF plan→fact, FF fact→fact.
const (
	CopyModePP = "PP"
	CopyModePF = "PF"
	CopyModeFF = "FF"
)

// CopyApprovedRequest overwrites the not-approved graph from the approved
// graph of the same or the opposite kind.
type CopyApprovedRequest struct {
	EmployeeIDs []string `json:"employee_ids"`
	Dates       []string `json:"dates"`
	Mode        string   `json:"type"`

	ParsedDates []time.Time `json:"-"`
}

func (r *CopyApprovedRequest) Validate() error {
	var errs validator.ValidationErrors
	if len(r.EmployeeIDs) == 0 {
		errs = append(errs, validator.ValidationError{Field: "employee_ids", Message: "employee_ids is required"})
	}
	switch r.Mode {
	case CopyModePP, CopyModePF, CopyModeFF:
	default:
		errs = append(errs, validator.ValidationError{Field: "type", Message: "type must be PP, PF or FF"})
	}
	r.ParsedDates = nil
	for _, d := range r.Dates {
		t, ok := validator.IsValidDate(d)
		if !ok {
			errs = append(errs, validator.ValidationError{Field: "dates", Message: "date " + d + " must be YYYY-MM-DD"})
			continue
		}
		r.ParsedDates = append(r.ParsedDates, t)
	}
	if len(r.ParsedDates) == 0 {
		errs = append(errs, validator.ValidationError{Field: "dates", Message: "dates is required"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// CopyRangeRequest copies [src_from, src_to] onto [dst_from, dst_to] with
// index-aligned date mapping; the source window must not start after the
// target window.
type CopyRangeRequest struct {
	EmployeeIDs []string `json:"employee_ids"`
	SrcDtFrom   string   `json:"from_copy_dt_from"`
	SrcDtTo     string   `json:"from_copy_dt_to"`
	DstDtFrom   string   `json:"to_copy_dt_from"`
	DstDtTo     string   `json:"to_copy_dt_to"`
	IsApproved  bool     `json:"is_approved"`

	SrcFrom time.Time `json:"-"`
	SrcTo   time.Time `json:"-"`
	DstFrom time.Time `json:"-"`
	DstTo   time.Time `json:"-"`
}

func (r *CopyRangeRequest) Validate() error {
	var errs validator.ValidationErrors
	if len(r.EmployeeIDs) == 0 {
		errs = append(errs, validator.ValidationError{Field: "employee_ids", Message: "employee_ids is required"})
	}
	fields := []struct {
		name string
		in   string
		out  *time.Time
	}{
		{"from_copy_dt_from", r.SrcDtFrom, &r.SrcFrom},
		{"from_copy_dt_to", r.SrcDtTo, &r.SrcTo},
		{"to_copy_dt_from", r.DstDtFrom, &r.DstFrom},
		{"to_copy_dt_to", r.DstDtTo, &r.DstTo},
	}
	for _, f := range fields {
		t, ok := validator.IsValidDate(f.in)
		if !ok {
			errs = append(errs, validator.ValidationError{Field: f.name, Message: f.name + " must be YYYY-MM-DD"})
			continue
		}
		*f.out = t
	}
	if len(errs) == 0 {
		if r.SrcTo.Before(r.SrcFrom) || r.DstTo.Before(r.DstFrom) {
			errs = append(errs, validator.ValidationError{Field: "dt", Message: "range end precedes start"})
		}
		if r.DstFrom.Before(r.SrcFrom) {
			errs = append(errs, validator.ValidationError{Field: "to_copy_dt_from", Message: "target window must not start before the source window"})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ChangeRange ensures every date of [dt_from, dt_to] is a single row of the
// given day type for the worker identified by tabel code.
type ChangeRange struct {
	Worker     string `json:"worker"`
	DtFrom     string `json:"dt_from"`
	DtTo       string `json:"dt_to"`
	Type       string `json:"type"`
	IsFact     bool   `json:"is_fact"`
	IsApproved bool   `json:"is_approved"`

	From time.Time `json:"-"`
	To   time.Time `json:"-"`
}

// ChangeRangeRequest groups ranges of one call.
type ChangeRangeRequest struct {
	Ranges []ChangeRange `json:"ranges"`
}

func (r *ChangeRangeRequest) Validate() error {
	var errs validator.ValidationErrors
	if len(r.Ranges) == 0 {
		errs = append(errs, validator.ValidationError{Field: "ranges", Message: "ranges is required"})
	}
	for i := range r.Ranges {
		rg := &r.Ranges[i]
		if validator.IsEmpty(rg.Worker) {
			errs = append(errs, validator.ValidationError{Field: "worker", Message: "worker is required"})
		}
		if validator.IsEmpty(rg.Type) {
			errs = append(errs, validator.ValidationError{Field: "type", Message: "type is required"})
		}
		var ok bool
		if rg.From, ok = validator.IsValidDate(rg.DtFrom); !ok {
			errs = append(errs, validator.ValidationError{Field: "dt_from", Message: "dt_from must be YYYY-MM-DD"})
		}
		if rg.To, ok = validator.IsValidDate(rg.DtTo); !ok {
			errs = append(errs, validator.ValidationError{Field: "dt_to", Message: "dt_to must be YYYY-MM-DD"})
		}
		if ok && rg.To.Before(rg.From) {
			errs = append(errs, validator.ValidationError{Field: "dt_to", Message: "dt_to precedes dt_from"})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ChangeRangeResult counts the outcome per worker.
type ChangeRangeResult struct {
	Worker   string `json:"worker"`
	Created  int    `json:"created"`
	Updated  int    `json:"updated"`
	Deleted  int    `json:"deleted"`
	Existing int    `json:"existing"`
}

// BatchUpdateRequest is the diff operation: rows in scope but absent from
// Data are deleted, present rows are created or updated.
type BatchUpdateRequest struct {
	Data    []UpsertRequest `json:"data"`
	Options UpsertOptions   `json:"options"`
}

func (r *BatchUpdateRequest) Validate() error {
	var errs validator.ValidationErrors
	if len(r.Data) == 0 && len(r.Options.DeleteScopeFilters) == 0 {
		errs = append(errs, validator.ValidationError{Field: "data", Message: "data or delete scope is required"})
	}
	for i := range r.Data {
		if err := r.Data[i].Validate(); err != nil {
			if ve, ok := err.(validator.ValidationErrors); ok {
				errs = append(errs, ve...)
			} else {
				errs = append(errs, validator.ValidationError{Field: "data", Message: err.Error()})
			}
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// BatchStats is the outcome of a diff pass; dry runs return it without
// writing.
type BatchStats struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`
	Skipped int `json:"skipped"`
}

// ConfirmVacancyRequest lets an employee take an open (outsourced) vacancy.
type ConfirmVacancyRequest struct {
	VacancyID  string `json:"vacancy_id"`
	EmployeeID string `json:"employee_id"`
}

func (r *ConfirmVacancyRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.VacancyID) {
		errs = append(errs, validator.ValidationError{Field: "vacancy_id", Message: "vacancy_id is required"})
	} else if !validator.IsValidUUID(r.VacancyID) {
		errs = append(errs, validator.ValidationError{Field: "vacancy_id", Message: "vacancy_id must be a UUID"})
	}
	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id is required"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
