package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/shiftlab/wfm-backend-go/internal/domain/timesheet"
	"github.com/shiftlab/wfm-backend-go/internal/handler/http/middleware"
	"github.com/shiftlab/wfm-backend-go/internal/handler/http/response"
	normsvc "github.com/shiftlab/wfm-backend-go/internal/service/norm"
	timesheetsvc "github.com/shiftlab/wfm-backend-go/internal/service/timesheet"
)

type TimesheetHandler interface {
	Query(w http.ResponseWriter, r *http.Request)
	Recalc(w http.ResponseWriter, r *http.Request)
	Stat(w http.ResponseWriter, r *http.Request)
}

type timesheetHandlerImpl struct {
	items      timesheet.Repository
	calculator *timesheetsvc.Calculator
	norm       *normsvc.Service
}

func NewTimesheetHandler(items timesheet.Repository, calculator *timesheetsvc.Calculator, norm *normsvc.Service) TimesheetHandler {
	return &timesheetHandlerImpl{items: items, calculator: calculator, norm: norm}
}

func (h *timesheetHandlerImpl) Query(w http.ResponseWriter, r *http.Request) {
	var req timesheet.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}
	items, err := h.items.ListRange(r.Context(), req.EmployeeIDs, req.From, req.To, req.Types)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	out := make([]timesheet.ItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, timesheet.ToResponse(it))
	}
	response.Success(w, out)
}

type recalcRequest struct {
	EmployeeIDs []string `json:"employee_ids"`
	Year        int      `json:"year"`
	Month       int      `json:"month"`
}

// Recalc triggers a synchronous month recompute for the given employees.
// Failures are collected per employee; one bad employee does not poison
// the batch.
func (h *timesheetHandlerImpl) Recalc(w http.ResponseWriter, r *http.Request) {
	var req recalcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	if len(req.EmployeeIDs) == 0 || req.Month < 1 || req.Month > 12 {
		response.ValidationError(w, map[string]string{
			"employee_ids": "employee_ids is required",
			"month":        "month must be 1..12",
		})
		return
	}
	failed := map[string]string{}
	for _, employeeID := range req.EmployeeIDs {
		if err := h.calculator.RecalcMonth(r.Context(), employeeID, req.Year, time.Month(req.Month)); err != nil {
			failed[employeeID] = err.Error()
		}
	}
	response.Success(w, map[string]any{
		"recalculated": len(req.EmployeeIDs) - len(failed),
		"failed":       failed,
	})
}

// Stat evaluates one named statistic, e.g. GET
// /stats?employee_id=…&name=overtime_acc_period&year=2024&month=5.
func (h *timesheetHandlerImpl) Stat(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	employeeID := q.Get("employee_id")
	name := q.Get("name")
	year, errY := strconv.Atoi(q.Get("year"))
	month, errM := strconv.Atoi(q.Get("month"))
	if employeeID == "" || name == "" || errY != nil || errM != nil || month < 1 || month > 12 {
		response.ValidationError(w, map[string]string{
			"query": "employee_id, name, year and month are required",
		})
		return
	}
	metric, sel, err := normsvc.ParseStatName(name)
	if err != nil {
		response.ValidationError(w, map[string]string{"name": err.Error()})
		return
	}
	actor := middleware.ActorFromContext(r.Context())
	value, err := h.norm.Stat(r.Context(), employeeID, actor.NetworkID, year, time.Month(month), metric, sel)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, map[string]string{
		"name":  name,
		"value": value.StringFixed(2),
	})
}
