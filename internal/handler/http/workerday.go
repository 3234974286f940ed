package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/shiftlab/wfm-backend-go/internal/domain/workerday"
	"github.com/shiftlab/wfm-backend-go/internal/handler/http/middleware"
	"github.com/shiftlab/wfm-backend-go/internal/handler/http/response"
	"github.com/shiftlab/wfm-backend-go/internal/pkg/validator"
)

type WorkerDayHandler interface {
	Upsert(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Exchange(w http.ResponseWriter, r *http.Request)
	Duplicate(w http.ResponseWriter, r *http.Request)
	CopyApproved(w http.ResponseWriter, r *http.Request)
	CopyRange(w http.ResponseWriter, r *http.Request)
	ChangeRange(w http.ResponseWriter, r *http.Request)
	BatchUpdateOrCreate(w http.ResponseWriter, r *http.Request)
	ListVacancies(w http.ResponseWriter, r *http.Request)
	ConfirmVacancy(w http.ResponseWriter, r *http.Request)
}

type workerDayHandlerImpl struct {
	service workerday.Service
	repo    workerday.Repository
}

func NewWorkerDayHandler(service workerday.Service, repo workerday.Repository) WorkerDayHandler {
	return &workerDayHandlerImpl{service: service, repo: repo}
}

// workerDayResponse is the wire shape of one worker day.
type workerDayResponse struct {
	ID           string           `json:"id"`
	EmployeeID   *string          `json:"employee_id"`
	EmploymentID *string          `json:"employment_id,omitempty"`
	ShopID       *string          `json:"shop_id,omitempty"`
	PositionID   *string          `json:"position_id,omitempty"`
	Code         *string          `json:"code,omitempty"`
	Dt           string           `json:"dt"`
	Type         string           `json:"type"`
	WorkStart    *string          `json:"dttm_work_start,omitempty"`
	WorkEnd      *string          `json:"dttm_work_end,omitempty"`
	TabelStart   *string          `json:"dttm_work_start_tabel,omitempty"`
	TabelEnd     *string          `json:"dttm_work_end_tabel,omitempty"`
	WorkHours    decimal.Decimal  `json:"work_hours"`
	DayHours     decimal.Decimal  `json:"day_hours"`
	NightHours   decimal.Decimal  `json:"night_hours"`
	IsFact       bool             `json:"is_fact"`
	IsApproved   bool             `json:"is_approved"`
	IsVacancy    bool             `json:"is_vacancy,omitempty"`
	IsOutsource  bool             `json:"is_outsource,omitempty"`
	IsBlocked    bool             `json:"is_blocked,omitempty"`
	ParentID     *string          `json:"parent_worker_day_id,omitempty"`
	Outsources   []string         `json:"outsources,omitempty"`
	WorkParts    []workPartWire   `json:"worker_day_details,omitempty"`
}

type workPartWire struct {
	WorkTypeID   string          `json:"work_type_id"`
	WorkTypeName string          `json:"work_type_name,omitempty"`
	Rate         decimal.Decimal `json:"rate"`
}

func toWorkerDayResponse(wd *workerday.WorkerDay) workerDayResponse {
	resp := workerDayResponse{
		ID:           wd.ID,
		EmployeeID:   wd.EmployeeID,
		EmploymentID: wd.EmploymentID,
		ShopID:       wd.ShopID,
		PositionID:   wd.PositionID,
		Code:         wd.Code,
		Dt:           wd.Date.Format("2006-01-02"),
		Type:         wd.Type,
		WorkStart:    fmtDttm(wd.Start),
		WorkEnd:      fmtDttm(wd.End),
		TabelStart:   fmtDttm(wd.TabelStart),
		TabelEnd:     fmtDttm(wd.TabelEnd),
		WorkHours:    wd.WorkHours,
		DayHours:     wd.DayHours,
		NightHours:   wd.NightHours,
		IsFact:       wd.IsFact,
		IsApproved:   wd.IsApproved,
		IsVacancy:    wd.IsVacancy,
		IsOutsource:  wd.IsOutsource,
		IsBlocked:    wd.IsBlocked,
		ParentID:     wd.ParentID,
		Outsources:   wd.Outsources,
	}
	for _, p := range wd.WorkParts {
		resp.WorkParts = append(resp.WorkParts, workPartWire{
			WorkTypeID:   p.WorkTypeID,
			WorkTypeName: p.WorkTypeName,
			Rate:         p.Rate,
		})
	}
	return resp
}

func fmtDttm(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02T15:04:05")
	return &s
}

func (h *workerDayHandlerImpl) Upsert(w http.ResponseWriter, r *http.Request) {
	var req workerday.UpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	actor := middleware.ActorFromContext(r.Context())
	wd, err := h.service.Upsert(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, toWorkerDayResponse(wd))
}

func (h *workerDayHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	actor := middleware.ActorFromContext(r.Context())
	if err := h.service.Delete(r.Context(), actor, id); err != nil {
		response.HandleError(w, err)
		return
	}
	response.NoContent(w)
}

func (h *workerDayHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, okFrom := validator.IsValidDate(q.Get("dt_from"))
	to, okTo := validator.IsValidDate(q.Get("dt_to"))
	if !okFrom || !okTo {
		response.ValidationError(w, map[string]string{"dt": "dt_from and dt_to must be YYYY-MM-DD"})
		return
	}
	employeeIDs := q["employee_id"]
	var isFact, isApproved *bool
	if v := q.Get("is_fact"); v != "" {
		b := v == "true" || v == "1"
		isFact = &b
	}
	if v := q.Get("is_approved"); v != "" {
		b := v == "true" || v == "1"
		isApproved = &b
	}
	days, err := h.repo.ListRange(r.Context(), employeeIDs, from, to, isFact, isApproved)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	out := make([]workerDayResponse, 0, len(days))
	for i := range days {
		out = append(out, toWorkerDayResponse(&days[i]))
	}
	response.Success(w, out)
}

func (h *workerDayHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	var req workerday.ApproveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	actor := middleware.ActorFromContext(r.Context())
	result, err := h.service.Approve(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

func (h *workerDayHandlerImpl) Exchange(w http.ResponseWriter, r *http.Request) {
	var req workerday.ExchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	actor := middleware.ActorFromContext(r.Context())
	if err := h.service.Exchange(r.Context(), actor, req); err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, nil)
}

func (h *workerDayHandlerImpl) Duplicate(w http.ResponseWriter, r *http.Request) {
	var req workerday.DuplicateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	actor := middleware.ActorFromContext(r.Context())
	n, err := h.service.Duplicate(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, map[string]int{"created": n})
}

func (h *workerDayHandlerImpl) CopyApproved(w http.ResponseWriter, r *http.Request) {
	var req workerday.CopyApprovedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	actor := middleware.ActorFromContext(r.Context())
	n, err := h.service.CopyApproved(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, map[string]int{"copied": n})
}

func (h *workerDayHandlerImpl) CopyRange(w http.ResponseWriter, r *http.Request) {
	var req workerday.CopyRangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	actor := middleware.ActorFromContext(r.Context())
	n, err := h.service.CopyRange(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, map[string]int{"copied": n})
}

func (h *workerDayHandlerImpl) ChangeRange(w http.ResponseWriter, r *http.Request) {
	var req workerday.ChangeRangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	actor := middleware.ActorFromContext(r.Context())
	results, err := h.service.ChangeRange(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, results)
}

func (h *workerDayHandlerImpl) BatchUpdateOrCreate(w http.ResponseWriter, r *http.Request) {
	var req workerday.BatchUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	actor := middleware.ActorFromContext(r.Context())
	stats, err := h.service.BatchUpdateOrCreate(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, stats)
}

func (h *workerDayHandlerImpl) ListVacancies(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	shopID := q.Get("shop_id")
	if shopID == "" {
		response.ValidationError(w, map[string]string{"shop_id": "shop_id is required"})
		return
	}
	from, okFrom := validator.IsValidDate(q.Get("dt_from"))
	to, okTo := validator.IsValidDate(q.Get("dt_to"))
	if !okFrom || !okTo {
		response.ValidationError(w, map[string]string{"dt": "dt_from and dt_to must be YYYY-MM-DD"})
		return
	}
	days, err := h.repo.ListVacancies(r.Context(), shopID, from, to)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	out := make([]workerDayResponse, 0, len(days))
	for i := range days {
		out = append(out, toWorkerDayResponse(&days[i]))
	}
	response.Success(w, out)
}

func (h *workerDayHandlerImpl) ConfirmVacancy(w http.ResponseWriter, r *http.Request) {
	var req workerday.ConfirmVacancyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.VacancyID = chi.URLParam(r, "id")
	actor := middleware.ActorFromContext(r.Context())
	wd, err := h.service.ConfirmVacancy(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, toWorkerDayResponse(wd))
}
