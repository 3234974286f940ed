package http

import (
	"encoding/json"
	"net/http"

	"github.com/shiftlab/wfm-backend-go/internal/domain/attendance"
	"github.com/shiftlab/wfm-backend-go/internal/handler/http/middleware"
	"github.com/shiftlab/wfm-backend-go/internal/handler/http/response"
)

type AttendanceHandler interface {
	Ingest(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	service attendance.Service
}

func NewAttendanceHandler(service attendance.Service) AttendanceHandler {
	return &attendanceHandlerImpl{service: service}
}

// Ingest accepts one raw attendance tick from the vendor integration.
func (h *attendanceHandlerImpl) Ingest(w http.ResponseWriter, r *http.Request) {
	var req attendance.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	actor := middleware.ActorFromContext(r.Context())
	result, err := h.service.Ingest(r.Context(), actor.NetworkID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, result)
}
