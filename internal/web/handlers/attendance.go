package handlers

import (
	"net/http"
	"time"

	"github.com/facemark/facemark/internal/service"
)

// AttendanceHandler handles attendance reporting endpoints.
type AttendanceHandler struct {
	service *service.Service
}

// NewAttendanceHandler creates a new attendance handler.
func NewAttendanceHandler(svc *service.Service) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// Today lists today's attendance records. GET /api/v1/attendance/today
func (h *AttendanceHandler) Today(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.AttendanceToday(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load attendance")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"records": records,
		"count":   len(records),
	})
}

// ByDate lists attendance records for ?date=YYYY-MM-DD.
// GET /api/v1/attendance
func (h *AttendanceHandler) ByDate(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(w, r)
	if !ok {
		return
	}

	records, err := h.service.AttendanceByDate(r.Context(), date)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load attendance")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"records": records,
		"count":   len(records),
	})
}

// Stats reports presence counts for ?date=YYYY-MM-DD, defaulting to today.
// GET /api/v1/attendance/stats
func (h *AttendanceHandler) Stats(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	} else if !validDate(date) {
		respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	stats, err := h.service.AttendanceStats(r.Context(), date)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func dateParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	date := r.URL.Query().Get("date")
	if !validDate(date) {
		respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return "", false
	}
	return date, true
}

func validDate(date string) bool {
	_, err := time.Parse("2006-01-02", date)
	return err == nil
}
