package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/facemark/facemark/internal/service"
)

// RecognizeHandler handles the camera-facing recognition endpoints.
type RecognizeHandler struct {
	service *service.Service
	logger  *zap.Logger
}

// NewRecognizeHandler creates a new recognize handler.
func NewRecognizeHandler(svc *service.Service, logger *zap.Logger) *RecognizeHandler {
	return &RecognizeHandler{service: svc, logger: logger}
}

// imageRequest is the request body for probe image endpoints.
type imageRequest struct {
	Image string `json:"image"`
}

// Recognize matches a probe image against the index without writing
// anything. POST /api/v1/recognize
func (h *RecognizeHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	imageData, ok := h.readImage(w, r)
	if !ok {
		return
	}

	result, err := h.service.Recognize(r.Context(), imageData)
	if err != nil {
		h.logger.Error("recognition failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "recognition failed")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// MarkAttendance matches a probe image and records presence for today.
// POST /api/v1/attendance/mark
func (h *RecognizeHandler) MarkAttendance(w http.ResponseWriter, r *http.Request) {
	imageData, ok := h.readImage(w, r)
	if !ok {
		return
	}

	result, err := h.service.MarkAttendance(r.Context(), imageData)
	if err != nil {
		h.logger.Error("attendance marking failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "attendance marking failed")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *RecognizeHandler) readImage(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	var req imageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return nil, false
	}
	imageData, err := decodeImage(req.Image)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return imageData, true
}
