package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/facemark/facemark/internal/gallery"
	"github.com/facemark/facemark/internal/service"
)

// IdentitiesHandler handles the enrollment admin endpoints.
type IdentitiesHandler struct {
	service *service.Service
	logger  *zap.Logger
}

// NewIdentitiesHandler creates a new identities handler.
func NewIdentitiesHandler(svc *service.Service, logger *zap.Logger) *IdentitiesHandler {
	return &IdentitiesHandler{service: svc, logger: logger}
}

// identityResponse is the wire form of an identity; descriptors stay
// internal.
type identityResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	RollNo      string `json:"roll_no"`
	Department  string `json:"department,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Descriptors int    `json:"descriptors"`
	CreatedAt   string `json:"created_at"`
}

func toIdentityResponse(identity *gallery.Identity) identityResponse {
	return identityResponse{
		ID:          identity.ID,
		Name:        identity.Name,
		RollNo:      identity.RollNo,
		Department:  identity.Department,
		Email:       identity.Email,
		Phone:       identity.Phone,
		Descriptors: len(identity.Descriptors),
		CreatedAt:   identity.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// List returns enrolled identities, optionally filtered by a
// diacritics-insensitive name query. GET /api/v1/identities?q=
func (h *IdentitiesHandler) List(w http.ResponseWriter, r *http.Request) {
	identities, err := h.service.SearchIdentities(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list identities")
		return
	}

	out := make([]identityResponse, len(identities))
	for i := range identities {
		out[i] = toIdentityResponse(&identities[i])
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"identities": out,
		"count":      len(out),
	})
}

// enrollRequest is the enrollment request body. Images are base64 or
// data-URL encoded.
type enrollRequest struct {
	Name       string   `json:"name"`
	RollNo     string   `json:"roll_no"`
	Department string   `json:"department"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone"`
	Images     []string `json:"images"`
}

// Enroll registers a new identity. POST /api/v1/identities
func (h *IdentitiesHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req enrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	images := make([][]byte, 0, len(req.Images))
	for _, encoded := range req.Images {
		data, err := decodeImage(encoded)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		images = append(images, data)
	}

	identity, err := h.service.Enroll(r.Context(), service.EnrollRequest{
		Name:       req.Name,
		RollNo:     req.RollNo,
		Department: req.Department,
		Email:      req.Email,
		Phone:      req.Phone,
		Images:     images,
	})
	if err != nil {
		h.respondEnrollError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toIdentityResponse(identity))
}

func (h *IdentitiesHandler) respondEnrollError(w http.ResponseWriter, err error) {
	var dup *service.DuplicateIdentityError
	switch {
	case errors.As(err, &dup):
		respondJSON(w, http.StatusConflict, map[string]any{
			"error":       "face already enrolled",
			"identity_id": dup.IdentityID,
			"name":        dup.Name,
		})
	case errors.Is(err, gallery.ErrDuplicateKey):
		respondError(w, http.StatusConflict, "roll number or email already enrolled")
	case errors.Is(err, service.ErrMissingName),
		errors.Is(err, service.ErrMissingRollNo),
		errors.Is(err, service.ErrNoImages),
		errors.Is(err, service.ErrNoFaceInImages):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("enrollment failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "enrollment failed")
	}
}

// Get returns one identity. GET /api/v1/identities/{id}
func (h *IdentitiesHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, err := h.service.GetIdentity(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, gallery.ErrNotFound) {
			respondError(w, http.StatusNotFound, "identity not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load identity")
		return
	}
	respondJSON(w, http.StatusOK, toIdentityResponse(identity))
}

// updateRequest carries optional identity field updates.
type updateRequest struct {
	Name       *string `json:"name"`
	RollNo     *string `json:"roll_no"`
	Department *string `json:"department"`
	Email      *string `json:"email"`
	Phone      *string `json:"phone"`
}

// Update modifies identity fields. PUT /api/v1/identities/{id}
func (h *IdentitiesHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	id := chi.URLParam(r, "id")
	err := h.service.UpdateIdentity(r.Context(), id, gallery.IdentityUpdate{
		Name:       req.Name,
		RollNo:     req.RollNo,
		Department: req.Department,
		Email:      req.Email,
		Phone:      req.Phone,
	})
	if err != nil {
		switch {
		case errors.Is(err, gallery.ErrNotFound):
			respondError(w, http.StatusNotFound, "identity not found")
		case errors.Is(err, gallery.ErrDuplicateKey):
			respondError(w, http.StatusConflict, "roll number or email already enrolled")
		default:
			respondError(w, http.StatusInternalServerError, "failed to update identity")
		}
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// Delete removes an identity. DELETE /api/v1/identities/{id}
func (h *IdentitiesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteIdentity(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, gallery.ErrNotFound) {
			respondError(w, http.StatusNotFound, "identity not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete identity")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Profile returns an identity with attendance history and sample listing.
// GET /api/v1/identities/{id}/profile
func (h *IdentitiesHandler) Profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.IdentityProfile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, gallery.ErrNotFound) {
			respondError(w, http.StatusNotFound, "identity not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"identity":   toIdentityResponse(&profile.Identity),
		"attendance": profile.Attendance,
		"samples":    len(profile.Samples),
	})
}
