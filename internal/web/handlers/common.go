package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// decodeImage decodes an image field from a request. Camera frontends send
// data URLs ("data:image/jpeg;base64,..."); plain base64 is accepted too.
func decodeImage(field string) ([]byte, error) {
	if field == "" {
		return nil, errors.New("image is required")
	}
	if _, after, found := strings.Cut(field, ";base64,"); found {
		field = after
	}
	data, err := base64.StdEncoding.DecodeString(field)
	if err != nil {
		return nil, errors.New("image is not valid base64")
	}
	return data, nil
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
