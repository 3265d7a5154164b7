// Package handler provides HTTP handlers for the REST API.
package handler

import (
	"encoding/json"
	"mime"
	"net/http"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/remiblancher/sigalg/internal/api/dto"
	"github.com/remiblancher/sigalg/internal/audit"
)

// HealthHandler handles health and readiness endpoints.
type HealthHandler struct {
	version string
	policy  string
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(version, policy string) *HealthHandler {
	return &HealthHandler{
		version: version,
		policy:  policy,
	}
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := dto.HealthResponse{
		Status:  "ok",
		Version: h.version,
		Policy:  h.policy,
	}

	respond(w, r, http.StatusOK, resp)
}

// Ready handles GET /ready.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	checks := map[string]bool{
		"server": true,
		"audit":  audit.Ready(),
	}

	allReady := true
	for _, ready := range checks {
		if !ready {
			allReady = false
			break
		}
	}

	resp := dto.ReadyResponse{
		Ready:  allReady,
		Checks: checks,
	}

	status := http.StatusOK
	if !allReady {
		status = http.StatusServiceUnavailable
	}

	respond(w, r, status, resp)
}

const contentTypeCBOR = "application/cbor"

// wantsCBOR reports whether the client listed application/cbor in Accept.
func wantsCBOR(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && mt == contentTypeCBOR {
			return true
		}
	}
	return false
}

// mediaType returns the request Content-Type without parameters.
func mediaType(r *http.Request) string {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mt
}

// respond writes data as CBOR when the client asks for it, JSON otherwise.
func respond(w http.ResponseWriter, r *http.Request, status int, data any) {
	if wantsCBOR(r) {
		body, err := cbor.Marshal(data)
		if err != nil {
			http.Error(w, "failed to encode response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", contentTypeCBOR)
		w.WriteHeader(status)
		_, _ = w.Write(body)
		return
	}
	respondJSON(w, status, data)
}

// respondJSON writes a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// respondError writes an error response.
func respondError(w http.ResponseWriter, status int, apiErr *dto.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiErr)
}
