// Package httpapi provides the read-only REST adapter over the view engine.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/hylla/krets/internal/adapters/server/common"
	"github.com/hylla/krets/internal/domain"
	"github.com/hylla/krets/internal/view"
)

// Handler serves the versioned API subrouter mounted under `/api/v1`.
type Handler struct {
	source   common.CollectionSource
	resolver common.Resolver
}

// APIError represents one structured API failure response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorEnvelope wraps one structured API error.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// listResponse wraps the record list payload.
type listResponse struct {
	Data  []domain.Record `json:"data"`
	Total int             `json:"total"`
}

// NewHandler constructs one HTTP API adapter over the collection source and
// the fallback resolver.
func NewHandler(source common.CollectionSource, resolver common.Resolver) *Handler {
	return &Handler{source: source, resolver: resolver}
}

// ServeHTTP routes one versioned API request to the matching handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(r.URL.Path, "/")
	switch {
	case path == "circuits":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleListCircuits(w, r)
	case strings.HasPrefix(path, "circuits/"):
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		id := strings.TrimPrefix(path, "circuits/")
		if id == "" || strings.Contains(id, "/") {
			writeJSONError(w, http.StatusNotFound, APIError{Code: "not_found", Message: "endpoint not found"})
			return
		}
		h.handleGetCircuit(w, r, id)
	default:
		writeJSONError(w, http.StatusNotFound, APIError{Code: "not_found", Message: "endpoint not found"})
	}
}

// handleListCircuits serves GET `/circuits`.
func (h *Handler) handleListCircuits(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	awaiting, err := common.ParseBoolParam(query.Get("awaiting_approval"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, APIError{Code: "bad_request", Message: "awaiting_approval must be a boolean"})
		return
	}
	actionRequired, err := common.ParseBoolParam(query.Get("action_required"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, APIError{Code: "bad_request", Message: "action_required must be a boolean"})
		return
	}

	records, err := common.ListRecords(h.source, common.ListRequest{
		Term:             query.Get("filter"),
		AwaitingApproval: awaiting,
		ActionRequired:   actionRequired,
		ActorID:          query.Get("actor"),
		SortKey:          query.Get("sort"),
		Order:            query.Get("order"),
	})
	if err != nil {
		var validation *view.ValidationError
		if errors.As(err, &validation) {
			writeJSONError(w, http.StatusBadRequest, APIError{Code: "bad_request", Message: validation.Error()})
			return
		}
		writeJSONError(w, http.StatusInternalServerError, APIError{Code: "internal", Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Data: records, Total: len(records)})
}

// handleGetCircuit serves GET `/circuits/{id}` through the two-stage
// fallback lookup. A miss in both namespaces is a 404; a registry outage
// is a 502 so clients can tell retryable failures apart.
func (h *Handler) handleGetCircuit(w http.ResponseWriter, r *http.Request, id string) {
	if h.resolver == nil {
		writeJSONError(w, http.StatusServiceUnavailable, APIError{Code: "service_unavailable", Message: "resolver is not configured"})
		return
	}
	record, err := h.resolver.ResolveOne(r.Context(), id)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, record)
	case errors.Is(err, domain.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, APIError{Code: "not_found", Message: "no circuit or proposal with id " + id})
	case errors.Is(err, domain.ErrUnavailable):
		writeJSONError(w, http.StatusBadGateway, APIError{Code: "registry_unavailable", Message: err.Error()})
	default:
		writeJSONError(w, http.StatusInternalServerError, APIError{Code: "internal", Message: err.Error()})
	}
}

// writeJSON writes one JSON response body.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeJSONError writes one structured error envelope.
func writeJSONError(w http.ResponseWriter, status int, apiErr APIError) {
	writeJSON(w, status, ErrorEnvelope{Error: apiErr})
}

// writeMethodNotAllowed writes a 405 with an Allow header.
func writeMethodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeJSONError(w, http.StatusMethodNotAllowed, APIError{Code: "method_not_allowed", Message: "method not allowed"})
}
