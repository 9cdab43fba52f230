package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/bobmcallan/pagoda/internal/common"
	"github.com/bobmcallan/pagoda/internal/flow"
	"github.com/bobmcallan/pagoda/internal/interfaces"
)

// Response is the envelope for every API payload.
type Response struct {
	Status  string      `json:"status"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// WriteData writes a success envelope.
func WriteData(w http.ResponseWriter, statusCode int, data interface{}) {
	WriteJSON(w, statusCode, Response{Status: "success", Data: data})
}

// WriteError writes a JSON error envelope.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, Response{Status: "error", Message: message})
}

// statusForError maps service sentinels onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, interfaces.ErrInvalidInput), errors.Is(err, flow.ErrNoUsername):
		return http.StatusBadRequest
	case errors.Is(err, interfaces.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, flow.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, interfaces.ErrInvalidImage):
		return http.StatusUnprocessableEntity
	case errors.Is(err, interfaces.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError writes err with the mapped status. Internal errors are
// logged and reported without detail.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		s.logger.Error().
			Err(err).
			Str("path", r.URL.Path).
			Str("correlation_id", common.CorrelationIDFromContext(r.Context())).
			Msg("Request failed")
		WriteError(w, status, "Internal server error")
		return
	}
	WriteError(w, status, err.Error())
}

// RequireMethod validates the HTTP method and returns true if it matches.
// If it doesn't match, it writes a 405 response and returns false.
func RequireMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	return false
}

// DecodeJSON reads and decodes JSON from the request body into v.
// Returns false and writes a 400 error if decoding fails.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	return decodeJSONLimit(w, r, v, 1<<20)
}

// decodeJSONLimit is DecodeJSON with a caller-chosen body limit. An
// oversized body is a 413.
func decodeJSONLimit(w http.ResponseWriter, r *http.Request, v interface{}, limit int64) bool {
	if r.Body == nil {
		WriteError(w, http.StatusBadRequest, "Request body is required")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		WriteError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return false
	}
	return true
}

// PathParam extracts a path parameter from the URL path.
// For a pattern like /api/users/{name}/history, calling
// PathParam(r, "/api/users/", "/history") extracts the {name} part.
func PathParam(r *http.Request, prefix, suffix string) string {
	path := r.URL.Path
	if !strings.HasPrefix(path, prefix) {
		return ""
	}
	rest := path[len(prefix):]
	if suffix != "" {
		idx := strings.Index(rest, suffix)
		if idx < 0 {
			return rest
		}
		return rest[:idx]
	}
	// No suffix: return up to the next /
	if idx := strings.Index(rest, "/"); idx >= 0 {
		return rest[:idx]
	}
	return rest
}

// subPath returns what follows prefix+param+"/" in the URL path.
func subPath(r *http.Request, prefix, param string) string {
	return strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, prefix+param), "/")
}

// queryFloat parses a required float query parameter.
func queryFloat(r *http.Request, name string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(r.URL.Query().Get(name)), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// queryInt parses an optional int query parameter, returning def when absent.
func queryInt(r *http.Request, name string, def int) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
