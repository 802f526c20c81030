package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"stockflow/internal/log"
	"stockflow/internal/services"
)

// maxBodyBytes caps JSON and CSV request bodies.
const maxBodyBytes = 10 << 20

// errMalformedBody marks request bodies that could not be decoded at all.
var errMalformedBody = errors.New("malformed request body")

// sanitizeInput removes control characters other than tab, newline and
// carriage return, and trims whitespace.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// decodeJSON reads a JSON body keeping numbers exact.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	return nil
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errMalformedBody):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case services.IsValidation(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// userMessage hides internal failures behind a generic message.
func userMessage(status int, err error) string {
	if status >= 500 {
		return "Failed to save or load records"
	}
	return err.Error()
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to encode JSON response", "error", err)
	}
}

// writeAPIError logs err and writes {"error": "..."} with the mapped status.
func (s *Server) writeAPIError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	ctx := r.Context()
	if status >= 500 {
		log.FromContext(ctx).ErrorContext(ctx, "Request failed", "error", err, log.FieldPath, r.URL.Path)
	} else {
		log.FromContext(ctx).DebugContext(ctx, "Request rejected", "error", err, log.FieldStatusCode, status)
	}
	s.writeJSON(w, r, status, map[string]string{"error": userMessage(status, err)})
}
