package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fiszki/fiszki-go/internal/validate"
)

const maxBodyBytes = 1 << 20 // 1MB

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func errorResponse(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func dataResponse(v any) map[string]any {
	return map[string]any{"data": v}
}

// decodeJSON reads a size-limited JSON body into dst and writes the error
// response itself when that fails.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse("request body too large"))
			return false
		}
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
		return false
	}
	return true
}

// writeValidationError answers 400 when err is a validation failure.
func writeValidationError(w http.ResponseWriter, err error) bool {
	var ve *validate.Error
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, errorResponse(ve.Error()))
		return true
	}
	return false
}

func writeInternalError(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
}
