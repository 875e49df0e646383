package handler

import (
	"errors"
	"net/http"

	"github.com/fiszki/fiszki-go/internal/logger"
	"github.com/fiszki/fiszki-go/internal/model"
	"github.com/fiszki/fiszki-go/internal/service"
)

// GenerationHandler handles flashcard proposal generation and the
// acceptance report that follows a review.
type GenerationHandler struct {
	service *service.GenerationService
	log     *logger.Logger
}

func NewGenerationHandler(svc *service.GenerationService, log *logger.Logger) *GenerationHandler {
	return &GenerationHandler{service: svc, log: log}
}

// HandleGenerate handles POST /api/v1/generations requests.
func (h *GenerationHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.GenerateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.Generate(r.Context(), userID, req)
	if err != nil {
		if writeValidationError(w, err) {
			return
		}
		if errors.Is(err, service.ErrGenerationFailed) {
			writeJSON(w, http.StatusInternalServerError, errorResponse(err.Error()))
			return
		}
		h.log.Error("storing generation failed", "user_id", userID, "error", err)
		writeInternalError(w)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleUpdateCounts handles PATCH /api/v1/generations requests.
func (h *GenerationHandler) HandleUpdateCounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.UpdateGenerationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.UpdateCounts(r.Context(), userID, req); err != nil {
		if writeValidationError(w, err) {
			return
		}
		if errors.Is(err, service.ErrGenerationNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
			return
		}
		h.log.Error("updating generation counts failed", "user_id", userID, "error", err)
		writeInternalError(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
