package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fiszki/fiszki-go/internal/logger"
	"github.com/fiszki/fiszki-go/internal/middleware"
	"github.com/fiszki/fiszki-go/internal/model"
	"github.com/fiszki/fiszki-go/internal/service"
)

// FlashcardHandler serves the /flashcards resource.
type FlashcardHandler struct {
	service *service.FlashcardService
	log     *logger.Logger
}

func NewFlashcardHandler(svc *service.FlashcardService, log *logger.Logger) *FlashcardHandler {
	return &FlashcardHandler{service: svc, log: log}
}

// HandleList handles GET /api/v1/flashcards?page=&limit=.
func (h *FlashcardHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", service.DefaultPageLimit)
	resp, err := h.service.List(r.Context(), userID, page, limit)
	if err != nil {
		h.log.Error("listing flashcards failed", "user_id", userID, "error", err)
		writeInternalError(w)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleGet handles GET /api/v1/flashcards/{id}.
func (h *FlashcardHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := flashcardID(w, r)
	if !ok {
		return
	}

	card, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		h.writeError(w, userID, "loading flashcard failed", err)
		return
	}

	writeJSON(w, http.StatusOK, dataResponse(card))
}

// HandleCreate handles POST /api/v1/flashcards.
func (h *FlashcardHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.CreateFlashcardsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cards, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		h.writeError(w, userID, "creating flashcards failed", err)
		return
	}

	writeJSON(w, http.StatusCreated, dataResponse(cards))
}

// HandleUpdate handles PUT /api/v1/flashcards/{id}.
func (h *FlashcardHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := flashcardID(w, r)
	if !ok {
		return
	}

	var req model.UpdateFlashcardRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	card, err := h.service.Update(r.Context(), userID, id, req)
	if err != nil {
		h.writeError(w, userID, "updating flashcard failed", err)
		return
	}

	writeJSON(w, http.StatusOK, dataResponse(card))
}

// HandleDelete handles DELETE /api/v1/flashcards/{id}.
func (h *FlashcardHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := flashcardID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		h.writeError(w, userID, "deleting flashcard failed", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *FlashcardHandler) writeError(w http.ResponseWriter, userID int64, msg string, err error) {
	if writeValidationError(w, err) {
		return
	}
	if errors.Is(err, service.ErrFlashcardNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
		return
	}
	h.log.Error(msg, "user_id", userID, "error", err)
	writeInternalError(w)
}

func requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
	}
	return userID, ok
}

func flashcardID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid flashcard id"))
		return 0, false
	}
	return id, true
}

// queryInt returns the integer query parameter, or def when it is absent
// or not a number. Present values are passed on as given for clamping.
func queryInt(r *http.Request, key string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return def
	}
	return n
}
