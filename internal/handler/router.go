package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/fiszki/fiszki-go/internal/logger"
	"github.com/fiszki/fiszki-go/internal/middleware"
	"github.com/fiszki/fiszki-go/internal/service"
)

// RouterConfig carries everything the HTTP layer is built from.
type RouterConfig struct {
	Auth        *service.AuthService
	Flashcards  *service.FlashcardService
	Generations *service.GenerationService
	Tokens      middleware.TokenParser
	Log         *logger.Logger
	CORSOrigins []string

	AuthLimiter       *middleware.IPRateLimiter
	GenerationLimiter *middleware.IPRateLimiter
}

// NewRouter mounts the API under /api/v1 plus an unauthenticated /health.
func NewRouter(cfg RouterConfig) http.Handler {
	authH := NewAuthHandler(cfg.Auth, cfg.Log)
	cardH := NewFlashcardHandler(cfg.Flashcards, cfg.Log)
	genH := NewGenerationHandler(cfg.Generations, cfg.Log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Log))
	r.Use(chimw.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}).Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(limit(cfg.AuthLimiter))
			r.Post("/auth/register", authH.HandleRegister)
			r.Post("/auth/login", authH.HandleLogin)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuth(cfg.Tokens))
			r.Get("/auth/me", authH.HandleMe)

			r.Get("/flashcards", cardH.HandleList)
			r.Post("/flashcards", cardH.HandleCreate)
			r.Get("/flashcards/{id}", cardH.HandleGet)
			r.Put("/flashcards/{id}", cardH.HandleUpdate)
			r.Delete("/flashcards/{id}", cardH.HandleDelete)

			r.Patch("/generations", genH.HandleUpdateCounts)
			r.With(limit(cfg.GenerationLimiter)).Post("/generations", genH.HandleGenerate)
		})
	})

	return r
}

// limit applies rl, or nothing when rl is nil.
func limit(rl *middleware.IPRateLimiter) func(http.Handler) http.Handler {
	if rl == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.RateLimit(rl)
}
