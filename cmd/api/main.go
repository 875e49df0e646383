package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fiszki/fiszki-go/internal/config"
	"github.com/fiszki/fiszki-go/internal/crypto"
	"github.com/fiszki/fiszki-go/internal/generation"
	"github.com/fiszki/fiszki-go/internal/handler"
	"github.com/fiszki/fiszki-go/internal/logger"
	"github.com/fiszki/fiszki-go/internal/middleware"
	"github.com/fiszki/fiszki-go/internal/repository"
	"github.com/fiszki/fiszki-go/internal/service"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "fiszki-api",
		Short: "Flashcard API with LLM-generated proposals",
		Long: `fiszki-api serves the flashcard HTTP API.

Configuration is read from the environment (and a .env file if present).

Examples:
  fiszki-api            # same as "fiszki-api serve"
  fiszki-api migrate    # create missing database tables`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context())
		},
	})

	return root
}

func setup() (config.Config, *logger.Logger, error) {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return cfg, nil, err
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return cfg, nil, fmt.Errorf("building logger: %w", err)
	}
	if envErr != nil {
		log.Debug("no .env file found, using environment variables")
	}
	return cfg, log, nil
}

func runMigrate(ctx context.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := repository.NewDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repository.Migrate(ctx, db); err != nil {
		return err
	}
	log.Info("schema applied")
	return nil
}

func runServe(ctx context.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.NewDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.OpenRouterKey == "" {
		log.Warn("OPENROUTER_API_KEY is empty, generation requests will fail")
	}

	tokens := crypto.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiry)
	users := repository.NewUserRepository(db)
	cards := repository.NewFlashcardRepository(db)
	gens := repository.NewGenerationRepository(db)
	client := generation.NewClient(generation.Config{
		APIKey:  cfg.OpenRouterKey,
		BaseURL: cfg.OpenRouterURL,
		Model:   cfg.GenerationModel,
	})

	authLimiter := middleware.NewIPRateLimiter(5, 10)
	genLimiter := middleware.NewIPRateLimiter(1, 3)
	go authLimiter.Run(ctx)
	go genLimiter.Run(ctx)

	router := handler.NewRouter(handler.RouterConfig{
		Auth:              service.NewAuthService(users, crypto.DefaultPasswordHasher(), tokens),
		Flashcards:        service.NewFlashcardService(cards, gens),
		Generations:       service.NewGenerationService(client, gens, log),
		Tokens:            tokens,
		Log:               log,
		CORSOrigins:       cfg.CORSOrigins,
		AuthLimiter:       authLimiter,
		GenerationLimiter: genLimiter,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "model", cfg.GenerationModel)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}
