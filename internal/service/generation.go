package service

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/fiszki/fiszki-go/internal/generation"
	"github.com/fiszki/fiszki-go/internal/logger"
	"github.com/fiszki/fiszki-go/internal/model"
	"github.com/fiszki/fiszki-go/internal/repository"
	"github.com/fiszki/fiszki-go/internal/validate"
)

const maxErrorMessageLength = 1000

var (
	// ErrGenerationFailed is the only failure callers see from Generate;
	// the detail goes to the log and the error log table.
	ErrGenerationFailed   = errors.New("failed to generate flashcards, please try again later")
	ErrGenerationNotFound = errors.New("generation not found")
)

// Generator proposes flashcards for a source text.
type Generator interface {
	Generate(ctx context.Context, sourceText string) ([]generation.Card, error)
	Model() string
}

type GenerationStore interface {
	Create(ctx context.Context, gen *model.Generation) error
	UpdateCounts(ctx context.Context, userID, id int64, unedited, edited int) error
	LogError(ctx context.Context, entry *model.GenerationErrorLog) error
}

type GenerationService struct {
	generator Generator
	store     GenerationStore
	log       *logger.Logger
	now       func() time.Time
}

func NewGenerationService(generator Generator, store GenerationStore, log *logger.Logger) *GenerationService {
	return &GenerationService{generator: generator, store: store, log: log, now: time.Now}
}

// Generate asks the model for proposals and records the attempt. A failed
// call is written to the error log and reported as ErrGenerationFailed.
func (s *GenerationService) Generate(ctx context.Context, userID int64, req model.GenerateRequest) (model.GenerateResponse, error) {
	if err := validate.SourceText(req.SourceText); err != nil {
		return model.GenerateResponse{}, err
	}

	hash := generation.HashText(req.SourceText)
	length := utf8.RuneCountInString(req.SourceText)
	modelName := s.generator.Model()

	start := s.now()
	cards, err := s.generator.Generate(ctx, req.SourceText)
	duration := s.now().Sub(start)
	if err != nil {
		s.recordFailure(ctx, userID, modelName, hash, length, err)
		return model.GenerateResponse{}, ErrGenerationFailed
	}

	gen := &model.Generation{
		UserID:             userID,
		Model:              modelName,
		GeneratedCount:     len(cards),
		SourceTextHash:     hash,
		SourceTextLength:   length,
		GenerationDuration: duration.Milliseconds(),
	}
	if err := s.store.Create(ctx, gen); err != nil {
		return model.GenerateResponse{}, err
	}

	proposals := make([]model.FlashcardProposal, len(cards))
	for i, c := range cards {
		proposals[i] = model.FlashcardProposal{Front: c.Front, Back: c.Back}
	}

	s.log.Info("generation completed",
		"user_id", userID,
		"generation_id", gen.ID,
		"model", modelName,
		"generated_count", len(cards),
		"duration_ms", gen.GenerationDuration,
	)

	return model.GenerateResponse{GenerationID: gen.ID, Proposals: proposals}, nil
}

func (s *GenerationService) recordFailure(ctx context.Context, userID int64, modelName, hash string, length int, cause error) {
	code := generation.ErrorCode(cause)
	s.log.Error("generation failed",
		"user_id", userID,
		"model", modelName,
		"error_code", code,
		"error", cause,
	)

	entry := &model.GenerationErrorLog{
		UserID:           userID,
		Model:            modelName,
		SourceTextHash:   hash,
		SourceTextLength: length,
		ErrorCode:        code,
		ErrorMessage:     truncateRunes(cause.Error(), maxErrorMessageLength),
	}
	// The request may have been cancelled; the log row is still wanted.
	if err := s.store.LogError(context.WithoutCancel(ctx), entry); err != nil {
		s.log.Error("writing generation error log", "user_id", userID, "error", err)
	}
}

// UpdateCounts stores the acceptance outcome of a review. All three fields
// are required and counts must not be negative.
func (s *GenerationService) UpdateCounts(ctx context.Context, userID int64, req model.UpdateGenerationRequest) error {
	if req.GenerationID == nil || *req.GenerationID <= 0 {
		return &validate.Error{Field: "generation_id", Reason: "is required"}
	}
	if req.AcceptedUneditedCount == nil || *req.AcceptedUneditedCount < 0 {
		return &validate.Error{Field: "accepted_unedited_count", Reason: "must be a non-negative integer"}
	}
	if req.AcceptedEditedCount == nil || *req.AcceptedEditedCount < 0 {
		return &validate.Error{Field: "accepted_edited_count", Reason: "must be a non-negative integer"}
	}

	err := s.store.UpdateCounts(ctx, userID, *req.GenerationID, *req.AcceptedUneditedCount, *req.AcceptedEditedCount)
	if errors.Is(err, repository.ErrGenerationNotFound) {
		return ErrGenerationNotFound
	}
	return err
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
