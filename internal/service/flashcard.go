package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/fiszki/fiszki-go/internal/model"
	"github.com/fiszki/fiszki-go/internal/repository"
	"github.com/fiszki/fiszki-go/internal/validate"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
	MaxBatchSize     = 100
)

var ErrFlashcardNotFound = errors.New("flashcard not found")

type FlashcardStore interface {
	List(ctx context.Context, userID int64, limit, offset int) ([]model.Flashcard, error)
	Count(ctx context.Context, userID int64) (int, error)
	CreateBatch(ctx context.Context, userID int64, cards []model.CreateFlashcardRequest) ([]model.Flashcard, error)
	Get(ctx context.Context, userID, id int64) (model.Flashcard, error)
	Update(ctx context.Context, userID int64, card model.Flashcard) (model.Flashcard, error)
	Delete(ctx context.Context, userID, id int64) error
}

// GenerationLookup answers whether a generation belongs to a user.
type GenerationLookup interface {
	Exists(ctx context.Context, userID, id int64) (bool, error)
}

type FlashcardService struct {
	cards       FlashcardStore
	generations GenerationLookup
}

func NewFlashcardService(cards FlashcardStore, generations GenerationLookup) *FlashcardService {
	return &FlashcardService{cards: cards, generations: generations}
}

// NormalizePage clamps page to at least 1 and limit to [1, MaxPageLimit].
// Callers substitute DefaultPageLimit for an absent limit beforehand.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case limit < 1:
		limit = 1
	case limit > MaxPageLimit:
		limit = MaxPageLimit
	}
	return page, limit
}

// List returns one page of the user's flashcards and the total count.
func (s *FlashcardService) List(ctx context.Context, userID int64, page, limit int) (model.FlashcardPage, error) {
	page, limit = NormalizePage(page, limit)

	var (
		cards []model.Flashcard
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cards, err = s.cards.List(gctx, userID, limit, (page-1)*limit)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.cards.Count(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.FlashcardPage{}, fmt.Errorf("listing flashcards: %w", err)
	}

	return model.FlashcardPage{Data: cards, Page: page, Limit: limit, Total: total}, nil
}

func (s *FlashcardService) Get(ctx context.Context, userID, id int64) (model.Flashcard, error) {
	card, err := s.cards.Get(ctx, userID, id)
	if errors.Is(err, repository.ErrFlashcardNotFound) {
		return model.Flashcard{}, ErrFlashcardNotFound
	}
	return card, err
}

// Create validates the whole batch before writing anything and then
// stores it atomically. Referenced generations must belong to the user.
func (s *FlashcardService) Create(ctx context.Context, userID int64, req model.CreateFlashcardsRequest) ([]model.Flashcard, error) {
	n := len(req.Flashcards)
	if n == 0 || n > MaxBatchSize {
		return nil, &validate.Error{Field: "flashcards", Reason: fmt.Sprintf("must contain between 1 and %d items", MaxBatchSize)}
	}

	cards := make([]model.CreateFlashcardRequest, n)
	for i, c := range req.Flashcards {
		c.Front = strings.TrimSpace(c.Front)
		c.Back = strings.TrimSpace(c.Back)
		cards[i] = c
	}
	if err := validate.Batch(cards); err != nil {
		return nil, err
	}

	owned := map[int64]bool{}
	for i, c := range cards {
		if c.GenerationID == nil {
			continue
		}
		id := *c.GenerationID
		ok, seen := owned[id]
		if !seen {
			var err error
			ok, err = s.generations.Exists(ctx, userID, id)
			if err != nil {
				return nil, err
			}
			owned[id] = ok
		}
		if !ok {
			return nil, &validate.Error{Field: fmt.Sprintf("flashcards[%d].generation_id", i), Reason: "does not reference a known generation"}
		}
	}

	return s.cards.CreateBatch(ctx, userID, cards)
}

// Update replaces front and back. Editing an unedited AI card marks it
// ai-edited; other sources are kept.
func (s *FlashcardService) Update(ctx context.Context, userID, id int64, req model.UpdateFlashcardRequest) (model.Flashcard, error) {
	front := strings.TrimSpace(req.Front)
	back := strings.TrimSpace(req.Back)
	if err := validate.Card(front, back); err != nil {
		return model.Flashcard{}, err
	}

	card, err := s.Get(ctx, userID, id)
	if err != nil {
		return model.Flashcard{}, err
	}
	card.Front = front
	card.Back = back
	card.Source = card.Source.AfterEdit()

	updated, err := s.cards.Update(ctx, userID, card)
	if errors.Is(err, repository.ErrFlashcardNotFound) {
		return model.Flashcard{}, ErrFlashcardNotFound
	}
	return updated, err
}

func (s *FlashcardService) Delete(ctx context.Context, userID, id int64) error {
	err := s.cards.Delete(ctx, userID, id)
	if errors.Is(err, repository.ErrFlashcardNotFound) {
		return ErrFlashcardNotFound
	}
	return err
}
