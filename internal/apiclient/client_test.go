package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fiszki/fiszki-go/internal/crypto"
	"github.com/fiszki/fiszki-go/internal/generation"
	"github.com/fiszki/fiszki-go/internal/handler"
	"github.com/fiszki/fiszki-go/internal/logger"
	"github.com/fiszki/fiszki-go/internal/model"
	"github.com/fiszki/fiszki-go/internal/repository"
	"github.com/fiszki/fiszki-go/internal/review"
	"github.com/fiszki/fiszki-go/internal/service"
	"github.com/fiszki/fiszki-go/internal/testutil"
)

var _ review.Store = (*Client)(nil)

type fakeGenerator struct {
	cards []generation.Card
}

func (f *fakeGenerator) Generate(ctx context.Context, sourceText string) ([]generation.Card, error) {
	return f.cards, nil
}

func (f *fakeGenerator) Model() string { return "test/model" }

func newAPI(t *testing.T, gen *fakeGenerator) (*httptest.Server, *repository.GenerationRepository) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	log := logger.Nop()
	tokens := crypto.NewTokenIssuer("test-secret", time.Hour)
	hasher := crypto.PasswordHasher{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
	gens := repository.NewGenerationRepository(db)

	srv := httptest.NewServer(handler.NewRouter(handler.RouterConfig{
		Auth:        service.NewAuthService(repository.NewUserRepository(db), hasher, tokens),
		Flashcards:  service.NewFlashcardService(repository.NewFlashcardRepository(db), gens),
		Generations: service.NewGenerationService(gen, gens, log),
		Tokens:      tokens,
		Log:         log,
	}))
	t.Cleanup(srv.Close)
	return srv, gens
}

func TestReviewSessionEndToEnd(t *testing.T) {
	gen := &fakeGenerator{cards: []generation.Card{
		{Front: "Q1", Back: "A1"},
		{Front: "Q2", Back: "A2"},
		{Front: "Q3", Back: "A3"},
		{Front: "Q4", Back: "A4"},
		{Front: "Q5", Back: "A5"},
	}}
	srv, gens := newAPI(t, gen)
	ctx := context.Background()

	c := New(srv.URL+"/api/v1", srv.Client())
	auth, err := c.Register(ctx, "ala@example.com", "secret123")
	if err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}

	resp, err := c.Generate(ctx, strings.Repeat("tekst ", 200))
	if err != nil {
		t.Fatalf("Generate() unexpected error: %v", err)
	}
	if len(resp.Proposals) != 5 {
		t.Fatalf("proposals = %d, want 5", len(resp.Proposals))
	}

	s := review.NewSession(resp.GenerationID, resp.Proposals)
	for _, id := range []int{0, 1} {
		if err := s.Accept(id); err != nil {
			t.Fatalf("Accept(%d) unexpected error: %v", id, err)
		}
	}
	if err := s.StartEdit(3); err != nil {
		t.Fatal(err)
	}
	if err := s.SetEditFront(3, "Q4 better"); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveEdit(3); err != nil {
		t.Fatal(err)
	}
	if err := s.Reject(4); err != nil {
		t.Fatal(err)
	}

	res, err := s.Save(ctx, c)
	if err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}
	if res.CountsErr != nil {
		t.Fatalf("Save() CountsErr = %v", res.CountsErr)
	}

	page, err := c.ListFlashcards(ctx, 1, 20)
	if err != nil {
		t.Fatalf("ListFlashcards() unexpected error: %v", err)
	}
	if page.Total != 3 {
		t.Fatalf("Total = %d, want 3", page.Total)
	}
	sources := map[model.Source]int{}
	for _, card := range page.Data {
		sources[card.Source]++
		if card.GenerationID == nil || *card.GenerationID != resp.GenerationID {
			t.Errorf("card %d generation_id = %v", card.ID, card.GenerationID)
		}
	}
	if sources[model.SourceAIFull] != 2 || sources[model.SourceAIEdited] != 1 {
		t.Errorf("sources = %v, want 2 ai-full and 1 ai-edited", sources)
	}

	stored, err := gens.Get(ctx, auth.User.ID, resp.GenerationID)
	if err != nil {
		t.Fatalf("Get() unexpected error: %v", err)
	}
	if stored.AcceptedUneditedCount != 2 || stored.AcceptedEditedCount != 1 {
		t.Errorf("counts = %d/%d, want 2/1", stored.AcceptedUneditedCount, stored.AcceptedEditedCount)
	}
}

func TestAPIErrors(t *testing.T) {
	srv, _ := newAPI(t, &fakeGenerator{})
	ctx := context.Background()
	c := New(srv.URL+"/api/v1/", nil)

	_, err := c.ListFlashcards(ctx, 0, 0)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized || apiErr.Message != "unauthorized" {
		t.Fatalf("ListFlashcards() without token error = %v", err)
	}

	if _, err := c.Register(ctx, "ala@example.com", "secret123"); err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}
	_, err = c.Generate(ctx, "too short")
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest {
		t.Fatalf("Generate() error = %v, want 400", err)
	}
	if !strings.Contains(apiErr.Message, "source_text") {
		t.Errorf("message = %q, want it to name source_text", apiErr.Message)
	}

	err = c.DeleteFlashcard(ctx, 12345)
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Errorf("DeleteFlashcard() error = %v, want 404", err)
	}
}

func TestDecodeErrorPlainText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := New(srv.URL, nil).UpdateGenerationCounts(context.Background(), model.UpdateGenerationRequest{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadGateway || apiErr.Message != "upstream down" {
		t.Errorf("error = %v", err)
	}
}
