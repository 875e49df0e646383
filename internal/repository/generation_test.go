package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/fiszki/fiszki-go/internal/model"
	"github.com/fiszki/fiszki-go/internal/testutil"
)

func TestGenerationRepository_CreateAndUpdateCounts(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewGenerationRepository(db)
	ctx := context.Background()
	userID := testutil.InsertUser(t, db, "a@example.com")

	gen := &model.Generation{
		UserID:             userID,
		Model:              "google/gemini-2.0-flash-001",
		GeneratedCount:     5,
		SourceTextHash:     "deadbeef",
		SourceTextLength:   1500,
		GenerationDuration: 830,
	}
	if err := repo.Create(ctx, gen); err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}
	if gen.ID == 0 {
		t.Fatal("expected generated id")
	}

	if err := repo.UpdateCounts(ctx, userID, gen.ID, 2, 1); err != nil {
		t.Fatalf("UpdateCounts() unexpected error: %v", err)
	}
	got, err := repo.Get(ctx, userID, gen.ID)
	if err != nil {
		t.Fatalf("Get() unexpected error: %v", err)
	}
	if got.AcceptedUneditedCount != 2 || got.AcceptedEditedCount != 1 {
		t.Errorf("counts = %d/%d, want 2/1", got.AcceptedUneditedCount, got.AcceptedEditedCount)
	}
	if got.GeneratedCount != 5 || got.GenerationDuration != 830 || got.Model != gen.Model {
		t.Errorf("Get() = %+v", got)
	}

	// Same values again is not a missing row.
	if err := repo.UpdateCounts(ctx, userID, gen.ID, 2, 1); err != nil {
		t.Errorf("repeated UpdateCounts() unexpected error: %v", err)
	}
}

func TestGenerationRepository_Ownership(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewGenerationRepository(db)
	ctx := context.Background()
	owner := testutil.InsertUser(t, db, "owner@example.com")
	other := testutil.InsertUser(t, db, "other@example.com")
	genID := newGeneration(t, repo, owner)

	ok, err := repo.Exists(ctx, owner, genID)
	if err != nil || !ok {
		t.Errorf("Exists(owner) = %v, %v; want true", ok, err)
	}
	ok, err = repo.Exists(ctx, other, genID)
	if err != nil || ok {
		t.Errorf("Exists(other) = %v, %v; want false", ok, err)
	}
	if err := repo.UpdateCounts(ctx, other, genID, 1, 1); !errors.Is(err, ErrGenerationNotFound) {
		t.Errorf("UpdateCounts(other) error = %v, want ErrGenerationNotFound", err)
	}
	if _, err := repo.Get(ctx, other, genID); !errors.Is(err, ErrGenerationNotFound) {
		t.Errorf("Get(other) error = %v, want ErrGenerationNotFound", err)
	}
}

func TestGenerationRepository_LogError(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewGenerationRepository(db)
	ctx := context.Background()
	userID := testutil.InsertUser(t, db, "a@example.com")

	entry := &model.GenerationErrorLog{
		UserID:           userID,
		Model:            "m",
		SourceTextHash:   "abc",
		SourceTextLength: 1000,
		ErrorCode:        "429",
		ErrorMessage:     "rate limited",
	}
	if err := repo.LogError(ctx, entry); err != nil {
		t.Fatalf("LogError() unexpected error: %v", err)
	}
	if entry.ID == 0 {
		t.Error("expected generated id")
	}

	n, err := repo.CountErrors(ctx, userID)
	if err != nil || n != 1 {
		t.Errorf("CountErrors() = %d, %v; want 1", n, err)
	}
}
