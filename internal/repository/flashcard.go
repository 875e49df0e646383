package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fiszki/fiszki-go/internal/model"
)

// ErrFlashcardNotFound covers both missing cards and cards owned by
// another user.
var ErrFlashcardNotFound = errors.New("flashcard not found")

const flashcardColumns = `id, front, back, source, generation_id, user_id, created_at, updated_at`

// FlashcardRepository stores flashcards. Every query is scoped to a user.
type FlashcardRepository struct {
	db *sql.DB
}

func NewFlashcardRepository(db *sql.DB) *FlashcardRepository {
	return &FlashcardRepository{db: db}
}

// List returns one page of the user's cards, newest first.
func (r *FlashcardRepository) List(ctx context.Context, userID int64, limit, offset int) ([]model.Flashcard, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+flashcardColumns+` FROM flashcards WHERE user_id = ?
		ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cards := []model.Flashcard{}
	for rows.Next() {
		card, err := scanFlashcard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

func (r *FlashcardRepository) Count(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM flashcards WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}

// CreateBatch inserts all cards in one transaction. Either every card is
// stored or none is.
func (r *FlashcardRepository) CreateBatch(ctx context.Context, userID int64, cards []model.CreateFlashcardRequest) ([]model.Flashcard, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO flashcards (front, back, source, generation_id, user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	ts := now()
	created := make([]model.Flashcard, 0, len(cards))
	for i, c := range cards {
		res, err := stmt.ExecContext(ctx, c.Front, c.Back, string(c.Source), nullInt64(c.GenerationID), userID, ts, ts)
		if err != nil {
			return nil, fmt.Errorf("insert flashcard %d: %w", i, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		created = append(created, model.Flashcard{
			ID:           id,
			Front:        c.Front,
			Back:         c.Back,
			Source:       c.Source,
			GenerationID: c.GenerationID,
			UserID:       userID,
			CreatedAt:    ts,
			UpdatedAt:    ts,
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return created, nil
}

func (r *FlashcardRepository) Get(ctx context.Context, userID, id int64) (model.Flashcard, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+flashcardColumns+` FROM flashcards WHERE id = ? AND user_id = ?`, id, userID)
	card, err := scanFlashcard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Flashcard{}, ErrFlashcardNotFound
	}
	return card, err
}

// Update writes front, back and source of card and returns the stored row.
func (r *FlashcardRepository) Update(ctx context.Context, userID int64, card model.Flashcard) (model.Flashcard, error) {
	_, err := r.db.ExecContext(ctx,
		`UPDATE flashcards SET front = ?, back = ?, source = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		card.Front, card.Back, string(card.Source), now(), card.ID, userID,
	)
	if err != nil {
		return model.Flashcard{}, err
	}
	// MySQL reports zero affected rows for a no-op update, so existence is
	// decided by reading the row back.
	return r.Get(ctx, userID, card.ID)
}

func (r *FlashcardRepository) Delete(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM flashcards WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrFlashcardNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFlashcard(s scanner) (model.Flashcard, error) {
	var (
		card   model.Flashcard
		source string
		genID  sql.NullInt64
	)
	if err := s.Scan(&card.ID, &card.Front, &card.Back, &source, &genID, &card.UserID, &card.CreatedAt, &card.UpdatedAt); err != nil {
		return model.Flashcard{}, err
	}
	card.Source = model.Source(source)
	if genID.Valid {
		id := genID.Int64
		card.GenerationID = &id
	}
	return card, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
