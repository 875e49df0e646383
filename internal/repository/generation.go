package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fiszki/fiszki-go/internal/model"
)

var ErrGenerationNotFound = errors.New("generation not found")

// GenerationRepository stores generation records and the append-only
// error log.
type GenerationRepository struct {
	db *sql.DB
}

func NewGenerationRepository(db *sql.DB) *GenerationRepository {
	return &GenerationRepository{db: db}
}

// Create inserts gen and fills in its ID and timestamps. Acceptance
// counters start at zero.
func (r *GenerationRepository) Create(ctx context.Context, gen *model.Generation) error {
	ts := now()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO generations (user_id, model, generated_count, accepted_unedited_count, accepted_edited_count,
			source_text_hash, source_text_length, generation_duration, created_at, updated_at)
		VALUES (?, ?, ?, 0, 0, ?, ?, ?, ?, ?)`,
		gen.UserID, gen.Model, gen.GeneratedCount, gen.SourceTextHash, gen.SourceTextLength,
		gen.GenerationDuration, ts, ts,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	gen.ID = id
	gen.AcceptedUneditedCount = 0
	gen.AcceptedEditedCount = 0
	gen.CreatedAt = ts
	gen.UpdatedAt = ts
	return nil
}

// Get returns one of the user's generations or ErrGenerationNotFound.
func (r *GenerationRepository) Get(ctx context.Context, userID, id int64) (model.Generation, error) {
	var g model.Generation
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, model, generated_count, accepted_unedited_count, accepted_edited_count,
			source_text_hash, source_text_length, generation_duration, created_at, updated_at
		FROM generations WHERE id = ? AND user_id = ?`, id, userID,
	).Scan(&g.ID, &g.UserID, &g.Model, &g.GeneratedCount, &g.AcceptedUneditedCount, &g.AcceptedEditedCount,
		&g.SourceTextHash, &g.SourceTextLength, &g.GenerationDuration, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Generation{}, ErrGenerationNotFound
	}
	return g, err
}

// Exists reports whether the generation exists and belongs to userID.
func (r *GenerationRepository) Exists(ctx context.Context, userID, id int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM generations WHERE id = ? AND user_id = ?`, id, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// UpdateCounts overwrites the acceptance counters of one of the user's
// generations.
func (r *GenerationRepository) UpdateCounts(ctx context.Context, userID, id int64, unedited, edited int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE generations SET accepted_unedited_count = ?, accepted_edited_count = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		unedited, edited, now(), id, userID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	// MySQL reports zero affected rows when the counters are unchanged.
	_, err = r.Get(ctx, userID, id)
	return err
}

// LogError appends a failed generation attempt.
func (r *GenerationRepository) LogError(ctx context.Context, entry *model.GenerationErrorLog) error {
	ts := now()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO generation_error_logs (user_id, model, source_text_hash, source_text_length, error_code, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.UserID, entry.Model, entry.SourceTextHash, entry.SourceTextLength, entry.ErrorCode, entry.ErrorMessage, ts,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	entry.ID = id
	entry.CreatedAt = ts
	return nil
}

func (r *GenerationRepository) CountErrors(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM generation_error_logs WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}
