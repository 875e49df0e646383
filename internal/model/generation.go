package model

import "time"

// Generation is the audit record of one completion call and the
// acceptance outcome reported back after review.
type Generation struct {
	ID                    int64     `json:"id"`
	UserID                int64     `json:"user_id"`
	Model                 string    `json:"model"`
	GeneratedCount        int       `json:"generated_count"`
	AcceptedUneditedCount int       `json:"accepted_unedited_count"`
	AcceptedEditedCount   int       `json:"accepted_edited_count"`
	SourceTextHash        string    `json:"source_text_hash"`
	SourceTextLength      int       `json:"source_text_length"`
	GenerationDuration    int64     `json:"generation_duration"` // milliseconds
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// GenerationErrorLog is an append-only record of a failed completion call.
type GenerationErrorLog struct {
	ID               int64     `json:"id"`
	UserID           int64     `json:"user_id"`
	Model            string    `json:"model"`
	SourceTextHash   string    `json:"source_text_hash"`
	SourceTextLength int       `json:"source_text_length"`
	ErrorCode        string    `json:"error_code"`
	ErrorMessage     string    `json:"error_message"`
	CreatedAt        time.Time `json:"created_at"`
}

// FlashcardProposal is a generated candidate card that has not been saved.
type FlashcardProposal struct {
	Front    string `json:"front"`
	Back     string `json:"back"`
	Accepted bool   `json:"accepted"`
	Edited   bool   `json:"edited"`
}

// GenerateRequest is the body of POST /generations.
type GenerateRequest struct {
	SourceText string `json:"source_text"`
}

// GenerateResponse returns the proposals together with the id of the
// generation record they belong to.
type GenerateResponse struct {
	GenerationID int64               `json:"generation_id"`
	Proposals    []FlashcardProposal `json:"proposals"`
}

// UpdateGenerationRequest is the body of PATCH /generations.
// Pointers distinguish a missing field from an explicit zero.
type UpdateGenerationRequest struct {
	GenerationID          *int64 `json:"generation_id"`
	AcceptedUneditedCount *int   `json:"accepted_unedited_count"`
	AcceptedEditedCount   *int   `json:"accepted_edited_count"`
}
