package model

import "time"

// Source records where a flashcard came from.
type Source string

const (
	SourceAIFull   Source = "ai-full"
	SourceAIEdited Source = "ai-edited"
	SourceManual   Source = "manual"
)

// Valid reports whether s is one of the known source tags.
func (s Source) Valid() bool {
	switch s {
	case SourceAIFull, SourceAIEdited, SourceManual:
		return true
	}
	return false
}

// AfterEdit returns the source a card carries once its content is edited.
// Only unedited AI cards change; manual and ai-edited cards keep their tag.
func (s Source) AfterEdit() Source {
	if s == SourceAIFull {
		return SourceAIEdited
	}
	return s
}

// Flashcard is a persisted question/answer card owned by one user.
type Flashcard struct {
	ID           int64     `json:"id"`
	Front        string    `json:"front"`
	Back         string    `json:"back"`
	Source       Source    `json:"source"`
	GenerationID *int64    `json:"generation_id"`
	UserID       int64     `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateFlashcardRequest is one element of a bulk create request.
type CreateFlashcardRequest struct {
	Front        string `json:"front"`
	Back         string `json:"back"`
	Source       Source `json:"source"`
	GenerationID *int64 `json:"generation_id,omitempty"`
}

// CreateFlashcardsRequest is the body of POST /flashcards.
type CreateFlashcardsRequest struct {
	Flashcards []CreateFlashcardRequest `json:"flashcards"`
}

// UpdateFlashcardRequest is the body of PUT /flashcards/{id}.
type UpdateFlashcardRequest struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// FlashcardPage is one page of a user's flashcards, newest first.
type FlashcardPage struct {
	Data  []Flashcard `json:"data"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
	Total int         `json:"total"`
}
