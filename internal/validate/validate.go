// Package validate holds the length and enum checks shared by every
// flashcard write path.
package validate

import (
	"fmt"
	"unicode/utf8"

	"github.com/fiszki/fiszki-go/internal/model"
)

const (
	MaxFrontLength      = 200
	MaxBackLength       = 500
	MinSourceTextLength = 1000
	MaxSourceTextLength = 10000
)

// Error is returned when client input is out of bounds.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return e.Field + " " + e.Reason
}

func newError(field, format string, args ...any) *Error {
	return &Error{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Front checks that a card front holds 1 to 200 characters.
func Front(s string) error {
	return length("front", s, 1, MaxFrontLength)
}

// Back checks that a card back holds 1 to 500 characters.
func Back(s string) error {
	return length("back", s, 1, MaxBackLength)
}

// Source checks that s is one of the known source tags.
func Source(s model.Source) error {
	if !s.Valid() {
		return newError("source", "must be one of %s, %s, %s",
			model.SourceAIFull, model.SourceAIEdited, model.SourceManual)
	}
	return nil
}

// Card validates the fields an update may change.
func Card(front, back string) error {
	if err := Front(front); err != nil {
		return err
	}
	return Back(back)
}

// NewCard validates a card about to be created.
func NewCard(front, back string, source model.Source) error {
	if err := Card(front, back); err != nil {
		return err
	}
	return Source(source)
}

// Batch validates every element of a bulk create request. The first
// failing element is reported with its index in the field name.
func Batch(cards []model.CreateFlashcardRequest) error {
	for i, c := range cards {
		if err := NewCard(c.Front, c.Back, c.Source); err != nil {
			ve := err.(*Error)
			return &Error{Field: fmt.Sprintf("flashcards[%d].%s", i, ve.Field), Reason: ve.Reason}
		}
	}
	return nil
}

// SourceText checks the text submitted for generation.
func SourceText(s string) error {
	n := utf8.RuneCountInString(s)
	if n < MinSourceTextLength || n > MaxSourceTextLength {
		return newError("source_text", "must be between %d and %d characters (got %d)",
			MinSourceTextLength, MaxSourceTextLength, n)
	}
	return nil
}

func length(field, s string, lo, hi int) error {
	n := utf8.RuneCountInString(s)
	if n < lo || n > hi {
		return newError(field, "must be between %d and %d characters", lo, hi)
	}
	return nil
}
