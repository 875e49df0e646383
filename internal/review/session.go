// Package review holds the in-memory state of one proposal batch while a
// user accepts, edits and rejects candidates before saving them.
package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/fiszki/fiszki-go/internal/model"
	"github.com/fiszki/fiszki-go/internal/validate"
)

var (
	ErrUnknownProposal = errors.New("unknown proposal")
	ErrRejected        = errors.New("proposal was rejected")
	ErrEditing         = errors.New("proposal is being edited")
	ErrNotEditing      = errors.New("proposal is not being edited")
	ErrSaveInProgress  = errors.New("save already in progress")
	ErrNothingAccepted = errors.New("no accepted proposals to save")
	ErrSessionClosed   = errors.New("review session already saved")
)

// Store persists the outcome of a review.
type Store interface {
	CreateFlashcards(ctx context.Context, cards []model.CreateFlashcardRequest) ([]model.Flashcard, error)
	UpdateGenerationCounts(ctx context.Context, req model.UpdateGenerationRequest) error
}

// Item is one proposal and its review state. ID is the proposal's
// position in the generation response.
type Item struct {
	ID        int
	Front     string
	Back      string
	Accepted  bool
	Edited    bool
	Rejected  bool
	Editing   bool
	EditFront string
	EditBack  string
}

// Counts summarises the visible (non-rejected) items.
type Counts struct {
	Visible          int
	Accepted         int
	AcceptedUnedited int
	AcceptedEdited   int
}

// SaveResult reports a completed save. CountsErr is set when the
// flashcards were created but the generation counters could not be
// updated; the flashcards are kept either way.
type SaveResult struct {
	Created   []model.Flashcard
	Counts    Counts
	CountsErr error
}

// Session is the review of one generation. Transitions are serialized;
// Save performs its I/O without holding the lock but refuses every other
// transition until it finishes.
type Session struct {
	mu           sync.Mutex
	generationID int64
	items        []Item
	saving       bool
	closed       bool
}

func NewSession(generationID int64, proposals []model.FlashcardProposal) *Session {
	items := make([]Item, len(proposals))
	for i, p := range proposals {
		items[i] = Item{
			ID:        i,
			Front:     p.Front,
			Back:      p.Back,
			Accepted:  p.Accepted,
			Edited:    p.Edited,
			EditFront: p.Front,
			EditBack:  p.Back,
		}
	}
	return &Session{generationID: generationID, items: items}
}

// GenerationID returns the generation this session reviews.
func (s *Session) GenerationID() int64 {
	return s.generationID
}

// Items returns a copy of every item, rejected ones included.
func (s *Session) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Visible returns a copy of the items that have not been rejected.
func (s *Session) Visible() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Item, 0, len(s.items))
	for _, it := range s.items {
		if !it.Rejected {
			out = append(out, it)
		}
	}
	return out
}

func (s *Session) Counts() Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countsLocked()
}

func (s *Session) countsLocked() Counts {
	var c Counts
	for _, it := range s.items {
		if it.Rejected {
			continue
		}
		c.Visible++
		if !it.Accepted {
			continue
		}
		c.Accepted++
		if it.Edited {
			c.AcceptedEdited++
		} else {
			c.AcceptedUnedited++
		}
	}
	return c
}

func (s *Session) Accept(id int) error {
	return s.update(id, func(it *Item) error {
		if it.Editing {
			return ErrEditing
		}
		it.Accepted = true
		return nil
	})
}

// Reject hides the item for the rest of the session.
func (s *Session) Reject(id int) error {
	return s.update(id, func(it *Item) error {
		it.Rejected = true
		it.Accepted = false
		it.Editing = false
		return nil
	})
}

// StartEdit enters edit mode with the buffers reset to the committed text.
func (s *Session) StartEdit(id int) error {
	return s.update(id, func(it *Item) error {
		it.Editing = true
		it.EditFront = it.Front
		it.EditBack = it.Back
		return nil
	})
}

// SetEditFront replaces the front buffer. Values over the card limit are
// refused and leave the buffer as it was.
func (s *Session) SetEditFront(id int, value string) error {
	return s.update(id, func(it *Item) error {
		if !it.Editing {
			return ErrNotEditing
		}
		if utf8.RuneCountInString(value) > validate.MaxFrontLength {
			return &validate.Error{Field: "front", Reason: fmt.Sprintf("must be at most %d characters", validate.MaxFrontLength)}
		}
		it.EditFront = value
		return nil
	})
}

// SetEditBack replaces the back buffer under the same rules as SetEditFront.
func (s *Session) SetEditBack(id int, value string) error {
	return s.update(id, func(it *Item) error {
		if !it.Editing {
			return ErrNotEditing
		}
		if utf8.RuneCountInString(value) > validate.MaxBackLength {
			return &validate.Error{Field: "back", Reason: fmt.Sprintf("must be at most %d characters", validate.MaxBackLength)}
		}
		it.EditBack = value
		return nil
	})
}

// SaveEdit commits the trimmed buffers. A saved edit marks the item edited
// for good and accepts it.
func (s *Session) SaveEdit(id int) error {
	return s.update(id, func(it *Item) error {
		if !it.Editing {
			return ErrNotEditing
		}
		front := strings.TrimSpace(it.EditFront)
		back := strings.TrimSpace(it.EditBack)
		if err := validate.Card(front, back); err != nil {
			return err
		}
		it.Front = front
		it.Back = back
		it.Edited = true
		it.Accepted = true
		it.Editing = false
		return nil
	})
}

// CancelEdit leaves edit mode without touching committed content.
func (s *Session) CancelEdit(id int) error {
	return s.update(id, func(it *Item) error {
		if !it.Editing {
			return ErrNotEditing
		}
		it.Editing = false
		return nil
	})
}

func (s *Session) update(id int, fn func(*Item) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpenLocked(); err != nil {
		return err
	}
	if id < 0 || id >= len(s.items) {
		return ErrUnknownProposal
	}
	it := &s.items[id]
	if it.Rejected {
		return ErrRejected
	}
	return fn(it)
}

func (s *Session) checkOpenLocked() error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.saving {
		return ErrSaveInProgress
	}
	return nil
}

// Save creates one flashcard per accepted item in a single batch and then
// reports the acceptance counts for the generation. A failed batch leaves
// the session open so the user can try again.
func (s *Session) Save(ctx context.Context, store Store) (SaveResult, error) {
	s.mu.Lock()
	if err := s.checkOpenLocked(); err != nil {
		s.mu.Unlock()
		return SaveResult{}, err
	}
	counts := s.countsLocked()
	if counts.Accepted == 0 {
		s.mu.Unlock()
		return SaveResult{}, ErrNothingAccepted
	}
	genID := s.generationID
	cards := make([]model.CreateFlashcardRequest, 0, counts.Accepted)
	for _, it := range s.items {
		if it.Rejected || !it.Accepted {
			continue
		}
		source := model.SourceAIFull
		if it.Edited {
			source = model.SourceAIEdited
		}
		id := genID
		cards = append(cards, model.CreateFlashcardRequest{
			Front:        it.Front,
			Back:         it.Back,
			Source:       source,
			GenerationID: &id,
		})
	}
	s.saving = true
	s.mu.Unlock()

	created, err := store.CreateFlashcards(ctx, cards)
	if err != nil {
		s.mu.Lock()
		s.saving = false
		s.mu.Unlock()
		return SaveResult{}, fmt.Errorf("saving flashcards: %w", err)
	}

	unedited, edited := counts.AcceptedUnedited, counts.AcceptedEdited
	countsErr := store.UpdateGenerationCounts(ctx, model.UpdateGenerationRequest{
		GenerationID:          &genID,
		AcceptedUneditedCount: &unedited,
		AcceptedEditedCount:   &edited,
	})

	s.mu.Lock()
	s.saving = false
	s.closed = true
	s.mu.Unlock()

	return SaveResult{Created: created, Counts: counts, CountsErr: countsErr}, nil
}
