package generation

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/fiszki/fiszki-go/internal/validate"
)

// ParseCards accepts either a bare JSON array of cards or an object with a
// "flashcards" array. Elements without a usable front and back are dropped
// and the rest are truncated to the card limits.
func ParseCards(content string) ([]Card, error) {
	content = strings.TrimSpace(content)

	var elems []json.RawMessage
	switch {
	case strings.HasPrefix(content, "["):
		if err := json.Unmarshal([]byte(content), &elems); err != nil {
			return nil, &ParseError{Err: err}
		}
	case strings.HasPrefix(content, "{"):
		var wrapped struct {
			Flashcards *[]json.RawMessage `json:"flashcards"`
		}
		if err := json.Unmarshal([]byte(content), &wrapped); err != nil {
			return nil, &ParseError{Err: err}
		}
		if wrapped.Flashcards == nil {
			return nil, &ParseError{Err: errors.New(`object has no "flashcards" array`)}
		}
		elems = *wrapped.Flashcards
	default:
		return nil, &ParseError{Err: errors.New("content is neither a JSON array nor an object")}
	}

	cards := make([]Card, 0, len(elems))
	for _, raw := range elems {
		var fields struct {
			Front any `json:"front"`
			Back  any `json:"back"`
		}
		if err := json.Unmarshal(raw, &fields); err != nil {
			continue
		}
		front, back := text(fields.Front), text(fields.Back)
		if front == "" || back == "" {
			continue
		}
		cards = append(cards, Card{
			Front: truncate(front, validate.MaxFrontLength),
			Back:  truncate(back, validate.MaxBackLength),
		})
	}
	return cards, nil
}

func text(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
