package generation

import (
	"errors"
	"fmt"
	"strconv"
)

var ErrEmptyResponse = errors.New("no content in completion response")

// UpstreamError is a failed call to the completion endpoint. StatusCode is
// zero when no HTTP response was received.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return "completion API error: " + e.Message
	}
	return fmt.Sprintf("completion API error: %d - %s", e.StatusCode, e.Message)
}

// ParseError means the model answered with something other than the
// expected card list.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return "parsing completion content: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

// ErrorCode returns the code stored in the generation error log.
func ErrorCode(err error) string {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		if ue.StatusCode > 0 {
			return strconv.Itoa(ue.StatusCode)
		}
		return "NETWORK_ERROR"
	}
	var pe *ParseError
	if errors.As(err, &pe) {
		return "PARSE_ERROR"
	}
	if errors.Is(err, ErrEmptyResponse) {
		return "EMPTY_RESPONSE"
	}
	return "UNKNOWN"
}
