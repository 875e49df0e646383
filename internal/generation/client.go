// Package generation asks a chat-completion model for flashcard
// candidates and turns its free-form answer into sanitized cards.
package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const systemPrompt = `You are a flashcard generator. Given a text, create educational flashcards.
Each flashcard has a "front" (question, max 200 characters) and a "back" (answer, max 500 characters).
Generate between 3-10 flashcards depending on the text length and content density.
Return ONLY a JSON object of the form {"flashcards": [{"front": "...", "back": "..."}]}. No other text.
Example: {"flashcards": [{"front": "What is X?", "back": "X is..."}]}`

// Card is one sanitized front/back pair.
type Card struct {
	Front string
	Back  string
}

// Config selects the endpoint and model. BaseURL must point at an
// OpenAI-compatible API root such as https://openrouter.ai/api/v1.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Client performs a single completion call per Generate. It never retries.
type Client struct {
	api   *openai.Client
	model string
}

func NewClient(cfg Config) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &Client{api: openai.NewClientWithConfig(oc), model: cfg.Model}
}

// Model returns the model name sent with every request.
func (c *Client) Model() string {
	return c.model
}

// Generate returns the cards proposed for sourceText. The caller is
// responsible for bounding the text length beforehand.
func (c *Client) Generate(ctx context.Context, sourceText string) ([]Card, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: sourceText},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, upstreamError(err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, ErrEmptyResponse
	}

	return ParseCards(resp.Choices[0].Message.Content)
}

func upstreamError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &UpstreamError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &UpstreamError{StatusCode: reqErr.HTTPStatusCode, Message: reqErr.Error()}
	}
	return &UpstreamError{Message: fmt.Sprintf("request failed: %v", err)}
}
