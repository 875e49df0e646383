// Package apiclient talks to the fiszki HTTP API. A logged-in Client
// satisfies review.Store.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fiszki/fiszki-go/internal/model"
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// New returns a client for the API rooted at baseURL, e.g.
// http://localhost:8080/api/v1. A nil httpClient gets a 60s timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// SetToken sets the bearer token sent with every request.
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) Register(ctx context.Context, email, password string) (model.AuthResponse, error) {
	return c.authenticate(ctx, "/auth/register", email, password)
}

func (c *Client) Login(ctx context.Context, email, password string) (model.AuthResponse, error) {
	return c.authenticate(ctx, "/auth/login", email, password)
}

func (c *Client) authenticate(ctx context.Context, path, email, password string) (model.AuthResponse, error) {
	var resp model.AuthResponse
	err := c.do(ctx, http.MethodPost, path, model.CredentialsRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return model.AuthResponse{}, err
	}
	c.SetToken(resp.Token)
	return resp, nil
}

func (c *Client) Generate(ctx context.Context, sourceText string) (model.GenerateResponse, error) {
	var resp model.GenerateResponse
	err := c.do(ctx, http.MethodPost, "/generations", model.GenerateRequest{SourceText: sourceText}, &resp)
	return resp, err
}

func (c *Client) ListFlashcards(ctx context.Context, page, limit int) (model.FlashcardPage, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/flashcards"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp model.FlashcardPage
	err := c.do(ctx, http.MethodGet, path, nil, &resp)
	return resp, err
}

func (c *Client) CreateFlashcards(ctx context.Context, cards []model.CreateFlashcardRequest) ([]model.Flashcard, error) {
	var resp struct {
		Data []model.Flashcard `json:"data"`
	}
	err := c.do(ctx, http.MethodPost, "/flashcards", model.CreateFlashcardsRequest{Flashcards: cards}, &resp)
	return resp.Data, err
}

func (c *Client) DeleteFlashcard(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/flashcards/"+strconv.FormatInt(id, 10), nil, nil)
}

func (c *Client) UpdateGenerationCounts(ctx context.Context, req model.UpdateGenerationRequest) error {
	return c.do(ctx, http.MethodPatch, "/generations", req, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		rdr = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var body struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		msg = body.Error
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}
