package generation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func completion(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "test-model",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})
	return string(b)
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{APIKey: "test-key", BaseURL: srv.URL + "/api/v1/", Model: "test-model"})
}

func TestGenerateSendsRequest(t *testing.T) {
	var got struct {
		Model          string `json:"model"`
		ResponseFormat struct {
			Type string `json:"type"`
		} `json:"response_format"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/chat/completions" {
			t.Errorf("path = %q, want /api/v1/chat/completions", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Authorization = %q", auth)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completion(`{"flashcards":[{"front":"Q","back":"A"}]}`)))
	})

	cards, err := client.Generate(context.Background(), "source text")
	if err != nil {
		t.Fatalf("Generate() unexpected error: %v", err)
	}
	if len(cards) != 1 || cards[0] != (Card{"Q", "A"}) {
		t.Errorf("Generate() = %v", cards)
	}
	if got.Model != "test-model" {
		t.Errorf("model = %q, want test-model", got.Model)
	}
	if got.ResponseFormat.Type != "json_object" {
		t.Errorf("response_format = %q, want json_object", got.ResponseFormat.Type)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "source text" {
		t.Errorf("messages = %+v", got.Messages)
	}
}

func TestGenerateUpstreamStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "api error body", status: http.StatusTooManyRequests, body: `{"error":{"message":"rate limited","type":"rate_limit"}}`},
		{name: "plain body", status: http.StatusBadGateway, body: `upstream unavailable`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := client.Generate(context.Background(), "text")
			var ue *UpstreamError
			if !errors.As(err, &ue) {
				t.Fatalf("Generate() error = %v, want *UpstreamError", err)
			}
			if ue.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", ue.StatusCode, tt.status)
			}
			if !strings.Contains(ue.Error(), "completion API error") {
				t.Errorf("Error() = %q", ue.Error())
			}
		})
	}
}

func TestGenerateEmptyContent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completion("")))
	})

	if _, err := client.Generate(context.Background(), "text"); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("Generate() error = %v, want ErrEmptyResponse", err)
	}
}

func TestGenerateNoChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	})

	if _, err := client.Generate(context.Background(), "text"); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("Generate() error = %v, want ErrEmptyResponse", err)
	}
}

func TestGenerateUnparseableContent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completion("Sure! Here are your flashcards.")))
	})

	_, err := client.Generate(context.Background(), "text")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("Generate() error = %v, want *ParseError", err)
	}
}

func TestModel(t *testing.T) {
	if got := NewClient(Config{Model: "m"}).Model(); got != "m" {
		t.Errorf("Model() = %q, want m", got)
	}
}
