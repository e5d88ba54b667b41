package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dkhwang/memoir/internal/search"
)

func anthropicSuccess(text string) string {
	return `{
		"id": "msg_123",
		"type": "message",
		"role": "assistant",
		"content": [{"type": "text", "text": ` + mustJSON(text) + `}],
		"model": "claude-3-5-haiku-20241022",
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 50, "output_tokens": 50}
	}`
}

func mustJSON(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}

func TestAnthropicProvider_GenerateJSON_Success(t *testing.T) {
	var gotReq anthropicRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("Expected path /v1/messages, got %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("Expected x-api-key header, got %s", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") != "2023-06-01" {
			t.Errorf("Expected anthropic-version header, got %s", r.Header.Get("anthropic-version"))
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}

		_, _ = w.Write([]byte(anthropicSuccess(`{"choice": "0"}`)))
	}))
	defer server.Close()

	provider, err := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5}, nil)
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.GenerateJSON(context.Background(), Request{
		System: "Pick a candidate.",
		User:   "candidates...",
	})
	if err != nil {
		t.Fatalf("GenerateJSON failed: %v", err)
	}

	if resp.Content != `{"choice": "0"}` {
		t.Errorf("Unexpected content: %s", resp.Content)
	}
	if resp.TokensUsed != 100 {
		t.Errorf("Unexpected token count: %d", resp.TokensUsed)
	}
	// The JSON contract rides on the system prompt; there is no JSON mode
	if !strings.Contains(gotReq.System, "single JSON object") {
		t.Errorf("System prompt should carry the JSON contract, got %q", gotReq.System)
	}
}

func TestAnthropicProvider_GenerateJSON_InjectsSearch(t *testing.T) {
	searcher := &fakeSearcher{results: []search.Result{
		{Title: "Example Corp", Link: "https://example.com"},
	}}

	var gotReq anthropicRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_, _ = w.Write([]byte(anthropicSuccess(`{"company_name": "Example Corp"}`)))
	}))
	defer server.Close()

	provider, err := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5}, searcher)
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.GenerateJSON(context.Background(), Request{
		User:        "https://example.com",
		AllowSearch: true,
		SearchHint:  "Information about Example Corp",
	})
	if err != nil {
		t.Fatalf("GenerateJSON failed: %v", err)
	}

	if resp.SearchCalls != 1 {
		t.Errorf("Expected 1 search call, got %d", resp.SearchCalls)
	}
	if len(gotReq.Messages) != 1 || !strings.Contains(gotReq.Messages[0].Content, "Web search results") {
		t.Error("Search results should be injected into the user message")
	}
	if len(searcher.queries) != 1 || searcher.queries[0] != "Information about Example Corp" {
		t.Errorf("Unexpected search queries: %v", searcher.queries)
	}
}

func TestAnthropicProvider_GenerateJSON_SearchFailureSkipped(t *testing.T) {
	searcher := &fakeSearcher{err: context.DeadlineExceeded}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(anthropicSuccess(`{"company_name": "unknown"}`)))
	}))
	defer server.Close()

	provider, err := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5}, searcher)
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.GenerateJSON(context.Background(), Request{
		User:        "https://example.com",
		AllowSearch: true,
		SearchHint:  "query",
	})
	if err != nil {
		t.Fatalf("Failed search must not fail the completion: %v", err)
	}
	if resp.SearchCalls != 0 {
		t.Errorf("Expected 0 search calls, got %d", resp.SearchCalls)
	}
}

func TestAnthropicProvider_GenerateJSON_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type": "error", "error": {"type": "authentication_error", "message": "invalid key"}}`))
	}))
	defer server.Close()

	provider, err := NewAnthropicProvider(Config{APIKey: "bad-key", BaseURL: server.URL, Timeout: 5}, nil)
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	_, err = provider.GenerateJSON(context.Background(), Request{User: "x"})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !strings.Contains(err.Error(), "authentication_error") {
		t.Errorf("Error should carry the API error type, got %v", err)
	}
}

func TestAnthropicProvider_RequiresAPIKey(t *testing.T) {
	if _, err := NewAnthropicProvider(Config{}, nil); err == nil {
		t.Fatal("Expected error without API key")
	}
}
