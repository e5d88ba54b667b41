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

func TestOllamaProvider_GenerateJSON_Success(t *testing.T) {
	var gotReq ollamaRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("Expected path /api/generate, got %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}

		_ = json.NewEncoder(w).Encode(ollamaResponse{
			Model:           "llama3.1:8b",
			Response:        `{"choice": "1"}`,
			Done:            true,
			PromptEvalCount: 40,
			EvalCount:       20,
		})
	}))
	defer server.Close()

	provider, err := NewOllamaProvider(Config{BaseURL: server.URL, Model: "llama3.1:8b", Timeout: 5}, nil)
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

	if resp.Content != `{"choice": "1"}` {
		t.Errorf("Unexpected content: %s", resp.Content)
	}
	if resp.TokensUsed != 60 {
		t.Errorf("Unexpected token count: %d", resp.TokensUsed)
	}
	if gotReq.Format != "json" {
		t.Errorf("Expected format json, got %q", gotReq.Format)
	}
	if gotReq.Stream {
		t.Error("Streaming must be disabled")
	}
}

func TestOllamaProvider_GenerateJSON_InjectsSearch(t *testing.T) {
	searcher := &fakeSearcher{results: []search.Result{
		{Title: "Example", Link: "https://example.com"},
	}}

	var gotReq ollamaRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_ = json.NewEncoder(w).Encode(ollamaResponse{
			Model:    "llama3.1:8b",
			Response: `{"company_name": "Example"}`,
			Done:     true,
		})
	}))
	defer server.Close()

	provider, err := NewOllamaProvider(Config{BaseURL: server.URL, Model: "llama3.1:8b", Timeout: 5}, searcher)
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.GenerateJSON(context.Background(), Request{
		User:        "https://example.com",
		AllowSearch: true,
		SearchHint:  "Information about Example",
	})
	if err != nil {
		t.Fatalf("GenerateJSON failed: %v", err)
	}

	if resp.SearchCalls != 1 {
		t.Errorf("Expected 1 search call, got %d", resp.SearchCalls)
	}
	if !strings.Contains(gotReq.Prompt, "Web search results") {
		t.Error("Search results should be injected into the prompt")
	}
	// Token counts absent from the response fall back to an estimate
	if resp.TokensUsed == 0 {
		t.Error("Expected estimated token count")
	}
}

func TestOllamaProvider_GenerateJSON_RequiresModel(t *testing.T) {
	provider, err := NewOllamaProvider(Config{BaseURL: "http://localhost:11434"}, nil)
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if _, err := provider.GenerateJSON(context.Background(), Request{User: "x"}); err == nil {
		t.Fatal("Expected error without a model name")
	}
}

func TestOllamaProvider_GenerateJSON_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": "model not found"}`))
	}))
	defer server.Close()

	provider, err := NewOllamaProvider(Config{BaseURL: server.URL, Model: "missing", Timeout: 5}, nil)
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	_, err = provider.GenerateJSON(context.Background(), Request{User: "x"})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !strings.Contains(err.Error(), "model not found") {
		t.Errorf("Error should carry the API message, got %v", err)
	}
}

func TestOllamaProvider_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			_, _ = w.Write([]byte(`{"models": []}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	provider, err := NewOllamaProvider(Config{BaseURL: server.URL}, nil)
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if !provider.IsAvailable(context.Background()) {
		t.Error("Expected available to be true")
	}
}

func TestNewProvider_Factory(t *testing.T) {
	if _, err := NewProvider(Config{Provider: "openai", APIKey: "k"}, nil); err != nil {
		t.Errorf("openai: %v", err)
	}
	if _, err := NewProvider(Config{Provider: "claude", APIKey: "k"}, nil); err != nil {
		t.Errorf("claude alias: %v", err)
	}
	if _, err := NewProvider(Config{Provider: "ollama"}, nil); err != nil {
		t.Errorf("ollama: %v", err)
	}
	if _, err := NewProvider(Config{Provider: "mystery"}, nil); err == nil {
		t.Error("Expected error for unknown provider")
	}
}
