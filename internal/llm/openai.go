package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/dkhwang/memoir/internal/search"
)

const searchToolName = "web_search"

// OpenAIProvider implements the Provider interface for OpenAI models.
// When a search provider is attached, the model may request one web-search
// round-trip per completion via function calling.
type OpenAIProvider struct {
	client   *openai.Client
	config   Config
	searcher search.Provider // nil disables the search tool
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(config Config, searcher search.Provider) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIProvider{
		client:   openai.NewClientWithConfig(clientConfig),
		config:   config,
		searcher: searcher,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable checks if the provider is properly configured
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.ListModels(ctx)
	if err != nil {
		// Log the actual error for debugging (this helps users diagnose API key issues)
		fmt.Fprintf(os.Stderr, "OpenAI API check failed: %v\n", err)
		return false
	}
	return true
}

// GenerateJSON runs a JSON-mode chat completion, optionally with one
// web-search tool round-trip.
func (p *OpenAIProvider) GenerateJSON(ctx context.Context, req Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = p.config.Model
	}
	if model == "" {
		model = openai.GPT4oMini
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 2000
	}

	timeout := time.Duration(p.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: req.System},
		{Role: openai.ChatMessageRoleUser, Content: req.User},
	}

	chatReq := openai.ChatCompletionRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}
	if req.Temperature > 0 {
		chatReq.Temperature = req.Temperature
	}

	withTool := req.AllowSearch && p.searcher != nil
	if withTool {
		chatReq.Tools = searchToolDefinition()
		chatReq.ToolChoice = "auto"
	}

	resp, err := p.client.CreateChatCompletion(ctxWithTimeout, chatReq)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	msg := resp.Choices[0].Message
	tokens := resp.Usage.TotalTokens

	if !withTool || len(msg.ToolCalls) == 0 {
		return &Response{
			Content:    strings.TrimSpace(msg.Content),
			Model:      model,
			TokensUsed: tokens,
		}, nil
	}

	// The model asked for the search tool: run every requested call,
	// append the tool outputs, and give it one follow-up completion.
	history := append(messages, msg)
	searchCalls := 0
	for _, call := range msg.ToolCalls {
		output := p.runSearchTool(ctxWithTimeout, call)
		if call.Function.Name == searchToolName {
			searchCalls++
		}
		history = append(history, openai.ChatCompletionMessage{
			Role:       openai.ChatMessageRoleTool,
			ToolCallID: call.ID,
			Name:       call.Function.Name,
			Content:    output,
		})
	}

	followReq := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    history,
		MaxTokens:   maxTokens,
		Temperature: 0.4,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	followup, err := p.client.CreateChatCompletion(ctxWithTimeout, followReq)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error after tool use: %w", err)
	}
	if len(followup.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI after tool use")
	}
	tokens += followup.Usage.TotalTokens

	return &Response{
		Content:     strings.TrimSpace(followup.Choices[0].Message.Content),
		Model:       model,
		TokensUsed:  tokens,
		SearchCalls: searchCalls,
	}, nil
}

// runSearchTool executes one requested tool call and returns the tool
// message content. Errors become JSON error payloads for the model rather
// than failing the completion.
func (p *OpenAIProvider) runSearchTool(ctx context.Context, call openai.ToolCall) string {
	if call.Function.Name != searchToolName {
		return toolError(fmt.Sprintf("unknown tool: %s", call.Function.Name))
	}

	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil || args.Query == "" {
		return toolError("invalid arguments: a 'query' string is required")
	}

	results, err := p.searcher.Search(ctx, args.Query)
	if err != nil {
		return toolError(fmt.Sprintf("search failed: %v", err))
	}

	data, err := json.Marshal(results)
	if err != nil {
		return toolError(fmt.Sprintf("encode results: %v", err))
	}
	return string(data)
}

func searchToolDefinition() []openai.Tool {
	return []openai.Tool{{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        searchToolName,
			Description: "Get information about the user prompt using web search",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "Web search query",
					},
				},
				"required":             []string{"query"},
				"additionalProperties": false,
			},
		},
	}}
}

func toolError(msg string) string {
	data, _ := json.Marshal(map[string]string{"error": msg})
	return string(data)
}
