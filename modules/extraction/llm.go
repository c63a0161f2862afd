package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultModel is the chat model used when none is configured.
const DefaultModel = openai.GPT4o

// JSONModel answers a prompt with a single JSON object.
type JSONModel interface {
	CompleteJSON(ctx context.Context, prompt string, maxTokens int, out any) error
}

// OpenAIConfig configures the OpenAI-backed model.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// OpenAIModel implements JSONModel with chat completions in JSON mode.
type OpenAIModel struct {
	client *openai.Client
	model  string
}

var _ JSONModel = (*OpenAIModel)(nil)

// NewOpenAIModel creates an OpenAI client from cfg.
func NewOpenAIModel(cfg OpenAIConfig) *OpenAIModel {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIModel{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}
}

// CompleteJSON sends prompt as a user message and decodes the reply into out.
func (m *OpenAIModel) CompleteJSON(ctx context.Context, prompt string, maxTokens int, out any) error {
	req := openai.ChatCompletionRequest{
		Model: m.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}
	if maxTokens > 0 {
		req.MaxTokens = maxTokens
	}

	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return errors.New("chat completion returned no choices")
	}
	return decodeJSON(resp.Choices[0].Message.Content, out)
}

// decodeJSON tolerates a fenced code block around the object.
func decodeJSON(content string, out any) error {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)
	if content == "" {
		return errors.New("model returned empty content")
	}
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("model returned invalid JSON: %w", err)
	}
	return nil
}
