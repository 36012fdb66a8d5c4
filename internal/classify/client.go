package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hakwonlab/mathbank/internal/model"
)

// Client wraps an OpenAI-compatible API for problem classification.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a classification client against an OpenAI-compatible endpoint.
func New(baseURL, apiKey, modelName string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// Ping verifies the endpoint is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("LLM endpoint unreachable: %w", err)
	}
	return nil
}

// Classify sends one problem to the model and returns the validated
// classification plus the raw response text for auditing. Each call is
// independent; the taxonomy snapshot is passed explicitly so the prompt and
// the validation see the same data.
func (c *Client) Classify(ctx context.Context, problem model.Problem, snapshot []model.TypeRecord, opts PromptOptions) (model.Classification, string, error) {
	systemPrompt := BuildPrompt(snapshot, opts)

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: problem.Content},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.1,
	})
	if err != nil {
		return model.Classification{}, "", fmt.Errorf("classification API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return model.Classification{}, "", fmt.Errorf("model returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("classification response", "problem_id", problem.ID, "raw", raw)

	if err := CheckSchema([]byte(raw), opts.Mode); err != nil {
		return model.Classification{}, raw, fmt.Errorf("problem %d: %w", problem.ID, err)
	}

	var result Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return model.Classification{}, raw, fmt.Errorf("parse classification response: %w", err)
	}

	cls, err := ValidateResult(result, snapshot, opts.Mode)
	if err != nil {
		return model.Classification{}, raw, fmt.Errorf("problem %d: %w", problem.ID, err)
	}
	cls.ProblemID = problem.ID

	return cls, raw, nil
}
