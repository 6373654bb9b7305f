// Package oracle provides scoring clients for judging assertiveness turns.
//
// This file implements the OpenAI-backed scoring client.
package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/couragelab/standtall/internal/models"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/sync/semaphore"
)

// DefaultMaxConcurrentCalls bounds simultaneous outbound scoring requests
// when no explicit cap is configured.
const DefaultMaxConcurrentCalls = 10

// OpenAIClient scores turns using the OpenAI chat completions API.
type OpenAIClient struct {
	client openai.Client
	model  openai.ChatModel
	sem    *semaphore.Weighted
}

// newOpenAIClient creates an OpenAI scoring client from resolved options.
// Falls back to the OPENAI_API_KEY environment variable when no key is set.
func newOpenAIClient(cfg Opts) (*OpenAIClient, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		slog.Error("OpenAIClient: API key not set")
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}

	model := openai.ChatModelGPT4oMini
	if cfg.Model != "" {
		model = openai.ChatModel(cfg.Model)
	}

	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentCalls
	}

	slog.Debug("OpenAIClient: creating client", "model", model, "maxConcurrent", maxConcurrent)
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIClient{
		client: client,
		model:  model,
		sem:    semaphore.NewWeighted(maxConcurrent),
	}, nil
}

// ScoreTurn sends one turn to the OpenAI API and parses the structured judgment.
func (c *OpenAIClient) ScoreTurn(ctx context.Context, req TurnRequest) (models.TurnResult, error) {
	slog.Debug("OpenAIClient.ScoreTurn: dispatching turn", "utteranceLength", len(req.Utterance))

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return models.TurnResult{}, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	defer c.sem.Release(1)

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt(req)),
			openai.UserMessage(userPrompt(req)),
		},
	})
	if err != nil {
		slog.Error("OpenAIClient.ScoreTurn: completion failed", "error", err)
		return models.TurnResult{}, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		slog.Error("OpenAIClient.ScoreTurn: no choices returned")
		return models.TurnResult{}, fmt.Errorf("%w: no choices returned", ErrOracleUnavailable)
	}

	result, err := parseTurnResult(resp.Choices[0].Message.Content)
	if err != nil {
		slog.Error("OpenAIClient.ScoreTurn: failed to parse judgment", "error", err)
		return models.TurnResult{}, err
	}

	slog.Info("OpenAIClient.ScoreTurn: turn scored", "delta", result.ConfidenceDelta, "status", result.Status)
	return result, nil
}
