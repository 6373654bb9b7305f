// Package oracle provides scoring clients for judging assertiveness turns.
//
// This file implements the Gemini-backed scoring client.
package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/couragelab/standtall/internal/models"
	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model override is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiClient scores turns using the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// newGeminiClient creates a Gemini scoring client from resolved options.
// Falls back to the GEMINI_API_KEY environment variable when no key is set.
func newGeminiClient(cfg Opts) (*GeminiClient, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		slog.Error("GeminiClient: API key not set")
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	slog.Debug("GeminiClient: creating client", "model", model)
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

// ScoreTurn sends one turn to the Gemini API and parses the structured judgment.
func (c *GeminiClient) ScoreTurn(ctx context.Context, req TurnRequest) (models.TurnResult, error) {
	slog.Debug("GeminiClient.ScoreTurn: dispatching turn", "utteranceLength", len(req.Utterance))

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(userPrompt(req)), &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt(req)}}},
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		slog.Error("GeminiClient.ScoreTurn: generation failed", "error", err)
		return models.TurnResult{}, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		slog.Error("GeminiClient.ScoreTurn: empty response")
		return models.TurnResult{}, fmt.Errorf("%w: empty response", ErrOracleUnavailable)
	}

	result, err := parseTurnResult(resp.Candidates[0].Content.Parts[0].Text)
	if err != nil {
		slog.Error("GeminiClient.ScoreTurn: failed to parse judgment", "error", err)
		return models.TurnResult{}, err
	}

	slog.Info("GeminiClient.ScoreTurn: turn scored", "delta", result.ConfidenceDelta, "status", result.Status)
	return result, nil
}
