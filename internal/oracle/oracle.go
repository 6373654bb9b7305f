// Package oracle provides scoring clients for judging assertiveness turns
// using external generative-language services.
//
// The oracle is treated as a black box: it receives the scenario context and
// the learner's utterance and returns a structured TurnResult. Every failure
// mode while contacting or parsing the service collapses into the single
// ErrOracleUnavailable error kind; the sequencer maps it to one voided turn.
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/couragelab/standtall/internal/models"
)

// ErrOracleUnavailable covers network failure, malformed responses, and any
// other error raised while contacting the scoring service.
var ErrOracleUnavailable = errors.New("scoring oracle unavailable")

// TurnRequest carries the context the oracle needs to judge one turn.
type TurnRequest struct {
	Scenario    string
	Objective   string
	LastNPCLine string
	Utterance   string
}

// Client scores a single turn. Implementations must return an error wrapping
// ErrOracleUnavailable for any failure, so callers need only one check.
type Client interface {
	ScoreTurn(ctx context.Context, req TurnRequest) (models.TurnResult, error)
}

// Provider names for client construction.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Opts holds configuration options for oracle clients.
type Opts struct {
	Provider      string // "openai" (default) or "gemini"
	APIKey        string
	Model         string // provider-specific model override
	MaxConcurrent int64  // cap on simultaneous outbound scoring calls
}

// Option defines a configuration option for oracle clients.
type Option func(*Opts)

// WithProvider selects the scoring provider.
func WithProvider(provider string) Option {
	return func(o *Opts) {
		o.Provider = provider
	}
}

// WithAPIKey sets the API key for the scoring provider.
func WithAPIKey(key string) Option {
	return func(o *Opts) {
		o.APIKey = key
	}
}

// WithModel overrides the provider's default model.
func WithModel(model string) Option {
	return func(o *Opts) {
		o.Model = model
	}
}

// WithMaxConcurrent caps the number of simultaneous scoring calls.
func WithMaxConcurrent(n int64) Option {
	return func(o *Opts) {
		o.MaxConcurrent = n
	}
}

// NewClient constructs a scoring client for the configured provider.
func NewClient(opts ...Option) (Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	switch cfg.Provider {
	case "", ProviderOpenAI:
		return newOpenAIClient(cfg)
	case ProviderGemini:
		return newGeminiClient(cfg)
	default:
		return nil, fmt.Errorf("unknown oracle provider %q", cfg.Provider)
	}
}

// systemPrompt builds the judging instructions for one turn. The pass rule
// (only pass a learner whose confidence would exceed 80) lives here in the
// oracle's instructions; the sequencer trusts the reported status as-is.
func systemPrompt(req TurnRequest) string {
	var b strings.Builder
	b.WriteString("You are running one turn of an assertiveness training roleplay.\n")
	b.WriteString("You play two roles at once: the scene's counterpart character, and an assertiveness coach judging the learner.\n\n")
	b.WriteString("SCENARIO:\n")
	b.WriteString(req.Scenario)
	b.WriteString("\n\nLEARNER'S OBJECTIVE:\n")
	b.WriteString(req.Objective)
	b.WriteString("\n\nJudge the learner's latest utterance for assertiveness: clear, direct, respectful, no over-apologizing, no aggression, no caving in.\n")
	b.WriteString("Reply with ONLY a JSON object, no markdown, with exactly these fields:\n")
	b.WriteString(`{"npcResponse": "<the character's in-scene reply>", "coachFeedback": "<one or two sentences of coaching>", "confidenceDelta": <integer between -20 and 20>, "status": "<continue|pass|fail>"}` + "\n")
	b.WriteString("Use status \"pass\" only when the learner has decisively achieved the objective and their confidence would exceed 80. ")
	b.WriteString("Use status \"fail\" only when the learner has irrecoverably caved in, become aggressive, or abandoned the objective. Otherwise use \"continue\".")
	return b.String()
}

// userPrompt builds the turn payload sent alongside the system instructions.
func userPrompt(req TurnRequest) string {
	var b strings.Builder
	b.WriteString("The character's last line was:\n")
	b.WriteString(req.LastNPCLine)
	b.WriteString("\n\nThe learner replied:\n")
	b.WriteString(req.Utterance)
	return b.String()
}

// parseTurnResult parses a raw model reply into a TurnResult. It tolerates
// markdown code fences around the JSON, normalizes the status tag, and clamps
// the confidence delta into [-20, 20]. Anything it cannot make sense of is an
// ErrOracleUnavailable: the sequencer voids the turn rather than guessing.
func parseTurnResult(raw string) (models.TurnResult, error) {
	var result models.TurnResult

	cleaned := strings.TrimSpace(raw)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
		cleaned = strings.TrimSpace(cleaned)
	}
	if cleaned == "" {
		return result, fmt.Errorf("%w: empty response", ErrOracleUnavailable)
	}

	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return result, fmt.Errorf("%w: unparseable response: %v", ErrOracleUnavailable, err)
	}

	result.Status = models.TurnStatus(strings.ToLower(strings.TrimSpace(string(result.Status))))
	if !models.IsValidTurnStatus(result.Status) {
		return result, fmt.Errorf("%w: unknown status %q", ErrOracleUnavailable, result.Status)
	}
	result.ConfidenceDelta = models.ClampDelta(result.ConfidenceDelta)
	return result, nil
}
