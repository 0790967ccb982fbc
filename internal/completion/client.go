// Package completion wraps a single chat-completion call against an
// Anthropic-compatible endpoint. It makes one attempt per call and leaves
// all fallback policy to the caller.
package completion

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/apresai/dialogcast/internal/script"
)

// ErrProviderUnavailable means no credential is configured. It is checked
// before any network attempt.
var ErrProviderUnavailable = errors.New("completion provider not configured (set ANTHROPIC_API_KEY)")

// ProviderError wraps transport, auth and rate-limit failures from the
// remote call. No retry happens here.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string { return "completion provider: " + e.Err.Error() }
func (e *ProviderError) Unwrap() error { return e.Err }

var modelAliases = map[string]string{
	"haiku":  "claude-haiku-4-5-20251001",
	"sonnet": "claude-sonnet-4-5-20250929",
}

const temperature = 0.7

// ResolveModel maps a short alias to a full model id. Unknown names pass
// through unchanged so provider-compatible endpoints can use their own ids.
func ResolveModel(name string) string {
	if name == "" {
		return modelAliases["haiku"]
	}
	if id, ok := modelAliases[name]; ok {
		return id
	}
	return name
}

// Config is the explicit provider configuration, owned by the composition
// root. BaseURL switches the client to a compatible non-Anthropic endpoint.
type Config struct {
	APIKey  string
	BaseURL string
}

// Client is a thin wrapper over the SDK client. An unconfigured Client is
// valid and fails every call with ErrProviderUnavailable.
type Client struct {
	api        anthropic.Client
	configured bool
}

func NewClient(cfg Config) *Client {
	if cfg.APIKey == "" {
		return &Client{}
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{api: anthropic.NewClient(opts...), configured: true}
}

// Complete performs one chat-completion round-trip and returns the response
// text plus provider-reported token usage. Usage counters default to zero
// when the provider omits them; missing usage is never an error.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt, model string, maxTokens int64) (string, script.TokenUsage, error) {
	if !c.configured {
		return "", script.TokenUsage{}, ErrProviderUnavailable
	}

	message, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(ResolveModel(model)),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(temperature),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return "", script.TokenUsage{}, &ProviderError{Err: err}
	}

	usage := script.TokenUsage{
		PromptTokens:     int(message.Usage.InputTokens),
		CompletionTokens: int(message.Usage.OutputTokens),
		TotalTokens:      int(message.Usage.InputTokens + message.Usage.OutputTokens),
	}
	return extractText(message), usage, nil
}

// extractText pulls usable text out of a successful response: text blocks
// first, then the raw content blocks, then the stringified message. A call
// that succeeded always yields something.
func extractText(message *anthropic.Message) string {
	var parts []string
	for _, block := range message.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			parts = append(parts, tb.Text)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, "")
	}
	if len(message.Content) > 0 {
		if data, err := json.Marshal(message.Content); err == nil {
			return string(data)
		}
	}
	if data, err := json.Marshal(message); err == nil {
		return string(data)
	}
	return ""
}
