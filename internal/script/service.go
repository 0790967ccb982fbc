package script

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

// ErrEmptyInput is returned by Generate before any provider work when the
// source text is empty or whitespace-only. The HTTP layer maps it to 400.
var ErrEmptyInput = errors.New("text is empty")

// Completer is the single external call the service depends on. It makes
// exactly one attempt — retry policy is deliberately out of scope.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt, model string, maxTokens int64) (string, TokenUsage, error)
}

// GenerateOptions are per-request overrides. Zero values fall back to the
// service defaults.
type GenerateOptions struct {
	Style        Style
	Participants int
	Model        string
	MaxTokens    int64
}

// Service orchestrates prompt building, the completion call and parsing.
type Service struct {
	completer Completer
	model     string
	maxTokens int64
	log       *slog.Logger
}

func NewService(completer Completer, defaultModel string, defaultMaxTokens int64, log *slog.Logger) *Service {
	return &Service{
		completer: completer,
		model:     defaultModel,
		maxTokens: defaultMaxTokens,
		log:       log,
	}
}

// Generate produces a dialogue script for the given source text. Provider
// failures do not surface as errors: the caller always gets a renderable
// script, with Error and FailureKind set when generation degraded. Only
// invalid input is an error.
func (s *Service) Generate(ctx context.Context, sourceText string, opts GenerateOptions) (*DialogueScript, error) {
	if strings.TrimSpace(sourceText) == "" {
		return nil, ErrEmptyInput
	}

	if opts.Participants < 2 {
		opts.Participants = 2
	}
	model := opts.Model
	if model == "" {
		model = s.model
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = s.maxTokens
	}

	systemPrompt, userPrompt := BuildPrompts(sourceText, opts.Style, opts.Participants)

	text, usage, err := s.completer.Complete(ctx, systemPrompt, userPrompt, model, maxTokens)
	if err != nil {
		s.log.Warn("completion failed, returning diagnostic script",
			"model", model, "style", string(opts.Style), "error", err)
		return failureScript(err, model), nil
	}

	parsed := Parse(text)
	parsed.Model = model
	parsed.TokenUsage = usage
	if parsed.Error != "" {
		s.log.Warn("model output was not parsable JSON, wrapped raw text",
			"model", model, "rawLen", len(text))
	}
	return parsed, nil
}

// failureScript is the explicit-error result for a failed provider call.
// It intentionally does NOT assemble a dialogue from the source text — a
// degraded transcript that looks like normal output hides the failure.
func failureScript(err error, model string) *DialogueScript {
	return &DialogueScript{
		Roles: []Role{
			{ID: "host", Name: "主持人", Title: "资深媒体人"},
			{ID: "guest", Name: "嘉宾", Title: "城市治理专家"},
		},
		Segments:    []Segment{{Role: "host", Text: "对话生成失败，请稍后重试。"}},
		Model:       model,
		Error:       err.Error(),
		FailureKind: FailureProvider,
	}
}
