package script

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCompleter records call arguments and replays a canned response.
type fakeCompleter struct {
	calls        int
	gotSystem    string
	gotUser      string
	gotModel     string
	gotMaxTokens int64

	text  string
	usage TokenUsage
	err   error
}

func (f *fakeCompleter) Complete(_ context.Context, systemPrompt, userPrompt, model string, maxTokens int64) (string, TokenUsage, error) {
	f.calls++
	f.gotSystem = systemPrompt
	f.gotUser = userPrompt
	f.gotModel = model
	f.gotMaxTokens = maxTokens
	return f.text, f.usage, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestGenerateEmptyInput(t *testing.T) {
	fake := &fakeCompleter{}
	svc := NewService(fake, "model-a", 4096, discardLogger())

	for _, input := range []string{"", "   ", "\n\t  "} {
		s, err := svc.Generate(context.Background(), input, GenerateOptions{})
		assert.ErrorIs(t, err, ErrEmptyInput)
		assert.Nil(t, s)
	}
	assert.Equal(t, 0, fake.calls, "empty input must be rejected before any provider call")
}

func TestGenerateSuccess(t *testing.T) {
	fake := &fakeCompleter{
		text:  validScriptJSON,
		usage: TokenUsage{PromptTokens: 120, CompletionTokens: 300, TotalTokens: 420},
	}
	svc := NewService(fake, "model-a", 4096, discardLogger())

	s, err := svc.Generate(context.Background(), "这是一篇关于僵尸车的报道。", GenerateOptions{Style: StyleProfessional})
	require.NoError(t, err)

	assert.Equal(t, 1, fake.calls)
	assert.Equal(t, "model-a", fake.gotModel)
	assert.Equal(t, int64(4096), fake.gotMaxTokens)
	assert.Contains(t, fake.gotSystem, "专业严谨")

	require.Len(t, s.Segments, 2)
	assert.Equal(t, "model-a", s.Model)
	assert.Equal(t, 420, s.TokenUsage.TotalTokens)
	assert.Equal(t, validScriptJSON, s.Raw)
	assert.Empty(t, s.Error)
}

func TestGenerateOverrides(t *testing.T) {
	fake := &fakeCompleter{text: validScriptJSON}
	svc := NewService(fake, "default-model", 4096, discardLogger())

	_, err := svc.Generate(context.Background(), "文本", GenerateOptions{
		Model:     "override-model",
		MaxTokens: 1024,
	})
	require.NoError(t, err)
	assert.Equal(t, "override-model", fake.gotModel)
	assert.Equal(t, int64(1024), fake.gotMaxTokens)
}

func TestGenerateParticipantsFloor(t *testing.T) {
	fake := &fakeCompleter{text: validScriptJSON}
	svc := NewService(fake, "m", 4096, discardLogger())

	for _, p := range []int{0, 1, -3} {
		_, err := svc.Generate(context.Background(), "文本", GenerateOptions{Participants: p})
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(fake.gotSystem, "角色：主持人、嘉宾"), "participants=%d", p)
	}
}

func TestGenerateProviderFailure(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("connection refused")}
	svc := NewService(fake, "model-a", 4096, discardLogger())

	source := "第一句。第二句。第三句。"
	s, err := svc.Generate(context.Background(), source, GenerateOptions{})

	// provider failure is not an error: the caller gets a diagnostic script
	require.NoError(t, err)
	require.NotNil(t, s)

	require.Len(t, s.Segments, 1)
	assert.Equal(t, "对话生成失败，请稍后重试。", s.Segments[0].Text)
	assert.NotContains(t, s.Segments[0].Text, "第一句", "source text must never be passed off as dialogue")

	assert.Equal(t, "connection refused", s.Error)
	assert.Equal(t, FailureProvider, s.FailureKind)
	assert.Equal(t, "model-a", s.Model)
	assert.Zero(t, s.TokenUsage)
	require.Len(t, s.Roles, 2)
	assert.Equal(t, "host", s.Roles[0].ID)
}

func TestGenerateUnparsableOutput(t *testing.T) {
	fake := &fakeCompleter{
		text:  "抱歉，我无法生成对话。",
		usage: TokenUsage{PromptTokens: 100, CompletionTokens: 10, TotalTokens: 110},
	}
	svc := NewService(fake, "model-a", 4096, discardLogger())

	s, err := svc.Generate(context.Background(), "文本", GenerateOptions{})
	require.NoError(t, err)

	assert.Equal(t, ErrParseFailed, s.Error)
	assert.Equal(t, FailureParse, s.FailureKind)
	assert.Equal(t, "抱歉，我无法生成对话。", s.Raw)
	// usage is still attached even when parsing degraded
	assert.Equal(t, 110, s.TokenUsage.TotalTokens)
}
