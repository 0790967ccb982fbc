package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validScriptJSON = `{
  "roles": [
    {"id": "host", "name": "主持人", "title": "资深媒体人"},
    {"id": "guest", "name": "嘉宾", "title": "城市治理专家"}
  ],
  "segments": [
    {"role": "host", "text": "今天我们聊聊僵尸车。"},
    {"role": "guest", "text": "这个问题比想象中严重。"}
  ],
  "notes": "开场用数据钩子"
}`

func TestParseStrictJSON(t *testing.T) {
	s := Parse(validScriptJSON)

	require.Len(t, s.Segments, 2)
	assert.Len(t, s.Roles, 2)
	assert.Equal(t, "host", s.Segments[0].Role)
	assert.Equal(t, "嘉宾", s.Roles[1].Name)
	assert.Equal(t, "开场用数据钩子", s.Notes)
	assert.Empty(t, s.Error)
	assert.Empty(t, s.FailureKind)
	assert.Equal(t, validScriptJSON, s.Raw)
}

func TestParseExtractsEmbeddedJSON(t *testing.T) {
	raw := "好的，这是生成的对话：\n```json\n" + validScriptJSON + "\n```\n希望对你有帮助。"
	s := Parse(raw)

	require.Len(t, s.Segments, 2)
	assert.Empty(t, s.Error)
	assert.Equal(t, raw, s.Raw, "raw keeps the full response, not the extracted slice")
}

func TestParseWrapFallbackOnGarbage(t *testing.T) {
	raw := "  模型这次没有输出JSON，只有一段闲聊。  "
	s := Parse(raw)

	require.Len(t, s.Roles, 2)
	assert.Equal(t, Role{ID: "host", Name: "主持人", Title: "资深媒体人"}, s.Roles[0])
	assert.Equal(t, Role{ID: "guest", Name: "嘉宾", Title: "城市治理专家"}, s.Roles[1])

	require.Len(t, s.Segments, 1)
	assert.Equal(t, "host", s.Segments[0].Role)
	assert.Equal(t, "模型这次没有输出JSON，只有一段闲聊。", s.Segments[0].Text)

	assert.Equal(t, raw, s.Raw, "raw is untrimmed")
	assert.Equal(t, ErrParseFailed, s.Error)
	assert.Equal(t, FailureParse, s.FailureKind)
}

func TestParseWrapFallbackOnEmptyInput(t *testing.T) {
	s := Parse("")

	require.Len(t, s.Segments, 1)
	assert.Equal(t, "", s.Segments[0].Text)
	assert.Equal(t, ErrParseFailed, s.Error)
}

func TestParseRejectsJSONWithoutSegments(t *testing.T) {
	// structurally valid JSON, but not a usable script
	s := Parse(`{"roles": [{"id": "host", "name": "主持人"}], "segments": []}`)

	assert.Equal(t, ErrParseFailed, s.Error)
	assert.Equal(t, FailureParse, s.FailureKind)
}

func TestParseRejectsUnknownRoleReference(t *testing.T) {
	s := Parse(`{"roles": [{"id": "host", "name": "主持人"}], "segments": [{"role": "ghost", "text": "你好"}]}`)

	// fails Validate, so the whole text is wrapped
	assert.Equal(t, ErrParseFailed, s.Error)
	require.Len(t, s.Segments, 1)
	assert.Equal(t, "host", s.Segments[0].Role)
}

func TestParseBracesAroundInvalidBody(t *testing.T) {
	// extraction finds braces but the slice is not valid JSON either
	s := Parse("前缀 {not json at all} 后缀")

	assert.Equal(t, ErrParseFailed, s.Error)
	assert.Equal(t, "前缀 {not json at all} 后缀", s.Raw)
}
