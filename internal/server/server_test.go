package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apresai/dialogcast/internal/config"
	"github.com/apresai/dialogcast/internal/script"
	"github.com/apresai/dialogcast/internal/speech"
)

// fakeGenerator replays a canned script and records what it was asked for.
type fakeGenerator struct {
	calls   int
	gotText string
	gotOpts script.GenerateOptions

	result *script.DialogueScript
}

func (f *fakeGenerator) Generate(_ context.Context, sourceText string, opts script.GenerateOptions) (*script.DialogueScript, error) {
	f.calls++
	f.gotText = sourceText
	f.gotOpts = opts
	if strings.TrimSpace(sourceText) == "" {
		return nil, script.ErrEmptyInput
	}
	return f.result, nil
}

func newTestServer(t *testing.T, gen *fakeGenerator) (*Server, *speech.Manager) {
	t.Helper()
	cfg := config.Config{Port: 4190, DataDir: t.TempDir()}
	log := slog.New(slog.DiscardHandler)

	speechMgr, err := speech.NewManager(cfg.AudioDir(), log)
	require.NoError(t, err)

	return New(cfg, gen, speechMgr, log), speechMgr
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, &fakeGenerator{})
	h := srv.Handler()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeResponse(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, body["staticDir"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestGenerateScript(t *testing.T) {
	gen := &fakeGenerator{result: &script.DialogueScript{
		Roles:    []script.Role{{ID: "host", Name: "主持人"}, {ID: "guest", Name: "嘉宾"}},
		Segments: []script.Segment{{Role: "host", Text: "开场"}, {Role: "guest", Text: "回应"}},
		Model:    "model-a",
	}}
	srv, _ := newTestServer(t, gen)
	h := srv.Handler()

	rec := postJSON(t, h, "/generate-script", map[string]any{
		"text":         "一篇新闻报道。",
		"style":        "professional",
		"participants": 3,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeResponse(t, rec)
	assert.Equal(t, true, body["ok"])

	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, "一篇新闻报道。", gen.gotText)
	assert.Equal(t, script.StyleProfessional, gen.gotOpts.Style)
	assert.Equal(t, 3, gen.gotOpts.Participants)

	result := body["script"].(map[string]any)
	segments := result["segments"].([]any)
	assert.Len(t, segments, 2)
}

func TestGenerateScriptEmptyText(t *testing.T) {
	gen := &fakeGenerator{}
	srv, _ := newTestServer(t, gen)
	h := srv.Handler()

	for _, text := range []string{"", "   "} {
		rec := postJSON(t, h, "/generate-script", map[string]any{"text": text})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeResponse(t, rec)
		assert.Equal(t, false, body["ok"])
		assert.Equal(t, "text 为空", body["error"])
	}
}

func TestGenerateScriptUnknownStyleFallsBack(t *testing.T) {
	gen := &fakeGenerator{result: &script.DialogueScript{
		Roles:    []script.Role{{ID: "host"}},
		Segments: []script.Segment{{Role: "host", Text: "你好"}},
	}}
	srv, _ := newTestServer(t, gen)
	h := srv.Handler()

	rec := postJSON(t, h, "/generate-script", map[string]any{"text": "新闻", "style": "dramatic"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, script.StyleCasual, gen.gotOpts.Style)
}

func TestGenerateScriptInvalidBody(t *testing.T) {
	srv, _ := newTestServer(t, &fakeGenerator{})
	h := srv.Handler()

	req := httptest.NewRequest(http.MethodPost, "/generate-script", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, decodeResponse(t, rec)["ok"])
}

func TestSaveDialog(t *testing.T) {
	srv, _ := newTestServer(t, &fakeGenerator{})
	h := srv.Handler()

	rec := postJSON(t, h, "/save-dialog", map[string]any{
		"content":  "主持人: 你好\n嘉宾: 你好",
		"filename": "episode1.txt",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeResponse(t, rec)
	assert.Equal(t, true, body["ok"])
	assert.Contains(t, body["message"], "已保存到")

	saved := filepath.Join(srv.cfg.ResultsDir(), "episode1.txt")
	data, err := os.ReadFile(saved)
	require.NoError(t, err)
	assert.Equal(t, "主持人: 你好\n嘉宾: 你好", string(data))
}

func TestSaveDialogSanitizesPath(t *testing.T) {
	srv, _ := newTestServer(t, &fakeGenerator{})
	h := srv.Handler()

	rec := postJSON(t, h, "/save-dialog", map[string]any{
		"content":  "内容",
		"filename": "../../etc/passwd",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	// the traversal components are stripped, only the base name survives
	saved := filepath.Join(srv.cfg.ResultsDir(), "passwd")
	_, err := os.Stat(saved)
	assert.NoError(t, err)
}

func TestGenerateSpeech(t *testing.T) {
	srv, _ := newTestServer(t, &fakeGenerator{})
	h := srv.Handler()

	rec := postJSON(t, h, "/generate-speech", map[string]any{
		"text":      "欢迎收听",
		"speakerId": "guest",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeResponse(t, rec)
	assert.Equal(t, true, body["ok"])

	audioPath := body["audioPath"].(string)
	assert.True(t, strings.HasSuffix(audioPath, ".mp3"))
	_, err := os.Stat(audioPath)
	assert.NoError(t, err)
}

func TestProcessDialogTTS(t *testing.T) {
	srv, _ := newTestServer(t, &fakeGenerator{})
	h := srv.Handler()

	rec := postJSON(t, h, "/process-dialog-tts", map[string]any{
		"dialog": []map[string]any{
			{"role": "host", "speaker": "主持人", "text": "开场"},
			{"role": "guest", "speaker": "嘉宾", "text": "回应"},
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeResponse(t, rec)
	dialog := body["dialog"].([]any)
	require.Len(t, dialog, 2)
	for _, raw := range dialog {
		line := raw.(map[string]any)
		assert.NotEmpty(t, line["audioPath"])
	}
}

func TestCreatePodcast(t *testing.T) {
	srv, _ := newTestServer(t, &fakeGenerator{})
	h := srv.Handler()

	rec := postJSON(t, h, "/create-podcast", map[string]any{
		"podcastTitle": "测试节目",
		"dialog": []map[string]any{
			{"role": "host", "text": "第一句", "audioPath": "a.mp3"},
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeResponse(t, rec)
	podcastPath := body["podcastPath"].(string)

	man, err := speech.LoadManifest(podcastPath)
	require.NoError(t, err)
	assert.Equal(t, "测试节目", man.Title)
	require.Len(t, man.Dialog, 1)
}

func TestGetSpeakers(t *testing.T) {
	srv, _ := newTestServer(t, &fakeGenerator{})
	h := srv.Handler()

	req := httptest.NewRequest(http.MethodGet, "/get-speakers", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeResponse(t, rec)
	speakers := body["speakers"].(map[string]any)
	assert.Len(t, speakers, 4)

	host := speakers["host"].(map[string]any)
	assert.Equal(t, "zh-CN-YunxiNeural", host["voiceId"])
	assert.Equal(t, "主持人", host["displayName"])
}

func TestUpdateSpeaker(t *testing.T) {
	srv, mgr := newTestServer(t, &fakeGenerator{})
	h := srv.Handler()

	rec := postJSON(t, h, "/update-speaker", map[string]any{
		"speakerId": "guestA",
		"voiceId":   "zh-CN-XiaoxiaoNeural",
		"style":     "cheerful",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeResponse(t, rec)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "说话人 guestA 已更新", body["message"])

	got := mgr.ListSpeakers()["guestA"]
	assert.Equal(t, "zh-CN-XiaoxiaoNeural", got.VoiceID)
	assert.Equal(t, "cheerful", got.Style)
}

func TestUpdateSpeakerUnknown(t *testing.T) {
	srv, _ := newTestServer(t, &fakeGenerator{})
	h := srv.Handler()

	rec := postJSON(t, h, "/update-speaker", map[string]any{
		"speakerId": "narrator",
		"voiceId":   "some-voice",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeResponse(t, rec)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, "未知的说话人: narrator", body["error"])
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, &fakeGenerator{})
	h := srv.Handler()

	req := httptest.NewRequest(http.MethodGet, "/generate-script", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
