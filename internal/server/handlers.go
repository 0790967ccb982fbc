package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/apresai/dialogcast/internal/ingest"
	"github.com/apresai/dialogcast/internal/script"
	"github.com/apresai/dialogcast/internal/speech"
)

var tracer = otel.Tracer("github.com/apresai/dialogcast/internal/server")

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	currentDir, _ := os.Getwd()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "healthy",
		"currentDir": currentDir,
		"staticDir":  s.cfg.StaticDir(),
	})
}

type generateScriptRequest struct {
	Text         string `json:"text"`
	URL          string `json:"url,omitempty"`
	Style        string `json:"style,omitempty"`
	Participants int    `json:"participants,omitempty"`
	Model        string `json:"model,omitempty"`
}

func (s *Server) handleGenerateScript(w http.ResponseWriter, r *http.Request) {
	var req generateScriptRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, span := tracer.Start(r.Context(), "generate-script")
	defer span.End()
	span.SetAttributes(
		attribute.String("style", req.Style),
		attribute.Int("participants", req.Participants),
	)

	text := req.Text
	if strings.TrimSpace(text) == "" && req.URL != "" {
		article, err := (&ingest.URLIngester{}).Ingest(ctx, req.URL)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		text = article.Text
	}

	result, err := s.generator.Generate(ctx, text, script.GenerateOptions{
		Style:        script.ParseStyle(req.Style),
		Participants: req.Participants,
		Model:        req.Model,
	})
	if err != nil {
		if errors.Is(err, script.ErrEmptyInput) {
			writeError(w, http.StatusBadRequest, "text 为空")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "script": result})
}

type saveDialogRequest struct {
	Content  string                 `json:"content"`
	Filename string                 `json:"filename"`
	Script   *script.DialogueScript `json:"script,omitempty"`
}

func (s *Server) handleSaveDialog(w http.ResponseWriter, r *http.Request) {
	var req saveDialogRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := os.MkdirAll(s.cfg.ResultsDir(), 0o755); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	name := filepath.Base(req.Filename)
	if name == "." || name == "/" || name == "" {
		name = fmt.Sprintf("dialog_%d.txt", time.Now().Unix())
	}
	path := filepath.Join(s.cfg.ResultsDir(), name)
	if err := os.WriteFile(path, []byte(req.Content), 0o644); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// An attached script is saved alongside as canonical JSON.
	if req.Script != nil {
		scriptPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".json"
		if err := script.SaveScript(req.Script, scriptPath); err != nil {
			s.log.Warn("saving attached script failed", "path", scriptPath, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"message": fmt.Sprintf("已保存到 %s", path),
	})
}

type generateSpeechRequest struct {
	Text        string `json:"text"`
	SpeakerID   string `json:"speakerId"`
	AudioFormat string `json:"audioFormat,omitempty"`
}

func (s *Server) handleGenerateSpeech(w http.ResponseWriter, r *http.Request) {
	var req generateSpeechRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	path := s.speech.Synthesize(req.Text, req.SpeakerID, req.AudioFormat)
	if path == "" {
		writeError(w, http.StatusInternalServerError, "语音生成失败")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "audioPath": path})
}

type processDialogRequest struct {
	Dialog []speech.DialogLine `json:"dialog"`
}

func (s *Server) handleProcessDialogTTS(w http.ResponseWriter, r *http.Request) {
	var req processDialogRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":     true,
		"dialog": s.speech.ProcessDialog(req.Dialog),
	})
}

type createPodcastRequest struct {
	Dialog       []speech.DialogLine `json:"dialog"`
	PodcastTitle string              `json:"podcastTitle"`
}

func (s *Server) handleCreatePodcast(w http.ResponseWriter, r *http.Request) {
	var req createPodcastRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	path := s.speech.PackagePodcast(req.Dialog, req.PodcastTitle)
	if path == "" {
		writeError(w, http.StatusInternalServerError, "播客创建失败")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "podcastPath": path})
}

func (s *Server) handleGetSpeakers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"speakers": s.speech.ListSpeakers(),
	})
}

type updateSpeakerRequest struct {
	SpeakerID string `json:"speakerId"`
	VoiceID   string `json:"voiceId"`
	Style     string `json:"style,omitempty"`
}

func (s *Server) handleUpdateSpeaker(w http.ResponseWriter, r *http.Request) {
	var req updateSpeakerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !s.speech.UpdateSpeaker(req.SpeakerID, req.VoiceID, req.Style) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("未知的说话人: %s", req.SpeakerID))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"message": fmt.Sprintf("说话人 %s 已更新", req.SpeakerID),
	})
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"ok": false, "error": msg})
}
