// Package server exposes the dialogue-generation and speech endpoints over
// plain JSON HTTP, plus the static UI.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/apresai/dialogcast/internal/config"
	"github.com/apresai/dialogcast/internal/script"
	"github.com/apresai/dialogcast/internal/speech"
)

// Generator is the script-generation dependency. *script.Service satisfies
// it; tests substitute fakes.
type Generator interface {
	Generate(ctx context.Context, sourceText string, opts script.GenerateOptions) (*script.DialogueScript, error)
}

// Server wires the HTTP surface to the generation service and the speech
// stub. It has no state of its own beyond its collaborators.
type Server struct {
	cfg       config.Config
	generator Generator
	speech    *speech.Manager
	log       *slog.Logger
}

func New(cfg config.Config, generator Generator, speechMgr *speech.Manager, log *slog.Logger) *Server {
	return &Server{
		cfg:       cfg,
		generator: generator,
		speech:    speechMgr,
		log:       log,
	}
}

// Handler builds the full route table wrapped in request-id and access-log
// middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /generate-script", s.handleGenerateScript)
	mux.HandleFunc("POST /save-dialog", s.handleSaveDialog)
	mux.HandleFunc("POST /generate-speech", s.handleGenerateSpeech)
	mux.HandleFunc("POST /process-dialog-tts", s.handleProcessDialogTTS)
	mux.HandleFunc("POST /create-podcast", s.handleCreatePodcast)
	mux.HandleFunc("GET /get-speakers", s.handleGetSpeakers)
	mux.HandleFunc("POST /update-speaker", s.handleUpdateSpeaker)

	staticDir := s.cfg.StaticDir()
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		index := filepath.Join(staticDir, "html", "index.html")
		if _, err := os.Stat(index); err != nil {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, index)
	})

	return s.withMiddleware(mux)
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", "addr", srv.Addr, "staticDir", s.cfg.StaticDir())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
