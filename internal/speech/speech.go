// Package speech maps speakers to voice profiles and renders placeholder
// audio artifacts. Synthesis writes a text marker, not audio — wiring a
// real provider is an integration concern outside this package.
package speech

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Profile is one entry in the speaker registry. SpeakerID and DisplayName
// are fixed at construction; only VoiceID and Style are mutable.
type Profile struct {
	SpeakerID   string `json:"speakerId"`
	DisplayName string `json:"displayName"`
	VoiceID     string `json:"voiceId"`
	Style       string `json:"style"`
}

// DialogLine is one turn of a dialogue on the speech surface, optionally
// annotated with a rendered artifact path.
type DialogLine struct {
	Role      string `json:"role"`
	Speaker   string `json:"speaker,omitempty"`
	Text      string `json:"text"`
	AudioPath string `json:"audioPath,omitempty"`
}

// Manifest is the packaged podcast: title, creation time and the full
// dialogue, serialized as JSON on disk.
type Manifest struct {
	Title     string       `json:"title"`
	CreatedAt int64        `json:"createdAt"`
	Dialog    []DialogLine `json:"dialog"`
}

// Manager owns the process-wide speaker registry and the audio output
// directory. Registry writes are serialized behind the mutex.
type Manager struct {
	mu       sync.RWMutex
	speakers map[string]*Profile

	audioDir string
	log      *slog.Logger
	now      func() time.Time
}

func NewManager(audioDir string, log *slog.Logger) (*Manager, error) {
	if err := os.MkdirAll(audioDir, 0o755); err != nil {
		return nil, fmt.Errorf("create audio dir %s: %w", audioDir, err)
	}
	return &Manager{
		speakers: map[string]*Profile{
			"host":   {SpeakerID: "host", DisplayName: "主持人", VoiceID: "zh-CN-YunxiNeural", Style: "default"},
			"guest":  {SpeakerID: "guest", DisplayName: "嘉宾", VoiceID: "zh-CN-YunjianNeural", Style: "default"},
			"guestA": {SpeakerID: "guestA", DisplayName: "嘉宾A", VoiceID: "zh-CN-YunjianNeural", Style: "default"},
			"guestB": {SpeakerID: "guestB", DisplayName: "嘉宾B", VoiceID: "zh-CN-YunxiaNeural", Style: "default"},
		},
		audioDir: audioDir,
		log:      log,
		now:      time.Now,
	}, nil
}

// ListSpeakers returns a copy of the registry. Never fails.
func (m *Manager) ListSpeakers() map[string]Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]Profile, len(m.speakers))
	for id, p := range m.speakers {
		out[id] = *p
	}
	return out
}

// UpdateSpeaker sets the voice and style of a registered speaker. It
// returns false for unknown ids — the registry is fixed-key and this
// operation never extends it.
func (m *Manager) UpdateSpeaker(speakerID, voiceID, style string) bool {
	if style == "" {
		style = "default"
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.speakers[speakerID]
	if !ok {
		return false
	}
	p.VoiceID = voiceID
	p.Style = style
	return true
}

func (m *Manager) profileFor(speakerID string) Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.speakers[speakerID]; ok {
		return *p
	}
	return *m.speakers["host"]
}

// Synthesize renders a placeholder artifact for one line of text and
// returns its path, or "" on failure. Unknown speakers resolve to host.
// The name mixes a content hash with a timestamp to avoid collisions.
func (m *Manager) Synthesize(text, speakerID, format string) string {
	if format == "" {
		format = "mp3"
	}
	profile := m.profileFor(speakerID)

	name := fmt.Sprintf("%s_%s_%d.%s", profile.SpeakerID, shortHash(text), m.now().Unix(), format)
	path := filepath.Join(m.audioDir, name)

	if err := os.WriteFile(path, []byte(fmt.Sprintf("%s: %s", profile.DisplayName, text)), 0o644); err != nil {
		m.log.Error("speech synthesis failed", "speaker", profile.SpeakerID, "error", err)
		return ""
	}
	return path
}

// ProcessDialog renders every line of a dialogue and returns the lines
// with their artifact paths attached. Lines that fail keep an empty path.
func (m *Manager) ProcessDialog(dialog []DialogLine) []DialogLine {
	out := make([]DialogLine, 0, len(dialog))
	for _, line := range dialog {
		role := line.Role
		if role == "" {
			role = "host"
		}
		line.AudioPath = m.Synthesize(line.Text, role, "")
		out = append(out, line)
	}
	return out
}

// PackagePodcast writes the episode manifest and returns its path, or ""
// on failure.
func (m *Manager) PackagePodcast(dialog []DialogLine, title string) string {
	ts := m.now().Unix()
	name := fmt.Sprintf("podcast_%s_%d.json", shortHash(title), ts)
	path := filepath.Join(m.audioDir, name)

	data, err := json.MarshalIndent(Manifest{Title: title, CreatedAt: ts, Dialog: dialog}, "", "  ")
	if err != nil {
		m.log.Error("podcast packaging failed", "title", title, "error", err)
		return ""
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		m.log.Error("podcast packaging failed", "title", title, "error", err)
		return ""
	}
	return path
}

// LoadManifest reads a manifest back from disk.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	var man Manifest
	if err := json.Unmarshal(data, &man); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return &man, nil
}

func shortHash(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])[:8]
}
