package script

import (
	"encoding/json"
	"fmt"
	"os"
)

// Role identifies one voice in a dialogue script.
type Role struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Title string `json:"title"`
}

// Segment is one turn of dialogue, attributed to a role id.
type Segment struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// TokenUsage carries provider-reported token counters. TotalTokens is
// whatever the provider said and is not validated against the other two.
type TokenUsage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// Failure kinds recorded in DialogueScript.FailureKind so callers can tell
// a dead provider apart from unparsable model output.
const (
	FailureParse    = "parse_error"
	FailureProvider = "provider_error"
)

// DialogueScript is the canonical output of generation: ordered roles plus
// ordered segments, with the unparsed model output retained for diagnostics.
type DialogueScript struct {
	Roles       []Role     `json:"roles"`
	Segments    []Segment  `json:"segments"`
	Notes       string     `json:"notes,omitempty"`
	Raw         string     `json:"raw,omitempty"`
	TokenUsage  TokenUsage `json:"tokenUsage"`
	Model       string     `json:"model,omitempty"`
	Error       string     `json:"error,omitempty"`
	FailureKind string     `json:"failureKind,omitempty"`
}

// Validate checks the structural invariants: every segment references a
// declared role, and roles are non-empty whenever segments are.
func (s *DialogueScript) Validate() error {
	if len(s.Segments) > 0 && len(s.Roles) == 0 {
		return fmt.Errorf("script has %d segments but no roles", len(s.Segments))
	}
	ids := make(map[string]bool, len(s.Roles))
	for _, r := range s.Roles {
		if ids[r.ID] {
			return fmt.Errorf("duplicate role id %q", r.ID)
		}
		ids[r.ID] = true
	}
	for i, seg := range s.Segments {
		if !ids[seg.Role] {
			return fmt.Errorf("segment %d references unknown role %q", i, seg.Role)
		}
	}
	return nil
}

func SaveScript(s *DialogueScript, path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal script: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write script to %s: %w", path, err)
	}
	return nil
}

func LoadScript(path string) (*DialogueScript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script from %s: %w", path, err)
	}
	var s DialogueScript
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse script from %s: %w", path, err)
	}
	if len(s.Segments) == 0 {
		return nil, fmt.Errorf("script %s has no segments", path)
	}
	return &s, nil
}
