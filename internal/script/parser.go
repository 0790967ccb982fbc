package script

import (
	"encoding/json"
	"strings"
)

// ErrParseFailed is the error string recorded on a wrap-fallback script.
// Kept in Chinese for parity with the UI, which renders it verbatim.
const ErrParseFailed = "JSON解析失败"

// Parse turns raw model output into a DialogueScript. It never fails:
//
//  1. strict parse — the whole text is a JSON document of the right shape
//  2. extraction parse — first '{' through last '}' is such a document
//  3. wrap fallback — a synthesized two-role script carrying the raw text
//
// The first tier that yields a structurally valid script wins. The raw
// text is always retained on the result for diagnostics.
func Parse(raw string) *DialogueScript {
	if s, ok := tryParse(raw); ok {
		s.Raw = raw
		return s
	}

	if start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); start >= 0 && end > start {
		if s, ok := tryParse(raw[start : end+1]); ok {
			s.Raw = raw
			return s
		}
	}

	return wrapFallback(raw)
}

func tryParse(text string) (*DialogueScript, bool) {
	var s DialogueScript
	if err := json.Unmarshal([]byte(text), &s); err != nil {
		return nil, false
	}
	if len(s.Segments) == 0 {
		return nil, false
	}
	if err := s.Validate(); err != nil {
		return nil, false
	}
	return &s, true
}

// wrapFallback guarantees a renderable script even from garbage: the whole
// response becomes a single host segment and the error field is set.
func wrapFallback(raw string) *DialogueScript {
	return &DialogueScript{
		Roles: []Role{
			{ID: "host", Name: "主持人", Title: "资深媒体人"},
			{ID: "guest", Name: "嘉宾", Title: "城市治理专家"},
		},
		Segments:    []Segment{{Role: "host", Text: strings.TrimSpace(raw)}},
		Raw:         raw,
		Error:       ErrParseFailed,
		FailureKind: FailureParse,
	}
}
