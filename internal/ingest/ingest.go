// Package ingest extracts article text from the supported source kinds:
// URLs, PDF files, plain-text files and stdin.
package ingest

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode"
)

type SourceType string

const (
	SourceURL   SourceType = "url"
	SourcePDF   SourceType = "pdf"
	SourceText  SourceType = "text"
	SourceStdin SourceType = "stdin"

	// maxInputSize caps input content at 25 MB.
	maxInputSize = 25 * 1024 * 1024
)

func (s SourceType) String() string {
	return string(s)
}

// Article is extracted source material. CharCount counts non-space runes,
// not whitespace-separated words — the expected input is Chinese news
// text, where word counting by whitespace is meaningless.
type Article struct {
	Text      string
	Title     string
	Source    string
	CharCount int
}

type Ingester interface {
	Ingest(ctx context.Context, source string) (*Article, error)
}

func DetectSource(input string) SourceType {
	switch {
	case input == "-":
		return SourceStdin
	case strings.HasPrefix(input, "http://"), strings.HasPrefix(input, "https://"):
		return SourceURL
	case strings.HasSuffix(strings.ToLower(input), ".pdf"):
		return SourcePDF
	default:
		return SourceText
	}
}

func NewIngester(input string) Ingester {
	switch DetectSource(input) {
	case SourceStdin:
		return &StdinIngester{}
	case SourceURL:
		return &URLIngester{}
	case SourcePDF:
		return &PDFIngester{}
	default:
		return &TextIngester{}
	}
}

func charCount(text string) int {
	n := 0
	for _, r := range text {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

// titleFromText takes the first non-empty line, truncated to maxRunes.
func titleFromText(text string, maxRunes int) string {
	line := text
	if idx := strings.IndexByte(text, '\n'); idx > 0 {
		line = text[:idx]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "未命名"
	}
	runes := []rune(line)
	if len(runes) > maxRunes {
		return string(runes[:maxRunes]) + "..."
	}
	return line
}

func validateFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}
	if info.Size() > maxInputSize {
		return fmt.Errorf("%s is too large (%d MB, max %d MB)", path, info.Size()/(1024*1024), maxInputSize/(1024*1024))
	}
	return nil
}
