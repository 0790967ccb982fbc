package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

type TextIngester struct{}

func (t *TextIngester) Ingest(ctx context.Context, source string) (*Article, error) {
	if err := validateFile(source); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("could not read file %s: %w", source, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("file %s is empty", source)
	}

	text := string(data)
	return &Article{
		Text:      text,
		Title:     titleFromText(text, 80),
		Source:    filepath.Base(source),
		CharCount: charCount(text),
	}, nil
}

// StdinIngester reads the whole article from standard input ("-").
type StdinIngester struct{}

func (s *StdinIngester) Ingest(ctx context.Context, _ string) (*Article, error) {
	data, err := io.ReadAll(io.LimitReader(os.Stdin, maxInputSize))
	if err != nil {
		return nil, fmt.Errorf("could not read stdin: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("stdin is empty")
	}

	text := string(data)
	return &Article{
		Text:      text,
		Title:     titleFromText(text, 80),
		Source:    "stdin",
		CharCount: charCount(text),
	}, nil
}
