package extract

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// ErrUnsupportedFormat indicates a file format this extractor cannot read.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrBinaryContent indicates the bytes are not valid text.
	ErrBinaryContent = errors.New("document content is not text")
)

// Extractor converts raw document bytes into plain text.
// Implementations must be thread-safe for concurrent use.
type Extractor interface {
	// Extract returns the plain-text content of the document.
	// The filename drives format detection; the extractor is otherwise
	// format-agnostic from the caller's point of view.
	Extract(ctx context.Context, data []byte, filename string) (string, error)
}

// Func adapts a plain function to the Extractor interface.
type Func func(ctx context.Context, data []byte, filename string) (string, error)

// Extract calls f.
func (f Func) Extract(ctx context.Context, data []byte, filename string) (string, error) {
	return f(ctx, data, filename)
}

// TextExtractor extracts text from plain-text and markdown documents.
// Markdown formatting is stripped so chunking and embedding operate on
// prose rather than markup.
type TextExtractor struct{}

var _ Extractor = (*TextExtractor)(nil)

// NewTextExtractor creates a TextExtractor.
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

// Extract implements Extractor.
func (e *TextExtractor) Extract(_ context.Context, data []byte, filename string) (string, error) {
	if !utf8.Valid(data) {
		return "", ErrBinaryContent
	}

	content := string(data)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".md", ".markdown":
		return stripMarkdown(content), nil
	case "", ".txt", ".text", ".csv", ".log", ".json", ".yaml", ".yml", ".xml", ".html":
		return content, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

var (
	codeBlockRe  = regexp.MustCompile("(?s)```[^`]*```")
	inlineCodeRe = regexp.MustCompile("`[^`]+`")
	imageRe      = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	linkRe       = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headingRe    = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	emphasisRe   = regexp.MustCompile(`[*_]{1,3}([^*_]+)[*_]{1,3}`)
)

// stripMarkdown removes common markdown formatting for plain text content.
// This is a simplified implementation that handles common cases.
func stripMarkdown(content string) string {
	content = codeBlockRe.ReplaceAllString(content, "")
	content = inlineCodeRe.ReplaceAllString(content, "")
	content = imageRe.ReplaceAllString(content, "")
	content = linkRe.ReplaceAllString(content, "$1")
	content = headingRe.ReplaceAllString(content, "")
	content = emphasisRe.ReplaceAllString(content, "$1")
	return strings.TrimSpace(content)
}
