package chunk

import (
	"strings"
)

const (
	// DefaultSize is the default target chunk size in characters.
	DefaultSize = 1000
	// DefaultOverlap is the default overlap between consecutive chunks in characters.
	DefaultOverlap = 200

	// boundaryRatio is the fraction of the target size a sentence boundary
	// must reach before it is accepted as a cut point. Cutting earlier would
	// produce undersized chunks.
	boundaryRatio = 0.7
)

// Chunker splits document text into overlapping, sentence-aware windows.
// It is safe for concurrent use.
type Chunker struct {
	size    int
	overlap int
}

// New creates a Chunker with the given target chunk size and overlap, both
// in characters. The overlap must be smaller than the size; misconfiguration
// is rejected here rather than at call time.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	if overlap < 0 {
		return nil, ErrInvalidOverlap
	}
	if overlap >= size {
		return nil, ErrOverlapTooLarge
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Split produces an ordered sequence of text chunks covering the whole
// document. Windows are cut at the nearest sentence-ending ". " boundary
// when one falls at or after 70% of the target size, otherwise at exactly
// the target size. Consecutive chunks share an overlap window. Empty and
// whitespace-only candidate chunks are dropped. A document shorter than one
// chunk is returned as a single chunk unmodified.
func (c *Chunker) Split(text string) []string {
	runes := []rune(text)
	if len(runes) <= c.size {
		return []string{text}
	}

	minCut := int(float64(c.size) * boundaryRatio)

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + c.size
		sliceEnd := end
		if sliceEnd > len(runes) {
			sliceEnd = len(runes)
		} else if cut := lastSentenceEnd(runes[start:sliceEnd]); cut > minCut {
			end = start + cut + 1
			sliceEnd = end
		}

		if chunk := strings.TrimSpace(string(runes[start:sliceEnd])); chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := end - c.overlap
		if next <= start {
			// A boundary snap can pull end back far enough that the overlap
			// would rewind the window; force forward progress.
			next = end
		}
		start = next
	}

	return chunks
}

// Size returns the configured target chunk size in characters.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the configured overlap in characters.
func (c *Chunker) Overlap() int { return c.overlap }

// lastSentenceEnd returns the index of the last period that is followed by
// a space within window, or -1 if there is none.
func lastSentenceEnd(window []rune) int {
	for i := len(window) - 2; i >= 0; i-- {
		if window[i] == '.' && window[i+1] == ' ' {
			return i
		}
	}
	return -1
}
