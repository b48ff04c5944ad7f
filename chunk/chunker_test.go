package chunk

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		wantErr error
	}{
		{"valid defaults", DefaultSize, DefaultOverlap, nil},
		{"zero size", 0, 0, ErrInvalidSize},
		{"negative size", -10, 0, ErrInvalidSize},
		{"negative overlap", 100, -1, ErrInvalidOverlap},
		{"overlap equals size", 100, 100, ErrOverlapTooLarge},
		{"overlap exceeds size", 100, 150, ErrOverlapTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.size, tt.overlap)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, c)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.size, c.Size())
			assert.Equal(t, tt.overlap, c.Overlap())
		})
	}
}

func TestSplit_ShortDocument(t *testing.T) {
	c, err := New(1000, 200)
	require.NoError(t, err)

	text := "A single short paragraph that fits in one chunk."
	chunks := c.Split(text)

	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestSplit_SentenceBoundaries(t *testing.T) {
	c, err := New(200, 50)
	require.NoError(t, err)

	// Short enough that every 200-rune window has a sentence end past the
	// 70% cut point.
	sentence := "The quick brown fox jumps over the lazy dogs now. "
	text := strings.Repeat(sentence, 10)

	chunks := c.Split(text)
	require.Greater(t, len(chunks), 1)

	for i, chunk := range chunks {
		assert.LessOrEqual(t, len([]rune(chunk)), 200, "chunk %d exceeds target size", i)
		// Every cut should have snapped to a sentence boundary in this text.
		assert.True(t, strings.HasSuffix(chunk, "."), "chunk %d not cut at sentence end: %q", i, chunk)
	}
}

func TestSplit_NoPunctuationFallsBackToHardCuts(t *testing.T) {
	c, err := New(100, 20)
	require.NoError(t, err)

	text := strings.Repeat("a", 250)
	chunks := c.Split(text)

	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 100)
	assert.Len(t, chunks[1], 100)
	assert.Len(t, chunks[2], 90)
}

func TestSplit_Coverage(t *testing.T) {
	c, err := New(120, 30)
	require.NoError(t, err)

	// Unique words so every chunk occurs exactly once in the input.
	words := make([]string, 150)
	for i := range words {
		words[i] = fmt.Sprintf("word%03d", i)
	}
	text := strings.Join(words, " ")

	chunks := c.Split(text)
	require.NotEmpty(t, chunks)

	// Each chunk is a contiguous substring; successive chunks start after
	// the previous chunk's start and at or before its end, so together they
	// cover the whole input.
	prevStart, prevEnd := -1, 0
	for i, chunk := range chunks {
		searchFrom := prevStart + 1
		pos := strings.Index(text[searchFrom:], chunk)
		require.GreaterOrEqual(t, pos, 0, "chunk %d not found in input: %q", i, chunk)
		start := searchFrom + pos
		end := start + len(chunk)

		if i > 0 {
			assert.Greater(t, start, prevStart, "chunk %d does not advance", i)
			assert.LessOrEqual(t, start, prevEnd, "gap before chunk %d", i)
		}
		prevStart, prevEnd = start, end
	}
	assert.Equal(t, len(text), prevEnd, "final chunk does not reach end of input")
}

func TestSplit_DropsWhitespaceChunks(t *testing.T) {
	c, err := New(10, 2)
	require.NoError(t, err)

	text := "word      " + strings.Repeat(" ", 20) + "tail"
	for _, chunk := range c.Split(text) {
		assert.NotEmpty(t, strings.TrimSpace(chunk))
	}
}
