package mock

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedTextIsDeterministic(t *testing.T) {
	e := NewEmbedder()
	ctx := context.Background()

	first, err := e.EmbedText(ctx, "retrieval notes")
	require.NoError(t, err)
	second, err := e.EmbedText(ctx, "retrieval notes")
	require.NoError(t, err)
	other, err := e.EmbedText(ctx, "unrelated text")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
	assert.Equal(t, 3, e.CallCount())
}

func TestEmbedTextReturnsUnitVectors(t *testing.T) {
	e := NewEmbedder()

	vector, err := e.EmbedText(context.Background(), "some document body")
	require.NoError(t, err)

	var sumSquares float64
	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sumSquares), 1e-3)
}
