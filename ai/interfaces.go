package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a
	// single batched call. The returned slice contains embeddings in the
	// same order as the input texts. Errors are whole-batch: either every
	// text is embedded or none is.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
