package ingest

import "errors"

var (
	// ErrRepositoryRequired is returned when a storage repository is not provided.
	ErrRepositoryRequired = errors.New("storage repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrIndexRequired is returned when a vector index is not provided.
	ErrIndexRequired = errors.New("vector index required")

	// ErrBlobStoreRequired is returned when a blob store is not provided.
	ErrBlobStoreRequired = errors.New("blob store required")

	// ErrInvalidMaxAttempts is returned when retry is configured with a
	// non-positive attempt count.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrTextTooShort is returned when a document yields too little text
	// to be worth indexing.
	ErrTextTooShort = errors.New("extracted text too short")

	// ErrDocumentBusy is returned when another worker is already
	// processing the same document.
	ErrDocumentBusy = errors.New("document is being processed")
)
