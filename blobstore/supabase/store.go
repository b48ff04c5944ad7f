package supabase

import (
	"context"
	"fmt"
	"path"
	"strings"

	storage_go "github.com/supabase-community/storage-go"
	"github.com/supabase-community/supabase-go"

	"github.com/scopeworks/kbpipeline/blobstore"
)

// Config holds Supabase connection configuration.
type Config struct {
	// URL is the Supabase project URL.
	URL string

	// APIKey is the service role or anon key.
	APIKey string

	// Bucket is the storage bucket holding knowledge-base documents.
	Bucket string
}

// Store implements blobstore.Store over a Supabase storage bucket.
type Store struct {
	client *supabase.Client
	bucket string
}

var _ blobstore.Store = (*Store)(nil)

// New creates a new Supabase-backed document store.
func New(cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("supabase URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("supabase API key is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("supabase bucket is required")
	}

	client, err := supabase.NewClient(cfg.URL, cfg.APIKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}

	return &Store{client: client, bucket: cfg.Bucket}, nil
}

// List implements blobstore.Store. Bucket listings are one level deep, so
// folders are walked recursively and flattened into a single object list.
func (s *Store) List(ctx context.Context, prefix string) ([]blobstore.Object, error) {
	prefix = strings.Trim(prefix, "/")

	var objects []blobstore.Object
	if err := s.list(ctx, prefix, &objects); err != nil {
		return nil, err
	}
	return objects, nil
}

func (s *Store) list(ctx context.Context, dir string, out *[]blobstore.Object) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	entries, err := s.client.Storage.ListFiles(s.bucket, dir, storage_go.FileSearchOptions{})
	if err != nil {
		return fmt.Errorf("failed to list bucket %s at %q: %w", s.bucket, dir, err)
	}

	for _, entry := range entries {
		full := entry.Name
		if dir != "" {
			full = dir + "/" + entry.Name
		}

		// Folder placeholders carry no object id.
		if entry.Id == "" {
			if err := s.list(ctx, full, out); err != nil {
				return err
			}
			continue
		}

		*out = append(*out, blobstore.Object{
			Name: path.Base(full),
			Path: full,
			Size: objectSize(entry),
		})
	}
	return nil
}

// Read implements blobstore.Store.
func (s *Store) Read(_ context.Context, objectPath string) ([]byte, error) {
	data, err := s.client.Storage.DownloadFile(s.bucket, strings.Trim(objectPath, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", blobstore.ErrNotFound, objectPath, err)
	}
	return data, nil
}

// objectSize digs the byte size out of the listing metadata. Zero is fine
// when the backend omits it: the fingerprint recomputes size from the bytes.
func objectSize(entry storage_go.FileObject) int64 {
	meta, ok := entry.Metadata.(map[string]any)
	if !ok {
		return 0
	}
	if size, ok := meta["size"].(float64); ok {
		return int64(size)
	}
	return 0
}
