package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/scopeworks/kbpipeline/blobstore"
)

// Store implements blobstore.Store over a local directory tree.
// Object paths are slash-separated and relative to the root.
type Store struct {
	root string
}

var _ blobstore.Store = (*Store)(nil)

// New creates a filesystem store rooted at dir.
func New(dir string) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	return &Store{root: dir}, nil
}

// List implements blobstore.Store.
func (s *Store) List(ctx context.Context, prefix string) ([]blobstore.Object, error) {
	var objects []blobstore.Object

	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}

		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		objects = append(objects, blobstore.Object{
			Name: path.Base(key),
			Path: key,
			Size: info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return objects, nil
}

// Read implements blobstore.Store.
func (s *Store) Read(_ context.Context, objectPath string) ([]byte, error) {
	rel := filepath.FromSlash(objectPath)
	if !filepath.IsLocal(rel) {
		return nil, fmt.Errorf("%w: %s", blobstore.ErrNotFound, objectPath)
	}

	data, err := os.ReadFile(filepath.Join(s.root, rel))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", blobstore.ErrNotFound, objectPath)
		}
		return nil, err
	}
	return data, nil
}
