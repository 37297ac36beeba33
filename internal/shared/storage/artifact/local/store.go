package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"jsonlify-backend/internal/shared/storage/artifact"
)

// Store implements artifact.Store using the local filesystem.
type Store struct {
	baseDir string
	baseURL string
}

// New creates a local artifact store rooted at baseDir. Returned URLs are
// built from baseURL and resolve to the file retrieval endpoint.
func New(baseDir, baseURL string) *Store {
	return &Store{
		baseDir: baseDir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Put writes the reader to disk at the given storage key. The content type is
// only meaningful for remote backends; local files carry none.
func (s *Store) Put(ctx context.Context, key string, _ string, r io.Reader) (artifact.Ref, error) {
	if err := ctx.Err(); err != nil {
		return artifact.Ref{}, err
	}

	clean, err := cleanKey(key)
	if err != nil {
		return artifact.Ref{}, err
	}

	fullPath := filepath.Join(s.baseDir, clean)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return artifact.Ref{}, fmt.Errorf("mkdir: %w", err)
	}
	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return artifact.Ref{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return artifact.Ref{}, fmt.Errorf("write body: %w", err)
	}

	return artifact.Ref{Key: key, URL: s.urlFor(key)}, nil
}

// Open opens a stored artifact for reading.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	clean, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	return os.Open(filepath.Join(s.baseDir, clean))
}

// Delete removes a stored artifact.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	clean, err := cleanKey(key)
	if err != nil {
		return err
	}
	return os.Remove(filepath.Join(s.baseDir, clean))
}

func (s *Store) urlFor(key string) string {
	return s.baseURL + "/api/v1/files/" + strings.TrimLeft(key, "/")
}

func cleanKey(key string) (string, error) {
	clean := filepath.Clean(key)
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid storage key")
	}
	return clean, nil
}

var _ artifact.Store = (*Store)(nil)
