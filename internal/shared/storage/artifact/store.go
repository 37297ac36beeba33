package artifact

import (
	"context"
	"io"
)

// Ref identifies a stored artifact and where it can be retrieved from.
type Ref struct {
	Key string
	URL string
}

// Store defines the contract for saving and retrieving binary artifacts.
// Keys are caller-chosen opaque path-like strings; the caller is responsible
// for uniqueness, typically by embedding a random suffix. Implementations are
// interchangeable between local-disk and object-storage backends.
type Store interface {
	Put(ctx context.Context, key string, contentType string, r io.Reader) (Ref, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes an artifact. Callers treat failures as best-effort
	// cleanup: log and move on, never propagate.
	Delete(ctx context.Context, key string) error
}
